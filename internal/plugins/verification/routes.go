package verification

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/beritabank/internal/middleware"
)

// RegisterRoutes mounts the verification endpoints on the authenticated
// group. Both are rate-limited per IP on top of the attempt cap.
func RegisterRoutes(authed *echo.Group, h *Handler, limiter *middleware.RateLimiter, perMinute int) {
	limit := limiter.Limit("verify", perMinute, time.Minute)
	authed.POST("/auth/verify_email", h.Verify, limit)
	authed.POST("/auth/regenerate_verification_code", h.Regenerate, limit)
}
