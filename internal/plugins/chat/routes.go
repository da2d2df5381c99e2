package chat

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/beritabank/internal/middleware"
)

// RegisterRoutes mounts the chat endpoints on the authenticated group.
// Assistant calls are expensive, so turns are rate limited per client.
func RegisterRoutes(authed *echo.Group, h *Handler, limiter *middleware.RateLimiter, perMinute int) {
	authed.POST("/message", h.Send, limiter.Limit("chat", perMinute, time.Minute))
	authed.GET("/message/history", h.History)
}
