package auth

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/beritabank/internal/config"
	"github.com/keyxmakerx/beritabank/internal/middleware"
)

// RegisterRoutes mounts the account endpoints. Register and login are public
// and rate-limited per IP. The rest go on the authenticated group.
func RegisterRoutes(api *echo.Group, authed *echo.Group, h *Handler, limiter *middleware.RateLimiter, limits config.RateLimitConfig) {
	api.POST("/auth/register", h.Register, limiter.Limit("register", limits.RegisterPerMinute, time.Minute))
	api.POST("/auth/login", h.Login, limiter.Limit("login", limits.LoginPerMinute, time.Minute))

	authed.POST("/auth/logout", h.Logout)
	authed.GET("/auth/me", h.Me)
	authed.GET("/auth/check_status", h.CheckStatus)
	authed.POST("/auth/create_desc", h.CreateDescription)
}
