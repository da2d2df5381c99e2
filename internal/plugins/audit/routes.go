package audit

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes mounts the activity feed on an already-authenticated group.
func RegisterRoutes(authed *echo.Group, h *Handler) {
	authed.GET("/auth/activity", h.Activity)
}
