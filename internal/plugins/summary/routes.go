package summary

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes mounts the summary endpoints on the authenticated group.
func RegisterRoutes(authed *echo.Group, h *Handler) {
	authed.GET("/daily-summary", h.Get)
	authed.POST("/update_desc", h.UpdateDescription)
}
