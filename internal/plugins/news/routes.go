package news

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes mounts the public listing endpoints.
func RegisterRoutes(api *echo.Group, h *Handler) {
	api.GET("/articles", h.Articles)
	api.GET("/articles/:id", h.Article)
	api.GET("/banks", h.Banks)
}
