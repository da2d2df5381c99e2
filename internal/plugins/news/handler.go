package news

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/beritabank/internal/apperror"
	"github.com/keyxmakerx/beritabank/internal/middleware"
)

// Handler serves the public listing endpoints.
type Handler struct {
	service NewsService
}

// NewHandler creates a new news handler.
func NewHandler(service NewsService) *Handler {
	return &Handler{service: service}
}

// queryLimit reads ?limit, falling back to def when absent.
func queryLimit(c echo.Context, def int) (int, error) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.NewBadRequest("Limit must be a positive integer")
	}
	return n, nil
}

// Articles lists articles (GET /api/articles).
func (h *Handler) Articles(c echo.Context) error {
	limit, err := queryLimit(c, DefaultArticleLimit)
	if err != nil {
		return err
	}

	articles, err := h.service.Articles(c.Request().Context(), limit)
	if err != nil {
		return err
	}

	return middleware.OK(c, fmt.Sprintf("Retrieved %d articles sorted by importance", len(articles)), map[string]any{
		"articles": articles,
		"count":    len(articles),
		"limit":    limit,
	})
}

// Article returns one article (GET /api/articles/:id).
func (h *Handler) Article(c echo.Context) error {
	a, err := h.service.Article(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return middleware.OK(c, "", a)
}

// Banks lists bank profiles (GET /api/banks).
func (h *Handler) Banks(c echo.Context) error {
	limit, err := queryLimit(c, DefaultBankLimit)
	if err != nil {
		return err
	}

	banks, limit, err := h.service.Banks(c.Request().Context(), limit)
	if err != nil {
		return err
	}

	return middleware.OK(c, "", map[string]any{
		"banks": banks,
		"count": len(banks),
		"limit": limit,
	})
}
