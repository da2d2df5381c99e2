package audit

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/beritabank/internal/apperror"
	"github.com/keyxmakerx/beritabank/internal/middleware"
)

// Handler serves the account activity feed.
type Handler struct {
	service   AuditService
	accountID func(echo.Context) string
}

// NewHandler creates a new audit handler. accountID resolves the
// authenticated account from the request context.
func NewHandler(service AuditService, accountID func(echo.Context) string) *Handler {
	return &Handler{service: service, accountID: accountID}
}

// Activity returns the caller's recent account events (GET /api/auth/activity).
func (h *Handler) Activity(c echo.Context) error {
	id := h.accountID(c)
	if id == "" {
		return apperror.NewMissingContext()
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	entries, err := h.service.Activity(c.Request().Context(), id, page)
	if err != nil {
		return err
	}

	return middleware.OK(c, "", map[string]any{
		"entries": entries,
		"page":    max(page, 1),
	})
}
