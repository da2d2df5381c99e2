package chat

import (
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/beritabank/internal/apperror"
	"github.com/keyxmakerx/beritabank/internal/middleware"
	"github.com/keyxmakerx/beritabank/internal/plugins/auth"
)

// Handler serves the chat endpoints.
type Handler struct {
	service ChatService
}

// NewHandler creates a new chat handler.
func NewHandler(service ChatService) *Handler {
	return &Handler{service: service}
}

// Send runs one chat turn (POST /api/message). An empty or missing body is
// a valid request for a greeting.
func (h *Handler) Send(c echo.Context) error {
	acc := auth.GetAccount(c)
	if acc == nil {
		return apperror.NewMissingContext()
	}

	var req SendRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return apperror.NewBadRequest("Invalid request body")
		}
	}

	turn, err := h.service.Send(c.Request().Context(), acc, req.Message, req.Language)
	if err != nil {
		return err
	}

	return middleware.OK(c, "", turn)
}

// History returns the persisted chat history (GET /api/message/history).
func (h *Handler) History(c echo.Context) error {
	acc := auth.GetAccount(c)
	if acc == nil {
		return apperror.NewMissingContext()
	}

	history, err := h.service.History(c.Request().Context(), acc)
	if err != nil {
		return err
	}

	return middleware.OK(c, "", map[string]any{"chat_history": history})
}
