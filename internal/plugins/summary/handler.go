package summary

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/beritabank/internal/apperror"
	"github.com/keyxmakerx/beritabank/internal/middleware"
	"github.com/keyxmakerx/beritabank/internal/plugins/auth"
)

// UpdateRequest is the JSON body of POST /api/update_desc.
type UpdateRequest struct {
	Message string `json:"message"`
}

// updateResponse keeps type and desc_updated beside data, where clients
// already read them.
type updateResponse struct {
	Success     bool           `json:"success"`
	Message     string         `json:"message"`
	Type        string         `json:"type"`
	DescUpdated bool           `json:"desc_updated"`
	Data        map[string]any `json:"data"`
}

// Handler serves the summary endpoints.
type Handler struct {
	service SummaryService
}

// NewHandler creates a new summary handler.
func NewHandler(service SummaryService) *Handler {
	return &Handler{service: service}
}

// Get returns the daily summary (GET /api/daily-summary).
func (h *Handler) Get(c echo.Context) error {
	acc := auth.GetAccount(c)
	if acc == nil {
		return apperror.NewMissingContext()
	}

	s, err := h.service.Get(c.Request().Context(), acc)
	if err != nil {
		return err
	}

	return middleware.OK(c, "", map[string]any{
		"daily_summary": s,
		"user_desc":     acc.Description,
	})
}

// UpdateDescription applies a free-text preference change (POST /api/update_desc).
func (h *Handler) UpdateDescription(c echo.Context) error {
	acc := auth.GetAccount(c)
	if acc == nil {
		return apperror.NewMissingContext()
	}

	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("Message is required")
	}

	res, err := h.service.UpdateFromMessage(c.Request().Context(), acc, req.Message, c.RealIP())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, updateResponse{
		Success:     true,
		Message:     res.Response,
		Type:        "desc_updated",
		DescUpdated: res.DescUpdated,
		Data: map[string]any{
			"new_desc":            res.NewDesc,
			"daily_summary_reset": res.SummaryReset,
		},
	})
}
