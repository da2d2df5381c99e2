package verification

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/beritabank/internal/apperror"
	"github.com/keyxmakerx/beritabank/internal/middleware"
	"github.com/keyxmakerx/beritabank/internal/plugins/auth"
)

// VerifyRequest is the JSON body of POST /api/auth/verify_email.
type VerifyRequest struct {
	Code string `json:"code"`
}

// Handler serves the verification endpoints.
type Handler struct {
	service VerificationService
}

// NewHandler creates a new verification handler.
func NewHandler(service VerificationService) *Handler {
	return &Handler{service: service}
}

// Verify submits a code (POST /api/auth/verify_email).
func (h *Handler) Verify(c echo.Context) error {
	acc := auth.GetAccount(c)
	if acc == nil {
		return apperror.NewMissingContext()
	}

	var req VerifyRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("No JSON data provided")
	}

	result, err := h.service.Verify(c.Request().Context(), acc, strings.TrimSpace(req.Code), c.RealIP())
	if err != nil {
		return err
	}
	return middleware.OK(c, "Email verified successfully", result)
}

// Regenerate sends a new code (POST /api/auth/regenerate_verification_code).
func (h *Handler) Regenerate(c echo.Context) error {
	acc := auth.GetAccount(c)
	if acc == nil {
		return apperror.NewMissingContext()
	}

	reissue, err := h.service.Regenerate(c.Request().Context(), acc, c.RealIP())
	if err != nil {
		return err
	}
	return middleware.OK(c, "New verification code sent to your email", reissue)
}
