package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/beritabank/internal/apperror"
	"github.com/keyxmakerx/beritabank/internal/middleware"
)

// Handler handles HTTP requests for accounts. Handlers are thin: they bind
// the request, call the service, and write the envelope.
type Handler struct {
	service AuthService
}

// NewHandler creates a new auth handler with the given service.
func NewHandler(service AuthService) *Handler {
	return &Handler{service: service}
}

// sessionResponse is the data returned by register and login.
func sessionResponse(s *Session) map[string]any {
	return map[string]any{
		"user_id":     s.Account.ID,
		"username":    s.Account.Username,
		"email":       s.Account.Email,
		"desc":        s.Account.Description,
		"is_verified": s.Account.IsVerified,
		"token":       s.Token,
	}
}

// Register creates an account (POST /api/auth/register).
func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("No JSON data provided")
	}

	session, err := h.service.Register(c.Request().Context(), RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		Description: req.Desc,
		IP:          c.RealIP(),
	})
	if err != nil {
		return err
	}

	return middleware.Created(c, "User registered successfully", sessionResponse(session))
}

// Login authenticates and rotates the bearer token (POST /api/auth/login).
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("No JSON data provided")
	}

	session, err := h.service.Login(c.Request().Context(), LoginInput{
		Identifier: req.Username,
		Password:   req.Password,
		IP:         c.RealIP(),
	})
	if err != nil {
		return err
	}

	return middleware.OK(c, "Login successful", sessionResponse(session))
}

// Logout invalidates the current token (POST /api/auth/logout).
func (h *Handler) Logout(c echo.Context) error {
	acc := GetAccount(c)
	if acc == nil {
		return apperror.NewMissingContext()
	}
	if err := h.service.Logout(c.Request().Context(), acc.ID); err != nil {
		return err
	}
	return middleware.OK(c, "Logged out", nil)
}

// Me returns the current account (GET /api/auth/me).
func (h *Handler) Me(c echo.Context) error {
	acc := GetAccount(c)
	if acc == nil {
		return apperror.NewMissingContext()
	}
	return middleware.OK(c, "", acc)
}

// CheckStatus reports missing onboarding steps (GET /api/auth/check_status).
func (h *Handler) CheckStatus(c echo.Context) error {
	acc := GetAccount(c)
	if acc == nil {
		return apperror.NewMissingContext()
	}
	return middleware.OK(c, "Profile status checked successfully", StatusOf(acc))
}

// CreateDescription sets the profile description (POST /api/auth/create_desc).
func (h *Handler) CreateDescription(c echo.Context) error {
	acc := GetAccount(c)
	if acc == nil {
		return apperror.NewMissingContext()
	}

	var req DescriptionRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("No JSON data provided")
	}

	updated, err := h.service.SetDescription(c.Request().Context(), acc, req.Desc, c.RealIP())
	if err != nil {
		return err
	}

	return middleware.OK(c, "Description created successfully", map[string]any{
		"desc":          updated.Description,
		"daily_summary": updated.Summary,
	})
}
