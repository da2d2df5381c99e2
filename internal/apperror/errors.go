// Package apperror provides domain-specific error types for BeritaBank.
// These errors carry an HTTP status code and a user-safe message. The Echo
// error handler maps them to appropriate HTTP responses automatically.
//
// NEVER return raw database or infrastructure errors to the client. Always
// wrap them in an apperror type or return a generic internal error.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Machine-readable error types. Clients switch on these, so they are stable.
const (
	TypeNotFound           = "not_found"
	TypeBadRequest         = "bad_request"
	TypeValidation         = "validation_error"
	TypeConflict           = "conflict"
	TypeUnauthenticated    = "unauthenticated"
	TypeInvalidToken       = "invalid_token"
	TypeInvalidCredentials = "invalid_credentials"
	TypeForbidden          = "forbidden"
	TypeCodeMismatch       = "code_mismatch"
	TypeCodeExpired        = "code_expired"
	TypeEnvelopeInvalid    = "envelope_invalid"
	TypeAttemptsExhausted  = "attempts_exhausted"
	TypeCodeStillValid     = "code_still_valid"
	TypeMissingProfile     = "missing_profile"
	TypeUpstreamFailure    = "upstream_failure"
	TypeRateLimited        = "rate_limited"
	TypeInternal           = "internal_error"
)

// AppError is the base error type for all domain errors. It carries an
// HTTP status code, a machine-readable error type, and a human-readable
// message safe to show to the client.
type AppError struct {
	// Code is the HTTP status code (e.g., 404, 400, 500).
	Code int `json:"-"`

	// Type is a machine-readable error classifier (e.g., "not_found").
	Type string `json:"type"`

	// Message is a human-readable description safe for the client.
	Message string `json:"message"`

	// Details carries structured, client-safe extras such as
	// attempts_remaining or minutes_remaining.
	Details map[string]any `json:"details,omitempty"`

	// Internal holds the underlying error for logging. Never exposed to client.
	Internal error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Internal
}

// WithDetail returns the error with key set in Details.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// --- Constructors for common error types ---

// NewNotFound creates a 404 Not Found error.
func NewNotFound(message string) *AppError {
	return &AppError{Code: http.StatusNotFound, Type: TypeNotFound, Message: message}
}

// NewBadRequest creates a 400 Bad Request error for malformed requests.
func NewBadRequest(message string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Type: TypeBadRequest, Message: message}
}

// NewValidation creates a 422 Unprocessable Entity error for validation failures.
func NewValidation(message string) *AppError {
	return &AppError{Code: http.StatusUnprocessableEntity, Type: TypeValidation, Message: message}
}

// NewConflict creates a 409 Conflict error.
func NewConflict(message string) *AppError {
	return &AppError{Code: http.StatusConflict, Type: TypeConflict, Message: message}
}

// NewUnauthenticated creates a 401 for requests that carry no credentials.
func NewUnauthenticated(message string) *AppError {
	return &AppError{Code: http.StatusUnauthorized, Type: TypeUnauthenticated, Message: message}
}

// NewInvalidToken creates a 401 for unknown, malformed, or expired tokens.
func NewInvalidToken(message string) *AppError {
	return &AppError{Code: http.StatusUnauthorized, Type: TypeInvalidToken, Message: message}
}

// NewInvalidCredentials creates a 401 for failed logins. The same message is
// used for unknown identifiers and wrong passwords.
func NewInvalidCredentials() *AppError {
	return &AppError{Code: http.StatusUnauthorized, Type: TypeInvalidCredentials, Message: "Invalid credentials"}
}

// NewForbidden creates a 403 Forbidden error.
func NewForbidden(message string) *AppError {
	return &AppError{Code: http.StatusForbidden, Type: TypeForbidden, Message: message}
}

// NewCodeMismatch creates a 400 for a wrong verification code.
func NewCodeMismatch(attemptsRemaining int) *AppError {
	e := &AppError{
		Code:    http.StatusBadRequest,
		Type:    TypeCodeMismatch,
		Message: fmt.Sprintf("Verification code does not match. %d verification attempts left.", attemptsRemaining),
	}
	return e.WithDetail("attempts_remaining", attemptsRemaining)
}

// NewCodeExpired creates a 400 for a correct but expired verification code.
func NewCodeExpired() *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    TypeCodeExpired,
		Message: "Verification code has expired. Please request a new code.",
	}
}

// NewEnvelopeInvalid creates a 400 for a stored code that fails to decrypt.
func NewEnvelopeInvalid(err error) *AppError {
	return &AppError{
		Code:     http.StatusBadRequest,
		Type:     TypeEnvelopeInvalid,
		Message:  "Stored verification code is invalid. Please request a new code.",
		Internal: err,
	}
}

// NewAttemptsExhausted creates a 429 once the verification attempt cap is hit.
func NewAttemptsExhausted() *AppError {
	e := &AppError{
		Code:    http.StatusTooManyRequests,
		Type:    TypeAttemptsExhausted,
		Message: "Too many verification attempts. Please request a new verification code.",
	}
	return e.WithDetail("attempts_remaining", 0)
}

// NewCodeStillValid creates a 429 when a resend is requested too early.
func NewCodeStillValid(minutesRemaining int) *AppError {
	e := &AppError{
		Code: http.StatusTooManyRequests,
		Type: TypeCodeStillValid,
		Message: fmt.Sprintf("Current verification code is still valid. Please wait %d minutes before requesting a new code.",
			minutesRemaining),
	}
	return e.WithDetail("minutes_remaining", minutesRemaining)
}

// NewMissingProfile creates a 400 when an operation needs a description.
func NewMissingProfile() *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    TypeMissingProfile,
		Message: "User description not found. Please update your profile first.",
	}
}

// NewUpstreamFailure creates a 502 for a failed email or AI collaborator call.
func NewUpstreamFailure(message string, err error) *AppError {
	return &AppError{
		Code:     http.StatusBadGateway,
		Type:     TypeUpstreamFailure,
		Message:  message,
		Internal: err,
	}
}

// NewRateLimited creates a 429 for clients exceeding a request budget.
func NewRateLimited(retryAfterSeconds int) *AppError {
	e := &AppError{
		Code:    http.StatusTooManyRequests,
		Type:    TypeRateLimited,
		Message: "Too many requests. Please slow down.",
	}
	return e.WithDetail("retry_after", retryAfterSeconds)
}

// errMissingContext is the shared internal error for nil precondition checks.
var errMissingContext = errors.New("missing required context")

// NewMissingContext creates a 500 error for handler nil-context guards
// (e.g. account not set, dependency not wired).
func NewMissingContext() *AppError {
	return NewInternal(errMissingContext)
}

// NewInternal creates a 500 Internal Server Error. The real error is stored
// in Internal for logging but the client only sees a generic message.
func NewInternal(err error) *AppError {
	return &AppError{
		Code:     http.StatusInternalServerError,
		Type:     TypeInternal,
		Message:  "An unexpected error occurred. Please try again.",
		Internal: err,
	}
}

// Is reports whether err is an AppError of the given type.
func Is(err error, errType string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == errType
}

// SafeMessage returns the client-safe error message from an error. If the
// error is an AppError, returns its Message field (which is safe to expose).
// For any other error type, returns a generic message to prevent leaking
// internal details like table names, query structure, or stack traces.
func SafeMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "an unexpected error occurred"
}

// SafeCode returns the HTTP status code from an AppError, or 500 for
// any other error type.
func SafeCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
