package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors_StatusAndType(t *testing.T) {
	cases := []struct {
		err      *AppError
		code     int
		typeName string
	}{
		{NewValidation("x"), http.StatusUnprocessableEntity, TypeValidation},
		{NewConflict("x"), http.StatusConflict, TypeConflict},
		{NewUnauthenticated("x"), http.StatusUnauthorized, TypeUnauthenticated},
		{NewInvalidToken("x"), http.StatusUnauthorized, TypeInvalidToken},
		{NewInvalidCredentials(), http.StatusUnauthorized, TypeInvalidCredentials},
		{NewCodeMismatch(2), http.StatusBadRequest, TypeCodeMismatch},
		{NewCodeExpired(), http.StatusBadRequest, TypeCodeExpired},
		{NewEnvelopeInvalid(nil), http.StatusBadRequest, TypeEnvelopeInvalid},
		{NewAttemptsExhausted(), http.StatusTooManyRequests, TypeAttemptsExhausted},
		{NewCodeStillValid(4), http.StatusTooManyRequests, TypeCodeStillValid},
		{NewMissingProfile(), http.StatusBadRequest, TypeMissingProfile},
		{NewUpstreamFailure("x", nil), http.StatusBadGateway, TypeUpstreamFailure},
		{NewInternal(errors.New("boom")), http.StatusInternalServerError, TypeInternal},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.code, tc.err.Code, tc.typeName)
		assert.Equal(t, tc.typeName, tc.err.Type)
	}
}

func TestCodeMismatch_CarriesAttemptsRemaining(t *testing.T) {
	err := NewCodeMismatch(1)
	assert.Equal(t, 1, err.Details["attempts_remaining"])
	assert.Contains(t, err.Message, "1 verification attempts left")
}

func TestCodeStillValid_CarriesMinutesRemaining(t *testing.T) {
	err := NewCodeStillValid(7)
	assert.Equal(t, 7, err.Details["minutes_remaining"])
}

func TestIs_MatchesWrapped(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewCodeExpired())
	assert.True(t, Is(wrapped, TypeCodeExpired))
	assert.False(t, Is(wrapped, TypeCodeMismatch))
	assert.False(t, Is(errors.New("plain"), TypeCodeExpired))
}

func TestSafeMessage_HidesInternals(t *testing.T) {
	assert.Equal(t, "an unexpected error occurred", SafeMessage(errors.New("table users missing")))
	assert.Equal(t, "nope", SafeMessage(NewConflict("nope")))
	assert.Equal(t, http.StatusInternalServerError, SafeCode(errors.New("x")))
	assert.Equal(t, http.StatusConflict, SafeCode(NewConflict("x")))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("cause")
	err := NewInternal(cause)
	assert.ErrorIs(t, err, cause)
}
