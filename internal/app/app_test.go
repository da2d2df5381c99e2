package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyxmakerx/beritabank/internal/ai"
	"github.com/keyxmakerx/beritabank/internal/apperror"
	"github.com/keyxmakerx/beritabank/internal/clock"
	"github.com/keyxmakerx/beritabank/internal/config"
	"github.com/keyxmakerx/beritabank/internal/plugins/smtp"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:     "development",
		BaseURL: "http://localhost:3000",
		Auth:    config.AuthConfig{SessionTTL: time.Hour},
		Verification: config.VerificationConfig{
			EncryptionKey: "test-encryption-key-that-is-long-enough",
			CodeTTL:       10 * time.Minute,
			MaxAttempts:   3,
		},
		RateLimit: config.RateLimitConfig{LoginPerMinute: 10, RegisterPerMinute: 5, VerifyPerMinute: 10, ChatPerMinute: 20},
	}
}

func newTestApp(t *testing.T) (*App, sqlmock.Sqlmock, *miniredis.Miniredis) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	a := New(testConfig(), db, rdb, Collaborators{
		Summarizer: ai.Unconfigured{},
		Assistant:  ai.Unconfigured{},
		Updater:    ai.Unconfigured{},
		Mailer:     smtp.NewMailService(config.SMTPConfig{}, clock.UTC{}),
	})
	require.NoError(t, a.RegisterRoutes())
	return a, mock, mr
}

func do(a *App, method, target string) (*httptest.ResponseRecorder, map[string]any) {
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestErrorHandler_AppErrorWithDetails(t *testing.T) {
	a, _, _ := newTestApp(t)
	a.Echo.GET("/boom", func(echo.Context) error { return apperror.NewCodeMismatch(2) })

	rec, body := do(a, http.MethodGet, "/boom")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, apperror.TypeCodeMismatch, body["error"])
	assert.Contains(t, body["message"], "2 verification attempts left")
	assert.Equal(t, float64(2), body["attempts_remaining"])
}

func TestErrorHandler_HidesUnexpectedErrors(t *testing.T) {
	a, _, _ := newTestApp(t)
	a.Echo.GET("/boom", func(echo.Context) error { return errors.New("dial tcp 10.0.0.5:3306: refused") })

	rec, body := do(a, http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, apperror.TypeInternal, body["error"])
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}

func TestErrorHandler_PanicBecomesInternalError(t *testing.T) {
	a, _, _ := newTestApp(t)
	a.Echo.GET("/panic", func(echo.Context) error { panic("nil map") })

	rec, body := do(a, http.MethodGet, "/panic")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, apperror.TypeInternal, body["error"])
}

func TestErrorHandler_UnknownRoute(t *testing.T) {
	a, _, _ := newTestApp(t)
	rec, body := do(a, http.MethodGet, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apperror.TypeNotFound, body["error"])
}

func TestRoutes_ProtectedEndpointsRequireToken(t *testing.T) {
	a, _, _ := newTestApp(t)

	for _, target := range []string{"/api/auth/me", "/api/daily-summary", "/api/message/history", "/api/auth/activity"} {
		rec, body := do(a, http.MethodGet, target)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
		assert.Equal(t, apperror.TypeUnauthenticated, body["error"], target)
	}
}

func TestRoutes_PublicArticleValidation(t *testing.T) {
	a, _, _ := newTestApp(t)
	rec, body := do(a, http.MethodGet, "/api/articles/not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid article id", body["message"])
}

func TestRoutes_SecurityHeadersAndRequestID(t *testing.T) {
	a, _, _ := newTestApp(t)
	rec, _ := do(a, http.MethodGet, "/api/articles/not-a-uuid")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestHealth_OK(t *testing.T) {
	a, mock, _ := newTestApp(t)
	mock.ExpectPing()

	rec, body := do(a, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealth_RedisDown(t *testing.T) {
	a, mock, mr := newTestApp(t)
	mock.ExpectPing()
	mr.Close()

	rec, body := do(a, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "unreachable", body["redis"])
	assert.Equal(t, "ok", body["database"])
}

func TestHealth_DatabaseDown(t *testing.T) {
	a, mock, _ := newTestApp(t)
	mock.ExpectPing().WillReturnError(errors.New("bad connection"))

	rec, body := do(a, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unreachable", body["database"])
}
