// Package app is the application bootstrap and dependency injection root.
// It creates and holds all shared infrastructure (DB pool, Redis client,
// Echo instance) and wires together all plugins.
package app

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/beritabank/internal/ai"
	"github.com/keyxmakerx/beritabank/internal/apperror"
	"github.com/keyxmakerx/beritabank/internal/clock"
	"github.com/keyxmakerx/beritabank/internal/config"
	"github.com/keyxmakerx/beritabank/internal/middleware"
	"github.com/keyxmakerx/beritabank/internal/plugins/verification"
)

// Collaborators are the external services the plugins call out to. main
// chooses the implementations; tests pass fakes.
type Collaborators struct {
	Summarizer ai.Summarizer
	Assistant  ai.Assistant
	Updater    ai.PreferenceUpdater
	Mailer     verification.Mailer
	Clock      clock.Clock
}

// App holds all shared dependencies and the Echo HTTP server instance.
// Created once at startup in main.go and used to register all routes.
type App struct {
	// Config holds the loaded application configuration.
	Config *config.Config

	// DB is the MariaDB connection pool shared by all plugins.
	DB *sql.DB

	// Redis is the Redis client shared for rate limiting and caching.
	Redis *redis.Client

	// Echo is the HTTP server instance.
	Echo *echo.Echo

	collab Collaborators
}

// New creates a new App instance with the given dependencies and configures
// the Echo server with global middleware and error handling.
func New(cfg *config.Config, db *sql.DB, rdb *redis.Client, collab Collaborators) *App {
	e := echo.New()

	// Disable Echo's default banner and startup message -- we log our own.
	e.HideBanner = true
	e.HidePort = true

	// Configure trusted reverse proxy IPs so c.RealIP() returns the actual
	// client IP instead of the proxy's IP. Rate limits and the activity log
	// key on it.
	middleware.TrustedProxies(e, []string{
		"127.0.0.0/8",    // Localhost
		"10.0.0.0/8",     // Docker default bridge
		"172.16.0.0/12",  // Docker bridge (alternate range)
		"192.168.0.0/16", // Common LAN
		"fd00::/8",       // IPv6 private
	})

	if collab.Clock == nil {
		collab.Clock = clock.UTC{}
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		Echo:   e,
		collab: collab,
	}

	// Register global middleware in order of execution.
	app.setupMiddleware()

	// Register the custom error handler that maps AppErrors to HTTP responses.
	e.HTTPErrorHandler = app.errorHandler

	return app
}

// setupMiddleware registers global middleware on the Echo instance.
// The request logger is outermost so it sees the final status, including
// the 500 that Recovery produces for a panic.
func (a *App) setupMiddleware() {
	a.Echo.Use(middleware.RequestLogger())
	a.Echo.Use(middleware.Recovery())
	a.Echo.Use(middleware.SecurityHeaders())
	a.Echo.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:   []string{a.Config.BaseURL},
		AllowCredentials: true,
	}))
}

// errorHandler is the custom Echo error handler. Every response is JSON:
// {"success":false,"error":<type>,"message":<text>} plus any details the
// error carries, such as attempts_remaining.
func (a *App) errorHandler(err error, c echo.Context) {
	// Don't double-write if response is already committed.
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	errType := apperror.TypeInternal
	message := "An unexpected error occurred. Please try again."
	var details map[string]any

	var appErr *apperror.AppError
	var echoErr *echo.HTTPError
	switch {
	case errors.As(err, &appErr):
		code = appErr.Code
		errType = appErr.Type
		message = appErr.Message
		details = appErr.Details

		// Log internal errors with the underlying cause.
		if appErr.Internal != nil {
			slog.Error("internal error",
				slog.String("type", appErr.Type),
				slog.String("message", appErr.Message),
				slog.Any("internal", appErr.Internal),
				slog.String("path", c.Request().URL.Path),
				slog.String("request_id", middleware.GetRequestID(c)),
			)
		}

	case errors.As(err, &echoErr):
		// Echo's own errors: router 404/405, body too large.
		code = echoErr.Code
		errType = echoErrorType(code)
		if msg, ok := echoErr.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(code)
		}

	default:
		slog.Error("unhandled error",
			slog.Any("error", err),
			slog.String("path", c.Request().URL.Path),
			slog.String("request_id", middleware.GetRequestID(c)),
		)
	}

	body := map[string]any{
		"success": false,
		"error":   errType,
		"message": message,
	}
	for k, v := range details {
		if _, reserved := body[k]; !reserved {
			body[k] = v
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	if err := c.JSON(code, body); err != nil {
		slog.Error("writing error response", slog.Any("error", err))
	}
}

// echoErrorType maps a framework status code to an error type.
func echoErrorType(code int) string {
	switch code {
	case http.StatusNotFound:
		return apperror.TypeNotFound
	case http.StatusUnauthorized:
		return apperror.TypeUnauthenticated
	case http.StatusForbidden:
		return apperror.TypeForbidden
	case http.StatusTooManyRequests:
		return apperror.TypeRateLimited
	default:
		if code >= 500 {
			return apperror.TypeInternal
		}
		return apperror.TypeBadRequest
	}
}

// Start begins listening for HTTP requests on the configured port.
func (a *App) Start() error {
	addr := fmt.Sprintf(":%d", a.Config.Port)
	slog.Info("starting BeritaBank server",
		slog.String("addr", addr),
		slog.String("env", a.Config.Env),
	)
	return a.Echo.Start(addr)
}
