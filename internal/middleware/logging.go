// Package middleware provides HTTP middleware for the BeritaBank Echo server.
// Middleware is applied globally (all routes) or per-route group depending
// on the middleware type. See internal/app/routes.go for registration.
package middleware

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// contextKeyRequestID is the Echo context key holding the request id.
const contextKeyRequestID = "request_id"

// RequestLogger returns middleware that logs every HTTP request with
// structured fields: request id, method, path, status, latency, remote IP.
// An incoming X-Request-ID is reused; otherwise a UUID is generated and
// echoed back so clients can quote it in bug reports.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			reqID := c.Request().Header.Get(RequestIDHeader)
			if reqID == "" || len(reqID) > 64 {
				reqID = uuid.NewString()
			}
			c.Set(contextKeyRequestID, reqID)
			c.Response().Header().Set(RequestIDHeader, reqID)

			err := next(c)
			if err != nil {
				// Let the error handler write the response first so the
				// logged status is the one the client saw.
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			attrs := []slog.Attr{
				slog.String("request_id", reqID),
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.Int("status", res.Status),
				slog.Duration("latency", time.Since(start)),
				slog.String("remote_ip", c.RealIP()),
			}

			level := slog.LevelInfo
			if res.Status >= 500 {
				level = slog.LevelError
			} else if res.Status >= 400 {
				level = slog.LevelWarn
			}

			slog.LogAttrs(req.Context(), level, "request", attrs...)

			return nil
		}
	}
}

// GetRequestID returns the correlation id assigned by RequestLogger.
func GetRequestID(c echo.Context) string {
	id, _ := c.Get(contextKeyRequestID).(string)
	return id
}
