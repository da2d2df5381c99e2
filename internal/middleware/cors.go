package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// CORSConfig holds configuration for the CORS middleware.
type CORSConfig struct {
	// AllowedOrigins is the list of origins permitted to make cross-origin
	// requests, typically the web frontend. ["*"] allows any origin.
	AllowedOrigins []string

	// AllowCredentials indicates whether the browser may send credentials.
	// Bearer tokens travel in a header, so the frontend does not need this.
	AllowCredentials bool
}

var (
	corsAllowMethods = strings.Join([]string{
		http.MethodGet, http.MethodPost, http.MethodOptions,
	}, ", ")
	corsAllowHeaders = strings.Join([]string{
		"Content-Type", "Authorization", RequestIDHeader,
	}, ", ")
)

// CORS returns middleware that handles Cross-Origin Resource Sharing headers
// for the browser frontend, which is served from a different origin than
// the API.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	allowAll := false
	originSet := make(map[string]bool)
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			allowAll = true
		}
		originSet[strings.TrimRight(o, "/")] = true
	}

	// Wildcard origin with credentials would let any site act as the user.
	if allowAll && cfg.AllowCredentials {
		slog.Warn("CORS misconfiguration: wildcard origin with credentials; credentials disabled")
		cfg.AllowCredentials = false
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			origin := req.Header.Get("Origin")

			if origin == "" {
				return next(c)
			}
			if !allowAll && !originSet[origin] {
				// The browser blocks the response on its side.
				return next(c)
			}

			res.Header().Set("Access-Control-Allow-Origin", origin)
			res.Header().Add("Vary", "Origin")
			if cfg.AllowCredentials {
				res.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if req.Method == http.MethodOptions {
				res.Header().Set("Access-Control-Allow-Methods", corsAllowMethods)
				res.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)
				res.Header().Set("Access-Control-Max-Age", "3600")
				return c.NoContent(http.StatusNoContent)
			}

			res.Header().Set("Access-Control-Expose-Headers", RequestIDHeader+", Retry-After")
			return next(c)
		}
	}
}
