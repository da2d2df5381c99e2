package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/beritabank/internal/apperror"
)

// rateLimitKeyPrefix namespaces limiter counters in Redis.
const rateLimitKeyPrefix = "ratelimit:"

// fixedWindow increments the counter for key and sets its expiry on the
// first hit of a window. Both steps run in one script so a crash between
// them cannot leave a counter without a TTL.
var fixedWindow = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {n, redis.call("PTTL", KEYS[1])}
`)

// RateLimiter counts requests per client in Redis using fixed windows, so
// limits hold across every server instance behind the load balancer.
type RateLimiter struct {
	rdb *redis.Client
}

// NewRateLimiter creates a limiter backed by the given Redis client.
func NewRateLimiter(rdb *redis.Client) *RateLimiter {
	return &RateLimiter{rdb: rdb}
}

// Allow records one hit for key and reports whether it is within
// maxRequests for the current window, plus the time until the window resets.
func (l *RateLimiter) Allow(ctx context.Context, key string, maxRequests int, window time.Duration) (bool, time.Duration, error) {
	res, err := fixedWindow.Run(ctx, l.rdb, []string{rateLimitKeyPrefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("running rate limit script: %w", err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("unexpected rate limit reply: %v", res)
	}
	resetIn := time.Duration(res[1]) * time.Millisecond
	if resetIn < 0 {
		resetIn = window
	}
	return res[0] <= int64(maxRequests), resetIn, nil
}

// Limit returns middleware allowing maxRequests per client IP within window
// for routes sharing the given name. Redis failures fail open: a cache
// outage must not lock every user out of login.
func (l *RateLimiter) Limit(name string, maxRequests int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if maxRequests <= 0 {
				return next(c)
			}

			key := name + ":" + c.RealIP()
			ok, resetIn, err := l.Allow(c.Request().Context(), key, maxRequests, window)
			if err != nil {
				slog.Warn("rate limiter unavailable",
					slog.String("limiter", name),
					slog.Any("error", err),
				)
				return next(c)
			}
			if !ok {
				seconds := int((resetIn + time.Second - 1) / time.Second)
				c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
				return apperror.NewRateLimited(seconds)
			}
			return next(c)
		}
	}
}
