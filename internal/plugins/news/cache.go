package news

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// cacheKeyPrefix namespaces listing entries in Redis.
const cacheKeyPrefix = "news:"

// listingCache stores serialized listings in Redis for a short TTL. Every
// failure is treated as a miss so an unavailable Redis only costs a query.
type listingCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func (c *listingCache) get(ctx context.Context, key string, dst any) bool {
	if c == nil || c.rdb == nil {
		return false
	}

	data, err := c.rdb.Get(ctx, cacheKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		slog.Warn("news cache read failed", slog.String("key", key), slog.Any("error", err))
		return false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		slog.Warn("news cache entry corrupt", slog.String("key", key), slog.Any("error", err))
		return false
	}
	return true
}

func (c *listingCache) set(ctx context.Context, key string, value any) {
	if c == nil || c.rdb == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		slog.Warn("news cache encode failed", slog.String("key", key), slog.Any("error", err))
		return
	}
	if err := c.rdb.Set(ctx, cacheKeyPrefix+key, data, c.ttl).Err(); err != nil {
		slog.Warn("news cache write failed", slog.String("key", key), slog.Any("error", err))
	}
}
