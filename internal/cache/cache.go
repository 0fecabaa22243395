package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "analysis:"

// AnalysisCache stores completed analysis responses keyed by listing URL.
// Cache failures are logged and treated as misses; a broken Redis never
// blocks a request.
type AnalysisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewAnalysisCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *AnalysisCache {
	return &AnalysisCache{
		client: client,
		ttl:    ttl,
		logger: logger.With("component", "cache"),
	}
}

// Get returns the cached payload for url, or nil on a miss.
func (c *AnalysisCache) Get(ctx context.Context, url string) json.RawMessage {
	if c == nil || c.client == nil {
		return nil
	}

	payload, err := c.client.Get(ctx, keyPrefix+url).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache get failed", "url", url, "error", err)
		}
		return nil
	}
	return payload
}

// Set stores payload for url with the configured TTL.
func (c *AnalysisCache) Set(ctx context.Context, url string, payload json.RawMessage) {
	if c == nil || c.client == nil {
		return
	}

	if err := c.client.Set(ctx, keyPrefix+url, []byte(payload), c.ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", "url", url, "error", err)
	}
}
