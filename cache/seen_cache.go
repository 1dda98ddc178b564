// ABOUTME: This file provides the seen-item cache used to skip items whose
// ABOUTME: external identifier was already processed in a recent cycle.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"pharma-radar/config"
)

// SeenMarker answers whether an external identifier was already processed
// recently and records new ones.
type SeenMarker interface {
	Seen(ctx context.Context, externalID string) (bool, error)
	Mark(ctx context.Context, externalID string) error
	Close() error
}

const keyPrefix = "pharma-radar:seen:"

type RedisSeenCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisSeenCache connects to the configured redis instance and verifies
// the connection with a ping.
func NewRedisSeenCache(ctx context.Context, cfg config.SeenCacheConfig, logger *slog.Logger) (*RedisSeenCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid seen cache url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to seen cache: %w", err)
	}

	logger.Info("seen cache connected", "addr", opts.Addr, "ttl", cfg.TTL)

	return &RedisSeenCache{client: client, ttl: cfg.TTL, logger: logger}, nil
}

func (c *RedisSeenCache) Seen(ctx context.Context, externalID string) (bool, error) {
	count, err := c.client.Exists(ctx, keyPrefix+externalID).Result()
	if err != nil {
		return false, fmt.Errorf("seen cache lookup failed: %w", err)
	}
	return count > 0, nil
}

func (c *RedisSeenCache) Mark(ctx context.Context, externalID string) error {
	if err := c.client.Set(ctx, keyPrefix+externalID, "1", c.ttl).Err(); err != nil {
		return fmt.Errorf("seen cache mark failed: %w", err)
	}
	return nil
}

func (c *RedisSeenCache) Close() error {
	return c.client.Close()
}

// NoopSeenCache is used when the cache is disabled. Every item is treated
// as unseen, so deduplication falls entirely on the store upsert.
type NoopSeenCache struct{}

func (NoopSeenCache) Seen(ctx context.Context, externalID string) (bool, error) { return false, nil }
func (NoopSeenCache) Mark(ctx context.Context, externalID string) error         { return nil }
func (NoopSeenCache) Close() error                                              { return nil }
