// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pdiddy/ala-agent/pkg/types"
)

// Open builds a Cache from cfg. If the configured redis or badger store
// cannot be opened, Open logs a warning and falls back to memory so the
// agent keeps running without a durable cache.
func Open(ctx context.Context, cfg types.CacheConfig, redisPassword string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	store, err := openStore(ctx, cfg, redisPassword)
	if err != nil {
		logger.Warn("name cache backend unavailable, using memory", "backend", cfg.Backend, "error", err)
		store = NewMemoryStore()
	}

	opts := []Option{WithTTL(cfg.TTL), WithNegativeTTL(cfg.NegativeTTL), WithLogger(logger)}
	if cfg.Prefix != "" {
		opts = append(opts, WithPrefix(cfg.Prefix))
	}
	return New(store, opts...)
}

func openStore(ctx context.Context, cfg types.CacheConfig, redisPassword string) (Store, error) {
	switch cfg.Backend {
	case types.CacheRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("cache.redis_url is required for the redis backend")
		}
		return DialRedis(ctx, cfg.RedisURL, redisPassword)
	case types.CacheBadger:
		return OpenBadger(cfg.Dir)
	case types.CacheMemory, "":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
