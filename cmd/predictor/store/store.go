// Package store builds the result cache selected by configuration.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/HatiCode/predictor/cmd/predictor/config"
	"github.com/HatiCode/predictor/pkg/cache"
)

// New returns the configured cache. A Redis cache must be reachable at
// startup; callers should Close it on shutdown.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (cache.Cache, error) {
	switch cfg.Cache {
	case config.CacheMemory, "":
		logger.Info("using in-memory cache")
		return cache.NewMemoryCache(), nil

	case config.CacheRedis:
		c, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			TTL:       cfg.RedisTTL,
			Namespace: cfg.RedisNamespace,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("using redis cache",
			"addr", cfg.RedisAddr,
			"db", cfg.RedisDB,
			"ttl", cfg.RedisTTL,
			"namespace", cfg.RedisNamespace,
		)
		return c, nil

	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache)
	}
}

// ReadyCheck returns a readiness probe for c. Caches without a remote
// dependency are always ready.
func ReadyCheck(c cache.Cache) func(ctx context.Context) error {
	pinger, ok := c.(interface{ Ping(ctx context.Context) error })
	if !ok {
		return func(context.Context) error { return nil }
	}
	return pinger.Ping
}
