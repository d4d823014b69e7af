package cache

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/schoolfee/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Cache is a TenantCache that owns resources
type Cache interface {
	shared.TenantCache
	io.Closer
}

// Factory builds the report cache from configuration
type Factory struct {
	cacheConfig           config.CacheConfig
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	pingTimeout           time.Duration
}

// FactoryOption configures a Factory
type FactoryOption func(*Factory)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to the
// in-memory cache. Default true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a Factory
func NewFactory(cacheCfg config.CacheConfig, redisCfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		cacheConfig:           cacheCfg,
		redisConfig:           redisCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
		pingTimeout:           5 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns the configured cache. A disabled cache is a no-op.
func (f *Factory) Create(ctx context.Context) (Cache, error) {
	if !f.cacheConfig.Enabled {
		f.logger.Info("report cache disabled")
		return NopCache{}, nil
	}
	if f.cacheConfig.Backend != "redis" {
		f.logger.Info("using in-memory report cache")
		return NewMemoryCache(time.Minute), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     f.redisConfig.Addr(),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, f.pingTimeout)
	defer cancel()
	err := client.Ping(pingCtx).Err()
	if err == nil {
		f.logger.Info("using Redis report cache", zap.String("addr", f.redisConfig.Addr()))
		return NewRedisCache(client, f.cacheConfig.KeyPrefix), nil
	}
	_ = client.Close()

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for report cache but unavailable: %w", err)
	}
	f.logger.Warn("Redis unavailable, falling back to in-memory report cache; "+
		"instances will not share invalidations",
		zap.Error(err))
	return NewMemoryCache(time.Minute), nil
}

// NopCache never stores anything
type NopCache struct{}

func (NopCache) Get(context.Context, uuid.UUID, string) ([]byte, bool, error) { return nil, false, nil }
func (NopCache) Set(context.Context, uuid.UUID, string, []byte, time.Duration) error {
	return nil
}
func (NopCache) InvalidateTenant(context.Context, uuid.UUID) error { return nil }
func (NopCache) Close() error                                      { return nil }
