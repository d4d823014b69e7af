package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/schoolfee/backend/internal/domain/shared"
)

// RedisCache is a TenantCache shared by every instance. Each school has a
// generation counter that is part of every data key; invalidation bumps the
// counter so stale keys are never read again and expire on their own TTL.
type RedisCache struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisCache wraps an existing client
func NewRedisCache(client redis.UniversalClient, keyPrefix string) *RedisCache {
	if keyPrefix == "" {
		keyPrefix = "schoolfee:"
	}
	return &RedisCache{client: client, keyPrefix: keyPrefix}
}

func (c *RedisCache) generationKey(tenantID uuid.UUID) string {
	return fmt.Sprintf("%sgen:%s", c.keyPrefix, tenantID)
}

func (c *RedisCache) dataKey(tenantID uuid.UUID, gen int64, key string) string {
	return fmt.Sprintf("%s%s:%d:%s", c.keyPrefix, tenantID, gen, key)
}

func (c *RedisCache) generation(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey(tenantID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cache generation: %w", err)
	}
	return gen, nil
}

// Get implements shared.TenantCache
func (c *RedisCache) Get(ctx context.Context, tenantID uuid.UUID, key string) ([]byte, bool, error) {
	gen, err := c.generation(ctx, tenantID)
	if err != nil {
		return nil, false, err
	}
	value, err := c.client.Get(ctx, c.dataKey(tenantID, gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return value, true, nil
}

// Set implements shared.TenantCache
func (c *RedisCache) Set(ctx context.Context, tenantID uuid.UUID, key string, value []byte, ttl time.Duration) error {
	gen, err := c.generation(ctx, tenantID)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.dataKey(tenantID, gen, key), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// InvalidateTenant implements shared.TenantCache
func (c *RedisCache) InvalidateTenant(ctx context.Context, tenantID uuid.UUID) error {
	if err := c.client.Incr(ctx, c.generationKey(tenantID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	return nil
}

// Close closes the underlying client
func (c *RedisCache) Close() error {
	return c.client.Close()
}

var _ shared.TenantCache = (*RedisCache)(nil)
