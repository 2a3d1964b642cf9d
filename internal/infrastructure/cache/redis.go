package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cartlens/backend/internal/domain"
)

// RedisCache stores compressed JSON payloads in Redis with explicit TTLs.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to the Redis instance described by url
// (redis://host:port/db form).
func NewRedisCache(url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

// Ping verifies connectivity.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetJSON retrieves and decompresses the payload at key.
func (c *RedisCache) GetJSON(ctx context.Context, key string, dest any) error {
	blob, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ErrCacheMiss
	}
	if err != nil {
		return err
	}
	return decompressJSON(blob, dest)
}

// SetJSON compresses and stores value at key for ttl.
func (c *RedisCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	blob, err := compressJSON(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, blob, ttl).Err()
}

// TTLRemaining reports the remaining lifetime of key. go-redis surfaces the
// Redis TTL sentinels (-1 no expiry, -2 missing) as raw negative durations.
func (c *RedisCache) TTLRemaining(ctx context.Context, key string) (time.Duration, error) {
	d, err := c.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	switch d {
	case -1:
		return 0, domain.ErrNoExpiry
	case -2:
		return 0, domain.ErrCacheMiss
	}
	return d, nil
}
