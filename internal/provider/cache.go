package provider

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores raw provider responses by key.
type Cache interface {
	// Get returns the cached body and true on a hit.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores body for ttl.  Failures are not fatal to the caller.
	Set(ctx context.Context, key string, body []byte, ttl time.Duration) error
}

// RedisCache is a Cache backed by Redis strings.
type RedisCache struct {
	rdb *redis.Client
}

// NewCache returns a Redis-backed cache, or a cache that never hits when
// rdb is nil.
func NewCache(rdb *redis.Client) Cache {
	if rdb == nil {
		return noCache{}
	}
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

func (c *RedisCache) Set(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, body, ttl).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

type noCache struct{}

func (noCache) Get(context.Context, string) ([]byte, bool)               { return nil, false }
func (noCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
