package fx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// Cache stores rates by key for a limited time.
type Cache interface {
	Get(ctx context.Context, key string) (decimal.Decimal, bool, error)
	Set(ctx context.Context, key string, rate decimal.Decimal, ttl time.Duration) error
}

type memoryEntry struct {
	rate    decimal.Decimal
	expires time.Time
}

// MemoryCache is a process-local cache. Entries never outlive maxTTL even
// when Set asks for longer.
type MemoryCache struct {
	lru *expirable.LRU[string, memoryEntry]
	now func() time.Time
}

func NewMemoryCache(size int, maxTTL time.Duration) *MemoryCache {
	return &MemoryCache{lru: expirable.NewLRU[string, memoryEntry](size, nil, maxTTL), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) (decimal.Decimal, bool, error) {
	e, ok := c.lru.Get(key)
	if !ok || !c.now().Before(e.expires) {
		return decimal.Zero, false, nil
	}
	return e.rate, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, rate decimal.Decimal, ttl time.Duration) error {
	c.lru.Add(key, memoryEntry{rate: rate, expires: c.now().Add(ttl)})
	return nil
}

// redisAPI is the part of *redis.Client the cache uses.
type redisAPI interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RedisCache shares rates between processes.
type RedisCache struct {
	api    redisAPI
	prefix string
}

func NewRedisCache(addr string) *RedisCache {
	return &RedisCache{api: redis.NewClient(&redis.Options{Addr: addr}), prefix: "fx:"}
}

func (c *RedisCache) Get(ctx context.Context, key string) (decimal.Decimal, bool, error) {
	s, err := c.api.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("redis get: %w", err)
	}
	rate, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("redis value %q: %w", s, err)
	}
	return rate, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, rate decimal.Decimal, ttl time.Duration) error {
	if err := c.api.Set(ctx, c.prefix+key, rate.String(), ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error {
	if cl, ok := c.api.(*redis.Client); ok {
		return cl.Close()
	}
	return nil
}
