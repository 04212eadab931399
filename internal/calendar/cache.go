package calendar

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/redis/go-redis/v9"
)

// Cache stores serialized calendar profiles with a TTL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// MemoryCache is an in-process Cache for single instance deployments and tests.
// Expired profiles are evicted by a background sweep until Stop is called.
type MemoryCache struct {
	items *ttlcache.Cache[string, []byte]
}

func NewMemoryCache() *MemoryCache {
	items := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	)
	go items.Start()
	return &MemoryCache{items: items}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	item := c.items.Get(key)
	if item == nil {
		return nil, false, nil
	}
	return item.Value(), true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = ttlcache.NoTTL
	}
	c.items.Set(key, value, ttl)
	return nil
}

func (c *MemoryCache) DeletePrefix(_ context.Context, prefix string) error {
	var keys []string
	c.items.Range(func(item *ttlcache.Item[string, []byte]) bool {
		if strings.HasPrefix(item.Key(), prefix) {
			keys = append(keys, item.Key())
		}
		return true
	})
	for _, key := range keys {
		c.items.Delete(key)
	}
	return nil
}

// Len counts stored entries, including expired ones the sweep has not reached yet.
func (c *MemoryCache) Len() int {
	return c.items.Len()
}

// Stop ends the expiry sweep.
func (c *MemoryCache) Stop() {
	c.items.Stop()
}

const redisScanCount = 100

type RedisCache struct {
	rdb redis.Cmdable
}

func NewRedisCache(rdb redis.Cmdable) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) DeletePrefix(ctx context.Context, prefix string) error {
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, prefix+"*", redisScanCount).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
