// Package redis provides a Redis-backed implementation of cache.Cache
// using github.com/redis/go-redis/v9.
//
// Expiry relies on native Redis TTLs, so no background cleanup is
// needed. The client is a process-wide connection pool created once at
// startup and shared by all requests.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/aanand-mishra/student-records-api/internal/cache"

	goredis "github.com/redis/go-redis/v9"
)

// Cache is the concrete Redis implementation of cache.Cache.
type Cache struct {
	client *goredis.Client
}

// New creates a Cache talking to the Redis instance at addr
// (host:port). No connection is made here; callers should Ping to
// verify reachability.
func New(addr string) *Cache {
	return &Cache{
		client: goredis.NewClient(&goredis.Options{Addr: addr}),
	}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		// redis.Nil is go-redis's "key does not exist" sentinel.
		if errors.Is(err, goredis.Nil) {
			return nil, cache.ErrNotFound
		}
		return nil, err
	}
	return val, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}
