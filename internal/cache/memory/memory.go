// Package memory provides an in-process implementation of cache.Cache:
// a mutex-guarded map with per-entry deadlines. Expired entries are
// reaped lazily on access, which is enough for its two uses — tests
// and cache-less local runs — without a janitor goroutine.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aanand-mishra/student-records-api/internal/cache"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Cache is the in-memory implementation of cache.Cache.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// New returns an empty in-memory cache.
func New() *Cache {
	return &Cache{entries: make(map[string]entry)}
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, cache.ErrNotFound
	}
	if e.expired(time.Now()) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, cache.ErrNotFound
	}

	// Copy so callers cannot mutate the stored slice.
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	var deadline time.Time
	if ttl > 0 {
		deadline = time.Now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = entry{value: stored, expiresAt: deadline}
	c.mu.Unlock()
	return nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

func (c *Cache) Ping(context.Context) error { return nil }

func (c *Cache) Close() error { return nil }
