// Package cache defines the key-value cache contract the service layer
// reads through. Implementations may be backed by Redis (production)
// or an in-process map (tests, local development). Values are byte
// slices; serialization is the caller's concern.
//
// The cache is an optimization, never the source of truth: callers are
// expected to treat any error from these methods as a forced miss and
// fall back to the persistent store.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when a key does not exist or has
// expired.
var ErrNotFound = errors.New("cache: key not found")

// Cache abstracts a key-value cache with TTL support.
// All operations are safe for concurrent use.
type Cache interface {
	// Get retrieves the value associated with key.
	// Returns ErrNotFound if the key does not exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. It is not an error to delete a key that
	// does not exist.
	Delete(ctx context.Context, key string) error

	// Ping verifies connectivity to the underlying backend.
	Ping(ctx context.Context) error

	// Close releases resources held by the implementation.
	Close() error
}

// Metrics is notified of cache lifecycle events by the service layer.
// The split keeps the cache implementations free of any metrics
// dependency.
type Metrics interface {
	// Hit is called when the cache returns a value.
	Hit()

	// Miss is called when a key is absent (or the cache errored) and
	// the value has to be loaded from the backing store.
	Miss()
}

// NoopMetrics ignores all events. It satisfies Metrics so callers that
// do not care about instrumentation avoid nil checks.
type NoopMetrics struct{}

func (NoopMetrics) Hit()  {}
func (NoopMetrics) Miss() {}
