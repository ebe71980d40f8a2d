// Package student implements the record service: the single
// authoritative place for cache-aside reads and invalidation-on-write
// around student records.
//
// CACHE-ASIDE CONTRACT:
//   - Reads check the cache first; on a miss they query the store and
//     repopulate the cache with the configured TTL.
//   - Writes go to the store and then clear the affected cache keys;
//     the next read repopulates them.
//   - The cache is never the source of truth. Every cache failure —
//     backend down, timeout, corrupt payload — degrades to a forced
//     miss and is logged, never surfaced to the caller.
//
// Writes deliberately clear the whole students:all key rather than
// patching the cached list in place. Coarse, but it keeps every
// invalidation a single Delete and cannot leave a half-updated list
// behind.
package student

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aanand-mishra/student-records-api/internal/cache"
	"github.com/aanand-mishra/student-records-api/internal/storage"
	"github.com/aanand-mishra/student-records-api/internal/types"
)

// Cache key layout. The collection key is cleared on every write; the
// per-record key only on writes to that record.
const (
	keyAll        = "students:all"
	keyByIDFormat = "students:%d"
)

func keyByID(id int64) string {
	return fmt.Sprintf(keyByIDFormat, id)
}

// Service orchestrates reads and writes between the cache and the
// persistent store. It holds no mutable state beyond the injected
// clients, so it is safe for concurrent use.
type Service struct {
	storage storage.Storage
	cache   cache.Cache
	metrics cache.Metrics
	log     *slog.Logger

	ttl          time.Duration
	storeTimeout time.Duration
	cacheTimeout time.Duration
}

// Options tunes the service. Zero values fall back to the defaults
// below.
type Options struct {
	// TTL is how long cached entries live. Default 5 minutes.
	TTL time.Duration

	// StoreTimeout bounds every database call. Exceeding it fails the
	// request. Default 5 seconds.
	StoreTimeout time.Duration

	// CacheTimeout bounds every cache call. Exceeding it degrades to a
	// miss. Default 500 milliseconds.
	CacheTimeout time.Duration
}

const (
	defaultTTL          = 5 * time.Minute
	defaultStoreTimeout = 5 * time.Second
	defaultCacheTimeout = 500 * time.Millisecond
)

// New constructs a Service. All collaborators are injected explicitly;
// nothing here reaches for globals.
func New(st storage.Storage, c cache.Cache, m cache.Metrics, log *slog.Logger, opts Options) *Service {
	if m == nil {
		m = cache.NoopMetrics{}
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = defaultStoreTimeout
	}
	if opts.CacheTimeout <= 0 {
		opts.CacheTimeout = defaultCacheTimeout
	}

	return &Service{
		storage:      st,
		cache:        c,
		metrics:      m,
		log:          log,
		ttl:          opts.TTL,
		storeTimeout: opts.StoreTimeout,
		cacheTimeout: opts.CacheTimeout,
	}
}

// cacheGet looks up key and decodes the stored JSON into dest.
// The bool reports a usable hit; every failure mode is a miss.
func (s *Service) cacheGet(ctx context.Context, key string, dest any) bool {
	cctx, cancel := context.WithTimeout(ctx, s.cacheTimeout)
	defer cancel()

	data, err := s.cache.Get(cctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			s.log.Warn("cache get failed, falling back to store",
				slog.String("key", key),
				slog.String("error", err.Error()))
		}
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		s.log.Warn("cache entry undecodable, treating as miss",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return false
	}

	return true
}

// cacheSet stores v under key, best-effort. The value just came from
// the store, so failing to cache it is a degradation, not a failure.
func (s *Service) cacheSet(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Warn("cache marshal failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return
	}

	cctx, cancel := context.WithTimeout(ctx, s.cacheTimeout)
	defer cancel()

	if err := s.cache.Set(cctx, key, data, s.ttl); err != nil {
		s.log.Warn("cache set failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
}

// invalidate clears the given cache keys, best-effort.
func (s *Service) invalidate(ctx context.Context, keys ...string) {
	cctx, cancel := context.WithTimeout(ctx, s.cacheTimeout)
	defer cancel()

	for _, key := range keys {
		if err := s.cache.Delete(cctx, key); err != nil {
			s.log.Warn("cache invalidation failed",
				slog.String("key", key),
				slog.String("error", err.Error()))
		}
	}
}

// List returns all student records, serving from the cache when the
// students:all key is fresh.
func (s *Service) List(ctx context.Context) ([]types.StudentRecord, error) {
	var cached []types.StudentRecord
	if s.cacheGet(ctx, keyAll, &cached) {
		s.metrics.Hit()
		return cached, nil
	}
	s.metrics.Miss()

	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	students, err := s.storage.GetStudents(sctx)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, keyAll, students)
	return students, nil
}

// GetByID returns one record, serving from the cache when its key is
// fresh. Returns storage.ErrNotFound if the id does not exist.
func (s *Service) GetByID(ctx context.Context, id int64) (types.StudentRecord, error) {
	var cached types.StudentRecord
	if s.cacheGet(ctx, keyByID(id), &cached) {
		s.metrics.Hit()
		return cached, nil
	}
	s.metrics.Miss()

	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	rec, err := s.storage.GetStudentByID(sctx, id)
	if err != nil {
		return types.StudentRecord{}, err
	}

	s.cacheSet(ctx, keyByID(id), rec)
	return rec, nil
}

// Create inserts a new record and clears the collection key. The new
// record's own key is not populated here — the next read does that.
// Returns storage.ErrDuplicateEmail on an email collision.
func (s *Service) Create(ctx context.Context, req types.CreateStudentRequest) (types.StudentRecord, error) {
	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	rec, err := s.storage.CreateStudent(sctx, req.Name, req.Email, req.Age)
	if err != nil {
		return types.StudentRecord{}, err
	}

	s.invalidate(ctx, keyAll)
	return rec, nil
}

// Update applies a partial update and clears both affected cache keys.
func (s *Service) Update(ctx context.Context, id int64, req types.UpdateStudentRequest) (types.StudentRecord, error) {
	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	rec, err := s.storage.UpdateStudentByID(sctx, id, storage.StudentUpdate{
		Name:  req.Name,
		Email: req.Email,
		Age:   req.Age,
	})
	if err != nil {
		return types.StudentRecord{}, err
	}

	s.invalidate(ctx, keyByID(id), keyAll)
	return rec, nil
}

// Delete removes a record and clears both affected cache keys.
func (s *Service) Delete(ctx context.Context, id int64) error {
	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.storage.DeleteStudentByID(sctx, id); err != nil {
		return err
	}

	s.invalidate(ctx, keyByID(id), keyAll)
	return nil
}
