package student

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/aanand-mishra/student-records-api/internal/cache"
	"github.com/aanand-mishra/student-records-api/internal/cache/memory"
	"github.com/aanand-mishra/student-records-api/internal/storage"
	"github.com/aanand-mishra/student-records-api/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

// fakeStorage is an in-memory storage.Storage so service tests run
// without a database.
type fakeStorage struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64]types.StudentRecord
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{records: make(map[int64]types.StudentRecord)}
}

func (f *fakeStorage) CreateStudent(_ context.Context, name, email string, age *int) (types.StudentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, rec := range f.records {
		if rec.Email == email {
			return types.StudentRecord{}, storage.ErrDuplicateEmail
		}
	}

	f.nextID++
	now := time.Now()
	rec := types.StudentRecord{
		ID: f.nextID, Name: name, Email: email, Age: age,
		CreatedAt: now, UpdatedAt: now,
	}
	f.records[rec.ID] = rec
	return rec, nil
}

func (f *fakeStorage) GetStudentByID(_ context.Context, id int64) (types.StudentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.records[id]
	if !ok {
		return types.StudentRecord{}, storage.ErrNotFound
	}
	return rec, nil
}

func (f *fakeStorage) GetStudents(context.Context) ([]types.StudentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]types.StudentRecord, 0, len(f.records))
	for id := int64(1); id <= f.nextID; id++ {
		if rec, ok := f.records[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeStorage) UpdateStudentByID(_ context.Context, id int64, upd storage.StudentUpdate) (types.StudentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.records[id]
	if !ok {
		return types.StudentRecord{}, storage.ErrNotFound
	}
	if upd.Name != nil {
		rec.Name = *upd.Name
	}
	if upd.Email != nil {
		rec.Email = *upd.Email
	}
	if upd.Age != nil {
		rec.Age = upd.Age
	}
	rec.UpdatedAt = rec.UpdatedAt.Add(time.Millisecond)
	f.records[id] = rec
	return rec, nil
}

func (f *fakeStorage) DeleteStudentByID(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.records[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.records, id)
	return nil
}

func (f *fakeStorage) Ping(context.Context) error { return nil }

// brokenCache fails every operation, simulating an unreachable
// backend.
type brokenCache struct{}

var errCacheDown = errors.New("cache backend down")

func (brokenCache) Get(context.Context, string) ([]byte, error) { return nil, errCacheDown }
func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errCacheDown
}
func (brokenCache) Delete(context.Context, string) error { return errCacheDown }
func (brokenCache) Ping(context.Context) error           { return errCacheDown }
func (brokenCache) Close() error                         { return nil }

// countingMetrics records Hit/Miss calls.
type countingMetrics struct {
	mu     sync.Mutex
	hits   int
	misses int
}

func (m *countingMetrics) Hit() {
	m.mu.Lock()
	m.hits++
	m.mu.Unlock()
}

func (m *countingMetrics) Miss() {
	m.mu.Lock()
	m.misses++
	m.mu.Unlock()
}

func newTestService(t *testing.T, st storage.Storage, c cache.Cache) (*Service, *countingMetrics) {
	t.Helper()
	m := &countingMetrics{}
	log := slog.New(slog.NewTextHandler(testWriter{t}, nil))
	return New(st, c, m, log, Options{}), m
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

// --- tests ---

func TestList_MissThenHit(t *testing.T) {
	st := newFakeStorage()
	svc, m := newTestService(t, st, memory.New())
	ctx := context.Background()

	_, err := st.CreateStudent(ctx, "Ann", "ann@x.com", intPtr(20))
	require.NoError(t, err)

	first, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, m.misses)
	assert.Equal(t, 0, m.hits)

	// Bypass the service: the cached snapshot must now mask this row.
	_, err = st.CreateStudent(ctx, "Bob", "bob@x.com", nil)
	require.NoError(t, err)

	second, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, second, 1, "second list should be served from cache")
	assert.Equal(t, 1, m.hits)
}

func TestCreate_InvalidatesListKey(t *testing.T) {
	st := newFakeStorage()
	svc, _ := newTestService(t, st, memory.New())
	ctx := context.Background()

	_, err := svc.Create(ctx, types.CreateStudentRequest{Name: "Ann", Email: "ann@x.com", Age: intPtr(20)})
	require.NoError(t, err)

	// Force a cached list.
	first, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	_, err = svc.Create(ctx, types.CreateStudentRequest{Name: "Bob", Email: "bob@x.com"})
	require.NoError(t, err)

	// The write cleared students:all, so this read sees both rows.
	after, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, after, 2, "create must invalidate the cached list")
}

func TestCreate_DuplicateEmail(t *testing.T) {
	st := newFakeStorage()
	svc, _ := newTestService(t, st, memory.New())
	ctx := context.Background()

	_, err := svc.Create(ctx, types.CreateStudentRequest{Name: "Ann", Email: "dup@x.com"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, types.CreateStudentRequest{Name: "Bob", Email: "dup@x.com"})
	assert.ErrorIs(t, err, storage.ErrDuplicateEmail)
}

func TestGetByID_PopulatesCache(t *testing.T) {
	st := newFakeStorage()
	svc, m := newTestService(t, st, memory.New())
	ctx := context.Background()

	created, err := svc.Create(ctx, types.CreateStudentRequest{Name: "Ann", Email: "ann@x.com", Age: intPtr(20)})
	require.NoError(t, err)

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.Name)
	assert.Equal(t, 1, m.misses)

	// Remove the row behind the cache's back; the entry still serves.
	require.NoError(t, st.DeleteStudentByID(ctx, created.ID))

	cached, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, cached.ID)
	assert.Equal(t, 1, m.hits)
}

func TestGetByID_NotFound(t *testing.T) {
	svc, _ := newTestService(t, newFakeStorage(), memory.New())

	_, err := svc.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdate_InvalidatesRecordKey(t *testing.T) {
	st := newFakeStorage()
	svc, _ := newTestService(t, st, memory.New())
	ctx := context.Background()

	created, err := svc.Create(ctx, types.CreateStudentRequest{Name: "Ann", Email: "ann@x.com", Age: intPtr(20)})
	require.NoError(t, err)

	// Populate students:{id}.
	_, err = svc.GetByID(ctx, created.ID)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, types.UpdateStudentRequest{Age: intPtr(21)})
	require.NoError(t, err)
	assert.Equal(t, 21, *updated.Age)
	assert.Equal(t, "Ann", updated.Name, "unsupplied fields stay unchanged")
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	// The stale cached entry must be gone.
	fresh, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 21, *fresh.Age)
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _ := newTestService(t, newFakeStorage(), memory.New())

	_, err := svc.Update(context.Background(), 42, types.UpdateStudentRequest{Name: strPtr("X")})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDelete_ThenGetNotFound(t *testing.T) {
	st := newFakeStorage()
	svc, _ := newTestService(t, st, memory.New())
	ctx := context.Background()

	created, err := svc.Create(ctx, types.CreateStudentRequest{Name: "Ann", Email: "ann@x.com"})
	require.NoError(t, err)

	// Populate the record key so delete has something to clear.
	_, err = svc.GetByID(ctx, created.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, created.ID), storage.ErrNotFound)
}

func TestCacheDown_DegradesToStore(t *testing.T) {
	st := newFakeStorage()
	svc, m := newTestService(t, st, brokenCache{})
	ctx := context.Background()

	created, err := svc.Create(ctx, types.CreateStudentRequest{Name: "Ann", Email: "ann@x.com", Age: intPtr(20)})
	require.NoError(t, err)

	// Every read works and counts as a forced miss.
	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.Name)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	assert.Equal(t, 2, m.misses)
	assert.Equal(t, 0, m.hits)

	// Writes succeed even though invalidation fails.
	_, err = svc.Update(ctx, created.ID, types.UpdateStudentRequest{Age: intPtr(21)})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, created.ID))
}

func TestCorruptCacheEntry_TreatedAsMiss(t *testing.T) {
	st := newFakeStorage()
	mem := memory.New()
	svc, m := newTestService(t, st, mem)
	ctx := context.Background()

	created, err := svc.Create(ctx, types.CreateStudentRequest{Name: "Ann", Email: "ann@x.com"})
	require.NoError(t, err)

	require.NoError(t, mem.Set(ctx, "students:1", []byte("{not json"), time.Minute))

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.Name)
	assert.Equal(t, 1, m.misses)
}
