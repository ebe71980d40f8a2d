// Package storage defines the Storage interface — the contract that any
// database backend must satisfy to work with this application.
//
// Handlers and the service layer depend only on this interface, so
// swapping the backing database means implementing these methods and
// changing one line in main.go. Tests pass a fake that satisfies the
// interface — no real database needed.
//
// The sentinel errors below are the storage layer's whole error
// vocabulary beyond "something broke". Callers match them with
// errors.Is; the HTTP layer is the only place that turns them into
// status codes.
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/student-records-api/internal/types"
)

var (
	// ErrNotFound is returned when the referenced id has no row.
	ErrNotFound = errors.New("student not found")

	// ErrDuplicateEmail is returned when an insert or update collides
	// with the unique index on email. The constraint lives in the
	// database, so of two concurrent creates with the same email
	// exactly one observes this error.
	ErrDuplicateEmail = errors.New("email already in use")
)

// StudentUpdate carries a partial update. Nil fields are left
// unchanged; non-nil fields overwrite the stored value.
type StudentUpdate struct {
	Name  *string
	Email *string
	Age   *int
}

// Storage is the database contract. Every method takes a context so
// callers can bound the call with a deadline; implementations must be
// safe for concurrent use.
type Storage interface {
	// CreateStudent inserts a new row and returns the full record,
	// including the generated id and timestamps.
	// Returns ErrDuplicateEmail on a unique-index collision.
	CreateStudent(ctx context.Context, name, email string, age *int) (types.StudentRecord, error)

	// GetStudentByID fetches a single student by primary key.
	// Returns ErrNotFound if no row matches.
	GetStudentByID(ctx context.Context, id int64) (types.StudentRecord, error)

	// GetStudents returns every student, ordered by id.
	// Returns an empty slice (not nil) when the table is empty.
	GetStudents(ctx context.Context) ([]types.StudentRecord, error)

	// UpdateStudentByID applies a partial update and returns the
	// updated record with a refreshed updated_at.
	// Returns ErrNotFound if no row matches, ErrDuplicateEmail if the
	// new email collides with another row.
	UpdateStudentByID(ctx context.Context, id int64, upd StudentUpdate) (types.StudentRecord, error)

	// DeleteStudentByID removes a row permanently.
	// Returns ErrNotFound if no row matched.
	DeleteStudentByID(ctx context.Context, id int64) error

	// Ping verifies the database is reachable. Used by the readiness
	// probe.
	Ping(ctx context.Context) error
}
