// Package postgres provides a PostgreSQL-backed implementation of the
// storage.Storage interface using database/sql with the pgx driver.
//
// The schema is managed by embedded goose migrations (see the
// migrations subpackage) and is the authoritative enforcer of the data
// invariants: email uniqueness, the age range check, and timestamp
// maintenance all live in the database, not just in application code.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aanand-mishra/student-records-api/internal/storage"
	"github.com/aanand-mishra/student-records-api/internal/storage/postgres/migrations"
	"github.com/aanand-mishra/student-records-api/internal/types"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	// Blank import: side-effect only (registers the "pgx" driver with
	// database/sql). Without this sql.Open("pgx", ...) would fail with
	// "unknown driver".
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Postgres is the concrete implementation of storage.Storage.
// It holds a *sql.DB, which is a connection pool managed by
// database/sql and safe for concurrent use by multiple goroutines.
type Postgres struct {
	db *sql.DB
}

// New opens a connection pool for the given DSN, verifies the database
// is reachable, and brings the schema up to date by running the
// embedded goose migrations.
func New(ctx context.Context, dsn string) (*Postgres, error) {
	// sql.Open does not dial anything yet — it only validates the
	// driver name and DSN. The Ping below forces a real connection so
	// a bad DSN fails at startup rather than on the first request.
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: open db: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return nil, fmt.Errorf("postgres.New: run migrations: %w", err)
	}

	return &Postgres{db: db}, nil
}

// NewWithDB wraps an existing *sql.DB without running migrations.
// Used by tests that supply a mock connection.
func NewWithDB(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// studentColumns is the column list every query selects; scanStudent's
// destinations must stay in the same order.
const studentColumns = "id, name, email, age, created_at, updated_at"

// scanStudent reads one row (either *sql.Row or *sql.Rows) into a
// record.
func scanStudent(row interface{ Scan(...any) error }) (types.StudentRecord, error) {
	var rec types.StudentRecord
	err := row.Scan(
		&rec.ID,
		&rec.Name,
		&rec.Email,
		&rec.Age, // **int: database/sql sets it to nil on NULL
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	return rec, err
}

// isUniqueViolation reports whether err is PostgreSQL's unique_violation
// (SQLSTATE 23505) — i.e. the email collided with an existing row.
func isUniqueViolation(err error) bool {
	pgerr := new(pgconn.PgError)
	return errors.As(err, &pgerr) && pgerr.Code == pgerrcode.UniqueViolation
}

func (p *Postgres) CreateStudent(ctx context.Context, name, email string, age *int) (types.StudentRecord, error) {
	query := `
		INSERT INTO students (name, email, age)
		VALUES ($1, $2, $3)
		RETURNING ` + studentColumns

	rec, err := scanStudent(p.db.QueryRowContext(ctx, query, name, email, age))
	if err != nil {
		if isUniqueViolation(err) {
			return types.StudentRecord{}, storage.ErrDuplicateEmail
		}
		return types.StudentRecord{}, fmt.Errorf("CreateStudent: %w", err)
	}

	return rec, nil
}

func (p *Postgres) GetStudentByID(ctx context.Context, id int64) (types.StudentRecord, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`

	rec, err := scanStudent(p.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.StudentRecord{}, storage.ErrNotFound
		}
		return types.StudentRecord{}, fmt.Errorf("GetStudentByID: %w", err)
	}

	return rec, nil
}

func (p *Postgres) GetStudents(ctx context.Context) ([]types.StudentRecord, error) {
	query := `SELECT ` + studentColumns + ` FROM students ORDER BY id`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("GetStudents: query: %w", err)
	}
	defer rows.Close()

	// Pre-allocate an empty (non-nil) slice so an empty table encodes
	// as [] rather than null in JSON.
	students := make([]types.StudentRecord, 0)

	for rows.Next() {
		rec, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("GetStudents: scan row: %w", err)
		}
		students = append(students, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetStudents: rows iteration: %w", err)
	}

	return students, nil
}

func (p *Postgres) UpdateStudentByID(ctx context.Context, id int64, upd storage.StudentUpdate) (types.StudentRecord, error) {
	// COALESCE keeps the stored value wherever the caller passed nil,
	// which gives partial-update semantics in a single statement.
	// updated_at is refreshed by the row trigger (see migrations).
	query := `
		UPDATE students
		SET name  = COALESCE($2, name),
		    email = COALESCE($3, email),
		    age   = COALESCE($4, age)
		WHERE id = $1
		RETURNING ` + studentColumns

	rec, err := scanStudent(p.db.QueryRowContext(ctx, query, id, upd.Name, upd.Email, upd.Age))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.StudentRecord{}, storage.ErrNotFound
		}
		if isUniqueViolation(err) {
			return types.StudentRecord{}, storage.ErrDuplicateEmail
		}
		return types.StudentRecord{}, fmt.Errorf("UpdateStudentByID: %w", err)
	}

	return rec, nil
}

func (p *Postgres) DeleteStudentByID(ctx context.Context, id int64) error {
	result, err := p.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: exec: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// Ping performs a round-trip to the database. The readiness probe
// calls this on every poll.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close releases the underlying connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}
