// Package sink executes rendered statements against the target database.
// Each call is one statement in autocommit mode: it commits on its own, and
// nothing wraps a batch in a larger transaction. A statement that succeeded
// stays applied even if a later event in the same batch fails, so target
// statements must be written idempotently (upsert-style) to survive batch
// redelivery.
package sink

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/erum21/skytools/internal/render"
)

// Sink executes exactly one rendered statement per call. Implementations do
// not retry; a failure aborts the batch and the queue redelivers it.
type Sink interface {
	Exec(ctx context.Context, stmt render.Statement) error
}

// ExecutionError wraps a statement failure from the target database.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("statement execution failed: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// DBSink is a Sink backed by a PostgreSQL connection pool.
type DBSink struct {
	db *sql.DB
}

var _ Sink = (*DBSink)(nil)

// Open connects to the target database and verifies connectivity. A failed
// ping is a startup error; the loader exits before claiming anything.
func Open(dsn string) (*DBSink, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open target database: %w", err)
	}

	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping target database: %w", err)
	}
	return &DBSink{db: db}, nil
}

// NewWithDB wraps an existing handle. Used by tests.
func NewWithDB(db *sql.DB) *DBSink {
	return &DBSink{db: db}
}

// Close closes the underlying database connection.
func (s *DBSink) Close() error {
	return s.db.Close()
}

// Exec runs one statement. The write commits immediately and irrevocably.
func (s *DBSink) Exec(ctx context.Context, stmt render.Statement) error {
	if _, err := s.db.ExecContext(ctx, stmt.SQL, stmt.Args...); err != nil {
		return &ExecutionError{Err: err}
	}
	return nil
}
