// Package pgq speaks the queue protocol: a set of SQL functions hosted by a
// PostgreSQL database that hand out batches of pending events to named
// consumers. The queue owns claiming, retention and batch assignment; this
// client only calls the four protocol operations and decodes their results.
package pgq

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/erum21/skytools/internal/model"
	"github.com/erum21/skytools/internal/quoting"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Queue is a client for one queue database. It is not safe for concurrent
// use by multiple goroutines; the loader processes batches strictly
// sequentially on a single connection pool.
type Queue struct {
	db *sql.DB
}

// Open connects to the queue database, configures the pool, and verifies
// connectivity. A failed ping here is a startup error, before any batch is
// claimed.
func Open(dsn string) (*Queue, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open queue database: %w", err)
	}

	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping queue database: %w", err)
	}
	return &Queue{db: db}, nil
}

// NewWithDB wraps an existing handle. Used by tests and by callers that
// manage the connection themselves.
func NewWithDB(db *sql.DB) *Queue {
	return &Queue{db: db}
}

// Close closes the underlying database connection.
func (q *Queue) Close() error {
	return q.db.Close()
}

// Register registers the consumer on the queue, creating the queue if the
// schema supports implicit creation. Registering an already-registered
// consumer is a no-op.
func (q *Queue) Register(ctx context.Context, queue, consumer string) error {
	if _, err := q.db.ExecContext(ctx,
		`SELECT pgq.register_consumer($1, $2)`, queue, consumer); err != nil {
		return &QueueUnavailableError{Op: "register_consumer", Err: err}
	}
	return nil
}

// NextBatch asks the queue for the next batch for this consumer. It returns
// nil when no events are pending; the caller is expected to sleep and poll
// again. A redelivered batch may contain events accumulated since the failed
// attempt, so batch contents are always re-fetched fresh.
func (q *Queue) NextBatch(ctx context.Context, queue, consumer string) (*model.Batch, error) {
	var batchID sql.NullInt64
	err := q.db.QueryRowContext(ctx,
		`SELECT pgq.next_batch($1, $2)`, queue, consumer).Scan(&batchID)
	if err != nil {
		return nil, &QueueUnavailableError{Op: "next_batch", Err: err}
	}
	if !batchID.Valid {
		return nil, nil
	}
	return &model.Batch{ID: batchID.Int64, Queue: queue, Consumer: consumer}, nil
}

// BatchEvents lists the events of an open batch in queue-assigned order and
// decodes them. Decode failures surface as model.MalformedEventError.
func (q *Queue) BatchEvents(ctx context.Context, batchID int64) ([]model.Event, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT ev_id, ev_time, ev_type, ev_data
		FROM pgq.get_batch_events($1)
		ORDER BY ev_id`, batchID)
	if err != nil {
		return nil, &QueueUnavailableError{Op: "get_batch_events", Err: err}
	}
	defer rows.Close()
	return scanEvents(rows, batchID)
}

// FinishBatch reports the batch as fully processed. This is the only
// acknowledgment the queue ever receives: it is sent once per batch, never
// per event, and only after every event in the batch executed successfully.
func (q *Queue) FinishBatch(ctx context.Context, batchID int64) error {
	if _, err := q.db.ExecContext(ctx,
		`SELECT pgq.finish_batch($1)`, batchID); err != nil {
		return &QueueUnavailableError{Op: "finish_batch", Err: err}
	}
	return nil
}

// InsertEvent enqueues one event. This is producer-side API, exposed for the
// send subcommand and for exercising a freshly installed queue.
func (q *Queue) InsertEvent(ctx context.Context, queue, evType string, payload map[string]string) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx,
		`SELECT pgq.insert_event($1, $2, $3)`,
		queue, evType, quoting.URLEncode(payload)).Scan(&id)
	if err != nil {
		return 0, &QueueUnavailableError{Op: "insert_event", Err: err}
	}
	return id, nil
}

// InstallSchema applies the embedded queue schema migrations to the queue
// database. Safe to run repeatedly; already-applied migrations are skipped.
func (q *Queue) InstallSchema() error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := migratepg.WithInstance(q.db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
