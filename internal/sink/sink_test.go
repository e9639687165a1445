package sink

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/erum21/skytools/internal/render"
)

func newMockSink(t *testing.T) (*DBSink, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return NewWithDB(db), mock
}

func TestExec(t *testing.T) {
	s, mock := newMockSink(t)
	mock.ExpectExec(`INSERT INTO users \(id, name\) VALUES \(\$1, \$2\)`).
		WithArgs(int64(42), "alice").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.Exec(context.Background(), render.Statement{
		SQL:  "INSERT INTO users (id, name) VALUES ($1, $2)",
		Args: []any{int64(42), "alice"},
	})
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
}

func TestExecFailure(t *testing.T) {
	s, mock := newMockSink(t)
	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(sql.ErrConnDone)

	err := s.Exec(context.Background(), render.Statement{
		SQL:  "INSERT INTO users (id) VALUES ($1)",
		Args: []any{int64(1)},
	})
	var xerr *ExecutionError
	if !errors.As(err, &xerr) {
		t.Fatalf("want ExecutionError, got %v", err)
	}
	if !errors.Is(err, sql.ErrConnDone) {
		t.Error("ExecutionError should wrap the driver error")
	}
}

func TestExecNoInternalRetry(t *testing.T) {
	s, mock := newMockSink(t)
	// Exactly one round trip per call, even on failure.
	mock.ExpectExec(`UPDATE t`).WillReturnError(sql.ErrTxDone)

	stmt := render.Statement{SQL: "UPDATE t SET a = $1", Args: []any{"x"}}
	if err := s.Exec(context.Background(), stmt); err == nil {
		t.Fatal("expected error")
	}
}
