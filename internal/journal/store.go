// Package journal persists tool calls in SQLite or libSQL so past sessions
// can be inspected with "autosar-mcp journal".
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"autosar-mcp/internal/db"
	"autosar-mcp/internal/domain"
)

// rowsErrFunc is a function type for testing the rows.Err() error path.
type rowsErrFunc func() error

// Store journals tool calls. It implements domain.CallRecorder and
// domain.CallHistory and is safe for concurrent use.
type Store struct {
	db      *sql.DB
	owned   bool
	rowsErr rowsErrFunc // nil means use rows.Err(); for testing only
}

var (
	_ domain.CallRecorder = (*Store)(nil)
	_ domain.CallHistory  = (*Store)(nil)
)

// Open connects to url through db.Connect and prepares the schema. Close
// releases the connection.
func Open(url string) (*Store, error) {
	conn, err := db.Connect(url)
	if err != nil {
		return nil, err
	}
	s, err := New(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// New creates a journal on an open database and initializes the schema.
// Returns an error if the db is nil or if the migration fails.
func New(conn *sql.DB) (*Store, error) {
	if conn == nil {
		return nil, fmt.Errorf("db must not be nil")
	}
	s := &Store{db: conn}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("journal migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS tool_calls (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tool TEXT NOT NULL,
			workspace_id TEXT NOT NULL DEFAULT '',
			ok INTEGER NOT NULL,
			error_type TEXT NOT NULL DEFAULT '',
			message TEXT NOT NULL DEFAULT '',
			duration_ns INTEGER NOT NULL,
			at_ns INTEGER NOT NULL
		)
	`)
	return err
}

// Record appends one call.
func (s *Store) Record(ctx context.Context, rec domain.CallRecord) error {
	if rec.Tool == "" {
		return fmt.Errorf("tool must not be empty")
	}
	if rec.At.IsZero() {
		rec.At = time.Now()
	}
	ok := 0
	if rec.OK {
		ok = 1
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO tool_calls (tool, workspace_id, ok, error_type, message, duration_ns, at_ns) VALUES (?, ?, ?, ?, ?, ?, ?)",
		rec.Tool, rec.WorkspaceID, ok, rec.ErrorType, rec.Message, int64(rec.Duration), rec.At.UnixNano())
	if err != nil {
		return fmt.Errorf("journal record: %w", err)
	}
	return nil
}

// Recent returns the last n calls, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]domain.CallRecord, error) {
	if n <= 0 {
		return nil, fmt.Errorf("n must be positive")
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, tool, workspace_id, ok, error_type, message, duration_ns, at_ns FROM tool_calls ORDER BY id DESC LIMIT ?", n)
	if err != nil {
		return nil, fmt.Errorf("journal query: %w", err)
	}
	defer rows.Close()

	var out []domain.CallRecord
	for rows.Next() {
		var (
			rec      domain.CallRecord
			ok       int
			duration int64
			at       int64
		)
		if err := rows.Scan(&rec.ID, &rec.Tool, &rec.WorkspaceID, &ok, &rec.ErrorType, &rec.Message, &duration, &at); err != nil {
			return nil, err
		}
		rec.OK = ok != 0
		rec.Duration = time.Duration(duration)
		rec.At = time.Unix(0, at).UTC()
		out = append(out, rec)
	}
	rowsErr := rows.Err()
	if s.rowsErr != nil {
		rowsErr = s.rowsErr()
	}
	if rowsErr != nil {
		return nil, rowsErr
	}
	return out, nil
}

// Close closes the database if Open created it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
