package journal

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"autosar-mcp/internal/domain"

	_ "modernc.org/sqlite"
)

// =============================================================================
// Test helpers
// =============================================================================

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open in-memory sqlite: %v", err)
	}
	// Every pooled connection would get its own in-memory database.
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(openTestDB(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

// =============================================================================
// New / Open
// =============================================================================

func TestNew_WhenDBNil_ShouldFail(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil db")
	}
}

func TestNew_WhenDBClosed_ShouldFailMigration(t *testing.T) {
	conn := openTestDB(t)
	conn.Close()

	if _, err := New(conn); err == nil {
		t.Fatal("expected migrate error on closed db")
	}
}

func TestOpen_WhenURLEmpty_ShouldFail(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("expected error for empty url")
	}
}

func TestOpen_WhenFileURL_ShouldRecordAndClose(t *testing.T) {
	// Given: a journal opened through the libsql driver
	s, err := Open("file:journal_open_test.db?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	// When: recording a call
	err = s.Record(context.Background(), domain.CallRecord{Tool: "create_workspace", OK: true})

	// Then: the record lands and Close succeeds
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

// =============================================================================
// Record / Recent
// =============================================================================

func TestRecent_ShouldReturnNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)
	calls := []domain.CallRecord{
		{Tool: "create_workspace", OK: true, Duration: time.Millisecond, At: at},
		{Tool: "create_port", WorkspaceID: "ws_1", ErrorType: "InvalidReferenceError", Message: "bad", Duration: 2 * time.Millisecond, At: at},
		{Tool: "write_documents", WorkspaceID: "ws_1", OK: true, At: at},
	}
	for _, c := range calls {
		if err := s.Record(ctx, c); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := s.Recent(ctx, 2)

	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 || got[0].Tool != "write_documents" || got[1].Tool != "create_port" {
		t.Fatalf("unexpected order: %+v", got)
	}
	failed := got[1]
	if failed.OK || failed.ErrorType != "InvalidReferenceError" || failed.WorkspaceID != "ws_1" || failed.Message != "bad" {
		t.Errorf("unexpected record %+v", failed)
	}
	if failed.Duration != 2*time.Millisecond || !failed.At.Equal(at) {
		t.Errorf("expected duration and time to survive, got %v at %v", failed.Duration, failed.At)
	}
	if got[0].ID <= got[1].ID {
		t.Errorf("expected increasing IDs, got %d then %d", got[1].ID, got[0].ID)
	}
}

func TestRecord_WhenToolEmpty_ShouldFail(t *testing.T) {
	if err := newTestStore(t).Record(context.Background(), domain.CallRecord{}); err == nil {
		t.Fatal("expected error for empty tool")
	}
}

func TestRecord_WhenAtZero_ShouldStampNow(t *testing.T) {
	s := newTestStore(t)
	before := time.Now().Add(-time.Second)

	if err := s.Record(context.Background(), domain.CallRecord{Tool: "find_element"}); err != nil {
		t.Fatal(err)
	}
	got, err := s.Recent(context.Background(), 1)

	if err != nil {
		t.Fatal(err)
	}
	if got[0].At.Before(before) {
		t.Errorf("expected a fresh timestamp, got %v", got[0].At)
	}
}

func TestRecord_WhenConcurrent_ShouldKeepEveryCall(t *testing.T) {
	s := newTestStore(t)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Record(context.Background(), domain.CallRecord{Tool: "create_runnable", OK: true}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	got, err := s.Recent(context.Background(), 100)

	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 20 {
		t.Errorf("expected 20 records, got %d", len(got))
	}
}

func TestRecent_WhenNNotPositive_ShouldFail(t *testing.T) {
	if _, err := newTestStore(t).Recent(context.Background(), 0); err == nil {
		t.Fatal("expected error for n=0")
	}
}

func TestRecent_WhenRowsErr_ShouldReturnError(t *testing.T) {
	s := newTestStore(t)
	if err := s.Record(context.Background(), domain.CallRecord{Tool: "x"}); err != nil {
		t.Fatal(err)
	}
	s.rowsErr = func() error { return errors.New("rows broke") }

	if _, err := s.Recent(context.Background(), 1); err == nil {
		t.Fatal("expected rows error")
	}
}

func TestClose_WhenNotOwned_ShouldLeaveDBOpen(t *testing.T) {
	conn := openTestDB(t)
	s, err := New(conn)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	if err := conn.Ping(); err != nil {
		t.Errorf("expected db to stay open, got %v", err)
	}
}
