package workspace

import (
	"testing"
	"time"

	"autosar-mcp/internal/arxml"
	"autosar-mcp/internal/faults"
)

func TestStore_Create_ShouldRunSetup(t *testing.T) {
	st := NewStore(func(ws *arxml.Workspace) { ws.SetDocumentRoot("/out") })

	id := st.Create()
	sess, err := st.acquire(id)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer sess.mu.Unlock()

	if sess.ws.DocumentRoot() != "/out" {
		t.Errorf("document root = %q", sess.ws.DocumentRoot())
	}
}

func TestStore_Reset_ShouldSwapWorkspace(t *testing.T) {
	st := NewStore(nil)
	id := st.Create()
	sess, _ := st.acquire(id)
	before := sess.ws
	sess.mu.Unlock()
	called := false

	if err := st.Reset(id, func() { called = true }); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	if sess.ws == before || !called {
		t.Error("expected a fresh workspace and the callback to run")
	}
}

func TestStore_WhenUnknownID_ShouldReturnNotFound(t *testing.T) {
	st := NewStore(nil)

	wantType(t, st.Delete("ws_missing"), faults.TypeNotFound)
	wantType(t, st.Reset("ws_missing", nil), faults.TypeNotFound)
}

func TestStore_Sweep_ShouldSkipBusySessions(t *testing.T) {
	now := time.Unix(0, 0)
	st := NewStore(nil)
	st.now = func() time.Time { return now }
	idle := st.Create()
	busy := st.Create()
	held, _ := st.acquire(busy)
	now = now.Add(time.Hour)

	closed := st.Sweep(time.Minute)
	held.mu.Unlock()

	if len(closed) != 1 || closed[0] != idle {
		t.Fatalf("closed = %v, want [%s]", closed, idle)
	}
	if st.Len() != 1 || st.IDs()[0] != busy {
		t.Errorf("remaining = %v", st.IDs())
	}
}

func TestStore_Delete_ShouldRejectLaterAcquire(t *testing.T) {
	st := NewStore(nil)
	id := st.Create()

	if err := st.Delete(id); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := st.acquire(id); err == nil {
		t.Fatal("expected acquire to fail after delete")
	}
}
