package workspace

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"autosar-mcp/internal/arxml"
	"autosar-mcp/internal/faults"
)

// session is one caller's workspace. mu serializes every operation on it.
type session struct {
	mu       sync.Mutex
	id       string
	ws       *arxml.Workspace
	lastUsed time.Time
	closed   bool
}

// Store holds the live sessions keyed by workspace ID.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session
	setup    func(*arxml.Workspace)
	now      func() time.Time
}

// NewStore returns an empty store using the wall clock. setup, if not nil,
// prepares every fresh workspace.
func NewStore(setup func(*arxml.Workspace)) *Store {
	return &Store{sessions: make(map[string]*session), setup: setup, now: time.Now}
}

func (s *Store) fresh() *arxml.Workspace {
	ws := arxml.NewWorkspace()
	if s.setup != nil {
		s.setup(ws)
	}
	return ws
}

func newWorkspaceID() string {
	return "ws_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Create opens a session with an empty workspace and returns its ID.
func (s *Store) Create() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := newWorkspaceID()
	for s.sessions[id] != nil {
		id = newWorkspaceID()
	}
	s.sessions[id] = &session{id: id, ws: s.fresh(), lastUsed: s.now()}
	return id
}

func (s *Store) get(id string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, faults.NotFound("workspace %q", id)
	}
	return sess, nil
}

// acquire returns the locked session for id. The caller must unlock it.
func (s *Store) acquire(id string) (*session, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return nil, faults.NotFound("workspace %q", id)
	}
	sess.lastUsed = s.now()
	return sess, nil
}

// Delete closes the session. Operations already running on it finish first.
func (s *Store) Delete(id string) error {
	sess, err := s.acquire(id)
	if err != nil {
		return err
	}
	sess.closed = true
	sess.mu.Unlock()
	s.drop(id)
	return nil
}

// Reset swaps in an empty workspace; fn runs under the session lock after
// the swap.
func (s *Store) Reset(id string, fn func()) error {
	sess, err := s.acquire(id)
	if err != nil {
		return err
	}
	defer sess.mu.Unlock()
	sess.ws = s.fresh()
	if fn != nil {
		fn()
	}
	return nil
}

// Sweep closes every session unused for longer than ttl and returns the IDs
// closed. Sessions busy at the time are skipped.
func (s *Store) Sweep(ttl time.Duration) []string {
	s.mu.RLock()
	candidates := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		candidates = append(candidates, sess)
	}
	s.mu.RUnlock()

	cutoff := s.now().Add(-ttl)
	var closed []string
	for _, sess := range candidates {
		if !sess.mu.TryLock() {
			continue
		}
		if !sess.closed && sess.lastUsed.Before(cutoff) {
			sess.closed = true
			closed = append(closed, sess.id)
		}
		sess.mu.Unlock()
	}
	for _, id := range closed {
		s.drop(id)
	}
	sort.Strings(closed)
	return closed
}

func (s *Store) drop(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len returns the number of open sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// IDs returns the open workspace IDs in sorted order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids
}
