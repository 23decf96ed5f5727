// Package registry maps opaque, workspace-scoped string handles onto live
// objects.
//
// Objects live in a dense slot arena. A handle names one slot for as long as
// it is registered; freed slots are reused, handles never are.
package registry

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"autosar-mcp/internal/faults"
)

// ErrNotFound is returned for unknown, invalidated or foreign handles.
var ErrNotFound = fmt.Errorf("%w: handle", faults.ErrNotFound)

type slot[T comparable] struct {
	handle    string
	workspace string
	obj       T
	live      bool
}

type objectKey[T comparable] struct {
	workspace string
	obj       T
}

// Registry is safe for concurrent use.
type Registry[T comparable] struct {
	mu       sync.RWMutex
	prefix   func(T) string
	newID    func() string
	slots    []slot[T]
	free     []int
	byHandle map[string]int
	byObject map[objectKey[T]]string
	// retired is only kept for injected ID sources. Random handles carry 122
	// bits of UUID entropy, so a retired handle coming back is not tracked.
	retired map[string]struct{}
}

// Option configures a Registry.
type Option[T comparable] func(*Registry[T])

// WithIDSource replaces the random part of minted handles. Intended for
// tests that need collisions.
func WithIDSource[T comparable](fn func() string) Option[T] {
	return func(r *Registry[T]) {
		r.newID = fn
		r.retired = make(map[string]struct{})
	}
}

// New returns an empty registry. prefix derives the readable handle prefix
// from an object, e.g. "pkg" for packages.
func New[T comparable](prefix func(T) string, opts ...Option[T]) *Registry[T] {
	if prefix == nil {
		panic("registry: prefix func must not be nil")
	}
	r := &Registry[T]{
		prefix:   prefix,
		newID:    randomID,
		byHandle: make(map[string]int),
		byObject: make(map[objectKey[T]]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func randomID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Register stores obj for workspaceID and returns its handle. Registering an
// object twice in the same workspace returns the first handle.
func (r *Registry[T]) Register(workspaceID string, obj T) (string, error) {
	var zero T
	if workspaceID == "" {
		return "", faults.Validation("registry: empty workspace id")
	}
	if obj == zero {
		return "", faults.Validation("registry: cannot register a zero object")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := objectKey[T]{workspace: workspaceID, obj: obj}
	if h, ok := r.byObject[key]; ok {
		return h, nil
	}
	h := r.mint(obj)
	s := slot[T]{handle: h, workspace: workspaceID, obj: obj, live: true}
	var idx int
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
		r.slots[idx] = s
	} else {
		idx = len(r.slots)
		r.slots = append(r.slots, s)
	}
	r.byHandle[h] = idx
	r.byObject[key] = h
	return h, nil
}

// mint returns a handle that is not live and, for injected ID sources, not
// retired. Caller holds mu.
func (r *Registry[T]) mint(obj T) string {
	prefix := sanitize(r.prefix(obj))
	for {
		h := prefix + "_" + r.newID()
		if _, live := r.byHandle[h]; live {
			continue
		}
		if _, old := r.retired[h]; old {
			continue
		}
		return h
	}
}

func sanitize(prefix string) string {
	var sb strings.Builder
	for _, c := range strings.ToLower(prefix) {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			sb.WriteRune(c)
		}
	}
	if sb.Len() == 0 {
		return "obj"
	}
	return sb.String()
}

// Resolve returns the object behind handle if it belongs to workspaceID.
func (r *Registry[T]) Resolve(workspaceID, handle string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var zero T
	idx, ok := r.byHandle[handle]
	if !ok {
		return zero, fmt.Errorf("%w: %q", ErrNotFound, handle)
	}
	s := r.slots[idx]
	if s.workspace != workspaceID {
		return zero, fmt.Errorf("%w: %q in workspace %q", ErrNotFound, handle, workspaceID)
	}
	return s.obj, nil
}

// Lookup returns the handle already issued for obj in workspaceID.
func (r *Registry[T]) Lookup(workspaceID string, obj T) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.byObject[objectKey[T]{workspace: workspaceID, obj: obj}]
	return h, ok
}

// Invalidate removes handle. It reports whether the handle was live.
func (r *Registry[T]) Invalidate(handle string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, ok := r.byHandle[handle]
	if !ok {
		return false
	}
	r.release(idx)
	return true
}

// InvalidateWorkspace removes every handle of workspaceID and returns how
// many there were.
func (r *Registry[T]) InvalidateWorkspace(workspaceID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for idx := range r.slots {
		if r.slots[idx].live && r.slots[idx].workspace == workspaceID {
			r.release(idx)
			n++
		}
	}
	return n
}

// release frees a slot. Caller holds mu.
func (r *Registry[T]) release(idx int) {
	s := r.slots[idx]
	delete(r.byHandle, s.handle)
	delete(r.byObject, objectKey[T]{workspace: s.workspace, obj: s.obj})
	if r.retired != nil {
		r.retired[s.handle] = struct{}{}
	}
	r.slots[idx] = slot[T]{}
	r.free = append(r.free, idx)
}

// Len returns the number of live handles.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byHandle)
}
