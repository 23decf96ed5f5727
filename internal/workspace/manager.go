// Package workspace owns the per-caller AUTOSAR workspaces. Every operation
// locks its workspace, resolves input handles through the registry, calls the
// modeling layer and registers what it produced.
package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"autosar-mcp/internal/arxml"
	"autosar-mcp/internal/faults"
	"autosar-mcp/internal/registry"
	"autosar-mcp/internal/security"
)

// Manager is safe for concurrent use. Operations on one workspace are
// serialized; different workspaces proceed in parallel.
type Manager struct {
	store         *Store
	registry      *registry.Registry[any]
	logger        *slog.Logger
	roots         []string
	root          string
	schemaVersion int
	indent        int
	now           func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithDocumentRoot sets the directory new workspaces write to.
func WithDocumentRoot(dir string) Option {
	return func(m *Manager) { m.root = dir }
}

// WithAllowedRoots limits every file the manager reads or writes to these
// directories. Defaults to the document root.
func WithAllowedRoots(roots ...string) Option {
	return func(m *Manager) { m.roots = append([]string(nil), roots...) }
}

// WithSchemaVersion sets the default AUTOSAR schema version for writes.
func WithSchemaVersion(v int) Option {
	return func(m *Manager) { m.schemaVersion = v }
}

// WithIndent sets the ARXML indentation width.
func WithIndent(n int) Option {
	return func(m *Manager) { m.indent = n }
}

func withClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager returns a manager with no workspaces.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		root:          ".",
		schemaVersion: arxml.DefaultSchemaVersion,
		indent:        2,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.root = absPath(m.root)
	if len(m.roots) == 0 {
		m.roots = []string{m.root}
	}
	for i, r := range m.roots {
		m.roots[i] = absPath(r)
	}
	m.store = NewStore(func(ws *arxml.Workspace) { ws.SetDocumentRoot(m.root) })
	m.store.now = m.now
	m.registry = registry.New(handlePrefix)
	return m
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

func (m *Manager) log() *slog.Logger {
	if m.logger != nil {
		return m.logger
	}
	return slog.Default()
}

// AllowedRoots returns the directories file access is limited to.
func (m *Manager) AllowedRoots() []string { return append([]string(nil), m.roots...) }

// Workspaces returns the open workspace IDs.
func (m *Manager) Workspaces() []string { return m.store.IDs() }

// Handles returns the number of live handles across all workspaces.
func (m *Manager) Handles() int { return m.registry.Len() }

var prefixes = map[arxml.Kind]string{
	arxml.KindPackage:                  "pkg",
	arxml.KindSwBaseType:               "swbt",
	arxml.KindImplementationDataType:   "idt",
	arxml.KindUnit:                     "unit",
	arxml.KindConstantSpecification:    "const",
	arxml.KindSenderReceiverInterface:  "srif",
	arxml.KindClientServerInterface:    "csif",
	arxml.KindModeSwitchInterface:      "msif",
	arxml.KindModeDeclarationGroup:     "mdg",
	arxml.KindModeGroupPrototype:       "mgp",
	arxml.KindDataElement:              "de",
	arxml.KindOperation:                "op",
	arxml.KindArgument:                 "arg",
	arxml.KindApplicationError:         "aerr",
	arxml.KindApplicationComponent:     "swc",
	arxml.KindSensorActuatorComponent:  "swc",
	arxml.KindServiceComponent:         "swc",
	arxml.KindComplexDeviceDriver:      "swc",
	arxml.KindCompositionComponent:     "comp",
	arxml.KindProvidePort:              "port",
	arxml.KindRequirePort:              "port",
	arxml.KindProvideRequirePort:       "port",
	arxml.KindNonqueuedSenderComSpec:   "cspec",
	arxml.KindQueuedSenderComSpec:      "cspec",
	arxml.KindNonqueuedReceiverComSpec: "cspec",
	arxml.KindQueuedReceiverComSpec:    "cspec",
	arxml.KindServerComSpec:            "cspec",
	arxml.KindClientComSpec:            "cspec",
	arxml.KindInternalBehavior:         "ib",
	arxml.KindRunnable:                 "run",
	arxml.KindTimingEvent:              "ev",
	arxml.KindDataReceivedEvent:        "ev",
	arxml.KindOperationInvokedEvent:    "ev",
	arxml.KindModeSwitchEvent:          "ev",
	arxml.KindInitEvent:                "ev",
	arxml.KindComponentPrototype:       "cp",
	arxml.KindAssemblyConnector:        "conn",
	arxml.KindDelegationConnector:      "conn",
	arxml.KindDocument:                 "doc",
	arxml.KindDocumentMapping:          "map",
}

func handlePrefix(obj any) string {
	if e, ok := obj.(arxml.Element); ok {
		if p, ok := prefixes[e.Kind()]; ok {
			return p
		}
		return string(e.Kind())
	}
	return "obj"
}

// do runs fn with the workspace locked.
func (m *Manager) do(id string, fn func(s *session) error) error {
	s, err := m.store.acquire(id)
	if err != nil {
		return err
	}
	defer s.mu.Unlock()
	return fn(s)
}

func (m *Manager) register(s *session, e arxml.Element) (Summary, error) {
	h, err := m.registry.Register(s.id, e)
	if err != nil {
		return Summary{}, err
	}
	return summarize(h, e), nil
}

func summarize(handle string, e arxml.Element) Summary {
	sum := Summary{Handle: handle, Kind: string(e.Kind()), Name: e.Name()}
	switch v := e.(type) {
	case *arxml.Document:
		sum.Path = v.FilePath
	case *arxml.DocumentMapping:
		sum.Path = arxml.Path(v.Package)
	default:
		sum.Path = arxml.Path(e)
	}
	return sum
}

// resolve returns the object behind handle as a T, or an invalid reference
// error naming field when it is something else.
func resolve[T any](m *Manager, s *session, field, handle, want string) (T, error) {
	var zero T
	if handle == "" {
		return zero, faults.Validation("%s is required", field)
	}
	obj, err := m.registry.Resolve(s.id, handle)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", field, err)
	}
	v, ok := obj.(T)
	if !ok {
		return zero, faults.InvalidReference("%s: %s is a %s, expected %s", field, handle, describe(obj), want)
	}
	return v, nil
}

func describe(obj any) string {
	if e, ok := obj.(arxml.Element); ok {
		return string(e.Kind())
	}
	return fmt.Sprintf("%T", obj)
}

// locate picks the package a new element goes into.
func (m *Manager) locate(s *session, loc Locator) (*arxml.Package, error) {
	switch {
	case loc.Package != "" && loc.PackageHandle != "":
		return nil, faults.Validation("set either package or package_handle, not both")
	case loc.Package != "":
		p, err := s.ws.PackageByKey(loc.Package)
		if err != nil {
			return nil, faults.NotFound("package key %q", loc.Package)
		}
		return p, nil
	case loc.PackageHandle != "":
		return resolve[*arxml.Package](m, s, "package_handle", loc.PackageHandle, "ARPackage")
	}
	return nil, faults.Validation("package or package_handle is required")
}

// place appends e to the located package and registers it.
func (m *Manager) place(s *session, loc Locator, e arxml.Element) (Summary, error) {
	pkg, err := m.locate(s, loc)
	if err != nil {
		return Summary{}, err
	}
	return m.insert(s, pkg, e)
}

func (m *Manager) insert(s *session, pkg *arxml.Package, e arxml.Element) (Summary, error) {
	if err := pkg.Append(e); err != nil {
		return Summary{}, faults.External(err)
	}
	return m.register(s, e)
}

// checkPath resolves p against the workspace document root and requires the
// result to lie inside an allowed root.
func (m *Manager) checkPath(s *session, p string) (string, error) {
	resolved, err := security.WithinRoots(m.roots, s.ws.ResolvePath(p))
	if err != nil {
		return "", faults.Validation("%v", err)
	}
	return resolved, nil
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// CreateWorkspace opens a new, empty workspace.
func (m *Manager) CreateWorkspace(ctx context.Context, _ CreateWorkspaceRequest) (WorkspaceInfo, error) {
	id := m.store.Create()
	m.log().Info("workspace created", "workspace_id", id)
	return WorkspaceInfo{WorkspaceID: id}, nil
}

// ResetWorkspace empties a workspace in place. Every handle it issued is
// invalidated.
func (m *Manager) ResetWorkspace(ctx context.Context, req Target) (WorkspaceInfo, error) {
	var n int
	err := m.store.Reset(req.WorkspaceID, func() { n = m.registry.InvalidateWorkspace(req.WorkspaceID) })
	if err != nil {
		return WorkspaceInfo{}, err
	}
	m.log().Info("workspace reset", "workspace_id", req.WorkspaceID, "invalidated", n)
	return WorkspaceInfo{WorkspaceID: req.WorkspaceID, Invalidated: n}, nil
}

// DeleteWorkspace closes a workspace and invalidates its handles.
func (m *Manager) DeleteWorkspace(ctx context.Context, req Target) (WorkspaceInfo, error) {
	if err := m.store.Delete(req.WorkspaceID); err != nil {
		return WorkspaceInfo{}, err
	}
	n := m.registry.InvalidateWorkspace(req.WorkspaceID)
	m.log().Info("workspace deleted", "workspace_id", req.WorkspaceID, "invalidated", n)
	return WorkspaceInfo{WorkspaceID: req.WorkspaceID, Invalidated: n}, nil
}

// Sweep deletes workspaces idle for longer than ttl and returns how many
// were removed.
func (m *Manager) Sweep(ttl time.Duration) int {
	ids := m.store.Sweep(ttl)
	for _, id := range ids {
		n := m.registry.InvalidateWorkspace(id)
		m.log().Info("idle workspace removed", "workspace_id", id, "invalidated", n, "idle_ttl", ttl)
	}
	return len(ids)
}

// ---------------------------------------------------------------------------
// Package map and queries
// ---------------------------------------------------------------------------

// CreatePackageMap creates the mapped packages and binds their keys.
func (m *Manager) CreatePackageMap(ctx context.Context, req PackageMapRequest) (PackageMapResult, error) {
	var out PackageMapResult
	err := m.do(req.WorkspaceID, func(s *session) error {
		pkgs, err := s.ws.CreatePackageMap(req.Mapping)
		if err != nil {
			return faults.External(err)
		}
		out.Packages = make(map[string]Summary, len(pkgs))
		for key, p := range pkgs {
			sum, err := m.register(s, p)
			if err != nil {
				return err
			}
			out.Packages[key] = sum
		}
		return nil
	})
	return out, err
}

// ListRootPackages summarizes the root packages.
func (m *Manager) ListRootPackages(ctx context.Context, req Target) (PackageList, error) {
	out := PackageList{Packages: []Summary{}}
	err := m.do(req.WorkspaceID, func(s *session) error {
		for _, p := range s.ws.Packages {
			sum, err := m.register(s, p)
			if err != nil {
				return err
			}
			out.Packages = append(out.Packages, sum)
		}
		return nil
	})
	return out, err
}

// FindElement looks an element up by absolute path. Found elements are
// registered on first sight; later lookups return the same handle.
func (m *Manager) FindElement(ctx context.Context, req FindRequest) (FindResult, error) {
	var out FindResult
	err := m.do(req.WorkspaceID, func(s *session) error {
		e, err := s.ws.Find(req.Path)
		if err != nil {
			return faults.Validation("%v", err)
		}
		if e == nil {
			return nil
		}
		sum, err := m.register(s, e)
		if err != nil {
			return err
		}
		out.Found = true
		out.Element = &sum
		return nil
	})
	return out, err
}

// LoadArxml merges an ARXML file into the workspace.
func (m *Manager) LoadArxml(ctx context.Context, req LoadRequest) (LoadResult, error) {
	out := LoadResult{Packages: []Summary{}, Skipped: []string{}}
	err := m.do(req.WorkspaceID, func(s *session) error {
		path, err := m.checkPath(s, req.FilePath)
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err != nil {
			return faults.IO(err)
		}
		file, err := arxml.ReadFile(path)
		if err != nil {
			return faults.External(err)
		}
		if err := s.ws.Merge(file.Packages); err != nil {
			return faults.External(err)
		}
		for _, p := range file.Packages {
			sum, err := m.register(s, s.ws.RootPackage(p.Name()))
			if err != nil {
				return err
			}
			out.Packages = append(out.Packages, sum)
		}
		out.Skipped = append(out.Skipped, file.Skipped...)
		m.log().Info("arxml loaded", "workspace_id", s.id, "path", path, "packages", len(file.Packages), "skipped", len(file.Skipped))
		return nil
	})
	return out, err
}

func upper(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }
