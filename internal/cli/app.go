// Package cli wires configuration into the running server and implements
// the non-serving subcommands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"autosar-mcp/internal/config"
	"autosar-mcp/internal/domain"
	"autosar-mcp/internal/journal"
	"autosar-mcp/internal/mcpserver"
	"autosar-mcp/internal/scheduler"
	"autosar-mcp/internal/tooling"
	"autosar-mcp/internal/workspace"
)

// App holds everything one server process needs.
type App struct {
	Config     *domain.Config
	Logger     *slog.Logger
	Manager    *workspace.Manager
	Tools      *tooling.ToolRegistry
	Dispatcher *tooling.Dispatcher
	Journal    *journal.Store       // nil when journal.url is empty
	Scheduler  *scheduler.Scheduler // nil when workspace.idleTtl is unset
}

// NewApp builds the manager, tool registry and dispatcher from cfg, plus the
// journal and idle sweep when configured. Close releases them.
func NewApp(cfg *domain.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ttl, err := config.IdleTTL(cfg)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Logger: logger}
	a.Manager = workspace.NewManager(
		workspace.WithLogger(logger),
		workspace.WithDocumentRoot(config.WorkspaceRoot(cfg)),
		workspace.WithAllowedRoots(config.EffectiveRoots(cfg)...),
		workspace.WithSchemaVersion(cfg.Output.SchemaVersion),
		workspace.WithIndent(cfg.Output.Indent),
	)
	a.Tools, err = tooling.NewAutosarRegistry(a.Manager)
	if err != nil {
		return nil, fmt.Errorf("register tools: %w", err)
	}

	opts := []tooling.DispatcherOption{tooling.WithLogger(logger)}
	if cfg.Journal.URL != "" {
		a.Journal, err = journal.Open(cfg.Journal.URL)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		opts = append(opts, tooling.WithRecorder(a.Journal))
	}
	a.Dispatcher = tooling.NewDispatcher(a.Tools, opts...)

	if ttl > 0 {
		job, err := scheduler.SweepJob(a.Manager, cfg.Workspace.SweepSchedule, ttl)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Scheduler = scheduler.NewScheduler(scheduler.NewRobfigCronEngine(), scheduler.WithLogger(logger))
		if err := a.Scheduler.AddJob(job); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

// Serve runs the MCP stdio server until ctx is canceled or in is closed.
func (a *App) Serve(ctx context.Context, version string, in io.Reader, out io.Writer) error {
	srv := mcpserver.New(a.Dispatcher, mcpserver.WithLogger(a.Logger), mcpserver.WithVersion(version))
	if a.Scheduler != nil {
		a.Scheduler.Start()
		defer a.Scheduler.Stop()
	}
	a.Logger.Info("serving",
		"version", version,
		"document_root", config.WorkspaceRoot(a.Config),
		"allowed_roots", a.Manager.AllowedRoots(),
		"journal", a.Journal != nil,
		"jobs", a.jobIDs(),
	)
	return srv.Serve(ctx, in, out)
}

func (a *App) jobIDs() []string {
	ids := []string{}
	if a.Scheduler == nil {
		return ids
	}
	for _, j := range a.Scheduler.ListJobs() {
		ids = append(ids, j.ID)
	}
	return ids
}

// Close unregisters the scheduled jobs and releases the journal. Calling it
// again is a no-op.
func (a *App) Close() error {
	var errs []error
	if a.Scheduler != nil {
		for _, id := range a.jobIDs() {
			errs = append(errs, a.Scheduler.RemoveJob(id))
		}
	}
	if a.Journal != nil {
		errs = append(errs, a.Journal.Close())
		a.Journal = nil
	}
	return errors.Join(errs...)
}
