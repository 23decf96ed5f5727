package tooling

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"autosar-mcp/internal/domain"
	"autosar-mcp/internal/faults"
)

// Response is the envelope returned for every tool call.
type Response struct {
	OK     bool           `json:"ok"`
	Result any            `json:"result,omitempty"`
	Error  *faults.Report `json:"error,omitempty"`
}

// Dispatcher routes tool calls to the registry and turns every outcome,
// panics included, into a Response.
type Dispatcher struct {
	tools    *ToolRegistry
	logger   *slog.Logger
	recorder domain.CallRecorder
	now      func() time.Time
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the logger used for per-call logging.
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

// WithRecorder journals every call through r.
func WithRecorder(r domain.CallRecorder) DispatcherOption {
	return func(d *Dispatcher) { d.recorder = r }
}

// NewDispatcher returns a Dispatcher over tools.
func NewDispatcher(tools *ToolRegistry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{tools: tools, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) log() *slog.Logger {
	if d.logger != nil {
		return d.logger
	}
	return slog.Default()
}

// Tools returns the registry the dispatcher serves.
func (d *Dispatcher) Tools() *ToolRegistry { return d.tools }

// Call runs the named tool. It never panics and never returns a Go error.
func (d *Dispatcher) Call(ctx context.Context, name string, args json.RawMessage) (resp Response) {
	start := d.now()
	wsID := workspaceID(args)
	defer func() {
		if p := recover(); p != nil {
			d.log().Error("tool panicked", "tool", name, "panic", p, "stack", string(debug.Stack()))
			resp = fail(faults.Report{Type: faults.TypeInternal, Message: fmt.Sprintf("internal error: %v", p)})
		}
		d.finish(ctx, name, wsID, resp, d.now().Sub(start))
	}()

	tool, err := d.tools.Get(name)
	if err != nil {
		return fail(faults.NewReport(err))
	}
	res, err := tool.Call(ctx, args)
	if err != nil {
		return fail(faults.NewReport(err))
	}
	return Response{OK: true, Result: res.Data}
}

func fail(r faults.Report) Response { return Response{Error: &r} }

func (d *Dispatcher) finish(ctx context.Context, name, wsID string, resp Response, elapsed time.Duration) {
	rec := domain.CallRecord{
		Tool:        name,
		WorkspaceID: wsID,
		OK:          resp.OK,
		Duration:    elapsed,
		At:          d.now().UTC(),
	}
	if resp.Error != nil {
		rec.ErrorType = resp.Error.Type
		rec.Message = resp.Error.Message
	}
	level := slog.LevelInfo
	if !resp.OK {
		level = slog.LevelWarn
	}
	d.log().Log(ctx, level, "tool call",
		"tool", name,
		"workspace_id", wsID,
		"ok", resp.OK,
		"error_type", rec.ErrorType,
		"duration", elapsed,
	)
	if d.recorder == nil {
		return
	}
	if err := d.recorder.Record(context.WithoutCancel(ctx), rec); err != nil {
		d.log().Warn("journal record failed", "tool", name, "error", err)
	}
}

// workspaceID peeks at the workspace_id argument for logging. Malformed
// arguments yield "".
func workspaceID(args json.RawMessage) string {
	var peek struct {
		WorkspaceID string `json:"workspace_id"`
	}
	if len(args) == 0 || json.Unmarshal(args, &peek) != nil {
		return ""
	}
	return peek.WorkspaceID
}
