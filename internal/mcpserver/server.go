// Package mcpserver exposes the tool registry and prompts over the Model
// Context Protocol. Stdout carries protocol frames only.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"autosar-mcp/internal/tooling"
)

const serverName = "autosar-mcp"

// Option configures New.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	version string
}

// WithLogger sets the logger for transport errors.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithVersion sets the version reported during initialization.
func WithVersion(v string) Option {
	return func(o *options) { o.version = v }
}

// Server wraps an MCP server whose tools all route through one Dispatcher.
type Server struct {
	mcp    *server.MCPServer
	disp   *tooling.Dispatcher
	logger *slog.Logger
}

// New registers every tool of d and the modeling prompts.
func New(d *tooling.Dispatcher, opts ...Option) *Server {
	o := options{version: "dev"}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	s := &Server{
		mcp: server.NewMCPServer(
			serverName,
			o.version,
			server.WithToolCapabilities(true),
			server.WithPromptCapabilities(true),
			server.WithRecovery(),
			server.WithInstructions(instructions),
		),
		disp:   d,
		logger: o.logger,
	}

	for _, def := range d.Tools().Definitions() {
		tool := mcp.NewToolWithRawSchema(def.Name, def.Description, def.InputSchema)
		s.mcp.AddTool(tool, s.handler(def.Name))
	}
	for _, p := range prompts {
		s.mcp.AddPrompt(p.definition(), p.handle)
	}
	return s
}

// MCP returns the underlying server.
func (s *Server) MCP() *server.MCPServer { return s.mcp }

// handler forwards a tool call to the dispatcher. The response envelope is
// returned as JSON text; failures are flagged with IsError.
func (s *Server) handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := json.Marshal(req.Params.Arguments)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("arguments are not JSON: %v", err)), nil
		}
		resp := s.disp.Call(ctx, name, args)
		body, err := json.Marshal(resp)
		if err != nil {
			return nil, fmt.Errorf("encode %s response: %w", name, err)
		}
		if !resp.OK {
			return mcp.NewToolResultError(string(body)), nil
		}
		return mcp.NewToolResultText(string(body)), nil
	}
}

// Serve runs the stdio transport until ctx is canceled or in is closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))
	s.logger.Info("mcp server listening on stdio", "tools", len(s.disp.Tools().List()))
	if err := stdio.Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp stdio: %w", err)
	}
	return nil
}
