package cli

import (
	"io"
	"log/slog"
	"strings"

	"autosar-mcp/internal/domain"
)

// NewLogger builds the process logger. It must not write to stdout, which
// carries MCP frames while serving.
func NewLogger(infra domain.InfraConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(infra.LogLevel, infra.Debug)}
	if strings.EqualFold(infra.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(level string, debug bool) slog.Level {
	if debug {
		return slog.LevelDebug
	}
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
