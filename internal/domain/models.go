package domain

import (
	"encoding/json"
	"time"
)

// =============================================================================
// Core Configuration
// =============================================================================

type Config struct {
	Workspace WorkspaceConfig `json:"workspace" yaml:"workspace"`
	Output    OutputConfig    `json:"output" yaml:"output"`
	Journal   JournalConfig   `json:"journal" yaml:"journal"`
	Infra     InfraConfig     `json:"infra" yaml:"infra"`
}

type WorkspaceConfig struct {
	Root          string `json:"root" yaml:"root"`                   // Default document root for new workspaces
	IdleTTL       string `json:"idleTtl" yaml:"idleTtl"`             // Go duration; empty or "0" keeps idle workspaces forever
	SweepSchedule string `json:"sweepSchedule" yaml:"sweepSchedule"` // Cron spec for the idle sweep, e.g. "@every 1m"
}

// OutputConfig controls ARXML serialization and where files may be read or
// written.
type OutputConfig struct {
	SchemaVersion int      `json:"schemaVersion" yaml:"schemaVersion"` // AUTOSAR_000NN.xsd, 48..53
	Indent        int      `json:"indent" yaml:"indent"`
	AllowedRoots  []string `json:"allowedRoots" yaml:"allowedRoots"` // Absolute; empty means the workspace root only
}

// JournalConfig enables the tool-call journal. Empty URL disables it.
type JournalConfig struct {
	URL string `json:"url" yaml:"url"` // "file:journal.db" or "libsql://[db].turso.io?authToken=..."
}

type InfraConfig struct {
	LogFormat string `json:"logFormat" yaml:"logFormat"` // "json" | "text"
	LogLevel  string `json:"logLevel" yaml:"logLevel"`
	Debug     bool   `json:"debug,omitempty" yaml:"debug,omitempty"`
}

// =============================================================================
// Tool Protocol
// =============================================================================

// ToolDefinition describes a tool to the client: its name, a description and
// the JSON Schema of its arguments.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// ToolResult is the value a tool produced. Data is marshaled to JSON as the
// result of the call.
type ToolResult struct {
	Data     any               `json:"data"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// CallRecord is one journaled tool call.
type CallRecord struct {
	ID          int64         `json:"id"`
	Tool        string        `json:"tool"`
	WorkspaceID string        `json:"workspaceId,omitempty"`
	OK          bool          `json:"ok"`
	ErrorType   string        `json:"errorType,omitempty"`
	Message     string        `json:"message,omitempty"`
	Duration    time.Duration `json:"duration"`
	At          time.Time     `json:"at"`
}
