// Package config loads the server configuration from JSON or YAML and
// applies AUTOSAR_MCP_* environment overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"autosar-mcp/internal/arxml"
	"autosar-mcp/internal/domain"
)

// DefaultPath is used when neither a flag nor AUTOSAR_MCP_CONFIG names a file.
const DefaultPath = "autosar-mcp.json"

// EnvConfig names the environment variable holding the config path.
const EnvConfig = "AUTOSAR_MCP_CONFIG"

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// marshalIndent, writeFile and getenv are package-level so tests can force
// errors and inject environments.
var (
	marshalIndent = json.MarshalIndent
	writeFile     = os.WriteFile
	getenv        = os.Getenv
)

// Defaults returns the configuration used for missing files and fields.
func Defaults() *domain.Config {
	return &domain.Config{
		Workspace: domain.WorkspaceConfig{
			Root:          ".",
			IdleTTL:       "",
			SweepSchedule: "@every 1m",
		},
		Output: domain.OutputConfig{
			SchemaVersion: arxml.DefaultSchemaVersion,
			Indent:        2,
			AllowedRoots:  []string{},
		},
		Infra: domain.InfraConfig{LogFormat: "text", LogLevel: "info"},
	}
}

// Path returns explicit if set, else AUTOSAR_MCP_CONFIG, else DefaultPath.
func Path(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := getenv(EnvConfig); p != "" {
		return p
	}
	return DefaultPath
}

// WriteDefault writes the default Config to path. The format follows the
// extension. Parent directories are not created.
func WriteDefault(path string) error {
	data, err := encode(path, Defaults())
	if err != nil {
		return err
	}
	return writeFile(path, data, 0644)
}

// Load reads path over the defaults, applies environment overrides, cleans
// path fields and validates the result. A missing file yields the defaults.
func Load(path string) (*domain.Config, error) {
	c := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("config load: %w", err)
	default:
		if err := decode(path, data, c); err != nil {
			return nil, fmt.Errorf("config parse: %w", err)
		}
	}
	if err := ApplyEnv(c); err != nil {
		return nil, err
	}
	CleanPaths(c)
	if err := Validate(c); err != nil {
		return nil, err
	}
	return c, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func decode(path string, data []byte, c *domain.Config) error {
	if isYAML(path) {
		return yaml.Unmarshal(data, c)
	}
	return json.Unmarshal(data, c)
}

func encode(path string, c *domain.Config) ([]byte, error) {
	if isYAML(path) {
		return yaml.Marshal(c)
	}
	return marshalIndent(c, "", "  ")
}

// ApplyEnv overlays the AUTOSAR_MCP_* variables onto cfg.
func ApplyEnv(cfg *domain.Config) error {
	if v := getenv("AUTOSAR_MCP_LOG_LEVEL"); v != "" {
		cfg.Infra.LogLevel = v
	}
	if v := getenv("AUTOSAR_MCP_LOG_FORMAT"); v != "" {
		cfg.Infra.LogFormat = v
	}
	if v := getenv("AUTOSAR_MCP_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: AUTOSAR_MCP_DEBUG: %v", ErrInvalidConfig, err)
		}
		cfg.Infra.Debug = debug
	}
	if v := getenv("AUTOSAR_MCP_WORKSPACE_ROOT"); v != "" {
		cfg.Workspace.Root = v
	}
	if v := getenv("AUTOSAR_MCP_ALLOWED_ROOTS"); v != "" {
		cfg.Output.AllowedRoots = filepath.SplitList(v)
	}
	if v := getenv("AUTOSAR_MCP_SCHEMA_VERSION"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: AUTOSAR_MCP_SCHEMA_VERSION: %v", ErrInvalidConfig, err)
		}
		cfg.Output.SchemaVersion = n
	}
	if v := getenv("AUTOSAR_MCP_JOURNAL_URL"); v != "" {
		cfg.Journal.URL = v
	}
	if v := getenv("AUTOSAR_MCP_IDLE_TTL"); v != "" {
		cfg.Workspace.IdleTTL = v
	}
	return nil
}

// CleanPaths applies filepath.Clean to all path fields in cfg to prevent path traversal.
func CleanPaths(cfg *domain.Config) {
	if cfg == nil {
		return
	}
	cfg.Workspace.Root = filepath.Clean(cfg.Workspace.Root)
	for i, r := range cfg.Output.AllowedRoots {
		cfg.Output.AllowedRoots[i] = filepath.Clean(r)
	}
}

// IdleTTL parses cfg.Workspace.IdleTTL. Empty means no sweep.
func IdleTTL(cfg *domain.Config) (time.Duration, error) {
	if cfg.Workspace.IdleTTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(cfg.Workspace.IdleTTL)
	if err != nil {
		return 0, fmt.Errorf("%w: workspace.idleTtl: %v", ErrInvalidConfig, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: workspace.idleTtl must not be negative", ErrInvalidConfig)
	}
	return d, nil
}

// Validate checks ranges and formats that the server relies on.
func Validate(cfg *domain.Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	var errs []error
	if v := cfg.Output.SchemaVersion; v < arxml.MinSchemaVersion || v > arxml.MaxSchemaVersion {
		errs = append(errs, fmt.Errorf("%w: output.schemaVersion %d outside %d..%d", ErrInvalidConfig, v, arxml.MinSchemaVersion, arxml.MaxSchemaVersion))
	}
	if cfg.Output.Indent < 0 || cfg.Output.Indent > 8 {
		errs = append(errs, fmt.Errorf("%w: output.indent %d outside 0..8", ErrInvalidConfig, cfg.Output.Indent))
	}
	for _, r := range cfg.Output.AllowedRoots {
		if !filepath.IsAbs(r) {
			errs = append(errs, fmt.Errorf("%w: allowed root %q is not absolute", ErrInvalidConfig, r))
		}
	}
	ttl, err := IdleTTL(cfg)
	if err != nil {
		errs = append(errs, err)
	}
	if ttl > 0 && strings.TrimSpace(cfg.Workspace.SweepSchedule) == "" {
		errs = append(errs, fmt.Errorf("%w: workspace.sweepSchedule is required when idleTtl is set", ErrInvalidConfig))
	}
	switch cfg.Infra.LogFormat {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("%w: infra.logFormat %q", ErrInvalidConfig, cfg.Infra.LogFormat))
	}
	switch strings.ToLower(cfg.Infra.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("%w: infra.logLevel %q", ErrInvalidConfig, cfg.Infra.LogLevel))
	}
	return errors.Join(errs...)
}

// Save writes cfg to path, creating the parent directory.
func Save(path string, cfg *domain.Config) error {
	if cfg == nil {
		return fmt.Errorf("config save: nil config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("config save mkdir: %w", err)
	}
	data, err := encode(path, cfg)
	if err != nil {
		return fmt.Errorf("config save marshal: %w", err)
	}
	if err := writeFile(path, data, 0644); err != nil {
		return fmt.Errorf("config save write: %w", err)
	}
	return nil
}
