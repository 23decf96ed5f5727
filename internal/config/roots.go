package config

import (
	"path/filepath"

	"autosar-mcp/internal/domain"
)

// EffectiveRoots returns the directories file access is limited to: the
// configured allowed roots, or the workspace root when none are set.
func EffectiveRoots(cfg *domain.Config) []string {
	if cfg == nil {
		return nil
	}
	if len(cfg.Output.AllowedRoots) > 0 {
		return append([]string(nil), cfg.Output.AllowedRoots...)
	}
	return []string{absolute(cfg.Workspace.Root)}
}

// WorkspaceRoot returns the absolute default document root.
func WorkspaceRoot(cfg *domain.Config) string {
	return absolute(cfg.Workspace.Root)
}

// AddAllowedRoot appends dir to cfg.Output.AllowedRoots unless an equal or
// enclosing root is already present.
func AddAllowedRoot(cfg *domain.Config, dir string) {
	if cfg == nil || dir == "" {
		return
	}
	dir = absolute(dir)
	for _, r := range cfg.Output.AllowedRoots {
		if rel, err := filepath.Rel(r, dir); err == nil && filepath.IsLocal(rel) || r == dir {
			return
		}
	}
	cfg.Output.AllowedRoots = append(cfg.Output.AllowedRoots, dir)
}

func absolute(p string) string {
	if p == "" {
		p = "."
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
