package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"autosar-mcp/internal/config"
	"autosar-mcp/internal/journal"
	"autosar-mcp/internal/scheduler"
)

// CheckOptions holds options for the check command.
type CheckOptions struct {
	ConfigPath string
	Fix        bool // if true, write default config when missing
}

// RunCheck loads and validates the configuration, then reports the document
// root, allowed roots, idle sweep and journal. Returns exit code.
func RunCheck(opts CheckOptions, stdout, stderr io.Writer) int {
	cfgPath := config.Path(opts.ConfigPath)
	note := func(section, message string) {
		fmt.Fprintf(stdout, "  [%s] %s\n", section, message)
	}

	// 1. Config
	if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
		note("Config", fmt.Sprintf("No config at %s, using defaults.", cfgPath))
		if opts.Fix {
			if writeErr := config.WriteDefault(cfgPath); writeErr != nil {
				fmt.Fprintf(stderr, "  failed to write default config: %v\n", writeErr)
				return 1
			}
			note("Config", fmt.Sprintf("Wrote default config to %s.", cfgPath))
		} else {
			note("Config", "Run with --fix to create it.")
		}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		note("Config", err.Error())
		return 1
	}
	note("Config", fmt.Sprintf("Loaded %s.", cfgPath))
	failed := false

	// 2. Paths
	root := config.WorkspaceRoot(cfg)
	if err := ensureDir(root, "workspace.root"); err != nil {
		note("Paths", err.Error())
		failed = true
	} else {
		note("Paths", fmt.Sprintf("workspace.root %s ok.", root))
	}
	for _, r := range config.EffectiveRoots(cfg) {
		if !within(r, root) && !within(root, r) {
			note("Paths", fmt.Sprintf("allowed root %s does not contain workspace.root.", r))
		} else {
			note("Paths", fmt.Sprintf("allowed root %s.", r))
		}
	}

	// 3. Output
	note("Output", fmt.Sprintf("schema AUTOSAR_%05d.xsd indent=%d", cfg.Output.SchemaVersion, cfg.Output.Indent))

	// 4. Sweep
	if ttl, _ := config.IdleTTL(cfg); ttl > 0 {
		if err := scheduler.ValidateSpec(cfg.Workspace.SweepSchedule); err != nil {
			note("Sweep", fmt.Sprintf("schedule %q: %v", cfg.Workspace.SweepSchedule, err))
			failed = true
		} else {
			note("Sweep", fmt.Sprintf("idle workspaces closed after %s (%s).", ttl, cfg.Workspace.SweepSchedule))
		}
	} else {
		note("Sweep", "disabled; workspaces live until deleted.")
	}

	// 5. Journal
	if cfg.Journal.URL == "" {
		note("Journal", "disabled.")
	} else if j, err := journal.Open(cfg.Journal.URL); err != nil {
		note("Journal", err.Error())
		failed = true
	} else {
		j.Close()
		note("Journal", "reachable.")
	}

	if failed {
		fmt.Fprintln(stdout, "  Check found problems.")
		return 1
	}
	fmt.Fprintln(stdout, "  Check complete.")
	return 0
}

// within reports whether path is dir or below it.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && filepath.IsLocal(rel)
}

func ensureDir(dir, label string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			if mkErr := os.MkdirAll(abs, 0755); mkErr != nil {
				return fmt.Errorf("%s %q: mkdir failed: %w", label, abs, mkErr)
			}
			return nil
		}
		return fmt.Errorf("%s %q: %w", label, abs, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s %q: not a directory", label, abs)
	}
	return nil
}
