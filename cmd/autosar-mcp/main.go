package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"autosar-mcp/internal/cli"
	"autosar-mcp/internal/config"
	"autosar-mcp/internal/domain"
	"autosar-mcp/internal/security"
	"autosar-mcp/internal/signals"
)

// buildMeta holds version and build metadata (injectable via ldflags).
type buildMeta struct {
	Version string
	GoOS    string
	GoArch  string
}

func newBuildMeta(version, goos, goarch string) buildMeta {
	if goos == "" {
		goos = runtime.GOOS
	}
	if goarch == "" {
		goarch = runtime.GOARCH
	}
	return buildMeta{Version: version, GoOS: goos, GoArch: goarch}
}

func (m buildMeta) String() string {
	return fmt.Sprintf("autosar-mcp %s %s/%s", m.Version, m.GoOS, m.GoArch)
}

func newRootCommand(bm buildMeta) *cobra.Command {
	root := &cobra.Command{
		Use:   "autosar-mcp",
		Short: "AUTOSAR ARXML modeling tools over MCP",
		Long: "autosar-mcp serves AUTOSAR Classic modeling tools over the Model Context Protocol on stdio.\n" +
			"Clients build packages, interfaces, components and behavior through handles and write ARXML documents.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion, _ := cmd.Flags().GetBool("version"); showVersion {
				fmt.Fprintln(cmd.OutOrStdout(), bm.String())
				return nil
			}
			return runServe(cmd, bm)
		},
	}
	root.Flags().BoolP("version", "V", false, "print version and build metadata")
	root.PersistentFlags().StringP("config", "c", "", "config file (JSON or YAML; default $AUTOSAR_MCP_CONFIG or autosar-mcp.json)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, bm)
		},
	}
	serveCmd.Flags().StringSlice("allow-root", nil, "additional directory ARXML may be read from or written to (repeatable)")
	root.AddCommand(serveCmd)

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Check config, paths, idle sweep and journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			fix, _ := cmd.Flags().GetBool("fix")
			code := cli.RunCheck(cli.CheckOptions{ConfigPath: configFlag(cmd), Fix: fix}, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if code != 0 {
				return exitCodeErr(code)
			}
			return nil
		},
	}
	checkCmd.Flags().Bool("fix", false, "write default config if missing")
	root.AddCommand(checkCmd)

	toolsCmd := &cobra.Command{
		Use:   "tools",
		Short: "List every tool with its description",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			app, err := cli.NewApp(cfg, cli.NewLogger(cfg.Infra, cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer app.Close()
			return cli.PrintTools(cmd.OutOrStdout(), app.Tools)
		},
	}
	root.AddCommand(toolsCmd)

	inspectCmd := &cobra.Command{
		Use:   "inspect <file.arxml>",
		Short: "Print the package tree of an ARXML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Inspect(cmd.OutOrStdout(), args[0])
		},
	}
	root.AddCommand(inspectCmd)

	journalCmd := &cobra.Command{
		Use:   "journal",
		Short: "Print the most recent journaled tool calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, _ := cmd.Flags().GetInt("n")
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return cli.PrintJournal(cmd.Context(), cmd.OutOrStdout(), cfg.Journal.URL, n)
		},
	}
	journalCmd.Flags().IntP("n", "n", 20, "number of calls to print")
	root.AddCommand(journalCmd)

	return root
}

func configFlag(cmd *cobra.Command) string {
	p, _ := cmd.Flags().GetString("config")
	return p
}

func loadConfig(cmd *cobra.Command) (*domain.Config, error) {
	return config.Load(config.Path(configFlag(cmd)))
}

// runServe blocks until stdin closes or a shutdown signal arrives. Logs go
// to stderr; stdout belongs to the protocol.
func runServe(cmd *cobra.Command, bm buildMeta) error {
	euidGetter := security.EffectiveUIDGetter()
	if serveEUIDGetter != nil {
		euidGetter = serveEUIDGetter
	}
	if err := security.RequireNonRoot(euidGetter); err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if extra, _ := cmd.Flags().GetStringSlice("allow-root"); len(extra) > 0 {
		for _, r := range config.EffectiveRoots(cfg) {
			config.AddAllowedRoot(cfg, r)
		}
		for _, r := range extra {
			config.AddAllowedRoot(cfg, r)
		}
	}
	logger := cli.NewLogger(cfg.Infra, cmd.ErrOrStderr())
	app, err := cli.NewApp(cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signals.NotifyContext(cmd.Context())
	defer stop()
	return app.Serve(ctx, bm.Version, serveInput, cmd.OutOrStdout())
}

func getVersion() string {
	if version != "" {
		return version
	}
	b, err := os.ReadFile("VERSION")
	if err != nil {
		return "dev"
	}
	return strings.TrimSpace(string(b))
}

// version is set at build time via ldflags for build metadata, e.g.:
//
//	go build -ldflags "-X main.version=0.3.0" -o autosar-mcp ./cmd/autosar-mcp
var version string

// serveEUIDGetter is set by tests to avoid RequireNonRoot failing when tests run as root. Production leaves it nil.
var serveEUIDGetter func() int

// serveInput is the protocol input stream. Tests replace it.
var serveInput io.Reader = os.Stdin

// exitCodeErr carries an exit code for the process. When returned from a command, runApp exits with that code.
type exitCodeErr int

func (e exitCodeErr) Error() string { return fmt.Sprintf("exit %d", int(e)) }
func (e exitCodeErr) ExitCode() int { return int(e) }

// runApp runs the root command with the given args and returns the exit code (0, 1, or 2).
func runApp(args []string, stdout, stderr io.Writer) int {
	bm := newBuildMeta(version, "", "")
	if bm.Version == "" {
		bm.Version = getVersion()
	}
	root := newRootCommand(bm)
	root.SetArgs(args[1:])
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SilenceErrors = true
	if err := root.Execute(); err != nil {
		if errors.Is(err, security.ErrRunningAsRoot) {
			fmt.Fprintln(stderr, err)
			return 2
		}
		var ec interface{ ExitCode() int }
		if errors.As(err, &ec) {
			return ec.ExitCode()
		}
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}
