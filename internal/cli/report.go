package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"autosar-mcp/internal/arxml"
	"autosar-mcp/internal/journal"
	"autosar-mcp/internal/tooling"
)

// PrintTools lists every tool with its description.
func PrintTools(w io.Writer, reg *tooling.ToolRegistry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, t := range reg.List() {
		fmt.Fprintf(tw, "%s\t%s\n", t.Name(), t.Description())
	}
	return tw.Flush()
}

// Inspect reads an ARXML file and prints its package tree.
func Inspect(w io.Writer, path string) error {
	f, err := arxml.ReadFile(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s (schema %d)\n", path, f.SchemaVersion)
	for _, p := range f.Packages {
		printPackage(w, p, 1)
	}
	if len(f.Skipped) > 0 {
		fmt.Fprintf(w, "skipped %d unmodeled elements:\n", len(f.Skipped))
		for _, s := range f.Skipped {
			fmt.Fprintf(w, "  %s\n", s)
		}
	}
	return nil
}

func printPackage(w io.Writer, p *arxml.Package, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%s%s/\n", indent, p.Name())
	for _, e := range p.Elements {
		fmt.Fprintf(w, "%s  %s [%s]\n", indent, e.Name(), e.Kind())
	}
	for _, sub := range p.Packages {
		printPackage(w, sub, depth+1)
	}
}

// PrintJournal prints the last n journaled tool calls, newest first.
func PrintJournal(ctx context.Context, w io.Writer, url string, n int) error {
	if url == "" {
		return fmt.Errorf("journal is disabled; set journal.url or AUTOSAR_MCP_JOURNAL_URL")
	}
	j, err := journal.Open(url)
	if err != nil {
		return err
	}
	defer j.Close()
	recs, err := j.Recent(ctx, n)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "AT\tTOOL\tWORKSPACE\tRESULT\tDURATION")
	for _, r := range recs {
		result := "ok"
		if !r.OK {
			result = r.ErrorType
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.At.Local().Format(time.DateTime), r.Tool, r.WorkspaceID, result, r.Duration.Round(time.Microsecond))
	}
	return tw.Flush()
}
