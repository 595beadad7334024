package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sec-toolkit/dirscan-toolkit/internal/config"
	"github.com/sec-toolkit/dirscan-toolkit/internal/database"
	"github.com/sec-toolkit/dirscan-toolkit/internal/model"
	"github.com/sec-toolkit/dirscan-toolkit/internal/report"
)

// errTargetRequired is returned when a history operation needs a target.
var errTargetRequired = errors.New("target URL is required (use --list-targets to see scanned targets)")

// errNotEnoughRuns is returned by --diff when fewer than two runs exist.
var errNotEnoughRuns = errors.New("at least two runs are needed to compare")

// NewHistoryCmd creates the history command.
// This command reads the runs recorded by scan from the history database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [target-url]",
		Short: "Show recorded scan runs",
		Long: `History lists the scan runs recorded in the history database.

Every scan is recorded unless it was run with --no-history. A target is
identified by the exact --url value it was scanned with.

Examples:
  # List all scanned targets
  dirscan history --list-targets

  # List runs for a target
  dirscan history https://example.com

  # Show a single run
  dirscan history --show 0f8fad5b-d9cb-469f-a165-70867728950e

  # Compare the statuses of the latest two runs
  dirscan history --diff https://example.com

  # Any of the above as JSON
  dirscan history --diff --json https://example.com`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list-targets", "L", false,
		"List all targets in the history database")
	cmd.Flags().StringP("show", "s", "",
		"Show the run with this ID")
	cmd.Flags().BoolP("diff", "d", false,
		"Compare the latest two runs of the target")
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// historyOptions are the parsed history flags.
type historyOptions struct {
	listTargets bool
	showRunID   string
	diff        bool
	jsonOutput  bool
	dbDir       string
	target      string
}

func parseHistoryOptions(cmd *cobra.Command, args []string) (historyOptions, error) {
	var opts historyOptions
	var err error

	flags := cmd.Flags()
	if opts.listTargets, err = flags.GetBool("list-targets"); err != nil {
		return opts, err
	}
	if opts.showRunID, err = flags.GetString("show"); err != nil {
		return opts, err
	}
	if opts.diff, err = flags.GetBool("diff"); err != nil {
		return opts, err
	}
	if opts.jsonOutput, err = flags.GetBool("json"); err != nil {
		return opts, err
	}
	if opts.dbDir, err = flags.GetString("db-dir"); err != nil {
		return opts, err
	}
	if len(args) > 0 {
		opts.target = args[0]
	}
	return opts, nil
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	opts, err := parseHistoryOptions(cmd, args)
	if err != nil {
		return err
	}

	// Validate arguments before opening the database so a usage error does
	// not create an empty database file.
	if !opts.listTargets && opts.showRunID == "" && opts.target == "" {
		return errTargetRequired
	}

	db, err := database.Open(opts.dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case opts.listTargets:
		return listTargets(ctx, db, out, opts.jsonOutput)
	case opts.showRunID != "":
		return showRun(ctx, db, out, opts.showRunID, opts.jsonOutput, getVerboseFlag(cmd))
	case opts.diff:
		return diffLatestRuns(ctx, db, out, opts.target, opts.jsonOutput)
	default:
		return listRuns(ctx, db, out, opts.target, opts.jsonOutput)
	}
}

// listTargets prints every target that has at least one recorded run.
func listTargets(ctx context.Context, db *database.HistoryDB, out io.Writer, jsonOutput bool) error {
	targets, err := db.ListTargets(ctx)
	if err != nil {
		return fmt.Errorf("failed to list targets: %w", err)
	}

	if jsonOutput {
		if targets == nil {
			targets = []string{}
		}
		return writeJSON(out, targets)
	}

	if len(targets) == 0 {
		fmt.Fprintln(out, "No scanned targets found in the database.")
		fmt.Fprintln(out, "\nUse 'dirscan scan -u <url>' to scan a target.")
		return nil
	}

	fmt.Fprintf(out, "Scanned targets (%d):\n\n", len(targets))
	for _, target := range targets {
		fmt.Fprintf(out, "  • %s\n", target)
	}
	fmt.Fprintln(out, "\nUse 'dirscan history <url>' to see the runs for a target.")

	return nil
}

// listRuns prints the runs of one target, newest first.
func listRuns(ctx context.Context, db *database.HistoryDB, out io.Writer, target string, jsonOutput bool) error {
	runs, err := db.GetRunHistory(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	if jsonOutput {
		if runs == nil {
			runs = []database.RunMetadata{}
		}
		return writeJSON(out, runs)
	}

	if len(runs) == 0 {
		fmt.Fprintf(out, "No scan history found for %s\n", target)
		return nil
	}

	fmt.Fprintf(out, "Scan history for %s (%d runs):\n\n", target, len(runs))
	fmt.Fprintf(out, "  %-36s  %-19s  %-6s  %7s  %6s  %5s\n", "Run ID", "Started", "Method", "Probes", "Errors", "Dups")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 90))
	for _, run := range runs {
		fmt.Fprintf(out, "  %-36s  %-19s  %-6s  %7d  %6d  %5d\n",
			run.RunID,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Method,
			run.Total,
			run.Errors,
			run.Duplicates,
		)
	}

	return nil
}

// showRun prints one stored run with the summary writer, or as a full JSON
// document.
func showRun(ctx context.Context, db *database.HistoryDB, out io.Writer, runID string, jsonOutput, verbose bool) error {
	run, err := db.GetRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}
	if run == nil {
		return fmt.Errorf("run not found: %s", runID)
	}

	var w report.Writer
	if jsonOutput {
		w = report.NewFullJSONWriter(out, toolVersion, report.WithPrettyPrint())
	} else {
		w = report.NewSimpleWriter(out, report.WithVerbose(verbose))
	}
	_, err = w.Write(run)
	return err
}

// diffLatestRuns compares the two most recent runs of target.
func diffLatestRuns(ctx context.Context, db *database.HistoryDB, out io.Writer, target string, jsonOutput bool) error {
	runs, err := db.GetLatestRuns(ctx, target, 2)
	if err != nil {
		return fmt.Errorf("failed to get runs: %w", err)
	}
	if len(runs) < 2 {
		return fmt.Errorf("%w: %s has %d", errNotEnoughRuns, target, len(runs))
	}

	newer, older := runs[0], runs[1]
	changes := model.DiffRuns(older, newer)

	if jsonOutput {
		if changes == nil {
			changes = []model.StatusChange{}
		}
		return writeJSON(out, struct {
			Target  string               `json:"target"`
			Older   string               `json:"older_run_id"`
			Newer   string               `json:"newer_run_id"`
			Changes []model.StatusChange `json:"changes"`
		}{target, older.RunID, newer.RunID, changes})
	}

	fmt.Fprintf(out, "Comparing runs for %s\n", target)
	fmt.Fprintf(out, "  older: %s (%s)\n", older.RunID, older.StartedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "  newer: %s (%s)\n\n", newer.RunID, newer.StartedAt.Local().Format("2006-01-02 15:04:05"))

	if len(changes) == 0 {
		fmt.Fprintln(out, "No status changes.")
		return nil
	}

	for _, c := range changes {
		switch c.Kind {
		case model.ChangeAdded:
			fmt.Fprintf(out, "  + %-5s %s\n", c.New, c.URL)
		case model.ChangeRemoved:
			fmt.Fprintf(out, "  - %-5s %s\n", c.Old, c.URL)
		default:
			fmt.Fprintf(out, "  ~ %s -> %s %s\n", c.Old, c.New, c.URL)
		}
	}
	fmt.Fprintf(out, "\n%d change(s)\n", len(changes))

	return nil
}

// writeJSON encodes v with two-space indentation.
func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(v)
}
