package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"movconv/internal/convert"
	"movconv/internal/history"
)

const runIDDisplayLength = 8

var errHistoryDisabled = errors.New("run history is disabled (history.enabled = false)")

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recent conversion runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				fmt.Fprintln(out, renderRunsTable(runs))
				return nil
			})
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 for all)")

	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryPruneCommand(ctx))
	return historyCmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the files processed by one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				run, err := store.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run:          %s\n", run.ID)
				fmt.Fprintf(out, "Trigger:      %s\n", triggerLabel(run))
				fmt.Fprintf(out, "Started:      %s\n", run.StartedAt.Local().Format(time.DateTime))
				fmt.Fprintf(out, "Duration:     %s\n", run.Duration().Round(time.Millisecond))
				fmt.Fprintf(out, "Watched root: %s\n", run.WatchedRoot)
				fmt.Fprintf(out, "Changed path: %s\n", run.ChangedPath)
				fmt.Fprintf(out, "Event:        %s\n", run.Event)
				fmt.Fprintf(out, "Output root:  %s\n", run.OutputRoot)
				if run.ErrorMessage != "" {
					fmt.Fprintf(out, "Error:        %s\n", run.ErrorMessage)
				}
				fmt.Fprintf(out, "Summary:      processed %d, converted %d, skipped %d (non-media), failed %d (errors)\n",
					run.Processed, run.Converted, run.Skipped, run.Failed)
				if len(run.Files) > 0 {
					fmt.Fprintln(out, renderFilesTable(run))
				}
				return nil
			})
		},
	}
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var keep int
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the most recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if keep < 1 {
				return &exitError{code: exitUsage, err: errors.New("--keep must be at least 1")}
			}
			return withHistory(ctx, func(store *history.Store) error {
				removed, err := store.Prune(cmd.Context(), keep)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d run(s)\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 100, "Number of most recent runs to keep")
	return cmd
}

func withHistory(ctx *commandContext, fn func(*history.Store) error) error {
	store, err := ctx.openHistory()
	if err != nil {
		return err
	}
	if store == nil {
		return errHistoryDisabled
	}
	defer store.Close()
	return fn(store)
}

const pathColumnWidth = 48

func renderRunsTable(runs []history.Run) string {
	cols := []column{
		{header: "Run"},
		{header: "Started"},
		{header: "Trigger"},
		{header: "Changed Path", maxWidth: pathColumnWidth},
		{header: "Processed", numeric: true},
		{header: "Converted", numeric: true},
		{header: "Skipped", numeric: true},
		{header: "Failed", numeric: true},
		{header: "Took"},
	}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID),
			run.StartedAt.Local().Format(time.DateTime),
			triggerLabel(run),
			displayPath(run.WatchedRoot, run.ChangedPath),
			strconv.Itoa(run.Processed),
			strconv.Itoa(run.Converted),
			strconv.Itoa(run.Skipped),
			strconv.Itoa(run.Failed),
			run.Duration().Round(time.Millisecond).String(),
		})
	}
	return renderTable("", cols, rows, true)
}

func renderFilesTable(run history.Run) string {
	cols := []column{
		{header: "Outcome"},
		{header: "Source", maxWidth: pathColumnWidth},
		{header: "Output", maxWidth: pathColumnWidth},
		{header: "Detail", maxWidth: pathColumnWidth},
		{header: "Took"},
	}
	rows := make([][]string, 0, len(run.Files))
	for _, f := range run.Files {
		detail := f.Reason
		if f.ErrorMessage != "" {
			detail = f.ErrorMessage
		}
		if detail == "" {
			detail = f.MIME
		}
		took := ""
		if f.Duration > 0 {
			took = f.Duration.Round(time.Millisecond).String()
		}
		output := ""
		if f.Destination != "" {
			output = displayPath(run.OutputRoot, f.Destination)
		}
		rows = append(rows, []string{
			convert.Outcome(f.Outcome).Label(),
			displayPath(run.WatchedRoot, f.Source),
			output,
			detail,
			took,
		})
	}
	return renderTable(fmt.Sprintf("Files (%d)", len(run.Files)), cols, rows, false)
}

// displayPath shows path relative to root when it lies beneath it.
func displayPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}

func triggerLabel(run history.Run) string {
	if run.JobLabel != "" {
		return fmt.Sprintf("%s (%s)", run.Trigger, run.JobLabel)
	}
	return string(run.Trigger)
}

func shortID(id string) string {
	if len(id) <= runIDDisplayLength {
		return id
	}
	return id[:runIDDisplayLength]
}
