package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"movconv/internal/logging"
	"movconv/internal/preflight"
	"movconv/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch configured directories and convert media as it arrives",
		Long: `Run the watcher in the foreground. Each [[watch.jobs]] entry in the config
watches a directory tree and converts changed files into its output root.
Stop it with Ctrl-C or "movconv watch stop".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, ctx)
		},
	}
	watchCmd.AddCommand(newWatchStopCommand(ctx))
	watchCmd.AddCommand(newWatchStatusCommand(ctx))
	return watchCmd
}

func runWatch(cmd *cobra.Command, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	results := preflight.RunAll(cmd.Context(), cfg)
	for _, r := range results {
		if !r.Passed {
			logger.Warn("preflight check failed",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
				logging.Bool("optional", r.Optional),
			)
		}
	}
	if preflight.Failed(results) {
		return errors.New("preflight checks failed; run `movconv check` for details")
	}

	lock, err := watch.AcquirePidLock(cfg.Watch.PidFile)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("failed to release pid file", logging.Error(err))
		}
	}()

	conv, closeHistory, err := buildConverter(ctx, cfg, logger, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeHistory()

	watcher, err := watch.New(cfg, conv, logger)
	if err != nil {
		return err
	}
	logger.Info("watcher started", logging.String("pid_file", lock.Path()), logging.Int("jobs", len(cfg.Watch.Jobs)))
	if err := watcher.Run(cmd.Context()); err != nil {
		return err
	}
	logger.Info("watcher stopped")
	return nil
}

func newWatchStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Signal a running watcher to exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			pid, err := watch.Stop(cfg.Watch.PidFile)
			if errors.Is(err, watch.ErrNotRunning) {
				fmt.Fprintln(out, "Watcher is not running")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Sent SIGTERM to watcher (pid %d)\n", pid)
			return nil
		},
	}
}

func newWatchStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether a watcher is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			pid, running, err := watch.Running(cfg.Watch.PidFile)
			if err != nil {
				return err
			}
			board := newStatusBoard(out)
			if running {
				board.add("Watcher", statusOK, "running (pid %d)", pid)
			} else {
				board.add("Watcher", statusInfo, "not running")
			}
			for _, job := range cfg.Watch.Jobs {
				board.add("Job "+job.Label, statusInfo, "%s -> %s on %s", job.Watch, job.Output, strings.Join(job.Events, ","))
			}
			board.render(out)
			return nil
		},
	}
}
