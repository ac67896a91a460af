package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"movconv/internal/config"
	"movconv/internal/convert"
	"movconv/internal/logging"
)

func runConvert(cmd *cobra.Command, ctx *commandContext, args []string) error {
	invocation, err := convert.ParseArgs(args)
	if err != nil {
		return err
	}
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	conv, closeHistory, err := buildConverter(ctx, cfg, logger, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeHistory()

	summary, err := conv.Run(cmd.Context(), invocation)
	if err != nil {
		return err
	}
	if summary.Failed > 0 && cfg.Convert.FailOnError {
		return &exitError{code: exitFilesFailed, err: fmt.Errorf("%d of %d file(s) failed to convert", summary.Failed, summary.Processed)}
	}
	return nil
}

// buildConverter wires the converter to the status stream on out and, when
// enabled, the run history. A history that cannot be opened is logged and
// skipped; it never blocks conversion.
func buildConverter(ctx *commandContext, cfg *config.Config, logger *slog.Logger, out io.Writer) (*convert.Converter, func(), error) {
	opts := []convert.Option{
		convert.WithLogger(logger),
		convert.WithReporter(convert.NewReporter(out, shouldColorize(out))),
	}

	store, err := ctx.openHistory()
	if err != nil {
		logger.Warn("run history unavailable", logging.Error(err))
		store = nil
	}
	if store != nil {
		opts = append(opts, convert.WithRecorder(store))
	}
	closeFn := func() {
		if store != nil {
			_ = store.Close()
		}
	}

	conv, err := convert.New(cfg, opts...)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return conv, closeFn, nil
}
