package main

import (
	"errors"

	"github.com/spf13/cobra"

	"movconv/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the encoder and configured directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			board := newStatusBoard(out)
			if ctx.configPath != "" {
				board.add("Config", statusInfo, "%s", ctx.configPath)
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			for _, r := range results {
				board.add(r.Name, checkKind(r), "%s", r.Detail)
			}
			board.render(out)
			if preflight.Failed(results) {
				return errors.New("one or more required checks failed")
			}
			return nil
		},
	}
}

func checkKind(r preflight.Result) statusKind {
	switch {
	case r.Passed:
		return statusOK
	case r.Optional:
		return statusWarn
	default:
		return statusError
	}
}
