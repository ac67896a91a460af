package main

import (
	"strings"

	"github.com/spf13/cobra"
)

// convertArity is the number of positional arguments the converter takes.
const convertArity = 4

func newRootCommand() *cobra.Command {
	var flags globalFlags

	ctx := newCommandContext(&flags)

	rootCmd := &cobra.Command{
		Use:   "movconv <watchedRoot> <changedPath> <eventDescriptor> <outputRoot>",
		Short: "Transcode media under a changed path into ProRes/PCM .mov files",
		Long: `movconv converts every audio or video file under changedPath into a .mov
(ProRes video, 16-bit big-endian PCM audio) beneath outputRoot, mirroring the
layout relative to watchedRoot. Files are detected by content, not extension.

Exactly four positional arguments always run the converter, even when the first
one is a subcommand name such as "watch" or "help". Use "--" to force the
converter for any other argument count.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, ctx, args)
		},
	}
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &exitError{code: exitUsage, err: err}
	})

	rootCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().IntVar(&flags.workers, "workers", 0, "Override convert.workers (files encoded in parallel)")

	rootCmd.AddCommand(newWatchCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

// routeConvertArgs places "--" ahead of the positional arguments when there
// are exactly four of them and the first names a subcommand. No subcommand
// accepts four arguments, and cobra stops command lookup at "--".
func routeConvertArgs(root *cobra.Command, args []string) []string {
	var flagArgs, positional []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			return args
		case len(arg) > 1 && strings.HasPrefix(arg, "-"):
			flagArgs = append(flagArgs, arg)
			if !strings.Contains(arg, "=") && flagTakesValue(root, arg) && i+1 < len(args) {
				i++
				flagArgs = append(flagArgs, args[i])
			}
		default:
			positional = append(positional, arg)
		}
	}
	if len(positional) != convertArity || !isSubcommandName(root, positional[0]) {
		return args
	}
	routed := make([]string, 0, len(args)+1)
	routed = append(routed, flagArgs...)
	routed = append(routed, "--")
	return append(routed, positional...)
}

func flagTakesValue(root *cobra.Command, arg string) bool {
	name := strings.TrimLeft(arg, "-")
	if strings.HasPrefix(arg, "--") {
		flag := root.PersistentFlags().Lookup(name)
		if flag == nil {
			flag = root.Flags().Lookup(name)
		}
		return flag != nil && flag.NoOptDefVal == ""
	}
	if len(name) != 1 {
		return false
	}
	flag := root.PersistentFlags().ShorthandLookup(name)
	return flag != nil && flag.NoOptDefVal == ""
}

func isSubcommandName(root *cobra.Command, name string) bool {
	switch name {
	case "help", "completion":
		return true
	}
	for _, sub := range root.Commands() {
		if sub.Name() == name || sub.HasAlias(name) {
			return true
		}
	}
	return false
}
