// Package main hosts the movconv CLI entrypoint and command graph.
//
// The root command is the one-shot converter invoked by a filesystem trigger
// with four positional arguments. Subcommands run the long-lived watcher,
// inspect the run history, check the encoder setup, and scaffold
// configuration. Configuration and logging are resolved once per invocation
// in commandContext so subcommands only wire internal packages together.
package main
