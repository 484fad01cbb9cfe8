// Command nodedeps inspects the dependency graph of a node_modules-style
// JS package install: printing a resolved tree, diffing two installs, or
// tracing every path to a given package name.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"nodedeps/internal/dlog"
	"nodedeps/internal/graph"
	"nodedeps/internal/render"
	"nodedeps/internal/root"
)

// globalFlags holds the flags shared by every subcommand (§6: "Shared flag
// --depth N").
type globalFlags struct {
	depth   int
	json    bool
	noColor bool
	verbose bool
}

var flags globalFlags

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "nodedeps",
		Short:         "Inspect a node_modules-style JS package install's dependency graph",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			render.NoColor(flags.noColor)
		},
	}

	cmd.PersistentFlags().IntVar(&flags.depth, "depth", graph.UnboundedDepth, "maximum dependency depth to resolve and render (default unbounded)")
	cmd.PersistentFlags().BoolVar(&flags.json, "json", false, "emit JSON instead of the tree printer")
	cmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "disable colored output")
	cmd.PersistentFlags().BoolVar(&flags.verbose, "verbose", false, "log at debug level instead of warn")

	cmd.AddCommand(newTreeCommand())
	cmd.AddCommand(newDiffCommand())
	cmd.AddCommand(newWhyCommand())
	return cmd
}

// Execute runs the CLI, returning the error that should set a non-zero
// exit code (§6: "Exit code 0 on success; non-zero on any fatal error;
// stderr carries the error chain").
func Execute() error {
	return newRootCommand().Execute()
}

func newLogger() *dlog.Logger {
	level := logrus.WarnLevel
	if flags.verbose {
		level = logrus.DebugLevel
	}
	return dlog.New(os.Stderr, level)
}

func newDispatcher() *root.Dispatcher {
	return root.New(flags.depth, newLogger())
}
