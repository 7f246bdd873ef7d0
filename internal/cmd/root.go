package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for srcflat
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "srcflat",
		Short: "Flatten a project's source files into one folder",
		Long: `srcflat collects the source files of a project tree and copies them into a
single flat output folder, prefixing each copy with a comment that records
its original project path. Name collisions are resolved with a (n) suffix.

Running srcflat without a subcommand is the same as "srcflat run".

Configuration is loaded from <root>/.srcflat/config.yaml if present.
CLI flags override configuration file settings.`,
		Version: Version,
		Args:    cobra.NoArgs,
		RunE:    runCommand,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
		// main prints the error once
		SilenceErrors: true,
	}

	addRunFlags(cmd)

	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewWatchCommand())
	cmd.AddCommand(NewHistoryCommand())
	cmd.AddCommand(NewConfigCommand())

	return cmd
}
