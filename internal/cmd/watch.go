package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/harrison/srcflat/internal/display"
	"github.com/harrison/srcflat/internal/logger"
	"github.com/harrison/srcflat/internal/watch"
	"github.com/spf13/cobra"
)

// NewWatchCommand creates the watch command
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-flatten the project whenever a source file changes",
		Long: `Flatten the project once, then watch every directory the collector would
visit and run again after changes settle. The output folder and .srcflat are
never watched. Press Ctrl+C to stop.`,
		Args: cobra.NoArgs,
		RunE: watchCommand,
	}

	addRunFlags(cmd)

	return cmd
}

func watchCommand(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printer := display.NewPrinter(cmd.OutOrStdout())
	run := func(ctx context.Context) error {
		printer.Searching()
		report, err := s.runner.Run(ctx)
		if err != nil {
			return runError(err)
		}
		printer.Summary(report)
		return nil
	}

	watchLog := logger.NewConsoleLogger(cmd.ErrOrStderr(), s.cfg.LogLevel)
	w, err := watch.New(s.runner.Root(), s.runner.Rules(), run,
		watch.WithRunOnStart(),
		watch.WithLogger(watchLog),
	)
	if err != nil {
		return err
	}

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
