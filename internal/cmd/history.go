package cmd

import (
	"fmt"
	"os"

	"github.com/harrison/srcflat/internal/config"
	"github.com/harrison/srcflat/internal/display"
	"github.com/harrison/srcflat/internal/history"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs",
		Long: `Show the most recent runs recorded in the history database
(default: <root>/.srcflat/history.db).`,
		Args: cobra.NoArgs,
		RunE: historyCommand,
	}

	cmd.Flags().String("root", "", "Project root (default: current directory)")
	cmd.Flags().String("config", "", "Path to config file (default: <root>/.srcflat/config.yaml)")
	cmd.Flags().Int("limit", 10, "Maximum number of runs to show")
	cmd.Flags().Bool("all", false, "Show runs of every root recorded in the database")

	return cmd
}

func historyCommand(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	if limit < 1 {
		return fmt.Errorf("--limit must be at least 1, got %d", limit)
	}

	root, cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	printer := display.NewPrinter(cmd.OutOrStdout())

	dbPath := config.ResolvePath(root, cfg.History.DBPath)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		printer.History(nil)
		return nil
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	filter := root
	if all, _ := cmd.Flags().GetBool("all"); all {
		filter = ""
	}

	runs, err := store.Recent(cmd.Context(), filter, limit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	printer.History(runs)
	return nil
}
