package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/harrison/srcflat/internal/config"
	"github.com/harrison/srcflat/internal/display"
	"github.com/harrison/srcflat/internal/history"
	"github.com/harrison/srcflat/internal/logger"
	"github.com/harrison/srcflat/internal/models"
	"github.com/harrison/srcflat/internal/runner"
	"github.com/spf13/cobra"
)

// consoleDefaultLevel keeps the console quiet unless --log-level is given;
// the printer already reports progress and failures.
const consoleDefaultLevel = "error"

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Collect and flatten the project's source files",
		Long: `Collect every matching source file under the root and write a flat copy of
each into the output folder (default: gpt_project), which is removed and
recreated on every run.

Examples:
  srcflat run                      # Flatten the current directory
  srcflat run --root ../service    # Flatten another project
  srcflat run -w                   # Only collect whitelisted files
  srcflat run --dry-run            # List what would be written
  srcflat run --output bundle      # Write to <root>/bundle instead`,
		Args: cobra.NoArgs,
		RunE: runCommand,
	}

	addRunFlags(cmd)

	return cmd
}

// addRunFlags registers the flags shared by run, watch and the root command
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("root", "", "Project root to scan (default: current directory)")
	cmd.Flags().BoolP("whitelist", "w", false, "Only collect files listed in whitelist_files")
	cmd.Flags().String("output", "", "Output folder name under the root (default: gpt_project)")
	cmd.Flags().String("config", "", "Path to config file (default: <root>/.srcflat/config.yaml)")
	cmd.Flags().Bool("dry-run", false, "List the files that would be flattened without writing them")
	cmd.Flags().String("log-level", "", "Log level: trace, debug, info, warn, error")
	cmd.Flags().Bool("no-history", false, "Do not record this run in the history database")
}

// session holds everything a run needs; Close releases the log file and database
type session struct {
	root    string
	cfg     *config.Config
	dryRun  bool
	console *logger.ConsoleLogger
	fileLog *logger.FileLogger
	store   *history.Store
	runner  *runner.Runner
}

func (s *session) Close() {
	if s.store != nil {
		s.store.Close()
	}
	if s.fileLog != nil {
		s.fileLog.Close()
	}
}

// loadConfig resolves the root and loads the merged, validated configuration
func loadConfig(cmd *cobra.Command) (string, *config.Config, error) {
	rootFlag, _ := cmd.Flags().GetString("root")
	root, err := config.ResolveRoot(rootFlag)
	if err != nil {
		return "", nil, err
	}

	configPath, _ := cmd.Flags().GetString("config")
	var cfg *config.Config
	if configPath != "" {
		if _, statErr := os.Stat(configPath); statErr != nil {
			return "", nil, fmt.Errorf("failed to load config from %s: %w", configPath, statErr)
		}
		cfg, err = config.LoadConfig(configPath)
	} else {
		cfg, err = config.LoadConfigFromDir(root)
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ApplyEnv(root); err != nil {
		return "", nil, err
	}

	var outputPtr *string
	if cmd.Flags().Changed("output") {
		output, _ := cmd.Flags().GetString("output")
		outputPtr = &output
	}

	var whitelistPtr *bool
	if cmd.Flags().Changed("whitelist") {
		whitelist, _ := cmd.Flags().GetBool("whitelist")
		whitelistPtr = &whitelist
	}

	var logLevelPtr *string
	if cmd.Flags().Changed("log-level") {
		logLevel, _ := cmd.Flags().GetString("log-level")
		logLevelPtr = &logLevel
	}

	var historyPtr *bool
	if noHistory, _ := cmd.Flags().GetBool("no-history"); noHistory {
		enabled := false
		historyPtr = &enabled
	}

	cfg.MergeWithFlags(outputPtr, whitelistPtr, logLevelPtr, historyPtr)

	if err := cfg.Validate(); err != nil {
		return "", nil, err
	}

	return root, cfg, nil
}

// newSession builds the loggers, history store and runner for one command
func newSession(cmd *cobra.Command, progress runner.ProgressFunc) (*session, error) {
	root, cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	s := &session{root: root, cfg: cfg, dryRun: dryRun}

	consoleLevel := consoleDefaultLevel
	if cmd.Flags().Changed("log-level") {
		consoleLevel = cfg.LogLevel
	}
	s.console = logger.NewConsoleLogger(cmd.ErrOrStderr(), consoleLevel)
	loggers := []logger.Logger{s.console}

	// Dry runs leave no log file behind
	if !dryRun {
		s.fileLog, err = logger.NewFileLogger(config.ResolvePath(root, cfg.LogDir), cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to create file logger: %w", err)
		}
		loggers = append(loggers, s.fileLog)
	}

	opts := runner.Options{
		Root:     root,
		Config:   cfg,
		DryRun:   dryRun,
		Logger:   logger.NewMultiLogger(loggers...),
		Progress: progress,
	}

	if cfg.History.Enabled {
		store, storeErr := history.NewStore(config.ResolvePath(root, cfg.History.DBPath))
		if storeErr != nil {
			display.Warning{
				Title:   "Run history is unavailable",
				Message: storeErr.Error(),
			}.Display(cmd.ErrOrStderr())
		} else {
			s.store = store
			opts.History = store
		}
	}

	s.runner, err = runner.New(opts)
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// runCommand implements the run command logic
func runCommand(cmd *cobra.Command, args []string) error {
	var bar *display.ProgressWriter
	progress := func(done, total int, _ models.OutputEntry, _ error) {
		if bar == nil {
			bar = display.NewProgressWriter(cmd.ErrOrStderr(), total)
		}
		bar.Step(done)
	}

	s, err := newSession(cmd, progress)
	if err != nil {
		return err
	}
	defer s.Close()

	out := cmd.OutOrStdout()
	printer := display.NewPrinter(out)
	printer.Searching()

	report, err := s.runner.Run(cmd.Context())
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return runError(err)
	}

	printer.Summary(report)
	printLogLocation(out, s, report)
	return nil
}

func printLogLocation(out io.Writer, s *session, report *models.RunReport) {
	if s.fileLog == nil || report.Stats.Failed() == 0 {
		return
	}
	fmt.Fprintf(out, "Details written to: %s\n", s.fileLog.Path())
}

func runError(err error) error {
	if errors.Is(err, runner.ErrRunInProgress) {
		return err
	}
	return fmt.Errorf("run failed: %w", err)
}
