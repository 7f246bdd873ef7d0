// Package runner performs one complete srcflat run: lock the project,
// collect its source files, flatten them, and record the outcome.
package runner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/harrison/srcflat/internal/collector"
	"github.com/harrison/srcflat/internal/config"
	"github.com/harrison/srcflat/internal/filelock"
	"github.com/harrison/srcflat/internal/flatten"
	"github.com/harrison/srcflat/internal/logger"
	"github.com/harrison/srcflat/internal/models"
)

// ErrRunInProgress is returned when another process holds the project's run lock
var ErrRunInProgress = errors.New("another srcflat run is in progress for this root")

// Recorder stores finished runs. *history.Store implements it.
type Recorder interface {
	Record(ctx context.Context, report *models.RunReport) error
}

// ProgressFunc is called after each flattened file
type ProgressFunc func(done, total int, entry models.OutputEntry, err error)

// Options configures a Runner
type Options struct {
	// Root is the directory to scan; it must be absolute
	Root string
	// Config supplies the tables and output folder name
	Config *config.Config
	// DryRun stops after collection without touching the output directory
	DryRun bool
	// Logger receives run events (optional)
	Logger logger.Logger
	// History records each finished run (optional)
	History Recorder
	// Progress is called after each file (optional)
	Progress ProgressFunc
	// FileSystem overrides directory listing for the collector (optional)
	FileSystem collector.FileSystem
}

// Runner executes runs for a single root. Runs never overlap within a process
// because Run is synchronous; the file lock guards against other processes.
type Runner struct {
	root      string
	outputDir string
	rules     *config.Rules
	opts      Options
}

// New validates opts and builds the matching rules once
func New(opts Options) (*Runner, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("runner: nil config")
	}
	if !filepath.IsAbs(opts.Root) {
		return nil, fmt.Errorf("runner: root must be absolute, got %q", opts.Root)
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}

	return &Runner{
		root:      filepath.Clean(opts.Root),
		outputDir: filepath.Join(opts.Root, opts.Config.OutputDir),
		rules:     opts.Config.Rules(),
		opts:      opts,
	}, nil
}

// Root returns the scanned root directory
func (r *Runner) Root() string {
	return r.root
}

// OutputDir returns the absolute output directory
func (r *Runner) OutputDir() string {
	return r.outputDir
}

// Rules returns the matching rules used by every run
func (r *Runner) Rules() *config.Rules {
	return r.rules
}

// Run performs one collect-and-flatten pass.
//
// When nothing is collected the output directory is left untouched. Per-file
// failures are reported in the returned report; only a held lock, an
// unreadable root, or an output directory that cannot be reset fail the run.
func (r *Runner) Run(ctx context.Context) (*models.RunReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !r.opts.DryRun {
		lock := filelock.NewFileLock(config.LockPath(r.root))
		acquired, err := lock.TryLock()
		if err != nil {
			return nil, err
		}
		if !acquired {
			return nil, ErrRunInProgress
		}
		defer lock.Unlock()
	}

	report := &models.RunReport{
		RunID:     uuid.NewString(),
		Root:      r.root,
		OutputDir: r.outputDir,
		DryRun:    r.opts.DryRun,
		StartedAt: time.Now(),
	}
	r.logRunStart(report)

	var opts []collector.Option
	if r.opts.FileSystem != nil {
		opts = append(opts, collector.WithFileSystem(r.opts.FileSystem))
	}
	result, err := collector.New(r.rules, opts...).Collect(r.root)
	if err != nil {
		r.logError(fmt.Sprintf("Collection failed: %v", err))
		return nil, err
	}

	report.Files = result.Files
	report.Found = len(result.Files)
	report.TraversalErrors = result.Errors
	for _, travErr := range result.Errors {
		r.logWarn(fmt.Sprintf("Skipped directory: %v", travErr))
	}
	r.logInfo(fmt.Sprintf("Found %d files to process", report.Found))

	if r.opts.DryRun || report.Found == 0 {
		r.finish(ctx, report)
		return report, nil
	}

	flattenOpts := []flatten.Option{}
	if r.opts.Logger != nil {
		flattenOpts = append(flattenOpts, flatten.WithLogger(r.opts.Logger))
	}
	if r.opts.Progress != nil {
		done := 0
		total := report.Found
		progress := r.opts.Progress
		flattenOpts = append(flattenOpts, flatten.WithProgress(func(entry models.OutputEntry, err error) {
			done++
			progress(done, total, entry, err)
		}))
	}

	stats, err := flatten.New(flattenOpts...).Flatten(report.Files, r.outputDir, r.root, r.rules)
	if err != nil {
		r.logError(fmt.Sprintf("Flatten failed: %v", err))
		return nil, err
	}
	report.Stats = stats

	r.finish(ctx, report)
	return report, nil
}

func (r *Runner) finish(ctx context.Context, report *models.RunReport) {
	report.Duration = time.Since(report.StartedAt)

	if r.opts.Logger != nil {
		r.opts.Logger.LogRunComplete(report)
	}

	if r.opts.History != nil {
		if err := r.opts.History.Record(ctx, report); err != nil {
			r.logWarn(fmt.Sprintf("Failed to record run history: %v", err))
		}
	}
}

func (r *Runner) logRunStart(report *models.RunReport) {
	if r.opts.Logger != nil {
		r.opts.Logger.LogRunStart(report.RunID, report.Root)
	}
}

func (r *Runner) logInfo(message string) {
	if r.opts.Logger != nil {
		r.opts.Logger.LogInfo(message)
	}
}

func (r *Runner) logWarn(message string) {
	if r.opts.Logger != nil {
		r.opts.Logger.LogWarn(message)
	}
}

func (r *Runner) logError(message string) {
	if r.opts.Logger != nil {
		r.opts.Logger.LogError(message)
	}
}
