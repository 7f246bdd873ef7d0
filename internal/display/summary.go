package display

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/harrison/srcflat/internal/history"
	"github.com/harrison/srcflat/internal/logger"
	"github.com/harrison/srcflat/internal/models"
)

const separator = "--------------------"

// Printer writes the run messages of the flatten command
type Printer struct {
	out   io.Writer
	color bool
}

// NewPrinter creates a Printer; color follows the writer's terminal state
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out, color: ColorEnabled(out)}
}

// Searching announces the start of collection
func (p *Printer) Searching() {
	fmt.Fprintln(p.out, "Searching for files...")
}

// Summary prints the outcome of a finished run
func (p *Printer) Summary(report *models.RunReport) {
	if report == nil {
		return
	}

	if len(report.TraversalErrors) > 0 {
		TraversalWarning(report.TraversalErrors).Display(p.out)
	}

	if report.Found == 0 {
		fmt.Fprintln(p.out, "No files found matching your criteria.")
		return
	}

	fmt.Fprintf(p.out, "Found %d files to process.\n", report.Found)

	folder := filepath.Base(report.OutputDir)
	if report.DryRun {
		fmt.Fprintf(p.out, "Dry run: %d files would be written to folder '%s':\n", report.Found, folder)
		for _, f := range report.Files {
			fmt.Fprintf(p.out, "  %s\n", f.RelPath)
		}
		return
	}

	if report.Stats != nil {
		for _, f := range report.Stats.Failures {
			paint(p.color, color.FgRed).Fprintf(p.out, "Error processing file %s: %v\n", f.Path, f.Err)
		}
	}

	fmt.Fprintln(p.out, separator)
	paint(p.color, color.FgGreen).Fprintf(p.out, "Done. Processed and saved %d files to folder '%s'.\n", report.Processed(), folder)
	if n := report.Collisions(); n > 0 {
		fmt.Fprintf(p.out, "Resolved %d file name conflict(s) by adding (n).\n", n)
	}
}

// History prints recent runs as an aligned table
func (p *Printer) History(runs []history.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(p.out, "No runs recorded yet.")
		return
	}

	header := fmt.Sprintf("%-8s  %-19s  %6s  %9s  %10s  %8s  %8s", "RUN", "STARTED", "FOUND", "PROCESSED", "COLLISIONS", "FAILURES", "DURATION")
	paint(p.color, color.Bold).Fprintln(p.out, header)
	fmt.Fprintln(p.out, strings.Repeat("-", len(header)))

	for _, r := range runs {
		processed := fmt.Sprintf("%d", r.Processed)
		if r.DryRun {
			processed = "dry-run"
		}
		line := fmt.Sprintf("%-8s  %-19s  %6d  %9s  %10d  %8d  %8s",
			logger.ShortID(r.ID),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Found,
			processed,
			r.Collisions,
			r.Failures,
			r.Duration.Round(time.Millisecond).String(),
		)
		if r.Failures > 0 {
			paint(p.color, color.FgYellow).Fprintln(p.out, line)
			continue
		}
		fmt.Fprintln(p.out, line)
	}
}
