// Package display renders srcflat's user-facing terminal output: the run
// summary, per-file failure warnings, and the progress bar.
//
// Every printer takes an io.Writer. Color is applied only when the writer is
// a terminal and NO_COLOR is not set:
//
//	p := display.NewPrinter(os.Stdout)
//	p.Searching()
//	p.Summary(report)
//
// Warnings group related problems under one title:
//
//	display.TraversalWarning(report.TraversalErrors).Display(os.Stderr)
package display
