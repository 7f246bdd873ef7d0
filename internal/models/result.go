package models

import "time"

// FileFailure records a source file that could not be flattened.
type FileFailure struct {
	Path string // Absolute path of the source file
	Err  error  // Read or write error
}

// RunStatistics is the outcome of a single flatten pass.
type RunStatistics struct {
	Processed  int           // Files successfully written
	Collisions int           // Distinct base names that needed a (n) suffix
	Failures   []FileFailure // Files that could not be read or written
	Entries    []string      // Output names in the order they were assigned
}

// Failed returns the number of files that were not written.
func (s *RunStatistics) Failed() int {
	if s == nil {
		return 0
	}
	return len(s.Failures)
}

// RunReport is the aggregate result of one collect-and-flatten run
type RunReport struct {
	RunID           string         // Unique id of the run
	Root            string         // Absolute root directory that was scanned
	OutputDir       string         // Absolute output directory
	Found           int            // Files returned by the collector
	Files           []SourceFile   // Collected files, in collector order
	Stats           *RunStatistics // Nil when nothing was flattened (dry run, empty tree)
	TraversalErrors []error        // Subdirectories that could not be listed
	DryRun          bool           // True when only collection ran
	StartedAt       time.Time      // Wall-clock start
	Duration        time.Duration  // Total run time
}

// Processed returns the number of files written, or zero if nothing was flattened.
func (r *RunReport) Processed() int {
	if r == nil || r.Stats == nil {
		return 0
	}
	return r.Stats.Processed
}

// Collisions returns the number of distinct collisions resolved.
func (r *RunReport) Collisions() int {
	if r == nil || r.Stats == nil {
		return 0
	}
	return r.Stats.Collisions
}
