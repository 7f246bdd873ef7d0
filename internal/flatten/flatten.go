// Package flatten copies collected source files into a single flat output
// directory, giving each copy a unique name and a provenance header.
package flatten

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrison/srcflat/internal/config"
	"github.com/harrison/srcflat/internal/filelock"
	"github.com/harrison/srcflat/internal/models"
)

// Logger is the logging surface used by the Flattener
type Logger interface {
	LogDebug(message string)
	LogWarn(message string)
}

// Flattener rebuilds an output directory from a list of source files
type Flattener struct {
	logger    Logger
	readFile  func(path string) ([]byte, error)
	writeFile func(path string, data []byte) error
	onEntry   func(entry models.OutputEntry, err error)
}

// Option configures a Flattener
type Option func(*Flattener)

// WithLogger sets the logger for per-file messages
func WithLogger(l Logger) Option {
	return func(f *Flattener) {
		f.logger = l
	}
}

// WithProgress registers a callback invoked after each file, with the processing error if any
func WithProgress(fn func(entry models.OutputEntry, err error)) Option {
	return func(f *Flattener) {
		f.onEntry = fn
	}
}

// New creates a Flattener that reads with os.ReadFile and writes atomically
func New(opts ...Option) *Flattener {
	f := &Flattener{
		readFile:  os.ReadFile,
		writeFile: filelock.AtomicWrite,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Flatten rebuilds outputDir with the default Flattener. See Flattener.Flatten.
func Flatten(files []models.SourceFile, outputDir, rootDir string, rules *config.Rules) (*models.RunStatistics, error) {
	return New().Flatten(files, outputDir, rootDir, rules)
}

// Flatten removes outputDir, recreates it, and writes one header-annotated
// copy per file in the given order.
//
// Only a failure to reset outputDir is returned as an error, and in that case
// nothing is written. Per-file read or write failures are collected in the
// returned statistics and the remaining files are still processed.
func (f *Flattener) Flatten(files []models.SourceFile, outputDir, rootDir string, rules *config.Rules) (*models.RunStatistics, error) {
	if rules == nil {
		return nil, fmt.Errorf("flatten: nil rules")
	}

	if err := resetOutputDir(outputDir, rootDir); err != nil {
		return nil, err
	}

	names := newNameAllocator()
	stats := &models.RunStatistics{
		Failures: make([]models.FileFailure, 0),
		Entries:  make([]string, 0, len(files)),
	}

	for _, src := range files {
		// The name is reserved before reading so later names do not depend on earlier failures
		entry := models.OutputEntry{
			Name:   names.assign(filepath.Base(src.Path)),
			Source: src,
		}
		stats.Entries = append(stats.Entries, entry.Name)

		err := f.processFile(&entry, outputDir, rootDir, rules)
		if err != nil {
			stats.Failures = append(stats.Failures, models.FileFailure{Path: src.Path, Err: err})
			f.logWarn(fmt.Sprintf("Skipping %s: %v", src.Path, err))
		} else {
			stats.Processed++
			f.logDebug(fmt.Sprintf("Wrote %s -> %s", src.RelPath, entry.Name))
		}

		if f.onEntry != nil {
			f.onEntry(entry, err)
		}
	}

	stats.Collisions = names.collisions
	return stats, nil
}

func (f *Flattener) processFile(entry *models.OutputEntry, outputDir, rootDir string, rules *config.Rules) error {
	data, err := f.readFile(entry.Source.Path)
	if err != nil {
		return &FileProcessingError{Path: entry.Source.Path, Op: "read", Err: err}
	}

	// Invalid UTF-8 sequences are dropped rather than failing the file
	content := strings.ToValidUTF8(string(data), "")
	entry.Content = HeaderFor(entry.Source.Path, rootDir, rules) + "\n\n" + content

	dest := filepath.Join(outputDir, entry.Name)
	if err := f.writeFile(dest, []byte(entry.Content)); err != nil {
		return &FileProcessingError{Path: dest, Op: "write", Err: err}
	}
	return nil
}

// resetOutputDir removes outputDir if present and creates it empty.
// It refuses to remove rootDir or any of its ancestors.
func resetOutputDir(outputDir, rootDir string) error {
	absOut, err := filepath.Abs(outputDir)
	if err != nil {
		return &OutputDirectoryError{Path: outputDir, Op: "validate", Err: err}
	}
	if rootDir != "" {
		absRoot, err := filepath.Abs(rootDir)
		if err != nil {
			return &OutputDirectoryError{Path: outputDir, Op: "validate", Err: err}
		}
		if isAncestorOrSelf(absOut, absRoot) {
			return &OutputDirectoryError{Path: outputDir, Op: "validate", Err: errors.New("output directory contains the root directory")}
		}
	}

	// Any Lstat error other than existence resurfaces from MkdirAll
	if _, err := os.Lstat(absOut); err == nil {
		if err := os.RemoveAll(absOut); err != nil {
			return &OutputDirectoryError{Path: outputDir, Op: "remove", Err: err}
		}
	}

	if err := os.MkdirAll(absOut, 0755); err != nil {
		return &OutputDirectoryError{Path: outputDir, Op: "create", Err: err}
	}
	return nil
}

func isAncestorOrSelf(dir, target string) bool {
	rel, err := filepath.Rel(dir, target)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func (f *Flattener) logDebug(message string) {
	if f.logger != nil {
		f.logger.LogDebug(message)
	}
}

func (f *Flattener) logWarn(message string) {
	if f.logger != nil {
		f.logger.LogWarn(message)
	}
}
