package collector

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/harrison/srcflat/internal/config"
	"github.com/harrison/srcflat/internal/models"
)

// FileSystem abstracts directory listing so tests can observe traversal.
type FileSystem interface {
	ReadDir(name string) ([]fs.DirEntry, error)
}

// OSFileSystem implements FileSystem using the local OS filesystem.
type OSFileSystem struct{}

// ReadDir lists name in filename order.
func (OSFileSystem) ReadDir(name string) ([]fs.DirEntry, error) {
	return os.ReadDir(name)
}

// Result contains the results of a collection pass
type Result struct {
	// Files contains the selected files in traversal order
	Files []models.SourceFile
	// Errors contains subdirectories that could not be listed; their subtrees were skipped
	Errors []error
}

// Collector walks a root directory and selects files according to Rules
type Collector struct {
	fs    FileSystem
	rules *config.Rules
}

// Option configures a Collector
type Option func(*Collector)

// WithFileSystem replaces the filesystem used for directory listings
func WithFileSystem(fsys FileSystem) Option {
	return func(c *Collector) {
		c.fs = fsys
	}
}

// New creates a Collector for rules
func New(rules *config.Rules, opts ...Option) *Collector {
	c := &Collector{
		fs:    OSFileSystem{},
		rules: rules,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect walks root with the OS filesystem. See Collector.Collect.
func Collect(root string, rules *config.Rules) (*Result, error) {
	return New(rules).Collect(root)
}

// Collect walks root top-down and returns the selected files.
//
// Within a directory, its files come first in listing order, then each
// surviving subdirectory in listing order. Blacklisted subdirectories are
// pruned before they are listed. An unreadable root is fatal; an unreadable
// subdirectory is recorded in Result.Errors and skipped.
func (c *Collector) Collect(root string) (*Result, error) {
	if c.rules == nil {
		return nil, fmt.Errorf("collector: nil rules")
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", root, err)
	}

	result := &Result{
		Files:  make([]models.SourceFile, 0),
		Errors: make([]error, 0),
	}

	if err := c.walk(absRoot, "", result); err != nil {
		return nil, err
	}

	return result, nil
}

// walk lists dir (rel is its root-relative, slash-separated path; "" for the root)
func (c *Collector) walk(dir, rel string, result *Result) error {
	entries, err := c.fs.ReadDir(dir)
	if err != nil {
		return &TraversalError{Path: dir, Err: err}
	}

	var subdirs []string
	for _, entry := range entries {
		name := entry.Name()

		if entry.IsDir() {
			if c.rules.IsBlacklistedDir(rel, name) {
				continue
			}
			subdirs = append(subdirs, name)
			continue
		}

		// Sockets, devices and pipes are never source files
		if !entry.Type().IsRegular() && entry.Type()&fs.ModeSymlink == 0 {
			continue
		}

		// Links are neither followed into directories nor collected when they point at one
		if entry.Type()&fs.ModeSymlink != 0 {
			info, err := os.Stat(filepath.Join(dir, name))
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
		}

		if c.rules.IsBlacklistedFile(name) {
			continue
		}

		relPath := path.Join(rel, name)
		if !c.rules.IsWhitelisted(name, relPath) {
			continue
		}

		ext := config.ExtOf(name)
		if !c.rules.AllowsExtension(ext) {
			continue
		}

		result.Files = append(result.Files, models.SourceFile{
			Path:    filepath.Join(dir, name),
			RelPath: relPath,
			Ext:     ext,
		})
	}

	for _, name := range subdirs {
		if err := c.walk(filepath.Join(dir, name), path.Join(rel, name), result); err != nil {
			result.Errors = append(result.Errors, err)
		}
	}

	return nil
}
