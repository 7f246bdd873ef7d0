// Package watch re-runs the flattening pipeline whenever source files under
// the root change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/harrison/srcflat/internal/config"
	"github.com/harrison/srcflat/internal/logger"
)

// DefaultDebounce is how long events must settle before a run is triggered
const DefaultDebounce = 150 * time.Millisecond

// RunFunc performs one full rebuild
type RunFunc func(ctx context.Context) error

// Option configures a Watcher
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithRunOnStart performs one run as soon as the watch set is in place
func WithRunOnStart() Option {
	return func(w *Watcher) {
		w.runOnStart = true
	}
}

// WithLogger sets the logger for watch events
func WithLogger(l logger.Logger) Option {
	return func(w *Watcher) {
		w.logger = l
	}
}

// Watcher watches every directory the collector would descend into.
// Runs execute on the event loop, so they never overlap.
type Watcher struct {
	root       string
	rules      *config.Rules
	run        RunFunc
	logger     logger.Logger
	debounce   time.Duration
	runOnStart bool

	watched map[string]struct{}
}

// New creates a Watcher for root. The directory is not watched until Run.
func New(root string, rules *config.Rules, run RunFunc, opts ...Option) (*Watcher, error) {
	if rules == nil {
		return nil, errors.New("watch: nil rules")
	}
	if run == nil {
		return nil, errors.New("watch: nil run func")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve root: %w", err)
	}

	w := &Watcher{
		root:     abs,
		rules:    rules,
		run:      run,
		debounce: DefaultDebounce,
		watched:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run blocks until ctx is done or the underlying watcher closes.
// Failed runs are logged and watching continues.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addRecursive(fsw, w.root); err != nil {
		return err
	}
	w.logInfo(fmt.Sprintf("Watching %s (%d directories, debounce %s)", w.root, len(w.watched), w.debounce))

	if w.runOnStart {
		if err := w.trigger(ctx); err != nil {
			return err
		}
	}

	var timer *time.Timer
	defer stopTimer(&timer)

	for {
		var timerC <-chan time.Time
		if timer != nil {
			timerC = timer.C
		}

		select {
		case <-ctx.Done():
			w.logInfo("Stopping watch mode")
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.handleEvent(fsw, event) {
				w.schedule(&timer)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				w.logError(fmt.Sprintf("Watcher error: %v", err))
			}
		case <-timerC:
			timer = nil
			if err := w.trigger(ctx); err != nil {
				return err
			}
		}
	}
}

// trigger runs once and only returns an error when ctx was cancelled
func (w *Watcher) trigger(ctx context.Context) error {
	err := w.run(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	w.logError(fmt.Sprintf("Run failed: %v", err))
	return nil
}

// handleEvent updates the watch set and reports whether a run is needed
func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, event fsnotify.Event) bool {
	p := filepath.Clean(event.Name)
	rel, ok := w.relative(p)
	if !ok {
		return false
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if w.isPruned(rel) {
				return false
			}
			if err := w.addRecursive(fsw, p); err != nil {
				w.logError(fmt.Sprintf("Failed to watch new directory %s: %v", rel, err))
			}
			return true
		}
	}

	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		if _, ok := w.watched[p]; ok {
			// the kernel drops the watch itself; Remove only fails if it already has
			_ = fsw.Remove(p)
			delete(w.watched, p)
			w.logDebug(fmt.Sprintf("Stopped watching %s", rel))
			return true
		}
	}

	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return w.isRelevantFile(rel)
}

// addRecursive watches start and every non-pruned directory below it.
// Unreadable subdirectories are skipped; an unreadable start fails.
func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, start string) error {
	return filepath.WalkDir(start, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			if p == start {
				return fmt.Errorf("watch directory %s: %w", p, err)
			}
			w.logWarn(fmt.Sprintf("Skipping unreadable directory %s: %v", p, err))
			return fs.SkipDir
		}
		if !entry.IsDir() {
			return nil
		}

		clean := filepath.Clean(p)
		rel, ok := w.relative(clean)
		if !ok || w.isPruned(rel) {
			return fs.SkipDir
		}
		if _, seen := w.watched[clean]; seen {
			return nil
		}
		if err := fsw.Add(clean); err != nil {
			return fmt.Errorf("watch directory %s: %w", clean, err)
		}
		w.watched[clean] = struct{}{}
		return nil
	})
}

// isPruned reports whether the collector would skip the directory rel or
// any of its ancestors. The root ("") is never pruned.
func (w *Watcher) isPruned(rel string) bool {
	if rel == "" {
		return false
	}
	parent := ""
	for _, name := range strings.Split(rel, "/") {
		if w.rules.IsBlacklistedDir(parent, name) {
			return true
		}
		parent = path.Join(parent, name)
	}
	return false
}

// isRelevantFile applies the collector's file filters to a changed path
func (w *Watcher) isRelevantFile(rel string) bool {
	dir, name := path.Split(rel)
	if w.isPruned(strings.TrimSuffix(dir, "/")) {
		return false
	}
	if w.rules.IsBlacklistedFile(name) {
		return false
	}
	if !w.rules.IsWhitelisted(name, rel) {
		return false
	}
	return w.rules.AllowsExtension(config.ExtOf(name))
}

// relative returns p relative to the root in slash form; false if p is outside it
func (w *Watcher) relative(p string) (string, bool) {
	rel, err := filepath.Rel(w.root, p)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return "", true
	}
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}

func (w *Watcher) schedule(timer **time.Timer) {
	if *timer == nil {
		*timer = time.NewTimer(w.debounce)
		return
	}
	if !(*timer).Stop() {
		select {
		case <-(*timer).C:
		default:
		}
	}
	(*timer).Reset(w.debounce)
}

func stopTimer(timer **time.Timer) {
	if *timer == nil {
		return
	}
	if !(*timer).Stop() {
		select {
		case <-(*timer).C:
		default:
		}
	}
	*timer = nil
}

func (w *Watcher) logDebug(message string) {
	if w.logger != nil {
		w.logger.LogDebug(message)
	}
}

func (w *Watcher) logInfo(message string) {
	if w.logger != nil {
		w.logger.LogInfo(message)
	}
}

func (w *Watcher) logWarn(message string) {
	if w.logger != nil {
		w.logger.LogWarn(message)
	}
}

func (w *Watcher) logError(message string) {
	if w.logger != nil {
		w.logger.LogError(message)
	}
}
