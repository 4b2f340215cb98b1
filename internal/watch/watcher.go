// SPDX-License-Identifier: MPL-2.0

// Package watch recompiles on filesystem changes.
//
// A Watcher observes a directory tree and invokes a callback once the tree has
// been quiet for the debounce period. Events inside the window are coalesced,
// so an editor's write-then-rename produces one callback with both paths.
package watch

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when Config.Debounce is not positive.
const DefaultDebounce = 500 * time.Millisecond

var (
	// StylesheetPatterns select the sources the stylesheet compiler depends on.
	StylesheetPatterns = []string{"**/*.scss", "**/*.sass", "**/*.css"}

	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("watch: Run called more than once")

	errEventsClosed = errors.New("watch: fsnotify event channel closed")
	errErrorsClosed = errors.New("watch: fsnotify error channel closed")

	// defaultIgnores never trigger callbacks and are never descended into.
	defaultIgnores = []string{
		"**/.git/**",
		"**/.sass-cache/**",
		"**/node_modules/**",
		"**/*.swp",
		"**/*~",
		"**/.DS_Store",
	}
)

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// BaseDir is the root directory to watch. Empty means the working directory.
		BaseDir string
		// Patterns are doublestar globs relative to BaseDir selecting the files
		// that trigger callbacks. Empty matches every non-ignored file.
		Patterns []string
		// Ignore adds globs to the built-in ignore list.
		Ignore []string
		// Debounce is the quiet period after the last event before OnChange fires.
		Debounce time.Duration
		// OnChange receives the changed paths relative to BaseDir, slash
		// separated, deduplicated and sorted. A returned error is logged and
		// watching continues.
		OnChange func(ctx context.Context, changed []string) error
		// Logger receives watcher diagnostics. Nil discards them.
		Logger *log.Logger
	}

	// Watcher monitors a directory tree. Run may be called once.
	Watcher struct {
		cfg      Config
		baseDir  string
		ignores  []string
		debounce time.Duration
		logger   *log.Logger
		fsw      *fsnotify.Watcher
		started  atomic.Bool
	}
)

// New validates cfg and registers every non-ignored directory under BaseDir.
func New(cfg Config) (*Watcher, error) {
	for _, set := range []struct {
		label    string
		patterns []string
	}{{"watch", cfg.Patterns}, {"ignore", cfg.Ignore}} {
		for _, pat := range set.patterns {
			if !doublestar.ValidatePattern(pat) {
				return nil, fmt.Errorf("watch: invalid %s pattern %q: %w", set.label, pat, doublestar.ErrBadPattern)
			}
		}
	}

	base := cfg.BaseDir
	if base == "" {
		base = "."
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve base directory: %w", err)
	}

	w := &Watcher{
		cfg:      cfg,
		baseDir:  base,
		ignores:  slices.Concat(defaultIgnores, cfg.Ignore),
		debounce: cmp.Or(max(cfg.Debounce, 0), DefaultDebounce),
		logger:   cfg.Logger,
	}
	if w.logger == nil {
		w.logger = log.New(io.Discard)
	}
	w.logger = w.logger.With("watch", base)

	if w.fsw, err = fsnotify.NewWatcher(); err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}
	if err := w.addTree(); err != nil {
		w.closeFSW()
		return nil, err
	}
	return w, nil
}

// BaseDir returns the absolute watched root.
func (w *Watcher) BaseDir() string { return w.baseDir }

// Run blocks until ctx is cancelled, dispatching debounced callbacks. It
// returns nil on cancellation and an error when the watcher breaks; in both
// cases a callback still running has returned first.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer w.closeFSW()

	batch := newBatcher(w.debounce, w.dispatch)
	defer batch.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errEventsClosed
			}
			// Directories are registered before filtering; their names rarely
			// match a file glob.
			if evt.Has(fsnotify.Create) {
				w.addCreatedDir(evt.Name)
			}
			if rel, ok := w.relevant(evt.Name); ok {
				batch.add(ctx, rel)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errErrorsClosed
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "err", err)
		}
	}
}

func (w *Watcher) dispatch(ctx context.Context, changed []string) {
	w.logger.Debug("change detected", "files", changed)
	if w.cfg.OnChange == nil {
		return
	}
	if err := w.cfg.OnChange(ctx, changed); err != nil {
		w.logger.Error("callback failed", "err", err)
	}
}

// relevant returns the slash-separated relative path of an event that passes
// the ignore list and the patterns.
func (w *Watcher) relevant(name string) (string, bool) {
	rel, err := filepath.Rel(w.baseDir, name)
	if err != nil {
		rel = name
	}
	rel = filepath.ToSlash(rel)
	if w.isIgnored(rel) || !w.matchesPatterns(rel) {
		return "", false
	}
	return rel, true
}

// addTree registers the base directory and every non-ignored directory below
// it. Unreadable subtrees are skipped with a warning.
func (w *Watcher) addTree() error {
	err := filepath.WalkDir(w.baseDir, func(path string, d fs.DirEntry, err error) error {
		switch {
		case err != nil && path == w.baseDir:
			return err
		case err != nil:
			w.logger.Warn("skipping inaccessible path", "path", path, "err", err)
			return nil
		case !d.IsDir():
			return nil
		case path != w.baseDir && w.dirIgnored(path):
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch: walk directory tree: %w", err)
	}
	return nil
}

func (w *Watcher) addCreatedDir(path string) {
	if info, err := os.Stat(path); err != nil || !info.IsDir() || w.dirIgnored(path) {
		return
	}
	if err := w.fsw.Add(path); err != nil {
		w.logger.Warn("add new directory", "path", path, "err", err)
	}
}

// dirIgnored matches a directory both as a path and as a prefix, so that
// "**/.git/**" excludes .git itself.
func (w *Watcher) dirIgnored(path string) bool {
	rel, err := filepath.Rel(w.baseDir, path)
	if err != nil {
		return true
	}
	return w.isIgnored(rel) || w.isIgnored(rel+"/")
}

func (w *Watcher) isIgnored(rel string) bool {
	return matchAny(w.ignores, rel)
}

func (w *Watcher) matchesPatterns(rel string) bool {
	return len(w.cfg.Patterns) == 0 || matchAny(w.cfg.Patterns, rel)
}

func (w *Watcher) closeFSW() {
	if err := w.fsw.Close(); err != nil {
		w.logger.Warn("close fsnotify", "err", err)
	}
}

func matchAny(patterns []string, rel string) bool {
	rel = filepath.ToSlash(rel)
	return slices.ContainsFunc(patterns, func(pat string) bool {
		ok, err := doublestar.Match(pat, rel)
		return err == nil && ok
	})
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}
