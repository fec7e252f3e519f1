// Package watch reports Python files that change under a directory.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/panbanda/bugsight/internal/scanner"
	"github.com/panbanda/bugsight/pkg/config"
)

// DefaultDebounce is how long a file must be quiet before it is reported.
const DefaultDebounce = 500 * time.Millisecond

// ChangeFunc receives a batch of changed files, sorted, as absolute paths.
type ChangeFunc func(ctx context.Context, files []string)

// Watcher monitors a directory tree and batches changes to Python files.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	config    *config.Config
	scanner   *scanner.Scanner
	root      string
	debounce  time.Duration
	logger    *slog.Logger

	mu      sync.Mutex
	pending map[string]time.Time
}

// NewWatcher creates a watcher for root. A debounce of zero or less uses
// DefaultDebounce.
func NewWatcher(root string, cfg *config.Config, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		config:    cfg,
		scanner:   scanner.NewScanner(cfg),
		root:      abs,
		debounce:  debounce,
		logger:    logger,
		pending:   make(map[string]time.Time),
	}, nil
}

// Run watches until ctx is done, calling onChange from the watching
// goroutine for every batch of settled files.
func (w *Watcher) Run(ctx context.Context, onChange ChangeFunc) error {
	if err := w.addTree(w.root); err != nil {
		return err
	}
	w.logger.Debug("watching", "root", w.root, "dirs", len(w.fsWatcher.WatchList()))

	ticker := time.NewTicker(w.debounce / 5)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event, time.Now())

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case now := <-ticker.C:
			if ready := w.takeReady(now); len(ready) > 0 {
				onChange(ctx, ready)
			}
		}
	}
}

// addTree watches dir and every directory below it that is not excluded.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && slices.Contains(w.config.Exclude.Dirs, d.Name()) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

// handleEvent records writes and creates of relevant files. New
// directories are watched as they appear.
func (w *Watcher) handleEvent(event fsnotify.Event, now time.Time) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("watch directory", "path", event.Name, "error", err)
			}
			return
		}
	}

	if !w.relevant(event.Name) {
		return
	}

	w.mu.Lock()
	w.pending[event.Name] = now
	w.mu.Unlock()
}

// relevant applies the same exclusions as a project scan.
func (w *Watcher) relevant(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	return len(w.scanner.FilterPaths([]string{filepath.ToSlash(rel)})) == 1
}

// takeReady removes and returns files that have been quiet for the debounce
// period.
func (w *Watcher) takeReady(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var ready []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.debounce {
			ready = append(ready, path)
		}
	}
	for _, path := range ready {
		delete(w.pending, path)
	}
	sort.Strings(ready)
	return ready
}

// Root returns the absolute watched directory.
func (w *Watcher) Root() string {
	return w.root
}

// WatchedDirs returns the directories currently being watched.
func (w *Watcher) WatchedDirs() []string {
	return w.fsWatcher.WatchList()
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}
