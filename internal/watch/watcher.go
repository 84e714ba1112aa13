// Package watch reruns script files when they change on disk.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Handler is called with the script files that settled after a change
type Handler func(ctx context.Context, changed []string)

// Watcher watches directory trees for script file changes. Bursts of events on
// the same file are debounced into a single notification.
type Watcher struct {
	watcher  *fsnotify.Watcher
	suffix   string
	skipDirs map[string]bool
	debounce time.Duration
	pending  map[string]time.Time
	handler  Handler
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a Watcher for files ending in suffix
func New(suffix string, skipDirs []string, debounce time.Duration, handler Handler, logger *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	skip := make(map[string]bool, len(skipDirs))
	for _, dir := range skipDirs {
		skip[dir] = true
	}

	return &Watcher{
		watcher:  fsw,
		suffix:   suffix,
		skipDirs: skip,
		debounce: debounce,
		pending:  make(map[string]time.Time),
		handler:  handler,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Add watches root and every directory below it that is not skipped
func (w *Watcher) Add(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		w.logger.Debug("watching directory", zap.String("path", path))
		return nil
	})
}

// Run dispatches changes until ctx is cancelled, then releases the watcher
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	ticker := time.NewTicker(w.tick())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", zap.Error(err))

		case <-ticker.C:
			if changed := w.due(); len(changed) > 0 {
				w.handler(ctx, changed)
			}
		}
	}
}

func (w *Watcher) tick() time.Duration {
	tick := w.debounce / 3
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	return tick
}

func (w *Watcher) skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || w.skipDirs[name]
}

// handleEvent records script writes and starts watching new directories
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.skipDir(info.Name()) {
				if err := w.Add(event.Name); err != nil {
					w.logger.Warn("cannot watch new directory", zap.String("path", event.Name), zap.Error(err))
				}
			}
			return
		}
	}

	if !strings.HasSuffix(event.Name, w.suffix) {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	w.logger.Debug("script changed", zap.String("file", event.Name), zap.String("op", event.Op.String()))
	w.pending[event.Name] = w.now()
}

// due returns files whose last event is older than the debounce interval and
// still exist
func (w *Watcher) due() []string {
	now := w.now()

	var changed []string
	for file, last := range w.pending {
		if now.Sub(last) < w.debounce {
			continue
		}
		delete(w.pending, file)
		if _, err := os.Stat(file); err != nil {
			continue
		}
		changed = append(changed, file)
	}

	sort.Strings(changed)
	return changed
}
