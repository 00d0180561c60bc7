// Package watch keeps the workspace index and macro-call cache in step with
// the file system.
//
// Writes, removals and renames of script files drop that file's cache entry
// immediately. Structural changes (created or removed files and directories,
// rewritten marker files) schedule one debounced index refresh.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period before a structural change triggers a
// refresh.
const DefaultDebounce = 250 * time.Millisecond

// Watcher recursively watches workspace roots.
type Watcher struct {
	fsw      *fsnotify.Watcher
	logger   *zap.Logger
	debounce time.Duration
	marker   string

	invalidate func(path string)
	refresh    func(ctx context.Context) error
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the watcher logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce sets the refresh quiet period. Zero refreshes on the next
// loop iteration.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = max(d, 0) }
}

// WithMarker sets the marker file name whose writes trigger a refresh.
func WithMarker(name string) Option {
	return func(w *Watcher) { w.marker = name }
}

// OnInvalidate sets the callback for changed or deleted script files.
func OnInvalidate(fn func(path string)) Option {
	return func(w *Watcher) { w.invalidate = fn }
}

// OnRefresh sets the callback run after structural changes settle.
func OnRefresh(fn func(ctx context.Context) error) Option {
	return func(w *Watcher) { w.refresh = fn }
}

// New starts watching every directory below roots. Roots that do not exist
// are skipped with a warning.
func New(roots []string, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	w := &Watcher{
		fsw:        fsw,
		logger:     zap.NewNop(),
		debounce:   DefaultDebounce,
		invalidate: func(string) {},
		refresh:    func(context.Context) error { return nil },
	}
	for _, opt := range opts {
		opt(w)
	}
	for _, root := range roots {
		if err := w.addTree(root); err != nil {
			w.logger.Warn("watch root skipped", zap.String("root", root), zap.Error(err))
		}
	}
	return w, nil
}

// Close stops the underlying watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// WatchList returns the directories currently watched.
func (w *Watcher) WatchList() []string {
	return w.fsw.WatchList()
}

// Run dispatches events until ctx is done or the watcher is closed. A
// pending refresh is dropped on exit.
func (w *Watcher) Run(ctx context.Context) error {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.handle(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-fire:
			fire = nil
			start := time.Now()
			if err := w.refresh(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				w.logger.Warn("refresh after change failed", zap.Error(err))
				continue
			}
			w.logger.Debug("refreshed after change", zap.Duration("took", time.Since(start)))
		}
	}
}

// handle applies one event and reports whether it needs a refresh.
func (w *Watcher) handle(ev fsnotify.Event) bool {
	if hidden(ev.Name) {
		return false
	}
	w.logger.Debug("fs event", zap.String("path", ev.Name), zap.Stringer("op", ev.Op))

	if IsScriptFile(ev.Name) && ev.Op.Has(fsnotify.Write|fsnotify.Remove|fsnotify.Rename) {
		w.invalidate(ev.Name)
	}

	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				w.logger.Warn("watch new dir", zap.String("path", ev.Name), zap.Error(err))
			}
		}
		return true
	}
	if ev.Op.Has(fsnotify.Remove | fsnotify.Rename) {
		return true
	}
	return ev.Op.Has(fsnotify.Write) && w.marker != "" && strings.EqualFold(filepath.Base(ev.Name), w.marker)
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && hidden(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// IsScriptFile reports whether path can hold GDL script text: split-layout
// .gdl files and combined-layout .xml files.
func IsScriptFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gdl", ".xml":
		return true
	}
	return false
}

func hidden(path string) bool {
	base := filepath.Base(path)
	return len(base) > 1 && base[0] == '.'
}
