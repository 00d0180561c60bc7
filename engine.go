package gdlgraph

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/jward/gdlgraph/internal/cache"
	"github.com/jward/gdlgraph/internal/gdl"
	"github.com/jward/gdlgraph/internal/store"
	"github.com/jward/gdlgraph/internal/watch"
	"github.com/jward/gdlgraph/internal/workspace"
)

// ErrClosed is returned by queries on a closed Engine.
var ErrClosed = errors.New("gdlgraph: engine closed")

// DefaultConcurrency bounds the library parts searched at once.
const DefaultConcurrency = 8

// Engine owns the workspace index, the macro-call cache and the open editor
// buffers of one session, and answers call hierarchy queries over them.
type Engine struct {
	fs     workspace.FileSystem
	store  *store.Store
	index  *workspace.Index
	calls  *cache.MacroCalls
	docs   *documents
	logger *zap.Logger

	concurrency int
	marker      string
	gitignore   bool
	exclude     []string

	closed atomic.Bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used by the engine and its index.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithConcurrency bounds how many library parts an incoming-call query
// searches at once.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithMarker overrides the metadata file name that identifies a library part
// directory.
func WithMarker(name string) Option {
	return func(e *Engine) {
		e.marker = name
	}
}

// WithFileSystem replaces the disk access used for discovery and reads.
// WithGitignore and WithExclude have no effect when it is set.
func WithFileSystem(fsys FileSystem) Option {
	return func(e *Engine) {
		e.fs = fsys
	}
}

// WithGitignore controls whether .gitignore files prune discovery. Default true.
func WithGitignore(enabled bool) Option {
	return func(e *Engine) {
		e.gitignore = enabled
	}
}

// WithExclude adds .gitignore-style patterns skipped during discovery.
func WithExclude(patterns ...string) Option {
	return func(e *Engine) {
		e.exclude = append(e.exclude, patterns...)
	}
}

// New creates an Engine over the given workspace roots. The index is empty
// until Refresh is called.
func New(roots []string, opts ...Option) (*Engine, error) {
	s, err := store.NewStore()
	if err != nil {
		return nil, fmt.Errorf("gdlgraph: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("gdlgraph: migrate: %w", err)
	}

	e := &Engine{
		store:       s,
		docs:        newDocuments(),
		logger:      zap.NewNop(),
		concurrency: DefaultConcurrency,
		marker:      workspace.DefaultMarker,
		gitignore:   true,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.fs == nil {
		e.fs = workspace.NewOSFileSystem(
			workspace.WithGitignore(e.gitignore),
			workspace.WithExclude(e.exclude...),
		)
	}

	e.index = workspace.NewIndex(e.fs, s, roots,
		workspace.WithMarker(e.marker),
		workspace.WithLogger(e.logger.Named("index")),
	)
	e.calls = cache.NewMacroCalls(e.loadDisk)
	return e, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	e.calls.Clear()
	return e.store.Close()
}

func (e *Engine) checkOpen() error {
	if e.closed.Load() {
		return ErrClosed
	}
	return nil
}

// Roots returns the workspace roots.
func (e *Engine) Roots() []string {
	return e.index.Roots()
}

// SetRoots replaces the workspace roots. Call Refresh to rescan.
func (e *Engine) SetRoots(roots []string) {
	e.index.SetRoots(roots)
}

// Refresh rediscovers every library part under the workspace roots. Cached
// macro calls are kept; they are invalidated per file by change
// notifications.
func (e *Engine) Refresh(ctx context.Context) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	return e.index.Refresh(ctx)
}

// Parts returns every indexed library part ordered by name.
func (e *Engine) Parts() []*LibraryPart {
	return e.index.Parts()
}

// PartsByRoot returns the indexed parts grouped by workspace root, in root
// order.
func (e *Engine) PartsByRoot() []RootGroup {
	return e.index.PartsByRoot()
}

// Lookup returns the library parts whose name or GUID fuzzily matches query,
// each with the file to open given the active editor file.
func (e *Engine) Lookup(query, activeFile string) []Candidate {
	return e.index.Lookup(query, activeFile)
}

// Parse returns the token model of path, reading an open buffer when there
// is one.
func (e *Engine) Parse(ctx context.Context, path string) (*ParsedDocument, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	doc, err := e.loadLive(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

// Invalidate drops the cached macro calls of path. It reports whether an
// entry was present.
func (e *Engine) Invalidate(path string) bool {
	return e.calls.Invalidate(path)
}

// CacheLen returns the number of files whose macro calls are cached.
func (e *Engine) CacheLen() int {
	return e.calls.Len()
}

// Watch keeps the engine in step with the file system until ctx is done:
// script changes invalidate their cache entries and structural changes
// trigger a refresh after debounce.
func (e *Engine) Watch(ctx context.Context, debounce time.Duration) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	w, err := watch.New(e.Roots(),
		watch.WithLogger(e.logger.Named("watch")),
		watch.WithDebounce(debounce),
		watch.WithMarker(e.marker),
		watch.OnInvalidate(func(path string) {
			if e.calls.Invalidate(path) {
				e.logger.Debug("invalidated macro calls", zap.String("path", path))
			}
		}),
		watch.OnRefresh(e.Refresh),
	)
	if err != nil {
		return fmt.Errorf("gdlgraph: %w", err)
	}
	defer w.Close()
	e.logger.Info("watching workspace", zap.Strings("roots", e.Roots()), zap.Int("dirs", len(w.WatchList())))
	return w.Run(ctx)
}

// CallHierarchy returns the call hierarchy query surface.
func (e *Engine) CallHierarchy() *CallHierarchy {
	return &CallHierarchy{e: e}
}

// scriptSource returns the layout-independent view of the scripts containing
// path: the indexed part when path is one of its split script files, the file
// itself otherwise.
func (e *Engine) scriptSource(ctx context.Context, path string, load workspace.Loader) (workspace.ScriptSource, error) {
	part, err := e.index.PartForFile(path)
	if err != nil {
		return nil, err
	}
	if part != nil {
		if t := fileScriptType(path); t != gdl.Root && part.ScriptPath(t) == path {
			return workspace.NewSplit(part, load), nil
		}
	}
	return workspace.LoadCombined(ctx, path, fileScriptType(path), load)
}
