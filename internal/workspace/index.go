package workspace

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jward/gdlgraph/internal/gdl"
	"github.com/jward/gdlgraph/internal/store"
)

// DefaultMarker is the metadata file found at the root of every split-layout
// library part.
const DefaultMarker = "libpartdata.xml"

var markerGUIDRe = regexp.MustCompile(`<MainGUID>\s*([^<\s]*)\s*</MainGUID>`)

// Index is the set of library parts found under the workspace roots. It is
// fully rebuilt by Refresh and read concurrently by lookups.
type Index struct {
	fs     FileSystem
	store  store.PartStore
	marker string
	logger *zap.Logger

	mu    sync.RWMutex
	roots []string
	parts []*store.LibraryPart
}

// IndexOption configures an Index.
type IndexOption func(*Index)

// WithMarker overrides the marker file name.
func WithMarker(name string) IndexOption {
	return func(ix *Index) {
		if name != "" {
			ix.marker = name
		}
	}
}

// WithLogger sets the index logger.
func WithLogger(l *zap.Logger) IndexOption {
	return func(ix *Index) {
		ix.logger = l
	}
}

// NewIndex creates an empty index over roots. Call Refresh to populate it.
func NewIndex(fsys FileSystem, st store.PartStore, roots []string, opts ...IndexOption) *Index {
	ix := &Index{
		fs:     fsys,
		store:  st,
		marker: DefaultMarker,
		logger: zap.NewNop(),
		roots:  cleanRoots(roots),
		parts:  []*store.LibraryPart{},
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

func cleanRoots(roots []string) []string {
	out := make([]string, 0, len(roots))
	seen := make(map[string]bool)
	for _, r := range roots {
		r = filepath.Clean(r)
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

// Roots returns the workspace roots.
func (ix *Index) Roots() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return append([]string(nil), ix.roots...)
}

// SetRoots replaces the workspace roots. The parts are unchanged until the
// next Refresh.
func (ix *Index) SetRoots(roots []string) {
	ix.mu.Lock()
	ix.roots = cleanRoots(roots)
	ix.mu.Unlock()
}

// Marker returns the marker file name.
func (ix *Index) Marker() string { return ix.marker }

// Refresh rescans every root for marker files and replaces the index. A root
// that cannot be walked is logged and skipped; cancellation aborts the refresh
// and leaves the previous index in place.
func (ix *Index) Refresh(ctx context.Context) (err error) {
	defer func() {
		switch {
		case err == nil:
			indexRefreshTotal.WithLabelValues("ok").Inc()
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			indexRefreshTotal.WithLabelValues("canceled").Inc()
		default:
			indexRefreshTotal.WithLabelValues("error").Inc()
		}
	}()

	start := time.Now()
	byRoot := make(map[string]*store.LibraryPart)
	for _, root := range ix.Roots() {
		markers, err := ix.fs.Glob(ctx, root, "**/"+ix.marker)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fmt.Errorf("refresh index: %w", ctxErr)
			}
			ix.logger.Warn("skip workspace root", zap.String("root", root), zap.Error(err))
			continue
		}
		for _, marker := range markers {
			partRoot := filepath.Dir(marker)
			if _, dup := byRoot[partRoot]; dup {
				continue
			}
			byRoot[partRoot] = ix.discoverPart(ctx, root, marker)
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("refresh index: %w", err)
		}
	}

	parts := make([]*store.LibraryPart, 0, len(byRoot))
	for _, p := range byRoot {
		parts = append(parts, p)
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].Root < parts[j].Root })

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if err := ix.store.ReplaceParts(parts); err != nil {
		return fmt.Errorf("refresh index: %w", err)
	}
	stored, err := ix.store.Parts()
	if err != nil {
		return fmt.Errorf("refresh index: %w", err)
	}
	ix.parts = stored
	indexParts.Set(float64(len(stored)))
	ix.logger.Info("workspace indexed",
		zap.Int("parts", len(stored)),
		zap.Int("roots", len(ix.roots)),
		zap.Duration("took", time.Since(start)))
	return nil
}

// discoverPart builds the record of the part whose marker is at marker. An
// unreadable marker yields an empty GUID.
func (ix *Index) discoverPart(ctx context.Context, workspaceRoot, marker string) *store.LibraryPart {
	partRoot := filepath.Dir(marker)
	p := &store.LibraryPart{
		Root:          partRoot,
		Name:          filepath.Base(partRoot),
		Marker:        marker,
		WorkspaceRoot: workspaceRoot,
		Scripts:       make(map[gdl.ScriptType]string),
	}
	if text, err := ix.fs.ReadFile(ctx, marker); err != nil {
		ix.logger.Debug("read marker", zap.String("path", marker), zap.Error(err))
	} else {
		p.GUID = markerGUID(text)
	}
	for _, t := range gdl.AllScriptTypes() {
		if t == gdl.Root {
			continue
		}
		sp := filepath.Join(partRoot, filepath.FromSlash(t.FileName()))
		if ix.fs.Exists(sp) {
			p.Scripts[t] = sp
		}
	}
	return p
}

// markerGUID returns the first declared GUID exactly as written in the marker.
func markerGUID(text string) string {
	m := markerGUIDRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// Parts returns a snapshot of every indexed part ordered by name.
func (ix *Index) Parts() []*store.LibraryPart {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return append([]*store.LibraryPart(nil), ix.parts...)
}

// PartsByName returns the parts whose display name equals name, ignoring case.
func (ix *Index) PartsByName(name string) ([]*store.LibraryPart, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.store.PartsByName(name)
}

// PartForFile returns the part containing path, or nil.
func (ix *Index) PartForFile(path string) (*store.LibraryPart, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.store.PartContaining(filepath.Clean(path))
}

// RootGroup is the parts found under one workspace root.
type RootGroup struct {
	Root  string
	Parts []*store.LibraryPart
}

// PartsByRoot groups the indexed parts by workspace root, in root order. Every
// root is listed, including roots that hold no parts.
func (ix *Index) PartsByRoot() []RootGroup {
	roots := ix.Roots()
	byRoot := make(map[string][]*store.LibraryPart, len(roots))
	for _, p := range ix.Parts() {
		byRoot[p.WorkspaceRoot] = append(byRoot[p.WorkspaceRoot], p)
	}
	out := make([]RootGroup, 0, len(roots))
	for _, r := range roots {
		out = append(out, RootGroup{Root: r, Parts: byRoot[r]})
	}
	return out
}
