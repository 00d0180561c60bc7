package gdlgraph

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	protocol "github.com/tliron/glsp/protocol_3_16"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/jward/gdlgraph/internal/gdl"
	"github.com/jward/gdlgraph/internal/workspace"
)

// ErrUnknownItem is returned for call hierarchy items the engine did not
// produce and cannot interpret.
var ErrUnknownItem = errors.New("gdlgraph: unknown call hierarchy item")

// CallHierarchy answers prepare, outgoing and incoming call queries.
//
// An item is either a whole file (SymbolKindFile) or one macro call site
// (SymbolKindObject). Its detail starts with a bracketed context tag such as
// "[DD]" naming the script type the search scope is computed from.
type CallHierarchy struct {
	e *Engine
}

// Prepare returns the item at pos in path: the macro call whose name
// contains pos, or the whole file.
func (c *CallHierarchy) Prepare(ctx context.Context, path string, pos Position) ([]CallHierarchyItem, error) {
	if err := c.e.checkOpen(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}
	path = filepath.Clean(path)
	doc, err := c.e.loadLive(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}
	snap := doc.Snapshot()

	if call, ok := doc.CallAt(snap.Offset(pos)); ok {
		t := call.ScriptType
		if t == gdl.Root {
			t = fileScriptType(path)
		}
		return []CallHierarchyItem{callItem(path, snap, call, t)}, nil
	}
	return []CallHierarchyItem{fileItem(path, snap, c.e.canonicalName(path), fileScriptType(path))}, nil
}

// PrepareFile returns the whole-file item for path regardless of what is
// under any position.
func (c *CallHierarchy) PrepareFile(ctx context.Context, path string) (CallHierarchyItem, error) {
	if err := c.e.checkOpen(); err != nil {
		return CallHierarchyItem{}, err
	}
	path = filepath.Clean(path)
	doc, err := c.e.loadLive(ctx, path)
	if err != nil {
		return CallHierarchyItem{}, fmt.Errorf("prepare: %w", err)
	}
	return fileItem(path, doc.Snapshot(), c.e.canonicalName(path), fileScriptType(path)), nil
}

// WithSearchContext returns item re-tagged with the script type whose code is
// given, e.g. "DD".
func WithSearchContext(item CallHierarchyItem, code string) (CallHierarchyItem, error) {
	t, ok := gdl.ScriptTypeFromCode(code)
	if !ok || (t != gdl.Root && !t.IsScript()) {
		return item, fmt.Errorf("unknown script context %q", code)
	}
	item.Detail = contextDetail(t)
	return item, nil
}

// Outgoing returns the macro calls made from item.
//
// Under a master context the result is structural: one edge per other script
// type, since the master script is considered called from each of them.
// Otherwise a call site resolves to every library part of that name and a
// whole file to its own part, and every macro call in the script files in
// scope becomes one edge. Open editor buffers are read in place of disk
// files and nothing is cached.
func (c *CallHierarchy) Outgoing(ctx context.Context, item CallHierarchyItem) (_ []OutgoingCall, err error) {
	if err := c.e.checkOpen(); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { observe("outgoing", start, err) }()

	path, err := itemPath(item)
	if err != nil {
		return nil, fmt.Errorf("outgoing calls: %w", err)
	}
	var explicit *gdl.ScriptType
	if t, ok := parseContextTag(item.Detail); ok {
		explicit = &t
	}
	scope := outgoingContext(path, explicit)

	if scope == gdl.Master {
		out := c.masterFanOut(path, item)
		queryEdges.WithLabelValues("outgoing").Add(float64(len(out)))
		return out, nil
	}

	var sources []workspace.ScriptSource
	if item.Kind == protocol.SymbolKindObject {
		name := c.anchorText(ctx, path, item)
		parts, err := c.e.index.PartsByName(name)
		if err != nil {
			return nil, fmt.Errorf("outgoing calls: %w", err)
		}
		for _, p := range parts {
			sources = append(sources, workspace.NewSplit(p, c.e.loadLive))
		}
	} else {
		src, err := c.e.scriptSource(ctx, path, c.e.loadLive)
		if err != nil {
			return nil, fmt.Errorf("outgoing calls: %w", err)
		}
		sources = append(sources, src)
	}

	out := []OutgoingCall{}
	for _, src := range sources {
		for _, t := range scriptsToSearch(scope) {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("outgoing calls: %w", err)
			}
			if !src.Has(t) {
				continue
			}
			s, err := src.Load(ctx, t)
			if err != nil {
				queryFailedUnits.WithLabelValues("outgoing").Inc()
				c.e.logger.Debug("outgoing: skip script", zap.String("path", src.Path(t)), zap.Error(err))
				continue
			}
			snap := s.Doc.Snapshot()
			for _, call := range s.Calls() {
				to := callItem(s.Path, snap, call, scope)
				out = append(out, OutgoingCall{To: to, FromRanges: []Range{to.SelectionRange}})
			}
		}
	}
	queryEdges.WithLabelValues("outgoing").Add(float64(len(out)))
	return out, nil
}

// masterFanOut synthesizes one edge per non-master script type, each tagged
// with that type's context. The edge points at the part's file for the type
// when it exists and at the anchor's own file otherwise.
func (c *CallHierarchy) masterFanOut(path string, item CallHierarchyItem) []OutgoingCall {
	part, err := c.e.index.PartForFile(path)
	if err != nil {
		c.e.logger.Debug("outgoing: part lookup", zap.String("path", path), zap.Error(err))
	}
	out := make([]OutgoingCall, 0, len(gdl.Scripts())-1)
	for _, t := range gdl.Scripts() {
		if t == gdl.Master {
			continue
		}
		to := item
		to.Detail = contextDetail(t)
		if part != nil && part.HasScript(t) && part.ScriptPath(t) != path {
			to.URI = PathToURI(part.ScriptPath(t))
			to.Kind = protocol.SymbolKindFile
			to.Range = Range{}
			to.SelectionRange = Range{}
		}
		out = append(out, OutgoingCall{To: to, FromRanges: []Range{item.SelectionRange}})
	}
	return out
}

// partCalls is the incoming edges found in one library part.
type partCalls struct {
	part  *LibraryPart
	calls []IncomingCall
}

// Incoming returns the files whose scripts call the macro named by item: the
// canonical name of a whole-file item or the selected text of a call site.
//
// Every indexed library part is searched concurrently. Script files are read
// from disk through the macro-call cache, never from editor buffers. A part
// that fails is dropped from the result; only cancellation fails the query.
// Each matching file yields one edge carrying every matching call range, and
// edges are ordered by library part name.
func (c *CallHierarchy) Incoming(ctx context.Context, item CallHierarchyItem) (_ []IncomingCall, err error) {
	if err := c.e.checkOpen(); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { observe("incoming", start, err) }()

	path, err := itemPath(item)
	if err != nil {
		return nil, fmt.Errorf("incoming calls: %w", err)
	}
	derived, ok := parseContextTag(item.Detail)
	if !ok {
		derived = outgoingContext(path, nil)
	}
	scope := scriptsToSearch(incomingContext(path, derived))

	var target string
	if item.Kind == protocol.SymbolKindFile {
		target = c.e.canonicalName(path)
	} else {
		target = c.anchorText(ctx, path, item)
	}
	if target == "" {
		return []IncomingCall{}, nil
	}

	found, failed, err := settle(ctx, c.e.concurrency, c.e.index.Parts(),
		func(ctx context.Context, p *LibraryPart) (partCalls, error) {
			calls, err := c.searchPart(ctx, p, scope, target)
			return partCalls{part: p, calls: calls}, err
		})
	if err != nil {
		return nil, fmt.Errorf("incoming calls: %w", err)
	}
	for _, ferr := range failed {
		queryFailedUnits.WithLabelValues("incoming").Inc()
		c.e.logger.Debug("incoming: part dropped", zap.Error(ferr))
	}

	col := collate.New(language.Und, collate.IgnoreDiacritics, collate.IgnoreCase, collate.Numeric)
	sort.SliceStable(found, func(i, j int) bool {
		if d := col.CompareString(found[i].part.Name, found[j].part.Name); d != 0 {
			return d < 0
		}
		return found[i].part.Root < found[j].part.Root
	})

	out := []IncomingCall{}
	for _, f := range found {
		out = append(out, f.calls...)
	}
	queryEdges.WithLabelValues("incoming").Add(float64(len(out)))
	c.e.logger.Debug("incoming calls",
		zap.String("target", target),
		zap.Int("parts", len(found)+len(failed)),
		zap.Int("edges", len(out)),
		zap.Duration("took", time.Since(start)))
	return out, nil
}

// searchPart collects the calls to target in the scripts of part that are in
// scope. Missing script files are skipped.
func (c *CallHierarchy) searchPart(ctx context.Context, part *LibraryPart, scope []gdl.ScriptType, target string) ([]IncomingCall, error) {
	fold := cases.Fold()
	want := fold.String(target)
	src := workspace.NewSplit(part, c.e.calls.Get)

	var out []IncomingCall
	for _, t := range scope {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !src.Has(t) {
			continue
		}
		s, err := src.Load(ctx, t)
		if errors.Is(err, workspace.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		snap := s.Doc.Snapshot()
		var ranges []Range
		for _, call := range s.Calls() {
			if fold.String(call.Name) == want {
				ranges = append(ranges, gdl.Resolve(call.Token, snap))
			}
		}
		if len(ranges) == 0 {
			continue
		}
		from := fileItem(s.Path, snap, part.Name, t)
		from.SelectionRange = ranges[0]
		out = append(out, IncomingCall{From: from, FromRanges: ranges})
	}
	return out, nil
}

// anchorText is the text under the selection of a call-site item in the
// current document, falling back to the item name.
func (c *CallHierarchy) anchorText(ctx context.Context, path string, item CallHierarchyItem) string {
	if doc, err := c.e.loadLive(ctx, path); err == nil {
		if text := strings.Trim(doc.Snapshot().Slice(item.SelectionRange), `"' `); text != "" {
			return text
		}
	}
	return item.Name
}

// canonicalName is the macro name other scripts use to call the file at
// path: its library part name, or the file stem for files outside any part.
func (e *Engine) canonicalName(path string) string {
	if part, err := e.index.PartForFile(path); err == nil && part != nil {
		return part.Name
	}
	dir := filepath.Dir(path)
	if strings.EqualFold(filepath.Base(dir), "scripts") {
		return filepath.Base(filepath.Dir(dir))
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func itemPath(item CallHierarchyItem) (string, error) {
	switch item.Kind {
	case protocol.SymbolKindFile, protocol.SymbolKindObject:
	default:
		return "", fmt.Errorf("kind %d: %w", item.Kind, ErrUnknownItem)
	}
	path, err := URIToPath(item.URI)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnknownItem, err)
	}
	return path, nil
}

// fileItem is the whole-file item for path searched under t.
func fileItem(path string, snap *gdl.Snapshot, name string, t gdl.ScriptType) CallHierarchyItem {
	return CallHierarchyItem{
		Name:           name,
		Kind:           protocol.SymbolKindFile,
		Detail:         contextDetail(t),
		URI:            PathToURI(path),
		Range:          snap.Range(0, len(snap.Text())),
		SelectionRange: snap.Range(0, 0),
	}
}

// callItem is the call-site item for call searched under t.
func callItem(path string, snap *gdl.Snapshot, call gdl.MacroCall, t gdl.ScriptType) CallHierarchyItem {
	r := gdl.Resolve(call.Token, snap)
	return CallHierarchyItem{
		Name:           call.Name,
		Kind:           protocol.SymbolKindObject,
		Detail:         contextDetail(t),
		URI:            PathToURI(path),
		Range:          r,
		SelectionRange: r,
	}
}

func observe(direction string, start time.Time, err error) {
	if err != nil {
		return
	}
	queryDuration.WithLabelValues(direction).Observe(time.Since(start).Seconds())
}
