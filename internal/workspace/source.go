package workspace

import (
	"context"
	"fmt"

	"github.com/jward/gdlgraph/internal/gdl"
	"github.com/jward/gdlgraph/internal/store"
)

// Loader returns the parsed document of a file. Implementations decide
// whether the text comes from disk, an editor buffer or a cache.
type Loader func(ctx context.Context, path string) (*gdl.ParsedDocument, error)

// Script is one script payload of a library part, with the document it was
// parsed from.
type Script struct {
	Type gdl.ScriptType
	Path string
	Doc  *gdl.ParsedDocument
	// whole is set when the entire document is the payload of Type.
	whole bool
}

// Calls returns the macro calls made by the script.
func (s *Script) Calls() []gdl.MacroCall {
	if s.whole {
		return s.Doc.AllMacroCalls()
	}
	return s.Doc.MacroCalls(s.Type)
}

// Payload returns the script text.
func (s *Script) Payload() string {
	text := s.Doc.Snapshot().Text()
	if s.whole {
		return text
	}
	sec, ok := s.Doc.Section(s.Type)
	if !ok {
		return ""
	}
	return text[sec.Inner.Offset:sec.Inner.End()]
}

// ScriptSource gives layout-independent access to the scripts of one library
// part.
type ScriptSource interface {
	Has(t gdl.ScriptType) bool
	// Path returns the file holding t, or "" when Has(t) is false.
	Path(t gdl.ScriptType) string
	Load(ctx context.Context, t gdl.ScriptType) (*Script, error)
}

// Split is a part directory with one file per script type.
type Split struct {
	part *store.LibraryPart
	load Loader
}

// NewSplit returns the source for an indexed split-layout part.
func NewSplit(part *store.LibraryPart, load Loader) *Split {
	return &Split{part: part, load: load}
}

func (s *Split) Has(t gdl.ScriptType) bool    { return s.part.HasScript(t) }
func (s *Split) Path(t gdl.ScriptType) string { return s.part.ScriptPath(t) }

// Part returns the underlying library part.
func (s *Split) Part() *store.LibraryPart { return s.part }

func (s *Split) Load(ctx context.Context, t gdl.ScriptType) (*Script, error) {
	p := s.part.ScriptPath(t)
	if p == "" {
		return nil, fmt.Errorf("load %s script of %s: %w", t, s.part.Name, ErrNotFound)
	}
	doc, err := s.load(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("load %s script of %s: %w", t, s.part.Name, err)
	}
	return &Script{Type: t, Path: p, Doc: doc, whole: true}, nil
}

// Combined is a single file holding every script in per-type sections. A
// file without any script section is treated as one script of its fallback
// type.
type Combined struct {
	path     string
	doc      *gdl.ParsedDocument
	fallback gdl.ScriptType
	sections bool
}

// LoadCombined parses path once and answers every script type from it.
func LoadCombined(ctx context.Context, path string, fallback gdl.ScriptType, load Loader) (*Combined, error) {
	doc, err := load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	c := &Combined{path: path, doc: doc, fallback: fallback}
	for _, t := range gdl.Scripts() {
		if _, ok := doc.Section(t); ok {
			c.sections = true
			break
		}
	}
	return c, nil
}

func (c *Combined) Has(t gdl.ScriptType) bool {
	if !c.sections {
		return t == c.fallback
	}
	_, ok := c.doc.Section(t)
	return ok && t != gdl.Root
}

func (c *Combined) Path(t gdl.ScriptType) string {
	if !c.Has(t) {
		return ""
	}
	return c.path
}

func (c *Combined) Load(_ context.Context, t gdl.ScriptType) (*Script, error) {
	if !c.Has(t) {
		return nil, fmt.Errorf("load %s section of %s: %w", t, c.path, ErrNotFound)
	}
	return &Script{Type: t, Path: c.path, Doc: c.doc, whole: !c.sections}, nil
}

// Compile-time checks.
var (
	_ ScriptSource = (*Split)(nil)
	_ ScriptSource = (*Combined)(nil)
)
