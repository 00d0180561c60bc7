package store

import "github.com/jward/gdlgraph/internal/gdl"

// LibraryPart is a directory identified by a marker file. Scripts maps each
// script type whose file existed at refresh time to its absolute path.
type LibraryPart struct {
	ID            int64
	Root          string
	Name          string
	GUID          string
	Marker        string
	WorkspaceRoot string
	Scripts       map[gdl.ScriptType]string
}

// HasScript reports whether the part had a file for t at refresh time.
func (p *LibraryPart) HasScript(t gdl.ScriptType) bool {
	_, ok := p.Scripts[t]
	return ok
}

// ScriptPath returns the recorded path of t's file, or "".
func (p *LibraryPart) ScriptPath(t gdl.ScriptType) string {
	return p.Scripts[t]
}

// ScriptTypes returns the recorded script types in declaration order.
func (p *LibraryPart) ScriptTypes() []gdl.ScriptType {
	var out []gdl.ScriptType
	for _, t := range gdl.AllScriptTypes() {
		if p.HasScript(t) {
			out = append(out, t)
		}
	}
	return out
}
