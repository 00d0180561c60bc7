package gdl

import "sort"

// ParsedDocument is the token model of one text version. It is built by Parse
// and never modified afterwards; slices returned by its accessors must be
// treated as read-only.
type ParsedDocument struct {
	snapshot *Snapshot
	version  string
	table    SectionTable
	sections []Section

	functions [NumScriptTypes][]Function
	comments  [NumScriptTypes][]Comment
	calls     [NumScriptTypes][]MacroCall

	mainGUID     *MainGUID
	migrations   []MigrationGUID
	calledMacros []CalledMacro
	pictures     []EmbeddedPicture
}

// Snapshot returns the text version the tokens were derived from.
func (d *ParsedDocument) Snapshot() *Snapshot { return d.snapshot }

// Version is a short content hash of the parsed text.
func (d *ParsedDocument) Version() string { return d.version }

// Sections returns Root followed by every section in document order. An empty
// document has no sections at all.
func (d *ParsedDocument) Sections() []Section { return d.sections }

// Section returns the section of script type t.
func (d *ParsedDocument) Section(t ScriptType) (Section, bool) {
	for _, s := range d.sections {
		if s.Type == t {
			return s, true
		}
	}
	return Section{}, false
}

func (d *ParsedDocument) Functions(t ScriptType) []Function   { return d.functions[t] }
func (d *ParsedDocument) Comments(t ScriptType) []Comment     { return d.comments[t] }
func (d *ParsedDocument) MacroCalls(t ScriptType) []MacroCall { return d.calls[t] }

// AllFunctions returns every function in document order.
func (d *ParsedDocument) AllFunctions() []Function {
	var out []Function
	for _, fs := range d.functions {
		out = append(out, fs...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}

// AllComments returns every banner comment in document order.
func (d *ParsedDocument) AllComments() []Comment {
	var out []Comment
	for _, cs := range d.comments {
		out = append(out, cs...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}

// AllMacroCalls returns every macro call in document order.
func (d *ParsedDocument) AllMacroCalls() []MacroCall {
	var out []MacroCall
	for _, cs := range d.calls {
		out = append(out, cs...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}

// CallAt returns the macro call whose name contains offset.
func (d *ParsedDocument) CallAt(offset int) (MacroCall, bool) {
	for _, c := range d.calls[d.table.At(offset)] {
		if c.Contains(offset) {
			return c, true
		}
	}
	return MacroCall{}, false
}

// MainGUID returns the main GUID of the document root tag. When several are
// present the last one wins.
func (d *ParsedDocument) MainGUID() (MainGUID, bool) {
	if d.mainGUID == nil {
		return MainGUID{}, false
	}
	return *d.mainGUID, true
}

func (d *ParsedDocument) MigrationGUIDs() []MigrationGUID { return d.migrations }
func (d *ParsedDocument) CalledMacros() []CalledMacro     { return d.calledMacros }
func (d *ParsedDocument) Pictures() []EmbeddedPicture     { return d.pictures }

// ScriptTypeAt returns the script type attributed to a byte offset.
func (d *ParsedDocument) ScriptTypeAt(offset int) ScriptType {
	return d.table.At(offset)
}

// ScriptTypeAtLine returns the script type of the section containing the
// start of line, or Root.
func (d *ParsedDocument) ScriptTypeAtLine(line int) ScriptType {
	start := d.snapshot.LineStart(line)
	if t := d.table.At(start); t != Root {
		return t
	}
	// A line that opens a section starts before the tag.
	end := len(d.snapshot.text)
	if line+1 < d.snapshot.LineCount() {
		end = d.snapshot.LineStart(line + 1)
	}
	for _, s := range d.table.sections {
		if s.Offset >= start && s.Offset < end {
			return s.Type
		}
	}
	return Root
}
