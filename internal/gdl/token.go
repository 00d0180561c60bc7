package gdl

// Token is a span of the parsed text. Offset and Length are byte offsets into
// the exact string that was parsed.
type Token struct {
	Offset int
	Length int
	Name   string
}

// End returns the offset one past the last byte of the token.
func (t Token) End() int { return t.Offset + t.Length }

// Contains reports whether offset falls inside the token. The end offset is
// included so a cursor placed right after a name still hits it.
func (t Token) Contains(offset int) bool {
	return offset >= t.Offset && offset <= t.End()
}

// Function is a numeric or quoted-string label starting a subroutine.
type Function struct {
	Token
	ScriptType ScriptType
}

// Comment is a banner comment: a delimiter line, a name line and the same
// delimiter line, all starting with "!".
type Comment struct {
	Token
	ScriptType ScriptType
}

// MacroCall is a `call "name"` expression. The token spans the macro name
// without its quotes.
type MacroCall struct {
	Token
	ScriptType ScriptType
	// AllParameters is set when the call forwards every parameter with
	// `parameters all`.
	AllParameters bool
}

// CalledMacro is a declaration from the called-macros metadata section.
type CalledMacro struct {
	Token
	GUID    string
	Payload string
	// CalledFrom[t] is true when a call to this macro was found in script t.
	CalledFrom [NumScriptTypes]bool
}

// IsCalled reports whether any script calls the declared macro.
func (m CalledMacro) IsCalled() bool {
	for _, v := range m.CalledFrom {
		if v {
			return true
		}
	}
	return false
}

// CallerTypes lists the script types that call the declared macro.
func (m CalledMacro) CallerTypes() []ScriptType {
	var out []ScriptType
	for i, v := range m.CalledFrom {
		if v {
			out = append(out, ScriptType(i))
		}
	}
	return out
}

// MainGUID is the main GUID attribute of the document root. Name holds the GUID.
type MainGUID struct {
	Token
}

// MigrationGUID is one migration-table entry. Name holds the GUID.
type MigrationGUID struct {
	Token
	Version       int
	AutoMigration bool
}

// EmbeddedPicture is an embedded picture reference. Name holds FileName.
type EmbeddedPicture struct {
	Token
	ID       int
	Path     string
	FileName string
}

// SectionKind classifies a Section.
type SectionKind int

const (
	RootSection SectionKind = iota
	ScriptSection
	MetadataSection
)

// Section is the span of one script type in the document. For Root it covers
// the whole text. Inner is the payload span: the CDATA body when present,
// otherwise everything between the opening and closing tags.
type Section struct {
	Token
	Type        ScriptType
	Inner       Token
	hasChildren bool
}

// Kind returns whether the section is the document root, a script or a
// metadata section.
func (s Section) Kind() SectionKind {
	switch {
	case s.Type == Root:
		return RootSection
	case s.Type.IsScript():
		return ScriptSection
	default:
		return MetadataSection
	}
}

// HasChildren reports whether the section has anything below it worth
// expanding: functions or more than one payload line for scripts, entries for
// the migration table and called-macros sections.
func (s Section) HasChildren() bool { return s.hasChildren }
