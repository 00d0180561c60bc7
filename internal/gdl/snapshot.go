package gdl

import (
	"sort"
	"unicode/utf16"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Snapshot is an immutable text version with a line index, used to turn byte
// offsets into LSP positions on demand.
type Snapshot struct {
	text  string
	lines []int // byte offset of each line start
}

// NewSnapshot indexes the line starts of text.
func NewSnapshot(text string) *Snapshot {
	lines := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, i+1)
		}
	}
	return &Snapshot{text: text, lines: lines}
}

// Text returns the snapshot text.
func (s *Snapshot) Text() string { return s.text }

// LineCount returns the number of lines. An empty text has one empty line.
func (s *Snapshot) LineCount() int { return len(s.lines) }

func (s *Snapshot) clamp(offset int) int {
	return max(0, min(offset, len(s.text)))
}

// LineAt returns the zero-based line containing offset.
func (s *Snapshot) LineAt(offset int) int {
	offset = s.clamp(offset)
	return sort.Search(len(s.lines), func(i int) bool { return s.lines[i] > offset }) - 1
}

// LineStart returns the byte offset at which line starts, clamped to the text.
func (s *Snapshot) LineStart(line int) int {
	if line <= 0 {
		return 0
	}
	if line >= len(s.lines) {
		return len(s.text)
	}
	return s.lines[line]
}

// lineEnd is the offset of the line terminator, excluding any trailing \r.
func (s *Snapshot) lineEnd(line int) int {
	end := len(s.text)
	if line+1 < len(s.lines) {
		end = s.lines[line+1] - 1
	}
	if end > s.LineStart(line) && s.text[end-1] == '\r' {
		end--
	}
	return end
}

// Position converts a byte offset to an LSP position with a UTF-16 column.
func (s *Snapshot) Position(offset int) protocol.Position {
	offset = s.clamp(offset)
	line := s.LineAt(offset)
	col := 0
	for _, r := range s.text[s.lines[line]:offset] {
		col += utf16.RuneLen(r)
	}
	return protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(col)}
}

// Offset converts an LSP position back to a byte offset. Positions past the
// end of a line clamp to the line end.
func (s *Snapshot) Offset(pos protocol.Position) int {
	line := int(pos.Line)
	if line >= len(s.lines) {
		return len(s.text)
	}
	start, end := s.lines[line], s.lineEnd(line)
	want := int(pos.Character)
	col := 0
	for i := start; i < end; {
		if col >= want {
			return i
		}
		r, size := utf8.DecodeRuneInString(s.text[i:])
		col += utf16.RuneLen(r)
		i += size
	}
	return end
}

// Range converts a byte span to an LSP range.
func (s *Snapshot) Range(offset, length int) protocol.Range {
	return protocol.Range{Start: s.Position(offset), End: s.Position(offset + length)}
}

// Slice returns the text covered by r.
func (s *Snapshot) Slice(r protocol.Range) string {
	start, end := s.Offset(r.Start), s.Offset(r.End)
	if end < start {
		return ""
	}
	return s.text[start:end]
}

// Resolve computes the range of tok within snap.
func Resolve(tok Token, snap *Snapshot) protocol.Range {
	return snap.Range(tok.Offset, tok.Length)
}
