// Package gdl extracts a token model from GDL library-part sources using
// regular-expression passes. It covers both the combined XML layout and
// standalone script files.
package gdl

import (
	"crypto/sha256"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

var (
	functionRe = regexp.MustCompile(`(?m)^[ \t]*(\d+|"[^"\r\n]*"|'[^'\r\n]*')[ \t]*:`)

	// Banner comments need a back-reference between the opening and closing
	// delimiter lines, which RE2 cannot express. Each match is confined to
	// three lines, so it runs without a match timeout.
	commentRe = regexp2.MustCompile(
		`^[ \t]*!([ \t]*([-=*#~_+])\2{2,}[ \t]*)\r?\n`+
			`[ \t]*![ \t]*([^\r\n]*?\S)[ \t]*\r?\n`+
			`[ \t]*!\1\r?$`,
		regexp2.Multiline|regexp2.IgnoreCase)

	mainGUIDRe = regexp.MustCompile(`<Symbol\b[^>]*?\bMainGUID\s*=\s*"([^"]*)"`)

	migrationElementRe = regexp.MustCompile(`(?s)<MigrationTableElement>(.*?)</MigrationTableElement>`)
	migrationGUIDRe    = regexp.MustCompile(`<GUID>\s*([^<]*?)\s*</GUID>`)
	migrationVersionRe = regexp.MustCompile(`<Version>\s*(\d+)\s*</Version>`)
	migrationAutoRe    = regexp.MustCompile(`(?i)<AutoMigration>\s*(true|false)\s*</AutoMigration>`)

	macroCallRe = regexp.MustCompile(`(?i)\bcall[ \t]*(?:"([^"\r\n]*)"|'([^'\r\n]*)')([ \t]*,?[ \t]*parameters[ \t]+all\b)?`)

	calledMacroRe     = regexp.MustCompile(`(?s)<Macro>(.*?)</Macro>`)
	calledMacroNameRe = regexp.MustCompile(`(?s)<MName>\s*(?:<!\[CDATA\[)?\s*["']?(.*?)["']?\s*(?:\]\]>)?\s*</MName>`)
	calledMacroGUIDRe = regexp.MustCompile(`<MainGUID>\s*([^<]*?)\s*</MainGUID>`)

	pictureRe         = regexp.MustCompile(`<GDLPict\b[^>]*>`)
	pictureSubIdentRe = regexp.MustCompile(`\bSubIdent\s*=\s*"(\d+)"`)
	picturePathRe     = regexp.MustCompile(`\bpath\s*=\s*"([^"]*)"`)
)

// Parse builds the token model of text. It never fails: text without any
// recognisable construct yields an empty document.
func Parse(text string) *ParsedDocument {
	doc := &ParsedDocument{
		snapshot: NewSnapshot(text),
		version:  fmt.Sprintf("%x", sha256.Sum256([]byte(text)))[:16],
	}
	if text == "" {
		return doc
	}

	// Section boundaries are fixed before any token is attributed.
	doc.table = scanSections(text)
	at := doc.table.At

	for _, f := range scanFunctions(text, at) {
		doc.functions[f.ScriptType] = append(doc.functions[f.ScriptType], f)
	}
	for _, c := range scanComments(text, at) {
		doc.comments[c.ScriptType] = append(doc.comments[c.ScriptType], c)
	}
	doc.mainGUID = scanMainGUID(text)
	doc.migrations = scanMigrations(text)
	for _, c := range scanMacroCalls(text, at) {
		doc.calls[c.ScriptType] = append(doc.calls[c.ScriptType], c)
	}
	doc.calledMacros = scanCalledMacros(text, doc.table, &doc.calls)
	doc.pictures = scanPictures(text)

	doc.sections = buildSections(doc, text)
	return doc
}

func scanFunctions(text string, at func(int) ScriptType) []Function {
	var out []Function
	for _, m := range functionRe.FindAllStringSubmatchIndex(text, -1) {
		out = append(out, Function{
			Token:      Token{Offset: m[2], Length: m[3] - m[2], Name: text[m[2]:m[3]]},
			ScriptType: at(m[2]),
		})
	}
	return out
}

func scanComments(text string, at func(int) ScriptType) []Comment {
	var out []Comment
	idx := newRuneIndex(text)
	m, err := commentRe.FindStringMatch(text)
	for m != nil && err == nil {
		start := idx.byteOffset(m.Index)
		end := idx.byteOffset(m.Index + m.Length)
		name := m.GroupByNumber(3).String()
		out = append(out, Comment{
			Token:      Token{Offset: start, Length: end - start, Name: name},
			ScriptType: at(start),
		})
		m, err = commentRe.FindNextMatch(m)
	}
	return out
}

func scanMainGUID(text string) *MainGUID {
	all := mainGUIDRe.FindAllStringSubmatchIndex(text, -1)
	if len(all) == 0 {
		return nil
	}
	m := all[len(all)-1]
	return &MainGUID{Token: Token{Offset: m[2], Length: m[3] - m[2], Name: text[m[2]:m[3]]}}
}

// lastSubmatch returns the first group of the last match of re in s, with its
// offset, or -1 when nothing matches.
func lastSubmatch(re *regexp.Regexp, s string) (string, int) {
	all := re.FindAllStringSubmatchIndex(s, -1)
	if len(all) == 0 {
		return "", -1
	}
	m := all[len(all)-1]
	return s[m[2]:m[3]], m[2]
}

func scanMigrations(text string) []MigrationGUID {
	var out []MigrationGUID
	for _, m := range migrationElementRe.FindAllStringSubmatchIndex(text, -1) {
		body := text[m[2]:m[3]]
		mg := MigrationGUID{Token: Token{Offset: m[0], Length: m[1] - m[0]}}
		if guid, at := lastSubmatch(migrationGUIDRe, body); at >= 0 {
			mg.Token = Token{Offset: m[2] + at, Length: len(guid), Name: guid}
		}
		if v, at := lastSubmatch(migrationVersionRe, body); at >= 0 {
			mg.Version, _ = strconv.Atoi(v)
		}
		if v, at := lastSubmatch(migrationAutoRe, body); at >= 0 {
			mg.AutoMigration = strings.EqualFold(v, "true")
		}
		out = append(out, mg)
	}
	return out
}

// commentedOut reports whether a "!" precedes offset on the same line. A "!"
// inside a string literal also counts.
func commentedOut(text string, offset int) bool {
	lineStart := strings.LastIndexByte(text[:offset], '\n') + 1
	return strings.IndexByte(text[lineStart:offset], '!') >= 0
}

func scanMacroCalls(text string, at func(int) ScriptType) []MacroCall {
	var out []MacroCall
	for _, m := range macroCallRe.FindAllStringSubmatchIndex(text, -1) {
		if commentedOut(text, m[0]) {
			continue
		}
		start, end := m[2], m[3]
		if start < 0 {
			start, end = m[4], m[5]
		}
		if start == end {
			continue
		}
		out = append(out, MacroCall{
			Token:         Token{Offset: start, Length: end - start, Name: text[start:end]},
			ScriptType:    at(m[0]),
			AllParameters: m[6] >= 0,
		})
	}
	return out
}

func scanCalledMacros(text string, table SectionTable, calls *[NumScriptTypes][]MacroCall) []CalledMacro {
	var out []CalledMacro
	for _, sec := range table.sections {
		if sec.Type != CalledMacros {
			continue
		}
		region := text[sec.Offset:sec.End()]
		for _, m := range calledMacroRe.FindAllStringSubmatchIndex(region, -1) {
			body := region[m[2]:m[3]]
			nm := calledMacroNameRe.FindStringSubmatchIndex(body)
			if nm == nil || nm[2] == nm[3] {
				continue
			}
			name := body[nm[2]:nm[3]]
			cm := CalledMacro{
				Token:   Token{Offset: sec.Offset + m[2] + nm[2], Length: len(name), Name: name},
				Payload: strings.TrimSpace(body),
			}
			if guid, at := lastSubmatch(calledMacroGUIDRe, body); at >= 0 {
				cm.GUID = guid
			}
			for t := range calls {
				for _, c := range calls[t] {
					if strings.EqualFold(c.Name, name) {
						cm.CalledFrom[t] = true
						break
					}
				}
			}
			out = append(out, cm)
		}
	}
	return out
}

func scanPictures(text string) []EmbeddedPicture {
	var out []EmbeddedPicture
	for _, loc := range pictureRe.FindAllStringIndex(text, -1) {
		tag := text[loc[0]:loc[1]]
		pic := EmbeddedPicture{}
		if m := pictureSubIdentRe.FindStringSubmatch(tag); m != nil {
			pic.ID, _ = strconv.Atoi(m[1])
		}
		if m := picturePathRe.FindStringSubmatch(tag); m != nil {
			pic.Path = m[1]
			pic.FileName = path.Base(strings.ReplaceAll(m[1], "\\", "/"))
		}
		pic.Token = Token{Offset: loc[0], Length: loc[1] - loc[0], Name: pic.FileName}
		out = append(out, pic)
	}
	return out
}

func buildSections(doc *ParsedDocument, text string) []Section {
	root := Section{
		Token: Token{Offset: 0, Length: len(text), Name: Root.String()},
		Type:  Root,
		Inner: Token{Offset: 0, Length: len(text), Name: Root.String()},
	}
	root.hasChildren = doc.table.Len() > 0 || len(doc.functions[Root]) > 0 || payloadLines(text) > 1
	out := []Section{root}
	for _, sec := range doc.table.sections {
		payload := text[sec.Inner.Offset:sec.Inner.End()]
		switch sec.Type {
		case MigrationTable:
			sec.hasChildren = len(doc.migrations) > 0
		case CalledMacros:
			sec.hasChildren = len(doc.calledMacros) > 0
		default:
			sec.hasChildren = len(doc.functions[sec.Type]) > 0 || payloadLines(payload) > 1
		}
		out = append(out, sec)
	}
	return out
}

// runeIndex maps rune indices reported by regexp2 back to byte offsets. A nil
// index means the text is ASCII and both coincide.
type runeIndex []int

func newRuneIndex(text string) runeIndex {
	if utf8.RuneCountInString(text) == len(text) {
		return nil
	}
	idx := make(runeIndex, 0, len(text)+1)
	for i := range text {
		idx = append(idx, i)
	}
	return append(idx, len(text))
}

func (ri runeIndex) byteOffset(r int) int {
	if ri == nil {
		return r
	}
	return ri[min(r, len(ri)-1)]
}
