package gdl

import (
	"regexp"
	"sort"
	"strings"
)

const (
	cdataOpen  = "<![CDATA["
	cdataClose = "]]>"
)

var sectionOpenRe = func() *regexp.Regexp {
	var tags []string
	for _, t := range AllScriptTypes() {
		if tag := t.TagName(); tag != "" {
			tags = append(tags, regexp.QuoteMeta(tag))
		}
	}
	return regexp.MustCompile(`<(` + strings.Join(tags, "|") + `)\b[^>]*>`)
}()

// SectionTable is the ordered, non-overlapping list of sections found in a
// document, excluding Root. It is built once and only read afterwards.
type SectionTable struct {
	sections []Section
}

// At returns the script type of the section containing offset, or Root.
func (st SectionTable) At(offset int) ScriptType {
	i := sort.Search(len(st.sections), func(i int) bool {
		return st.sections[i].Offset > offset
	}) - 1
	if i >= 0 && offset < st.sections[i].End() {
		return st.sections[i].Type
	}
	return Root
}

// Len returns the number of non-root sections.
func (st SectionTable) Len() int { return len(st.sections) }

// scanSections finds at most one section per script type. An opening tag
// without a matching closing tag is ignored.
func scanSections(text string) SectionTable {
	var (
		st     SectionTable
		seen   [NumScriptTypes]bool
		cursor int
	)
	for cursor < len(text) {
		loc := sectionOpenRe.FindStringSubmatchIndex(text[cursor:])
		if loc == nil {
			break
		}
		openStart, openEnd := cursor+loc[0], cursor+loc[1]
		tag := text[cursor+loc[2] : cursor+loc[3]]
		cursor = openEnd

		if strings.HasSuffix(text[openStart:openEnd], "/>") {
			continue
		}
		closeTag := "</" + tag + ">"
		rel := strings.Index(text[openEnd:], closeTag)
		if rel < 0 {
			continue
		}
		closeStart := openEnd + rel
		closeEnd := closeStart + len(closeTag)
		cursor = closeEnd

		t, ok := ScriptTypeFromTag(tag)
		if !ok || seen[t] {
			continue
		}
		seen[t] = true

		// Only a body that is itself one CDATA block is unwrapped; metadata
		// sections carry CDATA inside nested elements.
		innerStart, innerEnd := openEnd, closeStart
		body := text[openEnd:closeStart]
		trimmed := strings.TrimLeft(body, " \t\r\n")
		if strings.HasPrefix(trimmed, cdataOpen) {
			i := len(body) - len(trimmed)
			innerStart = openEnd + i + len(cdataOpen)
			if j := strings.LastIndex(body, cdataClose); j >= i+len(cdataOpen) {
				innerEnd = openEnd + j
			}
		}
		st.sections = append(st.sections, Section{
			Token: Token{Offset: openStart, Length: closeEnd - openStart, Name: tag},
			Type:  t,
			Inner: Token{Offset: innerStart, Length: innerEnd - innerStart, Name: tag},
		})
	}
	return st
}

// payloadLines counts the lines of a section payload ignoring leading and
// trailing line breaks.
func payloadLines(payload string) int {
	payload = strings.Trim(payload, "\r\n")
	if payload == "" {
		return 0
	}
	return strings.Count(payload, "\n") + 1
}
