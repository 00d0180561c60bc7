package workspace

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/jward/gdlgraph/internal/store"
)

// Candidate is a lookup result with the file a caller should open for it.
type Candidate struct {
	Part       *store.LibraryPart
	OpenTarget string
}

// FuzzyMatch reports whether every rune of query occurs in s in order,
// ignoring case. An empty query matches anything.
func FuzzyMatch(query, s string) bool {
	fold := cases.Fold()
	q := []rune(fold.String(query))
	if len(q) == 0 {
		return true
	}
	i := 0
	for _, r := range fold.String(s) {
		if r == q[i] {
			i++
			if i == len(q) {
				return true
			}
		}
	}
	return false
}

// sameGUID reports whether a and b are both UUIDs with the same value, so a
// braced or differently cased query still finds the declared GUID.
func sameGUID(a, b string) bool {
	ua, err := uuid.Parse(strings.TrimSpace(a))
	if err != nil {
		return false
	}
	ub, err := uuid.Parse(b)
	return err == nil && ua == ub
}

// Lookup returns the parts whose name or GUID fuzzily matches query, each with
// its preferred open target given the active editor file. The GUID is matched
// as the marker declares it.
func (ix *Index) Lookup(query, activeFile string) []Candidate {
	out := []Candidate{}
	for _, p := range ix.Parts() {
		if !FuzzyMatch(query, p.Name) && !FuzzyMatch(query, p.GUID) && !sameGUID(query, p.GUID) {
			continue
		}
		out = append(out, Candidate{Part: p, OpenTarget: ix.OpenTarget(p, activeFile)})
	}
	return out
}

// OpenTarget picks the sibling of activeFile inside part: the same script
// file when a .gdl script is active, the same metadata file when an .xml file
// is active. It falls back to the part marker.
func (ix *Index) OpenTarget(part *store.LibraryPart, activeFile string) string {
	if activeFile != "" {
		base := filepath.Base(activeFile)
		var candidate string
		switch strings.ToLower(filepath.Ext(base)) {
		case ".gdl":
			candidate = filepath.Join(part.Root, "scripts", base)
		case ".xml":
			candidate = filepath.Join(part.Root, base)
		}
		if candidate != "" && ix.fs.Exists(candidate) {
			return candidate
		}
	}
	return part.Marker
}
