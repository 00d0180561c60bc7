package gdlgraph

import (
	"regexp"
	"slices"

	"github.com/jward/gdlgraph/internal/gdl"
)

var contextTagRe = regexp.MustCompile(`^\[(ROOT|D|DD|DDD|UI|VL|PR|FWM|BWM)\]`)

// contextTag renders the search context annotation carried in item details.
func contextTag(t gdl.ScriptType) string {
	return "[" + t.String() + "]"
}

// contextDetail is the detail text of an item searched under t.
func contextDetail(t gdl.ScriptType) *string {
	s := contextTag(t) + " " + t.Label()
	return &s
}

// parseContextTag recovers the search context from an item detail.
func parseContextTag(detail *string) (gdl.ScriptType, bool) {
	if detail == nil {
		return gdl.Root, false
	}
	m := contextTagRe.FindStringSubmatch(*detail)
	if m == nil {
		return gdl.Root, false
	}
	return gdl.ScriptTypeFromCode(m[1])
}

// fileScriptType is the script role implied by a file name, or Root.
func fileScriptType(path string) gdl.ScriptType {
	if t, ok := gdl.ScriptTypeFromFilename(path); ok && t.IsScript() {
		return t
	}
	return gdl.Root
}

// outgoingContext is the explicit context when given, else the one implied by
// the file name.
func outgoingContext(path string, explicit *gdl.ScriptType) gdl.ScriptType {
	if explicit != nil {
		return *explicit
	}
	return fileScriptType(path)
}

// incomingContext narrows a master context to the file's own script type
// when the file itself is not a master script.
func incomingContext(path string, derived gdl.ScriptType) gdl.ScriptType {
	if derived != gdl.Master {
		return derived
	}
	if own := fileScriptType(path); own != gdl.Master && own != gdl.Root {
		return own
	}
	return derived
}

// scriptsToSearch returns the script types visible under context. The master
// script sees every script; any other script sees itself and the master. A
// Root context (a file of unknown role) searches everything, Root included.
func scriptsToSearch(context gdl.ScriptType) []gdl.ScriptType {
	switch context {
	case gdl.Master:
		return gdl.Scripts()
	case gdl.Root:
		return slices.Insert(gdl.Scripts(), 0, gdl.Root)
	default:
		return []gdl.ScriptType{gdl.Master, context}
	}
}
