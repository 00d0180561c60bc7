package gdl

import (
	"path"
	"strings"
)

// ScriptType identifies a region of a library part: the whole document, one
// of the eight script roles, or one of the metadata sections.
type ScriptType int

const (
	Root ScriptType = iota
	Master
	Script2D
	Script3D
	ScriptUI
	ScriptParam
	ScriptProperties
	ScriptForwardMigration
	ScriptBackwardMigration
	MigrationTable
	ParamSection
	CalledMacros
)

// NumScriptTypes is the number of ScriptType values, usable as an array length.
const NumScriptTypes = int(CalledMacros) + 1

type scriptTypeInfo struct {
	code  string
	label string
	file  string // split layout, relative to the part root
	tag   string // combined layout
}

var scriptTypes = [NumScriptTypes]scriptTypeInfo{
	Root:                    {code: "ROOT", label: "File"},
	Master:                  {code: "D", label: "Master Script", file: "scripts/1d.gdl", tag: "Script_1D"},
	Script2D:                {code: "DD", label: "2D Script", file: "scripts/2d.gdl", tag: "Script_2D"},
	Script3D:                {code: "DDD", label: "3D Script", file: "scripts/3d.gdl", tag: "Script_3D"},
	ScriptUI:                {code: "UI", label: "UI Script", file: "scripts/ui.gdl", tag: "Script_UI"},
	ScriptParam:             {code: "VL", label: "Parameter Script", file: "scripts/vl.gdl", tag: "Script_VL"},
	ScriptProperties:        {code: "PR", label: "Properties Script", file: "scripts/pr.gdl", tag: "Script_PR"},
	ScriptForwardMigration:  {code: "FWM", label: "Forward Migration Script", file: "scripts/fwm.gdl", tag: "Script_FWM"},
	ScriptBackwardMigration: {code: "BWM", label: "Backward Migration Script", file: "scripts/bwm.gdl", tag: "Script_BWM"},
	MigrationTable:          {code: "MIGTABLE", label: "Migration Table", file: "ancestry.xml", tag: "MigrationTable"},
	ParamSection:            {code: "PARAMSECTION", label: "Parameters", file: "paramlist.xml", tag: "ParamSection"},
	CalledMacros:            {code: "CALLEDMACROS", label: "Called Macros", file: "calledmacros.xml", tag: "CalledMacros"},
}

func (t ScriptType) valid() bool { return t >= Root && int(t) < NumScriptTypes }

// String returns the short code used in context tags, e.g. "DD".
func (t ScriptType) String() string {
	if !t.valid() {
		return "UNKNOWN"
	}
	return scriptTypes[t].code
}

// Label returns a human readable name.
func (t ScriptType) Label() string {
	if !t.valid() {
		return "Unknown"
	}
	return scriptTypes[t].label
}

// IsScript reports whether t is one of the eight script roles.
func (t ScriptType) IsScript() bool {
	return t >= Master && t <= ScriptBackwardMigration
}

// FileName returns the slash-separated path of t's file relative to a
// split-layout part root. Root has none.
func (t ScriptType) FileName() string {
	if !t.valid() {
		return ""
	}
	return scriptTypes[t].file
}

// TagName returns the combined-layout XML tag enclosing t.
func (t ScriptType) TagName() string {
	if !t.valid() {
		return ""
	}
	return scriptTypes[t].tag
}

// Scripts returns the eight script roles in declaration order.
func Scripts() []ScriptType {
	out := make([]ScriptType, 0, ScriptBackwardMigration-Master+1)
	for t := Master; t <= ScriptBackwardMigration; t++ {
		out = append(out, t)
	}
	return out
}

// AllScriptTypes returns every ScriptType including Root.
func AllScriptTypes() []ScriptType {
	out := make([]ScriptType, NumScriptTypes)
	for i := range out {
		out[i] = ScriptType(i)
	}
	return out
}

// ScriptTypeFromCode maps a context code such as "DDD" back to its type.
func ScriptTypeFromCode(code string) (ScriptType, bool) {
	for i, info := range scriptTypes {
		if strings.EqualFold(info.code, code) {
			return ScriptType(i), true
		}
	}
	return Root, false
}

// ScriptTypeFromTag maps a combined-layout tag name to its type.
func ScriptTypeFromTag(tag string) (ScriptType, bool) {
	for i, info := range scriptTypes {
		if info.tag != "" && strings.EqualFold(info.tag, tag) {
			return ScriptType(i), true
		}
	}
	return Root, false
}

// ScriptTypeFromFilename derives the type implied by a split-layout file name.
// Only the base name is compared; any directory may be given.
func ScriptTypeFromFilename(p string) (ScriptType, bool) {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	for i, info := range scriptTypes {
		if info.file != "" && strings.EqualFold(path.Base(info.file), base) {
			return ScriptType(i), true
		}
	}
	return Root, false
}
