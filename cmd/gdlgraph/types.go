package main

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIRange is a 0-based line/column span.
type CLIRange struct {
	StartLine int `json:"start_line"`
	StartCol  int `json:"start_col"`
	EndLine   int `json:"end_line"`
	EndCol    int `json:"end_col"`
}

// CLIPart is a JSON-friendly library part.
type CLIPart struct {
	Name          string            `json:"name"`
	GUID          string            `json:"guid,omitempty"`
	Root          string            `json:"root"`
	WorkspaceRoot string            `json:"workspace_root"`
	Scripts       map[string]string `json:"scripts,omitempty"`
	OpenTarget    string            `json:"open_target,omitempty"`
}

// CLIRootGroup is the parts of one workspace root.
type CLIRootGroup struct {
	Root  string    `json:"root"`
	Count int       `json:"count"`
	Parts []CLIPart `json:"parts"`
}

// CLIItem is a JSON-friendly call hierarchy item.
type CLIItem struct {
	Name           string   `json:"name"`
	Kind           string   `json:"kind"`
	Detail         string   `json:"detail,omitempty"`
	File           string   `json:"file"`
	Range          CLIRange `json:"range"`
	SelectionRange CLIRange `json:"selection_range"`
}

// CLIEdge is one incoming or outgoing call: the item at the other end and the
// call sites that produced the edge.
type CLIEdge struct {
	Item  CLIItem    `json:"item"`
	Sites []CLIRange `json:"sites"`
}

// CLIToken is a named span of a parsed document.
type CLIToken struct {
	Name   string `json:"name"`
	Script string `json:"script,omitempty"`
	Line   int    `json:"line"`
	Col    int    `json:"col"`
}

// CLISection is one script or metadata section of a parsed document.
type CLISection struct {
	Type        string   `json:"type"`
	Label       string   `json:"label"`
	Range       CLIRange `json:"range"`
	HasChildren bool     `json:"has_children"`
}

// CLICalledMacro is a called-macros declaration and the scripts that call it.
type CLICalledMacro struct {
	Name       string   `json:"name"`
	GUID       string   `json:"guid,omitempty"`
	CalledFrom []string `json:"called_from"`
}

// CLIMigration is a migration-table entry.
type CLIMigration struct {
	GUID          string `json:"guid"`
	Version       int    `json:"version"`
	AutoMigration bool   `json:"auto_migration"`
}

// CLIPicture is an embedded picture reference.
type CLIPicture struct {
	ID       int    `json:"id"`
	FileName string `json:"file_name"`
	Path     string `json:"path,omitempty"`
}

// CLIDocument is the token model of one parsed file.
type CLIDocument struct {
	File         string           `json:"file"`
	Version      string           `json:"version,omitempty"`
	MainGUID     string           `json:"main_guid,omitempty"`
	Sections     []CLISection     `json:"sections"`
	Functions    []CLIToken       `json:"functions"`
	Comments     []CLIToken       `json:"comments"`
	Calls        []CLIToken       `json:"calls"`
	Migrations   []CLIMigration   `json:"migrations,omitempty"`
	CalledMacros []CLICalledMacro `json:"called_macros,omitempty"`
	Pictures     []CLIPicture     `json:"pictures,omitempty"`
}
