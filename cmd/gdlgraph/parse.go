package main

import (
	"github.com/spf13/cobra"

	"github.com/jward/gdlgraph"
)

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <file>",
		Short: "Print the token model of a GDL file",
		Long:  "Parse a script or library part file and print its sections, functions, banner comments, macro calls and metadata. Line and column numbers are 0-based.",
		Args:  cobra.ExactArgs(1),
		RunE:  runParse,
	}
}

func runParse(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	file, err := resolveFilePath(args[0])
	if err != nil {
		return outputError(w, "parse", err)
	}
	e, err := openEngine(cmd.Context(), false)
	if err != nil {
		return outputError(w, "parse", err)
	}
	defer e.Close()

	doc, err := e.Parse(cmd.Context(), file)
	if err != nil {
		return outputError(w, "parse", err)
	}
	return outputResult(w, CLIResult{Command: "parse", Results: documentToCLI(file, doc)})
}

// documentToCLI flattens a parsed document into its JSON representation.
func documentToCLI(file string, doc *gdlgraph.ParsedDocument) CLIDocument {
	snap := doc.Snapshot()
	out := CLIDocument{
		File:      file,
		Version:   doc.Version(),
		Sections:  []CLISection{},
		Functions: []CLIToken{},
		Comments:  []CLIToken{},
		Calls:     []CLIToken{},
	}
	if g, ok := doc.MainGUID(); ok {
		out.MainGUID = g.Name
	}
	for _, s := range doc.Sections() {
		out.Sections = append(out.Sections, CLISection{
			Type:        s.Type.String(),
			Label:       s.Type.Label(),
			Range:       rangeToCLI(snap.Range(s.Offset, s.Length)),
			HasChildren: s.HasChildren(),
		})
	}
	for _, f := range doc.AllFunctions() {
		p := snap.Position(f.Offset)
		out.Functions = append(out.Functions, CLIToken{Name: f.Name, Script: f.ScriptType.String(), Line: int(p.Line), Col: int(p.Character)})
	}
	for _, c := range doc.AllComments() {
		p := snap.Position(c.Offset)
		out.Comments = append(out.Comments, CLIToken{Name: c.Name, Script: c.ScriptType.String(), Line: int(p.Line), Col: int(p.Character)})
	}
	for _, c := range doc.AllMacroCalls() {
		p := snap.Position(c.Offset)
		name := c.Name
		if c.AllParameters {
			name += " (parameters all)"
		}
		out.Calls = append(out.Calls, CLIToken{Name: name, Script: c.ScriptType.String(), Line: int(p.Line), Col: int(p.Character)})
	}
	for _, m := range doc.MigrationGUIDs() {
		out.Migrations = append(out.Migrations, CLIMigration{GUID: m.Name, Version: m.Version, AutoMigration: m.AutoMigration})
	}
	for _, m := range doc.CalledMacros() {
		cm := CLICalledMacro{Name: m.Name, GUID: m.GUID, CalledFrom: []string{}}
		for _, t := range m.CallerTypes() {
			cm.CalledFrom = append(cm.CalledFrom, t.String())
		}
		out.CalledMacros = append(out.CalledMacros, cm)
	}
	for _, p := range doc.Pictures() {
		out.Pictures = append(out.Pictures, CLIPicture{ID: p.ID, FileName: p.FileName, Path: p.Path})
	}
	return out
}

func rangeToCLI(r gdlgraph.Range) CLIRange {
	return CLIRange{
		StartLine: int(r.Start.Line),
		StartCol:  int(r.Start.Character),
		EndLine:   int(r.End.Line),
		EndCol:    int(r.End.Character),
	}
}

func scriptCodes(part *gdlgraph.LibraryPart) map[string]string {
	if len(part.Scripts) == 0 {
		return nil
	}
	out := make(map[string]string, len(part.Scripts))
	for t, p := range part.Scripts {
		out[t.String()] = p
	}
	return out
}
