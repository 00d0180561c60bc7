package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// formatPartsText formats CLIPart results as aligned columns.
func formatPartsText(w io.Writer, parts []CLIPart) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tGUID\tSCRIPTS\tROOT")
	for _, p := range parts {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", p.Name, p.GUID, len(p.Scripts), p.Root)
	}
	tw.Flush()
}

// formatRootGroupsText formats CLIRootGroup results as one block per
// workspace root headed by its part count.
func formatRootGroupsText(w io.Writer, groups []CLIRootGroup) {
	for i, g := range groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		noun := "parts"
		if g.Count == 1 {
			noun = "part"
		}
		fmt.Fprintf(w, "%s (%d %s)\n", g.Root, g.Count, noun)
		if g.Count > 0 {
			formatPartsText(w, g.Parts)
		}
	}
}

// formatItemsText formats CLIItem results as aligned columns.
func formatItemsText(w io.Writer, items []CLIItem) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tDETAIL\tFILE\tLINE\tCOL")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
			it.Name, it.Kind, it.Detail, it.File, it.SelectionRange.StartLine, it.SelectionRange.StartCol)
	}
	tw.Flush()
}

// formatEdgesText formats CLIEdge results as aligned columns, one row per
// edge with its first call site.
func formatEdgesText(w io.Writer, edges []CLIEdge) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDETAIL\tFILE\tSITES\tLINE\tCOL")
	for _, e := range edges {
		var line, col int
		if len(e.Sites) > 0 {
			line, col = e.Sites[0].StartLine, e.Sites[0].StartCol
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\n",
			e.Item.Name, e.Item.Detail, e.Item.File, len(e.Sites), line, col)
	}
	tw.Flush()
}

// formatDocumentText formats a CLIDocument as readable text.
func formatDocumentText(w io.Writer, doc CLIDocument) {
	fmt.Fprintf(w, "File: %s\n", doc.File)
	if doc.Version != "" {
		fmt.Fprintf(w, "Version: %s\n", doc.Version)
	}
	if doc.MainGUID != "" {
		fmt.Fprintf(w, "Main GUID: %s\n", doc.MainGUID)
	}
	fmt.Fprintln(w)

	if len(doc.Sections) > 0 {
		fmt.Fprintln(w, "Sections:")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, s := range doc.Sections {
			fmt.Fprintf(tw, "  %s\t%s\t%d-%d\n", s.Type, s.Label, s.Range.StartLine, s.Range.EndLine)
		}
		tw.Flush()
		fmt.Fprintln(w)
	}

	for _, group := range []struct {
		title  string
		tokens []CLIToken
	}{
		{"Functions", doc.Functions},
		{"Comments", doc.Comments},
		{"Macro calls", doc.Calls},
	} {
		if len(group.tokens) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s:\n", group.title)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, t := range group.tokens {
			fmt.Fprintf(tw, "  %s\t%s\t%d:%d\n", t.Name, t.Script, t.Line, t.Col)
		}
		tw.Flush()
		fmt.Fprintln(w)
	}

	if len(doc.Migrations) > 0 {
		fmt.Fprintln(w, "Migrations:")
		for _, m := range doc.Migrations {
			fmt.Fprintf(w, "  %s v%d auto=%t\n", m.GUID, m.Version, m.AutoMigration)
		}
		fmt.Fprintln(w)
	}

	if len(doc.CalledMacros) > 0 {
		fmt.Fprintln(w, "Called macros:")
		for _, m := range doc.CalledMacros {
			from := "unused"
			if len(m.CalledFrom) > 0 {
				from = strings.Join(m.CalledFrom, ", ")
			}
			fmt.Fprintf(w, "  %s (%s)\n", m.Name, from)
		}
		fmt.Fprintln(w)
	}

	if len(doc.Pictures) > 0 {
		fmt.Fprintln(w, "Pictures:")
		for _, p := range doc.Pictures {
			fmt.Fprintf(w, "  %d %s\n", p.ID, p.FileName)
		}
	}
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []CLIPart:
		formatPartsText(w, v)
	case []CLIRootGroup:
		formatRootGroupsText(w, v)
	case []CLIItem:
		formatItemsText(w, v)
	case []CLIEdge:
		formatEdgesText(w, v)
	case CLIDocument:
		formatDocumentText(w, v)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}

	if result.TotalCount != nil {
		count := *result.TotalCount
		if shown := resultLen(result.Results); shown < count {
			fmt.Fprintf(w, "\nShowing %d of %d results\n", shown, count)
		}
	}
	return nil
}

// resultLen returns the length of a result slice, or 1 for a single value.
func resultLen(v any) int {
	switch r := v.(type) {
	case []CLIPart:
		return len(r)
	case []CLIRootGroup:
		return len(r)
	case []CLIItem:
		return len(r)
	case []CLIEdge:
		return len(r)
	case nil:
		return 0
	default:
		return 1
	}
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
