package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/jward/gdlgraph"
)

var flagContext string

func newCallsCmd() *cobra.Command {
	flagContext = ""
	cmd := &cobra.Command{
		Use:   "calls",
		Short: "Query the macro call hierarchy",
		Long:  "Prepare call hierarchy items and list incoming or outgoing macro calls. All line and column numbers are 0-based.",
	}
	cmd.PersistentFlags().StringVar(&flagContext, "context", "", "search context script code: D|DD|DDD|UI|VL|PR|FWM|BWM|ROOT (default: implied by the file)")

	cmd.AddCommand(&cobra.Command{
		Use:   "prepare <file> <line> <col>",
		Short: "Show the call hierarchy item at a position",
		Args:  cobra.ExactArgs(3),
		RunE:  runCallsPrepare,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "outgoing <file> [<line> <col>]",
		Short: "List the macros called from a file or call site",
		Long:  "Without a position the whole file is the anchor; a master script fans out to the other scripts of its part.",
		Args:  positionArgs,
		RunE:  runCallsOutgoing,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "incoming <file> [<line> <col>]",
		Short: "List the scripts that call a macro",
		Long:  "Without a position the anchor is the library part owning the file.",
		Args:  positionArgs,
		RunE:  runCallsIncoming,
	})
	return cmd
}

func positionArgs(cmd *cobra.Command, args []string) error {
	if len(args) != 1 && len(args) != 3 {
		return fmt.Errorf("requires <file> or <file> <line> <col> arguments")
	}
	return nil
}

// prepareItem resolves the anchor item from <file> [<line> <col>] and applies
// --context.
func prepareItem(ctx context.Context, ch *gdlgraph.CallHierarchy, args []string) (gdlgraph.CallHierarchyItem, error) {
	file, err := resolveFilePath(args[0])
	if err != nil {
		return gdlgraph.CallHierarchyItem{}, err
	}
	var item gdlgraph.CallHierarchyItem
	if len(args) == 1 {
		if item, err = ch.PrepareFile(ctx, file); err != nil {
			return item, err
		}
	} else {
		pos, err := parsePosition(args[1], args[2])
		if err != nil {
			return item, err
		}
		items, err := ch.Prepare(ctx, file, pos)
		if err != nil {
			return item, err
		}
		item = items[0]
	}
	if flagContext != "" {
		return gdlgraph.WithSearchContext(item, flagContext)
	}
	return item, nil
}

func parsePosition(lineArg, colArg string) (gdlgraph.Position, error) {
	line, err := parseIntArg(lineArg, "line")
	if err != nil {
		return gdlgraph.Position{}, err
	}
	col, err := parseIntArg(colArg, "col")
	if err != nil {
		return gdlgraph.Position{}, err
	}
	return gdlgraph.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(col)}, nil
}

func runCallsPrepare(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	e, err := openEngine(cmd.Context(), true)
	if err != nil {
		return outputError(w, "calls prepare", err)
	}
	defer e.Close()

	item, err := prepareItem(cmd.Context(), e.CallHierarchy(), args)
	if err != nil {
		return outputError(w, "calls prepare", err)
	}
	return outputResult(w, CLIResult{Command: "calls prepare", Results: []CLIItem{itemToCLI(item)}})
}

func runCallsOutgoing(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	e, err := openEngine(cmd.Context(), true)
	if err != nil {
		return outputError(w, "calls outgoing", err)
	}
	defer e.Close()

	ch := e.CallHierarchy()
	item, err := prepareItem(cmd.Context(), ch, args)
	if err != nil {
		return outputError(w, "calls outgoing", err)
	}
	calls, err := ch.Outgoing(cmd.Context(), item)
	if err != nil {
		return outputError(w, "calls outgoing", err)
	}
	out := make([]CLIEdge, 0, len(calls))
	for _, c := range calls {
		out = append(out, edgeToCLI(c.To, c.FromRanges))
	}
	total := len(out)
	return outputResult(w, CLIResult{Command: "calls outgoing", Results: out, TotalCount: &total})
}

func runCallsIncoming(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	e, err := openEngine(cmd.Context(), true)
	if err != nil {
		return outputError(w, "calls incoming", err)
	}
	defer e.Close()

	ch := e.CallHierarchy()
	item, err := prepareItem(cmd.Context(), ch, args)
	if err != nil {
		return outputError(w, "calls incoming", err)
	}
	calls, err := ch.Incoming(cmd.Context(), item)
	if err != nil {
		return outputError(w, "calls incoming", err)
	}
	out := make([]CLIEdge, 0, len(calls))
	for _, c := range calls {
		out = append(out, edgeToCLI(c.From, c.FromRanges))
	}
	total := len(out)
	return outputResult(w, CLIResult{Command: "calls incoming", Results: out, TotalCount: &total})
}

func itemToCLI(item gdlgraph.CallHierarchyItem) CLIItem {
	out := CLIItem{
		Name:           item.Name,
		Kind:           kindName(item.Kind),
		File:           item.URI,
		Range:          rangeToCLI(item.Range),
		SelectionRange: rangeToCLI(item.SelectionRange),
	}
	if path, err := gdlgraph.URIToPath(item.URI); err == nil {
		out.File = path
	}
	if item.Detail != nil {
		out.Detail = *item.Detail
	}
	return out
}

func edgeToCLI(item gdlgraph.CallHierarchyItem, sites []gdlgraph.Range) CLIEdge {
	out := CLIEdge{Item: itemToCLI(item), Sites: make([]CLIRange, 0, len(sites))}
	for _, r := range sites {
		out.Sites = append(out.Sites, rangeToCLI(r))
	}
	return out
}

func kindName(k gdlgraph.SymbolKind) string {
	switch k {
	case gdlgraph.SymbolKindFile:
		return "file"
	case gdlgraph.SymbolKindObject:
		return "call"
	default:
		return fmt.Sprintf("kind(%d)", k)
	}
}
