package main

import (
	"github.com/spf13/cobra"

	"github.com/jward/gdlgraph"
)

var (
	flagActive string
	flagLimit  int
	flagByRoot bool
)

func newPartsCmd() *cobra.Command {
	flagActive, flagLimit, flagByRoot = "", 0, false
	cmd := &cobra.Command{
		Use:   "parts [query]",
		Short: "List library parts, optionally filtered by a fuzzy name or GUID query",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runParts,
	}
	cmd.Flags().StringVar(&flagActive, "active", "", "active editor file used to pick each part's open target")
	cmd.Flags().IntVar(&flagLimit, "limit", 0, "maximum number of parts to print (0 = all)")
	cmd.Flags().BoolVar(&flagByRoot, "by-root", false, "group parts by workspace root with a count per root")
	return cmd
}

func runParts(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	e, err := openEngine(cmd.Context(), true)
	if err != nil {
		return outputError(w, "parts", err)
	}
	defer e.Close()

	active := flagActive
	if active != "" {
		if active, err = resolveFilePath(active); err != nil {
			return outputError(w, "parts", err)
		}
	}
	var query string
	if len(args) == 1 {
		query = args[0]
	}

	candidates := e.Lookup(query, active)
	if flagByRoot {
		groups := groupByRoot(e.PartsByRoot(), candidates)
		total := len(groups)
		return outputResult(w, CLIResult{Command: "parts", Results: groups, TotalCount: &total})
	}
	total := len(candidates)
	if flagLimit > 0 && len(candidates) > flagLimit {
		candidates = candidates[:flagLimit]
	}
	out := make([]CLIPart, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, partToCLI(c))
	}
	return outputResult(w, CLIResult{Command: "parts", Results: out, TotalCount: &total})
}

func partToCLI(c gdlgraph.Candidate) CLIPart {
	return CLIPart{
		Name:          c.Part.Name,
		GUID:          c.Part.GUID,
		Root:          c.Part.Root,
		WorkspaceRoot: c.Part.WorkspaceRoot,
		Scripts:       scriptCodes(c.Part),
		OpenTarget:    c.OpenTarget,
	}
}

// groupByRoot arranges the matching candidates under their workspace roots,
// keeping every root, including roots with no match.
func groupByRoot(groups []gdlgraph.RootGroup, candidates []gdlgraph.Candidate) []CLIRootGroup {
	byPart := make(map[string]gdlgraph.Candidate, len(candidates))
	for _, c := range candidates {
		byPart[c.Part.Root] = c
	}
	out := make([]CLIRootGroup, 0, len(groups))
	for _, g := range groups {
		rg := CLIRootGroup{Root: g.Root, Parts: []CLIPart{}}
		for _, p := range g.Parts {
			if c, ok := byPart[p.Root]; ok {
				rg.Parts = append(rg.Parts, partToCLI(c))
			}
		}
		rg.Count = len(rg.Parts)
		out = append(out, rg)
	}
	return out
}
