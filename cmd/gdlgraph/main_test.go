package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests drive the command tree in-process. The flag variables are
// package globals, so none of them run in parallel.

func writeLibrary(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"Macros/X/libpartdata.xml": "<LibpartData><MainGUID>AAAA-1</MainGUID></LibpartData>\n",
		"Macros/X/scripts/2d.gdl":  "rect2 0, 0, 1, 1\n",

		"Objects/A/libpartdata.xml": "<LibpartData><MainGUID>BBBB-2</MainGUID></LibpartData>\n",
		"Objects/A/scripts/2d.gdl":  "project2 3, 270, 2\ncall \"X\"\n",

		"Objects/Y/libpartdata.xml": "<LibpartData></LibpartData>\n",
		"Objects/Y/scripts/1d.gdl":  "call \"X\"\n",
		"Objects/Y/scripts/3d.gdl":  "!\n!=====\n! Body\n!=====\ncall \"W\"\n",
	}
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("GDLGRAPH_ROOTS", "")
	t.Setenv("GDLGRAPH_LOG_LEVEL", "")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// decode unmarshals the JSON envelope, leaving Results as raw JSON.
func decode(t *testing.T, out string, results any) CLIResult {
	t.Helper()
	var env struct {
		CLIResult
		Results json.RawMessage `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &env), out)
	if results != nil {
		require.NoError(t, json.Unmarshal(env.Results, results))
	}
	return env.CLIResult
}

// =============================================================================
// Helpers
// =============================================================================

func TestParseIntArg(t *testing.T) {
	t.Parallel()

	n, err := parseIntArg("12", "line")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	_, err = parseIntArg("x", "line")
	assert.ErrorContains(t, err, `invalid line "x"`)
	_, err = parseIntArg("-1", "col")
	assert.ErrorContains(t, err, "must be non-negative")
}

func TestValidateFormat(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validateFormat("json"))
	assert.NoError(t, validateFormat("text"))
	assert.ErrorContains(t, validateFormat("yaml"), `invalid format "yaml"`)
}

func TestResolveFilePath(t *testing.T) {
	t.Parallel()

	got, err := resolveFilePath("/a/b/../c.gdl")
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean("/a/c.gdl"), got)

	got, err = resolveFilePath("c.gdl")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
}

// =============================================================================
// Commands
// =============================================================================

func TestParts(t *testing.T) {
	root := writeLibrary(t)

	out, err := runCLI(t, "--root", root, "parts")
	require.NoError(t, err)
	var parts []CLIPart
	res := decode(t, out, &parts)
	assert.Equal(t, "parts", res.Command)
	require.NotNil(t, res.TotalCount)
	assert.Equal(t, 3, *res.TotalCount)
	require.Len(t, parts, 3)
	assert.Equal(t, []string{"A", "X", "Y"}, []string{parts[0].Name, parts[1].Name, parts[2].Name})
	assert.Equal(t, "BBBB-2", parts[0].GUID)
	assert.Equal(t, filepath.Join(root, "Objects", "A", "scripts", "2d.gdl"), parts[0].Scripts["DD"])
}

func TestParts_QueryAndLimit(t *testing.T) {
	root := writeLibrary(t)
	active := filepath.Join(root, "Objects", "A", "scripts", "2d.gdl")

	out, err := runCLI(t, "--root", root, "parts", "x", "--active", active)
	require.NoError(t, err)
	var parts []CLIPart
	decode(t, out, &parts)
	require.Len(t, parts, 1)
	assert.Equal(t, "X", parts[0].Name)
	assert.Equal(t, filepath.Join(root, "Macros", "X", "scripts", "2d.gdl"), parts[0].OpenTarget)

	out, err = runCLI(t, "--root", root, "parts", "--limit", "1")
	require.NoError(t, err)
	res := decode(t, out, &parts)
	assert.Len(t, parts, 1)
	assert.Equal(t, 3, *res.TotalCount)
}

func TestParts_Text(t *testing.T) {
	root := writeLibrary(t)

	out, err := runCLI(t, "--root", root, "--format", "text", "parts", "--limit", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "BBBB-2")
	assert.Contains(t, out, "Showing 2 of 3 results")
}

func TestParts_ByRoot(t *testing.T) {
	lib := writeLibrary(t)
	empty := t.TempDir()

	out, err := runCLI(t, "--root", lib, "--root", empty, "parts", "--by-root")
	require.NoError(t, err)
	var groups []CLIRootGroup
	res := decode(t, out, &groups)
	assert.Equal(t, "parts", res.Command)
	require.Len(t, groups, 2)
	assert.Equal(t, lib, groups[0].Root)
	assert.Equal(t, 3, groups[0].Count)
	require.Len(t, groups[0].Parts, 3)
	assert.Equal(t, "A", groups[0].Parts[0].Name)
	assert.Equal(t, empty, groups[1].Root)
	assert.Zero(t, groups[1].Count)
	assert.Empty(t, groups[1].Parts)

	out, err = runCLI(t, "--root", lib, "parts", "x", "--by-root")
	require.NoError(t, err)
	var matched []CLIRootGroup
	decode(t, out, &matched)
	require.Len(t, matched, 1)
	assert.Equal(t, 1, matched[0].Count, "only matching parts are grouped")
	assert.Equal(t, "X", matched[0].Parts[0].Name)
}

func TestParts_ByRootText(t *testing.T) {
	lib := writeLibrary(t)
	empty := t.TempDir()

	out, err := runCLI(t, "--root", lib, "--root", empty, "--format", "text", "parts", "--by-root")
	require.NoError(t, err)
	assert.Contains(t, out, lib+" (3 parts)")
	assert.Contains(t, out, empty+" (0 parts)")
	assert.Contains(t, out, "BBBB-2")
}

func TestParse(t *testing.T) {
	root := writeLibrary(t)
	file := filepath.Join(root, "Objects", "Y", "scripts", "3d.gdl")

	out, err := runCLI(t, "--root", root, "parse", file)
	require.NoError(t, err)
	var doc CLIDocument
	decode(t, out, &doc)
	assert.Equal(t, file, doc.File)
	require.Len(t, doc.Calls, 1)
	assert.Equal(t, "W", doc.Calls[0].Name)
	assert.Equal(t, 4, doc.Calls[0].Line)
	require.Len(t, doc.Comments, 1)
	assert.Equal(t, "Body", doc.Comments[0].Name)
}

func TestParse_MissingFile(t *testing.T) {
	root := writeLibrary(t)

	out, err := runCLI(t, "--root", root, "parse", filepath.Join(root, "nope.gdl"))
	require.Error(t, err)
	res := decode(t, out, nil)
	assert.Equal(t, "parse", res.Command)
	assert.Contains(t, res.Error, "nope.gdl")
}

func TestCallsPrepare(t *testing.T) {
	root := writeLibrary(t)
	file := filepath.Join(root, "Objects", "A", "scripts", "2d.gdl")

	out, err := runCLI(t, "--root", root, "calls", "prepare", file, "1", "6")
	require.NoError(t, err)
	var items []CLIItem
	decode(t, out, &items)
	require.Len(t, items, 1)
	assert.Equal(t, "X", items[0].Name)
	assert.Equal(t, "call", items[0].Kind)
	assert.Equal(t, file, items[0].File)
	assert.Equal(t, "[DD] 2D Script", items[0].Detail)
	assert.Equal(t, CLIRange{StartLine: 1, StartCol: 6, EndLine: 1, EndCol: 7}, items[0].SelectionRange)
}

func TestCallsIncoming(t *testing.T) {
	root := writeLibrary(t)
	file := filepath.Join(root, "Macros", "X", "scripts", "2d.gdl")

	out, err := runCLI(t, "--root", root, "calls", "incoming", file)
	require.NoError(t, err)
	var edges []CLIEdge
	decode(t, out, &edges)
	require.Len(t, edges, 2)
	assert.Equal(t, "A", edges[0].Item.Name)
	assert.Equal(t, "[DD] 2D Script", edges[0].Item.Detail)
	assert.Equal(t, []CLIRange{{StartLine: 1, StartCol: 6, EndLine: 1, EndCol: 7}}, edges[0].Sites)
	assert.Equal(t, "Y", edges[1].Item.Name)
	assert.Equal(t, "[D] Master Script", edges[1].Item.Detail)
}

func TestCallsIncoming_ContextFlag(t *testing.T) {
	root := writeLibrary(t)
	file := filepath.Join(root, "Macros", "X", "scripts", "2d.gdl")

	out, err := runCLI(t, "--root", root, "calls", "incoming", file, "--context", "DDD")
	require.NoError(t, err)
	var edges []CLIEdge
	decode(t, out, &edges)
	require.Len(t, edges, 1, "only Y's master script is in a 3D search")
	assert.Equal(t, "Y", edges[0].Item.Name)

	_, err = runCLI(t, "--root", root, "calls", "incoming", file, "--context", "XYZ")
	assert.Error(t, err)
}

func TestCallsOutgoing(t *testing.T) {
	root := writeLibrary(t)
	file := filepath.Join(root, "Objects", "A", "scripts", "2d.gdl")

	out, err := runCLI(t, "--root", root, "calls", "outgoing", file)
	require.NoError(t, err)
	var edges []CLIEdge
	res := decode(t, out, &edges)
	assert.Equal(t, "calls outgoing", res.Command)
	require.Len(t, edges, 1)
	assert.Equal(t, "X", edges[0].Item.Name)
	assert.Equal(t, "call", edges[0].Item.Kind)
	assert.Len(t, edges[0].Sites, 1)
}

func TestCallsOutgoing_Text(t *testing.T) {
	root := writeLibrary(t)
	file := filepath.Join(root, "Objects", "A", "scripts", "2d.gdl")

	out, err := runCLI(t, "--root", root, "--format", "text", "calls", "outgoing", file)
	require.NoError(t, err)
	assert.Contains(t, out, "DETAIL")
	assert.Contains(t, out, "[DD] 2D Script")
}

func TestCalls_BadArgs(t *testing.T) {
	root := writeLibrary(t)
	file := filepath.Join(root, "Objects", "A", "scripts", "2d.gdl")

	_, err := runCLI(t, "--root", root, "calls", "incoming", file, "1")
	assert.ErrorContains(t, err, "requires <file> or <file> <line> <col>")

	out, err := runCLI(t, "--root", root, "calls", "prepare", file, "one", "2")
	require.Error(t, err)
	res := decode(t, out, nil)
	assert.Contains(t, res.Error, `invalid line "one"`)
}

func TestInvalidFormat(t *testing.T) {
	_, err := runCLI(t, "--format", "yaml", "parts")
	assert.ErrorContains(t, err, `invalid format "yaml"`)
}

func TestConfigFile(t *testing.T) {
	root := writeLibrary(t)
	cfgPath := filepath.Join(t.TempDir(), "gdlgraph.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("roots = [\""+filepath.ToSlash(root)+"\"]\n\n[index]\nexclude = [\"Macros/**\"]\n"), 0o644))

	out, err := runCLI(t, "--config", cfgPath, "parts")
	require.NoError(t, err)
	var parts []CLIPart
	decode(t, out, &parts)
	require.Len(t, parts, 2)
	assert.Equal(t, "A", parts[0].Name)
	assert.Equal(t, "Y", parts[1].Name)
}
