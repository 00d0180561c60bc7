package workspace

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/gdlgraph/internal/gdl"
)

func partNames(cands []Candidate) []string {
	names := make([]string, len(cands))
	for i, c := range cands {
		names[i] = c.Part.Name
	}
	return names
}

func libraryTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"Doors/Door Frame/libpartdata.xml": marker("f938e33a-329d-4a36-be3e-85e126820996"),
		"Doors/Door Frame/scripts/1d.gdl":  "call \"Handle\"\n",
		"Doors/Door Frame/scripts/2d.gdl":  "project2 3, 270, 2\n",
		"Doors/Door Frame/paramlist.xml":   "<ParamSection/>",
		"Windows/Window/libpartdata.xml":   marker("not-a-uuid"),
		"Windows/Window/scripts/3d.gdl":    "block 1, 1, 1\n",
		"Handles/Handle/libpartdata.xml":   "<LibpartData/>",
		"Handles/Handle/scripts/2d.gdl":    "",
		"Handles/Handle/calledmacros.xml":  "<CalledMacros/>",
	})
	return root
}

// =============================================================================
// Refresh
// =============================================================================

func TestIndex_Refresh(t *testing.T) {
	t.Parallel()
	root := libraryTree(t)
	ix := newTestIndex(t, root)
	require.NoError(t, ix.Refresh(context.Background()))

	parts := ix.Parts()
	require.Len(t, parts, 3)
	assert.Equal(t, []string{"Door Frame", "Handle", "Window"},
		[]string{parts[0].Name, parts[1].Name, parts[2].Name})

	door := parts[0]
	assert.Equal(t, filepath.Join(root, "Doors", "Door Frame"), door.Root)
	assert.Equal(t, "f938e33a-329d-4a36-be3e-85e126820996", door.GUID, "GUID is kept as declared")
	assert.Equal(t, []gdl.ScriptType{gdl.Master, gdl.Script2D, gdl.ParamSection}, door.ScriptTypes())
	assert.Equal(t, root, door.WorkspaceRoot)

	assert.Equal(t, "", parts[1].GUID, "marker without GUID")
	assert.Equal(t, []gdl.ScriptType{gdl.Script2D, gdl.CalledMacros}, parts[1].ScriptTypes())
	assert.Equal(t, "not-a-uuid", parts[2].GUID)
}

func TestIndex_RefreshReplacesParts(t *testing.T) {
	t.Parallel()
	root := libraryTree(t)
	ix := newTestIndex(t, root)
	require.NoError(t, ix.Refresh(context.Background()))
	require.Len(t, ix.Parts(), 3)

	writeTree(t, root, map[string]string{"Stairs/Stair/libpartdata.xml": marker("")})
	require.NoError(t, ix.Refresh(context.Background()))
	assert.Len(t, ix.Parts(), 4)
}

func TestIndex_MultipleRoots(t *testing.T) {
	t.Parallel()
	a, b := t.TempDir(), t.TempDir()
	writeTree(t, a, map[string]string{"Door/libpartdata.xml": marker("")})
	writeTree(t, b, map[string]string{"Window/libpartdata.xml": marker(""), "Stair/libpartdata.xml": marker("")})

	ix := newTestIndex(t, a, b, a)
	assert.Len(t, ix.Roots(), 2, "duplicate roots collapse")
	require.NoError(t, ix.Refresh(context.Background()))

	grouped := ix.PartsByRoot()
	require.Len(t, grouped, 2)
	assert.Equal(t, a, grouped[0].Root)
	assert.Equal(t, []string{"Door"}, []string{grouped[0].Parts[0].Name})
	assert.Equal(t, b, grouped[1].Root)
	require.Len(t, grouped[1].Parts, 2)
	assert.Equal(t, "Stair", grouped[1].Parts[0].Name)
	assert.Equal(t, "Window", grouped[1].Parts[1].Name)
}

func TestIndex_PartsByRootListsEmptyRoots(t *testing.T) {
	t.Parallel()
	a, empty := t.TempDir(), t.TempDir()
	writeTree(t, a, map[string]string{"Door/libpartdata.xml": marker("")})

	ix := newTestIndex(t, a, empty)
	require.NoError(t, ix.Refresh(context.Background()))
	grouped := ix.PartsByRoot()
	require.Len(t, grouped, 2)
	assert.Len(t, grouped[0].Parts, 1)
	assert.Equal(t, empty, grouped[1].Root)
	assert.Empty(t, grouped[1].Parts)
}

func TestIndex_MissingRootIsSkipped(t *testing.T) {
	t.Parallel()
	root := libraryTree(t)
	ix := newTestIndex(t, filepath.Join(root, "does-not-exist"), root)
	require.NoError(t, ix.Refresh(context.Background()))
	assert.Len(t, ix.Parts(), 3)
}

func TestIndex_RefreshCanceledKeepsPreviousIndex(t *testing.T) {
	t.Parallel()
	root := libraryTree(t)
	ix := newTestIndex(t, root)
	require.NoError(t, ix.Refresh(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ix.Refresh(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, ix.Parts(), 3)
}

func TestIndex_CustomMarker(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"Door/part.xml":          marker(""),
		"Window/libpartdata.xml": marker(""),
	})
	ix := newTestIndex(t, root)
	WithMarker("part.xml")(ix)
	require.NoError(t, ix.Refresh(context.Background()))
	parts := ix.Parts()
	require.Len(t, parts, 1)
	assert.Equal(t, "Door", parts[0].Name)
}

// =============================================================================
// Queries
// =============================================================================

func TestIndex_PartsByName(t *testing.T) {
	t.Parallel()
	ix := newTestIndex(t, libraryTree(t))
	require.NoError(t, ix.Refresh(context.Background()))

	got, err := ix.PartsByName("door frame")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Door Frame", got[0].Name)
}

func TestMarkerGUID_KeepsDeclaredText(t *testing.T) {
	t.Parallel()
	tests := []struct {
		text string
		want string
	}{
		{marker("{F938E33A-329D-4A36-BE3E-85E126820996}"), "{F938E33A-329D-4A36-BE3E-85E126820996}"},
		{marker("f938e33a-329d-4a36-be3e-85e126820996"), "f938e33a-329d-4a36-be3e-85e126820996"},
		{"<MainGUID>  abc-1 </MainGUID>", "abc-1"},
		{"<LibpartData/>", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, markerGUID(tt.text))
	}
}

func TestIndex_PartForFile(t *testing.T) {
	t.Parallel()
	root := libraryTree(t)
	ix := newTestIndex(t, root)
	require.NoError(t, ix.Refresh(context.Background()))

	p, err := ix.PartForFile(filepath.Join(root, "Windows", "Window", "scripts", "3d.gdl"))
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Window", p.Name)

	p, err = ix.PartForFile(filepath.Join(root, "loose.gdl"))
	require.NoError(t, err)
	assert.Nil(t, p)
}

// =============================================================================
// Fuzzy lookup
// =============================================================================

func TestFuzzyMatch(t *testing.T) {
	t.Parallel()
	assert.True(t, FuzzyMatch("", "anything"))
	assert.True(t, FuzzyMatch("dfr", "Door Frame"))
	assert.True(t, FuzzyMatch("DOORFRAME", "Door Frame"))
	assert.True(t, FuzzyMatch("är", "ÄRGER"))
	assert.False(t, FuzzyMatch("frd", "Door Frame"), "order matters")
	assert.False(t, FuzzyMatch("x", "Door Frame"))
}

func TestFuzzyMatch_SubsequenceProperty(t *testing.T) {
	t.Parallel()
	name := "Door Frame 2"
	runes := []rune(name)
	// Every query formed by deleting characters matches.
	for mask := 0; mask < 1<<len(runes); mask += 37 {
		var q strings.Builder
		for i, r := range runes {
			if mask&(1<<i) == 0 {
				q.WriteRune(r)
			}
		}
		assert.True(t, FuzzyMatch(q.String(), name), q.String())
	}
}

func TestIndex_Lookup(t *testing.T) {
	t.Parallel()
	ix := newTestIndex(t, libraryTree(t))
	require.NoError(t, ix.Refresh(context.Background()))

	assert.Equal(t, []string{"Door Frame", "Handle", "Window"}, partNames(ix.Lookup("", "")))
	assert.Equal(t, []string{"Door Frame", "Handle"}, partNames(ix.Lookup("de", "")))
	assert.Equal(t, []string{"Door Frame"}, partNames(ix.Lookup("F938E33A", "")), "GUID match")
	assert.Empty(t, ix.Lookup("zzz", ""))
}

func TestIndex_LookupByWholeGUID(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"Door/libpartdata.xml":   marker("{F938E33A-329D-4A36-BE3E-85E126820996}"),
		"Window/libpartdata.xml": marker("not-a-uuid"),
	})
	ix := newTestIndex(t, root)
	require.NoError(t, ix.Refresh(context.Background()))

	door := ix.Lookup("{F938E33A", "")
	require.Len(t, door, 1)
	assert.Equal(t, "{F938E33A-329D-4A36-BE3E-85E126820996}", door[0].Part.GUID, "declared text is kept")

	for _, q := range []string{
		"f938e33a-329d-4a36-be3e-85e126820996",
		"urn:uuid:f938e33a-329d-4a36-be3e-85e126820996",
	} {
		assert.Equal(t, []string{"Door"}, partNames(ix.Lookup(q, "")), q)
	}
	assert.Equal(t, []string{"Window"}, partNames(ix.Lookup("not-a-uuid", "")))
}

func TestIndex_LookupOpenTarget(t *testing.T) {
	t.Parallel()
	root := libraryTree(t)
	ix := newTestIndex(t, root)
	require.NoError(t, ix.Refresh(context.Background()))
	door := filepath.Join(root, "Doors", "Door Frame")
	active := func(rel string) string { return filepath.Join(root, "Other", filepath.FromSlash(rel)) }

	tests := []struct {
		active string
		want   string
	}{
		{"", filepath.Join(door, "libpartdata.xml")},
		{active("scripts/2d.gdl"), filepath.Join(door, "scripts", "2d.gdl")},
		{active("scripts/3d.gdl"), filepath.Join(door, "libpartdata.xml")},
		{active("paramlist.xml"), filepath.Join(door, "paramlist.xml")},
		{active("ancestry.xml"), filepath.Join(door, "libpartdata.xml")},
	}
	for _, tt := range tests {
		cands := ix.Lookup("door frame", tt.active)
		require.Len(t, cands, 1)
		assert.Equal(t, tt.want, cands[0].OpenTarget, tt.active)
	}
}
