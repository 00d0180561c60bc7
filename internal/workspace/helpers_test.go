package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jward/gdlgraph/internal/store"
)

// writeTree writes files (slash-separated paths relative to root) under root.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func marker(guid string) string {
	return "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<LibpartData>\n\t<Identification>\n\t\t<MainGUID>" +
		guid + "</MainGUID>\n\t</Identification>\n</LibpartData>\n"
}

func newTestIndex(t *testing.T, roots ...string) *Index {
	t.Helper()
	s, err := store.NewStore()
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return NewIndex(NewOSFileSystem(), s, roots)
}
