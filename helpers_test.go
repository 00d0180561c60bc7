package gdlgraph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
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
	return "<LibpartData>\n\t<Identification>\n\t\t<MainGUID>" + guid +
		"</MainGUID>\n\t</Identification>\n</LibpartData>\n"
}

// newTestEngine creates an engine over root without indexing it.
func newTestEngine(t *testing.T, root string, opts ...Option) *Engine {
	t.Helper()
	e, err := New([]string{root}, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}
