package gdlgraph

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/jward/gdlgraph/internal/gdl"
)

// documents holds the text of files open in an editor, which may differ from
// what is on disk.
type documents struct {
	mu   sync.RWMutex
	open map[string]string
}

func newDocuments() *documents {
	return &documents{open: make(map[string]string)}
}

func (d *documents) get(path string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	text, ok := d.open[filepath.Clean(path)]
	return text, ok
}

func (d *documents) set(path, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open[filepath.Clean(path)] = text
}

func (d *documents) remove(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.open, filepath.Clean(path))
}

// DidOpen records the buffer text of an opened file. Prepare and outgoing
// queries read it instead of the file on disk until DidClose.
func (e *Engine) DidOpen(path, text string) { e.docs.set(path, text) }

// DidChange replaces the buffer text of an open file.
func (e *Engine) DidChange(path, text string) { e.docs.set(path, text) }

// DidClose forgets the buffer of path.
func (e *Engine) DidClose(path string) { e.docs.remove(path) }

// loadLive parses the buffer text of path when it is open and the file on
// disk otherwise.
func (e *Engine) loadLive(ctx context.Context, path string) (*gdl.ParsedDocument, error) {
	if text, ok := e.docs.get(path); ok {
		return gdl.Parse(text), nil
	}
	return e.loadDisk(ctx, path)
}

// loadDisk parses the file on disk, ignoring open buffers.
func (e *Engine) loadDisk(ctx context.Context, path string) (*gdl.ParsedDocument, error) {
	text, err := e.fs.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return gdl.Parse(text), nil
}
