// Package cache holds parsed script files keyed by path so repeated
// incoming-call searches do not re-read and re-parse unchanged files.
package cache

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/jward/gdlgraph/internal/gdl"
)

// Loader reads and parses one file.
type Loader func(ctx context.Context, path string) (*gdl.ParsedDocument, error)

// MacroCalls maps file paths to their parse results. Entries live until
// invalidated; there is no expiry.
type MacroCalls struct {
	load  Loader
	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]*gdl.ParsedDocument
	// gen is bumped per path by Invalidate and epoch by Clear. Both are part
	// of the flight key, so a Get after either starts a fresh load instead of
	// joining one that may have read the old file, and the old load does not
	// store its result.
	gen   map[string]uint64
	epoch uint64
}

// NewMacroCalls creates an empty cache that fills itself with load.
func NewMacroCalls(load Loader) *MacroCalls {
	return &MacroCalls{
		load:    load,
		entries: make(map[string]*gdl.ParsedDocument),
		gen:     make(map[string]uint64),
	}
}

// Get returns the cached parse of path, loading it on a miss. Concurrent
// misses for the same path share one load. A canceled ctx returns promptly
// even while a shared load is still running.
func (c *MacroCalls) Get(ctx context.Context, path string) (*gdl.ParsedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := filepath.Clean(path)

	c.mu.RLock()
	doc, ok := c.entries[key]
	gen, epoch := c.gen[key], c.epoch
	c.mu.RUnlock()
	if ok {
		cacheHits.Inc()
		return doc, nil
	}
	cacheMisses.Inc()

	flight := fmt.Sprintf("%s\x00%d.%d", key, epoch, gen)
	ch := c.group.DoChan(flight, func() (any, error) {
		doc, err := c.load(context.WithoutCancel(ctx), key)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.gen[key] == gen && c.epoch == epoch {
			c.entries[key] = doc
		}
		c.mu.Unlock()
		return doc, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("cache load %s: %w", key, res.Err)
		}
		return res.Val.(*gdl.ParsedDocument), nil
	}
}

// Invalidate drops the entry for path. It reports whether one was present.
func (c *MacroCalls) Invalidate(path string) bool {
	key := filepath.Clean(path)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen[key]++
	_, ok := c.entries[key]
	delete(c.entries, key)
	if ok {
		cacheInvalidations.Inc()
	}
	return ok
}

// Clear drops every entry.
func (c *MacroCalls) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	clear(c.entries)
}

// Len returns the number of cached files.
func (c *MacroCalls) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
