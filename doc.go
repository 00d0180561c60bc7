// Package gdlgraph builds a macro call graph over a workspace of GDL library
// parts and answers call hierarchy queries over it.
//
// # Library parts
//
// A library part is found either as a directory holding a marker file
// (libpartdata.xml by default) with one file per script under scripts/, or as
// a single XML file wrapping every script in a per-type section. Both layouts
// are read through the same script source abstraction, so the resolver never
// branches on layout.
//
// # Usage
//
// Create an Engine over the workspace roots, index it, then query:
//
//	e, err := gdlgraph.New([]string{"path/to/library"})
//	if err != nil { ... }
//	defer e.Close()
//
//	ctx := context.Background()
//	err = e.Refresh(ctx)
//
//	ch := e.CallHierarchy()
//	items, err := ch.Prepare(ctx, "path/to/library/Door/scripts/2d.gdl", pos)
//	callers, err := ch.Incoming(ctx, items[0])
//	callees, err := ch.Outgoing(ctx, items[0])
//
// # Search context
//
// Every item carries a script type in a bracketed tag at the start of its
// detail, e.g. "[DD] 2D Script". A master script ("[D]") sees every script of
// a part; any other script sees itself and the master. Items without a tag
// take the script type implied by their file name.
//
// # Caching
//
// Incoming queries read script files from disk and cache their macro calls
// per file until [Engine.Invalidate] is called for that file, which
// [Engine.Watch] does on every change. Outgoing and prepare queries read open
// editor buffers registered with [Engine.DidOpen] and are never cached.
package gdlgraph
