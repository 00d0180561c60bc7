package gdlgraph

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/jward/gdlgraph/internal/gdl"
	"github.com/jward/gdlgraph/internal/store"
	"github.com/jward/gdlgraph/internal/workspace"
)

// Public type aliases for the internal types used in the Engine API.
// External consumers use these names; no conversion is needed.

type LibraryPart = store.LibraryPart
type ScriptType = gdl.ScriptType
type ParsedDocument = gdl.ParsedDocument
type Candidate = workspace.Candidate
type RootGroup = workspace.RootGroup

type Position = protocol.Position
type Range = protocol.Range
type CallHierarchyItem = protocol.CallHierarchyItem
type IncomingCall = protocol.CallHierarchyIncomingCall
type OutgoingCall = protocol.CallHierarchyOutgoingCall
type FileSystem = workspace.FileSystem
type SymbolKind = protocol.SymbolKind

// Item kinds produced by the call hierarchy: whole files and call sites.
const (
	SymbolKindFile   = protocol.SymbolKindFile
	SymbolKindObject = protocol.SymbolKindObject
)
