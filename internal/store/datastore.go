package store

// PartStore is the part-index access used by the workspace index.
type PartStore interface {
	ReplaceParts(parts []*LibraryPart) error
	Parts() ([]*LibraryPart, error)
	PartsByName(name string) ([]*LibraryPart, error)
	PartContaining(path string) (*LibraryPart, error)
}

// Compile-time check: *Store satisfies PartStore.
var _ PartStore = (*Store)(nil)
