package store

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/jward/gdlgraph/internal/gdl"
)

const partColumns = "id, root, name, guid, marker, workspace_root"

// ReplaceParts swaps the whole part table for parts inside one transaction.
// IDs are assigned on insert and written back to each part.
func (s *Store) ReplaceParts(parts []*LibraryPart) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("replace parts: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM part_scripts"); err != nil {
		return fmt.Errorf("replace parts: clear scripts: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM library_parts"); err != nil {
		return fmt.Errorf("replace parts: clear parts: %w", err)
	}

	partStmt, err := tx.Prepare("INSERT INTO library_parts (root, name, guid, marker, workspace_root) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("replace parts: prepare: %w", err)
	}
	defer partStmt.Close()
	scriptStmt, err := tx.Prepare("INSERT INTO part_scripts (part_id, script_type, path) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("replace parts: prepare scripts: %w", err)
	}
	defer scriptStmt.Close()

	for _, p := range parts {
		res, err := partStmt.Exec(p.Root, p.Name, p.GUID, p.Marker, p.WorkspaceRoot)
		if err != nil {
			return fmt.Errorf("replace parts: insert %s: %w", p.Root, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("replace parts: last insert id: %w", err)
		}
		p.ID = id
		for t, path := range p.Scripts {
			if _, err := scriptStmt.Exec(id, int(t), path); err != nil {
				return fmt.Errorf("replace parts: insert script %s: %w", path, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace parts: commit: %w", err)
	}
	return nil
}

// Parts returns every part ordered by name, then root.
func (s *Store) Parts() ([]*LibraryPart, error) {
	return s.queryParts("SELECT " + partColumns + " FROM library_parts ORDER BY name COLLATE NOCASE, root")
}

// PartsByName returns the parts whose name equals name, ignoring case.
func (s *Store) PartsByName(name string) ([]*LibraryPart, error) {
	return s.queryParts("SELECT "+partColumns+" FROM library_parts WHERE name = ? COLLATE NOCASE ORDER BY root", name)
}

// PartContaining returns the part whose root is path or an ancestor of it.
// The deepest root wins. Returns nil, nil when no part contains path.
func (s *Store) PartContaining(path string) (*LibraryPart, error) {
	parts, err := s.queryParts(
		"SELECT "+partColumns+" FROM library_parts WHERE root = ? OR substr(?, 1, length(root) + 1) = root || ? ORDER BY length(root) DESC LIMIT 1",
		path, path, string(filepath.Separator),
	)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, nil
	}
	return parts[0], nil
}

// queryParts runs a part query and attaches script paths. Rows are fully
// drained before the script query because the pool has a single connection.
func (s *Store) queryParts(query string, args ...any) ([]*LibraryPart, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query parts: %w", err)
	}
	parts := []*LibraryPart{}
	byID := make(map[int64]*LibraryPart)
	for rows.Next() {
		p := &LibraryPart{Scripts: make(map[gdl.ScriptType]string)}
		if err := rows.Scan(&p.ID, &p.Root, &p.Name, &p.GUID, &p.Marker, &p.WorkspaceRoot); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan part: %w", err)
		}
		parts = append(parts, p)
		byID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("query parts: %w", err)
	}
	rows.Close()

	if err := s.attachScripts(byID); err != nil {
		return nil, err
	}
	return parts, nil
}

func (s *Store) attachScripts(byID map[int64]*LibraryPart) error {
	if len(byID) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	rows, err := s.db.Query(
		"SELECT part_id, script_type, path FROM part_scripts WHERE part_id IN ("+placeholderList(len(ids))+")",
		int64sToArgs(ids)...,
	)
	if err != nil {
		return fmt.Errorf("query part scripts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			partID int64
			st     int
			path   sql.NullString
		)
		if err := rows.Scan(&partID, &st, &path); err != nil {
			return fmt.Errorf("scan part script: %w", err)
		}
		if p := byID[partID]; p != nil && path.Valid {
			p.Scripts[gdl.ScriptType(st)] = path.String
		}
	}
	return rows.Err()
}
