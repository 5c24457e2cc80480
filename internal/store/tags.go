package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// RelinkNoteTags re-derives a note's tag set from content and atomically
// replaces its associations: clear, then find-or-create and link each
// extracted tag. Returns the applied tag names.
func (s *Store) RelinkNoteTags(ctx context.Context, noteID int64, content string) ([]string, error) {
	var exists int
	err := s.queryRow(ctx, `SELECT 1 FROM notes WHERE id = ?`, noteID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("note %d: %w", noteID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	tx, err := s.beginTx(ctx, "relink tags")
	if err != nil {
		return nil, err
	}
	defer rollback(tx, "relink tags")

	if err := relinkTagsTx(ctx, tx, noteID, content); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ExtractTags(content), nil
}

// relinkTagsTx is the shared tag-replacement step used by every write that
// changes note content. Re-adding an existing association is a no-op.
func relinkTagsTx(ctx context.Context, tx *sql.Tx, noteID int64, content string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM note_tags WHERE note_id = ?`, noteID); err != nil {
		return fmt.Errorf("clear note tags: %w", err)
	}
	now := time.Now().Unix()
	for _, name := range ExtractTags(content) {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO tags(name, created_at) VALUES(?, ?)
		`, name, now); err != nil {
			return fmt.Errorf("create tag %q: %w", name, err)
		}
		var tagID int64
		if err := tx.QueryRowContext(ctx, `SELECT id FROM tags WHERE name = ?`, name).Scan(&tagID); err != nil {
			return fmt.Errorf("lookup tag %q: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO note_tags(note_id, tag_id, created_at) VALUES(?, ?, ?)
		`, noteID, tagID, now); err != nil {
			return fmt.Errorf("link tag %q: %w", name, err)
		}
	}
	return nil
}

// TagsForNote returns the note's tag names in alphabetical order.
func (s *Store) TagsForNote(ctx context.Context, noteID int64) ([]string, error) {
	rows, err := s.query(ctx, `
		SELECT tags.name FROM tags
		JOIN note_tags ON tags.id = note_tags.tag_id
		WHERE note_tags.note_id = ?
		ORDER BY tags.name
	`, noteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ListTags returns every tag with its usage count over active notes. Counts
// are computed from the join table, never stored; orphaned tags show up
// with a count of zero.
func (s *Store) ListTags(ctx context.Context) ([]TagSummary, error) {
	rows, err := s.query(ctx, `
		SELECT tags.name, COUNT(notes.id)
		FROM tags
		LEFT JOIN note_tags ON tags.id = note_tags.tag_id
		LEFT JOIN notes ON notes.id = note_tags.note_id AND notes.deleted_at IS NULL
		GROUP BY tags.id, tags.name
		ORDER BY tags.name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []TagSummary
	for rows.Next() {
		var t TagSummary
		if err := rows.Scan(&t.Name, &t.Count); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// NotesForTag returns the active notes carrying the tag, most recently
// updated first.
func (s *Store) NotesForTag(ctx context.Context, name string) ([]NoteSummary, error) {
	return s.listNotes(ctx, `
		SELECT notes.id, notes.title, substr(notes.content, 1, ?), notes.folder_id,
		       notes.created_at, notes.updated_at, notes.deleted_at
		FROM notes
		JOIN note_tags ON notes.id = note_tags.note_id
		JOIN tags ON note_tags.tag_id = tags.id
		WHERE tags.name = ? AND notes.deleted_at IS NULL
		ORDER BY notes.updated_at DESC, notes.id DESC
	`, notePreviewLen, strings.ToLower(name))
}

// DeleteTag removes an unused tag. A tag with any remaining association
// (including to trashed notes) is rejected with ErrTagInUse; deleting an
// unused tag is the only way tags go away, they are never garbage-collected.
func (s *Store) DeleteTag(ctx context.Context, name string) error {
	name = strings.ToLower(name)

	tx, err := s.beginTx(ctx, "delete tag")
	if err != nil {
		return err
	}
	defer rollback(tx, "delete tag")

	var tagID int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM tags WHERE name = ?`, name).Scan(&tagID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("tag %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return err
	}

	var used int
	if err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM note_tags WHERE tag_id = ?
	`, tagID).Scan(&used); err != nil {
		return err
	}
	if used > 0 {
		return fmt.Errorf("tag %q has %d notes: %w", name, used, ErrTagInUse)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, tagID); err != nil {
		return err
	}
	return tx.Commit()
}
