package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const notePreviewLen = 100

// CreateNote inserts a note, indexes it for search and links its hashtags,
// all in one transaction. A nil folderID places the note in the owner's
// personal default folder; a nil userID records a legacy (unowned) note,
// which falls back to the shared legacy folder instead.
func (s *Store) CreateNote(ctx context.Context, title, content string, folderID, userID *int64) (*Note, error) {
	if strings.TrimSpace(title) == "" {
		return nil, validationErr("title", "must not be empty")
	}
	if strings.TrimSpace(content) == "" {
		return nil, validationErr("content", "must not be empty")
	}
	target := DefaultFolderID
	switch {
	case folderID != nil:
		target = *folderID
	case userID != nil:
		def, err := s.EnsureDefaultFolder(ctx, *userID)
		if err != nil {
			return nil, err
		}
		target = def.ID
	}

	tx, err := s.beginTx(ctx, "create note")
	if err != nil {
		return nil, err
	}
	defer rollback(tx, "create note")

	now := time.Now().Unix()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO notes(title, content, folder_id, user_id, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?)
	`, title, content, target, nullableID(userID), now, now)
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO notes_fts(note_id, title, content) VALUES(?, ?, ?)
	`, id, title, content); err != nil {
		return nil, mapIndexErr(fmt.Errorf("index note: %w", err))
	}
	if err := relinkTagsTx(ctx, tx, id, content); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, mapIndexErr(err)
	}
	return s.GetNote(ctx, id)
}

// GetNote returns the full note row, including notes in the trash.
func (s *Store) GetNote(ctx context.Context, id int64) (*Note, error) {
	var n Note
	var created, updated int64
	var deleted sql.NullInt64
	err := s.queryRow(ctx, `
		SELECT id, title, content, folder_id, user_id, position, created_at, updated_at, deleted_at
		FROM notes WHERE id = ?
	`, id).Scan(&n.ID, &n.Title, &n.Content, &n.FolderID, &n.UserID, &n.Position, &created, &updated, &deleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("note %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	n.CreatedAt = time.Unix(created, 0).UTC()
	n.UpdatedAt = time.Unix(updated, 0).UTC()
	if deleted.Valid {
		t := time.Unix(deleted.Int64, 0).UTC()
		n.DeletedAt = &t
	}
	return &n, nil
}

// UpdateNoteContent replaces the note body (titles are immutable after
// creation), refreshes the search index row and re-derives the tag set, all
// in one transaction.
func (s *Store) UpdateNoteContent(ctx context.Context, id int64, content string) error {
	if strings.TrimSpace(content) == "" {
		return validationErr("content", "must not be empty")
	}

	tx, err := s.beginTx(ctx, "update note")
	if err != nil {
		return err
	}
	defer rollback(tx, "update note")

	res, err := tx.ExecContext(ctx, `
		UPDATE notes SET content = ?, updated_at = ? WHERE id = ?
	`, content, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return err
	} else if affected == 0 {
		return fmt.Errorf("note %d: %w", id, ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE notes_fts SET content = ? WHERE note_id = ?
	`, content, id); err != nil {
		return mapIndexErr(fmt.Errorf("reindex note: %w", err))
	}
	if err := relinkTagsTx(ctx, tx, id, content); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapIndexErr(err)
	}
	return nil
}

// SoftDeleteNote moves a note to the trash. The search index row is left in
// place; queries filter on deleted_at. Deleting an already-trashed or
// missing note reports ErrNotFound.
func (s *Store) SoftDeleteNote(ctx context.Context, id int64) error {
	res, err := s.exec(ctx, `
		UPDATE notes SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL
	`, time.Now().Unix(), id)
	if err != nil {
		return err
	}
	return requireAffected(res, id)
}

// RestoreNote clears deleted_at. Restoring a note that is not in the trash
// reports ErrNotFound for that transition.
func (s *Store) RestoreNote(ctx context.Context, id int64) error {
	res, err := s.exec(ctx, `
		UPDATE notes SET deleted_at = NULL WHERE id = ? AND deleted_at IS NOT NULL
	`, id)
	if err != nil {
		return err
	}
	return requireAffected(res, id)
}

// PurgeNote permanently removes a note; tag associations cascade and the
// search index entry is dropped in the same transaction.
func (s *Store) PurgeNote(ctx context.Context, id int64) error {
	tx, err := s.beginTx(ctx, "purge note")
	if err != nil {
		return err
	}
	defer rollback(tx, "purge note")

	res, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err != nil {
		return err
	} else if affected == 0 {
		return fmt.Errorf("note %d: %w", id, ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM notes_fts WHERE note_id = ?`, id); err != nil {
		return mapIndexErr(err)
	}
	return tx.Commit()
}

// EmptyTrash purges every trashed note in one transaction and returns the
// number removed.
func (s *Store) EmptyTrash(ctx context.Context) (int64, error) {
	tx, err := s.beginTx(ctx, "empty trash")
	if err != nil {
		return 0, err
	}
	defer rollback(tx, "empty trash")

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM notes_fts WHERE note_id IN (SELECT id FROM notes WHERE deleted_at IS NOT NULL)
	`); err != nil {
		return 0, mapIndexErr(err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE deleted_at IS NOT NULL`)
	if err != nil {
		return 0, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return count, tx.Commit()
}

// MoveNote reassigns the folder without touching position.
func (s *Store) MoveNote(ctx context.Context, id, folderID int64) error {
	res, err := s.exec(ctx, `
		UPDATE notes SET folder_id = ?, updated_at = ? WHERE id = ?
	`, folderID, time.Now().Unix(), id)
	if err != nil {
		return err
	}
	return requireAffected(res, id)
}

// ReorderNote reassigns both folder and position. Note positions are
// caller-supplied; unlike folders they are not compacted automatically.
func (s *Store) ReorderNote(ctx context.Context, id, folderID int64, position int) error {
	if position < 0 {
		position = 0
	}
	res, err := s.exec(ctx, `
		UPDATE notes SET folder_id = ?, position = ?, updated_at = ? WHERE id = ?
	`, folderID, position, time.Now().Unix(), id)
	if err != nil {
		return err
	}
	return requireAffected(res, id)
}

// ListActiveNotes returns all non-trashed notes, most recently updated first.
func (s *Store) ListActiveNotes(ctx context.Context) ([]NoteSummary, error) {
	return s.listNotes(ctx, `
		SELECT id, title, substr(content, 1, ?), folder_id, created_at, updated_at, deleted_at
		FROM notes WHERE deleted_at IS NULL
		ORDER BY updated_at DESC, id DESC
	`, notePreviewLen)
}

// ListTrash returns trashed notes, most recently deleted first.
func (s *Store) ListTrash(ctx context.Context) ([]NoteSummary, error) {
	return s.listNotes(ctx, `
		SELECT id, title, substr(content, 1, ?), folder_id, created_at, updated_at, deleted_at
		FROM notes WHERE deleted_at IS NOT NULL
		ORDER BY deleted_at DESC, id DESC
	`, notePreviewLen)
}

// NotesByFolder returns the active notes in a folder in position order.
func (s *Store) NotesByFolder(ctx context.Context, folderID int64) ([]NoteSummary, error) {
	return s.listNotes(ctx, `
		SELECT id, title, substr(content, 1, ?), folder_id, created_at, updated_at, deleted_at
		FROM notes WHERE folder_id = ? AND deleted_at IS NULL
		ORDER BY position ASC, updated_at DESC
	`, notePreviewLen, folderID)
}

func (s *Store) listNotes(ctx context.Context, query string, args ...any) ([]NoteSummary, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []NoteSummary
	for rows.Next() {
		n, err := scanNoteSummary(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func scanNoteSummary(rows *sql.Rows) (NoteSummary, error) {
	var n NoteSummary
	var created, updated int64
	var deleted sql.NullInt64
	if err := rows.Scan(&n.ID, &n.Title, &n.Preview, &n.FolderID, &created, &updated, &deleted); err != nil {
		return NoteSummary{}, err
	}
	n.CreatedAt = time.Unix(created, 0).UTC()
	n.UpdatedAt = time.Unix(updated, 0).UTC()
	if deleted.Valid {
		t := time.Unix(deleted.Int64, 0).UTC()
		n.DeletedAt = &t
	}
	return n, nil
}

// TitleMap maps lowercased titles of active notes to their resolution
// targets. On duplicate titles the most recently updated note wins. The map
// is rebuilt per call, never cached.
func (s *Store) TitleMap(ctx context.Context) (map[string]TitleEntry, error) {
	rows, err := s.query(ctx, `
		SELECT id, title, updated_at FROM notes
		WHERE deleted_at IS NULL
		ORDER BY updated_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	titles := make(map[string]TitleEntry)
	for rows.Next() {
		var entry TitleEntry
		var updated int64
		if err := rows.Scan(&entry.ID, &entry.Title, &updated); err != nil {
			return nil, err
		}
		entry.UpdatedAt = time.Unix(updated, 0).UTC()
		key := strings.ToLower(entry.Title)
		if _, ok := titles[key]; !ok {
			titles[key] = entry
		}
	}
	return titles, rows.Err()
}

// Backlinks returns the active notes whose content wiki-links to the given
// note's title (case-insensitive), at most once per linking note.
func (s *Store) Backlinks(ctx context.Context, id int64) ([]NoteSummary, error) {
	target, err := s.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}
	targetTitle := strings.ToLower(target.Title)

	rows, err := s.query(ctx, `
		SELECT id, title, substr(content, 1, ?), folder_id, created_at, updated_at, deleted_at, content
		FROM notes WHERE deleted_at IS NULL AND id != ?
		ORDER BY updated_at DESC, id DESC
	`, notePreviewLen, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []NoteSummary
	for rows.Next() {
		var n NoteSummary
		var created, updated int64
		var deleted sql.NullInt64
		var content string
		if err := rows.Scan(&n.ID, &n.Title, &n.Preview, &n.FolderID, &created, &updated, &deleted, &content); err != nil {
			return nil, err
		}
		n.CreatedAt = time.Unix(created, 0).UTC()
		n.UpdatedAt = time.Unix(updated, 0).UTC()
		for _, ref := range ExtractWikiLinks(content) {
			if strings.ToLower(ref) == targetTitle {
				links = append(links, n)
				break
			}
		}
	}
	return links, rows.Err()
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func requireAffected(res sql.Result, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("note %d: %w", id, ErrNotFound)
	}
	return nil
}
