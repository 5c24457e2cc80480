package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// maxFolderDepth caps ancestor walks. Acyclicity is enforced by application
// logic, not a database constraint, so the cap bounds the damage from any
// pre-existing corrupt cycle.
const maxFolderDepth = 100

type CreateFolderParams struct {
	Name     string
	ParentID *int64
	Color    string
	Icon     string
	UserID   *int64
	IsPublic bool
}

// CreateFolder inserts a folder at the next free position among its
// siblings (0 if it has none).
func (s *Store) CreateFolder(ctx context.Context, p CreateFolderParams) (*Folder, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, validationErr("name", "must not be empty")
	}
	icon := p.Icon
	if icon == "" {
		icon = "📁"
	}
	now := time.Now().Unix()
	res, err := s.exec(ctx, `
		INSERT INTO folders(name, parent_id, color, icon, user_id, is_public, position, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, COALESCE((SELECT MAX(position) + 1 FROM folders WHERE parent_id IS ?), 0), ?, ?)
	`, p.Name, nullableID(p.ParentID), nullIfEmpty(p.Color), icon, nullableID(p.UserID), boolToInt(p.IsPublic),
		nullableID(p.ParentID), now, now)
	if err != nil {
		return nil, fmt.Errorf("insert folder: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetFolder(ctx, id)
}

func (s *Store) GetFolder(ctx context.Context, id int64) (*Folder, error) {
	return scanFolder(s.queryRow(ctx, `
		SELECT id, name, parent_id, color, icon, position, user_id, is_public, created_at, updated_at
		FROM folders WHERE id = ?
	`, id), id)
}

func scanFolder(row rowScanner, id int64) (*Folder, error) {
	var f Folder
	var created, updated int64
	err := row.Scan(&f.ID, &f.Name, &f.ParentID, &f.Color, &f.Icon, &f.Position, &f.UserID, &f.IsPublic, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("folder %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	f.CreatedAt = time.Unix(created, 0).UTC()
	f.UpdatedAt = time.Unix(updated, 0).UTC()
	return &f, nil
}

// ListFoldersForUser returns the folders visible to the actor: public
// folders plus the actor's own. A nil userID (anonymous) sees public
// folders only. Ordering matches tree insertion order.
func (s *Store) ListFoldersForUser(ctx context.Context, userID *int64) ([]Folder, error) {
	query := `
		SELECT id, name, parent_id, color, icon, position, user_id, is_public, created_at, updated_at
		FROM folders WHERE is_public = 1 OR user_id IS NULL OR user_id = ?
		ORDER BY parent_id ASC, position ASC, name ASC
	`
	args := []any{nullableID(userID)}
	if userID == nil {
		query = `
			SELECT id, name, parent_id, color, icon, position, user_id, is_public, created_at, updated_at
			FROM folders WHERE is_public = 1 OR user_id IS NULL
			ORDER BY parent_id ASC, position ASC, name ASC
		`
		args = nil
	}
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var folders []Folder
	for rows.Next() {
		var f Folder
		var created, updated int64
		if err := rows.Scan(&f.ID, &f.Name, &f.ParentID, &f.Color, &f.Icon, &f.Position, &f.UserID, &f.IsPublic, &created, &updated); err != nil {
			return nil, err
		}
		f.CreatedAt = time.Unix(created, 0).UTC()
		f.UpdatedAt = time.Unix(updated, 0).UTC()
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// Typed single-field updates replace the original's string-allowlisted
// generic setter; the legal mutation surface is exactly these methods.

func (s *Store) RenameFolder(ctx context.Context, id int64, name string) error {
	if strings.TrimSpace(name) == "" {
		return validationErr("name", "must not be empty")
	}
	return s.updateFolderField(ctx, id, `UPDATE folders SET name = ?, updated_at = ? WHERE id = ?`, name)
}

func (s *Store) SetFolderColor(ctx context.Context, id int64, color string) error {
	return s.updateFolderField(ctx, id, `UPDATE folders SET color = ?, updated_at = ? WHERE id = ?`, nullIfEmpty(color))
}

func (s *Store) SetFolderIcon(ctx context.Context, id int64, icon string) error {
	return s.updateFolderField(ctx, id, `UPDATE folders SET icon = ?, updated_at = ? WHERE id = ?`, nullIfEmpty(icon))
}

func (s *Store) SetFolderPublic(ctx context.Context, id int64, isPublic bool) error {
	return s.updateFolderField(ctx, id, `UPDATE folders SET is_public = ?, updated_at = ? WHERE id = ?`, boolToInt(isPublic))
}

// SetFolderParent reparents without renumbering siblings (Reorder does
// that). The cycle guard still applies.
func (s *Store) SetFolderParent(ctx context.Context, id int64, parentID *int64) error {
	if id == DefaultFolderID && parentID != nil {
		return fmt.Errorf("folder %d: %w", id, ErrProtectedFolder)
	}
	if parentID != nil {
		descendant, err := s.IsDescendant(ctx, *parentID, id)
		if err != nil {
			return err
		}
		if descendant {
			return fmt.Errorf("folder %d under %d: %w", id, *parentID, ErrFolderCycle)
		}
	}
	return s.updateFolderField(ctx, id, `UPDATE folders SET parent_id = ?, updated_at = ? WHERE id = ?`, nullableID(parentID))
}

func (s *Store) updateFolderField(ctx context.Context, id int64, query string, value any) error {
	res, err := s.exec(ctx, query, value, time.Now().Unix(), id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("folder %d: %w", id, ErrNotFound)
	}
	return nil
}

// IsDescendant reports whether ancestorID appears on the parent chain of
// candidateID. A folder is considered a descendant of itself, which also
// blocks reparenting a folder under itself.
func (s *Store) IsDescendant(ctx context.Context, candidateID, ancestorID int64) (bool, error) {
	return isDescendant(ctx, s.db, candidateID, ancestorID)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func isDescendant(ctx context.Context, db queryRower, candidateID, ancestorID int64) (bool, error) {
	current := candidateID
	for depth := 0; depth < maxFolderDepth; depth++ {
		if current == ancestorID {
			return true, nil
		}
		var parent sql.NullInt64
		err := db.QueryRowContext(ctx, `SELECT parent_id FROM folders WHERE id = ?`, current).Scan(&parent)
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if !parent.Valid {
			return false, nil
		}
		current = parent.Int64
	}
	return false, fmt.Errorf("folder %d: ancestor chain exceeds depth %d", candidateID, maxFolderDepth)
}

// ReorderFolder moves a folder to a target position, optionally under a new
// parent. In one transaction it rejects cycles, compacts the old sibling
// group when the parent changes, then splices the folder into the new group
// and renumbers everyone 0..n so positions stay contiguous.
func (s *Store) ReorderFolder(ctx context.Context, folderID int64, newPosition int, newParentID *int64) error {
	if folderID == DefaultFolderID && newParentID != nil {
		return fmt.Errorf("folder %d: %w", folderID, ErrProtectedFolder)
	}

	tx, err := s.beginTx(ctx, "reorder folder")
	if err != nil {
		return err
	}
	defer rollback(tx, "reorder folder")

	var oldParent sql.NullInt64
	err = tx.QueryRowContext(ctx, `SELECT parent_id FROM folders WHERE id = ?`, folderID).Scan(&oldParent)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("folder %d: %w", folderID, ErrNotFound)
	}
	if err != nil {
		return err
	}

	if newParentID != nil {
		descendant, err := isDescendant(ctx, tx, *newParentID, folderID)
		if err != nil {
			return err
		}
		if descendant {
			return fmt.Errorf("folder %d under %d: %w", folderID, *newParentID, ErrFolderCycle)
		}
	}

	parentChanged := !sameParent(oldParent, newParentID)
	if parentChanged {
		oldSiblings, err := siblingIDs(ctx, tx, oldParent, folderID)
		if err != nil {
			return err
		}
		for i, sibling := range oldSiblings {
			if _, err := tx.ExecContext(ctx, `UPDATE folders SET position = ? WHERE id = ?`, i, sibling); err != nil {
				return err
			}
		}
	}

	newParent := oldParent
	if parentChanged {
		newParent = sql.NullInt64{}
		if newParentID != nil {
			newParent = sql.NullInt64{Int64: *newParentID, Valid: true}
		}
	}
	siblings, err := siblingIDs(ctx, tx, newParent, folderID)
	if err != nil {
		return err
	}
	if newPosition < 0 {
		newPosition = 0
	}
	if newPosition > len(siblings) {
		newPosition = len(siblings)
	}
	ordered := make([]int64, 0, len(siblings)+1)
	ordered = append(ordered, siblings[:newPosition]...)
	ordered = append(ordered, folderID)
	ordered = append(ordered, siblings[newPosition:]...)

	now := time.Now().Unix()
	for i, id := range ordered {
		if id == folderID {
			if _, err := tx.ExecContext(ctx, `
				UPDATE folders SET position = ?, parent_id = ?, updated_at = ? WHERE id = ?
			`, i, newParent, now, id); err != nil {
				return err
			}
			continue
		}
		if _, err := tx.ExecContext(ctx, `UPDATE folders SET position = ? WHERE id = ?`, i, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func sameParent(old sql.NullInt64, newID *int64) bool {
	if newID == nil {
		return !old.Valid
	}
	return old.Valid && old.Int64 == *newID
}

// siblingIDs lists the members of a (parent) group in position order,
// excluding the folder being moved.
func siblingIDs(ctx context.Context, tx *sql.Tx, parent sql.NullInt64, exclude int64) ([]int64, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id FROM folders WHERE parent_id IS ? AND id != ? ORDER BY position ASC
	`, parent, exclude)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteFolder removes a folder; store-level cascades remove every
// descendant folder and all notes anywhere in the subtree. The default
// folder is protected.
func (s *Store) DeleteFolder(ctx context.Context, id int64) error {
	if id == DefaultFolderID {
		return fmt.Errorf("folder %d: %w", id, ErrProtectedFolder)
	}
	tx, err := s.beginTx(ctx, "delete folder")
	if err != nil {
		return err
	}
	defer rollback(tx, "delete folder")

	// Cascades delete the notes; their index rows have to go explicitly.
	if _, err := tx.ExecContext(ctx, `
		WITH RECURSIVE subtree(id) AS (
			SELECT id FROM folders WHERE id = ?
			UNION ALL
			SELECT f.id FROM folders f JOIN subtree s ON f.parent_id = s.id
		)
		DELETE FROM notes_fts WHERE note_id IN (
			SELECT id FROM notes WHERE folder_id IN (SELECT id FROM subtree)
		)
	`, id); err != nil {
		return mapIndexErr(err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM folders WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("folder %d: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

// NoteCountForFolder counts the active notes directly in a folder
// (non-recursive).
func (s *Store) NoteCountForFolder(ctx context.Context, id int64) (int, error) {
	var count int
	err := s.queryRow(ctx, `
		SELECT COUNT(*) FROM notes WHERE folder_id = ? AND deleted_at IS NULL
	`, id).Scan(&count)
	return count, err
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
