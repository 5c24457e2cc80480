package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrPermissionDenied is returned when an actor may not see or modify a
// resource under the visibility rules below.
var ErrPermissionDenied = errors.New("permission denied")

// Visibility rules. An ownerless resource (user_id NULL) is readable and
// writable by everyone; that is the deliberate meaning of a missing owner,
// not an accident of comparison semantics.

// CanAccessFolder reports whether the actor may read the folder and its
// contents.
func CanAccessFolder(f *Folder, actorID int64) bool {
	if f.IsPublic || !f.UserID.Valid {
		return true
	}
	return f.UserID.Int64 == actorID
}

// CanModifyFolder reports whether the actor may change or delete the
// folder itself. Public visibility grants reading, not folder mutation.
func CanModifyFolder(f *Folder, actorID int64) bool {
	if !f.UserID.Valid {
		return true
	}
	return f.UserID.Int64 == actorID
}

// CanAccessNote reports whether the actor may read the note. folder is the
// note's containing folder, or nil when the note has none; a folderless
// note is universally readable.
func CanAccessNote(n *Note, folder *Folder, actorID int64) bool {
	if folder == nil {
		return true
	}
	return CanAccessFolder(folder, actorID)
}

// CanModifyNote reports whether the actor may edit, move, trash, or purge
// the note. Notes in a public folder are collaborative: anyone who can see
// the folder may modify them.
func CanModifyNote(n *Note, folder *Folder, actorID int64) bool {
	if !n.UserID.Valid {
		return true
	}
	if n.UserID.Int64 == actorID {
		return true
	}
	if folder != nil && folder.IsPublic {
		return true
	}
	return false
}

// AuthorizeNoteAccess loads the note's folder and checks read access.
func (s *Store) AuthorizeNoteAccess(ctx context.Context, n *Note, actorID int64) error {
	folder, err := s.noteFolder(ctx, n)
	if err != nil {
		return err
	}
	if !CanAccessNote(n, folder, actorID) {
		return fmt.Errorf("note %d: %w", n.ID, ErrPermissionDenied)
	}
	return nil
}

// AuthorizeNoteModify loads the note's folder and checks write access.
func (s *Store) AuthorizeNoteModify(ctx context.Context, n *Note, actorID int64) error {
	folder, err := s.noteFolder(ctx, n)
	if err != nil {
		return err
	}
	if !CanModifyNote(n, folder, actorID) {
		return fmt.Errorf("note %d: %w", n.ID, ErrPermissionDenied)
	}
	return nil
}

func (s *Store) noteFolder(ctx context.Context, n *Note) (*Folder, error) {
	if !n.FolderID.Valid {
		return nil, nil
	}
	folder, err := s.GetFolder(ctx, n.FolderID.Int64)
	if errors.Is(err, ErrNotFound) {
		// Dangling folder reference; treat the note as folderless.
		return nil, nil
	}
	return folder, err
}
