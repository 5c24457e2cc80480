package store

import (
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound reports that the target id does not exist, or that the
	// requested state transition has no matching row (e.g. restoring a note
	// that is not in the trash).
	ErrNotFound = errors.New("not found")

	// ErrDuplicate reports a unique-field collision (username, email, tag).
	ErrDuplicate = errors.New("already exists")

	// ErrTagInUse rejects deleting a tag that still has note associations.
	ErrTagInUse = errors.New("tag is in use")

	// ErrFolderCycle rejects a reparent that would make a folder its own
	// ancestor.
	ErrFolderCycle = errors.New("folder cannot be moved into its own subtree")

	// ErrProtectedFolder rejects deleting or reparenting the default folder.
	ErrProtectedFolder = errors.New("default folder is protected")

	// ErrLastAdmin rejects demoting or deleting the only administrator.
	ErrLastAdmin = errors.New("cannot remove the last administrator")

	// ErrSearchIndexCorrupt reports that the full-text index disagrees with
	// the notes table or failed its integrity probe. The index must be
	// rebuilt; retrying the failed write is pointless.
	ErrSearchIndexCorrupt = errors.New("search index corrupted")
)

// ValidationError reports a missing or malformed required field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func validationErr(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func isSQLiteBusy(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_BUSY
	}
	return false
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return false
}

func isCorruption(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		return code&0xff == sqlite3.SQLITE_CORRUPT || code == sqlite3.SQLITE_NOTADB
	}
	return false
}

// mapIndexErr turns low-level corruption errors from writes that touch the
// full-text index into ErrSearchIndexCorrupt so callers can route operators
// at the rebuild tooling instead of retrying.
func mapIndexErr(err error) error {
	if err == nil {
		return nil
	}
	if isCorruption(err) {
		return fmt.Errorf("%w: %v", ErrSearchIndexCorrupt, err)
	}
	return err
}
