package store

import (
	"database/sql"
	"time"
)

// DefaultFolderID is the fixed id of the "Uncategorized" folder seeded at
// first open. Ownerless notes created without an explicit folder land
// here; notes with an owner land in the owner's personal default folder
// instead.
const DefaultFolderID int64 = 1

type User struct {
	ID              int64
	Username        string
	Email           string
	PasswordHash    string
	DisplayName     sql.NullString
	IsAdmin         bool
	DefaultFolderID sql.NullInt64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Note is the full row, including trashed notes. DeletedAt is non-nil for
// notes in the trash.
type Note struct {
	ID        int64
	Title     string
	Content   string
	FolderID  sql.NullInt64
	UserID    sql.NullInt64
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// NoteSummary is the listing shape: no body, just a short preview.
type NoteSummary struct {
	ID        int64
	Title     string
	Preview   string
	FolderID  sql.NullInt64
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

type Folder struct {
	ID        int64
	Name      string
	ParentID  sql.NullInt64
	Color     sql.NullString
	Icon      sql.NullString
	Position  int
	UserID    sql.NullInt64
	IsPublic  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type TagSummary struct {
	Name  string
	Count int
}

// TitleEntry resolves a wiki-link target: the note id plus the title in its
// original case for display.
type TitleEntry struct {
	ID        int64
	Title     string
	UpdatedAt time.Time
}
