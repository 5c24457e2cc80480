package web

import (
	"time"

	"notecottage/internal/store"
)

// Wire shapes. Nullable columns flatten to pointer fields so clients see
// null rather than the sql.Null* envelope.

type noteJSON struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	FolderID  *int64     `json:"folder_id"`
	UserID    *int64     `json:"user_id"`
	Position  int        `json:"position"`
	Tags      []string   `json:"tags"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

type noteSummaryJSON struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Preview   string     `json:"preview"`
	FolderID  *int64     `json:"folder_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

type folderJSON struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ParentID  *int64    `json:"parent_id"`
	Color     *string   `json:"color"`
	Icon      *string   `json:"icon"`
	Position  int       `json:"position"`
	UserID    *int64    `json:"user_id"`
	IsPublic  bool      `json:"is_public"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type treeNodeJSON struct {
	Key       string         `json:"key,omitempty"`
	Synthetic bool           `json:"synthetic,omitempty"`
	Folder    *folderJSON    `json:"folder,omitempty"`
	NoteCount int            `json:"note_count"`
	Children  []treeNodeJSON `json:"children"`
}

type userJSON struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	DisplayName *string   `json:"display_name"`
	IsAdmin     bool      `json:"is_admin"`
	CreatedAt   time.Time `json:"created_at"`
}

type wikiLinkJSON struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toNoteJSON(n *store.Note, tags []string) noteJSON {
	if tags == nil {
		tags = []string{}
	}
	out := noteJSON{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		Position:  n.Position,
		Tags:      tags,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
		DeletedAt: n.DeletedAt,
	}
	if n.FolderID.Valid {
		out.FolderID = &n.FolderID.Int64
	}
	if n.UserID.Valid {
		out.UserID = &n.UserID.Int64
	}
	return out
}

func toNoteSummaryJSON(n store.NoteSummary) noteSummaryJSON {
	out := noteSummaryJSON{
		ID:        n.ID,
		Title:     n.Title,
		Preview:   n.Preview,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
		DeletedAt: n.DeletedAt,
	}
	if n.FolderID.Valid {
		out.FolderID = &n.FolderID.Int64
	}
	return out
}

func toNoteSummaryList(notes []store.NoteSummary) []noteSummaryJSON {
	out := make([]noteSummaryJSON, 0, len(notes))
	for _, n := range notes {
		out = append(out, toNoteSummaryJSON(n))
	}
	return out
}

func toFolderJSON(f *store.Folder) *folderJSON {
	if f == nil {
		return nil
	}
	out := &folderJSON{
		ID:        f.ID,
		Name:      f.Name,
		Position:  f.Position,
		IsPublic:  f.IsPublic,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
	if f.ParentID.Valid {
		out.ParentID = &f.ParentID.Int64
	}
	if f.Color.Valid {
		out.Color = &f.Color.String
	}
	if f.Icon.Valid {
		out.Icon = &f.Icon.String
	}
	if f.UserID.Valid {
		out.UserID = &f.UserID.Int64
	}
	return out
}

func toTreeNodeJSON(n *store.TreeNode) treeNodeJSON {
	out := treeNodeJSON{
		Key:       n.Key,
		Synthetic: n.Synthetic,
		Folder:    toFolderJSON(n.Folder),
		NoteCount: n.NoteCount,
		Children:  []treeNodeJSON{},
	}
	for _, child := range n.Children {
		out.Children = append(out.Children, toTreeNodeJSON(child))
	}
	return out
}

func toUserJSON(u *store.User) userJSON {
	out := userJSON{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt,
	}
	if u.DisplayName.Valid {
		out.DisplayName = &u.DisplayName.String
	}
	return out
}
