package store

import (
	"context"
)

// Synthetic root identifiers. The two roots are not rows in the folders
// table; they group top-level folders by visibility.
const (
	TreeRootPrivate = "private"
	TreeRootShared  = "shared"
)

// TreeNode is one node of the folder tree. Synthetic roots carry a Key and
// no Folder; real nodes carry a Folder and no Key.
type TreeNode struct {
	Key       string      `json:"key,omitempty"`
	Synthetic bool        `json:"synthetic,omitempty"`
	Folder    *Folder     `json:"folder,omitempty"`
	NoteCount int         `json:"note_count"`
	Children  []*TreeNode `json:"children"`
}

// FolderTree assembles the folder hierarchy visible to the actor under two
// synthetic roots, private first. NoteCount on a real node counts the
// active notes directly in that folder; each root accumulates the direct
// counts of its entire subtree.
func (s *Store) FolderTree(ctx context.Context, userID *int64) ([]*TreeNode, error) {
	folders, err := s.ListFoldersForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	counts, err := s.activeNoteCounts(ctx)
	if err != nil {
		return nil, err
	}

	nodes := make(map[int64]*TreeNode, len(folders))
	for i := range folders {
		f := &folders[i]
		nodes[f.ID] = &TreeNode{
			Folder:    f,
			NoteCount: counts[f.ID],
			Children:  []*TreeNode{},
		}
	}

	private := &TreeNode{Key: TreeRootPrivate, Synthetic: true, Children: []*TreeNode{}}
	shared := &TreeNode{Key: TreeRootShared, Synthetic: true, Children: []*TreeNode{}}

	for i := range folders {
		f := &folders[i]
		node := nodes[f.ID]
		if f.ParentID.Valid {
			if parent, ok := nodes[f.ParentID.Int64]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
			// Parent exists but is not visible to this actor; surface the
			// folder at its visibility root rather than dropping it.
		}
		if f.IsPublic {
			shared.Children = append(shared.Children, node)
		} else {
			private.Children = append(private.Children, node)
		}
	}

	private.NoteCount = subtreeCount(private)
	shared.NoteCount = subtreeCount(shared)
	return []*TreeNode{private, shared}, nil
}

func subtreeCount(n *TreeNode) int {
	total := n.NoteCount
	for _, child := range n.Children {
		total += subtreeCount(child)
	}
	return total
}

// activeNoteCounts maps folder id to its direct count of live notes.
func (s *Store) activeNoteCounts(ctx context.Context) (map[int64]int, error) {
	rows, err := s.query(ctx, `
		SELECT folder_id, COUNT(*) FROM notes
		WHERE deleted_at IS NULL AND folder_id IS NOT NULL
		GROUP BY folder_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var folderID int64
		var count int
		if err := rows.Scan(&folderID, &count); err != nil {
			return nil, err
		}
		counts[folderID] = count
	}
	return counts, rows.Err()
}
