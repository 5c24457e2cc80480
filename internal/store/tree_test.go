package store

import (
	"context"
	"testing"
)

func findChild(n *TreeNode, name string) *TreeNode {
	for _, child := range n.Children {
		if child.Folder != nil && child.Folder.Name == name {
			return child
		}
	}
	return nil
}

func TestFolderTreeRoots(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	work := mustCreateFolder(t, s, CreateFolderParams{Name: "Work"})
	sub := mustCreateFolder(t, s, CreateFolderParams{Name: "Sub", ParentID: &work.ID})
	mustCreateFolder(t, s, CreateFolderParams{Name: "Wiki", IsPublic: true})

	mustCreateNote(t, s, "A", "in work", &work.ID, nil)
	mustCreateNote(t, s, "B", "in sub", &sub.ID, nil)
	mustCreateNote(t, s, "C", "uncategorized", nil, nil)
	trashed := mustCreateNote(t, s, "D", "trashed", &work.ID, nil)
	if err := s.SoftDeleteNote(ctx, trashed.ID); err != nil {
		t.Fatal(err)
	}

	roots, err := s.FolderTree(ctx, nil)
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	if len(roots) != 2 {
		t.Fatalf("got %d roots, want 2", len(roots))
	}
	private, shared := roots[0], roots[1]
	if private.Key != TreeRootPrivate || !private.Synthetic || private.Folder != nil {
		t.Errorf("first root = %+v, want synthetic private", private)
	}
	if shared.Key != TreeRootShared || !shared.Synthetic {
		t.Errorf("second root = %+v, want synthetic shared", shared)
	}

	workNode := findChild(private, "Work")
	if workNode == nil {
		t.Fatalf("Work missing from private root: %+v", private.Children)
	}
	if workNode.NoteCount != 1 {
		t.Errorf("Work count = %d, want 1 (direct, trashed excluded)", workNode.NoteCount)
	}
	subNode := findChild(workNode, "Sub")
	if subNode == nil || subNode.NoteCount != 1 {
		t.Errorf("Sub node = %+v, want count 1", subNode)
	}

	// Root counts accumulate the whole subtree: Work 1 + Sub 1 + default 1.
	if private.NoteCount != 3 {
		t.Errorf("private root count = %d, want 3", private.NoteCount)
	}
	if findChild(shared, "Wiki") == nil {
		t.Errorf("Wiki missing from shared root: %+v", shared.Children)
	}
	if shared.NoteCount != 0 {
		t.Errorf("shared root count = %d, want 0", shared.NoteCount)
	}
}

func TestFolderTreeVisibility(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner, err := s.CreateUser(ctx, CreateUserParams{Username: "owner", Email: "o@example.com", PasswordHash: "x"})
	if err != nil {
		t.Fatal(err)
	}
	other, err := s.CreateUser(ctx, CreateUserParams{Username: "other", Email: "t@example.com", PasswordHash: "x"})
	if err != nil {
		t.Fatal(err)
	}

	mustCreateFolder(t, s, CreateFolderParams{Name: "Secret", UserID: &owner.ID})
	mustCreateFolder(t, s, CreateFolderParams{Name: "Open", UserID: &owner.ID, IsPublic: true})

	roots, err := s.FolderTree(ctx, &other.ID)
	if err != nil {
		t.Fatal(err)
	}
	private, shared := roots[0], roots[1]
	if findChild(private, "Secret") != nil {
		t.Error("other user can see Secret")
	}
	if findChild(shared, "Open") == nil {
		t.Error("other user cannot see the public folder")
	}

	roots, err = s.FolderTree(ctx, &owner.ID)
	if err != nil {
		t.Fatal(err)
	}
	if findChild(roots[0], "Secret") == nil {
		t.Error("owner cannot see their own folder")
	}
}
