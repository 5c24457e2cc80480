package store

import (
	"context"
	"errors"
	"testing"
)

func mustCreateFolder(t *testing.T, s *Store, p CreateFolderParams) *Folder {
	t.Helper()
	f, err := s.CreateFolder(context.Background(), p)
	if err != nil {
		t.Fatalf("create folder %q: %v", p.Name, err)
	}
	return f
}

func folderPositions(t *testing.T, s *Store, ids ...int64) []int {
	t.Helper()
	positions := make([]int, len(ids))
	for i, id := range ids {
		f, err := s.GetFolder(context.Background(), id)
		if err != nil {
			t.Fatalf("get folder %d: %v", id, err)
		}
		positions[i] = f.Position
	}
	return positions
}

func TestCreateFolderPositions(t *testing.T) {
	s := newTestStore(t)

	parent := mustCreateFolder(t, s, CreateFolderParams{Name: "Parent"})
	a := mustCreateFolder(t, s, CreateFolderParams{Name: "A", ParentID: &parent.ID})
	b := mustCreateFolder(t, s, CreateFolderParams{Name: "B", ParentID: &parent.ID})
	c := mustCreateFolder(t, s, CreateFolderParams{Name: "C", ParentID: &parent.ID})

	got := folderPositions(t, s, a.ID, b.ID, c.ID)
	if got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Errorf("sibling positions = %v, want [0 1 2]", got)
	}
}

func TestReorderFolderWithinParent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	parent := mustCreateFolder(t, s, CreateFolderParams{Name: "Parent"})
	a := mustCreateFolder(t, s, CreateFolderParams{Name: "A", ParentID: &parent.ID})
	b := mustCreateFolder(t, s, CreateFolderParams{Name: "B", ParentID: &parent.ID})
	c := mustCreateFolder(t, s, CreateFolderParams{Name: "C", ParentID: &parent.ID})

	if err := s.ReorderFolder(ctx, c.ID, 0, &parent.ID); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	got := folderPositions(t, s, c.ID, a.ID, b.ID)
	if got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Errorf("positions after move = %v, want [0 1 2] for C A B", got)
	}
}

func TestReorderFolderAcrossParents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p1 := mustCreateFolder(t, s, CreateFolderParams{Name: "P1"})
	p2 := mustCreateFolder(t, s, CreateFolderParams{Name: "P2"})
	a := mustCreateFolder(t, s, CreateFolderParams{Name: "A", ParentID: &p1.ID})
	b := mustCreateFolder(t, s, CreateFolderParams{Name: "B", ParentID: &p1.ID})
	c := mustCreateFolder(t, s, CreateFolderParams{Name: "C", ParentID: &p1.ID})
	x := mustCreateFolder(t, s, CreateFolderParams{Name: "X", ParentID: &p2.ID})

	// Move B from the middle of P1 into P2 at position 1.
	if err := s.ReorderFolder(ctx, b.ID, 1, &p2.ID); err != nil {
		t.Fatalf("reorder: %v", err)
	}

	// Old siblings are compacted.
	got := folderPositions(t, s, a.ID, c.ID)
	if got[0] != 0 || got[1] != 1 {
		t.Errorf("old group positions = %v, want [0 1]", got)
	}

	moved, _ := s.GetFolder(ctx, b.ID)
	if !moved.ParentID.Valid || moved.ParentID.Int64 != p2.ID {
		t.Fatalf("B parent = %+v, want P2", moved.ParentID)
	}
	got = folderPositions(t, s, x.ID, b.ID)
	if got[0] != 0 || got[1] != 1 {
		t.Errorf("new group positions = %v, want [0 1]", got)
	}
}

func TestReorderFolderClampsPosition(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	parent := mustCreateFolder(t, s, CreateFolderParams{Name: "Parent"})
	a := mustCreateFolder(t, s, CreateFolderParams{Name: "A", ParentID: &parent.ID})
	b := mustCreateFolder(t, s, CreateFolderParams{Name: "B", ParentID: &parent.ID})

	if err := s.ReorderFolder(ctx, a.ID, 99, &parent.ID); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	got := folderPositions(t, s, b.ID, a.ID)
	if got[0] != 0 || got[1] != 1 {
		t.Errorf("positions = %v, want B at 0 and A clamped to the end", got)
	}
}

func TestReorderFolderRejectsCycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	root := mustCreateFolder(t, s, CreateFolderParams{Name: "Root"})
	child := mustCreateFolder(t, s, CreateFolderParams{Name: "Child", ParentID: &root.ID})
	grand := mustCreateFolder(t, s, CreateFolderParams{Name: "Grand", ParentID: &child.ID})

	if err := s.ReorderFolder(ctx, root.ID, 0, &grand.ID); !errors.Is(err, ErrFolderCycle) {
		t.Fatalf("move under own grandchild: got %v, want ErrFolderCycle", err)
	}
	if err := s.ReorderFolder(ctx, root.ID, 0, &root.ID); !errors.Is(err, ErrFolderCycle) {
		t.Fatalf("move under self: got %v, want ErrFolderCycle", err)
	}

	// The rejected move left the tree untouched.
	got, _ := s.GetFolder(ctx, root.ID)
	if got.ParentID.Valid {
		t.Errorf("root parent = %+v, want none", got.ParentID)
	}
	got, _ = s.GetFolder(ctx, grand.ID)
	if got.ParentID.Int64 != child.ID {
		t.Errorf("grand parent = %d, want %d", got.ParentID.Int64, child.ID)
	}
}

func TestIsDescendant(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	root := mustCreateFolder(t, s, CreateFolderParams{Name: "Root"})
	child := mustCreateFolder(t, s, CreateFolderParams{Name: "Child", ParentID: &root.ID})

	cases := []struct {
		candidate, ancestor int64
		want                bool
	}{
		{child.ID, root.ID, true},
		{child.ID, child.ID, true},
		{root.ID, child.ID, false},
		{root.ID, 9999, false},
	}
	for _, c := range cases {
		got, err := s.IsDescendant(ctx, c.candidate, c.ancestor)
		if err != nil {
			t.Fatalf("IsDescendant(%d, %d): %v", c.candidate, c.ancestor, err)
		}
		if got != c.want {
			t.Errorf("IsDescendant(%d, %d) = %v, want %v", c.candidate, c.ancestor, got, c.want)
		}
	}
}

func TestDeleteFolderCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	root := mustCreateFolder(t, s, CreateFolderParams{Name: "Root"})
	child := mustCreateFolder(t, s, CreateFolderParams{Name: "Child", ParentID: &root.ID})
	grand := mustCreateFolder(t, s, CreateFolderParams{Name: "Grand", ParentID: &child.ID})
	deep := mustCreateNote(t, s, "Deep", "buried note", &grand.ID, nil)

	if err := s.DeleteFolder(ctx, root.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	for _, id := range []int64{root.ID, child.ID, grand.ID} {
		if _, err := s.GetFolder(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Errorf("folder %d survived cascade: %v", id, err)
		}
	}
	if _, err := s.GetNote(ctx, deep.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("note survived cascade: %v", err)
	}
	if err := s.CheckSearchIndex(ctx); err != nil {
		t.Errorf("index unhealthy after cascade: %v", err)
	}
}

func TestDefaultFolderProtected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.DeleteFolder(ctx, DefaultFolderID); !errors.Is(err, ErrProtectedFolder) {
		t.Errorf("delete default: got %v, want ErrProtectedFolder", err)
	}
	other := mustCreateFolder(t, s, CreateFolderParams{Name: "Other"})
	if err := s.ReorderFolder(ctx, DefaultFolderID, 0, &other.ID); !errors.Is(err, ErrProtectedFolder) {
		t.Errorf("reparent default: got %v, want ErrProtectedFolder", err)
	}
	if err := s.SetFolderParent(ctx, DefaultFolderID, &other.ID); !errors.Is(err, ErrProtectedFolder) {
		t.Errorf("set parent on default: got %v, want ErrProtectedFolder", err)
	}

	// Reordering it among the roots stays legal.
	if err := s.ReorderFolder(ctx, DefaultFolderID, 1, nil); err != nil {
		t.Errorf("reorder default among roots: %v", err)
	}
}

func TestFolderTypedUpdates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	f := mustCreateFolder(t, s, CreateFolderParams{Name: "Old"})
	if err := s.RenameFolder(ctx, f.ID, "New"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetFolderColor(ctx, f.ID, "#ff0000"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetFolderIcon(ctx, f.ID, "📦"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetFolderPublic(ctx, f.ID, true); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetFolder(ctx, f.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "New" || got.Color.String != "#ff0000" || got.Icon.String != "📦" || !got.IsPublic {
		t.Errorf("folder = %+v", got)
	}

	if err := s.RenameFolder(ctx, 9999, "Nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("rename missing: got %v, want ErrNotFound", err)
	}
	var ve *ValidationError
	if err := s.RenameFolder(ctx, f.ID, "  "); !errors.As(err, &ve) {
		t.Errorf("blank rename: got %v, want ValidationError", err)
	}
}

func TestNoteCountForFolder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	f := mustCreateFolder(t, s, CreateFolderParams{Name: "Counted"})
	mustCreateNote(t, s, "A", "one", &f.ID, nil)
	trashed := mustCreateNote(t, s, "B", "two", &f.ID, nil)
	if err := s.SoftDeleteNote(ctx, trashed.ID); err != nil {
		t.Fatal(err)
	}

	count, err := s.NoteCountForFolder(ctx, f.ID)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1 (trashed excluded)", count)
	}
}
