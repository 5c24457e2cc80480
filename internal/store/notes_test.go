package store

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func mustCreateNote(t *testing.T, s *Store, title, content string, folderID, userID *int64) *Note {
	t.Helper()
	n, err := s.CreateNote(context.Background(), title, content, folderID, userID)
	if err != nil {
		t.Fatalf("create note %q: %v", title, err)
	}
	return n
}

func ptr(id int64) *int64 { return &id }

func TestCreateNoteDefaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n := mustCreateNote(t, s, "First", "hello #world", nil, nil)
	if !n.FolderID.Valid || n.FolderID.Int64 != DefaultFolderID {
		t.Errorf("folder = %+v, want default folder", n.FolderID)
	}
	if n.UserID.Valid {
		t.Errorf("user = %+v, want none", n.UserID)
	}
	if n.DeletedAt != nil {
		t.Error("new note should not be trashed")
	}

	tags, err := s.TagsForNote(ctx, n.ID)
	if err != nil {
		t.Fatalf("tags: %v", err)
	}
	if len(tags) != 1 || tags[0] != "world" {
		t.Errorf("tags = %v, want [world]", tags)
	}

	results, err := s.SearchNotes(ctx, "hello", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].ID != n.ID {
		t.Errorf("search results = %+v, want the new note", results)
	}
}

func TestCreateNoteOwnedDefaultsToPersonalFolder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := mustCreateUser(t, s, "writer", false)

	n := mustCreateNote(t, s, "Diary", "my day", nil, &owner.ID)
	if !n.FolderID.Valid || n.FolderID.Int64 == DefaultFolderID {
		t.Fatalf("folder = %+v, want the owner's personal folder", n.FolderID)
	}
	folder, err := s.GetFolder(ctx, n.FolderID.Int64)
	if err != nil {
		t.Fatalf("folder: %v", err)
	}
	if !folder.UserID.Valid || folder.UserID.Int64 != owner.ID || folder.IsPublic {
		t.Errorf("folder = %+v, want private and owned by %d", folder, owner.ID)
	}

	// Later folderless notes share the same personal folder.
	second := mustCreateNote(t, s, "More", "still mine", nil, &owner.ID)
	if second.FolderID != n.FolderID {
		t.Errorf("second note folder = %+v, want %+v", second.FolderID, n.FolderID)
	}
}

func TestCreateNoteValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var ve *ValidationError
	if _, err := s.CreateNote(ctx, "  ", "body", nil, nil); !errors.As(err, &ve) {
		t.Errorf("blank title: got %v, want ValidationError", err)
	}
	if _, err := s.CreateNote(ctx, "Title", "", nil, nil); !errors.As(err, &ve) {
		t.Errorf("blank content: got %v, want ValidationError", err)
	}
}

func TestUpdateNoteContent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n := mustCreateNote(t, s, "Doc", "first #draft", nil, nil)
	if err := s.UpdateNoteContent(ctx, n.ID, "second #final version"); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := s.GetNote(ctx, n.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Content != "second #final version" {
		t.Errorf("content = %q", got.Content)
	}

	tags, err := s.TagsForNote(ctx, n.ID)
	if err != nil {
		t.Fatalf("tags: %v", err)
	}
	if len(tags) != 1 || tags[0] != "final" {
		t.Errorf("tags = %v, want [final]", tags)
	}

	// Old content must no longer match, new content must.
	if results, _ := s.SearchNotes(ctx, "first", 10); len(results) != 0 {
		t.Errorf("stale index entry still matches: %+v", results)
	}
	results, err := s.SearchNotes(ctx, "second", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("search new content = %+v, want one hit", results)
	}

	if err := s.UpdateNoteContent(ctx, 9999, "body"); !errors.Is(err, ErrNotFound) {
		t.Errorf("update missing note: got %v, want ErrNotFound", err)
	}
}

func TestTrashLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n := mustCreateNote(t, s, "Doomed", "tagged #keepme", nil, nil)
	if err := s.SoftDeleteNote(ctx, n.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	// Trashed notes stay fetchable by id but leave listings and search.
	got, err := s.GetNote(ctx, n.ID)
	if err != nil {
		t.Fatalf("get trashed: %v", err)
	}
	if got.DeletedAt == nil {
		t.Fatal("deleted_at not set")
	}
	if active, _ := s.ListActiveNotes(ctx); len(active) != 0 {
		t.Errorf("active list = %+v, want empty", active)
	}
	if results, _ := s.SearchNotes(ctx, "tagged", 10); len(results) != 0 {
		t.Errorf("trashed note in search: %+v", results)
	}
	tags, err := s.ListTags(ctx)
	if err != nil {
		t.Fatalf("list tags: %v", err)
	}
	if len(tags) != 1 || tags[0].Count != 0 {
		t.Errorf("tags = %+v, want keepme with count 0", tags)
	}

	trash, err := s.ListTrash(ctx)
	if err != nil {
		t.Fatalf("list trash: %v", err)
	}
	if len(trash) != 1 || trash[0].ID != n.ID {
		t.Errorf("trash = %+v, want the deleted note", trash)
	}

	// Double delete is a failed transition.
	if err := s.SoftDeleteNote(ctx, n.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete: got %v, want ErrNotFound", err)
	}

	if err := s.RestoreNote(ctx, n.ID); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if results, _ := s.SearchNotes(ctx, "tagged", 10); len(results) != 1 {
		t.Errorf("restored note missing from search: %+v", results)
	}
	if err := s.RestoreNote(ctx, n.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("restore active note: got %v, want ErrNotFound", err)
	}
}

func TestPurgeAndEmptyTrash(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := mustCreateNote(t, s, "A", "#shared one", nil, nil)
	b := mustCreateNote(t, s, "B", "#shared two", nil, nil)
	keep := mustCreateNote(t, s, "Keep", "#shared three", nil, nil)

	if err := s.SoftDeleteNote(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.PurgeNote(ctx, a.ID); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if _, err := s.GetNote(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("purged note still present: %v", err)
	}

	if err := s.SoftDeleteNote(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	count, err := s.EmptyTrash(ctx)
	if err != nil {
		t.Fatalf("empty trash: %v", err)
	}
	if count != 1 {
		t.Errorf("emptied %d notes, want 1", count)
	}
	if trash, _ := s.ListTrash(ctx); len(trash) != 0 {
		t.Errorf("trash not empty: %+v", trash)
	}

	// The survivor keeps its tag and index entry.
	results, err := s.SearchNotes(ctx, "three", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].ID != keep.ID {
		t.Errorf("search = %+v, want the kept note", results)
	}
	if err := s.CheckSearchIndex(ctx); err != nil {
		t.Errorf("index unhealthy after purge: %v", err)
	}
}

func TestMoveAndReorderNote(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	folder, err := s.CreateFolder(ctx, CreateFolderParams{Name: "Work"})
	if err != nil {
		t.Fatal(err)
	}
	n := mustCreateNote(t, s, "Task", "body", nil, nil)

	if err := s.MoveNote(ctx, n.ID, folder.ID); err != nil {
		t.Fatalf("move: %v", err)
	}
	got, _ := s.GetNote(ctx, n.ID)
	if got.FolderID.Int64 != folder.ID {
		t.Errorf("folder = %d, want %d", got.FolderID.Int64, folder.ID)
	}

	if err := s.ReorderNote(ctx, n.ID, DefaultFolderID, -3); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	got, _ = s.GetNote(ctx, n.ID)
	if got.FolderID.Int64 != DefaultFolderID || got.Position != 0 {
		t.Errorf("after reorder folder=%d position=%d, want default folder at 0", got.FolderID.Int64, got.Position)
	}
}

func TestTitleMapMostRecentWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	older := mustCreateNote(t, s, "Project Plan", "v1", nil, nil)
	newer := mustCreateNote(t, s, "project plan", "v2", nil, nil)
	mustCreateNote(t, s, "Other", "unrelated", nil, nil)

	titles, err := s.TitleMap(ctx)
	if err != nil {
		t.Fatalf("title map: %v", err)
	}
	entry, ok := titles["project plan"]
	if !ok {
		t.Fatalf("missing entry, map = %v", titles)
	}
	if entry.ID != newer.ID {
		t.Errorf("resolved to note %d, want newer note %d (older %d)", entry.ID, newer.ID, older.ID)
	}
	if len(titles) != 2 {
		t.Errorf("map has %d entries, want 2", len(titles))
	}
}

func TestBacklinks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	target := mustCreateNote(t, s, "Home Page", "the hub", nil, nil)
	linker := mustCreateNote(t, s, "Daily", "see [[home page|the hub]] and [[Home Page]] again", nil, nil)
	mustCreateNote(t, s, "Unrelated", "no links", nil, nil)
	trashed := mustCreateNote(t, s, "Gone", "[[Home Page]]", nil, nil)
	if err := s.SoftDeleteNote(ctx, trashed.ID); err != nil {
		t.Fatal(err)
	}

	links, err := s.Backlinks(ctx, target.ID)
	if err != nil {
		t.Fatalf("backlinks: %v", err)
	}
	if len(links) != 1 || links[0].ID != linker.ID {
		t.Errorf("backlinks = %+v, want one entry for the linking note", links)
	}
}

func TestNotePreviewTruncation(t *testing.T) {
	s := newTestStore(t)

	long := strings.Repeat("x", 500)
	mustCreateNote(t, s, "Long", long, nil, nil)

	notes, err := s.ListActiveNotes(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 || len(notes[0].Preview) != notePreviewLen {
		t.Errorf("preview length = %d, want %d", len(notes[0].Preview), notePreviewLen)
	}
}
