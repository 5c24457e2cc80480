package store

import (
	"context"
	"errors"
	"testing"
)

func TestBuildMatchQuery(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"hello", `"hello"*`},
		{"hello world", `"hello"* "world"*`},
		{`attack OR "quoted`, `"attack"* "OR"* """quoted"*`},
		{"  ", ""},
	}
	for _, tt := range tests {
		if got := buildMatchQuery(tt.input); got != tt.want {
			t.Errorf("buildMatchQuery(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSearchPrefixAndTitle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateNote(t, s, "Groceries", "buy milk and bread", nil, nil)
	mustCreateNote(t, s, "Journal", "nothing about shopping", nil, nil)

	// Prefix match on the body.
	results, err := s.SearchNotes(ctx, "mil", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Title != "Groceries" {
		t.Errorf("results = %+v, want Groceries", results)
	}

	// Titles are indexed too.
	results, err = s.SearchNotes(ctx, "grocer", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("title search results = %+v, want one hit", results)
	}

	// Operator injection is neutralized by quoting.
	if _, err := s.SearchNotes(ctx, `milk OR NEAR(`, 10); err != nil {
		t.Errorf("hostile query: %v", err)
	}

	var ve *ValidationError
	if _, err := s.SearchNotes(ctx, "   ", 10); !errors.As(err, &ve) {
		t.Errorf("blank query: got %v, want ValidationError", err)
	}
}

func TestCheckSearchIndexDetectsDrift(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n := mustCreateNote(t, s, "Indexed", "some body", nil, nil)
	if err := s.CheckSearchIndex(ctx); err != nil {
		t.Fatalf("healthy index flagged: %v", err)
	}

	// Remove the index row behind the store's back.
	if _, err := s.db.ExecContext(ctx, `DELETE FROM notes_fts WHERE note_id = ?`, n.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.CheckSearchIndex(ctx); !errors.Is(err, ErrSearchIndexCorrupt) {
		t.Fatalf("drifted index: got %v, want ErrSearchIndexCorrupt", err)
	}
}

func TestRebuildSearchIndex(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateNote(t, s, "Alive", "active content", nil, nil)
	trashed := mustCreateNote(t, s, "Binned", "trashed content", nil, nil)
	if err := s.SoftDeleteNote(ctx, trashed.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM notes_fts`); err != nil {
		t.Fatal(err)
	}

	if err := s.RebuildSearchIndex(ctx); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if err := s.CheckSearchIndex(ctx); err != nil {
		t.Fatalf("index unhealthy after rebuild: %v", err)
	}

	// Active notes searchable again, trashed ones indexed but filtered.
	results, err := s.SearchNotes(ctx, "active", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("results = %+v, want one hit", results)
	}
	if results, _ := s.SearchNotes(ctx, "trashed", 10); len(results) != 0 {
		t.Errorf("trashed note surfaced: %+v", results)
	}

	// After restore the note is findable with no index work.
	if err := s.RestoreNote(ctx, trashed.ID); err != nil {
		t.Fatal(err)
	}
	if results, _ := s.SearchNotes(ctx, "trashed", 10); len(results) != 1 {
		t.Errorf("restored note missing: %+v", results)
	}
}

func TestRebuildSearchIndexFailureKeepsOldIndex(t *testing.T) {
	s := newTestStore(t)

	mustCreateNote(t, s, "Survivor", "precious words", nil, nil)

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.RebuildSearchIndex(canceled); err == nil {
		t.Fatal("rebuild with canceled context should fail")
	}

	// The failed rebuild must not have dropped the existing index.
	results, err := s.SearchNotes(context.Background(), "precious", 10)
	if err != nil {
		t.Fatalf("search after failed rebuild: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("results = %+v, want the surviving note", results)
	}
}
