package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// buildMatchQuery turns free text into an FTS5 MATCH expression. Each
// whitespace token becomes a quoted prefix term, so user input containing
// FTS operators or punctuation cannot change the query structure.
func buildMatchQuery(input string) string {
	var terms []string
	for _, tok := range strings.Fields(input) {
		tok = strings.ReplaceAll(tok, `"`, `""`)
		terms = append(terms, `"`+tok+`"*`)
	}
	return strings.Join(terms, " ")
}

// SearchNotes runs a full-text search over active notes, best match first.
func (s *Store) SearchNotes(ctx context.Context, input string, limit int) ([]NoteSummary, error) {
	match := buildMatchQuery(input)
	if match == "" {
		return nil, validationErr("query", "must not be empty")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.query(ctx, `
		SELECT n.id, n.title, substr(n.content, 1, ?), n.folder_id, n.created_at, n.updated_at, n.deleted_at
		FROM notes_fts
		JOIN notes n ON n.id = notes_fts.note_id
		WHERE notes_fts MATCH ? AND n.deleted_at IS NULL
		ORDER BY rank
		LIMIT ?
	`, notePreviewLen, match, limit)
	if err != nil {
		return nil, mapIndexErr(err)
	}
	defer rows.Close()

	var results []NoteSummary
	for rows.Next() {
		sum, err := scanNoteSummary(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, sum)
	}
	return results, rows.Err()
}

// CheckSearchIndex verifies the search index covers every note and that
// its internal structure is sound. It returns nil when healthy and
// ErrSearchIndexCorrupt (wrapped with detail) when a rebuild is needed.
func (s *Store) CheckSearchIndex(ctx context.Context) error {
	var noteCount, indexCount int
	if err := s.queryRow(ctx, `SELECT COUNT(*) FROM notes`).Scan(&noteCount); err != nil {
		return err
	}
	if err := s.queryRow(ctx, `SELECT COUNT(*) FROM notes_fts`).Scan(&indexCount); err != nil {
		return mapIndexErr(err)
	}
	if noteCount != indexCount {
		return fmt.Errorf("index has %d rows for %d notes: %w", indexCount, noteCount, ErrSearchIndexCorrupt)
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO notes_fts(notes_fts) VALUES('integrity-check')`); err != nil {
		return fmt.Errorf("integrity check: %w", ErrSearchIndexCorrupt)
	}
	return nil
}

// RebuildSearchIndex drops and repopulates the search index from the notes
// table, then verifies the row counts agree. Trashed notes are indexed too
// so that restoring a note needs no index work.
func (s *Store) RebuildSearchIndex(ctx context.Context) error {
	start := time.Now()
	tx, err := s.beginTx(ctx, "rebuild index")
	if err != nil {
		return err
	}
	// Drop and repopulate atomically so a failure partway through leaves
	// the old index in place instead of no index at all.
	defer rollback(tx, "rebuild index")

	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS notes_fts`); err != nil {
		return fmt.Errorf("drop index: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		CREATE VIRTUAL TABLE notes_fts USING fts5(note_id UNINDEXED, title, content)
	`); err != nil {
		return fmt.Errorf("recreate index: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO notes_fts(note_id, title, content)
		SELECT id, title, content FROM notes
	`); err != nil {
		return fmt.Errorf("repopulate index: %w", err)
	}

	var noteCount, indexCount int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes`).Scan(&noteCount); err != nil {
		return err
	}
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes_fts`).Scan(&indexCount); err != nil {
		return err
	}
	if noteCount != indexCount {
		return fmt.Errorf("rebuild left %d rows for %d notes: %w", indexCount, noteCount, ErrSearchIndexCorrupt)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("search index rebuilt", "notes", noteCount, "elapsed", time.Since(start))
	return nil
}
