// Package store is the relational core: durable, transactional CRUD over
// users, folders, notes, tags and the full-text index, all on a single
// SQLite file. Every multi-table mutation runs inside one transaction;
// callers never observe partial effects.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"notecottage/internal/store/migrations"
)

type Store struct {
	db          *sql.DB
	lockTimeout time.Duration
}

const defaultLockTimeout = 5 * time.Second

// Open opens (creating if necessary) the database at path, applies pending
// schema migrations and seeds the fixed default folder and system settings.
func Open(path string) (*Store, error) {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrations.Up(db); err != nil {
		db.Close()
		return nil, err
	}
	s := &Store{db: db, lockTimeout: defaultLockTimeout}
	if err := s.seedDefaults(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed defaults: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

var defaultSettings = map[string]string{
	"registration_enabled": "true",
	"max_users":            "5",
	"app_name":             "NoteCottage",
}

func (s *Store) seedDefaults(ctx context.Context) error {
	now := time.Now().Unix()
	for key, value := range defaultSettings {
		if _, err := s.exec(ctx, `
			INSERT OR IGNORE INTO system_settings(key, value, updated_at)
			VALUES(?, ?, ?)
		`, key, value, now); err != nil {
			return err
		}
	}
	_, err := s.exec(ctx, `
		INSERT OR IGNORE INTO folders(id, name, parent_id, color, icon, position, created_at, updated_at)
		VALUES(?, 'Uncategorized', NULL, '#95a5a6', '📂', 0, ?, ?)
	`, DefaultFolderID, now, now)
	return err
}
