package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

type CreateUserParams struct {
	Username     string
	Email        string
	PasswordHash string
	DisplayName  string
	IsAdmin      bool
}

func (s *Store) CreateUser(ctx context.Context, p CreateUserParams) (*User, error) {
	username := strings.TrimSpace(p.Username)
	if username == "" {
		return nil, validationErr("username", "must not be empty")
	}
	email := strings.TrimSpace(p.Email)
	if email == "" {
		return nil, validationErr("email", "must not be empty")
	}
	if p.PasswordHash == "" {
		return nil, validationErr("password", "must not be empty")
	}
	now := time.Now().Unix()
	res, err := s.exec(ctx, `
		INSERT INTO users(username, email, password_hash, display_name, is_admin, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?)
	`, username, email, p.PasswordHash, nullIfEmpty(p.DisplayName), boolToInt(p.IsAdmin), now, now)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("user %q: %w", username, ErrDuplicate)
	}
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetUser(ctx, id)
}

func (s *Store) GetUser(ctx context.Context, id int64) (*User, error) {
	return scanUser(s.queryRow(ctx, `
		SELECT id, username, email, password_hash, display_name, is_admin, default_folder_id, created_at, updated_at
		FROM users WHERE id = ?
	`, id))
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return scanUser(s.queryRow(ctx, `
		SELECT id, username, email, password_hash, display_name, is_admin, default_folder_id, created_at, updated_at
		FROM users WHERE username = ?
	`, username))
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	var created, updated int64
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.DisplayName, &u.IsAdmin, &u.DefaultFolderID, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	u.CreatedAt = time.Unix(created, 0).UTC()
	u.UpdatedAt = time.Unix(updated, 0).UTC()
	return &u, nil
}

// EnsureDefaultFolder returns the user's personal default folder, creating
// a private one when the user has none yet or the recorded one is gone.
// Folderless note creation for a logged-in user resolves here so new notes
// never land in the shared legacy folder.
func (s *Store) EnsureDefaultFolder(ctx context.Context, userID int64) (*Folder, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.DefaultFolderID.Valid {
		folder, err := s.GetFolder(ctx, u.DefaultFolderID.Int64)
		if err == nil {
			return folder, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	folder, err := s.CreateFolder(ctx, CreateFolderParams{
		Name:   u.Username + "'s Notes",
		Icon:   "📂",
		UserID: &userID,
	})
	if err != nil {
		return nil, err
	}
	if _, err := s.exec(ctx, `
		UPDATE users SET default_folder_id = ?, updated_at = ? WHERE id = ?
	`, folder.ID, time.Now().Unix(), userID); err != nil {
		return nil, err
	}
	return folder, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.query(ctx, `
		SELECT id, username, email, password_hash, display_name, is_admin, default_folder_id, created_at, updated_at
		FROM users ORDER BY username ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		var created, updated int64
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.DisplayName, &u.IsAdmin, &u.DefaultFolderID, &created, &updated); err != nil {
			return nil, err
		}
		u.CreatedAt = time.Unix(created, 0).UTC()
		u.UpdatedAt = time.Unix(updated, 0).UTC()
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := s.queryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

func (s *Store) UpdateUserProfile(ctx context.Context, id int64, email, displayName string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return validationErr("email", "must not be empty")
	}
	res, err := s.exec(ctx, `
		UPDATE users SET email = ?, display_name = ?, updated_at = ? WHERE id = ?
	`, email, nullIfEmpty(displayName), time.Now().Unix(), id)
	if isUniqueViolation(err) {
		return fmt.Errorf("email %q: %w", email, ErrDuplicate)
	}
	if err != nil {
		return err
	}
	return requireUserAffected(res, id)
}

func (s *Store) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	if passwordHash == "" {
		return validationErr("password", "must not be empty")
	}
	res, err := s.exec(ctx, `
		UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?
	`, passwordHash, time.Now().Unix(), id)
	if err != nil {
		return err
	}
	return requireUserAffected(res, id)
}

func (s *Store) SetUserAdmin(ctx context.Context, id int64, isAdmin bool) error {
	if !isAdmin {
		last, err := s.isLastAdmin(ctx, id)
		if err != nil {
			return err
		}
		if last {
			return fmt.Errorf("user %d: %w", id, ErrLastAdmin)
		}
	}
	res, err := s.exec(ctx, `
		UPDATE users SET is_admin = ?, updated_at = ? WHERE id = ?
	`, boolToInt(isAdmin), time.Now().Unix(), id)
	if err != nil {
		return err
	}
	return requireUserAffected(res, id)
}

// DeleteUser removes a user and, through cascades, every folder and note
// they own. Index rows for the removed notes are cleaned up in the same
// transaction. The last remaining admin cannot be deleted.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	last, err := s.isLastAdmin(ctx, id)
	if err != nil {
		return err
	}
	if last {
		return fmt.Errorf("user %d: %w", id, ErrLastAdmin)
	}

	tx, err := s.beginTx(ctx, "delete user")
	if err != nil {
		return err
	}
	defer rollback(tx, "delete user")

	if _, err := tx.ExecContext(ctx, `
		WITH RECURSIVE owned(id) AS (
			SELECT id FROM folders WHERE user_id = ?1
			UNION ALL
			SELECT f.id FROM folders f JOIN owned o ON f.parent_id = o.id
		)
		DELETE FROM notes_fts WHERE note_id IN (
			SELECT id FROM notes
			WHERE user_id = ?1 OR folder_id IN (SELECT id FROM owned)
		)
	`, id); err != nil {
		return mapIndexErr(err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

func (s *Store) isLastAdmin(ctx context.Context, id int64) (bool, error) {
	var isAdmin bool
	err := s.queryRow(ctx, `SELECT is_admin FROM users WHERE id = ?`, id).Scan(&isAdmin)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return false, err
	}
	if !isAdmin {
		return false, nil
	}
	var admins int
	if err := s.queryRow(ctx, `SELECT COUNT(*) FROM users WHERE is_admin = 1`).Scan(&admins); err != nil {
		return false, err
	}
	return admins <= 1, nil
}

func requireUserAffected(res sql.Result, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return nil
}
