package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Setting keys. Values are stored as strings; the typed accessors below
// parse them.
const (
	SettingRegistrationEnabled = "registration_enabled"
	SettingMaxUsers            = "max_users"
	SettingAppName             = "app_name"
)

func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.queryRow(ctx, `SELECT value FROM system_settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("setting %q: %w", key, ErrNotFound)
	}
	return value, err
}

func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return validationErr("key", "must not be empty")
	}
	_, err := s.exec(ctx, `
		INSERT INTO system_settings(key, value, updated_at) VALUES(?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().Unix())
	return err
}

func (s *Store) AllSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.query(ctx, `SELECT key, value FROM system_settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		settings[key] = value
	}
	return settings, rows.Err()
}

// RegistrationEnabled reports whether self-registration is open. A missing
// or unparseable value falls back to the seeded default (open).
func (s *Store) RegistrationEnabled(ctx context.Context) (bool, error) {
	value, err := s.GetSetting(ctx, SettingRegistrationEnabled)
	if errors.Is(err, ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return value == "true", nil
}

// MaxUsers returns the registration cap. Zero or negative means unlimited.
func (s *Store) MaxUsers(ctx context.Context) (int, error) {
	value, err := s.GetSetting(ctx, SettingMaxUsers)
	if errors.Is(err, ErrNotFound) {
		return 5, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 5, nil
	}
	return n, nil
}
