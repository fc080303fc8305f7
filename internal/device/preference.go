package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

// PreferenceKey is the preferences row holding the last chosen device.
const PreferenceKey = "input.last_device"

// PreferenceRepository stores the single remembered device preference.
type PreferenceRepository interface {
	// LoadPreferred returns the stored device, or ErrPreferenceNotFound.
	LoadPreferred(ctx context.Context) (Device, error)

	// SavePreferred stores the device.
	SavePreferred(ctx context.Context, d Device) error
}

// SQLitePreferenceRepository implements PreferenceRepository using the
// preferences table. The value is stored as the integer device enum.
type SQLitePreferenceRepository struct {
	db *sql.DB
}

// NewSQLitePreferenceRepository creates a repository on an open connection.
func NewSQLitePreferenceRepository(db *sql.DB) *SQLitePreferenceRepository {
	return &SQLitePreferenceRepository{db: db}
}

// LoadPreferred reads the stored preference.
func (r *SQLitePreferenceRepository) LoadPreferred(ctx context.Context) (Device, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		"SELECT value FROM preferences WHERE key = ?", PreferenceKey,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return None, ErrPreferenceNotFound
	}
	if err != nil {
		return None, fmt.Errorf("querying preference: %w", err)
	}

	n, err := strconv.Atoi(raw)
	if err != nil || !Device(n).Valid() {
		return None, fmt.Errorf("%w: stored preference %q", ErrInvalidDevice, raw)
	}
	return Device(n), nil
}

// SavePreferred upserts the preference.
func (r *SQLitePreferenceRepository) SavePreferred(ctx context.Context, d Device) error {
	if !d.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidDevice, int(d))
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		PreferenceKey, strconv.Itoa(int(d)),
	)
	if err != nil {
		return fmt.Errorf("saving preference: %w", err)
	}
	return nil
}
