package device

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/nerrad567/gray-logic-input/internal/infrastructure/database"
	_ "github.com/nerrad567/gray-logic-input/migrations" // embedded schema
)

func openPreferenceDB(t *testing.T) *database.DB {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{Path: filepath.Join(t.TempDir(), "input.db"), BusyTimeout: 5})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func TestSQLitePreferenceRepository(t *testing.T) {
	db := openPreferenceDB(t)
	repo := NewSQLitePreferenceRepository(db.DB)
	ctx := context.Background()

	if _, err := repo.LoadPreferred(ctx); !errors.Is(err, ErrPreferenceNotFound) {
		t.Fatalf("LoadPreferred() on empty table error = %v", err)
	}

	for _, d := range []Device{Gamepad, Touch} {
		if err := repo.SavePreferred(ctx, d); err != nil {
			t.Fatalf("SavePreferred(%s) error = %v", d, err)
		}
		got, err := repo.LoadPreferred(ctx)
		if err != nil {
			t.Fatalf("LoadPreferred() error = %v", err)
		}
		if got != d {
			t.Errorf("LoadPreferred() = %s, want %s", got, d)
		}
	}

	if err := repo.SavePreferred(ctx, Device(99)); !errors.Is(err, ErrInvalidDevice) {
		t.Errorf("SavePreferred(invalid) error = %v", err)
	}
}

func TestSQLitePreferenceRepositoryCorruptValue(t *testing.T) {
	db := openPreferenceDB(t)
	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "INSERT INTO preferences (key, value) VALUES (?, ?)", PreferenceKey, "banana"); err != nil {
		t.Fatal(err)
	}

	if _, err := NewSQLitePreferenceRepository(db.DB).LoadPreferred(ctx); !errors.Is(err, ErrInvalidDevice) {
		t.Errorf("LoadPreferred() error = %v, want ErrInvalidDevice", err)
	}
}
