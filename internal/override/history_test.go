package override

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nerrad567/gray-logic-input/internal/infrastructure/database"
	_ "github.com/nerrad567/gray-logic-input/migrations" // embedded schema
)

func TestSQLiteHistory(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{Path: filepath.Join(t.TempDir(), "input.db"), BusyTimeout: 5})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck // Test cleanup
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	h := NewSQLiteHistory(db.DB)
	changes := []Change{
		{Record: Record{Action: "Jump", Map: "Player", Index: 0, Bind: "Keyboard.Space"}},
		{Record: Record{Action: "Jump", Map: "Player", Index: 1, Bind: "null"}, Unbind: true},
		{Record: Record{Action: "Jump", Map: "Player", Index: 0, Bind: "Keyboard.W"}, Reset: true},
	}
	for i, ch := range changes {
		src := SourceAPI
		if i == 1 {
			src = SourceFile
		}
		if err := h.Record(ctx, ch, src); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	entries, err := h.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Recent(2) returned %d entries", len(entries))
	}
	if entries[0].Bind != "Keyboard.W" || entries[1].Bind != "null" || entries[1].Source != SourceFile {
		t.Errorf("Recent() = %+v", entries)
	}
	if entries[0].CreatedAt.IsZero() {
		t.Error("CreatedAt not parsed")
	}

	all, err := h.Recent(ctx, 0)
	if err != nil || len(all) != 3 {
		t.Errorf("Recent(0) = %d entries, %v", len(all), err)
	}
}
