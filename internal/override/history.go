package override

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Sources recorded in the binding history.
const (
	SourceFile = "file"
	SourceAPI  = "api"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// HistoryEntry is one recorded override change.
type HistoryEntry struct {
	ID        int64     `json:"id"`
	Map       string    `json:"map"`
	Action    string    `json:"action"`
	Index     int       `json:"index"`
	Bind      string    `json:"bind"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// History records applied override changes.
type History interface {
	Record(ctx context.Context, ch Change, source string) error
	Recent(ctx context.Context, limit int) ([]HistoryEntry, error)
}

// SQLiteHistory implements History on the binding_history table.
type SQLiteHistory struct {
	db *sql.DB
}

// NewSQLiteHistory creates a history repository on an open connection.
func NewSQLiteHistory(db *sql.DB) *SQLiteHistory {
	return &SQLiteHistory{db: db}
}

// Record inserts one entry. Resets are stored with the restored schema
// path as their bind.
func (h *SQLiteHistory) Record(ctx context.Context, ch Change, source string) error {
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO binding_history (action_map, action, binding_idx, bind, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ch.Record.Map, ch.Record.Action, ch.Record.Index, ch.Record.Bind, source,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting binding history: %w", err)
	}
	return nil
}

// Recent returns the newest entries first. limit defaults to 50 and is
// capped at 500.
func (h *SQLiteHistory) Recent(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	limit = min(limit, maxHistoryLimit)

	rows, err := h.db.QueryContext(ctx,
		`SELECT id, action_map, action, binding_idx, bind, source, created_at
		 FROM binding_history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying binding history: %w", err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var (
			e  HistoryEntry
			at string
		)
		if err := rows.Scan(&e.ID, &e.Map, &e.Action, &e.Index, &e.Bind, &e.Source, &at); err != nil {
			return nil, fmt.Errorf("scanning binding history: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, at) //nolint:errcheck // Format is controlled
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating binding history: %w", err)
	}
	return out, nil
}
