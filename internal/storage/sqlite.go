package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wonny/symptrack/internal/contracts"
	"github.com/wonny/symptrack/internal/window"
)

// SQLiteStore persists windows in a single local database file
type SQLiteStore struct {
	db *sql.DB
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS windows (
		user_id    TEXT PRIMARY KEY,
		window_id  TEXT    NOT NULL UNIQUE,
		start_date TEXT    NOT NULL,
		total_days INTEGER NOT NULL,
		updated_at TEXT    NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS entries (
		window_id  TEXT NOT NULL,
		entry_date TEXT NOT NULL,
		metrics    TEXT NOT NULL DEFAULT '{}',
		note       TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (window_id, entry_date)
	)`,
}

// NewSQLiteStore opens (and creates) the database at path
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer; keeps Save transactions from hitting SQLITE_BUSY
	db.SetMaxOpenConns(1)

	for _, stmt := range sqliteSchema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init sqlite schema: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load reads the user's current window and its entries
func (s *SQLiteStore) Load(ctx context.Context, userID string) (*contracts.Window, error) {
	w := &contracts.Window{
		UserID:  userID,
		Entries: make(map[string]contracts.Entry),
	}

	var start, updated string
	err := s.db.QueryRowContext(ctx, `
		SELECT window_id, start_date, total_days, updated_at
		FROM windows
		WHERE user_id = ?`, userID,
	).Scan(&w.ID, &start, &w.TotalDays, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, contracts.ErrWindowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query window: %w", err)
	}

	if w.StartDate, err = window.ParseDate(start); err != nil {
		return nil, fmt.Errorf("parse start date: %w", err)
	}
	if w.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT entry_date, metrics, note
		FROM entries
		WHERE window_id = ?
		ORDER BY entry_date`, w.ID)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, metricsRaw, note string
		if err := rows.Scan(&key, &metricsRaw, &note); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		d, err := window.ParseDate(key)
		if err != nil {
			return nil, fmt.Errorf("parse entry date: %w", err)
		}

		e := contracts.Entry{Date: d, Note: note}
		if err := json.Unmarshal([]byte(metricsRaw), &e.Metrics); err != nil {
			return nil, fmt.Errorf("unmarshal metrics: %w", err)
		}
		w.Entries[key] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return w, nil
}

// Save replaces the user's current window in one transaction
func (s *SQLiteStore) Save(ctx context.Context, w *contracts.Window) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var previousID string
	err = tx.QueryRowContext(ctx, `SELECT window_id FROM windows WHERE user_id = ?`, w.UserID).Scan(&previousID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("query previous window: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM entries WHERE window_id = ? OR window_id = ?`,
		previousID, w.ID,
	); err != nil {
		return fmt.Errorf("delete entries: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO windows (user_id, window_id, start_date, total_days, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			window_id = excluded.window_id,
			start_date = excluded.start_date,
			total_days = excluded.total_days,
			updated_at = excluded.updated_at`,
		w.UserID, w.ID, window.DateKey(w.StartDate), w.TotalDays, w.UpdatedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("upsert window: %w", err)
	}

	for key, e := range w.Entries {
		metrics, err := json.Marshal(e.Metrics)
		if err != nil {
			return fmt.Errorf("marshal metrics %s: %w", key, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO entries (window_id, entry_date, metrics, note)
			VALUES (?, ?, ?, ?)`,
			w.ID, window.DateKey(e.Date), string(metrics), e.Note,
		); err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// CompleteUsers lists users whose stored window has reached its length
func (s *SQLiteStore) CompleteUsers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT w.user_id
		FROM windows w
		JOIN entries e ON e.window_id = w.window_id
		GROUP BY w.user_id, w.total_days
		HAVING COUNT(*) >= w.total_days
		ORDER BY w.user_id`)
	if err != nil {
		return nil, fmt.Errorf("query complete users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, id)
	}
	return users, rows.Err()
}
