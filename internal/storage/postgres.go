package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/symptrack/internal/contracts"
	"github.com/wonny/symptrack/internal/window"
)

// PostgresStore persists windows in the tracking schema
// ⭐ SSOT: 윈도우 영속화는 이 저장소에서만
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store over pool
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Load reads the user's current window and its entries
func (s *PostgresStore) Load(ctx context.Context, userID string) (*contracts.Window, error) {
	w := &contracts.Window{
		UserID:  userID,
		Entries: make(map[string]contracts.Entry),
	}

	err := s.pool.QueryRow(ctx, `
		SELECT window_id, start_date, total_days, updated_at
		FROM tracking.windows
		WHERE user_id = $1`, userID,
	).Scan(&w.ID, &w.StartDate, &w.TotalDays, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrWindowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query window: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT entry_date, metrics, note
		FROM tracking.entries
		WHERE window_id = $1
		ORDER BY entry_date`, w.ID)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			date       time.Time
			metricsRaw []byte
			note       string
		)
		if err := rows.Scan(&date, &metricsRaw, &note); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}

		e := contracts.Entry{Date: window.Day(date), Note: note}
		if err := json.Unmarshal(metricsRaw, &e.Metrics); err != nil {
			return nil, fmt.Errorf("unmarshal metrics: %w", err)
		}
		w.Entries[window.DateKey(date)] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return w, nil
}

// Save replaces the user's current window in one transaction. Entries of the
// previous window are removed with it so two periods never mix.
func (s *PostgresStore) Save(ctx context.Context, w *contracts.Window) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var previousID string
	err = tx.QueryRow(ctx, `
		SELECT window_id FROM tracking.windows WHERE user_id = $1 FOR UPDATE`, w.UserID,
	).Scan(&previousID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("lock window: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM tracking.entries WHERE window_id = $1 OR window_id = $2`,
		previousID, w.ID,
	); err != nil {
		return fmt.Errorf("delete entries: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO tracking.windows (user_id, window_id, start_date, total_days, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			window_id = EXCLUDED.window_id,
			start_date = EXCLUDED.start_date,
			total_days = EXCLUDED.total_days,
			updated_at = EXCLUDED.updated_at`,
		w.UserID, w.ID, w.StartDate, w.TotalDays, w.UpdatedAt,
	); err != nil {
		return fmt.Errorf("upsert window: %w", err)
	}

	if len(w.Entries) > 0 {
		batch := &pgx.Batch{}
		for key, e := range w.Entries {
			metrics, err := json.Marshal(e.Metrics)
			if err != nil {
				return fmt.Errorf("marshal metrics %s: %w", key, err)
			}
			batch.Queue(`
				INSERT INTO tracking.entries (window_id, entry_date, metrics, note)
				VALUES ($1, $2, $3, $4)`,
				w.ID, window.Day(e.Date), metrics, e.Note)
		}

		br := tx.SendBatch(ctx, batch)
		for range w.Entries {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("insert entry: %w", err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("close batch: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// CompleteUsers lists users whose stored window has reached its length
func (s *PostgresStore) CompleteUsers(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT w.user_id
		FROM tracking.windows w
		JOIN tracking.entries e ON e.window_id = w.window_id
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
