package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaStatements create the tracking schema; every statement is idempotent
var schemaStatements = []string{
	`CREATE SCHEMA IF NOT EXISTS tracking`,
	`CREATE TABLE IF NOT EXISTS tracking.windows (
		user_id    TEXT PRIMARY KEY,
		window_id  TEXT        NOT NULL UNIQUE,
		start_date DATE        NOT NULL,
		total_days INTEGER     NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS tracking.entries (
		window_id  TEXT  NOT NULL,
		entry_date DATE  NOT NULL,
		metrics    JSONB NOT NULL DEFAULT '{}',
		note       TEXT  NOT NULL DEFAULT '',
		PRIMARY KEY (window_id, entry_date)
	)`,
}

// Migrate creates the tracking schema
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate tracking schema: %w", err)
		}
	}
	return nil
}
