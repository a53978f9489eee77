package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// migrations is the full ordered schema history. Every statement is
// idempotent, so the whole list runs at every startup: re-running a step
// that already applied is a no-op, and new optional columns land without
// touching existing rows.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS alerts (
        id          BIGSERIAL PRIMARY KEY,
        received_at TIMESTAMPTZ NOT NULL,
        symbol      TEXT,
        timeframe   TEXT,
        category    TEXT NOT NULL,
        raw_text    TEXT NOT NULL
    );`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_received_at ON alerts (received_at DESC, id DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_category ON alerts (category);`,

	// optional columns added after the initial schema; rows written before
	// them read back as NULL
	`ALTER TABLE alerts ADD COLUMN IF NOT EXISTS rsi_value NUMERIC;`,
	`ALTER TABLE alerts ADD COLUMN IF NOT EXISTS alert_time_text TEXT;`,
}

// Migrate applies the schema to the connected database.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return ErrNotConfigured
	}
	for _, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	return nil
}
