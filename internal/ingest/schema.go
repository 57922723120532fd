package ingest

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema statements are idempotent so Migrate can run on every startup.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS instruments (
		id BIGSERIAL PRIMARY KEY,
		symbol TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		country TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS price_bars (
		id BIGSERIAL PRIMARY KEY,
		instrument_id BIGINT NOT NULL REFERENCES instruments(id) ON DELETE CASCADE,
		trade_date DATE NOT NULL,
		open NUMERIC(18,4),
		high NUMERIC(18,4),
		low NUMERIC(18,4),
		close NUMERIC(18,4),
		adj_close NUMERIC(18,4),
		volume BIGINT,
		inserted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (instrument_id, trade_date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_price_bars_trade_date ON price_bars (trade_date)`,
	`CREATE TABLE IF NOT EXISTS segments (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS instrument_segments (
		id BIGSERIAL PRIMARY KEY,
		instrument_id BIGINT NOT NULL REFERENCES instruments(id) ON DELETE CASCADE,
		segment_id BIGINT NOT NULL REFERENCES segments(id) ON DELETE CASCADE,
		weight NUMERIC(5,2) NOT NULL DEFAULT 100,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (instrument_id, segment_id)
	)`,
	`CREATE TABLE IF NOT EXISTS opportunities (
		id BIGSERIAL PRIMARY KEY,
		segment_id BIGINT NOT NULL REFERENCES segments(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL,
		predicted_price NUMERIC(18,4),
		potential_return_pct NUMERIC(8,2) NOT NULL DEFAULT 0,
		risk_tier TEXT NOT NULL,
		confidence NUMERIC(4,2) NOT NULL DEFAULT 0,
		analysis_date DATE NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_opportunities_segment ON opportunities (segment_id, analysis_date DESC)`,
}

// Migrate creates all tables and indexes used by the pipeline.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
