package store

import (
	"context"
	"fmt"
)

// schemaStatements creates the store's tables and indexes. Every
// statement is idempotent so startup can apply them unconditionally.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS trades (
		id                   TEXT PRIMARY KEY,
		politician           TEXT NOT NULL,
		party                TEXT NOT NULL DEFAULT '',
		state                TEXT NOT NULL DEFAULT '',
		chamber              TEXT NOT NULL,
		ticker               TEXT NOT NULL DEFAULT '',
		asset_description    TEXT NOT NULL DEFAULT '',
		asset_type           TEXT NOT NULL DEFAULT '',
		tx_type              TEXT NOT NULL,
		tx_date              DATE,
		disclosure_date      DATE,
		amount_low           BIGINT NOT NULL DEFAULT 0,
		amount_high          BIGINT NOT NULL DEFAULT 0,
		est_position         BIGINT NOT NULL DEFAULT 0,
		owner                TEXT NOT NULL DEFAULT '',
		filing_url           TEXT NOT NULL DEFAULT '',
		is_amended           BOOLEAN NOT NULL DEFAULT FALSE,
		days_late            INTEGER NOT NULL DEFAULT 0,
		disclosure_estimated BOOLEAN NOT NULL DEFAULT FALSE,
		price_at_trade       DOUBLE PRECISION,
		current_price        DOUBLE PRECISION,
		est_return           DOUBLE PRECISION,
		updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_trades_ticker ON trades (ticker)`,
	`CREATE INDEX IF NOT EXISTS idx_trades_politician ON trades (politician)`,
	`CREATE INDEX IF NOT EXISTS idx_trades_tx_date ON trades (tx_date DESC)`,

	`CREATE TABLE IF NOT EXISTS close_prices (
		ticker      TEXT NOT NULL,
		price_date  DATE NOT NULL,
		close_price DOUBLE PRECISION NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (ticker, price_date)
	)`,

	`CREATE TABLE IF NOT EXISTS politician_summaries (
		run_id              TEXT NOT NULL,
		rank                INTEGER NOT NULL,
		name                TEXT NOT NULL,
		party               TEXT NOT NULL DEFAULT '',
		state               TEXT NOT NULL DEFAULT '',
		chamber             TEXT NOT NULL DEFAULT '',
		total_trades        INTEGER NOT NULL,
		trades_with_returns INTEGER NOT NULL,
		est_return_1y       DOUBLE PRECISION NOT NULL,
		win_rate            DOUBLE PRECISION NOT NULL,
		unique_tickers      INTEGER NOT NULL,
		best_trade          JSONB,
		worst_trade         JSONB,
		PRIMARY KEY (run_id, rank)
	)`,

	`CREATE TABLE IF NOT EXISTS signals (
		run_id       TEXT NOT NULL,
		rank         INTEGER NOT NULL,
		ticker       TEXT NOT NULL,
		company_name TEXT NOT NULL DEFAULT '',
		start_date   DATE NOT NULL,
		end_date     DATE NOT NULL,
		heat_score   INTEGER NOT NULL,
		bipartisan   BOOLEAN NOT NULL,
		politicians  JSONB NOT NULL,
		PRIMARY KEY (run_id, rank)
	)`,

	`CREATE TABLE IF NOT EXISTS top_picks (
		run_id            TEXT NOT NULL,
		rank              INTEGER NOT NULL,
		ticker            TEXT NOT NULL,
		company_name      TEXT NOT NULL DEFAULT '',
		score             DOUBLE PRECISION NOT NULL,
		num_politicians   INTEGER NOT NULL,
		bipartisan        BOOLEAN NOT NULL,
		avg_win_rate      DOUBLE PRECISION NOT NULL,
		latest_trade_date DATE,
		price_at_latest   DOUBLE PRECISION,
		current_price     DOUBLE PRECISION,
		politicians       JSONB NOT NULL,
		PRIMARY KEY (run_id, rank)
	)`,

	`CREATE TABLE IF NOT EXISTS committee_correlations (
		run_id     TEXT NOT NULL,
		rank       INTEGER NOT NULL,
		trade_id   TEXT NOT NULL,
		politician TEXT NOT NULL,
		ticker     TEXT NOT NULL,
		tx_date    DATE,
		days_late  INTEGER NOT NULL,
		score      DOUBLE PRECISION NOT NULL,
		matches    JSONB NOT NULL,
		PRIMARY KEY (run_id, rank)
	)`,

	`CREATE TABLE IF NOT EXISTS committee_summaries (
		run_id  TEXT PRIMARY KEY,
		summary JSONB NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS backtest_reports (
		run_id     TEXT PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		report     JSONB NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS pipeline_runs (
		run_id           TEXT PRIMARY KEY,
		started_at       TIMESTAMPTZ NOT NULL,
		duration_ms      BIGINT NOT NULL,
		completed_stages TEXT[] NOT NULL DEFAULT '{}',
		trade_count      INTEGER NOT NULL DEFAULT 0,
		enriched_count   INTEGER NOT NULL DEFAULT 0,
		signal_count     INTEGER NOT NULL DEFAULT 0,
		malformed_count  INTEGER NOT NULL DEFAULT 0,
		error            TEXT NOT NULL DEFAULT ''
	)`,
}

// EnsureSchema creates every table and index the store relies on.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
