// Package store persists trades, resolved prices, and per-run analytics
// outputs in Postgres, and exports the JSON documents the static site
// serves. Derived tables are replaced wholesale per run; trades are
// upserted by content ID so amendments overwrite their originals.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dcwatch/dcwatch/internal/contracts"
	"github.com/dcwatch/dcwatch/pkg/database"
)

// Store bundles every repository over one connection pool.
type Store struct {
	db *database.DB

	Trades    *TradeRepository
	Closes    *ClosePriceRepository
	Analytics *AnalyticsRepository
	Backtests *BacktestRepository
	Runs      *RunRepository
}

// New creates a Store over the given database.
func New(db *database.DB) *Store {
	return &Store{
		db:        db,
		Trades:    NewTradeRepository(db.Pool),
		Closes:    NewClosePriceRepository(db.Pool),
		Analytics: NewAnalyticsRepository(db.Pool),
		Backtests: NewBacktestRepository(db.Pool),
		Runs:      NewRunRepository(db.Pool),
	}
}

// Stats reports row counts for the status command and the API.
type Stats struct {
	Trades      int64 `json:"trades"`
	Politicians int64 `json:"politicians"`
	Tickers     int64 `json:"tickers"`
	ClosePrices int64 `json:"close_prices"`
	Runs        int64 `json:"runs"`
}

// Stats counts the store's contents in one round trip.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM trades),
			(SELECT COUNT(DISTINCT politician) FROM trades),
			(SELECT COUNT(DISTINCT ticker) FROM trades WHERE ticker <> ''),
			(SELECT COUNT(*) FROM close_prices),
			(SELECT COUNT(*) FROM pipeline_runs)
	`

	var st Stats
	err := s.db.Pool.QueryRow(ctx, query).Scan(
		&st.Trades, &st.Politicians, &st.Tickers, &st.ClosePrices, &st.Runs,
	)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	return &st, nil
}

// dateParam converts a Date to its SQL value, NULL when unset.
func dateParam(d contracts.Date) interface{} {
	if d.IsZero() {
		return nil
	}
	return d.Time()
}

// dateValue converts a scanned nullable DATE back to a Date.
func dateValue(t *time.Time) contracts.Date {
	if t == nil {
		return contracts.Date{}
	}
	return contracts.DateOf(*t)
}

// priceParam converts a Price to its SQL value, NULL when missing.
func priceParam(p contracts.Price) interface{} {
	if !p.Valid {
		return nil
	}
	return p.Value
}

// priceValue converts a scanned nullable float back to a Price.
func priceValue(v *float64) contracts.Price {
	if v == nil {
		return contracts.MissingPrice()
	}
	return contracts.PriceOf(*v)
}
