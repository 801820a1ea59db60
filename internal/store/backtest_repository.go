package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dcwatch/dcwatch/internal/contracts"
)

// BacktestRepository implements contracts.BacktestRepository. The report
// is a single document per run; storing it as JSONB keeps the round trip
// byte-faithful without a table per breakdown.
type BacktestRepository struct {
	pool *pgxpool.Pool
}

// NewBacktestRepository creates a new backtest repository.
func NewBacktestRepository(pool *pgxpool.Pool) *BacktestRepository {
	return &BacktestRepository{pool: pool}
}

// Save upserts the run's backtest report.
func (r *BacktestRepository) Save(ctx context.Context, runID string, report *contracts.BacktestReport) error {
	doc, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal backtest report: %w", err)
	}

	query := `
		INSERT INTO backtest_reports (run_id, report)
		VALUES ($1, $2)
		ON CONFLICT (run_id) DO UPDATE SET
			report = EXCLUDED.report,
			created_at = NOW()
	`

	if _, err := r.pool.Exec(ctx, query, runID, doc); err != nil {
		return fmt.Errorf("upsert backtest report %s: %w", runID, err)
	}
	return nil
}

// GetLatest retrieves the most recently stored report, nil when no run
// has produced one yet.
func (r *BacktestRepository) GetLatest(ctx context.Context) (*contracts.BacktestReport, error) {
	query := `SELECT report FROM backtest_reports ORDER BY created_at DESC, run_id DESC LIMIT 1`

	var doc []byte
	err := r.pool.QueryRow(ctx, query).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var report contracts.BacktestReport
	if err := json.Unmarshal(doc, &report); err != nil {
		return nil, fmt.Errorf("parse backtest report: %w", err)
	}
	return &report, nil
}
