package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dcwatch/dcwatch/internal/contracts"
)

// RunRepository implements contracts.RunRepository.
type RunRepository struct {
	pool *pgxpool.Pool
}

// NewRunRepository creates a new run record repository.
func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

// Save upserts one pipeline run record by run ID.
func (r *RunRepository) Save(ctx context.Context, record *contracts.RunRecord) error {
	query := `
		INSERT INTO pipeline_runs (
			run_id, started_at, duration_ms, completed_stages,
			trade_count, enriched_count, signal_count, malformed_count, error
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (run_id) DO UPDATE SET
			duration_ms = EXCLUDED.duration_ms,
			completed_stages = EXCLUDED.completed_stages,
			trade_count = EXCLUDED.trade_count,
			enriched_count = EXCLUDED.enriched_count,
			signal_count = EXCLUDED.signal_count,
			malformed_count = EXCLUDED.malformed_count,
			error = EXCLUDED.error
	`

	stages := make([]string, len(record.CompletedStages))
	for i, s := range record.CompletedStages {
		stages[i] = string(s)
	}

	_, err := r.pool.Exec(ctx, query,
		record.RunID, record.StartedAt, record.Duration.Milliseconds(), stages,
		record.TradeCount, record.EnrichedCount, record.SignalCount,
		record.MalformedCount, record.Error,
	)
	if err != nil {
		return fmt.Errorf("upsert run %s: %w", record.RunID, err)
	}
	return nil
}

// runColumns is the SELECT list shared by every run query, in scanRun order.
const runColumns = `
	run_id, started_at, duration_ms, completed_stages,
	trade_count, enriched_count, signal_count, malformed_count, error
`

// scanRun reads one row in runColumns order.
func scanRun(row pgx.Row) (*contracts.RunRecord, error) {
	var (
		rec        contracts.RunRecord
		startedAt  time.Time
		durationMS int64
		stages     []string
	)
	err := row.Scan(
		&rec.RunID, &startedAt, &durationMS, &stages,
		&rec.TradeCount, &rec.EnrichedCount, &rec.SignalCount,
		&rec.MalformedCount, &rec.Error,
	)
	if err != nil {
		return nil, err
	}
	rec.StartedAt = startedAt
	rec.Duration = time.Duration(durationMS) * time.Millisecond
	rec.CompletedStages = make([]contracts.RunStage, len(stages))
	for i, s := range stages {
		rec.CompletedStages[i] = contracts.RunStage(s)
	}
	return &rec, nil
}

// GetLatest retrieves the most recent run record, nil before the first run.
func (r *RunRepository) GetLatest(ctx context.Context) (*contracts.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM pipeline_runs ORDER BY started_at DESC LIMIT 1`

	rec, err := scanRun(r.pool.QueryRow(ctx, query))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// GetRecent retrieves up to limit run records, newest first.
func (r *RunRepository) GetRecent(ctx context.Context, limit int) ([]*contracts.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + runColumns + ` FROM pipeline_runs ORDER BY started_at DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*contracts.RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
