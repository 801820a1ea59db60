package jobs

import (
	"context"
	"fmt"

	"github.com/dcwatch/dcwatch/internal/contracts"
	"github.com/dcwatch/dcwatch/internal/store"
	"github.com/dcwatch/dcwatch/pkg/logger"
)

// exportSchedule re-exports shortly after the refresh window, so the
// flat files recover even when a refresh failed between persist and
// export.
const exportSchedule = "0 0 7 * * *"

// ExportJob rebuilds the JSON documents from the latest persisted run.
type ExportJob struct {
	store    *store.Store
	exporter *store.Exporter
	logger   *logger.Logger
}

// NewExportJob creates the re-export job.
func NewExportJob(st *store.Store, exporter *store.Exporter, log *logger.Logger) *ExportJob {
	return &ExportJob{
		store:    st,
		exporter: exporter,
		logger:   log,
	}
}

// Name returns the job name.
func (j *ExportJob) Name() string {
	return "export"
}

// Schedule returns the cron schedule.
func (j *ExportJob) Schedule() string {
	return exportSchedule
}

// Run re-exports from the store. Before the first completed run there
// is nothing to export and the job succeeds without writing.
func (j *ExportJob) Run(ctx context.Context) error {
	latest, err := j.store.Runs.GetLatest(ctx)
	if err != nil {
		return fmt.Errorf("resolve latest run: %w", err)
	}
	if latest == nil {
		j.logger.Info("No completed run yet, nothing to export")
		return nil
	}
	runID := latest.RunID

	trades, err := j.store.Trades.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load trades: %w", err)
	}

	result, err := j.loadResult(ctx, runID)
	if err != nil {
		return fmt.Errorf("load run %s datasets: %w", runID, err)
	}

	if err := j.exporter.Export(trades, result, nil, runID); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id": runID,
		"trades": len(trades),
	}).Info("Scheduled export completed")

	return nil
}

func (j *ExportJob) loadResult(ctx context.Context, runID string) (*contracts.Result, error) {
	var (
		result contracts.Result
		err    error
	)
	if result.Leaderboard, err = j.store.Analytics.GetLeaderboard(ctx, runID); err != nil {
		return nil, err
	}
	if result.Signals, err = j.store.Analytics.GetSignals(ctx, runID); err != nil {
		return nil, err
	}
	if result.TopPicks, err = j.store.Analytics.GetTopPicks(ctx, runID); err != nil {
		return nil, err
	}
	if result.Correlations, err = j.store.Analytics.GetCorrelations(ctx, runID); err != nil {
		return nil, err
	}
	if result.CommitteeSummary, err = j.store.Analytics.GetCommitteeSummary(ctx, runID); err != nil {
		return nil, err
	}
	if result.Backtest, err = j.store.Backtests.GetLatest(ctx); err != nil {
		return nil, err
	}
	return &result, nil
}
