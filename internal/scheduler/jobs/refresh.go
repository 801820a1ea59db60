// Package jobs holds the scheduled work: pipeline refresh, price-cache
// warmup, and dataset re-export.
package jobs

import (
	"context"
	"fmt"

	"github.com/dcwatch/dcwatch/internal/pipeline"
	"github.com/dcwatch/dcwatch/pkg/logger"
)

// DefaultRefreshSchedule runs the pipeline daily at 06:30, after the
// mirror feeds have picked up the previous day's filings.
const DefaultRefreshSchedule = "0 30 6 * * *"

// RefreshJob runs the full pipeline: fetch, enrich, analyze, persist,
// export.
type RefreshJob struct {
	orchestrator *pipeline.Orchestrator
	schedule     string
	logger       *logger.Logger
}

// NewRefreshJob creates the refresh job. An empty schedule uses the
// default.
func NewRefreshJob(orchestrator *pipeline.Orchestrator, schedule string, log *logger.Logger) *RefreshJob {
	if schedule == "" {
		schedule = DefaultRefreshSchedule
	}
	return &RefreshJob{
		orchestrator: orchestrator,
		schedule:     schedule,
		logger:       log,
	}
}

// Name returns the job name.
func (j *RefreshJob) Name() string {
	return "refresh"
}

// Schedule returns the cron schedule.
func (j *RefreshJob) Schedule() string {
	return j.schedule
}

// Run executes one full pipeline run.
func (j *RefreshJob) Run(ctx context.Context) error {
	result, err := j.orchestrator.Run(ctx, pipeline.RunConfig{})
	if err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":  result.RunID,
		"trades":  result.TradeCount,
		"signals": result.SignalCount,
	}).Info("Scheduled refresh completed")

	return nil
}
