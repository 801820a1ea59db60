// Package pipeline wires the full refresh run: fetch disclosures,
// enrich with prices, run the analytics engine, persist the outputs,
// and export the JSON documents.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dcwatch/dcwatch/internal/contracts"
	"github.com/dcwatch/dcwatch/internal/engine"
	"github.com/dcwatch/dcwatch/internal/enrich"
	"github.com/dcwatch/dcwatch/internal/fetch"
	"github.com/dcwatch/dcwatch/internal/store"
	"github.com/dcwatch/dcwatch/pkg/config"
	"github.com/dcwatch/dcwatch/pkg/logger"
)

// Notifier receives the run record once a pipeline run finishes.
// The WebSocket hub implements it; a nil notifier disables broadcasts.
type Notifier interface {
	RunCompleted(rec *contracts.RunRecord)
}

// Orchestrator coordinates the pipeline stages.
type Orchestrator struct {
	fetcher    *fetch.Fetcher
	enricher   *enrich.Enricher
	engine     *engine.Engine
	committees []*contracts.Committee
	store      *store.Store
	exporter   *store.Exporter
	notifier   Notifier

	config *config.Config
	logger *logger.Logger
}

// New creates an orchestrator. The notifier may be nil.
func New(
	fetcher *fetch.Fetcher,
	enricher *enrich.Enricher,
	analytics *engine.Engine,
	committees []*contracts.Committee,
	st *store.Store,
	exporter *store.Exporter,
	notifier Notifier,
	cfg *config.Config,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		fetcher:    fetcher,
		enricher:   enricher,
		engine:     analytics,
		committees: committees,
		store:      st,
		exporter:   exporter,
		notifier:   notifier,
		config:     cfg,
		logger:     log.WithField("module", "pipeline"),
	}
}

// RunConfig holds configuration for one pipeline run.
type RunConfig struct {
	// SkipFetch reuses the trades already in the store.
	SkipFetch bool

	// SkipEnrich keeps whatever prices the stored trades carry.
	SkipEnrich bool

	// DryRun computes everything but writes nothing: no store rows,
	// no export files, no run record.
	DryRun bool

	// AsOf anchors the analysis date. Zero means today.
	AsOf contracts.Date
}

// RunResult summarizes one pipeline run.
type RunResult struct {
	RunID           string
	StartedAt       time.Time
	Duration        time.Duration
	CompletedStages []contracts.RunStage

	TradeCount     int
	EnrichedCount  int
	SignalCount    int
	PickCount      int
	FlaggedCount   int
	BacktestCount  int
	MalformedCount int
}

// GenerateRunID builds the run identifier from the start time.
func GenerateRunID(t time.Time) string {
	return "run_" + t.UTC().Format("20060102_150405")
}

// Run executes the pipeline: fetch → enrich → analyze → persist →
// export. Every stage failure aborts the run; the partial run record is
// still persisted and broadcast so operators see what happened.
func (o *Orchestrator) Run(ctx context.Context, rc RunConfig) (*RunResult, error) {
	startTime := time.Now()
	if rc.AsOf.IsZero() {
		rc.AsOf = contracts.Today()
	}

	result := &RunResult{
		RunID:     GenerateRunID(startTime),
		StartedAt: startTime,
	}

	o.logger.WithFields(map[string]interface{}{
		"run_id":      result.RunID,
		"as_of":       rc.AsOf.String(),
		"skip_fetch":  rc.SkipFetch,
		"skip_enrich": rc.SkipEnrich,
		"dry_run":     rc.DryRun,
	}).Info("Starting pipeline run")

	runResult, err := o.run(ctx, rc, result)
	result.Duration = time.Since(startTime)

	record := o.record(result, err)
	if !rc.DryRun {
		if saveErr := o.store.Runs.Save(ctx, record); saveErr != nil {
			o.logger.WithError(saveErr).Warn("Failed to persist run record")
		}
	}
	if o.notifier != nil {
		o.notifier.RunCompleted(record)
	}

	if err != nil {
		o.logger.WithError(err).WithField("run_id", result.RunID).Error("Pipeline run failed")
		return result, err
	}

	o.logger.WithFields(map[string]interface{}{
		"run_id":      result.RunID,
		"duration_ms": result.Duration.Milliseconds(),
		"stages":      len(result.CompletedStages),
		"trades":      result.TradeCount,
		"signals":     result.SignalCount,
	}).Info("Pipeline run completed")

	return runResult, nil
}

func (o *Orchestrator) run(ctx context.Context, rc RunConfig, result *RunResult) (*RunResult, error) {
	// 1. Fetch (or reload the stored snapshot)
	trades, err := o.runFetch(ctx, rc)
	if err != nil {
		return result, fmt.Errorf("fetch failed: %w", err)
	}
	result.TradeCount = len(trades)
	result.CompletedStages = append(result.CompletedStages, contracts.StageFetch)

	// 2. Enrich with prices and build the price book
	trades, book, enriched, err := o.runEnrich(ctx, rc, trades)
	if err != nil {
		return result, fmt.Errorf("enrich failed: %w", err)
	}
	result.EnrichedCount = enriched
	result.CompletedStages = append(result.CompletedStages, contracts.StageEnrich)

	// 3. Analyze
	engineCfg := o.engineConfig(rc.AsOf)
	snapshot := contracts.Snapshot{
		Trades:     trades,
		Prices:     book,
		Committees: o.committees,
	}
	engineResult, diag, err := o.engine.Run(ctx, snapshot, engineCfg)
	if err != nil {
		return result, fmt.Errorf("analyze failed: %w", err)
	}
	result.SignalCount = len(engineResult.Signals)
	result.PickCount = len(engineResult.TopPicks)
	result.FlaggedCount = len(engineResult.Correlations)
	result.BacktestCount = engineResult.Backtest.TotalTradesAnalyzed
	result.MalformedCount = len(diag.Malformed)
	result.CompletedStages = append(result.CompletedStages, contracts.StageAnalyze)

	if rc.DryRun {
		o.logger.Info("Dry run: skipping persist and export")
		return result, nil
	}

	// 4. Persist the derived datasets
	if err := o.persist(ctx, result.RunID, engineResult); err != nil {
		return result, fmt.Errorf("persist failed: %w", err)
	}
	result.CompletedStages = append(result.CompletedStages, contracts.StagePersist)

	// 5. Export the JSON documents
	if err := o.exporter.Export(trades, engineResult, &diag, result.RunID); err != nil {
		return result, fmt.Errorf("export failed: %w", err)
	}
	result.CompletedStages = append(result.CompletedStages, contracts.StageExport)

	return result, nil
}

func (o *Orchestrator) runFetch(ctx context.Context, rc RunConfig) ([]*contracts.Trade, error) {
	if rc.SkipFetch {
		o.logger.Info("Skipping fetch, loading stored trades")
		return o.store.Trades.GetAll(ctx)
	}

	trades, _, err := o.fetcher.Run(ctx, fetch.Options{
		Source: fetch.SourceAll,
		DryRun: rc.DryRun,
	})
	return trades, err
}

func (o *Orchestrator) runEnrich(ctx context.Context, rc RunConfig, trades []*contracts.Trade) ([]*contracts.Trade, *contracts.PriceBook, int, error) {
	benchmark := o.config.Prices.BenchmarkTicker
	enrichCfg := enrich.Config{Workers: o.config.Prices.Workers}

	if !rc.SkipEnrich {
		enriched, res, err := o.enricher.Enrich(ctx, trades, enrichCfg)
		if err != nil {
			return nil, nil, 0, err
		}
		trades = enriched

		if !rc.DryRun {
			if err := o.store.Trades.SaveBatch(ctx, trades); err != nil {
				return nil, nil, 0, fmt.Errorf("save enriched trades: %w", err)
			}
		}

		book, err := o.enricher.BuildPriceBook(ctx, trades, rc.AsOf, benchmark, enrichCfg)
		if err != nil {
			return nil, nil, 0, err
		}
		return trades, book, res.WithReturns, nil
	}

	o.logger.Info("Skipping enrichment, resolving price book from stored closes")
	book, err := o.enricher.BuildPriceBook(ctx, trades, rc.AsOf, benchmark, enrichCfg)
	if err != nil {
		return nil, nil, 0, err
	}

	enriched := 0
	for _, t := range trades {
		if t.HasResolvableReturn() {
			enriched++
		}
	}
	return trades, book, enriched, nil
}

func (o *Orchestrator) persist(ctx context.Context, runID string, result *contracts.Result) error {
	if err := o.store.Analytics.SaveLeaderboard(ctx, runID, result.Leaderboard); err != nil {
		return err
	}
	if err := o.store.Analytics.SaveSignals(ctx, runID, result.Signals); err != nil {
		return err
	}
	if err := o.store.Analytics.SaveTopPicks(ctx, runID, result.TopPicks); err != nil {
		return err
	}
	if err := o.store.Analytics.SaveCorrelations(ctx, runID, result.Correlations); err != nil {
		return err
	}
	if err := o.store.Analytics.SaveCommitteeSummary(ctx, runID, result.CommitteeSummary); err != nil {
		return err
	}
	return o.store.Backtests.Save(ctx, runID, result.Backtest)
}

// engineConfig maps the env-driven analytics knobs onto the engine's
// run configuration.
func (o *Orchestrator) engineConfig(asOf contracts.Date) engine.Config {
	return EngineConfig(o.config, asOf)
}

// EngineConfig maps the env-driven analytics knobs onto the engine's
// run configuration. Unset knobs keep the engine defaults.
func EngineConfig(c *config.Config, asOf contracts.Date) engine.Config {
	cfg := engine.DefaultConfig(asOf)
	a := c.Analytics
	if a.SignalWindowDays > 0 {
		cfg.SignalWindowDays = a.SignalWindowDays
	}
	if a.SignalMinTraders > 0 {
		cfg.SignalMinTraders = a.SignalMinTraders
	}
	if a.PickLookbackDays > 0 {
		cfg.PickLookbackDays = a.PickLookbackDays
	}
	if a.PickMinBuyers > 0 {
		cfg.PickMinBuyers = a.PickMinBuyers
	}
	if a.PickLimit > 0 {
		cfg.PickLimit = a.PickLimit
	}
	if a.LeaderboardWindowDays > 0 {
		cfg.LeaderboardWindowDays = a.LeaderboardWindowDays
	}
	cfg.BenchmarkTicker = c.Prices.BenchmarkTicker
	return cfg
}

// record converts the run result into the persisted run record.
func (o *Orchestrator) record(result *RunResult, err error) *contracts.RunRecord {
	rec := &contracts.RunRecord{
		RunID:           result.RunID,
		StartedAt:       result.StartedAt,
		Duration:        result.Duration,
		CompletedStages: result.CompletedStages,
		TradeCount:      result.TradeCount,
		EnrichedCount:   result.EnrichedCount,
		SignalCount:     result.SignalCount,
		MalformedCount:  result.MalformedCount,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	return rec
}
