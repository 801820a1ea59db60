package engine

import (
	"context"
	"runtime"
	"time"

	"github.com/dcwatch/dcwatch/internal/contracts"
	"github.com/dcwatch/dcwatch/pkg/logger"
)

// Engine runs the full analytics battery over one immutable snapshot:
// leaderboard, signal clusters, top picks, committee correlation, and
// the copycat backtest.
type Engine struct {
	validator   *Validator
	leaderboard *LeaderboardBuilder
	signals     *SignalDetector
	picks       *PickScorer
	committees  *CommitteeCorrelator
	simulator   *Simulator
	logger      *logger.Logger
}

// New creates an engine with all analytics components wired.
func New(log *logger.Logger) *Engine {
	return &Engine{
		validator:   NewValidator(log),
		leaderboard: NewLeaderboardBuilder(log),
		signals:     NewSignalDetector(log),
		picks:       NewPickScorer(log),
		committees:  NewCommitteeCorrelator(log),
		simulator:   NewSimulator(log),
		logger:      log,
	}
}

// Run executes every analytics stage over the snapshot. Stage order is
// fixed: validate, leaderboard, signals, top picks (which consumes the
// leaderboard), committee correlation, backtest. Outputs are sorted by
// explicit keys, so two runs over the same snapshot are identical byte
// for byte regardless of worker interleaving. Only a config failure or
// context cancellation aborts; data problems land in Diagnostics.
func (e *Engine) Run(ctx context.Context, snapshot contracts.Snapshot, cfg Config) (*contracts.Result, contracts.Diagnostics, error) {
	var diag contracts.Diagnostics

	if err := cfg.Validate(); err != nil {
		return nil, diag, err
	}
	if snapshot.Prices == nil {
		snapshot.Prices = contracts.NewPriceBook(cfg.BenchmarkTicker)
	}

	startTime := time.Now()
	e.logger.WithFields(map[string]interface{}{
		"trades":     len(snapshot.Trades),
		"prices":     snapshot.Prices.Len(),
		"committees": len(snapshot.Committees),
		"as_of":      cfg.AsOf.String(),
	}).Info("Starting analytics run")

	// 1. Screen the snapshot
	valid := e.validator.Screen(snapshot.Trades, &diag)
	if err := ctx.Err(); err != nil {
		return nil, diag, err
	}

	// 2. Leaderboard first, the pick scorer reads its win rates
	result := &contracts.Result{}
	result.Leaderboard = e.leaderboard.Build(valid, cfg)

	// 3. Signal clusters
	result.Signals = e.signals.Detect(ctx, valid, cfg)
	if err := ctx.Err(); err != nil {
		return nil, diag, err
	}

	// 4. Top picks
	result.TopPicks = e.picks.Score(valid, result.Leaderboard, cfg)

	// 5. Committee correlation
	result.Correlations, result.CommitteeSummary = e.committees.Correlate(valid, snapshot.Committees, cfg)
	if err := ctx.Err(); err != nil {
		return nil, diag, err
	}

	// 6. Copycat backtest
	result.Backtest = e.simulator.Simulate(valid, snapshot.Prices, cfg, &diag)

	e.logger.WithFields(map[string]interface{}{
		"duration_ms": time.Since(startTime).Milliseconds(),
		"politicians": len(result.Leaderboard),
		"signals":     len(result.Signals),
		"top_picks":   len(result.TopPicks),
		"flagged":     len(result.Correlations),
		"simulated":   result.Backtest.TotalTradesAnalyzed,
		"malformed":   len(diag.Malformed),
		"skipped":     len(diag.Skipped),
	}).Info("Analytics run completed")

	return result, diag, nil
}

// poolSize resolves the worker bound, one per CPU when unset.
func poolSize(configured int) int {
	if configured > 0 {
		return configured
	}
	return runtime.NumCPU()
}
