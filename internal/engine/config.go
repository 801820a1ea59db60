package engine

import (
	"fmt"

	"github.com/dcwatch/dcwatch/internal/contracts"
)

// ConfigurationError marks an engine config the run must refuse before
// producing any output.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("engine config: %s %s", e.Field, e.Reason)
}

// Config holds the tunable parameters for one engine run.
type Config struct {
	// AsOf anchors every "today" in the run: recency buckets, the 1-year
	// leaderboard window, and future-horizon exclusion in the backtest.
	AsOf            contracts.Date
	BenchmarkTicker string

	// Signal clustering
	SignalWindowDays int
	SignalMinTraders int

	// Top picks
	PickLookbackDays int
	PickMinBuyers    int
	PickLimit        int

	// Leaderboard
	LeaderboardWindowDays int

	// Backtest holding windows
	Horizons []contracts.Horizon

	// Scoring weights
	HeatTraderWeight       int
	HeatBipartisanBonus    int
	PickBuyerWeight        float64
	PickBipartisanBonus    float64
	TickerMatchConfidence  float64
	KeywordMatchConfidence float64

	// Workers bounds the per-ticker fan-out. Zero means one worker per CPU.
	Workers int
}

// DefaultConfig returns the standard analysis parameters.
func DefaultConfig(asOf contracts.Date) Config {
	return Config{
		AsOf:                   asOf,
		BenchmarkTicker:        "SPY",
		SignalWindowDays:       10,
		SignalMinTraders:       3,
		PickLookbackDays:       60,
		PickMinBuyers:          2,
		PickLimit:              5,
		LeaderboardWindowDays:  365,
		Horizons:               contracts.AllHorizons,
		HeatTraderWeight:       2,
		HeatBipartisanBonus:    5,
		PickBuyerWeight:        3,
		PickBipartisanBonus:    5,
		TickerMatchConfidence:  40,
		KeywordMatchConfidence: 15,
	}
}

// Validate checks the config before a run. Any failure is fatal: the
// engine refuses to produce output from a config it cannot honor.
func (c *Config) Validate() error {
	if c.AsOf.IsZero() {
		return &ConfigurationError{Field: "as_of", Reason: "is required"}
	}
	if c.BenchmarkTicker == "" {
		return &ConfigurationError{Field: "benchmark_ticker", Reason: "is required"}
	}
	if c.SignalWindowDays <= 0 {
		return &ConfigurationError{Field: "signal_window_days", Reason: "must be positive"}
	}
	if c.SignalMinTraders < 2 {
		return &ConfigurationError{Field: "signal_min_traders", Reason: "must be at least 2"}
	}
	if c.PickLookbackDays <= 0 {
		return &ConfigurationError{Field: "pick_lookback_days", Reason: "must be positive"}
	}
	if c.PickMinBuyers < 1 {
		return &ConfigurationError{Field: "pick_min_buyers", Reason: "must be at least 1"}
	}
	if c.PickLimit <= 0 {
		return &ConfigurationError{Field: "pick_limit", Reason: "must be positive"}
	}
	if c.LeaderboardWindowDays <= 0 {
		return &ConfigurationError{Field: "leaderboard_window_days", Reason: "must be positive"}
	}
	if len(c.Horizons) == 0 {
		return &ConfigurationError{Field: "horizons", Reason: "must name at least one holding window"}
	}
	for _, h := range c.Horizons {
		switch h {
		case contracts.Horizon30D, contracts.Horizon90D, contracts.HorizonCurrent:
		default:
			return &ConfigurationError{Field: "horizons", Reason: fmt.Sprintf("unknown horizon %q", h)}
		}
	}
	if c.Workers < 0 {
		return &ConfigurationError{Field: "workers", Reason: "must not be negative"}
	}
	return nil
}
