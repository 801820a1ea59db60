package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcwatch/dcwatch/internal/contracts"
)

func fullSnapshot(t *testing.T) contracts.Snapshot {
	t.Helper()

	trades := backtestTrades(t)
	// A third NVDA buyer inside the window turns the pair into a cluster.
	trades = append(trades,
		enriched(t, "sn1", "Cara Park", "NVDA", "2025-06-20", 8.0, nil),
		enriched(t, "sn2", "Dave Hill", "NVDA", "2025-06-22", -2.0, republican),
		enriched(t, "sn3", "Alice Green", "NVDA", "2025-06-25", 5.0, nil),
	)

	return contracts.Snapshot{
		Trades:     trades,
		Prices:     backtestBook(t),
		Committees: []*contracts.Committee{armedServices()},
	}
}

func TestEngineRunProducesAllSections(t *testing.T) {
	e := New(testLogger())
	cfg := testConfig(t)

	result, diag, err := e.Run(context.Background(), fullSnapshot(t), cfg)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.NotEmpty(t, result.Leaderboard)
	assert.NotEmpty(t, result.Signals)
	assert.NotEmpty(t, result.TopPicks)
	require.NotNil(t, result.Backtest)
	assert.Equal(t, 5, result.Backtest.TotalTradesAnalyzed)
	require.NotNil(t, result.CommitteeSummary)
	assert.True(t, diag.Clean())
}

func TestEngineRunDeterministic(t *testing.T) {
	e := New(testLogger())
	cfg := testConfig(t)

	first, _, err := e.Run(context.Background(), fullSnapshot(t), cfg)
	require.NoError(t, err)
	second, _, err := e.Run(context.Background(), fullSnapshot(t), cfg)
	require.NoError(t, err)

	// The generation timestamp is the only wall-clock field.
	first.Backtest.GeneratedAt = ""
	second.Backtest.GeneratedAt = ""
	assert.Equal(t, first, second)
}

func TestEngineRunRejectsBadConfig(t *testing.T) {
	e := New(testLogger())
	cfg := testConfig(t)
	cfg.SignalMinTraders = 1

	result, diag, err := e.Run(context.Background(), fullSnapshot(t), cfg)
	require.Error(t, err)
	assert.Nil(t, result, "no partial output on a config failure")
	assert.True(t, diag.Clean())

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "signal_min_traders", cfgErr.Field)
}

func TestEngineRunSurfacesMalformed(t *testing.T) {
	e := New(testLogger())
	cfg := testConfig(t)

	snapshot := fullSnapshot(t)
	snapshot.Trades = append(snapshot.Trades,
		purchase(t, "bad1", "Zed Vile", "NVDA", "2025-06-21", func(tr *contracts.Trade) {
			tr.Party = "Z"
		}),
	)

	result, diag, err := e.Run(context.Background(), snapshot, cfg)
	require.NoError(t, err)

	require.Len(t, diag.Malformed, 1)
	assert.Equal(t, "bad1", diag.Malformed[0].TradeID)
	for _, row := range result.Leaderboard {
		assert.NotEqual(t, "Zed Vile", row.Name, "malformed trades feed no component")
	}
}

func TestEngineRunCancelledContext(t *testing.T) {
	e := New(testLogger())
	cfg := testConfig(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, _, err := e.Run(ctx, fullSnapshot(t), cfg)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
}

func TestEngineRunEmptySnapshot(t *testing.T) {
	e := New(testLogger())
	cfg := testConfig(t)

	result, diag, err := e.Run(context.Background(), contracts.Snapshot{}, cfg)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Empty(t, result.Leaderboard)
	assert.Empty(t, result.Signals)
	assert.Empty(t, result.TopPicks)
	assert.Equal(t, 0, result.Backtest.TotalTradesAnalyzed)
	assert.True(t, diag.Clean())
}
