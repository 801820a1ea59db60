package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcwatch/dcwatch/internal/contracts"
)

func TestLeaderboardBuild(t *testing.T) {
	b := NewLeaderboardBuilder(testLogger())
	cfg := testConfig(t)

	trades := []*contracts.Trade{
		enriched(t, "a1", "Alice Green", "NVDA", "2025-05-01", 10.0, nil),
		// Outside the 1-year window: counts for the win rate, not the
		// windowed average.
		enriched(t, "a2", "Alice Green", "MSFT", "2024-01-15", -5.0, nil),
		enriched(t, "a3", "Alice Green", "NVDA", "2025-03-10", 20.0, nil),
		purchase(t, "a4", "Alice Green", "TSLA", "2025-06-01", nil),
		enriched(t, "b1", "Bob Stone", "AAPL", "2025-06-10", 30.0, func(tr *contracts.Trade) {
			tr.Party = contracts.PartyRepublican
			tr.State = "TX"
		}),
	}

	rows := b.Build(trades, cfg)
	require.Len(t, rows, 2)

	// Sorted by windowed return descending.
	assert.Equal(t, "Bob Stone", rows[0].Name)
	assert.Equal(t, 30.0, rows[0].EstReturn1Y)
	assert.Equal(t, 100.0, rows[0].WinRate)

	alice := rows[1]
	assert.Equal(t, "Alice Green", alice.Name)
	assert.Equal(t, 4, alice.TotalTrades)
	assert.Equal(t, 3, alice.ResolvableTrades)
	assert.Equal(t, 15.0, alice.EstReturn1Y)
	assert.Equal(t, 66.7, alice.WinRate)
	assert.Equal(t, 3, alice.UniqueTickers)

	require.NotNil(t, alice.BestTrade)
	assert.Equal(t, 20.0, alice.BestTrade.EstReturn)
	assert.Equal(t, "NVDA", alice.BestTrade.Ticker)
	require.NotNil(t, alice.WorstTrade)
	assert.Equal(t, -5.0, alice.WorstTrade.EstReturn)
	assert.Equal(t, "MSFT", alice.WorstTrade.Ticker)
}

func TestLeaderboardNameTieBreak(t *testing.T) {
	b := NewLeaderboardBuilder(testLogger())
	cfg := testConfig(t)

	trades := []*contracts.Trade{
		enriched(t, "d1", "Dave Hill", "NVDA", "2025-05-01", 5.0, nil),
		enriched(t, "c1", "Cara Park", "MSFT", "2025-05-01", 5.0, nil),
	}

	rows := b.Build(trades, cfg)
	require.Len(t, rows, 2)
	assert.Equal(t, "Cara Park", rows[0].Name)
	assert.Equal(t, "Dave Hill", rows[1].Name)
}

func TestLeaderboardBestTradeRecencyTieBreak(t *testing.T) {
	b := NewLeaderboardBuilder(testLogger())
	cfg := testConfig(t)

	trades := []*contracts.Trade{
		enriched(t, "e1", "Eve Long", "NVDA", "2025-01-01", 10.0, nil),
		enriched(t, "e2", "Eve Long", "MSFT", "2025-02-01", 10.0, nil),
	}

	rows := b.Build(trades, cfg)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].BestTrade)
	assert.Equal(t, "MSFT", rows[0].BestTrade.Ticker, "equal returns break toward the recent trade")
	assert.Equal(t, "MSFT", rows[0].WorstTrade.Ticker)
}

func TestLeaderboardIdentityFirstNonEmpty(t *testing.T) {
	b := NewLeaderboardBuilder(testLogger())
	cfg := testConfig(t)

	trades := []*contracts.Trade{
		purchase(t, "f1", "Fay Moss", "NVDA", "2025-05-01", func(tr *contracts.Trade) {
			tr.Party = contracts.PartyUnknown
			tr.State = ""
		}),
		purchase(t, "f2", "Fay Moss", "NVDA", "2025-05-02", func(tr *contracts.Trade) {
			tr.Party = contracts.PartyRepublican
			tr.State = "TX"
		}),
	}

	rows := b.Build(trades, cfg)
	require.Len(t, rows, 1)
	assert.Equal(t, contracts.PartyRepublican, rows[0].Party)
	assert.Equal(t, "TX", rows[0].State)
}

func TestLeaderboardNoResolvableReturns(t *testing.T) {
	b := NewLeaderboardBuilder(testLogger())
	cfg := testConfig(t)

	rows := b.Build([]*contracts.Trade{
		purchase(t, "g1", "Gil Nash", "NVDA", "2025-05-01", nil),
	}, cfg)

	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, 1, row.TotalTrades)
	assert.Equal(t, 0, row.ResolvableTrades)
	assert.Equal(t, 0.0, row.WinRate)
	assert.Equal(t, 0.0, row.EstReturn1Y)
	assert.Nil(t, row.BestTrade)
	assert.Nil(t, row.WorstTrade)
}
