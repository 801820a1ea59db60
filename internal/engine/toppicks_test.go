package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcwatch/dcwatch/internal/contracts"
)

func leaderboardRows(rates map[string]float64) []*contracts.PoliticianSummary {
	var rows []*contracts.PoliticianSummary
	for name, rate := range rates {
		rows = append(rows, &contracts.PoliticianSummary{Name: name, WinRate: rate})
	}
	return rows
}

func TestPickScorerScoring(t *testing.T) {
	s := NewPickScorer(testLogger())
	cfg := testConfig(t)

	leaderboard := leaderboardRows(map[string]float64{
		"Alice Green": 80.0,
		"Bob Stone":   60.0,
		// Cara Park has no row: her win rate counts as 0.
	})

	trades := []*contracts.Trade{
		enriched(t, "p1", "Alice Green", "NVDA", "2025-06-25", 12.0, nil),
		purchase(t, "p2", "Bob Stone", "NVDA", "2025-06-05", republican),
		purchase(t, "p3", "Cara Park", "NVDA", "2025-05-10", nil),
		// Single buyer: below the distinct-buyer floor.
		purchase(t, "p4", "Dave Hill", "MSFT", "2025-06-20", nil),
		// Sales never feed the buy-side scan.
		purchase(t, "p5", "Alice Green", "TSLA", "2025-06-20", func(tr *contracts.Trade) {
			tr.TxType = contracts.TxSaleFull
		}),
		// Before the 60-day lookback.
		purchase(t, "p6", "Alice Green", "AMZN", "2025-04-20", nil),
		purchase(t, "p7", "Bob Stone", "AMZN", "2025-04-25", republican),
	}

	picks := s.Score(trades, leaderboard, cfg)
	require.Len(t, picks, 1)

	pick := picks[0]
	assert.Equal(t, "NVDA", pick.Ticker)
	assert.Equal(t, 3, pick.NumPoliticians)
	assert.True(t, pick.Bipartisan)
	// 3*3 buyers + 5 bipartisan + (80+60+0)/3/10 + recency 3+2+1
	assert.Equal(t, 24.7, pick.Score)
	assert.Equal(t, 46.7, pick.AvgWinRate)

	// Price context comes from the most recent purchase.
	assert.Equal(t, mustDate(t, "2025-06-25"), pick.LatestTradeDate)
	assert.Equal(t, 100.0, pick.PriceAtLatest.Value)
	assert.Equal(t, 112.0, pick.CurrentPrice.Value)

	// Roster ordered most recent first.
	require.Len(t, pick.Politicians, 3)
	assert.Equal(t, "Alice Green", pick.Politicians[0].Name)
	assert.Equal(t, 80.0, pick.Politicians[0].WinRate)
	assert.Equal(t, "Bob Stone", pick.Politicians[1].Name)
	assert.Equal(t, "Cara Park", pick.Politicians[2].Name)
	assert.Equal(t, 0.0, pick.Politicians[2].WinRate)
}

func TestPickScorerPerTradeRecency(t *testing.T) {
	s := NewPickScorer(testLogger())
	cfg := testConfig(t)

	// Alice buys twice: both purchases add recency, she counts once as
	// a buyer, and her roster row carries the later date.
	trades := []*contracts.Trade{
		purchase(t, "r1", "Alice Green", "NVDA", "2025-06-25", nil),
		purchase(t, "r2", "Alice Green", "NVDA", "2025-05-05", nil),
		purchase(t, "r3", "Bob Stone", "NVDA", "2025-06-22", republican),
	}

	picks := s.Score(trades, nil, cfg)
	require.Len(t, picks, 1)

	pick := picks[0]
	assert.Equal(t, 2, pick.NumPoliticians)
	// 3*2 + 5 bipartisan + 0 win rate + recency 3+1+3
	assert.Equal(t, 18.0, pick.Score)

	require.Len(t, pick.Politicians, 2)
	assert.Equal(t, "Alice Green", pick.Politicians[0].Name)
	assert.Equal(t, mustDate(t, "2025-06-25"), pick.Politicians[0].TxDate)
}

func TestPickScorerLookbackBoundary(t *testing.T) {
	s := NewPickScorer(testLogger())
	cfg := testConfig(t)

	// Exactly 60 days before the as-of date is still inside.
	trades := []*contracts.Trade{
		purchase(t, "b1", "Alice Green", "NVDA", "2025-05-01", nil),
		purchase(t, "b2", "Bob Stone", "NVDA", "2025-05-01", nil),
	}

	picks := s.Score(trades, nil, cfg)
	require.Len(t, picks, 1)
	assert.Equal(t, 2, picks[0].NumPoliticians)
}

func TestPickScorerSortAndLimit(t *testing.T) {
	s := NewPickScorer(testLogger())
	cfg := testConfig(t)

	trades := []*contracts.Trade{
		// Bipartisan pair scores above the same-party pair.
		purchase(t, "x1", "Alice Green", "NVDA", "2025-06-20", nil),
		purchase(t, "x2", "Bob Stone", "NVDA", "2025-06-20", republican),
		purchase(t, "y1", "Cara Park", "MSFT", "2025-06-20", nil),
		purchase(t, "y2", "Dave Hill", "MSFT", "2025-06-20", nil),
		// Identical scores resolve by ticker.
		purchase(t, "z1", "Cara Park", "AAPL", "2025-06-20", nil),
		purchase(t, "z2", "Dave Hill", "AAPL", "2025-06-20", nil),
	}

	picks := s.Score(trades, nil, cfg)
	require.Len(t, picks, 3)
	assert.Equal(t, "NVDA", picks[0].Ticker)
	assert.Equal(t, "AAPL", picks[1].Ticker)
	assert.Equal(t, "MSFT", picks[2].Ticker)

	cfg.PickLimit = 1
	picks = s.Score(trades, nil, cfg)
	require.Len(t, picks, 1)
	assert.Equal(t, "NVDA", picks[0].Ticker)
}
