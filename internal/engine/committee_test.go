package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcwatch/dcwatch/internal/contracts"
)

func armedServices() *contracts.Committee {
	return &contracts.Committee{
		Name:     "House Committee on Armed Services",
		Chamber:  contracts.ChamberHouse,
		Tickers:  []string{"LMT", "RTX"},
		Keywords: []string{"defense", "aerospace"},
		Members: []contracts.CommitteeMember{
			{Name: "Alice Green", Rank: 1},
			{Name: "Bob Stone", Rank: 3},
		},
	}
}

func TestCommitteeCorrelatorTickerMatch(t *testing.T) {
	c := NewCommitteeCorrelator(testLogger())
	cfg := testConfig(t)

	trade := purchase(t, "c1", "Alice Green", "LMT", "2025-05-01", func(tr *contracts.Trade) {
		tr.DaysLate = 0
		tr.DisclosureDate = tr.TxDate
	})

	flagged, summary := c.Correlate([]*contracts.Trade{trade}, []*contracts.Committee{armedServices()}, cfg)
	require.Len(t, flagged, 1)

	corr := flagged[0]
	require.Len(t, corr.Matches, 1)
	assert.Equal(t, contracts.MatchTicker, corr.Matches[0].MatchType)
	assert.Equal(t, "LMT", corr.Matches[0].Token)
	assert.Equal(t, 1, corr.Matches[0].MemberRank)
	// Chair seat: 40 * (1 + 2/3), no delay.
	assert.Equal(t, 66.67, corr.Score)

	assert.Equal(t, 1, summary.TotalFlagged)
	require.Len(t, summary.TopCommittees, 1)
	assert.Equal(t, 1, summary.TopCommittees[0].Trades)
}

func TestCommitteeCorrelatorKeywordMatches(t *testing.T) {
	c := NewCommitteeCorrelator(testLogger())
	cfg := testConfig(t)

	trade := purchase(t, "c2", "Bob Stone", "BA", "2025-05-01", func(tr *contracts.Trade) {
		tr.AssetDescription = "Boeing Defense and Aerospace Systems"
		tr.DaysLate = 0
		tr.DisclosureDate = tr.TxDate
	})

	flagged, _ := c.Correlate([]*contracts.Trade{trade}, []*contracts.Committee{armedServices()}, cfg)
	require.Len(t, flagged, 1)

	corr := flagged[0]
	require.Len(t, corr.Matches, 2, "each keyword records its own hit")
	assert.Equal(t, contracts.MatchKeyword, corr.Matches[0].MatchType)
	// Most junior seat: (15 + 15) * 1.0, no delay.
	assert.Equal(t, 30.0, corr.Score)
}

func TestCommitteeCorrelatorDelayMultiplier(t *testing.T) {
	c := NewCommitteeCorrelator(testLogger())
	cfg := testConfig(t)

	tests := []struct {
		name     string
		daysLate int
		want     float64
	}{
		{name: "no delay", daysLate: 0, want: 66.67},
		{name: "30 days", daysLate: 30, want: 73.33},
		{name: "90 days", daysLate: 90, want: 86.67},
		{name: "capped beyond 90", daysLate: 200, want: 86.67},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trade := purchase(t, "c3", "Alice Green", "LMT", "2025-01-10", func(tr *contracts.Trade) {
				tr.DaysLate = tt.daysLate
				tr.DisclosureDate = tr.TxDate.AddDays(tt.daysLate)
			})

			flagged, _ := c.Correlate([]*contracts.Trade{trade}, []*contracts.Committee{armedServices()}, cfg)
			require.Len(t, flagged, 1)
			assert.Equal(t, tt.want, flagged[0].Score)
		})
	}
}

func TestCommitteeCorrelatorScoreClamp(t *testing.T) {
	c := NewCommitteeCorrelator(testLogger())
	cfg := testConfig(t)

	// Ticker plus both keywords on the chair's seat exceeds the cap.
	trade := purchase(t, "c4", "Alice Green", "LMT", "2025-05-01", func(tr *contracts.Trade) {
		tr.AssetDescription = "Lockheed Martin defense and aerospace"
		tr.DaysLate = 0
		tr.DisclosureDate = tr.TxDate
	})

	flagged, _ := c.Correlate([]*contracts.Trade{trade}, []*contracts.Committee{armedServices()}, cfg)
	require.Len(t, flagged, 1)
	assert.Equal(t, 100.0, flagged[0].Score)
	assert.Len(t, flagged[0].Matches, 3)
}

// Moving down the seat order never raises a hit: with the same committee
// and the same trade, a more junior member scores at most what the member
// one seat above them scores.
func TestCommitteeCorrelatorSeniorityMonotonic(t *testing.T) {
	c := NewCommitteeCorrelator(testLogger())
	cfg := testConfig(t)

	const seats = 6
	com := &contracts.Committee{
		Name:    "House Committee on Armed Services",
		Chamber: contracts.ChamberHouse,
		Tickers: []string{"LMT"},
	}
	names := []string{"M1", "M2", "M3", "M4", "M5", "M6"}
	for i, name := range names {
		com.Members = append(com.Members, contracts.CommitteeMember{Name: name, Rank: i + 1})
	}

	prev := 0.0
	for rank := seats; rank >= 1; rank-- {
		trade := purchase(t, "cm1", names[rank-1], "LMT", "2025-05-01", func(tr *contracts.Trade) {
			tr.DaysLate = 0
			tr.DisclosureDate = tr.TxDate
		})
		flagged, _ := c.Correlate([]*contracts.Trade{trade}, []*contracts.Committee{com}, cfg)
		require.Len(t, flagged, 1, "rank %d", rank)
		assert.GreaterOrEqual(t, flagged[0].Score, prev, "rank %d must not score below rank %d", rank, rank+1)
		prev = flagged[0].Score
	}

	// The multiplier itself: chair doubles, most junior seat is neutral,
	// and it never increases with rank.
	assert.Equal(t, 2.0, seniorityMultiplier(1, seats))
	assert.Equal(t, 1.0, seniorityMultiplier(seats, seats))
	for rank := 2; rank <= seats; rank++ {
		assert.LessOrEqual(t, seniorityMultiplier(rank, seats), seniorityMultiplier(rank-1, seats))
	}
}

func TestCommitteeCorrelatorNonMember(t *testing.T) {
	c := NewCommitteeCorrelator(testLogger())
	cfg := testConfig(t)

	// Cara trades a covered ticker but holds no seat.
	trade := purchase(t, "c5", "Cara Park", "LMT", "2025-05-01", nil)

	flagged, summary := c.Correlate([]*contracts.Trade{trade}, []*contracts.Committee{armedServices()}, cfg)
	assert.Empty(t, flagged)
	assert.Equal(t, 0, summary.TotalFlagged)
}

func TestCommitteeCorrelatorCaseInsensitive(t *testing.T) {
	c := NewCommitteeCorrelator(testLogger())
	cfg := testConfig(t)

	com := armedServices()
	com.Tickers = []string{"lmt"}
	com.Keywords = []string{"DEFENSE"}

	trade := purchase(t, "c6", "Bob Stone", "LMT", "2025-05-01", func(tr *contracts.Trade) {
		tr.AssetDescription = "defense contractor common stock"
		tr.DaysLate = 0
		tr.DisclosureDate = tr.TxDate
	})

	flagged, _ := c.Correlate([]*contracts.Trade{trade}, []*contracts.Committee{com}, cfg)
	require.Len(t, flagged, 1)
	assert.Len(t, flagged[0].Matches, 2)
}

func TestCommitteeCorrelatorSummaryRollup(t *testing.T) {
	c := NewCommitteeCorrelator(testLogger())
	cfg := testConfig(t)

	trades := []*contracts.Trade{
		purchase(t, "c7", "Alice Green", "LMT", "2025-05-01", func(tr *contracts.Trade) {
			tr.DaysLate = 0
			tr.DisclosureDate = tr.TxDate
		}),
		purchase(t, "c8", "Alice Green", "RTX", "2025-05-10", func(tr *contracts.Trade) {
			tr.DaysLate = 0
			tr.DisclosureDate = tr.TxDate
		}),
		purchase(t, "c9", "Bob Stone", "LMT", "2025-05-20", func(tr *contracts.Trade) {
			tr.DaysLate = 0
			tr.DisclosureDate = tr.TxDate
		}),
	}

	flagged, summary := c.Correlate(trades, []*contracts.Committee{armedServices()}, cfg)
	require.Len(t, flagged, 3)

	// Sorted by score descending: the chair's two trades outrank the
	// junior member's.
	assert.Equal(t, "Alice Green", flagged[0].Politician)
	assert.Equal(t, "Alice Green", flagged[1].Politician)
	assert.Equal(t, "Bob Stone", flagged[2].Politician)
	// Equal scores fall back to trade ID order.
	assert.Equal(t, "c7", flagged[0].TradeID)
	assert.Equal(t, "c8", flagged[1].TradeID)

	assert.Equal(t, 3, summary.TotalFlagged)
	require.Len(t, summary.TopCommittees, 1)
	assert.Equal(t, 3, summary.TopCommittees[0].Trades)

	require.Len(t, summary.TopTraders, 2)
	assert.Equal(t, "Alice Green", summary.TopTraders[0].Name)
	assert.Equal(t, 2, summary.TopTraders[0].Trades)
	assert.Equal(t, 133.34, summary.TopTraders[0].TotalScore)
	assert.Equal(t, "Bob Stone", summary.TopTraders[1].Name)
	assert.Equal(t, 40.0, summary.TopTraders[1].TotalScore)
}
