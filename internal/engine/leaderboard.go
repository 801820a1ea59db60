package engine

import (
	"sort"

	"github.com/dcwatch/dcwatch/internal/contracts"
	"github.com/dcwatch/dcwatch/pkg/logger"
)

// LeaderboardBuilder aggregates per-politician performance rows.
type LeaderboardBuilder struct {
	logger *logger.Logger
}

// NewLeaderboardBuilder creates a new leaderboard builder.
func NewLeaderboardBuilder(log *logger.Logger) *LeaderboardBuilder {
	return &LeaderboardBuilder{logger: log}
}

type politicianAccum struct {
	summary *contracts.PoliticianSummary
	// returns collects every resolvable return for the win rate;
	// windowed collects only those inside the 1-year window.
	returns  []float64
	windowed []float64
	tickers  map[string]struct{}
	best     *contracts.Trade
	worst    *contracts.Trade
}

// Build computes one summary row per politician over the whole snapshot.
// Rows come back sorted by estimated 1-year return descending, name
// ascending on ties.
func (b *LeaderboardBuilder) Build(trades []*contracts.Trade, cfg Config) []*contracts.PoliticianSummary {
	cutoff := cfg.AsOf.AddDays(-cfg.LeaderboardWindowDays)

	accums := make(map[string]*politicianAccum)
	for _, t := range trades {
		acc, ok := accums[t.Politician]
		if !ok {
			acc = &politicianAccum{
				summary: &contracts.PoliticianSummary{Name: t.Politician},
				tickers: make(map[string]struct{}),
			}
			accums[t.Politician] = acc
		}

		// First non-empty wins for the identity fields.
		if acc.summary.Party == contracts.PartyUnknown {
			acc.summary.Party = t.Party
		}
		if acc.summary.State == "" {
			acc.summary.State = t.State
		}
		if acc.summary.Chamber == "" {
			acc.summary.Chamber = t.Chamber
		}

		acc.summary.TotalTrades++
		if t.Ticker != "" {
			acc.tickers[t.Ticker] = struct{}{}
		}

		if !t.HasResolvableReturn() {
			continue
		}
		ret := t.EstReturn.Value
		acc.returns = append(acc.returns, ret)
		if !t.TxDate.Before(cutoff) {
			acc.windowed = append(acc.windowed, ret)
		}

		if acc.best == nil || betterTrade(t, acc.best) {
			acc.best = t
		}
		if acc.worst == nil || worseTrade(t, acc.worst) {
			acc.worst = t
		}
	}

	rows := make([]*contracts.PoliticianSummary, 0, len(accums))
	for _, acc := range accums {
		s := acc.summary
		s.ResolvableTrades = len(acc.returns)
		s.WinRate = round1(winRate(acc.returns))
		s.EstReturn1Y = round2(mean(acc.windowed))
		s.UniqueTickers = len(acc.tickers)
		s.BestTrade = tradeRef(acc.best)
		s.WorstTrade = tradeRef(acc.worst)
		rows = append(rows, s)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].EstReturn1Y != rows[j].EstReturn1Y {
			return rows[i].EstReturn1Y > rows[j].EstReturn1Y
		}
		return rows[i].Name < rows[j].Name
	})

	b.logger.WithFields(map[string]interface{}{
		"politicians": len(rows),
		"trades":      len(trades),
	}).Debug("Built leaderboard")

	return rows
}

// betterTrade prefers the higher return, breaking ties toward the more
// recent transaction.
func betterTrade(t, cur *contracts.Trade) bool {
	if t.EstReturn.Value != cur.EstReturn.Value {
		return t.EstReturn.Value > cur.EstReturn.Value
	}
	return t.TxDate.After(cur.TxDate)
}

func worseTrade(t, cur *contracts.Trade) bool {
	if t.EstReturn.Value != cur.EstReturn.Value {
		return t.EstReturn.Value < cur.EstReturn.Value
	}
	return t.TxDate.After(cur.TxDate)
}

func tradeRef(t *contracts.Trade) *contracts.TradeRef {
	if t == nil {
		return nil
	}
	return &contracts.TradeRef{
		Ticker:      t.Ticker,
		TxType:      t.TxType,
		TxDate:      t.TxDate,
		EstReturn:   t.EstReturn.Value,
		EstPosition: t.EstPosition,
	}
}
