package engine

import (
	"sort"

	"github.com/dcwatch/dcwatch/internal/contracts"
	"github.com/dcwatch/dcwatch/pkg/logger"
)

// PickScorer ranks tickers by recent buy-side consensus.
type PickScorer struct {
	logger *logger.Logger
}

// NewPickScorer creates a new top-picks scorer.
func NewPickScorer(log *logger.Logger) *PickScorer {
	return &PickScorer{logger: log}
}

// Score ranks recent purchase activity. The leaderboard feeds each
// buyer's historical win rate; a buyer without a row counts as 0 so an
// unknown trader never inflates a pick.
func (s *PickScorer) Score(trades []*contracts.Trade, leaderboard []*contracts.PoliticianSummary, cfg Config) []*contracts.TopPick {
	cutoff := cfg.AsOf.AddDays(-cfg.PickLookbackDays)

	winRates := make(map[string]float64, len(leaderboard))
	for _, row := range leaderboard {
		winRates[row.Name] = row.WinRate
	}

	// 1. Collect in-window purchases per ticker
	byTicker := make(map[string][]*contracts.Trade)
	for _, t := range trades {
		if t.TxType != contracts.TxPurchase || t.Ticker == "" {
			continue
		}
		if t.TxDate.Before(cutoff) {
			continue
		}
		byTicker[t.Ticker] = append(byTicker[t.Ticker], t)
	}

	// 2. Score each ticker with enough distinct buyers
	var picks []*contracts.TopPick
	for ticker, buys := range byTicker {
		if distinctPoliticians(buys) < cfg.PickMinBuyers {
			continue
		}
		picks = append(picks, s.scoreTicker(ticker, buys, winRates, cfg))
	}

	// 3. Rank and cap
	sort.Slice(picks, func(i, j int) bool {
		if picks[i].Score != picks[j].Score {
			return picks[i].Score > picks[j].Score
		}
		if !picks[i].LatestTradeDate.Equal(picks[j].LatestTradeDate) {
			return picks[i].LatestTradeDate.After(picks[j].LatestTradeDate)
		}
		return picks[i].Ticker < picks[j].Ticker
	})
	if len(picks) > cfg.PickLimit {
		picks = picks[:cfg.PickLimit]
	}

	s.logger.WithFields(map[string]interface{}{
		"candidates": len(byTicker),
		"picks":      len(picks),
	}).Debug("Scored top picks")

	return picks
}

// scoreTicker builds one pick from a ticker's in-window purchases.
func (s *PickScorer) scoreTicker(ticker string, buys []*contracts.Trade, winRates map[string]float64, cfg Config) *contracts.TopPick {
	company := ""
	recencyScore := 0.0
	parties := make(map[contracts.Party]struct{})
	var latest *contracts.Trade

	// buyers keeps each politician's most recent purchase in the window.
	buyers := make(map[string]*contracts.Trade)
	for _, t := range buys {
		if company == "" && t.AssetDescription != "" {
			company = t.AssetDescription
		}
		if t.Party != contracts.PartyUnknown {
			parties[t.Party] = struct{}{}
		}
		if latest == nil || t.TxDate.After(latest.TxDate) {
			latest = t
		}
		if prev, ok := buyers[t.Politician]; !ok || t.TxDate.After(prev.TxDate) {
			buyers[t.Politician] = t
		}

		// Each trade's recency contributes, not just each buyer's.
		switch days := cfg.AsOf.DaysSince(t.TxDate); {
		case days <= 14:
			recencyScore += 3
		case days <= 30:
			recencyScore += 2
		default:
			recencyScore += 1
		}
	}
	if company == "" {
		company = ticker
	}

	rates := make([]float64, 0, len(buyers))
	roster := make([]contracts.PickBuyer, 0, len(buyers))
	for name, t := range buyers {
		rate := winRates[name]
		rates = append(rates, rate)
		roster = append(roster, contracts.PickBuyer{
			Name:    name,
			Party:   t.Party,
			TxDate:  t.TxDate,
			WinRate: rate,
		})
	}
	sort.Slice(roster, func(i, j int) bool {
		if !roster[i].TxDate.Equal(roster[j].TxDate) {
			return roster[i].TxDate.After(roster[j].TxDate)
		}
		return roster[i].Name < roster[j].Name
	})

	_, hasD := parties[contracts.PartyDemocrat]
	_, hasR := parties[contracts.PartyRepublican]
	bipartisan := hasD && hasR

	avgWinRate := mean(rates)
	score := cfg.PickBuyerWeight * float64(len(buyers))
	if bipartisan {
		score += cfg.PickBipartisanBonus
	}
	score += avgWinRate / 10
	score += recencyScore

	return &contracts.TopPick{
		Ticker:          ticker,
		CompanyName:     company,
		Score:           round1(score),
		NumPoliticians:  len(buyers),
		Bipartisan:      bipartisan,
		AvgWinRate:      round1(avgWinRate),
		LatestTradeDate: latest.TxDate,
		PriceAtLatest:   latest.PriceAtTrade,
		CurrentPrice:    latest.CurrentPrice,
		Politicians:     roster,
	}
}
