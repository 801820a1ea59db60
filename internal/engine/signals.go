package engine

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/dcwatch/dcwatch/internal/contracts"
	"github.com/dcwatch/dcwatch/pkg/logger"
)

// SignalDetector finds clusters of distinct politicians trading the same
// ticker inside a rolling window.
type SignalDetector struct {
	logger *logger.Logger
}

// NewSignalDetector creates a new signal detector.
func NewSignalDetector(log *logger.Logger) *SignalDetector {
	return &SignalDetector{logger: log}
}

// candidate pairs a qualified cluster with its anchor date for
// deterministic tie-breaking during overlap dedup.
type candidate struct {
	signal *contracts.Signal
	anchor contracts.Date
}

// Detect scans the snapshot for trading clusters. Tickers fan out across
// a bounded worker pool; the merged output is sorted by heat descending,
// ticker ascending, start date ascending, so results are identical
// regardless of worker interleaving.
func (d *SignalDetector) Detect(ctx context.Context, trades []*contracts.Trade, cfg Config) []*contracts.Signal {
	// 1. Group trades by ticker
	byTicker := make(map[string][]*contracts.Trade)
	for _, t := range trades {
		if t.Ticker == "" || t.TxDate.IsZero() {
			continue
		}
		byTicker[t.Ticker] = append(byTicker[t.Ticker], t)
	}

	// 2. Fan tickers out across the pool
	tickerCh := make(chan string, len(byTicker))
	resultCh := make(chan []*contracts.Signal, len(byTicker))

	var wg sync.WaitGroup
	for i := 0; i < poolSize(cfg.Workers); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ticker := range tickerCh {
				select {
				case <-ctx.Done():
					continue
				default:
				}
				resultCh <- d.detectTicker(ticker, byTicker[ticker], cfg)
			}
		}()
	}

	for ticker := range byTicker {
		tickerCh <- ticker
	}
	close(tickerCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// 3. Merge and order
	var signals []*contracts.Signal
	for kept := range resultCh {
		signals = append(signals, kept...)
	}

	sort.Slice(signals, func(i, j int) bool {
		if signals[i].HeatScore != signals[j].HeatScore {
			return signals[i].HeatScore > signals[j].HeatScore
		}
		if signals[i].Ticker != signals[j].Ticker {
			return signals[i].Ticker < signals[j].Ticker
		}
		return signals[i].StartDate.Before(signals[j].StartDate)
	})

	d.logger.WithFields(map[string]interface{}{
		"tickers": len(byTicker),
		"signals": len(signals),
	}).Debug("Signal detection completed")

	return signals
}

// detectTicker runs the anchor scan for one ticker and returns its
// non-overlapping clusters.
func (d *SignalDetector) detectTicker(ticker string, trades []*contracts.Trade, cfg Config) []*contracts.Signal {
	// Sort by (date, politician, type) so cluster construction does not
	// depend on input order.
	sorted := make([]*contracts.Trade, len(trades))
	copy(sorted, trades)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].TxDate.Equal(sorted[j].TxDate) {
			return sorted[i].TxDate.Before(sorted[j].TxDate)
		}
		if sorted[i].Politician != sorted[j].Politician {
			return sorted[i].Politician < sorted[j].Politician
		}
		return sorted[i].TxType < sorted[j].TxType
	})

	// Every trade anchors one candidate window.
	var candidates []candidate
	for _, anchor := range sorted {
		var window []*contracts.Trade
		for _, t := range sorted {
			delta := t.TxDate.DaysSince(anchor.TxDate)
			if delta >= 0 && delta <= cfg.SignalWindowDays {
				window = append(window, t)
			}
		}

		if distinctPoliticians(window) < cfg.SignalMinTraders {
			continue
		}
		candidates = append(candidates, candidate{
			signal: d.buildSignal(ticker, anchor.TxDate, window, cfg),
			anchor: anchor.TxDate,
		})
	}

	return dedupeOverlapping(candidates)
}

// buildSignal assembles one cluster from its window trades.
func (d *SignalDetector) buildSignal(ticker string, start contracts.Date, window []*contracts.Trade, cfg Config) *contracts.Signal {
	end := start
	company := ""
	totalVolume := 0.0
	parties := make(map[contracts.Party]struct{})

	type rosterKey struct {
		name string
		date contracts.Date
		kind contracts.TxType
	}
	seen := make(map[rosterKey]struct{})
	var roster []contracts.SignalTrader

	for _, t := range window {
		if t.TxDate.After(end) {
			end = t.TxDate
		}
		if company == "" && t.AssetDescription != "" {
			company = t.AssetDescription
		}
		totalVolume += t.Midpoint()
		if t.Party != contracts.PartyUnknown {
			parties[t.Party] = struct{}{}
		}

		key := rosterKey{name: t.Politician, date: t.TxDate, kind: t.TxType}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		roster = append(roster, contracts.SignalTrader{
			Name:   t.Politician,
			Party:  t.Party,
			TxType: t.TxType,
			TxDate: t.TxDate,
		})
	}
	if company == "" {
		company = ticker
	}

	_, hasD := parties[contracts.PartyDemocrat]
	_, hasR := parties[contracts.PartyRepublican]
	bipartisan := hasD && hasR

	heat := cfg.HeatTraderWeight * distinctPoliticians(window)
	if bipartisan {
		heat += cfg.HeatBipartisanBonus
	}
	heat += int(math.Log(totalVolume + 1))

	return &contracts.Signal{
		Ticker:      ticker,
		CompanyName: company,
		Politicians: roster,
		StartDate:   start,
		EndDate:     end,
		HeatScore:   heat,
		Bipartisan:  bipartisan,
	}
}

// dedupeOverlapping keeps the hottest cluster of every overlapping group,
// so a trade lands in at most one kept cluster per ticker.
func dedupeOverlapping(candidates []candidate) []*contracts.Signal {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].signal.HeatScore != candidates[j].signal.HeatScore {
			return candidates[i].signal.HeatScore > candidates[j].signal.HeatScore
		}
		if !candidates[i].signal.StartDate.Equal(candidates[j].signal.StartDate) {
			return candidates[i].signal.StartDate.Before(candidates[j].signal.StartDate)
		}
		return candidates[i].anchor.Before(candidates[j].anchor)
	})

	var kept []*contracts.Signal
	for _, c := range candidates {
		overlaps := false
		for _, k := range kept {
			if c.signal.Overlaps(k) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, c.signal)
		}
	}
	return kept
}

func distinctPoliticians(trades []*contracts.Trade) int {
	seen := make(map[string]struct{}, len(trades))
	for _, t := range trades {
		seen[t.Politician] = struct{}{}
	}
	return len(seen)
}
