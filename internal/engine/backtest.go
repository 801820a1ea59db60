package engine

import (
	"sort"
	"time"

	"github.com/dcwatch/dcwatch/internal/contracts"
	"github.com/dcwatch/dcwatch/pkg/logger"
)

// Amount-band boundaries for the backtest breakdown, in dollars of
// band midpoint.
const (
	smallPositionMax  = 15000
	mediumPositionMax = 100000
)

// daysLateBuckets is the fixed report order for the delay breakdown.
var daysLateBuckets = []string{"0-15d", "16-30d", "31-45d", "45d+"}

// Simulator replays a copycat strategy: buy each disclosed purchase at
// its disclosure-date price, hold for a fixed horizon, and compare the
// same window against the benchmark.
type Simulator struct {
	logger *logger.Logger
}

// NewSimulator creates a new backtest simulator.
func NewSimulator(log *logger.Logger) *Simulator {
	return &Simulator{logger: log}
}

// Simulate runs the copycat backtest over every eligible purchase.
// A missing price leg excludes a trade from that horizon's statistics
// only; the row itself stays in the report with the gap visible.
func (s *Simulator) Simulate(trades []*contracts.Trade, book *contracts.PriceBook, cfg Config, diag *contracts.Diagnostics) *contracts.BacktestReport {
	// 1. Filter to eligible purchases
	var eligible []*contracts.Trade
	for _, t := range trades {
		if t.TxType != contracts.TxPurchase {
			continue
		}
		switch {
		case !t.HasTicker():
			diag.AddSkipped(t, "backtest", "no resolvable ticker")
		case t.DisclosureDate.IsZero():
			diag.AddSkipped(t, "backtest", "no disclosure date")
		case t.PriceAtTrade.Missing():
			diag.AddSkipped(t, "backtest", "no price at transaction date")
		default:
			eligible = append(eligible, t)
		}
	}

	// 2. Simulate each trade
	rows := make([]*contracts.BacktestTrade, 0, len(eligible))
	for _, t := range eligible {
		rows = append(rows, s.simulateTrade(t, book, cfg))
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].DisclosureDate.Equal(rows[j].DisclosureDate) {
			return rows[i].DisclosureDate.Before(rows[j].DisclosureDate)
		}
		return rows[i].ID < rows[j].ID
	})

	// 3. Aggregate
	report := s.buildReport(rows, cfg)

	s.logger.WithFields(map[string]interface{}{
		"trades":   len(trades),
		"eligible": len(eligible),
		"skipped":  len(trades) - len(eligible),
	}).Debug("Backtest simulation completed")

	return report
}

// simulateTrade prices one copycat position at every horizon.
func (s *Simulator) simulateTrade(t *contracts.Trade, book *contracts.PriceBook, cfg Config) *contracts.BacktestTrade {
	entry := book.Lookup(t.Ticker, t.DisclosureDate)
	spyEntry := book.Benchmark(t.DisclosureDate)

	// Current price falls back to the enrichment-time quote when the
	// book has no close for the as-of date.
	current := book.Lookup(t.Ticker, cfg.AsOf)
	if current.Missing() {
		current = t.CurrentPrice
	}
	spyCurrent := book.Benchmark(cfg.AsOf)

	// Horizon dates in the future resolve to nothing by construction.
	price30, spy30 := s.horizonPrices(t, book, cfg, 30)
	price90, spy90 := s.horizonPrices(t, book, cfg, 90)

	row := &contracts.BacktestTrade{
		ID:                t.ID,
		Politician:        t.Politician,
		Party:             t.Party,
		Ticker:            t.Ticker,
		AssetDescription:  t.AssetDescription,
		TxDate:            t.TxDate,
		DisclosureDate:    t.DisclosureDate,
		DaysLate:          t.DaysLate,
		AmountLow:         t.AmountLow,
		AmountHigh:        t.AmountHigh,
		PriceAtTrade:      t.PriceAtTrade.Value,
		PriceAtDisclosure: entry,
		Price30D:          price30,
		Price90D:          price90,
		CurrentPrice:      current,
		PoliticianReturn:  t.EstReturn,

		CopycatReturnCurrent: Return(entry, current).Round2(),
		CopycatReturn30D:     Return(entry, price30).Round2(),
		CopycatReturn90D:     Return(entry, price90).Round2(),

		SpyReturnCurrent: Return(spyEntry, spyCurrent).Round2(),
		SpyReturn30D:     Return(spyEntry, spy30).Round2(),
		SpyReturn90D:     Return(spyEntry, spy90).Round2(),

		TimingCost: Return(t.PriceAtTrade, entry).Round2(),
	}

	row.AlphaCurrent = alpha(row.CopycatReturnCurrent, row.SpyReturnCurrent)
	row.Alpha30D = alpha(row.CopycatReturn30D, row.SpyReturn30D)
	row.Alpha90D = alpha(row.CopycatReturn90D, row.SpyReturn90D)
	return row
}

// horizonPrices resolves the trade and benchmark closes n days past the
// disclosure date.
func (s *Simulator) horizonPrices(t *contracts.Trade, book *contracts.PriceBook, cfg Config, n int) (contracts.Price, contracts.Price) {
	target := t.DisclosureDate.AddDays(n)
	if target.After(cfg.AsOf) {
		return contracts.MissingPrice(), contracts.MissingPrice()
	}
	return book.Lookup(t.Ticker, target), book.Benchmark(target)
}

// alpha is the copycat excess over the benchmark, present only when both
// legs resolved.
func alpha(copycat, spy contracts.Price) contracts.Price {
	if copycat.Missing() || spy.Missing() {
		return contracts.MissingPrice()
	}
	return contracts.PriceOf(round2(copycat.Value - spy.Value))
}

// buildReport aggregates simulated rows into the full report shape.
// Every section is present even when empty so consumers never branch on
// missing keys.
func (s *Simulator) buildReport(rows []*contracts.BacktestTrade, cfg Config) *contracts.BacktestReport {
	report := &contracts.BacktestReport{
		GeneratedAt:         time.Now().UTC().Format(time.RFC3339),
		TotalTradesAnalyzed: len(rows),
		StrategySummary:     make(map[contracts.Horizon]contracts.WindowStats, len(cfg.Horizons)),
		VsBenchmark:         make(map[contracts.Horizon]contracts.BenchmarkComparison, len(cfg.Horizons)),
		ByParty:             make(map[contracts.Party]contracts.WindowStats, 2),
		ByAmount:            make(map[string]contracts.WindowStats, 3),
		IndividualTrades:    make([]contracts.BacktestTrade, 0, len(rows)),
	}

	for _, h := range cfg.Horizons {
		report.StrategySummary[h] = windowStats(horizonReturns(rows, h))
		report.VsBenchmark[h] = compareBenchmark(rows, h)
	}
	report.PoliticianVsCopycat = timingAnalysis(rows)

	// Breakdowns read the current-horizon leg.
	report.ByParty[contracts.PartyDemocrat] = windowStats(currentReturns(rows, func(r *contracts.BacktestTrade) bool {
		return r.Party == contracts.PartyDemocrat
	}))
	report.ByParty[contracts.PartyRepublican] = windowStats(currentReturns(rows, func(r *contracts.BacktestTrade) bool {
		return r.Party == contracts.PartyRepublican
	}))

	for _, bucket := range []string{"small", "medium", "large"} {
		b := bucket
		report.ByAmount[b] = windowStats(currentReturns(rows, func(r *contracts.BacktestTrade) bool {
			return amountBucket(r) == b
		}))
	}

	report.ByYear = yearBreakdown(rows)
	report.ByDaysLate = daysLateBreakdown(rows)
	report.TopTrades = topTrades(rows)

	for _, r := range rows {
		report.IndividualTrades = append(report.IndividualTrades, *r)
	}
	return report
}

// horizonReturns collects the resolvable copycat returns for a horizon.
func horizonReturns(rows []*contracts.BacktestTrade, h contracts.Horizon) []float64 {
	var out []float64
	for _, r := range rows {
		if ret := r.CopycatReturn(h); !ret.Missing() {
			out = append(out, ret.Value)
		}
	}
	return out
}

// currentReturns collects current-horizon returns for rows passing the
// filter.
func currentReturns(rows []*contracts.BacktestTrade, keep func(*contracts.BacktestTrade) bool) []float64 {
	var out []float64
	for _, r := range rows {
		if !keep(r) {
			continue
		}
		if !r.CopycatReturnCurrent.Missing() {
			out = append(out, r.CopycatReturnCurrent.Value)
		}
	}
	return out
}

func windowStats(returns []float64) contracts.WindowStats {
	if len(returns) == 0 {
		return contracts.WindowStats{}
	}
	return contracts.WindowStats{
		Count:        len(returns),
		WinRate:      round1(winRate(returns)),
		AvgReturn:    round2(mean(returns)),
		MedianReturn: round2(median(returns)),
	}
}

// compareBenchmark aggregates over the paired rows where both the copycat
// and benchmark legs resolved. Alpha is computed from the published
// averages so the report stays internally consistent.
func compareBenchmark(rows []*contracts.BacktestTrade, h contracts.Horizon) contracts.BenchmarkComparison {
	var copycat, spy []float64
	beat := 0
	for _, r := range rows {
		c, s := r.CopycatReturn(h), r.SpyReturn(h)
		if c.Missing() || s.Missing() {
			continue
		}
		copycat = append(copycat, c.Value)
		spy = append(spy, s.Value)
		if c.Value > s.Value {
			beat++
		}
	}
	if len(copycat) == 0 {
		return contracts.BenchmarkComparison{}
	}

	copycatAvg := round2(mean(copycat))
	spyAvg := round2(mean(spy))
	return contracts.BenchmarkComparison{
		CopycatAvg: copycatAvg,
		SpyAvg:     spyAvg,
		Alpha:      round2(copycatAvg - spyAvg),
		BeatSpyPct: round1(float64(beat) / float64(len(copycat)) * 100),
	}
}

// timingAnalysis quantifies the cost of the disclosure delay. Each
// average samples its own present values independently; a trade with a
// politician return but no resolvable copycat leg still counts toward
// the politician average.
func timingAnalysis(rows []*contracts.BacktestTrade) contracts.TimingAnalysis {
	var pol, copycat, timing []float64
	hurt := 0
	for _, r := range rows {
		if !r.PoliticianReturn.Missing() {
			pol = append(pol, r.PoliticianReturn.Value)
		}
		if !r.CopycatReturnCurrent.Missing() {
			copycat = append(copycat, r.CopycatReturnCurrent.Value)
		}
		if !r.TimingCost.Missing() {
			timing = append(timing, r.TimingCost.Value)
			if r.TimingCost.Value > 0 {
				hurt++
			}
		}
	}

	out := contracts.TimingAnalysis{}
	if len(pol) > 0 {
		out.AvgPoliticianReturn = round2(mean(pol))
	}
	if len(copycat) > 0 {
		out.AvgCopycatReturn = round2(mean(copycat))
	}
	if len(timing) > 0 {
		out.AvgTimingCost = round2(mean(timing))
		out.PctWhereDelayHurt = round1(float64(hurt) / float64(len(timing)) * 100)
	}
	return out
}

// amountBucket classifies a row by its band midpoint.
func amountBucket(r *contracts.BacktestTrade) string {
	mid := float64(r.AmountLow+r.AmountHigh) / 2
	switch {
	case mid <= smallPositionMax:
		return "small"
	case mid <= mediumPositionMax:
		return "medium"
	default:
		return "large"
	}
}

// yearBreakdown groups by disclosure year, ascending.
func yearBreakdown(rows []*contracts.BacktestTrade) []contracts.YearStats {
	byYear := make(map[int][]float64)
	for _, r := range rows {
		if r.CopycatReturnCurrent.Missing() {
			continue
		}
		year := r.DisclosureDate.Year()
		byYear[year] = append(byYear[year], r.CopycatReturnCurrent.Value)
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	out := make([]contracts.YearStats, 0, len(years))
	for _, y := range years {
		out = append(out, contracts.YearStats{Year: y, WindowStats: windowStats(byYear[y])})
	}
	return out
}

// daysLateBreakdown groups by disclosure delay, fixed bucket order.
func daysLateBreakdown(rows []*contracts.BacktestTrade) []contracts.BucketStats {
	byBucket := make(map[string][]float64, len(daysLateBuckets))
	for _, r := range rows {
		if r.CopycatReturnCurrent.Missing() {
			continue
		}
		byBucket[delayBucket(r.DaysLate)] = append(byBucket[delayBucket(r.DaysLate)], r.CopycatReturnCurrent.Value)
	}

	out := make([]contracts.BucketStats, 0, len(daysLateBuckets))
	for _, b := range daysLateBuckets {
		out = append(out, contracts.BucketStats{Bucket: b, WindowStats: windowStats(byBucket[b])})
	}
	return out
}

func delayBucket(daysLate int) string {
	switch {
	case daysLate <= 15:
		return "0-15d"
	case daysLate <= 30:
		return "16-30d"
	case daysLate <= 45:
		return "31-45d"
	default:
		return "45d+"
	}
}

// topTrades picks the ten best and ten worst rows by current-horizon
// copycat return. The worst list is the tail of the same descending
// order, ending at the minimum.
func topTrades(rows []*contracts.BacktestTrade) contracts.TopTrades {
	var resolvable []*contracts.BacktestTrade
	for _, r := range rows {
		if !r.CopycatReturnCurrent.Missing() {
			resolvable = append(resolvable, r)
		}
	}
	sort.Slice(resolvable, func(i, j int) bool {
		if resolvable[i].CopycatReturnCurrent.Value != resolvable[j].CopycatReturnCurrent.Value {
			return resolvable[i].CopycatReturnCurrent.Value > resolvable[j].CopycatReturnCurrent.Value
		}
		return resolvable[i].ID < resolvable[j].ID
	})

	top := contracts.TopTrades{
		Best:  make([]contracts.BacktestHighlight, 0, 10),
		Worst: make([]contracts.BacktestHighlight, 0, 10),
	}
	for i := 0; i < len(resolvable) && i < 10; i++ {
		top.Best = append(top.Best, highlight(resolvable[i]))
	}
	start := len(resolvable) - 10
	if start < 0 {
		start = 0
	}
	for _, r := range resolvable[start:] {
		top.Worst = append(top.Worst, highlight(r))
	}
	return top
}

func highlight(r *contracts.BacktestTrade) contracts.BacktestHighlight {
	return contracts.BacktestHighlight{
		ID:                   r.ID,
		Politician:           r.Politician,
		Party:                r.Party,
		Ticker:               r.Ticker,
		TxDate:               r.TxDate,
		DisclosureDate:       r.DisclosureDate,
		DaysLate:             r.DaysLate,
		PriceAtTrade:         r.PriceAtTrade,
		PriceAtDisclosure:    r.PriceAtDisclosure,
		CurrentPrice:         r.CurrentPrice,
		CopycatReturnCurrent: r.CopycatReturnCurrent,
		SpyReturnCurrent:     r.SpyReturnCurrent,
		AlphaCurrent:         r.AlphaCurrent,
		TimingCost:           r.TimingCost,
	}
}
