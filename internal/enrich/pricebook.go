package enrich

import (
	"context"
	"sort"

	"github.com/dcwatch/dcwatch/internal/contracts"
)

// horizonOffsets are the holding windows the copycat simulator prices,
// in days past the disclosure date.
var horizonOffsets = []int{30, 90}

// BuildPriceBook resolves every close the copycat simulation reads: for
// each eligible purchase, the trade ticker and the benchmark at the
// transaction date, the disclosure date, each horizon past disclosure,
// and the as-of date. Dates past as-of have no close yet and are never
// requested; unresolvable points are simply left unset, and the
// simulator reads absent points as missing.
func (e *Enricher) BuildPriceBook(ctx context.Context, trades []*contracts.Trade, asOf contracts.Date, benchmark string, cfg Config) (*contracts.PriceBook, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	// 1. Collect the (ticker, date) grid for eligible purchases
	jobs, requested := collectPoints(trades, asOf, benchmark)

	e.logger.WithFields(map[string]interface{}{
		"tickers":   len(jobs),
		"points":    requested,
		"benchmark": benchmark,
		"as_of":     asOf.String(),
		"workers":   workers,
	}).Info("Building price book")

	// 2. Resolve the grid through the worker pool
	priced := e.resolveTickers(ctx, jobs, workers)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 3. Fill the book with the closes that resolved
	book := contracts.NewPriceBook(benchmark)
	failed := 0
	for _, p := range priced {
		if p.err != nil {
			failed++
		}
		for d, px := range p.onDate {
			if px.Valid {
				book.Set(p.ticker, d, px.Value)
			}
		}
	}

	e.logger.WithFields(map[string]interface{}{
		"resolved":       book.Len(),
		"requested":      requested,
		"failed_tickers": failed,
	}).Info("Price book ready")

	return book, nil
}

// collectPoints builds the per-ticker date sets the simulator will look
// up, deduplicated across trades, plus the total point count. Only
// purchases that pass the simulator's eligibility filter contribute.
func collectPoints(trades []*contracts.Trade, asOf contracts.Date, benchmark string) ([]tickerJob, int) {
	points := make(map[string]map[contracts.Date]struct{})
	add := func(ticker string, d contracts.Date) {
		if d.IsZero() || d.After(asOf) {
			return
		}
		if _, ok := points[ticker]; !ok {
			points[ticker] = make(map[contracts.Date]struct{})
		}
		points[ticker][d] = struct{}{}
	}

	for _, t := range trades {
		if t.TxType != contracts.TxPurchase {
			continue
		}
		if !t.HasTicker() || t.DisclosureDate.IsZero() || t.PriceAtTrade.Missing() {
			continue
		}

		dates := []contracts.Date{t.TxDate, t.DisclosureDate, asOf}
		for _, n := range horizonOffsets {
			dates = append(dates, t.DisclosureDate.AddDays(n))
		}
		for _, d := range dates {
			add(t.Ticker, d)
			add(benchmark, d)
		}
	}

	jobs := make([]tickerJob, 0, len(points))
	total := 0
	for ticker, set := range points {
		job := tickerJob{ticker: ticker}
		for d := range set {
			job.dates = append(job.dates, d)
		}
		sort.Slice(job.dates, func(i, j int) bool { return job.dates[i].Before(job.dates[j]) })
		total += len(job.dates)
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].ticker < jobs[j].ticker })
	return jobs, total
}
