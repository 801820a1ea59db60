// Package enrich bakes market prices onto fetched trades and
// materializes the price grid the analytics engine reads. All price
// network access happens in this stage; downstream stages only ever
// see resolved or explicitly missing values.
package enrich

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dcwatch/dcwatch/internal/contracts"
	"github.com/dcwatch/dcwatch/internal/engine"
	"github.com/dcwatch/dcwatch/internal/external/yahoo"
	"github.com/dcwatch/dcwatch/pkg/logger"
)

// defaultWorkers is the pool size when the config does not set one.
const defaultWorkers = 8

// Config holds enrichment configuration.
type Config struct {
	Workers int // Number of concurrent ticker lookups
}

// Enricher resolves prices for fetched trades through the price client.
// Historical closes never change once resolved, so a close-price store
// is consulted before the provider and fresh closes are written back.
type Enricher struct {
	prices *yahoo.Client
	closes contracts.ClosePriceRepository
	logger *logger.Logger
}

// NewEnricher creates a new Enricher instance. The close-price store may
// be nil; every lookup then goes to the provider.
func NewEnricher(prices *yahoo.Client, closes contracts.ClosePriceRepository, log *logger.Logger) *Enricher {
	return &Enricher{
		prices: prices,
		closes: closes,
		logger: log.WithField("module", "enrich"),
	}
}

// Result summarizes one enrichment pass.
type Result struct {
	Trades        int
	UniqueTickers int

	// WithReturns counts trades that ended up with a resolved
	// estimated return, both price legs present.
	WithReturns int

	// FailedTickers counts tickers where at least one lookup errored.
	// Their trades keep missing prices; the pass itself still succeeds.
	FailedTickers int

	Duration time.Duration
}

// tickerJob is one unit of pool work: a ticker and the trade dates that
// need a close. wantCurrent additionally requests the live quote.
type tickerJob struct {
	ticker      string
	dates       []contracts.Date
	wantCurrent bool
}

// tickerPrices carries one ticker's resolved prices out of the pool.
type tickerPrices struct {
	ticker  string
	current contracts.Price
	onDate  map[contracts.Date]contracts.Price
	err     error
}

// Enrich returns a copy of each trade with PriceAtTrade, CurrentPrice,
// EstReturn and EstPosition filled in. The inputs are never mutated.
// Tickers the provider cannot price leave their fields missing; only a
// canceled context fails the pass.
func (e *Enricher) Enrich(ctx context.Context, trades []*contracts.Trade, cfg Config) ([]*contracts.Trade, *Result, error) {
	start := time.Now()
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	// 1. Collect resolvable tickers and their transaction dates
	jobs := collectJobs(trades)

	e.logger.WithFields(map[string]interface{}{
		"trades":  len(trades),
		"tickers": len(jobs),
		"workers": workers,
	}).Info("Starting price enrichment")

	// 2. Resolve prices per ticker through the worker pool
	priced := e.resolveTickers(ctx, jobs, workers)
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	// 3. Bake prices and derived fields onto trade copies
	enriched := make([]*contracts.Trade, 0, len(trades))
	withReturns := 0
	for _, t := range trades {
		c := *t
		c.EstPosition = estimatePosition(c.AmountLow, c.AmountHigh)
		c.PriceAtTrade = contracts.MissingPrice()
		c.CurrentPrice = contracts.MissingPrice()
		c.EstReturn = contracts.MissingPrice()

		if p, ok := priced[c.Ticker]; ok {
			if px, ok := p.onDate[c.TxDate]; ok {
				c.PriceAtTrade = px
			}
			c.CurrentPrice = p.current
			c.EstReturn = engine.EstimatedReturn(c.PriceAtTrade, c.CurrentPrice, c.TxType).Round2()
		}
		if c.EstReturn.Valid {
			withReturns++
		}
		enriched = append(enriched, &c)
	}

	failed := 0
	for _, p := range priced {
		if p.err != nil {
			failed++
		}
	}

	result := &Result{
		Trades:        len(enriched),
		UniqueTickers: len(jobs),
		WithReturns:   withReturns,
		FailedTickers: failed,
		Duration:      time.Since(start),
	}

	e.logger.WithFields(map[string]interface{}{
		"trades":         result.Trades,
		"with_returns":   result.WithReturns,
		"failed_tickers": result.FailedTickers,
		"duration":       result.Duration.String(),
	}).Info("Price enrichment completed")

	return enriched, result, nil
}

// collectJobs groups trades by resolvable ticker, each with the sorted
// set of transaction dates needing a close. Undated trades still get
// their ticker's current quote.
func collectJobs(trades []*contracts.Trade) []tickerJob {
	dates := make(map[string]map[contracts.Date]struct{})
	for _, t := range trades {
		if !t.HasTicker() {
			continue
		}
		if _, ok := dates[t.Ticker]; !ok {
			dates[t.Ticker] = make(map[contracts.Date]struct{})
		}
		if !t.TxDate.IsZero() {
			dates[t.Ticker][t.TxDate] = struct{}{}
		}
	}

	jobs := make([]tickerJob, 0, len(dates))
	for ticker, set := range dates {
		job := tickerJob{ticker: ticker, wantCurrent: true}
		for d := range set {
			job.dates = append(job.dates, d)
		}
		sort.Slice(job.dates, func(i, j int) bool { return job.dates[i].Before(job.dates[j]) })
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].ticker < jobs[j].ticker })
	return jobs
}

// resolveTickers fans the jobs out over the worker pool and collects
// the per-ticker results.
func (e *Enricher) resolveTickers(ctx context.Context, jobs []tickerJob, workers int) map[string]tickerPrices {
	jobCh := make(chan tickerJob, len(jobs))
	resultCh := make(chan tickerPrices, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			e.priceWorker(ctx, workerID, jobCh, resultCh)
		}(i)
	}

	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	priced := make(map[string]tickerPrices, len(jobs))
	for p := range resultCh {
		priced[p.ticker] = p
	}
	return priced
}

// priceWorker resolves prices for tickers off the job channel. Lookup
// failures are recorded and the worker moves on; partial results for a
// ticker are kept.
func (e *Enricher) priceWorker(ctx context.Context, workerID int, jobCh <-chan tickerJob, resultCh chan<- tickerPrices) {
	for job := range jobCh {
		select {
		case <-ctx.Done():
			resultCh <- tickerPrices{
				ticker: job.ticker,
				err:    ctx.Err(),
			}
			return
		default:
		}

		p := tickerPrices{
			ticker: job.ticker,
			onDate: make(map[contracts.Date]contracts.Price, len(job.dates)),
		}

		if job.wantCurrent {
			current, err := e.prices.CurrentPrice(ctx, job.ticker)
			if err != nil {
				e.logger.WithError(err).WithFields(map[string]interface{}{
					"worker": workerID,
					"ticker": job.ticker,
				}).Warn("Current price lookup failed")
				p.err = err
			}
			p.current = current
		}

		stored := e.storedCloses(ctx, job)
		fresh := make(map[contracts.Date]float64)
		for _, d := range job.dates {
			if v, ok := stored[d]; ok {
				p.onDate[d] = contracts.PriceOf(v)
				continue
			}
			px, err := e.prices.PriceOn(ctx, job.ticker, d)
			if err != nil {
				e.logger.WithError(err).WithFields(map[string]interface{}{
					"worker": workerID,
					"ticker": job.ticker,
					"date":   d.String(),
				}).Warn("Historical price lookup failed")
				p.err = err
				continue
			}
			p.onDate[d] = px
			if px.Valid {
				fresh[d] = px.Value
			}
		}

		if e.closes != nil && len(fresh) > 0 {
			if err := e.closes.SaveBatch(ctx, job.ticker, fresh); err != nil {
				e.logger.WithError(err).WithField("ticker", job.ticker).Warn("Close price store write failed")
			}
		}

		e.logger.WithFields(map[string]interface{}{
			"worker": workerID,
			"ticker": job.ticker,
			"dates":  len(job.dates),
			"stored": len(stored),
		}).Debug("Resolved ticker prices")

		resultCh <- p
	}
}

// storedCloses loads previously resolved closes covering the job's date
// span. A store failure only costs the shortcut.
func (e *Enricher) storedCloses(ctx context.Context, job tickerJob) map[contracts.Date]float64 {
	if e.closes == nil || len(job.dates) == 0 {
		return nil
	}
	from, to := job.dates[0], job.dates[len(job.dates)-1]
	stored, err := e.closes.GetRange(ctx, job.ticker, from, to)
	if err != nil {
		e.logger.WithError(err).WithField("ticker", job.ticker).Warn("Close price store read failed")
		return nil
	}
	return stored
}

// estimatePosition is the midpoint of the disclosed amount band, zero
// when the band is absent.
func estimatePosition(low, high int64) int64 {
	if low+high <= 0 {
		return 0
	}
	return (low + high) / 2
}
