package fetch

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dcwatch/dcwatch/internal/contracts"
	"github.com/dcwatch/dcwatch/pkg/logger"
)

// Source names accepted by Options.Source.
const (
	SourceHouse  = "house"
	SourceSenate = "senate"
	SourceAll    = "all"
)

// defaultScrapeDaysBack is the trailing window the eFD fallback scrapes.
const defaultScrapeDaysBack = 90

// Options selects which sources a fetch run pulls from.
type Options struct {
	// Source is house, senate, or all.
	Source string

	// ScrapeSenate also runs the eFD scraper, for when the Senate
	// mirror lags the official site.
	ScrapeSenate bool

	// ScrapeDaysBack bounds the eFD search window. Zero means the
	// default 90 days.
	ScrapeDaysBack int

	// DryRun skips the store write.
	DryRun bool
}

// Result summarizes one fetch run.
type Result struct {
	HouseCount  int
	SenateCount int
	ScrapeCount int

	// Merged is the post-dedup trade count.
	Merged     int
	Duplicates int

	// EstimatedDisclosures counts trades whose disclosure date was
	// filled with the median reporting delay.
	EstimatedDisclosures int

	Duration time.Duration
}

// Fetcher pulls all configured sources, merges them into the canonical
// trade set, and hands it to the store.
type Fetcher struct {
	house  *HouseSource
	senate *SenateSource
	efd    *EFDScraper
	repo   contracts.TradeRepository
	logger *logger.Logger
}

// NewFetcher creates a fetcher over the given sources. The eFD scraper
// may be nil when scraping is not configured.
func NewFetcher(house *HouseSource, senate *SenateSource, efd *EFDScraper, repo contracts.TradeRepository, log *logger.Logger) *Fetcher {
	return &Fetcher{
		house:  house,
		senate: senate,
		efd:    efd,
		repo:   repo,
		logger: log.WithField("module", "fetch"),
	}
}

// sourceResult carries one source's output across the fan-out.
type sourceResult struct {
	source string
	trades []*contracts.Trade
	err    error
}

// Run fetches the selected sources concurrently, merges and dedups, and
// saves the result unless the run is dry. A run fails only when every
// selected source fails; a partial feed is still worth keeping.
func (f *Fetcher) Run(ctx context.Context, opts Options) ([]*contracts.Trade, *Result, error) {
	start := time.Now()
	if opts.Source == "" {
		opts.Source = SourceAll
	}

	f.logger.WithFields(map[string]interface{}{
		"source":        opts.Source,
		"scrape_senate": opts.ScrapeSenate,
		"dry_run":       opts.DryRun,
	}).Info("Starting disclosure fetch")

	// 1. Fan out over the selected sources
	type fetchFn func(context.Context) ([]*contracts.Trade, error)
	sources := map[string]fetchFn{}
	if opts.Source == SourceHouse || opts.Source == SourceAll {
		sources[SourceHouse] = f.house.Fetch
	}
	if opts.Source == SourceSenate || opts.Source == SourceAll {
		sources[SourceSenate] = f.senate.Fetch
	}
	if opts.ScrapeSenate && f.efd != nil {
		daysBack := opts.ScrapeDaysBack
		if daysBack <= 0 {
			daysBack = defaultScrapeDaysBack
		}
		sources["efd"] = func(ctx context.Context) ([]*contracts.Trade, error) {
			return f.efd.Scrape(ctx, daysBack)
		}
	}
	if len(sources) == 0 {
		return nil, nil, fmt.Errorf("unknown source %q", opts.Source)
	}

	resultCh := make(chan sourceResult, len(sources))
	var wg sync.WaitGroup
	for name, fetch := range sources {
		wg.Add(1)
		go func(name string, fetch fetchFn) {
			defer wg.Done()
			trades, err := fetch(ctx)
			resultCh <- sourceResult{source: name, trades: trades, err: err}
		}(name, fetch)
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// 2. Collect
	result := &Result{}
	var combined []*contracts.Trade
	failed := 0
	for res := range resultCh {
		if res.err != nil {
			failed++
			f.logger.WithError(res.err).WithField("source", res.source).Warn("Source fetch failed")
			continue
		}
		switch res.source {
		case SourceHouse:
			result.HouseCount = len(res.trades)
		case SourceSenate:
			result.SenateCount = len(res.trades)
		default:
			result.ScrapeCount = len(res.trades)
		}
		combined = append(combined, res.trades...)
	}
	if failed == len(sources) {
		return nil, nil, fmt.Errorf("all %d sources failed", failed)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	// 3. Merge: stable order before dedup so the survivor choice is
	// deterministic regardless of which source answered first.
	sort.SliceStable(combined, func(i, j int) bool {
		if combined[i].Chamber != combined[j].Chamber {
			return combined[i].Chamber < combined[j].Chamber
		}
		return combined[i].ID < combined[j].ID
	})

	before := len(combined)
	trades := dedupe(combined)
	result.Duplicates = before - len(trades)
	result.EstimatedDisclosures = estimateDisclosures(trades)

	sort.SliceStable(trades, func(i, j int) bool {
		if !trades[i].TxDate.Equal(trades[j].TxDate) {
			return trades[i].TxDate.After(trades[j].TxDate)
		}
		return trades[i].ID < trades[j].ID
	})
	result.Merged = len(trades)

	// 4. Hand to the store
	if !opts.DryRun && f.repo != nil {
		if err := f.repo.SaveBatch(ctx, trades); err != nil {
			return nil, nil, fmt.Errorf("save trades: %w", err)
		}
	}

	result.Duration = time.Since(start)
	f.logger.WithFields(map[string]interface{}{
		"house":       result.HouseCount,
		"senate":      result.SenateCount,
		"scraped":     result.ScrapeCount,
		"merged":      result.Merged,
		"duplicates":  result.Duplicates,
		"estimated":   result.EstimatedDisclosures,
		"duration_ms": result.Duration.Milliseconds(),
	}).Info("Disclosure fetch completed")

	return trades, result, nil
}
