package jobs

import (
	"context"
	"fmt"

	"github.com/dcwatch/dcwatch/internal/contracts"
	"github.com/dcwatch/dcwatch/internal/external/yahoo"
	"github.com/dcwatch/dcwatch/pkg/logger"
)

// warmupSchedule runs hourly during US market hours (UTC).
const warmupSchedule = "0 0 13-21 * * 1-5"

// WarmupJob primes the quote cache for every traded ticker so API
// consumers and the next pipeline run hit warm entries.
type WarmupJob struct {
	trades contracts.TradeRepository
	prices *yahoo.Client
	logger *logger.Logger
}

// NewWarmupJob creates the price-cache warmup job.
func NewWarmupJob(trades contracts.TradeRepository, prices *yahoo.Client, log *logger.Logger) *WarmupJob {
	return &WarmupJob{
		trades: trades,
		prices: prices,
		logger: log,
	}
}

// Name returns the job name.
func (j *WarmupJob) Name() string {
	return "price_warmup"
}

// Schedule returns the cron schedule.
func (j *WarmupJob) Schedule() string {
	return warmupSchedule
}

// Run fetches a current quote per unique ticker. Lookup failures are
// counted, not fatal: a cold symbol just stays cold.
func (j *WarmupJob) Run(ctx context.Context) error {
	trades, err := j.trades.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load trades: %w", err)
	}

	tickers := make(map[string]struct{})
	for _, t := range trades {
		if t.HasTicker() {
			tickers[t.Ticker] = struct{}{}
		}
	}

	warmed, failed := 0, 0
	for ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := j.prices.CurrentPrice(ctx, ticker); err != nil {
			failed++
			continue
		}
		warmed++
	}

	j.logger.WithFields(map[string]interface{}{
		"tickers": len(tickers),
		"warmed":  warmed,
		"failed":  failed,
	}).Info("Price cache warmup completed")

	return nil
}
