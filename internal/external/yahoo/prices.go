package yahoo

import (
	"context"

	"github.com/dcwatch/dcwatch/internal/contracts"
	"github.com/dcwatch/dcwatch/pkg/redis"
)

// windowDays pads the chart window on both sides of a target date so
// weekends and market holidays still resolve to a close.
const windowDays = 5

// PriceOn returns the close for ticker on the given date. Markets are
// shut on weekends and holidays, so the lookup takes the nearest close
// at or before the target, falling back to the earliest close in the
// window. Missing means the provider has no data for the symbol.
func (c *Client) PriceOn(ctx context.Context, ticker string, date contracts.Date) (contracts.Price, error) {
	if ticker == "" || date.IsZero() {
		return contracts.MissingPrice(), nil
	}

	key := redis.PriceKey(ticker, date.String())
	var cached float64
	if hit, err := c.cache.Get(ctx, key, &cached); err == nil && hit {
		return contracts.PriceOf(cached), nil
	}

	data, err := c.fetchChart(ctx, ticker, date.AddDays(-windowDays), date.AddDays(windowDays))
	if err != nil {
		return contracts.MissingPrice(), err
	}

	price := resolveClose(data.closes, date)
	if price.Missing() {
		return price, nil
	}

	price = price.Round2()
	if err := c.cache.Set(ctx, key, price.Value, redis.TTLDaily); err != nil {
		c.logger.WithError(err).WithField("ticker", ticker).Warn("Price cache write failed")
	}
	return price, nil
}

// CurrentPrice returns the most recent price for a ticker: the live
// market price when the chart carries one, else the latest close of
// the trailing week.
func (c *Client) CurrentPrice(ctx context.Context, ticker string) (contracts.Price, error) {
	if ticker == "" {
		return contracts.MissingPrice(), nil
	}

	key := redis.QuoteKey(ticker)
	var cached float64
	if hit, err := c.cache.Get(ctx, key, &cached); err == nil && hit {
		return contracts.PriceOf(cached), nil
	}

	today := contracts.Today()
	data, err := c.fetchChart(ctx, ticker, today.AddDays(-7), today)
	if err != nil {
		return contracts.MissingPrice(), err
	}

	price := data.marketPrice
	if price.Missing() {
		price = latestClose(data.closes)
	}
	if price.Missing() {
		return price, nil
	}

	price = price.Round2()
	if err := c.cache.Set(ctx, key, price.Value, redis.TTLLong); err != nil {
		c.logger.WithError(err).WithField("ticker", ticker).Warn("Quote cache write failed")
	}
	return price, nil
}

// resolveClose picks the close for a target date out of a chart window:
// the exact day, else the nearest earlier day, else the earliest day.
func resolveClose(closes map[contracts.Date]float64, target contracts.Date) contracts.Price {
	if len(closes) == 0 {
		return contracts.MissingPrice()
	}
	if v, ok := closes[target]; ok {
		return contracts.PriceOf(v)
	}

	var bestBefore, earliest contracts.Date
	for day := range closes {
		if !day.After(target) && (bestBefore.IsZero() || day.After(bestBefore)) {
			bestBefore = day
		}
		if earliest.IsZero() || day.Before(earliest) {
			earliest = day
		}
	}
	if !bestBefore.IsZero() {
		return contracts.PriceOf(closes[bestBefore])
	}
	return contracts.PriceOf(closes[earliest])
}

// latestClose returns the close of the most recent day in the window.
func latestClose(closes map[contracts.Date]float64) contracts.Price {
	var latest contracts.Date
	for day := range closes {
		if latest.IsZero() || day.After(latest) {
			latest = day
		}
	}
	if latest.IsZero() {
		return contracts.MissingPrice()
	}
	return contracts.PriceOf(closes[latest])
}
