// Package yahoo fetches daily close prices and current quotes from the
// Yahoo Finance chart API. All market price lookups go through this
// client, which rate-limits and caches so the enrichment pool can fan
// out without hammering the upstream.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/dcwatch/dcwatch/internal/contracts"
	"github.com/dcwatch/dcwatch/pkg/config"
	"github.com/dcwatch/dcwatch/pkg/httputil"
	"github.com/dcwatch/dcwatch/pkg/logger"
	"github.com/dcwatch/dcwatch/pkg/redis"
)

// userAgent mimics a browser; the chart API rejects bare clients.
const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// Client handles communication with the Yahoo Finance chart API.
type Client struct {
	httpClient *httputil.Client
	cache      *redis.Cache
	limiter    *rate.Limiter
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a Yahoo Finance client. The cache may be backed by
// a disabled redis client, in which case every lookup goes upstream.
func NewClient(httpClient *httputil.Client, cache *redis.Cache, cfg config.PricesConfig, log *logger.Logger) *Client {
	rps := cfg.RateLimit
	if rps <= 0 {
		rps = 4
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}

	return &Client{
		httpClient: httpClient,
		cache:      cache,
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		logger:     log,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// chartResponse is the JSON shape of /v8/finance/chart.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// chartData is one parsed chart window.
type chartData struct {
	// marketPrice is the meta regularMarketPrice, the freshest quote
	// the endpoint carries.
	marketPrice contracts.Price

	// closes maps trading days to their close. Days the exchange was
	// shut are simply absent.
	closes map[contracts.Date]float64
}

// fetchChart pulls daily closes for [from, to] inclusive. An unknown
// or delisted symbol yields empty data, not an error.
func (c *Client) fetchChart(ctx context.Context, ticker string, from, to contracts.Date) (*chartData, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	// period2 is exclusive upstream.
	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d&events=history",
		c.baseURL, url.PathEscape(ticker), from.Time().Unix(), to.AddDays(1).Time().Unix())

	resp, err := c.httpClient.GetWithHeaders(ctx, fullURL, map[string]string{
		"User-Agent": userAgent,
		"Accept":     "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("fetch chart for %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read chart response for %s: %w", ticker, err)
	}

	// Unknown symbols come back 404 with a chart error document.
	if resp.StatusCode == http.StatusNotFound {
		c.logger.WithField("ticker", ticker).Debug("Symbol unknown to the price provider")
		return &chartData{closes: map[contracts.Date]float64{}}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chart for %s returned status %d", ticker, resp.StatusCode)
	}

	var parsed chartResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse chart response for %s: %w", ticker, err)
	}
	if parsed.Chart.Error != nil {
		c.logger.WithFields(map[string]interface{}{
			"ticker": ticker,
			"code":   parsed.Chart.Error.Code,
		}).Debug("Price provider returned an error document")
		return &chartData{closes: map[contracts.Date]float64{}}, nil
	}
	if len(parsed.Chart.Result) == 0 {
		return &chartData{closes: map[contracts.Date]float64{}}, nil
	}

	result := parsed.Chart.Result[0]
	data := &chartData{closes: make(map[contracts.Date]float64, len(result.Timestamp))}
	if result.Meta.RegularMarketPrice > 0 {
		data.marketPrice = contracts.PriceOf(result.Meta.RegularMarketPrice)
	}

	if len(result.Indicators.Quote) == 0 {
		return data, nil
	}
	closes := result.Indicators.Quote[0].Close
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		day := contracts.DateOf(time.Unix(ts, 0).UTC())
		data.closes[day] = *closes[i]
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"closes": len(data.closes),
	}).Debug("Fetched chart window")

	return data, nil
}
