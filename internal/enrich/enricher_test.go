package enrich

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dcwatch/dcwatch/internal/contracts"
	"github.com/dcwatch/dcwatch/internal/external/yahoo"
	"github.com/dcwatch/dcwatch/pkg/config"
	"github.com/dcwatch/dcwatch/pkg/httputil"
	"github.com/dcwatch/dcwatch/pkg/logger"
	"github.com/dcwatch/dcwatch/pkg/redis"
)

// testEnricher wires a real price client against the given server, with
// the cache off and retries disabled.
func testEnricher(t *testing.T, serverURL string, closes contracts.ClosePriceRepository) *Enricher {
	t.Helper()
	cfg := &config.Config{Env: "test", LogLevel: "error", LogFormat: "json"}
	log := logger.New(cfg)

	redisClient, err := redis.New(cfg)
	if err != nil {
		t.Fatalf("redis.New() error: %v", err)
	}

	prices := yahoo.NewClient(
		httputil.New(cfg, log).DisableRetry(),
		redis.NewCache(redisClient, "test"),
		config.PricesConfig{BaseURL: serverURL, RateLimit: 1000},
		log,
	)
	return NewEnricher(prices, closes, log)
}

// stubCloses is an in-memory close-price store. The pool hits it
// concurrently, hence the lock.
type stubCloses struct {
	mu     sync.Mutex
	closes map[string]map[contracts.Date]float64
	saved  map[string]map[contracts.Date]float64
}

func newStubCloses() *stubCloses {
	return &stubCloses{
		closes: make(map[string]map[contracts.Date]float64),
		saved:  make(map[string]map[contracts.Date]float64),
	}
}

func (s *stubCloses) seed(ticker string, date contracts.Date, close float64) {
	if _, ok := s.closes[ticker]; !ok {
		s.closes[ticker] = make(map[contracts.Date]float64)
	}
	s.closes[ticker][date] = close
}

func (s *stubCloses) Get(ctx context.Context, ticker string, date contracts.Date) (contracts.Price, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.closes[ticker][date]; ok {
		return contracts.PriceOf(v), nil
	}
	return contracts.MissingPrice(), nil
}

func (s *stubCloses) GetRange(ctx context.Context, ticker string, from, to contracts.Date) (map[contracts.Date]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[contracts.Date]float64)
	for d, v := range s.closes[ticker] {
		if !d.Before(from) && !d.After(to) {
			out[d] = v
		}
	}
	return out, nil
}

func (s *stubCloses) Save(ctx context.Context, ticker string, date contracts.Date, close float64) error {
	return s.SaveBatch(ctx, ticker, map[contracts.Date]float64{date: close})
}

func (s *stubCloses) SaveBatch(ctx context.Context, ticker string, closes map[contracts.Date]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.saved[ticker]; !ok {
		s.saved[ticker] = make(map[contracts.Date]float64)
	}
	for d, v := range closes {
		s.saved[ticker][d] = v
		s.seed(ticker, d, v)
	}
	return nil
}

func mustDate(t *testing.T, s string) contracts.Date {
	t.Helper()
	d, err := contracts.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func testTrade(t *testing.T, id, ticker string, kind contracts.TxType, txDate string, low, high int64) *contracts.Trade {
	t.Helper()
	return &contracts.Trade{
		ID:         id,
		Politician: "Jane Doe",
		Ticker:     ticker,
		TxType:     kind,
		TxDate:     mustDate(t, txDate),
		AmountLow:  low,
		AmountHigh: high,
	}
}

// chartFixture describes one ticker's canned chart response. A zero
// status serves the chart; anything else is returned bare.
type chartFixture struct {
	marketPrice float64
	closes      map[string]float64
	status      int
}

// chartBody renders the chart JSON for a fixture, closes in day order.
func chartBody(t *testing.T, symbol string, fx chartFixture) string {
	t.Helper()
	days := make([]string, 0, len(fx.closes))
	for d := range fx.closes {
		days = append(days, d)
	}
	sort.Strings(days)

	stamps := make([]string, 0, len(days))
	values := make([]string, 0, len(days))
	for _, d := range days {
		parsed, err := time.Parse("2006-01-02", d)
		if err != nil {
			t.Fatal(err)
		}
		stamps = append(stamps, strconv.FormatInt(parsed.Unix()+13*3600+30*60, 10))
		values = append(values, strconv.FormatFloat(fx.closes[d], 'f', -1, 64))
	}

	return fmt.Sprintf(
		`{"chart":{"result":[{"meta":{"symbol":%q,"regularMarketPrice":%s},"timestamp":[%s],"indicators":{"quote":[{"close":[%s]}]}}],"error":null}}`,
		symbol,
		strconv.FormatFloat(fx.marketPrice, 'f', -1, 64),
		strings.Join(stamps, ","),
		strings.Join(values, ","),
	)
}

// chartServer serves per-ticker chart fixtures and counts requests by
// ticker. Unknown tickers get the provider's 404 shape.
func chartServer(t *testing.T, fixtures map[string]chartFixture) (*httptest.Server, func() map[string]int) {
	t.Helper()
	bodies := make(map[string]string, len(fixtures))
	statuses := make(map[string]int, len(fixtures))
	for ticker, fx := range fixtures {
		statuses[ticker] = fx.status
		if fx.status == 0 {
			bodies[ticker] = chartBody(t, ticker, fx)
		}
	}

	var mu sync.Mutex
	hits := make(map[string]int)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ticker := path.Base(r.URL.Path)
		mu.Lock()
		hits[ticker]++
		mu.Unlock()

		status, ok := statuses[ticker]
		switch {
		case !ok:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
		case status != 0:
			w.WriteHeader(status)
		default:
			fmt.Fprint(w, bodies[ticker])
		}
	}))
	t.Cleanup(server.Close)

	snapshot := func() map[string]int {
		mu.Lock()
		defer mu.Unlock()
		out := make(map[string]int, len(hits))
		for k, v := range hits {
			out[k] = v
		}
		return out
	}
	return server, snapshot
}

func TestEnrich(t *testing.T) {
	server, hits := chartServer(t, map[string]chartFixture{
		"NVDA": {
			marketPrice: 121,
			closes:      map[string]float64{"2025-06-09": 100, "2025-06-10": 110, "2025-06-12": 112},
		},
		"MSFT": {
			marketPrice: 180,
			closes:      map[string]float64{"2025-06-10": 200},
		},
	})
	e := testEnricher(t, server.URL, nil)

	trades := []*contracts.Trade{
		testTrade(t, "t1", "NVDA", contracts.TxPurchase, "2025-06-10", 1001, 15000),
		testTrade(t, "t2", "MSFT", contracts.TxSaleFull, "2025-06-10", 15001, 50000),
		testTrade(t, "t3", "", contracts.TxPurchase, "2025-06-10", 1001, 15000),
		testTrade(t, "t4", "LONGFUND", contracts.TxPurchase, "2025-06-10", 1001, 15000),
	}

	enriched, result, err := e.Enrich(context.Background(), trades, Config{Workers: 2})
	if err != nil {
		t.Fatalf("Enrich() error: %v", err)
	}
	if len(enriched) != 4 {
		t.Fatalf("Enrich() returned %d trades, want 4", len(enriched))
	}

	nvda := enriched[0]
	if !nvda.PriceAtTrade.Valid || nvda.PriceAtTrade.Value != 110 {
		t.Errorf("NVDA PriceAtTrade = %+v, want 110", nvda.PriceAtTrade)
	}
	if !nvda.CurrentPrice.Valid || nvda.CurrentPrice.Value != 121 {
		t.Errorf("NVDA CurrentPrice = %+v, want 121", nvda.CurrentPrice)
	}
	if !nvda.EstReturn.Valid || nvda.EstReturn.Value != 10 {
		t.Errorf("NVDA EstReturn = %+v, want 10", nvda.EstReturn)
	}
	if nvda.EstPosition != 8000 {
		t.Errorf("NVDA EstPosition = %d, want 8000", nvda.EstPosition)
	}

	// A full sale profits when the price falls afterward.
	msft := enriched[1]
	if !msft.PriceAtTrade.Valid || msft.PriceAtTrade.Value != 200 {
		t.Errorf("MSFT PriceAtTrade = %+v, want 200", msft.PriceAtTrade)
	}
	if !msft.CurrentPrice.Valid || msft.CurrentPrice.Value != 180 {
		t.Errorf("MSFT CurrentPrice = %+v, want 180", msft.CurrentPrice)
	}
	if !msft.EstReturn.Valid || msft.EstReturn.Value != 10 {
		t.Errorf("MSFT EstReturn = %+v, want 10 after the sale flip", msft.EstReturn)
	}
	if msft.EstPosition != 32500 {
		t.Errorf("MSFT EstPosition = %d, want 32500", msft.EstPosition)
	}

	// Unresolvable tickers keep missing prices but still get a position.
	for _, tr := range enriched[2:] {
		if tr.PriceAtTrade.Valid || tr.CurrentPrice.Valid || tr.EstReturn.Valid {
			t.Errorf("trade %s: ticker %q should not have been priced", tr.ID, tr.Ticker)
		}
		if tr.EstPosition != 8000 {
			t.Errorf("trade %s: EstPosition = %d, want 8000", tr.ID, tr.EstPosition)
		}
	}

	if result.Trades != 4 {
		t.Errorf("result.Trades = %d, want 4", result.Trades)
	}
	if result.UniqueTickers != 2 {
		t.Errorf("result.UniqueTickers = %d, want 2", result.UniqueTickers)
	}
	if result.WithReturns != 2 {
		t.Errorf("result.WithReturns = %d, want 2", result.WithReturns)
	}
	if result.FailedTickers != 0 {
		t.Errorf("result.FailedTickers = %d, want 0", result.FailedTickers)
	}
	if result.Duration <= 0 {
		t.Error("result.Duration not set")
	}

	// Inputs stay untouched; enrichment works on copies.
	if trades[0].PriceAtTrade.Valid || trades[0].EstPosition != 0 {
		t.Error("Enrich() mutated its input")
	}

	got := hits()
	if len(got) != 2 {
		t.Errorf("provider saw tickers %v, want only NVDA and MSFT", got)
	}
	if got["NVDA"] != 2 || got["MSFT"] != 2 {
		t.Errorf("chart requests = %v, want 2 per ticker (quote plus one close)", got)
	}
}

func TestEnrichTickerFailure(t *testing.T) {
	server, _ := chartServer(t, map[string]chartFixture{
		"NVDA": {
			marketPrice: 121,
			closes:      map[string]float64{"2025-06-10": 110},
		},
		"MSFT": {status: http.StatusInternalServerError},
	})
	e := testEnricher(t, server.URL, nil)

	trades := []*contracts.Trade{
		testTrade(t, "t1", "NVDA", contracts.TxPurchase, "2025-06-10", 1001, 15000),
		testTrade(t, "t2", "MSFT", contracts.TxPurchase, "2025-06-10", 1001, 15000),
	}

	enriched, result, err := e.Enrich(context.Background(), trades, Config{Workers: 2})
	if err != nil {
		t.Fatalf("Enrich() error: %v", err)
	}

	if !enriched[0].EstReturn.Valid {
		t.Errorf("NVDA EstReturn = %+v, want resolved", enriched[0].EstReturn)
	}
	if enriched[1].PriceAtTrade.Valid || enriched[1].CurrentPrice.Valid || enriched[1].EstReturn.Valid {
		t.Errorf("MSFT should keep missing prices after lookup failures, got %+v", enriched[1])
	}
	if enriched[1].EstPosition != 8000 {
		t.Errorf("MSFT EstPosition = %d, want 8000 despite the failures", enriched[1].EstPosition)
	}
	if result.FailedTickers != 1 {
		t.Errorf("result.FailedTickers = %d, want 1", result.FailedTickers)
	}
	if result.WithReturns != 1 {
		t.Errorf("result.WithReturns = %d, want 1", result.WithReturns)
	}
}

func TestEnrichStoredCloses(t *testing.T) {
	server, hits := chartServer(t, map[string]chartFixture{
		"NVDA": {
			marketPrice: 121,
			closes:      map[string]float64{"2025-06-12": 112},
		},
	})
	closes := newStubCloses()
	closes.seed("NVDA", mustDate(t, "2025-06-10"), 109.5)
	e := testEnricher(t, server.URL, closes)

	trades := []*contracts.Trade{
		testTrade(t, "t1", "NVDA", contracts.TxPurchase, "2025-06-10", 1001, 15000),
		testTrade(t, "t2", "NVDA", contracts.TxPurchase, "2025-06-12", 1001, 15000),
	}

	enriched, result, err := e.Enrich(context.Background(), trades, Config{Workers: 1})
	if err != nil {
		t.Fatalf("Enrich() error: %v", err)
	}

	if !enriched[0].PriceAtTrade.Valid || enriched[0].PriceAtTrade.Value != 109.5 {
		t.Errorf("stored close not used: PriceAtTrade = %+v, want 109.5", enriched[0].PriceAtTrade)
	}
	if !enriched[1].PriceAtTrade.Valid || enriched[1].PriceAtTrade.Value != 112 {
		t.Errorf("PriceAtTrade = %+v, want 112 from the provider", enriched[1].PriceAtTrade)
	}
	if result.WithReturns != 2 {
		t.Errorf("result.WithReturns = %d, want 2", result.WithReturns)
	}

	// One quote plus one close; the stored date never reaches the provider.
	if got := hits(); got["NVDA"] != 2 {
		t.Errorf("chart requests = %v, want 2", got)
	}

	// Only the freshly resolved close is written back.
	saved := closes.saved["NVDA"]
	if len(saved) != 1 || saved[mustDate(t, "2025-06-12")] != 112 {
		t.Errorf("saved closes = %v, want only 2025-06-12", saved)
	}
}

func TestEnrichNoTickers(t *testing.T) {
	// The base URL cannot accept connections; any lookup would fail loudly.
	e := testEnricher(t, "http://127.0.0.1:0", nil)

	trades := []*contracts.Trade{
		testTrade(t, "t1", "", contracts.TxPurchase, "2025-06-10", 1001, 15000),
	}

	enriched, result, err := e.Enrich(context.Background(), trades, Config{})
	if err != nil {
		t.Fatalf("Enrich() error: %v", err)
	}
	if result.UniqueTickers != 0 || result.FailedTickers != 0 {
		t.Errorf("result = %+v, want no lookups", result)
	}
	if enriched[0].EstPosition != 8000 {
		t.Errorf("EstPosition = %d, want 8000", enriched[0].EstPosition)
	}
}

func TestEstimatePosition(t *testing.T) {
	tests := []struct {
		low, high int64
		want      int64
	}{
		{1001, 15000, 8000},
		{15001, 50000, 32500},
		{4000, 4000, 4000},
		{0, 0, 0},
		{-10, 5, 0},
	}
	for _, tt := range tests {
		if got := estimatePosition(tt.low, tt.high); got != tt.want {
			t.Errorf("estimatePosition(%d, %d) = %d, want %d", tt.low, tt.high, got, tt.want)
		}
	}
}
