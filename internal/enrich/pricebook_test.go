package enrich

import (
	"context"
	"testing"

	"github.com/dcwatch/dcwatch/internal/contracts"
)

func TestBuildPriceBook(t *testing.T) {
	server, hits := chartServer(t, map[string]chartFixture{
		"NVDA": {closes: map[string]float64{
			"2025-06-10": 110,
			"2025-06-18": 115,
			"2025-07-18": 120,
			"2025-07-25": 125,
		}},
		"SPY": {closes: map[string]float64{
			"2025-06-10": 500,
			"2025-06-18": 505,
			"2025-07-18": 510,
			"2025-07-25": 515,
		}},
	})
	e := testEnricher(t, server.URL, nil)

	eligible := testTrade(t, "t1", "NVDA", contracts.TxPurchase, "2025-06-10", 1001, 15000)
	eligible.DisclosureDate = mustDate(t, "2025-06-18")
	eligible.PriceAtTrade = contracts.PriceOf(110)

	sale := testTrade(t, "t2", "MSFT", contracts.TxSaleFull, "2025-06-10", 1001, 15000)
	sale.DisclosureDate = mustDate(t, "2025-06-18")
	sale.PriceAtTrade = contracts.PriceOf(200)

	unpriced := testTrade(t, "t3", "TSLA", contracts.TxPurchase, "2025-06-10", 1001, 15000)
	unpriced.DisclosureDate = mustDate(t, "2025-06-18")

	trades := []*contracts.Trade{eligible, sale, unpriced}
	asOf := mustDate(t, "2025-07-25")

	book, err := e.BuildPriceBook(context.Background(), trades, asOf, "SPY", Config{Workers: 2})
	if err != nil {
		t.Fatalf("BuildPriceBook() error: %v", err)
	}

	// Four dates per ticker: tx, disclosure, disclosure+30, as-of. The
	// +90 date falls past as-of and is never requested.
	if book.Len() != 8 {
		t.Errorf("book.Len() = %d, want 8", book.Len())
	}
	if book.BenchmarkTicker() != "SPY" {
		t.Errorf("BenchmarkTicker() = %q, want SPY", book.BenchmarkTicker())
	}

	lookups := []struct {
		ticker string
		date   string
		want   float64
	}{
		{"NVDA", "2025-06-10", 110},
		{"NVDA", "2025-06-18", 115},
		{"NVDA", "2025-07-18", 120},
		{"NVDA", "2025-07-25", 125},
		{"SPY", "2025-06-18", 505},
		{"SPY", "2025-07-25", 515},
	}
	for _, l := range lookups {
		got := book.Lookup(l.ticker, mustDate(t, l.date))
		if !got.Valid || got.Value != l.want {
			t.Errorf("Lookup(%s, %s) = %+v, want %v", l.ticker, l.date, got, l.want)
		}
	}

	if p := book.Lookup("NVDA", mustDate(t, "2025-09-16")); p.Valid {
		t.Errorf("Lookup(NVDA, 2025-09-16) = %+v, want missing past as-of", p)
	}
	if p := book.Lookup("MSFT", mustDate(t, "2025-06-10")); p.Valid {
		t.Errorf("Lookup(MSFT, ...) = %+v, sales are not simulated", p)
	}
	if p := book.Lookup("TSLA", mustDate(t, "2025-06-10")); p.Valid {
		t.Errorf("Lookup(TSLA, ...) = %+v, trades without an entry price are not simulated", p)
	}

	// One request per point and none for current quotes.
	got := hits()
	if len(got) != 2 || got["NVDA"] != 4 || got["SPY"] != 4 {
		t.Errorf("chart requests = %v, want 4 per ticker", got)
	}
}

func TestBuildPriceBookEmpty(t *testing.T) {
	e := testEnricher(t, "http://127.0.0.1:0", nil)

	book, err := e.BuildPriceBook(context.Background(), nil, mustDate(t, "2025-07-25"), "SPY", Config{})
	if err != nil {
		t.Fatalf("BuildPriceBook() error: %v", err)
	}
	if book.Len() != 0 {
		t.Errorf("book.Len() = %d, want 0", book.Len())
	}
	if book.BenchmarkTicker() != "SPY" {
		t.Errorf("BenchmarkTicker() = %q, want SPY", book.BenchmarkTicker())
	}
}
