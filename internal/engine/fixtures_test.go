package engine

import (
	"testing"

	"github.com/dcwatch/dcwatch/internal/contracts"
	"github.com/dcwatch/dcwatch/pkg/config"
	"github.com/dcwatch/dcwatch/pkg/logger"
)

// testAsOf anchors every engine test at a fixed analysis date.
const testAsOf = "2025-06-30"

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "test", LogLevel: "error", LogFormat: "json"})
}

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig(mustDate(t, testAsOf))
	cfg.Workers = 2
	return cfg
}

func mustDate(t *testing.T, s string) contracts.Date {
	t.Helper()
	d, err := contracts.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

// purchase builds a valid enriched purchase with one-call overrides via
// the mutate func.
func purchase(t *testing.T, id, politician, ticker, txDate string, mutate func(*contracts.Trade)) *contracts.Trade {
	t.Helper()
	tx := mustDate(t, txDate)
	trade := &contracts.Trade{
		ID:             id,
		Politician:     politician,
		Party:          contracts.PartyDemocrat,
		State:          "CA",
		Chamber:        contracts.ChamberHouse,
		Ticker:         ticker,
		AssetType:      contracts.AssetStock,
		TxType:         contracts.TxPurchase,
		TxDate:         tx,
		DisclosureDate: tx.AddDays(14),
		DaysLate:       14,
		AmountLow:      1001,
		AmountHigh:     15000,
		EstPosition:    8000,
		Owner:          contracts.OwnerSelf,
	}
	if mutate != nil {
		mutate(trade)
	}
	return trade
}

// enriched adds a resolvable return on top of purchase.
func enriched(t *testing.T, id, politician, ticker, txDate string, estReturn float64, mutate func(*contracts.Trade)) *contracts.Trade {
	t.Helper()
	trade := purchase(t, id, politician, ticker, txDate, nil)
	trade.PriceAtTrade = contracts.PriceOf(100)
	trade.CurrentPrice = contracts.PriceOf(100 + estReturn)
	trade.EstReturn = contracts.PriceOf(estReturn)
	if mutate != nil {
		mutate(trade)
	}
	return trade
}
