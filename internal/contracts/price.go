package contracts

import (
	"encoding/json"
	"math"
)

// Price is an optional float used for market prices and percentage returns.
// The zero value means missing. Missing is data, not an error: a price the
// provider could not resolve stays missing through every downstream
// computation instead of collapsing to 0, which is a legitimate value.
type Price struct {
	Value float64
	Valid bool
}

// PriceOf wraps a known value.
func PriceOf(v float64) Price {
	return Price{Value: v, Valid: true}
}

// MissingPrice is the explicit missing value.
func MissingPrice() Price {
	return Price{}
}

// Missing reports whether the value is absent.
func (p Price) Missing() bool {
	return !p.Valid
}

// Round2 returns the value rounded to 2 decimal places, still optional.
func (p Price) Round2() Price {
	if !p.Valid {
		return p
	}
	return PriceOf(math.Round(p.Value*100) / 100)
}

// MarshalJSON encodes a number, or null when missing.
func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(p.Value)
}

// UnmarshalJSON decodes a number or null.
func (p *Price) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*p = Price{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = PriceOf(v)
	return nil
}

// PricePoint identifies one (ticker, date) lookup.
type PricePoint struct {
	Ticker string
	Date   Date
}

// PriceBook is the fully materialized price lookup handed to the analytics
// engine: (ticker, date) -> price or missing, with the benchmark alongside.
// It is built once by the enrichment layer and only read afterwards, so the
// engine never blocks on network or disk.
type PriceBook struct {
	benchmark string
	prices    map[PricePoint]float64
}

// NewPriceBook creates an empty book for the given benchmark ticker.
func NewPriceBook(benchmark string) *PriceBook {
	return &PriceBook{
		benchmark: benchmark,
		prices:    make(map[PricePoint]float64),
	}
}

// Set records a resolved price. Missing points are simply never set.
func (b *PriceBook) Set(ticker string, date Date, price float64) {
	b.prices[PricePoint{Ticker: ticker, Date: date}] = price
}

// Lookup returns the price for (ticker, date), or missing.
func (b *PriceBook) Lookup(ticker string, date Date) Price {
	if v, ok := b.prices[PricePoint{Ticker: ticker, Date: date}]; ok {
		return PriceOf(v)
	}
	return MissingPrice()
}

// Benchmark returns the benchmark index price on the given date, or missing.
func (b *PriceBook) Benchmark(date Date) Price {
	return b.Lookup(b.benchmark, date)
}

// BenchmarkTicker returns the configured benchmark symbol.
func (b *PriceBook) BenchmarkTicker() string {
	return b.benchmark
}

// Len returns the number of resolved price points.
func (b *PriceBook) Len() int {
	return len(b.prices)
}
