package contracts

import (
	"encoding/json"
	"testing"
)

func TestPriceRound2(t *testing.T) {
	tests := []struct {
		name  string
		price Price
		want  float64
	}{
		{name: "rounds half up", price: PriceOf(12.345), want: 12.35},
		{name: "rounds down", price: PriceOf(12.344), want: 12.34},
		{name: "negative", price: PriceOf(-3.456), want: -3.46},
		{name: "already exact", price: PriceOf(100.5), want: 100.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.price.Round2()
			if got.Missing() {
				t.Fatal("Round2 lost validity")
			}
			if got.Value != tt.want {
				t.Errorf("Round2() = %v, want %v", got.Value, tt.want)
			}
		})
	}

	if got := MissingPrice().Round2(); !got.Missing() {
		t.Error("Round2 of missing price should stay missing")
	}
}

func TestPriceJSON(t *testing.T) {
	type wrapper struct {
		P Price `json:"p"`
	}

	out, err := json.Marshal(wrapper{P: PriceOf(128.44)})
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	if string(out) != `{"p":128.44}` {
		t.Errorf("marshal = %s, want {\"p\":128.44}", out)
	}

	// Missing marshals as null, mirroring an absent quote.
	out, err = json.Marshal(wrapper{P: MissingPrice()})
	if err != nil {
		t.Fatalf("Failed to marshal missing: %v", err)
	}
	if string(out) != `{"p":null}` {
		t.Errorf("marshal missing = %s, want {\"p\":null}", out)
	}

	var w wrapper
	if err := json.Unmarshal([]byte(`{"p":null}`), &w); err != nil {
		t.Fatalf("Failed to unmarshal null: %v", err)
	}
	if !w.P.Missing() {
		t.Errorf("unmarshal null: expected missing, got %v", w.P.Value)
	}

	if err := json.Unmarshal([]byte(`{"p":42.5}`), &w); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if w.P.Missing() || w.P.Value != 42.5 {
		t.Errorf("unmarshal = %+v, want valid 42.5", w.P)
	}
}

func TestPriceBookLookup(t *testing.T) {
	book := NewPriceBook("SPY")

	day := mustDate(t, "2024-03-15")
	other := mustDate(t, "2024-03-18")

	book.Set("NVDA", day, 878.37)
	book.Set("SPY", day, 509.12)

	if p := book.Lookup("NVDA", day); p.Missing() || p.Value != 878.37 {
		t.Errorf("Lookup(NVDA) = %+v, want 878.37", p)
	}
	if p := book.Lookup("NVDA", other); !p.Missing() {
		t.Errorf("Lookup on unset date should be missing, got %v", p.Value)
	}
	if p := book.Lookup("TSLA", day); !p.Missing() {
		t.Errorf("Lookup on unknown ticker should be missing, got %v", p.Value)
	}

	if p := book.Benchmark(day); p.Missing() || p.Value != 509.12 {
		t.Errorf("Benchmark = %+v, want 509.12", p)
	}
	if book.BenchmarkTicker() != "SPY" {
		t.Errorf("BenchmarkTicker = %s, want SPY", book.BenchmarkTicker())
	}
	if book.Len() != 2 {
		t.Errorf("Len = %d, want 2", book.Len())
	}
}
