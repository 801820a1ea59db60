package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dcwatch/dcwatch/internal/contracts"
)

func TestReturn(t *testing.T) {
	tests := []struct {
		name    string
		entry   contracts.Price
		exit    contracts.Price
		want    float64
		missing bool
	}{
		{name: "gain", entry: contracts.PriceOf(100), exit: contracts.PriceOf(150), want: 50},
		{name: "loss", entry: contracts.PriceOf(80), exit: contracts.PriceOf(60), want: -25},
		{name: "flat", entry: contracts.PriceOf(42), exit: contracts.PriceOf(42), want: 0},
		{name: "missing entry", entry: contracts.MissingPrice(), exit: contracts.PriceOf(150), missing: true},
		{name: "missing exit", entry: contracts.PriceOf(100), exit: contracts.MissingPrice(), missing: true},
		{name: "zero entry", entry: contracts.PriceOf(0), exit: contracts.PriceOf(150), missing: true},
		{name: "negative entry", entry: contracts.PriceOf(-5), exit: contracts.PriceOf(150), missing: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Return(tt.entry, tt.exit)
			if tt.missing {
				assert.True(t, got.Missing())
				return
			}
			assert.False(t, got.Missing())
			assert.InDelta(t, tt.want, got.Value, 1e-9)
		})
	}
}

func TestEstimatedReturn(t *testing.T) {
	entry := contracts.PriceOf(100)
	up := contracts.PriceOf(120)
	down := contracts.PriceOf(80)

	tests := []struct {
		name    string
		kind    contracts.TxType
		current contracts.Price
		want    float64
	}{
		{name: "purchase rides the move", kind: contracts.TxPurchase, current: up, want: 20},
		{name: "exchange rides the move", kind: contracts.TxExchange, current: up, want: 20},
		{name: "full sale inverts a rise", kind: contracts.TxSaleFull, current: up, want: -20},
		{name: "partial sale inverts a fall", kind: contracts.TxSalePartial, current: down, want: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimatedReturn(entry, tt.current, tt.kind)
			assert.False(t, got.Missing())
			assert.InDelta(t, tt.want, got.Value, 1e-9)
		})
	}

	assert.True(t, EstimatedReturn(contracts.MissingPrice(), up, contracts.TxSaleFull).Missing())
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 2.0, median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, median([]float64{4, 1, 3, 2}))
	assert.Equal(t, 0.0, median(nil))

	// Input must not be reordered.
	in := []float64{3, 1, 2}
	median(in)
	assert.Equal(t, []float64{3, 1, 2}, in)
}

func TestWinRate(t *testing.T) {
	// Zero is not a win.
	assert.Equal(t, 50.0, winRate([]float64{2, -1, 3, 0}))
	assert.Equal(t, 0.0, winRate(nil))
	assert.Equal(t, 100.0, winRate([]float64{0.01}))
}

func TestRounding(t *testing.T) {
	assert.Equal(t, 12.35, round2(12.345))
	assert.Equal(t, 12.34, round2(12.344))
	assert.Equal(t, -3.46, round2(-3.456))
	assert.Equal(t, 66.7, round1(66.666))
}
