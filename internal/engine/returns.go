package engine

import (
	"math"
	"sort"

	"github.com/dcwatch/dcwatch/internal/contracts"
)

// Return computes the percentage move from entry to exit. The result is
// missing when either leg is missing or the entry is not positive; no
// sentinel values ever stand in for an unresolvable return.
func Return(entry, exit contracts.Price) contracts.Price {
	if entry.Missing() || exit.Missing() || entry.Value <= 0 {
		return contracts.MissingPrice()
	}
	return contracts.PriceOf((exit.Value - entry.Value) / entry.Value * 100)
}

// EstimatedReturn computes the move a trader captured from entry to the
// current price. Sales are scored inverted: a sale is a good call when
// the price falls afterward.
func EstimatedReturn(entry, current contracts.Price, kind contracts.TxType) contracts.Price {
	r := Return(entry, current)
	if r.Missing() {
		return r
	}
	if kind.IsSale() {
		r.Value = -r.Value
	}
	return r
}

// round2 rounds to two decimals. Applied only at output edges; everything
// internal stays full precision.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// round1 rounds to one decimal, used for percentage shares.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

// median averages the middle pair on even-length input.
func median(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	sorted := make([]float64, len(vs))
	copy(sorted, vs)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// winRate returns the share of positive values as a percentage.
func winRate(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	wins := 0
	for _, v := range vs {
		if v > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(vs)) * 100
}
