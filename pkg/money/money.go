// Package money keeps amounts as integer cents. Decimal strings are only
// accepted at the boundary (ParseCents); everything after that is int64.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ParseCents converts a decimal amount such as "540" or "99.99" to cents,
// rounding half up at the third decimal.
func ParseCents(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d.Shift(2).Round(0).IntPart(), nil
}

// FromUnits converts whole currency units to cents.
func FromUnits(units int64) int64 { return units * 100 }

// ToUnits rounds cents half up to whole currency units.
func ToUnits(cents int64) int64 { return divRoundHalfUp(cents, 100) }

// FormatRate renders a rate in basis points as a percentage: 500 -> "5",
// 525 -> "5.25".
func FormatRate(bp int64) string { return decimal.New(bp, -2).String() }

// divRoundHalfUp returns round(n/d) with halves rounded away from zero, for d > 0.
func divRoundHalfUp(n, d int64) int64 {
	if n >= 0 {
		return (2*n + d) / (2 * d)
	}
	return -((-2*n + d) / (2 * d))
}

// Allocate splits total across parts in proportion to weights. Every part but
// the last is rounded half up; the last absorbs the remainder so the parts
// always sum to total. With no positive weight the whole total goes to the
// last part.
func Allocate(total int64, weights []int64) []int64 {
	out := make([]int64, len(weights))
	if len(weights) == 0 {
		return out
	}
	var sum int64
	for _, w := range weights {
		if w > 0 {
			sum += w
		}
	}
	if sum == 0 {
		out[len(out)-1] = total
		return out
	}
	var allocated int64
	for i := 0; i < len(weights)-1; i++ {
		w := weights[i]
		if w < 0 {
			w = 0
		}
		out[i] = divRoundHalfUp(total*w, sum)
		allocated += out[i]
	}
	out[len(out)-1] = total - allocated
	return out
}

// SplitTax splits a tax-inclusive total into its tax-exclusive amount and tax
// for a rate expressed in basis points.
func SplitTax(total, rateBP int64) (exclusive, tax int64) {
	exclusive = divRoundHalfUp(total*10000, 10000+rateBP)
	return exclusive, total - exclusive
}
