// Package valuation implements the multi-model equity valuation engine:
// unit normalization, the five model calculators (FCFE, FCFF, justified
// P/E, justified P/B, Graham), and the weighting aggregator that combines
// them into a single intrinsic value with upside and recommendation.
//
// Everything in this package is pure and synchronous: no I/O, no shared
// mutable state. Calculators may be invoked concurrently for any number
// of symbols or what-if assumption sets.
package valuation

import "github.com/vietquant/vietval/pkg/models"

// misScaleThreshold separates correctly scaled VND prices from values
// that arrived in thousands-of-VND, a known inconsistency in the source
// feeds. Legitimate penny stocks trading below 500 VND are
// indistinguishable from mis-scaled values under this rule; that is a
// documented approximation, not something to correct further.
const misScaleThreshold = 500

// NormalizePrice corrects a price-like field that arrived in
// thousands-of-VND: values in (0, 500) are multiplied by 1000, everything
// else passes through unchanged. Applying it twice is a no-op for any
// value the rule rescales to >= 500.
func NormalizePrice(v float64) float64 {
	if v > 0 && v < misScaleThreshold {
		return v * 1000
	}
	return v
}

// NormalizeQuote applies NormalizePrice uniformly to every price-like
// field of a quote: price, open/high/low, ceiling/floor/reference, and
// the per-share change. Volume and percentages are left alone.
func NormalizeQuote(q *models.Quote) {
	if q == nil {
		return
	}
	q.Price = NormalizePrice(q.Price)
	q.Open = NormalizePrice(q.Open)
	q.High = NormalizePrice(q.High)
	q.Low = NormalizePrice(q.Low)
	q.Ceiling = NormalizePrice(q.Ceiling)
	q.Floor = NormalizePrice(q.Floor)
	q.Reference = NormalizePrice(q.Reference)
	q.Change = NormalizePrice(q.Change)
}
