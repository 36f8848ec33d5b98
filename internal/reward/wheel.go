package reward

import (
	"cashbux/internal/storage"
)

// TotalWeight sums the weights of the given prizes.
func TotalWeight(prizes []*storage.SpinWheelPrize) int64 {
	var total int64
	for _, p := range prizes {
		if p.Weight > 0 {
			total += p.Weight
		}
	}
	return total
}

// SelectPrize picks one prize from the list given a draw r in
// [0, TotalWeight(prizes)]. The list must be in a stable order (the
// store returns primary-key order); the walk keeps a running cumulative
// weight and selects the first positive-weight prize whose cumulative
// upper bound reaches r. Zero-weight prizes are skipped, so they are
// never selected. A draw exactly at the total weight, or any
// floating-point residue past the last bound, falls through to the
// last positive-weight prize, so selection is total whenever the list
// carries any weight. Returns nil only when no prize has weight > 0.
func SelectPrize(prizes []*storage.SpinWheelPrize, r float64) *storage.SpinWheelPrize {
	var last *storage.SpinWheelPrize
	upto := float64(0)
	for _, p := range prizes {
		if p.Weight <= 0 {
			continue
		}
		if upto+float64(p.Weight) >= r {
			return p
		}
		upto += float64(p.Weight)
		last = p
	}
	return last
}
