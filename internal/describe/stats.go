package describe

import (
	"math"
	"slices"
)

// mean returns the arithmetic mean of x. x must be non-empty.
func mean(x []float64) float64 {
	sum := 0.0
	for _, v := range x {
		sum += v
	}
	return sum / float64(len(x))
}

// median returns the middle of sorted, or the mean of the two middle
// values when the count is even. sorted must be non-empty and ascending.
func median(sorted []float64) float64 {
	n := len(sorted)
	mid := n >> 1
	if n&1 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// percentile returns the p-th of the 99 cut points that divide sorted into
// 100 equal-probability bands, p in [1,100].
//
// Cut point p sits at position p*(n+1)/100 among the 1-based order
// statistics and is interpolated linearly between its neighbors. Positions
// before the first observation return the minimum and positions past the
// last return the maximum, so p=100 and single-observation inputs never
// extrapolate outside the data.
func percentile(sorted []float64, p int) float64 {
	const bands = 100
	n := len(sorted)
	pos := p * (n + 1)
	j := pos / bands
	delta := pos - j*bands

	switch {
	case j < 1:
		return sorted[0]
	case j >= n:
		return sorted[n-1]
	}
	return (sorted[j-1]*float64(bands-delta) + sorted[j]*float64(delta)) / bands
}

// sortedCopy returns an ascending copy of x.
func sortedCopy(x []float64) []float64 {
	cp := slices.Clone(x)
	slices.Sort(cp)
	return cp
}

// minMax returns the extremes of a non-empty slice.
func minMax(x []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range x {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}
