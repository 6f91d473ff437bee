package stats

import "math"

// Percentile returns the nearest-rank percentile of ascending sorted
// samples: the element at index ceil(p/100*N)-1, clamped to the valid
// range. With N=4 samples, p50 is the 2nd element and p95 the 4th.
func Percentile(sorted []int64, p float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	i := int(math.Ceil((p/100)*float64(len(sorted)))) - 1
	if i < 0 {
		i = 0
	}
	if i >= len(sorted) {
		i = len(sorted) - 1
	}
	return sorted[i]
}
