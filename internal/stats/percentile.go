package stats

import (
	"math"
	"slices"

	"github.com/abhisek/kakomon/internal/ratio"
)

// Percentile returns the nearest-rank p-th percentile of values, or nil
// when values is empty. The input is not modified.
func Percentile(values []int64, p float64) *int64 {
	if len(values) == 0 {
		return nil
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	idx = max(0, min(idx, len(sorted)-1))
	v := sorted[idx]
	return &v
}

// Median returns the median of values, or nil when values is empty. For an
// even count it is the mean of the two middle values, rounded half up.
func Median(values []int64) *int64 {
	if len(values) == 0 {
		return nil
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	v := sorted[mid]
	if len(sorted)%2 == 0 {
		v = int64(ratio.RoundHalfUp(float64(sorted[mid-1]+sorted[mid]) / 2))
	}
	return &v
}
