// Package ratio holds the rate and rounding helpers shared by the analytics
// engines so that every reported rate rounds the same way.
package ratio

import "math"

// Of returns n/total, or 0 when total is 0.
func Of(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

// Round4 rounds x to four decimal places, rounding halves up.
func Round4(x float64) float64 {
	return math.Floor(x*10000+0.5) / 10000
}

// RoundHalfUp rounds x to the nearest integer, halves toward positive infinity.
func RoundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
