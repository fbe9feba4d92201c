package indicator

import "math"

// Crossover returns +1 on the bar where a-b turns positive after being
// non-positive, -1 on the bar where it turns negative after being
// non-negative, and 0 otherwise. Equality never resets the last sign, so a
// touch between two bars of the same sign does not fire again.
// Bars where either input is NaN yield 0 and leave the state untouched.
func Crossover(a, b []float64) []float64 {
	n := minLen(a, b)
	result := make([]float64, n)

	var lastSign float64
	seen := false
	for i := 0; i < n; i++ {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		diff := a[i] - b[i]
		if seen {
			switch {
			case diff > 0 && lastSign <= 0:
				result[i] = 1
			case diff < 0 && lastSign >= 0:
				result[i] = -1
			}
		}
		seen = true
		if diff > 0 {
			lastSign = 1
		} else if diff < 0 {
			lastSign = -1
		}
	}
	return result
}
