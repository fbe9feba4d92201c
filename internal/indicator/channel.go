package indicator

import "math"

// Highest returns the maximum of x over [t-shift-period+1, t-shift].
// With shift 1 the current bar is excluded from its own channel.
func Highest(x []float64, period, shift int) []float64 {
	return extreme(x, period, shift, math.Max)
}

// Lowest returns the minimum of x over [t-shift-period+1, t-shift].
func Lowest(x []float64, period, shift int) []float64 {
	return extreme(x, period, shift, math.Min)
}

func extreme(x []float64, period, shift int, pick func(a, b float64) float64) []float64 {
	result := undefined(len(x))
	if period <= 0 || shift < 0 {
		return result
	}

	for t := period + shift - 1; t < len(x); t++ {
		end := t - shift
		v := x[end]
		for _, w := range x[end-period+1 : end] {
			v = pick(v, w)
		}
		result[t] = v
	}
	return result
}
