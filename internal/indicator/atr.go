package indicator

import "math"

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|).
// Index 0 has no previous close and is NaN.
func TrueRange(high, low, close []float64) []float64 {
	n := minLen(high, low, close)
	result := undefined(n)
	for i := 1; i < n; i++ {
		result[i] = math.Max(high[i]-low[i],
			math.Max(math.Abs(high[i]-close[i-1]), math.Abs(low[i]-close[i-1])))
	}
	return result
}

// ATR is the simple rolling mean of TrueRange, first defined at index period.
func ATR(high, low, close []float64, period int) []float64 {
	tr := TrueRange(high, low, close)
	result := undefined(len(tr))
	if period <= 0 {
		return result
	}

	for i := period; i < len(tr); i++ {
		var sum float64
		for _, v := range tr[i-period+1 : i+1] {
			sum += v
		}
		result[i] = sum / float64(period)
	}
	return result
}

func minLen(series ...[]float64) int {
	n := -1
	for _, s := range series {
		if n < 0 || len(s) < n {
			n = len(s)
		}
	}
	if n < 0 {
		return 0
	}
	return n
}
