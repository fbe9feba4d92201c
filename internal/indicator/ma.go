package indicator

import "math"

// SMA calculates Simple Moving Average.
// Output is aligned with prices; the first period-1 values are NaN.
func SMA(prices []float64, period int) []float64 {
	result := undefined(len(prices))
	if period <= 0 {
		return result
	}

	for i := period - 1; i < len(prices); i++ {
		var sum float64
		for _, p := range prices[i-period+1 : i+1] {
			sum += p
		}
		result[i] = sum / float64(period)
	}

	return result
}

// EMA calculates Exponential Moving Average with smoothing 2/(period+1).
// It is seeded with the first price, so every value is defined.
func EMA(prices []float64, period int) []float64 {
	result := undefined(len(prices))
	if period <= 0 || len(prices) == 0 {
		return result
	}

	multiplier := 2.0 / float64(period+1)
	ema := math.NaN()
	for i, p := range prices {
		switch {
		case math.IsNaN(p):
		case math.IsNaN(ema):
			ema = p
		default:
			ema = (p-ema)*multiplier + ema
		}
		result[i] = ema
	}

	return result
}

// StdDev calculates the rolling sample standard deviation.
func StdDev(prices []float64, period int) []float64 {
	result := undefined(len(prices))
	if period < 2 {
		return result
	}

	for i := period - 1; i < len(prices); i++ {
		window := prices[i-period+1 : i+1]
		var sum float64
		for _, p := range window {
			sum += p
		}
		mean := sum / float64(period)

		var variance float64
		for _, p := range window {
			variance += (p - mean) * (p - mean)
		}
		result[i] = math.Sqrt(variance / float64(period-1))
	}

	return result
}

// PctChange returns simple returns x[i]/x[i-1] - 1. Index 0 is NaN.
func PctChange(prices []float64) []float64 {
	return ROC(prices, 1)
}

// ROC returns the rate of change x[i]/x[i-period] - 1.
// The first period values, and any with a zero base, are NaN.
func ROC(prices []float64, period int) []float64 {
	result := undefined(len(prices))
	if period <= 0 {
		return result
	}
	for i := period; i < len(prices); i++ {
		if prices[i-period] != 0 {
			result[i] = prices[i]/prices[i-period] - 1
		}
	}
	return result
}

func undefined(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// Defined reports whether v holds a usable value
func Defined(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
