package indicator

import "math"

// RSI calculates the Relative Strength Index with Wilder smoothing.
// The averages are seeded with the simple mean of the first period changes,
// so values before index period are NaN. A zero average loss yields 100.
func RSI(prices []float64, period int) []float64 {
	result := undefined(len(prices))
	if period <= 0 || len(prices) <= period {
		return result
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		gain, loss := change(prices[i-1], prices[i])
		avgGain += gain
		avgLoss += loss
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	result[period] = rsiValue(avgGain, avgLoss)

	p := float64(period)
	for i := period + 1; i < len(prices); i++ {
		gain, loss := change(prices[i-1], prices[i])
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
		result[i] = rsiValue(avgGain, avgLoss)
	}

	return result
}

func change(prev, cur float64) (gain, loss float64) {
	d := cur - prev
	if d > 0 {
		return d, 0
	}
	return 0, -d
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if math.IsNaN(avgGain) || math.IsNaN(avgLoss) {
		return math.NaN()
	}
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
