package indicator

import "math"

// ADX calculates the Average Directional Index with Wilder smoothing.
// DX is defined from index period; ADX from index 2*period-1.
func ADX(high, low, close []float64, period int) []float64 {
	n := minLen(high, low, close)
	result := undefined(n)
	if period <= 0 || n < 2*period {
		return result
	}

	tr := TrueRange(high, low, close)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		up := high[i] - high[i-1]
		down := low[i-1] - low[i]
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	var sTR, sPlus, sMinus float64
	for i := 1; i <= period; i++ {
		sTR += tr[i]
		sPlus += plusDM[i]
		sMinus += minusDM[i]
	}

	p := float64(period)
	dx := undefined(n)
	dx[period] = directional(sTR, sPlus, sMinus)
	for i := period + 1; i < n; i++ {
		sTR = sTR - sTR/p + tr[i]
		sPlus = sPlus - sPlus/p + plusDM[i]
		sMinus = sMinus - sMinus/p + minusDM[i]
		dx[i] = directional(sTR, sPlus, sMinus)
	}

	first := 2*period - 1
	var adx float64
	for i := period; i <= first; i++ {
		adx += dx[i]
	}
	adx /= p
	result[first] = adx
	for i := first + 1; i < n; i++ {
		adx = (adx*(p-1) + dx[i]) / p
		result[i] = adx
	}

	return result
}

func directional(sTR, sPlus, sMinus float64) float64 {
	if sTR == 0 {
		return 0
	}
	plusDI := 100 * sPlus / sTR
	minusDI := 100 * sMinus / sTR
	total := plusDI + minusDI
	if total == 0 {
		return 0
	}
	return 100 * math.Abs(plusDI-minusDI) / total
}
