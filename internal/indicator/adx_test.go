package indicator

import (
	"math"
	"testing"
)

func TestADX_WarmUpAndRange(t *testing.T) {
	high, low, close := sampleBars(60)
	period := 5
	adx := ADX(high, low, close, period)

	for i := 0; i < 2*period-1; i++ {
		if !math.IsNaN(adx[i]) {
			t.Errorf("adx[%d] should be undefined, got %f", i, adx[i])
		}
	}
	for i := 2*period - 1; i < len(adx); i++ {
		if math.IsNaN(adx[i]) || adx[i] < 0 || adx[i] > 100 {
			t.Errorf("adx[%d] = %f out of range", i, adx[i])
		}
	}
}

func TestADX_StrongTrend(t *testing.T) {
	n := 40
	high := make([]float64, n)
	low := make([]float64, n)
	close := make([]float64, n)
	for i := 0; i < n; i++ {
		close[i] = 100 + 2*float64(i)
		high[i] = close[i] + 0.5
		low[i] = close[i] - 0.5
	}

	adx := ADX(high, low, close, 7)
	// only +DM is ever positive, so DX is 100 throughout
	if !almostEqual(adx[n-1], 100, 1e-9) {
		t.Errorf("adx in a pure uptrend = %f, want 100", adx[n-1])
	}
}

func TestADX_NotEnoughData(t *testing.T) {
	adx := ADX([]float64{1, 2, 3}, []float64{0, 1, 2}, []float64{1, 2, 3}, 5)
	for i, v := range adx {
		if !math.IsNaN(v) {
			t.Errorf("adx[%d] should be undefined, got %f", i, v)
		}
	}
}
