package indicator

import (
	"math"
	"testing"
)

func TestHighest_ShiftExcludesCurrentBar(t *testing.T) {
	high := []float64{5, 7, 6, 8, 20, 4}
	hh := Highest(high, 3, 1)

	for i := 0; i < 3; i++ {
		if !math.IsNaN(hh[i]) {
			t.Errorf("hh[%d] should be undefined, got %f", i, hh[i])
		}
	}
	// hh[t] = max(high[t-3..t-1])
	expected := map[int]float64{3: 7, 4: 8, 5: 20}
	for i, want := range expected {
		if hh[i] != want {
			t.Errorf("hh[%d] = %f, want %f", i, hh[i], want)
		}
	}
	// a bar that spikes never sees its own high
	if hh[4] >= high[4] {
		t.Errorf("channel at 4 includes current bar: %f", hh[4])
	}
}

func TestLowest_NoShift(t *testing.T) {
	low := []float64{5, 3, 6, 2, 9}
	ll := Lowest(low, 2, 0)

	expected := []float64{math.NaN(), 3, 3, 2, 2}
	for i, want := range expected {
		if !sameValue(ll[i], want) {
			t.Errorf("ll[%d] = %f, want %f", i, ll[i], want)
		}
	}
}
