package indicator

import (
	"math"
	"testing"
)

func TestCrossover(t *testing.T) {
	tests := []struct {
		name string
		a    []float64
		b    []float64
		want []float64
	}{
		{
			name: "single bullish cross",
			a:    []float64{1, 2, 3, 4},
			b:    []float64{2, 2.5, 2.5, 2.5},
			want: []float64{0, 0, 1, 0},
		},
		{
			name: "bearish cross",
			a:    []float64{3, 1, 1},
			b:    []float64{2, 2, 2},
			want: []float64{0, -1, 0},
		},
		{
			name: "touch without sign change does not refire",
			a:    []float64{1, 3, 2, 3},
			b:    []float64{2, 2, 2, 2},
			want: []float64{0, 1, 0, 0},
		},
		{
			name: "touch then reverse fires once",
			a:    []float64{3, 2, 1},
			b:    []float64{2, 2, 2},
			want: []float64{0, 0, -1},
		},
		{
			name: "undefined inputs skipped",
			a:    []float64{math.NaN(), 1, 3},
			b:    []float64{2, 2, 2},
			want: []float64{0, 0, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Crossover(tt.a, tt.b)
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestCrossover_FiresOncePerSignChange(t *testing.T) {
	_, _, close := sampleBars(200)
	fast := EMA(close, 3)
	slow := EMA(close, 8)
	cross := Crossover(fast, slow)

	var changes, fires int
	var last float64
	for i := range close {
		d := fast[i] - slow[i]
		if d != 0 {
			s := math.Copysign(1, d)
			if i > 0 && s != last {
				changes++
			}
			last = s
		}
		if cross[i] != 0 {
			fires++
		}
	}
	if fires != changes {
		t.Errorf("fired %d times for %d sign changes", fires, changes)
	}
}
