package indicator

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/newthinker/swingbot/internal/core"
)

func TestSpec_Key(t *testing.T) {
	tests := []struct {
		spec Spec
		want string
	}{
		{EMAOf(SourceClose, 20), "ema(close,20)"},
		{SMAOf("", 5), "sma(close,5)"},
		{ATROf(14), "atr(14)"},
		{HighestOf(SourceHigh, 20, 1), "highest(high,20,1)"},
		{CrossoverOf(EMAOf(SourceClose, 2), EMAOf(SourceClose, 3)), "crossover(ema(close,2),ema(close,3))"},
		{StdDevOf(SourceReturn, 20), "stddev(return,20)"},
		{ReturnOf(SourceClose, 5), "return(close,5)"},
	}
	for _, tt := range tests {
		if got := tt.spec.Key(); got != tt.want {
			t.Errorf("Key() = %s, want %s", got, tt.want)
		}
	}
}

func TestSpec_LookbackMatchesFirstDefinedValue(t *testing.T) {
	series := rampSeries(80)
	specs := []Spec{
		SMAOf(SourceClose, 10),
		RSIOf(SourceClose, 14),
		ATROf(14),
		ADXOf(7),
		StdDevOf(SourceReturn, 10),
		ReturnOf(SourceClose, 5),
		HighestOf(SourceHigh, 20, 1),
		LowestOf(SourceLow, 20, 1),
	}

	for _, spec := range specs {
		values := Compute(spec, series)
		first := -1
		for i, v := range values {
			if !math.IsNaN(v) {
				first = i
				break
			}
		}
		if first != spec.Lookback() {
			t.Errorf("%s: first defined at %d, Lookback() = %d", spec.Key(), first, spec.Lookback())
		}
	}

	// EMA is seeded with the first close but still needs period bars to settle
	if lb := EMAOf(SourceClose, 10).Lookback(); lb != 9 {
		t.Errorf("ema lookback = %d, want 9", lb)
	}

	cross := CrossoverOf(EMAOf(SourceClose, 2), EMAOf(SourceClose, 3))
	if cross.Lookback() != 3 {
		t.Errorf("crossover lookback = %d, want 3", cross.Lookback())
	}
}

func TestSpec_Validate(t *testing.T) {
	if err := StdDevOf(SourceClose, 1).Validate(); !errors.Is(err, core.ErrConfigInvalid) {
		t.Errorf("expected CONFIG_INVALID for stddev period 1, got %v", err)
	}
	if err := (Spec{Kind: "bogus"}).Validate(); err == nil {
		t.Error("expected error for unknown kind")
	}
	if err := CrossoverOf(EMAOf(SourceClose, 2), EMAOf(SourceClose, 3)).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSet_At(t *testing.T) {
	u := core.Universe{"SPY": linearSeries(30)}
	sma := SMAOf(SourceClose, 5)
	set := NewSet(u, []Spec{sma, sma})

	if v := set.At("SPY", sma, 4); v != 102 {
		t.Errorf("At(4) = %f, want 102", v)
	}
	if !math.IsNaN(set.At("SPY", sma, 3)) {
		t.Error("warm-up value should be NaN")
	}
	if !math.IsNaN(set.At("QQQ", sma, 10)) {
		t.Error("unknown symbol should be NaN")
	}
	if !math.IsNaN(set.At("SPY", ATROf(3), 10)) {
		t.Error("undeclared spec should be NaN")
	}
	if !math.IsNaN(set.At("SPY", sma, 99)) {
		t.Error("out of range index should be NaN")
	}
}

func rampSeries(n int) core.Series {
	s := core.Series{Symbol: "SPY"}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		c := 100 + float64(i) + 0.3*math.Sin(float64(i))
		s.Bars = append(s.Bars, core.Bar{
			Time:   start.AddDate(0, 0, i),
			Open:   c - 0.2,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000 + float64(i),
		})
	}
	return s
}

func linearSeries(n int) core.Series {
	s := core.Series{Symbol: "SPY"}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		c := 100 + float64(i)
		s.Bars = append(s.Bars, core.Bar{Time: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c})
	}
	return s
}
