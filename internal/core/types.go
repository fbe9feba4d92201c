package core

import (
	"math"
	"sort"
	"time"
)

// Bar represents one daily OHLCV candle
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Series is the ordered bar history of a single instrument
type Series struct {
	Symbol string
	Bars   []Bar
}

// Len returns the number of bars
func (s Series) Len() int {
	return len(s.Bars)
}

// Validate checks ordering and value sanity. Gaps in the calendar are allowed.
func (s Series) Validate() error {
	if len(s.Bars) == 0 {
		return Errorf(ErrNoData, "symbol %s has no bars", s.Symbol)
	}
	for i, b := range s.Bars {
		if i > 0 && !b.Time.After(s.Bars[i-1].Time) {
			return Errorf(ErrInvalidData, "symbol %s bar %d: timestamp %s not after %s",
				s.Symbol, i, b.Time.Format(time.DateOnly), s.Bars[i-1].Time.Format(time.DateOnly))
		}
		for _, v := range [...]float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return Errorf(ErrInvalidData, "symbol %s bar %d: non-finite value", s.Symbol, i)
			}
			if v < 0 {
				return Errorf(ErrInvalidData, "symbol %s bar %d: negative value %v", s.Symbol, i, v)
			}
		}
	}
	return nil
}

// Closes returns the close column
func (s Series) Closes() []float64 {
	return s.column(func(b Bar) float64 { return b.Close })
}

// Opens returns the open column
func (s Series) Opens() []float64 {
	return s.column(func(b Bar) float64 { return b.Open })
}

// Highs returns the high column
func (s Series) Highs() []float64 {
	return s.column(func(b Bar) float64 { return b.High })
}

// Lows returns the low column
func (s Series) Lows() []float64 {
	return s.column(func(b Bar) float64 { return b.Low })
}

// Volumes returns the volume column
func (s Series) Volumes() []float64 {
	return s.column(func(b Bar) float64 { return b.Volume })
}

func (s Series) column(f func(Bar) float64) []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = f(b)
	}
	return out
}

// Between returns the bars with from <= Time <= to. Zero bounds are open.
func (s Series) Between(from, to time.Time) Series {
	out := Series{Symbol: s.Symbol}
	for _, b := range s.Bars {
		if !from.IsZero() && b.Time.Before(from) {
			continue
		}
		if !to.IsZero() && b.Time.After(to) {
			continue
		}
		out.Bars = append(out.Bars, b)
	}
	return out
}

// Universe maps symbol to its series
type Universe map[string]Series

// Symbols returns the universe symbols sorted alphabetically
func (u Universe) Symbols() []string {
	out := make([]string, 0, len(u))
	for sym := range u {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Validate validates every series in the universe
func (u Universe) Validate() error {
	if len(u) == 0 {
		return Errorf(ErrNoData, "empty universe")
	}
	for _, sym := range u.Symbols() {
		if err := u[sym].Validate(); err != nil {
			return err
		}
	}
	return nil
}
