package indicator

import (
	"fmt"
	"math"
	"strings"

	"github.com/newthinker/swingbot/internal/core"
)

// Kind names an indicator function
type Kind string

const (
	KindSMA       Kind = "sma"
	KindEMA       Kind = "ema"
	KindRSI       Kind = "rsi"
	KindATR       Kind = "atr"
	KindStdDev    Kind = "stddev"
	KindHighest   Kind = "highest"
	KindLowest    Kind = "lowest"
	KindADX       Kind = "adx"
	KindCrossover Kind = "crossover"
	KindReturn    Kind = "return"
)

// Source selects the bar column a single-input indicator reads
type Source string

const (
	SourceClose  Source = "close"
	SourceOpen   Source = "open"
	SourceHigh   Source = "high"
	SourceLow    Source = "low"
	SourceVolume Source = "volume"
	SourceReturn Source = "return"
)

// Spec declares an indicator a strategy depends on
type Spec struct {
	Kind   Kind
	Period int
	Shift  int
	Source Source
	Inputs []Spec // crossover operands
}

// Convenience constructors

func SMAOf(src Source, period int) Spec { return Spec{Kind: KindSMA, Period: period, Source: src} }
func EMAOf(src Source, period int) Spec { return Spec{Kind: KindEMA, Period: period, Source: src} }
func RSIOf(src Source, period int) Spec { return Spec{Kind: KindRSI, Period: period, Source: src} }
func StdDevOf(src Source, period int) Spec {
	return Spec{Kind: KindStdDev, Period: period, Source: src}
}
func ATROf(period int) Spec { return Spec{Kind: KindATR, Period: period} }
func ADXOf(period int) Spec { return Spec{Kind: KindADX, Period: period} }
func ReturnOf(src Source, period int) Spec {
	return Spec{Kind: KindReturn, Period: period, Source: src}
}

func HighestOf(src Source, period, shift int) Spec {
	return Spec{Kind: KindHighest, Period: period, Shift: shift, Source: src}
}

func LowestOf(src Source, period, shift int) Spec {
	return Spec{Kind: KindLowest, Period: period, Shift: shift, Source: src}
}

func CrossoverOf(a, b Spec) Spec {
	return Spec{Kind: KindCrossover, Inputs: []Spec{a, b}}
}

// Key returns a canonical string identifying the spec
func (s Spec) Key() string {
	switch s.Kind {
	case KindATR, KindADX:
		return fmt.Sprintf("%s(%d)", s.Kind, s.Period)
	case KindHighest, KindLowest:
		return fmt.Sprintf("%s(%s,%d,%d)", s.Kind, s.source(), s.Period, s.Shift)
	case KindCrossover:
		keys := make([]string, len(s.Inputs))
		for i, in := range s.Inputs {
			keys[i] = in.Key()
		}
		return fmt.Sprintf("%s(%s)", s.Kind, strings.Join(keys, ","))
	default:
		return fmt.Sprintf("%s(%s,%d)", s.Kind, s.source(), s.Period)
	}
}

func (s Spec) String() string {
	return s.Key()
}

func (s Spec) source() Source {
	if s.Source == "" {
		return SourceClose
	}
	return s.Source
}

// Lookback returns the index of the first bar at which the indicator is
// defined on a gap-free series.
func (s Spec) Lookback() int {
	base := 0
	if s.source() == SourceReturn {
		base = 1
	}

	switch s.Kind {
	case KindSMA, KindStdDev:
		return base + s.Period - 1
	case KindEMA:
		return base + max(s.Period-1, 0)
	case KindRSI:
		return base + s.Period
	case KindATR:
		return s.Period
	case KindADX:
		return 2*s.Period - 1
	case KindHighest, KindLowest:
		return base + s.Period + s.Shift - 1
	case KindReturn:
		return base + s.Period
	case KindCrossover:
		lb := 0
		for _, in := range s.Inputs {
			lb = max(lb, in.Lookback())
		}
		return lb + 1
	}
	return 0
}

// Validate rejects specs whose parameters cannot produce values
func (s Spec) Validate() error {
	switch s.Kind {
	case KindCrossover:
		if len(s.Inputs) != 2 {
			return core.Errorf(core.ErrConfigInvalid, "%s needs two inputs", s.Kind)
		}
		for _, in := range s.Inputs {
			if err := in.Validate(); err != nil {
				return err
			}
		}
		return nil
	case KindStdDev:
		if s.Period < 2 {
			return core.Errorf(core.ErrConfigInvalid, "%s period must be >= 2, got %d", s.Key(), s.Period)
		}
	case KindSMA, KindEMA, KindRSI, KindATR, KindADX, KindHighest, KindLowest, KindReturn:
		if s.Period < 1 {
			return core.Errorf(core.ErrConfigInvalid, "%s period must be >= 1, got %d", s.Key(), s.Period)
		}
	default:
		return core.Errorf(core.ErrConfigInvalid, "unknown indicator kind %q", s.Kind)
	}
	if s.Shift < 0 {
		return core.Errorf(core.ErrConfigInvalid, "%s shift must be >= 0", s.Key())
	}
	return nil
}

// Compute evaluates the spec over a series. The output is aligned with the
// series bars.
func Compute(spec Spec, series core.Series) []float64 {
	switch spec.Kind {
	case KindATR:
		return ATR(series.Highs(), series.Lows(), series.Closes(), spec.Period)
	case KindADX:
		return ADX(series.Highs(), series.Lows(), series.Closes(), spec.Period)
	case KindCrossover:
		if len(spec.Inputs) != 2 {
			return undefined(series.Len())
		}
		return Crossover(Compute(spec.Inputs[0], series), Compute(spec.Inputs[1], series))
	}

	x := column(spec.source(), series)
	switch spec.Kind {
	case KindSMA:
		return SMA(x, spec.Period)
	case KindEMA:
		return EMA(x, spec.Period)
	case KindRSI:
		return RSI(x, spec.Period)
	case KindStdDev:
		return StdDev(x, spec.Period)
	case KindHighest:
		return Highest(x, spec.Period, spec.Shift)
	case KindLowest:
		return Lowest(x, spec.Period, spec.Shift)
	case KindReturn:
		return ROC(x, spec.Period)
	}
	return undefined(series.Len())
}

func column(src Source, series core.Series) []float64 {
	switch src {
	case SourceOpen:
		return series.Opens()
	case SourceHigh:
		return series.Highs()
	case SourceLow:
		return series.Lows()
	case SourceVolume:
		return series.Volumes()
	case SourceReturn:
		return PctChange(series.Closes())
	default:
		return series.Closes()
	}
}

// Set holds computed indicator series for one run, keyed by symbol and spec
type Set struct {
	values map[string]map[string][]float64
}

// NewSet computes every spec for every series in the universe
func NewSet(universe core.Universe, specs []Spec) *Set {
	s := &Set{values: make(map[string]map[string][]float64, len(universe))}
	for sym, series := range universe {
		bySpec := make(map[string][]float64, len(specs))
		for _, spec := range specs {
			key := spec.Key()
			if _, ok := bySpec[key]; ok {
				continue
			}
			bySpec[key] = Compute(spec, series)
		}
		s.values[sym] = bySpec
	}
	return s
}

// At returns the value of spec for symbol at the symbol's local bar index.
// Unknown symbols, specs or indices return NaN.
func (s *Set) At(symbol string, spec Spec, index int) float64 {
	series, ok := s.values[symbol][spec.Key()]
	if !ok || index < 0 || index >= len(series) {
		return math.NaN()
	}
	return series[index]
}

// Series returns the computed series for symbol and spec, or nil
func (s *Set) Series(symbol string, spec Spec) []float64 {
	return s.values[symbol][spec.Key()]
}
