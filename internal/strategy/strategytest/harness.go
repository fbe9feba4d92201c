// Package strategytest drives strategies bar by bar over aligned series
// for unit tests.
package strategytest

import (
	"time"

	"github.com/newthinker/swingbot/internal/broker"
	"github.com/newthinker/swingbot/internal/core"
	"github.com/newthinker/swingbot/internal/indicator"
	"github.com/newthinker/swingbot/internal/strategy"
)

// Start is the timestamp of bar 0
var Start = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// Harness feeds one strategy a universe whose series share a calendar
type Harness struct {
	Strategy strategy.Strategy
	Universe core.Universe
	Set      *indicator.Set
	Ledger   *broker.Ledger
	Skipped  []error
	// Value overrides the pre-trade portfolio value when set
	Value func(index int) float64

	symbols []string
}

// New prepares a harness with capital in cash
func New(s strategy.Strategy, u core.Universe, capital float64) *Harness {
	symbols := u.Symbols()
	s.Reset(symbols)
	return &Harness{
		Strategy: s,
		Universe: u,
		Set:      indicator.NewSet(u, s.RequiredData().Indicators),
		Ledger:   broker.NewLedger(capital, broker.CashPolicyAllow),
		symbols:  symbols,
	}
}

// Context builds the decision context of bar index
func (h *Harness) Context(index int) strategy.Context {
	bars := make(map[string]strategy.Snapshot, len(h.symbols))
	prices := h.Prices(index)
	for _, sym := range h.symbols {
		series := h.Universe[sym]
		bars[sym] = strategy.Snapshot{
			Bar:       series.Bars[index],
			Index:     index,
			HasBar:    true,
			LastClose: series.Bars[index].Close,
		}
	}

	value := h.Ledger.MarkToMarket(prices)
	if h.Value != nil {
		value = h.Value(index)
	}

	return strategy.Context{
		Tick:           index,
		Time:           Start.AddDate(0, 0, index),
		Symbols:        h.symbols,
		Bars:           bars,
		Indicators:     h.Set,
		Portfolio:      h.Ledger,
		PortfolioValue: value,
		OnSkip:         func(_ string, err error) { h.Skipped = append(h.Skipped, err) },
	}
}

// Prices returns the closes of bar index
func (h *Harness) Prices(index int) map[string]float64 {
	prices := make(map[string]float64, len(h.symbols))
	for _, sym := range h.symbols {
		prices[sym] = h.Universe[sym].Bars[index].Close
	}
	return prices
}

// Step decides bar index and fills the intents at its closes
func (h *Harness) Step(index int) []broker.OrderIntent {
	intents := h.Strategy.Decide(h.Context(index))
	prices := h.Prices(index)
	for _, in := range intents {
		fill := broker.Fill{Price: prices[in.Symbol], BarIndex: index, Time: Start.AddDate(0, 0, index)}
		if err := h.Ledger.Apply(in, fill, prices); err != nil {
			h.Skipped = append(h.Skipped, err)
		}
	}
	return intents
}

// Run steps through every bar and returns the intents per bar
func (h *Harness) Run() [][]broker.OrderIntent {
	n := 0
	for _, s := range h.Universe {
		n = s.Len()
		break
	}
	out := make([][]broker.OrderIntent, n)
	for i := 0; i < n; i++ {
		out[i] = h.Step(i)
	}
	return out
}

// FirstIntent returns the bar of the first intent, or -1
func FirstIntent(steps [][]broker.OrderIntent) int {
	for i, in := range steps {
		if len(in) > 0 {
			return i
		}
	}
	return -1
}

// Closes builds a series whose bars open, high and low at the close
func Closes(symbol string, closes ...float64) core.Series {
	s := core.Series{Symbol: symbol}
	for i, c := range closes {
		s.Bars = append(s.Bars, core.Bar{
			Time: Start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000,
		})
	}
	return s
}

// Ramp builds n bars rising by step from base with a symmetric spread
func Ramp(symbol string, n int, base, step, spread float64) core.Series {
	s := core.Series{Symbol: symbol}
	for i := 0; i < n; i++ {
		c := base + step*float64(i)
		s.Bars = append(s.Bars, core.Bar{
			Time: Start.AddDate(0, 0, i), Open: c, High: c + spread, Low: c - spread, Close: c, Volume: 1000,
		})
	}
	return s
}
