package strategy

import (
	"math"
	"time"

	"github.com/newthinker/swingbot/internal/broker"
	"github.com/newthinker/swingbot/internal/core"
	"github.com/newthinker/swingbot/internal/indicator"
)

// Config holds strategy configuration
type Config struct {
	Params map[string]any
}

// DataRequirements specifies what data a strategy needs
type DataRequirements struct {
	// Lookback is the local bar index an instrument must reach before the
	// strategy acts on it.
	Lookback   int
	Indicators []indicator.Spec
	// Portfolio strategies allocate across the whole universe and only act
	// on ticks where every instrument has a bar.
	Portfolio bool
}

// Snapshot is the view of one instrument on the current tick
type Snapshot struct {
	Bar core.Bar
	// Index is the local bar index, or the index of the last bar seen when
	// HasBar is false. It is -1 before the first bar.
	Index  int
	HasBar bool
	// LastClose is the forward-filled close used for valuation.
	LastClose float64
}

// Portfolio is the read-only ledger view given to strategies
type Portfolio interface {
	Cash() float64
	Position(symbol string) (broker.Position, bool)
}

// Context provides one tick of data to strategies
type Context struct {
	Tick           int
	Time           time.Time
	Symbols        []string
	Bars           map[string]Snapshot
	Indicators     *indicator.Set
	Portfolio      Portfolio
	PortfolioValue float64
	// OnSkip is called for decisions dropped by a sizing failure.
	OnSkip func(symbol string, err error)
}

// Snapshot returns the view of symbol on this tick
func (c Context) Snapshot(symbol string) Snapshot {
	s, ok := c.Bars[symbol]
	if !ok {
		return Snapshot{Index: -1}
	}
	return s
}

// Ready returns the snapshot when symbol has a real bar at a local index of
// at least lookback.
func (c Context) Ready(symbol string, lookback int) (Snapshot, bool) {
	s := c.Snapshot(symbol)
	return s, s.HasBar && s.Index >= lookback
}

// Synchronized reports whether every symbol has a real bar on this tick
func (c Context) Synchronized() bool {
	for _, sym := range c.Symbols {
		if !c.Snapshot(sym).HasBar {
			return false
		}
	}
	return len(c.Symbols) > 0
}

// Indicator returns the value of spec for symbol on this tick's bar. It is
// NaN when the symbol has no bar on this tick.
func (c Context) Indicator(symbol string, spec indicator.Spec) float64 {
	s := c.Snapshot(symbol)
	if !s.HasBar || c.Indicators == nil {
		return math.NaN()
	}
	return c.Indicators.At(symbol, spec, s.Index)
}

// Cash returns the ledger cash before this tick's orders
func (c Context) Cash() float64 {
	if c.Portfolio == nil {
		return 0
	}
	return c.Portfolio.Cash()
}

// Held returns the open position for symbol
func (c Context) Held(symbol string) (broker.Position, bool) {
	if c.Portfolio == nil {
		return broker.Position{Symbol: symbol}, false
	}
	return c.Portfolio.Position(symbol)
}

// Skip reports a decision that could not become an order
func (c Context) Skip(symbol string, err error) {
	if c.OnSkip != nil {
		c.OnSkip(symbol, err)
	}
}

// Strategy defines the interface for trading strategies.
// A strategy instance carries per-run state and must not be shared by
// concurrent runs.
type Strategy interface {
	Name() string
	Description() string
	RequiredData() DataRequirements
	Init(cfg Config) error
	// Reset clears per-run state before a run over symbols
	Reset(symbols []string)
	// Decide returns at most one intent per instrument for this tick
	Decide(ctx Context) []broker.OrderIntent
}

// MaxLookback returns the largest lookback among specs
func MaxLookback(specs ...indicator.Spec) int {
	lb := 0
	for _, s := range specs {
		lb = max(lb, s.Lookback())
	}
	return lb
}
