// Package broker provides the simulated account ledger that turns strategy
// order intents into cash, positions and closed trades.
package broker

import (
	"math"
	"time"

	"github.com/newthinker/swingbot/internal/core"
)

// OrderKind identifies what an order intent asks the ledger to do.
type OrderKind string

const (
	// OrderKindBuy buys Size units at market.
	OrderKindBuy OrderKind = "buy"
	// OrderKindClose sells Size units, or the whole position when Size is 0.
	OrderKindClose OrderKind = "close"
	// OrderKindTargetWeight resizes the position to Weight of portfolio value.
	OrderKindTargetWeight OrderKind = "target_weight"
)

// OrderIntent is a strategy decision for one instrument on one bar.
type OrderIntent struct {
	Symbol   string    `json:"symbol"`
	Kind     OrderKind `json:"kind"`
	Size     float64   `json:"size,omitempty"`
	Weight   float64   `json:"weight,omitempty"`
	BarIndex int       `json:"bar_index"`
	Reason   string    `json:"reason,omitempty"`
}

// Buy returns a market-buy intent.
func Buy(symbol string, size float64, bar int, reason string) OrderIntent {
	return OrderIntent{Symbol: symbol, Kind: OrderKindBuy, Size: size, BarIndex: bar, Reason: reason}
}

// Close returns a market-close intent. A zero size closes the whole position.
func Close(symbol string, size float64, bar int, reason string) OrderIntent {
	return OrderIntent{Symbol: symbol, Kind: OrderKindClose, Size: size, BarIndex: bar, Reason: reason}
}

// TargetWeight returns a target-weight intent.
func TargetWeight(symbol string, weight float64, bar int, reason string) OrderIntent {
	return OrderIntent{Symbol: symbol, Kind: OrderKindTargetWeight, Weight: weight, BarIndex: bar, Reason: reason}
}

// Validate checks the intent fields before it reaches the ledger.
func (o OrderIntent) Validate() error {
	if o.Symbol == "" {
		return core.Errorf(core.ErrOrderInvalid, "empty symbol")
	}
	switch o.Kind {
	case OrderKindBuy:
		if !finitePositive(o.Size) {
			return core.Errorf(core.ErrSizing, "symbol %s bar %d: buy size %v", o.Symbol, o.BarIndex, o.Size)
		}
	case OrderKindClose:
		if o.Size < 0 || math.IsNaN(o.Size) || math.IsInf(o.Size, 0) {
			return core.Errorf(core.ErrSizing, "symbol %s bar %d: close size %v", o.Symbol, o.BarIndex, o.Size)
		}
	case OrderKindTargetWeight:
		if math.IsNaN(o.Weight) || o.Weight < 0 || o.Weight > 1 {
			return core.Errorf(core.ErrOrderInvalid, "symbol %s bar %d: target weight %v outside [0,1]", o.Symbol, o.BarIndex, o.Weight)
		}
	default:
		return core.Errorf(core.ErrOrderInvalid, "symbol %s: unknown order kind %q", o.Symbol, o.Kind)
	}
	return nil
}

// Fill describes where and when an order executes.
type Fill struct {
	Price    float64
	BarIndex int
	Time     time.Time
}

// Position represents a long holding in one instrument.
type Position struct {
	// Symbol is the instrument identifier.
	Symbol string `json:"symbol"`
	// Size is the number of units held. Fractional sizes are allowed.
	Size float64 `json:"size"`
	// AverageCost is the weighted average cost per unit.
	AverageCost float64 `json:"average_cost"`
	// EntryBar is the local bar index of the first fill.
	EntryBar int `json:"entry_bar"`
	// EntryTime is the timestamp of the first fill.
	EntryTime time.Time `json:"entry_time"`
}

// IsFlat returns true when nothing is held.
func (p Position) IsFlat() bool {
	return p.Size == 0
}

// MarketValue returns the position value at price.
func (p Position) MarketValue(price float64) float64 {
	return p.Size * price
}

// CostBasis returns size times average cost.
func (p Position) CostBasis() float64 {
	return p.Size * p.AverageCost
}

// TradeRecord is an executed close, full or partial.
type TradeRecord struct {
	Symbol      string    `json:"symbol"`
	EntryPrice  float64   `json:"entry_price"`
	ExitPrice   float64   `json:"exit_price"`
	Size        float64   `json:"size"`
	EntryBar    int       `json:"entry_bar"`
	ExitBar     int       `json:"exit_bar"`
	EntryTime   time.Time `json:"entry_time"`
	ExitTime    time.Time `json:"exit_time"`
	HoldingBars int       `json:"holding_bars"`
	PnL         float64   `json:"pnl"`
	Return      float64   `json:"return"`
	Reason      string    `json:"reason,omitempty"`
}

// IsWin returns true if the trade was profitable.
func (t TradeRecord) IsWin() bool {
	return t.PnL > 0
}

// Deficiency records a buy that spent more cash than was available.
type Deficiency struct {
	Symbol    string    `json:"symbol"`
	BarIndex  int       `json:"bar_index"`
	Time      time.Time `json:"time"`
	Shortfall float64   `json:"shortfall"`
}

// CashPolicy decides what happens when a buy exceeds available cash.
type CashPolicy string

const (
	// CashPolicyAllow executes the buy and records a Deficiency.
	CashPolicyAllow CashPolicy = "allow"
	// CashPolicyReject refuses the buy with ErrInsufficientCash.
	CashPolicyReject CashPolicy = "reject"
)

// ParseCashPolicy parses a config value. Empty means allow.
func ParseCashPolicy(s string) (CashPolicy, error) {
	switch CashPolicy(s) {
	case "", CashPolicyAllow:
		return CashPolicyAllow, nil
	case CashPolicyReject:
		return CashPolicyReject, nil
	}
	return "", core.Errorf(core.ErrConfigInvalid, "unknown cash policy %q", s)
}

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
