package broker

import (
	"math"
	"sort"

	"github.com/newthinker/swingbot/internal/core"
)

// dust is the smallest resize SetTargetWeight acts on, in units.
const dust = 1e-9

// Ledger tracks cash, open positions and the closed-trade log of one run.
// It is not safe for concurrent use; a run owns its ledger exclusively.
type Ledger struct {
	initial      float64
	cash         float64
	policy       CashPolicy
	positions    map[string]*Position
	trades       []TradeRecord
	deficiencies []Deficiency
}

// NewLedger creates a ledger holding capital in cash.
func NewLedger(capital float64, policy CashPolicy) *Ledger {
	if policy == "" {
		policy = CashPolicyAllow
	}
	return &Ledger{
		initial:   capital,
		cash:      capital,
		policy:    policy,
		positions: make(map[string]*Position),
	}
}

// Buy adds size units at the fill price.
// New average cost = (old_cost * old_size + price * size) / (old_size + size).
func (l *Ledger) Buy(symbol string, size float64, fill Fill) error {
	if !finitePositive(size) {
		return core.Errorf(core.ErrSizing, "symbol %s bar %d: buy size %v", symbol, fill.BarIndex, size)
	}
	if !finitePositive(fill.Price) {
		return core.Errorf(core.ErrOrderInvalid, "symbol %s bar %d: fill price %v", symbol, fill.BarIndex, fill.Price)
	}

	cost := size * fill.Price
	if cost > l.cash {
		if l.policy == CashPolicyReject {
			return core.Errorf(core.ErrInsufficientCash, "symbol %s bar %d: cost %.2f exceeds cash %.2f",
				symbol, fill.BarIndex, cost, l.cash)
		}
		l.deficiencies = append(l.deficiencies, Deficiency{
			Symbol:    symbol,
			BarIndex:  fill.BarIndex,
			Time:      fill.Time,
			Shortfall: cost - l.cash,
		})
	}

	pos, exists := l.positions[symbol]
	if !exists {
		pos = &Position{Symbol: symbol, EntryBar: fill.BarIndex, EntryTime: fill.Time}
		l.positions[symbol] = pos
	}

	totalCost := pos.Size*pos.AverageCost + cost
	pos.Size += size
	pos.AverageCost = totalCost / pos.Size
	l.cash -= cost

	return nil
}

// Close sells size units at the fill price, or the whole position when size
// is 0 or exceeds the holding. It appends and returns the trade record.
func (l *Ledger) Close(symbol string, size float64, fill Fill, reason string) (*TradeRecord, error) {
	pos, exists := l.positions[symbol]
	if !exists || pos.IsFlat() {
		return nil, core.Errorf(core.ErrPositionNotFound, "symbol %s bar %d", symbol, fill.BarIndex)
	}
	if size < 0 || math.IsNaN(size) {
		return nil, core.Errorf(core.ErrSizing, "symbol %s bar %d: close size %v", symbol, fill.BarIndex, size)
	}
	if !finitePositive(fill.Price) {
		return nil, core.Errorf(core.ErrOrderInvalid, "symbol %s bar %d: fill price %v", symbol, fill.BarIndex, fill.Price)
	}

	full := size == 0 || size >= pos.Size
	if full {
		size = pos.Size
	}

	// realized P&L = (fill_price - avg_cost) * closed_size
	trade := TradeRecord{
		Symbol:      symbol,
		EntryPrice:  pos.AverageCost,
		ExitPrice:   fill.Price,
		Size:        size,
		EntryBar:    pos.EntryBar,
		ExitBar:     fill.BarIndex,
		EntryTime:   pos.EntryTime,
		ExitTime:    fill.Time,
		HoldingBars: fill.BarIndex - pos.EntryBar,
		PnL:         (fill.Price - pos.AverageCost) * size,
		Reason:      reason,
	}
	if pos.AverageCost > 0 {
		trade.Return = fill.Price/pos.AverageCost - 1
	}

	l.cash += size * fill.Price
	if full {
		delete(l.positions, symbol)
	} else {
		pos.Size -= size
	}
	l.trades = append(l.trades, trade)

	return &trade, nil
}

// SetTargetWeight resizes symbol to weight of the portfolio value at prices,
// trading the difference at the fill price. Weight 0 closes the position.
func (l *Ledger) SetTargetWeight(symbol string, weight float64, fill Fill, prices map[string]float64, reason string) error {
	if math.IsNaN(weight) || weight < 0 || weight > 1 {
		return core.Errorf(core.ErrOrderInvalid, "symbol %s bar %d: target weight %v outside [0,1]", symbol, fill.BarIndex, weight)
	}
	if !finitePositive(fill.Price) {
		return core.Errorf(core.ErrOrderInvalid, "symbol %s bar %d: fill price %v", symbol, fill.BarIndex, fill.Price)
	}

	pos, held := l.positions[symbol]
	if weight == 0 {
		if !held {
			return nil
		}
		_, err := l.Close(symbol, 0, fill, reason)
		return err
	}

	var current float64
	if held {
		current = pos.MarketValue(fill.Price)
	}
	delta := (weight*l.MarkToMarket(prices) - current) / fill.Price

	switch {
	case delta > dust:
		return l.Buy(symbol, delta, fill)
	case delta < -dust && held:
		_, err := l.Close(symbol, -delta, fill, reason)
		return err
	}
	return nil
}

// Apply executes an intent at the fill. Target weights are valued at prices.
func (l *Ledger) Apply(intent OrderIntent, fill Fill, prices map[string]float64) error {
	if err := intent.Validate(); err != nil {
		return err
	}
	switch intent.Kind {
	case OrderKindBuy:
		return l.Buy(intent.Symbol, intent.Size, fill)
	case OrderKindClose:
		_, err := l.Close(intent.Symbol, intent.Size, fill, intent.Reason)
		return err
	default:
		return l.SetTargetWeight(intent.Symbol, intent.Weight, fill, prices, intent.Reason)
	}
}

// MarkToMarket returns cash plus positions valued at prices. A position with
// no price is valued at its average cost.
func (l *Ledger) MarkToMarket(prices map[string]float64) float64 {
	value := l.cash
	for sym, pos := range l.positions {
		price, ok := prices[sym]
		if !ok {
			price = pos.AverageCost
		}
		value += pos.MarketValue(price)
	}
	return value
}

// Initial returns the starting capital.
func (l *Ledger) Initial() float64 {
	return l.initial
}

// Cash returns the cash balance. It is negative after an allowed deficiency.
func (l *Ledger) Cash() float64 {
	return l.cash
}

// Position returns a copy of the position for symbol.
func (l *Ledger) Position(symbol string) (Position, bool) {
	pos, ok := l.positions[symbol]
	if !ok {
		return Position{Symbol: symbol}, false
	}
	return *pos, true
}

// Positions returns copies of all open positions ordered by symbol.
func (l *Ledger) Positions() []Position {
	out := make([]Position, 0, len(l.positions))
	for _, pos := range l.positions {
		out = append(out, *pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Trades returns the closed-trade log.
func (l *Ledger) Trades() []TradeRecord {
	return append([]TradeRecord(nil), l.trades...)
}

// Deficiencies returns buys executed beyond available cash.
func (l *Ledger) Deficiencies() []Deficiency {
	return append([]Deficiency(nil), l.deficiencies...)
}

// RealizedPnL returns the sum of P&L over the trade log.
func (l *Ledger) RealizedPnL() float64 {
	var total float64
	for _, t := range l.trades {
		total += t.PnL
	}
	return total
}

// Reconcile returns cash + cost basis - realized P&L, which always equals
// the initial capital up to rounding.
func (l *Ledger) Reconcile() float64 {
	total := l.cash
	for _, pos := range l.positions {
		total += pos.CostBasis()
	}
	return total - l.RealizedPnL()
}
