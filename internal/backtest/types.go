package backtest

import (
	"time"

	"github.com/google/uuid"

	"github.com/newthinker/swingbot/internal/broker"
	"github.com/newthinker/swingbot/internal/core"
)

// DefaultTradingDays annualizes daily statistics
const DefaultTradingDays = 252

// FillMode selects the price orders decided on a bar are filled at
type FillMode string

const (
	// FillClose fills at the close of the decision bar
	FillClose FillMode = "close"
	// FillNextOpen fills at the open of the instrument's next bar
	FillNextOpen FillMode = "next_open"
)

// ParseFillMode converts a config value to a FillMode
func ParseFillMode(s string) (FillMode, error) {
	switch FillMode(s) {
	case "", FillClose:
		return FillClose, nil
	case FillNextOpen:
		return FillNextOpen, nil
	}
	return "", core.Errorf(core.ErrConfigInvalid, "unknown fill mode %q", s)
}

// Recorder receives run and order outcomes
type Recorder interface {
	RecordBacktest(strategy, status string, duration time.Duration)
	RecordOrder(kind, status string)
}

// EquityPoint is the marked portfolio value at the end of one tick
type EquityPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// EquityCurve is the ordered portfolio value history of a run
type EquityCurve []EquityPoint

// Values returns the values of the curve
func (c EquityCurve) Values() []float64 {
	out := make([]float64, len(c))
	for i, p := range c {
		out[i] = p.Value
	}
	return out
}

// Last returns the final value, or 0 for an empty curve
func (c EquityCurve) Last() float64 {
	if len(c) == 0 {
		return 0
	}
	return c[len(c)-1].Value
}

// SkippedOrder is an intent that never reached the ledger or that the
// ledger refused
type SkippedOrder struct {
	Symbol   string           `json:"symbol"`
	Kind     broker.OrderKind `json:"kind,omitempty"`
	BarIndex int              `json:"bar_index"`
	Time     time.Time        `json:"time"`
	Reason   string           `json:"reason,omitempty"`
	Error    string           `json:"error"`
}

// Summary holds performance statistics. Returns are fractions.
type Summary struct {
	InitialValue     float64  `json:"initial_value"`
	FinalValue       float64  `json:"final_value"`
	TotalReturn      float64  `json:"total_return"`
	CAGR             float64  `json:"cagr"`
	AnnualVolatility float64  `json:"annual_volatility"`
	Sharpe           *float64 `json:"sharpe"`
	MaxDrawdown      float64  `json:"max_drawdown"`
	Bars             int      `json:"bars"`

	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`
	NetPnL        float64 `json:"net_pnl"`
	AvgTradePnL   float64 `json:"avg_trade_pnl"`
	BestTrade     float64 `json:"best_trade"`
	WorstTrade    float64 `json:"worst_trade"`
}

// Result holds the complete backtest output
type Result struct {
	ID             uuid.UUID            `json:"id"`
	Strategy       string               `json:"strategy"`
	Symbols        []string             `json:"symbols"`
	Params         map[string]any       `json:"params,omitempty"`
	FillMode       FillMode             `json:"fill_mode"`
	Start          time.Time            `json:"start"`
	End            time.Time            `json:"end"`
	InitialCapital float64              `json:"initial_capital"`
	Equity         EquityCurve          `json:"equity"`
	Benchmark      EquityCurve          `json:"benchmark,omitempty"`
	Trades         []broker.TradeRecord `json:"trades"`
	OpenPositions  []broker.Position    `json:"open_positions"`
	Deficiencies   []broker.Deficiency  `json:"deficiencies,omitempty"`
	SkippedOrders  []SkippedOrder       `json:"skipped_orders,omitempty"`
	Summary        Summary              `json:"summary"`
	Legs           []*Result            `json:"legs,omitempty"`
	Duration       time.Duration        `json:"duration"`
}

// BenchmarkSummary returns the statistics of the benchmark curve, if any
func (r *Result) BenchmarkSummary() (Summary, bool) {
	if len(r.Benchmark) == 0 {
		return Summary{}, false
	}
	return CalculateStats(r.Benchmark, nil), true
}
