package regime

import (
	"fmt"
	"math"

	"github.com/newthinker/swingbot/internal/broker"
	"github.com/newthinker/swingbot/internal/indicator"
	"github.com/newthinker/swingbot/internal/strategy"
)

// Breakout trades short-term breakouts only in a bull regime (close above
// the long SMA). A close below the long SMA closes the position before any
// other check.
type Breakout struct {
	smaLong     int
	smaShort    int
	atrPeriod   int
	riskBull    float64
	maxHoldDays int

	book strategy.Book
}

// New creates a regime-aware breakout strategy with default parameters
func New() *Breakout {
	return &Breakout{
		smaLong:     200,
		smaShort:    20,
		atrPeriod:   14,
		riskBull:    0.02,
		maxHoldDays: 20,
	}
}

func (b *Breakout) Name() string {
	return "regime_breakout"
}

func (b *Breakout) Description() string {
	return fmt.Sprintf("SMA(%d)+ATR breakout gated by SMA(%d) bull regime", b.smaShort, b.smaLong)
}

func (b *Breakout) specs() (long, short, atr indicator.Spec) {
	return indicator.SMAOf(indicator.SourceClose, b.smaLong),
		indicator.SMAOf(indicator.SourceClose, b.smaShort),
		indicator.ATROf(b.atrPeriod)
}

func (b *Breakout) RequiredData() strategy.DataRequirements {
	long, short, atr := b.specs()
	return strategy.DataRequirements{
		Lookback:   strategy.MaxLookback(long, short, atr),
		Indicators: []indicator.Spec{long, short, atr},
	}
}

func (b *Breakout) Init(cfg strategy.Config) error {
	r := cfg.Reader()
	r.Int("sma_long", &b.smaLong)
	r.Int("sma_short", &b.smaShort)
	r.Int("atr_period", &b.atrPeriod)
	r.Float("risk_bull", &b.riskBull)
	r.Int("max_hold_days", &b.maxHoldDays)
	r.Positive("sma_long", float64(b.smaLong))
	r.Positive("sma_short", float64(b.smaShort))
	r.Positive("atr_period", float64(b.atrPeriod))
	r.Positive("max_hold_days", float64(b.maxHoldDays))
	return r.Err()
}

func (b *Breakout) Reset(symbols []string) {
	b.book = strategy.NewBook(symbols)
}

func (b *Breakout) Decide(ctx strategy.Context) []broker.OrderIntent {
	if b.book == nil {
		b.Reset(ctx.Symbols)
	}
	longSpec, shortSpec, atrSpec := b.specs()
	lookback := b.RequiredData().Lookback

	var intents []broker.OrderIntent
	for _, sym := range ctx.Symbols {
		snap, ok := ctx.Ready(sym, lookback)
		if !ok {
			continue
		}
		_, held := ctx.Held(sym)
		st := b.book.Begin(sym, held)

		next, intent, err := b.step(st, snap.Index, snap.Bar.Close,
			ctx.Indicator(sym, longSpec), ctx.Indicator(sym, shortSpec), ctx.Indicator(sym, atrSpec), ctx.Cash())
		b.book[sym] = next
		if err != nil {
			ctx.Skip(sym, fmt.Errorf("%s bar %d: %w", sym, snap.Index, err))
			continue
		}
		if intent != nil {
			intent.Symbol = sym
			intents = append(intents, *intent)
		}
	}
	return intents
}

func (b *Breakout) step(st strategy.PositionState, bar int, close, smaLong, smaShort, atr, cash float64) (strategy.PositionState, *broker.OrderIntent, error) {
	if !indicator.Defined(smaLong) {
		return st, nil, nil
	}
	if st.Phase == strategy.Long {
		if close < smaLong {
			intent := broker.Close("", 0, bar, "regime_exit")
			return st.Exit(), &intent, nil
		}
		if !indicator.Defined(atr) {
			return st, nil, nil
		}
		st.Peak = math.Max(st.Peak, close)

		reason := ""
		switch {
		case close < st.Peak-atr:
			reason = "trailing_stop"
		case close < st.Stop:
			reason = "stop_loss"
		case st.HeldBars(bar) >= b.maxHoldDays:
			reason = "time_stop"
		}
		if reason != "" {
			intent := broker.Close("", 0, bar, reason)
			return st.Exit(), &intent, nil
		}
		return st, nil, nil
	}

	if !indicator.Defined(smaShort) || !indicator.Defined(atr) {
		return st, nil, nil
	}
	// Entries are bull-only, so there is no bear risk budget.
	if close > smaLong && close > smaShort+atr && b.riskBull > 0 {
		size, err := broker.RiskSize(b.riskBull, cash, atr)
		if err != nil {
			return st, nil, err
		}
		intent := broker.Buy("", size, bar, "bull_breakout")
		return st.Enter(close, close-atr, bar), &intent, nil
	}
	return st, nil, nil
}
