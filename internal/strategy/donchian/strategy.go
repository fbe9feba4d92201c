package donchian

import (
	"fmt"

	"github.com/newthinker/swingbot/internal/broker"
	"github.com/newthinker/swingbot/internal/indicator"
	"github.com/newthinker/swingbot/internal/strategy"
)

// Donchian buys a close above the prior N-bar high and exits below the prior
// N-bar low, on a one-ATR stop, or after a maximum holding period.
type Donchian struct {
	period      int
	atrPeriod   int
	risk        float64
	maxHoldDays int

	book strategy.Book
}

// New creates a Donchian breakout strategy with default parameters
func New() *Donchian {
	return &Donchian{
		period:      20,
		atrPeriod:   14,
		risk:        0.01,
		maxHoldDays: 20,
	}
}

func (d *Donchian) Name() string {
	return "donchian"
}

func (d *Donchian) Description() string {
	return fmt.Sprintf("Donchian(%d) breakout, 1x ATR(%d) stop, %d day time stop", d.period, d.atrPeriod, d.maxHoldDays)
}

func (d *Donchian) specs() (upper, lower, atr indicator.Spec) {
	return indicator.HighestOf(indicator.SourceHigh, d.period, 1),
		indicator.LowestOf(indicator.SourceLow, d.period, 1),
		indicator.ATROf(d.atrPeriod)
}

func (d *Donchian) RequiredData() strategy.DataRequirements {
	upper, lower, atr := d.specs()
	return strategy.DataRequirements{
		Lookback:   strategy.MaxLookback(upper, lower, atr),
		Indicators: []indicator.Spec{upper, lower, atr},
	}
}

func (d *Donchian) Init(cfg strategy.Config) error {
	r := cfg.Reader()
	r.Int("period", &d.period)
	r.Int("atr_period", &d.atrPeriod)
	r.Float("risk", &d.risk)
	r.Int("max_hold_days", &d.maxHoldDays)
	r.Positive("period", float64(d.period))
	r.Positive("atr_period", float64(d.atrPeriod))
	r.Positive("risk", d.risk)
	r.Positive("max_hold_days", float64(d.maxHoldDays))
	return r.Err()
}

func (d *Donchian) Reset(symbols []string) {
	d.book = strategy.NewBook(symbols)
}

func (d *Donchian) Decide(ctx strategy.Context) []broker.OrderIntent {
	if d.book == nil {
		d.Reset(ctx.Symbols)
	}
	upperSpec, lowerSpec, atrSpec := d.specs()
	lookback := d.RequiredData().Lookback

	var intents []broker.OrderIntent
	for _, sym := range ctx.Symbols {
		snap, ok := ctx.Ready(sym, lookback)
		if !ok {
			continue
		}
		_, held := ctx.Held(sym)
		st := d.book.Begin(sym, held)

		next, intent, err := d.step(st, snap.Index, snap.Bar.Close,
			ctx.Indicator(sym, upperSpec), ctx.Indicator(sym, lowerSpec), ctx.Indicator(sym, atrSpec), ctx.Cash())
		d.book[sym] = next
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

func (d *Donchian) step(st strategy.PositionState, bar int, close, upper, lower, atr, cash float64) (strategy.PositionState, *broker.OrderIntent, error) {
	switch st.Phase {
	case strategy.Flat:
		if !indicator.Defined(upper) || !indicator.Defined(atr) {
			return st, nil, nil
		}
		if close > upper {
			size, err := broker.RiskSize(d.risk, cash, atr)
			if err != nil {
				return st, nil, err
			}
			intent := broker.Buy("", size, bar, "channel_breakout")
			return st.Enter(close, close-atr, bar), &intent, nil
		}
	case strategy.Long:
		reason := ""
		switch {
		case indicator.Defined(lower) && close < lower:
			reason = "channel_exit"
		case close < st.Stop:
			reason = "stop_loss"
		case st.HeldBars(bar) >= d.maxHoldDays:
			reason = "time_stop"
		}
		if reason != "" {
			intent := broker.Close("", 0, bar, reason)
			return st.Exit(), &intent, nil
		}
	}
	return st, nil, nil
}
