package momentum

import (
	"fmt"

	"github.com/newthinker/swingbot/internal/broker"
	"github.com/newthinker/swingbot/internal/indicator"
	"github.com/newthinker/swingbot/internal/strategy"
)

// Momentum enters on a bullish EMA crossover confirmed by RSI and exits on a
// one-ATR stop, a bearish crossover, or weak RSI.
type Momentum struct {
	fastPeriod int
	slowPeriod int
	rsiPeriod  int
	rsiBuy     float64
	rsiSell    float64
	atrPeriod  int
	risk       float64

	book strategy.Book
}

// New creates a Momentum strategy with default parameters
func New() *Momentum {
	return &Momentum{
		fastPeriod: 20,
		slowPeriod: 50,
		rsiPeriod:  14,
		rsiBuy:     55,
		rsiSell:    45,
		atrPeriod:  14,
		risk:       0.01,
	}
}

func (m *Momentum) Name() string {
	return "momentum"
}

func (m *Momentum) Description() string {
	return fmt.Sprintf("EMA(%d/%d) crossover with RSI(%d) > %.0f, 1x ATR(%d) stop",
		m.fastPeriod, m.slowPeriod, m.rsiPeriod, m.rsiBuy, m.atrPeriod)
}

func (m *Momentum) specs() (cross, rsi, atr indicator.Spec) {
	cross = indicator.CrossoverOf(
		indicator.EMAOf(indicator.SourceClose, m.fastPeriod),
		indicator.EMAOf(indicator.SourceClose, m.slowPeriod),
	)
	return cross, indicator.RSIOf(indicator.SourceClose, m.rsiPeriod), indicator.ATROf(m.atrPeriod)
}

func (m *Momentum) RequiredData() strategy.DataRequirements {
	cross, rsi, atr := m.specs()
	return strategy.DataRequirements{
		Lookback:   strategy.MaxLookback(cross, rsi, atr),
		Indicators: []indicator.Spec{cross, rsi, atr},
	}
}

func (m *Momentum) Init(cfg strategy.Config) error {
	r := cfg.Reader()
	r.Int("ema_fast", &m.fastPeriod)
	r.Int("ema_slow", &m.slowPeriod)
	r.Int("rsi_period", &m.rsiPeriod)
	r.Float("rsi_buy", &m.rsiBuy)
	r.Float("rsi_sell", &m.rsiSell)
	r.Int("atr_period", &m.atrPeriod)
	r.Float("risk", &m.risk)
	r.Positive("ema_fast", float64(m.fastPeriod))
	r.Positive("ema_slow", float64(m.slowPeriod))
	r.Positive("rsi_period", float64(m.rsiPeriod))
	r.Positive("atr_period", float64(m.atrPeriod))
	r.Positive("risk", m.risk)
	return r.Err()
}

func (m *Momentum) Reset(symbols []string) {
	m.book = strategy.NewBook(symbols)
}

func (m *Momentum) Decide(ctx strategy.Context) []broker.OrderIntent {
	if m.book == nil {
		m.Reset(ctx.Symbols)
	}
	crossSpec, rsiSpec, atrSpec := m.specs()
	lookback := m.RequiredData().Lookback

	var intents []broker.OrderIntent
	for _, sym := range ctx.Symbols {
		snap := ctx.Snapshot(sym)
		if !snap.HasBar {
			continue
		}
		_, held := ctx.Held(sym)
		st := m.book.Begin(sym, held)

		in := inputs{
			bar:   snap.Index,
			ready: snap.Index >= lookback,
			close: snap.Bar.Close,
			cross: ctx.Indicator(sym, crossSpec),
			rsi:   ctx.Indicator(sym, rsiSpec),
			atr:   ctx.Indicator(sym, atrSpec),
			cash:  ctx.Cash(),
		}
		next, intent, err := m.step(st, in)
		m.book[sym] = next
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

type inputs struct {
	bar   int
	ready bool
	close float64
	cross float64
	rsi   float64
	atr   float64
	cash  float64
}

// step advances one instrument by one bar. A crossover seen during warm-up
// is carried to the first actionable bar unless a later crossover replaced
// it.
func (m *Momentum) step(st strategy.PositionState, in inputs) (strategy.PositionState, *broker.OrderIntent, error) {
	if !in.ready {
		if in.cross != 0 && indicator.Defined(in.cross) {
			st.Carry = in.cross
		}
		return st, nil, nil
	}

	signal := in.cross
	if st.Carry != 0 {
		if signal == 0 {
			signal = st.Carry
		}
		st.Carry = 0
	}

	if !indicator.Defined(in.rsi) || !indicator.Defined(in.atr) {
		return st, nil, nil
	}

	switch st.Phase {
	case strategy.Flat:
		if signal > 0 && in.rsi > m.rsiBuy {
			size, err := broker.RiskSize(m.risk, in.cash, in.atr)
			if err != nil {
				return st, nil, err
			}
			intent := broker.Buy("", size, in.bar, "crossover")
			return st.Enter(in.close, in.close-in.atr, in.bar), &intent, nil
		}
	case strategy.Long:
		reason := ""
		switch {
		case in.close < st.Stop:
			reason = "stop_loss"
		case signal < 0:
			reason = "bearish_crossover"
		case in.rsi < m.rsiSell:
			reason = "rsi_exit"
		}
		if reason != "" {
			intent := broker.Close("", 0, in.bar, reason)
			return st.Exit(), &intent, nil
		}
	}
	return st, nil, nil
}
