package enhanced

import (
	"fmt"
	"math"

	"github.com/newthinker/swingbot/internal/broker"
	"github.com/newthinker/swingbot/internal/indicator"
	"github.com/newthinker/swingbot/internal/strategy"
)

// Breakout enters strong-trend, high-volume closes above an ATR band and
// exits in stages: a partial take-profit, a full take-profit, a trailing
// stop off the highest high since entry, the initial stop, then a time stop.
type Breakout struct {
	smaPeriod     int
	atrPeriod     int
	adxPeriod     int
	volPeriod     int
	volMultiplier float64
	trendADX      float64
	bandATR       float64
	tp1ATR        float64
	tp2ATR        float64
	risk          float64
	maxHoldDays   int

	book strategy.Book
}

// New creates an enhanced breakout strategy with default parameters
func New() *Breakout {
	return &Breakout{
		smaPeriod:     20,
		atrPeriod:     14,
		adxPeriod:     14,
		volPeriod:     20,
		volMultiplier: 1.5,
		trendADX:      25,
		bandATR:       2.0,
		tp1ATR:        1.0,
		tp2ATR:        2.0,
		risk:          0.01,
		maxHoldDays:   20,
	}
}

func (b *Breakout) Name() string {
	return "enhanced_breakout"
}

func (b *Breakout) Description() string {
	return fmt.Sprintf("SMA(%d)+%.1fxATR breakout with ADX > %.0f and volume > %.1fx average, staged exits",
		b.smaPeriod, b.bandATR, b.trendADX, b.volMultiplier)
}

type specs struct {
	sma, atr, adx, vol indicator.Spec
}

func (b *Breakout) specs() specs {
	return specs{
		sma: indicator.SMAOf(indicator.SourceClose, b.smaPeriod),
		atr: indicator.ATROf(b.atrPeriod),
		adx: indicator.ADXOf(b.adxPeriod),
		vol: indicator.SMAOf(indicator.SourceVolume, b.volPeriod),
	}
}

func (b *Breakout) RequiredData() strategy.DataRequirements {
	s := b.specs()
	return strategy.DataRequirements{
		Lookback:   strategy.MaxLookback(s.sma, s.atr, s.adx, s.vol),
		Indicators: []indicator.Spec{s.sma, s.atr, s.adx, s.vol},
	}
}

func (b *Breakout) Init(cfg strategy.Config) error {
	r := cfg.Reader()
	r.Int("sma_period", &b.smaPeriod)
	r.Int("atr_period", &b.atrPeriod)
	r.Int("adx_period", &b.adxPeriod)
	r.Int("vol_period", &b.volPeriod)
	r.Float("vol_multiplier", &b.volMultiplier)
	r.Float("trend_adx", &b.trendADX)
	r.Float("band_atr", &b.bandATR)
	r.Float("tp1_atr", &b.tp1ATR)
	r.Float("tp2_atr", &b.tp2ATR)
	r.Float("risk", &b.risk)
	r.Int("max_hold_days", &b.maxHoldDays)
	r.Positive("sma_period", float64(b.smaPeriod))
	r.Positive("atr_period", float64(b.atrPeriod))
	r.Positive("adx_period", float64(b.adxPeriod))
	r.Positive("vol_period", float64(b.volPeriod))
	r.Positive("tp1_atr", b.tp1ATR)
	r.Positive("tp2_atr", b.tp2ATR)
	r.Positive("risk", b.risk)
	r.Positive("max_hold_days", float64(b.maxHoldDays))
	return r.Err()
}

func (b *Breakout) Reset(symbols []string) {
	b.book = strategy.NewBook(symbols)
}

type inputs struct {
	bar    int
	cur    barValues
	sma    float64
	atr    float64
	adx    float64
	volSMA float64
	cash   float64
	size   float64 // current position size
}

type barValues struct {
	close  float64
	high   float64
	volume float64
}

func (b *Breakout) Decide(ctx strategy.Context) []broker.OrderIntent {
	if b.book == nil {
		b.Reset(ctx.Symbols)
	}
	s := b.specs()
	lookback := b.RequiredData().Lookback

	var intents []broker.OrderIntent
	for _, sym := range ctx.Symbols {
		snap, ok := ctx.Ready(sym, lookback)
		if !ok {
			continue
		}
		pos, held := ctx.Held(sym)
		st := b.book.Begin(sym, held)

		in := inputs{
			bar:    snap.Index,
			cur:    barValues{close: snap.Bar.Close, high: snap.Bar.High, volume: snap.Bar.Volume},
			sma:    ctx.Indicator(sym, s.sma),
			atr:    ctx.Indicator(sym, s.atr),
			adx:    ctx.Indicator(sym, s.adx),
			volSMA: ctx.Indicator(sym, s.vol),
			cash:   ctx.Cash(),
			size:   pos.Size,
		}
		next, intent, err := b.step(st, in)
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

// step checks exits in priority order; the first match wins.
func (b *Breakout) step(st strategy.PositionState, in inputs) (strategy.PositionState, *broker.OrderIntent, error) {
	if !indicator.Defined(in.atr) {
		return st, nil, nil
	}
	close := in.cur.close

	switch st.Phase {
	case strategy.Flat:
		if !indicator.Defined(in.sma) || !indicator.Defined(in.adx) || !indicator.Defined(in.volSMA) {
			return st, nil, nil
		}
		if in.adx > b.trendADX && in.cur.volume > b.volMultiplier*in.volSMA && close > in.sma+b.bandATR*in.atr {
			size, err := broker.RiskSize(b.risk, in.cash, in.atr)
			if err != nil {
				return st, nil, err
			}
			intent := broker.Buy("", size, in.bar, "trend_breakout")
			next := st.Enter(close, close-in.atr, in.bar)
			next.Peak = in.cur.high
			return next, &intent, nil
		}

	case strategy.Long:
		st.Peak = math.Max(st.Peak, in.cur.high)

		if !st.Scaled && close >= st.EntryPrice+b.tp1ATR*in.atr && in.size > 0 {
			st.Scaled = true
			st.Pending = true
			intent := broker.Close("", in.size*0.5, in.bar, "take_profit_1")
			return st, &intent, nil
		}

		reason := ""
		switch {
		case close >= st.EntryPrice+b.tp2ATR*in.atr:
			reason = "take_profit_2"
		case close < st.Peak-in.atr:
			reason = "trailing_stop"
		case close < st.Stop:
			reason = "stop_loss"
		case st.HeldBars(in.bar) >= b.maxHoldDays:
			reason = "time_stop"
		}
		if reason != "" {
			intent := broker.Close("", 0, in.bar, reason)
			return st.Exit(), &intent, nil
		}
	}
	return st, nil, nil
}
