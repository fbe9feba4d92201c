package rebalance

import (
	"fmt"
	"slices"

	"github.com/newthinker/swingbot/internal/broker"
	"github.com/newthinker/swingbot/internal/indicator"
	"github.com/newthinker/swingbot/internal/strategy"
)

// SafeHaven weights risky instruments by trailing return over volatility and
// parks everything in a safe asset when no risky return is positive or when
// the portfolio falls more than the stop-loss from its running peak.
// Like every portfolio strategy it acts only on synchronized ticks, so the
// drawdown check also waits for a tick where every instrument has a bar.
type SafeHaven struct {
	lookbackDays    int
	rebalancePeriod int
	volLookback     int
	stopLossPct     float64
	safeAsset       string

	sched  schedule
	peak   float64
	safe   string
	risky  []string
	active bool
}

// NewSafeHaven creates a safe-haven rebalance strategy with default parameters
func NewSafeHaven() *SafeHaven {
	return &SafeHaven{
		lookbackDays:    5,
		rebalancePeriod: 5,
		volLookback:     20,
		stopLossPct:     0.05,
		safeAsset:       "GLD",
	}
}

func (s *SafeHaven) Name() string {
	return "safe_rebalance"
}

func (s *SafeHaven) Description() string {
	return fmt.Sprintf("return/volatility weights every %d bars, %.0f%% drawdown moves to %s",
		s.rebalancePeriod, s.stopLossPct*100, s.safeAsset)
}

func (s *SafeHaven) specs() (ret, vol indicator.Spec) {
	return indicator.ReturnOf(indicator.SourceClose, s.lookbackDays),
		indicator.StdDevOf(indicator.SourceReturn, s.volLookback)
}

func (s *SafeHaven) RequiredData() strategy.DataRequirements {
	ret, vol := s.specs()
	return strategy.DataRequirements{
		Lookback:   strategy.MaxLookback(ret, vol),
		Indicators: []indicator.Spec{ret, vol},
		Portfolio:  true,
	}
}

func (s *SafeHaven) Init(cfg strategy.Config) error {
	r := cfg.Reader()
	r.Int("lookback_days", &s.lookbackDays)
	r.Int("rebalance_period", &s.rebalancePeriod)
	r.Int("vol_lookback", &s.volLookback)
	r.Float("stoploss_pct", &s.stopLossPct)
	r.String("safe_asset", &s.safeAsset)
	r.Positive("lookback_days", float64(s.lookbackDays))
	r.Positive("rebalance_period", float64(s.rebalancePeriod))
	r.AtLeast("vol_lookback", float64(s.volLookback), 2)
	r.Positive("stoploss_pct", s.stopLossPct)
	return r.Err()
}

// Reset picks the safe asset, falling back to the last symbol when the
// configured one is not in the universe.
func (s *SafeHaven) Reset(symbols []string) {
	s.sched = newSchedule(s.rebalancePeriod)
	s.peak = 0
	s.safe = ""
	s.risky = nil
	s.active = true
	if len(symbols) == 0 {
		return
	}

	s.safe = symbols[len(symbols)-1]
	if slices.Contains(symbols, s.safeAsset) {
		s.safe = s.safeAsset
	}
	for _, sym := range symbols {
		if sym != s.safe {
			s.risky = append(s.risky, sym)
		}
	}
}

// SafeAsset returns the instrument used as the haven in the current run
func (s *SafeHaven) SafeAsset() string {
	return s.safe
}

func (s *SafeHaven) Decide(ctx strategy.Context) []broker.OrderIntent {
	if !s.active {
		s.Reset(ctx.Symbols)
	}
	if !ctx.Synchronized() || s.safe == "" {
		return nil
	}
	s.sched.tick()

	value := ctx.PortfolioValue
	if value > s.peak {
		s.peak = value
	}
	if s.peak > 0 && (s.peak-value)/s.peak > s.stopLossPct {
		return s.allSafe(ctx, "drawdown_safe_haven")
	}

	if !s.sched.due(max(s.lookbackDays, s.volLookback)) {
		return nil
	}

	retSpec, volSpec := s.specs()
	returns := make([]float64, len(s.risky))
	vols := make([]float64, len(s.risky))
	for i, sym := range s.risky {
		returns[i] = ctx.Indicator(sym, retSpec)
		vols[i] = ctx.Indicator(sym, volSpec)
		if !indicator.Defined(returns[i]) || !indicator.Defined(vols[i]) {
			return nil
		}
	}

	weights, ok := Normalize(Scores(returns, vols))
	s.sched.done()
	if !ok {
		return s.allSafe(ctx, "no_positive_momentum")
	}

	intents := make([]broker.OrderIntent, 0, len(ctx.Symbols))
	for i, sym := range s.risky {
		intents = append(intents, broker.TargetWeight(sym, weights[i], ctx.Snapshot(sym).Index, "rebalance"))
	}
	intents = append(intents, broker.TargetWeight(s.safe, 0, ctx.Snapshot(s.safe).Index, "rebalance"))
	return intents
}

func (s *SafeHaven) allSafe(ctx strategy.Context, reason string) []broker.OrderIntent {
	intents := make([]broker.OrderIntent, 0, len(ctx.Symbols))
	for _, sym := range s.risky {
		intents = append(intents, broker.TargetWeight(sym, 0, ctx.Snapshot(sym).Index, reason))
	}
	return append(intents, broker.TargetWeight(s.safe, 1, ctx.Snapshot(s.safe).Index, reason))
}
