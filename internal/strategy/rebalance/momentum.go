package rebalance

import (
	"fmt"

	"github.com/newthinker/swingbot/internal/broker"
	"github.com/newthinker/swingbot/internal/indicator"
	"github.com/newthinker/swingbot/internal/strategy"
)

// Momentum periodically allocates across the universe in proportion to the
// positive part of each instrument's trailing return. With no positive
// return it goes fully to cash.
type Momentum struct {
	lookbackDays    int
	rebalancePeriod int

	sched schedule
}

// NewMomentum creates a momentum rebalance strategy with default parameters
func NewMomentum() *Momentum {
	return &Momentum{
		lookbackDays:    5,
		rebalancePeriod: 5,
	}
}

func (m *Momentum) Name() string {
	return "rebalance"
}

func (m *Momentum) Description() string {
	return fmt.Sprintf("%d-day momentum weights, rebalanced every %d bars", m.lookbackDays, m.rebalancePeriod)
}

func (m *Momentum) returnSpec() indicator.Spec {
	return indicator.ReturnOf(indicator.SourceClose, m.lookbackDays)
}

func (m *Momentum) RequiredData() strategy.DataRequirements {
	ret := m.returnSpec()
	return strategy.DataRequirements{
		Lookback:   ret.Lookback(),
		Indicators: []indicator.Spec{ret},
		Portfolio:  true,
	}
}

func (m *Momentum) Init(cfg strategy.Config) error {
	r := cfg.Reader()
	r.Int("lookback_days", &m.lookbackDays)
	r.Int("rebalance_period", &m.rebalancePeriod)
	r.Positive("lookback_days", float64(m.lookbackDays))
	r.Positive("rebalance_period", float64(m.rebalancePeriod))
	return r.Err()
}

func (m *Momentum) Reset(symbols []string) {
	m.sched = newSchedule(m.rebalancePeriod)
}

func (m *Momentum) Decide(ctx strategy.Context) []broker.OrderIntent {
	if m.sched.period == 0 {
		m.Reset(ctx.Symbols)
	}
	if !ctx.Synchronized() {
		return nil
	}
	m.sched.tick()
	if !m.sched.due(m.lookbackDays) {
		return nil
	}

	ret := m.returnSpec()
	returns := make([]float64, len(ctx.Symbols))
	for i, sym := range ctx.Symbols {
		returns[i] = ctx.Indicator(sym, ret)
		if !indicator.Defined(returns[i]) {
			return nil
		}
	}

	weights, _ := Normalize(Scores(returns, nil))
	intents := make([]broker.OrderIntent, 0, len(ctx.Symbols))
	for i, sym := range ctx.Symbols {
		intents = append(intents, broker.TargetWeight(sym, weights[i], ctx.Snapshot(sym).Index, "rebalance"))
	}
	m.sched.done()
	return intents
}
