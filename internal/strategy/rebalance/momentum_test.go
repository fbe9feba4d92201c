package rebalance

import (
	"math"
	"testing"

	"github.com/newthinker/swingbot/internal/broker"
	"github.com/newthinker/swingbot/internal/core"
	"github.com/newthinker/swingbot/internal/strategy"
	"github.com/newthinker/swingbot/internal/strategy/strategytest"
)

func TestMomentum_ImplementsStrategy(t *testing.T) {
	var _ strategy.Strategy = (*Momentum)(nil)
	if !NewMomentum().RequiredData().Portfolio {
		t.Error("rebalance is a portfolio strategy")
	}
}

func TestMomentum_WeightsFollowReturns(t *testing.T) {
	s := NewMomentum()
	_ = s.Init(strategy.Config{Params: map[string]any{"lookback_days": 2, "rebalance_period": 3}})

	u := core.Universe{
		"AAA": strategytest.Closes("AAA", 100, 100, 100, 102, 104, 106, 108, 110),
		"BBB": strategytest.Closes("BBB", 100, 100, 100, 100, 100, 100, 100, 100),
		"CCC": strategytest.Closes("CCC", 100, 100, 100, 99, 98, 97, 96, 95),
	}
	h := strategytest.New(s, u, 30000)
	steps := h.Run()

	// warm-up: first rebalance on the third synchronized tick (index 2)
	for i := 0; i < 2; i++ {
		if len(steps[i]) != 0 {
			t.Errorf("bar %d: unexpected intents", i)
		}
	}
	if len(steps[2]) != 3 {
		t.Fatalf("expected a rebalance on bar 2, got %+v", steps[2])
	}
	for _, in := range steps[2] {
		if in.Kind != broker.OrderKindTargetWeight || in.Weight != 0 {
			t.Errorf("flat returns should go to cash, got %+v", in)
		}
	}

	// next rebalance three ticks later
	if len(steps[3]) != 0 || len(steps[4]) != 0 {
		t.Error("no rebalance between periods")
	}
	weights := map[string]float64{}
	for _, in := range steps[5] {
		weights[in.Symbol] = in.Weight
	}
	if math.Abs(weights["AAA"]-1) > 1e-12 || weights["BBB"] != 0 || weights["CCC"] != 0 {
		t.Errorf("unexpected weights %v", weights)
	}
	if pos, ok := h.Ledger.Position("AAA"); !ok || pos.Size <= 0 {
		t.Error("expected AAA to be held after the rebalance")
	}
}

func TestMomentum_SkipsUnsynchronizedTicks(t *testing.T) {
	s := NewMomentum()
	ctx := strategy.Context{
		Symbols: []string{"AAA", "BBB"},
		Bars: map[string]strategy.Snapshot{
			"AAA": {Index: 10, HasBar: true},
			"BBB": {Index: 9, HasBar: false},
		},
	}
	s.Reset(ctx.Symbols)
	for i := 0; i < 20; i++ {
		if got := s.Decide(ctx); got != nil {
			t.Fatalf("expected no intents on unsynchronized ticks, got %+v", got)
		}
	}
}
