package donchian

import (
	"testing"

	"github.com/newthinker/swingbot/internal/broker"
	"github.com/newthinker/swingbot/internal/core"
	"github.com/newthinker/swingbot/internal/strategy"
	"github.com/newthinker/swingbot/internal/strategy/strategytest"
)

func TestDonchian_ImplementsStrategy(t *testing.T) {
	var _ strategy.Strategy = (*Donchian)(nil)
}

func TestDonchian_Lookback(t *testing.T) {
	s := New()
	// Highest(high, 20, shift 1) is first defined on bar 20
	if got := s.RequiredData().Lookback; got != 20 {
		t.Errorf("expected lookback 20, got %d", got)
	}
}

func TestDonchian_BreakoutUsesPriorBars(t *testing.T) {
	s := New()
	if err := s.Init(strategy.Config{Params: map[string]any{"period": 3, "atr_period": 2, "max_hold_days": 50}}); err != nil {
		t.Fatal(err)
	}

	// flat at 10 then a spike: the spike bar breaks the prior 3-bar high
	closes := []float64{10, 10, 10, 10, 10, 12, 12.5, 13}
	u := core.Universe{"SPY": strategytest.Closes("SPY", closes...)}
	h := strategytest.New(s, u, 10000)
	steps := h.Run()

	for i := 0; i < 5; i++ {
		if len(steps[i]) != 0 {
			t.Errorf("bar %d: no breakout expected, got %+v", i, steps[i])
		}
	}
	if len(steps[5]) != 1 || steps[5][0].Kind != broker.OrderKindBuy {
		t.Fatalf("expected a buy on the spike bar, got %+v", steps[5])
	}
	if steps[5][0].Reason != "channel_breakout" {
		t.Errorf("unexpected reason %s", steps[5][0].Reason)
	}
}

func TestDonchian_NoIntentDuringWarmUp(t *testing.T) {
	s := New()
	u := core.Universe{"SPY": strategytest.Ramp("SPY", 30, 10, 1, 0.5)}
	h := strategytest.New(s, u, 10000)
	steps := h.Run()

	if first := strategytest.FirstIntent(steps); first != 20 {
		t.Errorf("expected first intent on bar 20, got %d", first)
	}
}

func TestDonchian_ExitPriority(t *testing.T) {
	s := New()
	long := strategy.PositionState{}.Enter(100, 98, 10)
	long.Pending = false

	tests := []struct {
		name   string
		bar    int
		close  float64
		lower  float64
		reason string
	}{
		{"channel exit first", 30, 90, 95, "channel_exit"},
		{"stop loss", 12, 97, 90, "stop_loss"},
		{"time stop", 30, 105, 90, "time_stop"},
		{"hold", 15, 105, 90, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, intent, err := s.step(long, tt.bar, tt.close, 120, tt.lower, 2, 10000)
			if err != nil {
				t.Fatal(err)
			}
			if tt.reason == "" {
				if intent != nil {
					t.Errorf("expected hold, got %+v", intent)
				}
				return
			}
			if intent == nil || intent.Reason != tt.reason {
				t.Errorf("expected %s, got %+v", tt.reason, intent)
			}
		})
	}
}
