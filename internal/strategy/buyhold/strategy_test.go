package buyhold

import (
	"math"
	"testing"

	"github.com/newthinker/swingbot/internal/broker"
	"github.com/newthinker/swingbot/internal/core"
	"github.com/newthinker/swingbot/internal/strategy"
	"github.com/newthinker/swingbot/internal/strategy/strategytest"
)

func TestBuyHold_ImplementsStrategy(t *testing.T) {
	var _ strategy.Strategy = (*BuyHold)(nil)
}

func TestBuyHold_SplitsCashOnFirstBar(t *testing.T) {
	u := core.Universe{
		"SPY": strategytest.Closes("SPY", 100, 110, 120),
		"QQQ": strategytest.Closes("QQQ", 50, 40, 45),
	}
	h := strategytest.New(New(), u, 10000)
	steps := h.Run()

	if len(steps[0]) != 2 {
		t.Fatalf("expected two buys on the first bar, got %+v", steps[0])
	}
	if len(steps[1]) != 0 || len(steps[2]) != 0 {
		t.Error("buy and hold never trades again")
	}

	spy, _ := h.Ledger.Position("SPY")
	qqq, _ := h.Ledger.Position("QQQ")
	if math.Abs(spy.Size-50) > 1e-9 || math.Abs(qqq.Size-100) > 1e-9 {
		t.Errorf("unexpected sizes SPY=%f QQQ=%f", spy.Size, qqq.Size)
	}
	if math.Abs(h.Ledger.Cash()) > 1e-9 {
		t.Errorf("expected all cash spent, got %f", h.Ledger.Cash())
	}
}

func TestBuyHold_LateStarter(t *testing.T) {
	s := New()
	ctx := strategy.Context{
		Symbols: []string{"AAA", "BBB"},
		Bars: map[string]strategy.Snapshot{
			"AAA": {Bar: core.Bar{Close: 10}, Index: 0, HasBar: true},
			"BBB": {Index: -1},
		},
		Portfolio: broker.NewLedger(1000, broker.CashPolicyAllow),
	}
	s.Reset(ctx.Symbols)

	got := s.Decide(ctx)
	if len(got) != 1 || got[0].Symbol != "AAA" {
		t.Fatalf("expected only AAA, got %+v", got)
	}
	// half the cash is kept for BBB
	if got[0].Size != 50 {
		t.Errorf("expected 50 units, got %f", got[0].Size)
	}
}
