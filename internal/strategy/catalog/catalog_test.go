package catalog

import (
	"testing"

	"github.com/newthinker/swingbot/internal/strategy"
)

func TestDefault_RegistersBuiltins(t *testing.T) {
	e := Default()
	want := []string{"buy_hold", "donchian", "enhanced_breakout", "momentum", "rebalance", "regime_breakout", "safe_rebalance"}

	got := e.Names()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %v, got %v", want, got)
			break
		}
	}
}

func TestDefault_PortfolioFlags(t *testing.T) {
	for _, info := range Default().GetAll() {
		wantPortfolio := info.Name == "rebalance" || info.Name == "safe_rebalance"
		if info.Portfolio != wantPortfolio {
			t.Errorf("%s: portfolio = %v", info.Name, info.Portfolio)
		}
		if info.Description == "" {
			t.Errorf("%s: empty description", info.Name)
		}
	}
}

func TestDefault_DefaultsInitialize(t *testing.T) {
	e := Default()
	for _, name := range e.Names() {
		if _, err := e.New(name, strategy.Config{}); err != nil {
			t.Errorf("%s: defaults rejected: %v", name, err)
		}
	}
}
