package strategy

import (
	"errors"
	"testing"

	"github.com/newthinker/swingbot/internal/broker"
	"github.com/newthinker/swingbot/internal/core"
	"github.com/newthinker/swingbot/internal/indicator"
)

type mockStrategy struct {
	name   string
	period int
	resets int
}

func (m *mockStrategy) Name() string        { return m.name }
func (m *mockStrategy) Description() string { return "mock strategy" }
func (m *mockStrategy) RequiredData() DataRequirements {
	return DataRequirements{Lookback: m.period, Indicators: []indicator.Spec{indicator.SMAOf(indicator.SourceClose, m.period)}}
}
func (m *mockStrategy) Init(cfg Config) error {
	r := cfg.Reader()
	r.Int("period", &m.period)
	r.Positive("period", float64(m.period))
	return r.Err()
}
func (m *mockStrategy) Reset(symbols []string)                  { m.resets++ }
func (m *mockStrategy) Decide(ctx Context) []broker.OrderIntent { return nil }

func TestEngine_RegisterAndNew(t *testing.T) {
	engine := NewEngine()
	engine.Register(func() Strategy { return &mockStrategy{name: "mock", period: 5} })

	s, err := engine.New("mock", Config{Params: map[string]any{"period": "8"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.(*mockStrategy).period; got != 8 {
		t.Errorf("expected period 8, got %d", got)
	}

	// instances are independent
	s2, _ := engine.New("mock", Config{})
	if s2 == s {
		t.Error("expected a fresh instance per call")
	}
	if got := s2.(*mockStrategy).period; got != 5 {
		t.Errorf("expected default period 5, got %d", got)
	}
}

func TestEngine_NewUnknown(t *testing.T) {
	engine := NewEngine()
	_, err := engine.New("missing", Config{})
	if !errors.Is(err, core.ErrStrategyNotFound) {
		t.Errorf("expected STRATEGY_NOT_FOUND, got %v", err)
	}
	if _, err := engine.Factory("missing", Config{}); !errors.Is(err, core.ErrStrategyNotFound) {
		t.Errorf("expected STRATEGY_NOT_FOUND from Factory, got %v", err)
	}
}

func TestEngine_NewInvalidParams(t *testing.T) {
	engine := NewEngine()
	engine.Register(func() Strategy { return &mockStrategy{name: "mock", period: 5} })

	_, err := engine.New("mock", Config{Params: map[string]any{"period": 0}})
	if !errors.Is(err, core.ErrConfigInvalid) {
		t.Errorf("expected CONFIG_INVALID, got %v", err)
	}
	_, err = engine.New("mock", Config{Params: map[string]any{"period": "abc"}})
	if !errors.Is(err, core.ErrConfigInvalid) {
		t.Errorf("expected CONFIG_INVALID for non-numeric, got %v", err)
	}
}

func TestEngine_GetAll(t *testing.T) {
	engine := NewEngine()
	engine.Register(func() Strategy { return &mockStrategy{name: "b", period: 3} })
	engine.Register(func() Strategy { return &mockStrategy{name: "a", period: 4} })

	all := engine.GetAll()
	if len(all) != 2 {
		t.Fatalf("expected 2 strategies, got %d", len(all))
	}
	if all[0].Name != "a" || all[1].Name != "b" {
		t.Errorf("expected sorted names, got %s, %s", all[0].Name, all[1].Name)
	}
	if all[0].Lookback != 4 {
		t.Errorf("expected lookback 4, got %d", all[0].Lookback)
	}
}

func TestEngine_Factory(t *testing.T) {
	engine := NewEngine()
	engine.Register(func() Strategy { return &mockStrategy{name: "mock", period: 5} })

	f, err := engine.Factory("mock", Config{Params: map[string]any{"period": 9}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, _ := f()
	b, _ := f()
	if a == b {
		t.Error("factory should build fresh instances")
	}
	if a.(*mockStrategy).period != 9 {
		t.Errorf("expected period 9, got %d", a.(*mockStrategy).period)
	}
}
