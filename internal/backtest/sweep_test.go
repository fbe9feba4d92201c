package backtest_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/swingbot/internal/backtest"
	"github.com/newthinker/swingbot/internal/core"
	"github.com/newthinker/swingbot/internal/strategy"
	"github.com/newthinker/swingbot/internal/strategy/catalog"
	"github.com/newthinker/swingbot/internal/strategy/strategytest"
)

func TestParseGrid(t *testing.T) {
	g, err := backtest.ParseGrid([]string{"ema_fast=5,10", "risk = 0.01"})
	require.NoError(t, err)
	assert.Equal(t, []any{"5", "10"}, g["ema_fast"])
	assert.Equal(t, []any{"0.01"}, g["risk"])

	for _, bad := range []string{"ema_fast", "=1,2", "risk="} {
		_, err := backtest.ParseGrid([]string{bad})
		assert.ErrorIs(t, err, core.ErrConfigInvalid, bad)
	}
}

func TestGrid_Combinations(t *testing.T) {
	g := backtest.Grid{"b": {1, 2}, "a": {"x", "y"}}
	combos := g.Combinations(map[string]any{"c": true})

	require.Len(t, combos, 4)
	assert.Equal(t, map[string]any{"a": "x", "b": 1, "c": true}, combos[0])
	assert.Equal(t, map[string]any{"a": "x", "b": 2, "c": true}, combos[1])
	assert.Equal(t, map[string]any{"a": "y", "b": 1, "c": true}, combos[2])
	assert.Equal(t, map[string]any{"a": "y", "b": 2, "c": true}, combos[3])

	assert.Len(t, backtest.Grid{}.Combinations(nil), 1, "empty grid runs the base once")
}

func TestSweep_KeepsGridOrder(t *testing.T) {
	u := core.Universe{"SPY": strategytest.Closes("SPY", rising(40)...)}
	engine := catalog.Default()
	build := func(cfg strategy.Config) (strategy.Strategy, error) { return engine.New("momentum", cfg) }

	grid := backtest.Grid{"ema_fast": {"2", "3", "bad"}}
	base := map[string]any{"ema_slow": 4, "rsi_buy": 0}

	results, err := backtest.New(backtest.DefaultOptions()).Sweep(context.Background(), build, u, base, grid, 2)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, r := range results {
		assert.Equal(t, i, r.Index)
	}
	assert.Equal(t, "2", results[0].Params["ema_fast"])
	require.NotNil(t, results[0].Result)
	assert.Equal(t, "2", results[0].Result.Params["ema_fast"])
	require.NotNil(t, results[1].Result)
	assert.Nil(t, results[2].Result)
	assert.Contains(t, results[2].Error, "CONFIG_INVALID")
}

func TestSweep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	u := core.Universe{"SPY": strategytest.Closes("SPY", rising(10)...)}
	build := func(cfg strategy.Config) (strategy.Strategy, error) { return catalog.Default().New("buy_hold", cfg) }

	_, err := backtest.New(backtest.DefaultOptions()).Sweep(ctx, build, u, nil, backtest.Grid{"x": {1, 2}}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
