package backtest

import (
	"context"
	"maps"
	"slices"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/newthinker/swingbot/internal/core"
	"github.com/newthinker/swingbot/internal/strategy"
)

// Grid maps a parameter name to the values to try
type Grid map[string][]any

// ParseGrid parses "key=v1,v2,v3" entries
func ParseGrid(entries []string) (Grid, error) {
	g := make(Grid, len(entries))
	for _, e := range entries {
		key, vals, ok := strings.Cut(e, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" || vals == "" {
			return nil, core.Errorf(core.ErrConfigInvalid, "grid entry %q, want key=v1,v2", e)
		}
		for _, v := range strings.Split(vals, ",") {
			g[key] = append(g[key], strings.TrimSpace(v))
		}
	}
	return g, nil
}

// Combinations expands the grid over base in a stable order: keys sorted,
// the last key varying fastest.
func (g Grid) Combinations(base map[string]any) []map[string]any {
	keys := slices.Sorted(maps.Keys(g))
	out := []map[string]any{maps.Clone(base)}
	if out[0] == nil {
		out[0] = map[string]any{}
	}
	for _, k := range keys {
		var next []map[string]any
		for _, params := range out {
			for _, v := range g[k] {
				p := maps.Clone(params)
				p[k] = v
				next = append(next, p)
			}
		}
		out = next
	}
	return out
}

// SweepResult is the outcome of one grid point
type SweepResult struct {
	Index  int            `json:"index"`
	Params map[string]any `json:"params"`
	Result *Result        `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// Sweep runs independent backtests for every grid combination, at most
// concurrency at a time. Results keep grid order. A failing combination is
// reported in its SweepResult; only cancellation aborts the sweep.
func (b *Backtester) Sweep(ctx context.Context, build func(strategy.Config) (strategy.Strategy, error), universe core.Universe, base map[string]any, grid Grid, concurrency int) ([]SweepResult, error) {
	if err := universe.Validate(); err != nil {
		return nil, err
	}

	combos := grid.Combinations(base)
	results := make([]SweepResult, len(combos))

	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, params := range combos {
		g.Go(func() error {
			results[i] = SweepResult{Index: i, Params: params}
			strat, err := build(strategy.Config{Params: params})
			if err != nil {
				results[i].Error = err.Error()
				return nil
			}
			res, err := b.Run(gctx, strat, universe)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				results[i].Error = err.Error()
				return nil
			}
			res.Params = params
			results[i].Result = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b.logger.Info("sweep completed", zap.Int("combinations", len(combos)))
	return results, nil
}
