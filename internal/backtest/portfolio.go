package backtest

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/newthinker/swingbot/internal/core"
	"github.com/newthinker/swingbot/internal/strategy"
)

// StrategyFactory builds a fresh initialized strategy for one run
type StrategyFactory func() (strategy.Strategy, error)

// Benchmark returns the buy-and-hold curve of universe with capital split
// equally. Each leg is forward-filled on the calendar union and holds its
// share in cash until its first bar.
func Benchmark(universe core.Universe, capital float64) (EquityCurve, error) {
	if err := universe.Validate(); err != nil {
		return nil, err
	}

	symbols := universe.Symbols()
	share := capital / float64(len(symbols))
	legs := make([]EquityCurve, len(symbols))
	initial := make([]float64, len(symbols))
	for i, sym := range symbols {
		bars := universe[sym].Bars
		base := bars[0].Close
		leg := make(EquityCurve, len(bars))
		for j, b := range bars {
			v := share
			if base > 0 {
				v = b.Close / base * share
			}
			leg[j] = EquityPoint{Time: b.Time, Value: v}
		}
		legs[i] = leg
		initial[i] = share
	}
	return sumCurves(legs, initial), nil
}

func sumCurves(curves []EquityCurve, initial []float64) EquityCurve {
	times, values := forwardFill(curves, initial)
	out := make(EquityCurve, len(times))
	for i, t := range times {
		var total float64
		for k := range values {
			total += values[k][i]
		}
		out[i] = EquityPoint{Time: t, Value: total}
	}
	return out
}

// RunSplit runs a single-instrument strategy once per instrument with an
// equal share of the capital and sums the legs into one portfolio result.
// Legs run concurrently; each gets its own strategy instance and ledger.
func (b *Backtester) RunSplit(ctx context.Context, factory StrategyFactory, universe core.Universe) (*Result, error) {
	if err := universe.Validate(); err != nil {
		return nil, err
	}

	started := time.Now()
	symbols := universe.Symbols()
	share := b.opts.InitialCapital / float64(len(symbols))
	legBacktester := b.withCapital(share)
	legs := make([]*Result, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	for i, sym := range symbols {
		g.Go(func() error {
			strat, err := factory()
			if err != nil {
				return err
			}
			res, err := legBacktester.Run(gctx, strat, core.Universe{sym: universe[sym]})
			if err != nil {
				return err
			}
			legs[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	curves := make([]EquityCurve, len(legs))
	initial := make([]float64, len(legs))
	res := &Result{
		ID:             uuid.New(),
		Strategy:       legs[0].Strategy,
		Symbols:        symbols,
		FillMode:       b.opts.FillMode,
		InitialCapital: b.opts.InitialCapital,
		Legs:           legs,
	}
	for i, leg := range legs {
		curves[i] = leg.Equity
		initial[i] = share
		res.Trades = append(res.Trades, leg.Trades...)
		res.OpenPositions = append(res.OpenPositions, leg.OpenPositions...)
		res.Deficiencies = append(res.Deficiencies, leg.Deficiencies...)
		res.SkippedOrders = append(res.SkippedOrders, leg.SkippedOrders...)
	}
	sort.SliceStable(res.Trades, func(i, j int) bool { return res.Trades[i].ExitTime.Before(res.Trades[j].ExitTime) })

	res.Equity = sumCurves(curves, initial)
	if len(res.Equity) > 0 {
		res.Start = res.Equity[0].Time
		res.End = res.Equity[len(res.Equity)-1].Time
	}
	res.Summary = CalculateStatsAnnualized(res.Equity, res.Trades, b.opts.TradingDays)
	res.Duration = time.Since(started)

	b.logger.Info("split backtest completed",
		zap.String("strategy", res.Strategy),
		zap.String("run_id", res.ID.String()),
		zap.Int("legs", len(legs)),
		zap.Float64("final_value", res.Summary.FinalValue),
	)
	return res, nil
}
