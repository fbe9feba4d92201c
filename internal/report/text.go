package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/newthinker/swingbot/internal/backtest"
)

// Percent renders a fraction as a percentage with two decimals
func Percent(v float64) string {
	return decimal.NewFromFloat(v).Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
}

// Ratio renders an optional ratio, "n/a" when undefined
func Ratio(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return decimal.NewFromFloat(*v).StringFixed(2)
}

// Text writes a human-readable summary of res
func Text(w io.Writer, res *backtest.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	s := res.Summary

	fmt.Fprintf(tw, "Run:\t%s\n", res.ID)
	fmt.Fprintf(tw, "Strategy:\t%s\n", res.Strategy)
	fmt.Fprintf(tw, "Symbols:\t%s\n", strings.Join(res.Symbols, ", "))
	fmt.Fprintf(tw, "Period:\t%s to %s (%d bars)\n", res.Start.Format(time.DateOnly), res.End.Format(time.DateOnly), s.Bars)
	fmt.Fprintf(tw, "Fill mode:\t%s\n", res.FillMode)
	if len(res.Legs) > 0 {
		fmt.Fprintf(tw, "Legs:\t%d\n", len(res.Legs))
	}
	fmt.Fprintln(tw)

	fmt.Fprintf(tw, "Initial capital:\t%s\n", money(res.InitialCapital))
	fmt.Fprintf(tw, "Final value:\t%s\n", money(s.FinalValue))
	fmt.Fprintf(tw, "Total return:\t%s\n", Percent(s.TotalReturn))
	fmt.Fprintf(tw, "CAGR:\t%s\n", Percent(s.CAGR))
	fmt.Fprintf(tw, "Volatility:\t%s\n", Percent(s.AnnualVolatility))
	fmt.Fprintf(tw, "Sharpe:\t%s\n", Ratio(s.Sharpe))
	fmt.Fprintf(tw, "Max drawdown:\t%s\n", Percent(s.MaxDrawdown))
	if b, ok := res.BenchmarkSummary(); ok {
		fmt.Fprintf(tw, "Benchmark return:\t%s\n", Percent(b.TotalReturn))
		fmt.Fprintf(tw, "Benchmark Sharpe:\t%s\n", Ratio(b.Sharpe))
		fmt.Fprintf(tw, "Benchmark drawdown:\t%s\n", Percent(b.MaxDrawdown))
	}
	fmt.Fprintln(tw)

	fmt.Fprintf(tw, "Trades:\t%d (%d won, %d lost)\n", s.TotalTrades, s.WinningTrades, s.LosingTrades)
	fmt.Fprintf(tw, "Win rate:\t%s\n", Percent(s.WinRate))
	fmt.Fprintf(tw, "Net P&L:\t%s\n", money(s.NetPnL))
	fmt.Fprintf(tw, "Open positions:\t%d\n", len(res.OpenPositions))
	if len(res.Deficiencies) > 0 {
		fmt.Fprintf(tw, "Cash deficiencies:\t%d\n", len(res.Deficiencies))
	}
	if len(res.SkippedOrders) > 0 {
		fmt.Fprintf(tw, "Skipped orders:\t%d\n", len(res.SkippedOrders))
	}
	return tw.Flush()
}

// SweepTable writes one row per grid point
func SweepTable(w io.Writer, results []backtest.SweepResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tparams\treturn\tsharpe\tmax dd\ttrades\terror")
	for _, r := range results {
		params := formatParams(r.Params)
		if r.Result == nil {
			fmt.Fprintf(tw, "%d\t%s\t-\t-\t-\t-\t%s\n", r.Index, params, r.Error)
			continue
		}
		s := r.Result.Summary
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t\n",
			r.Index, params, Percent(s.TotalReturn), Ratio(s.Sharpe), Percent(s.MaxDrawdown), s.TotalTrades)
	}
	return tw.Flush()
}

func formatParams(params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, params[k])
	}
	return strings.Join(parts, " ")
}
