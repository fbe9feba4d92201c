package backtest

import (
	"math"

	"github.com/newthinker/swingbot/internal/broker"
	"github.com/newthinker/swingbot/internal/core"
)

// CalculateStats computes performance statistics over 252 trading days
func CalculateStats(curve EquityCurve, trades []broker.TradeRecord) Summary {
	return CalculateStatsAnnualized(curve, trades, DefaultTradingDays)
}

// CalculateStatsAnnualized computes performance statistics from the equity
// curve and the closed trades
func CalculateStatsAnnualized(curve EquityCurve, trades []broker.TradeRecord, tradingDays int) Summary {
	if tradingDays <= 0 {
		tradingDays = DefaultTradingDays
	}

	var s Summary
	if len(curve) > 0 {
		values := curve.Values()
		first, last := values[0], values[len(values)-1]
		returns := DailyReturns(values)

		s.InitialValue = first
		s.FinalValue = last
		s.Bars = len(values)
		s.TotalReturn = totalReturn(first, last)
		s.CAGR = cagr(first, last, len(values), tradingDays)
		s.AnnualVolatility = stdDev(returns) * math.Sqrt(float64(tradingDays))
		if sharpe, err := SharpeRatio(returns, tradingDays); err == nil {
			s.Sharpe = &sharpe
		}
		s.MaxDrawdown = MaxDrawdown(values)
	}

	tradeStats(&s, trades)
	return s
}

func tradeStats(s *Summary, trades []broker.TradeRecord) {
	s.TotalTrades = len(trades)
	if len(trades) == 0 {
		return
	}

	s.BestTrade, s.WorstTrade = math.Inf(-1), math.Inf(1)
	for _, t := range trades {
		if t.IsWin() {
			s.WinningTrades++
		} else {
			s.LosingTrades++
		}
		s.NetPnL += t.PnL
		s.BestTrade = math.Max(s.BestTrade, t.PnL)
		s.WorstTrade = math.Min(s.WorstTrade, t.PnL)
	}
	s.WinRate = float64(s.WinningTrades) / float64(len(trades))
	s.AvgTradePnL = s.NetPnL / float64(len(trades))
}

func totalReturn(first, last float64) float64 {
	if first <= 0 {
		return 0
	}
	return last/first - 1
}

func cagr(first, last float64, n, tradingDays int) float64 {
	if first <= 0 || n == 0 {
		return 0
	}
	ratio := last / first
	if ratio <= 0 {
		return -1
	}
	return math.Pow(ratio, float64(tradingDays)/float64(n)) - 1
}

// DailyReturns returns the simple returns between consecutive values.
// Steps from a non-positive value are skipped.
func DailyReturns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] <= 0 {
			continue
		}
		out = append(out, values[i]/values[i-1]-1)
	}
	return out
}

// SharpeRatio annualizes mean/stdev of returns with a zero risk-free rate.
// It is undefined for fewer than two returns or zero deviation.
func SharpeRatio(returns []float64, tradingDays int) (float64, error) {
	if len(returns) < 2 {
		return 0, core.Errorf(core.ErrMetricUndefined, "sharpe needs 2 returns, got %d", len(returns))
	}
	sd := stdDev(returns)
	if sd == 0 {
		return 0, core.Errorf(core.ErrMetricUndefined, "sharpe with zero deviation")
	}
	return mean(returns) / sd * math.Sqrt(float64(tradingDays)), nil
}

// MaxDrawdown returns the largest fall from a running peak as a fraction
func MaxDrawdown(values []float64) float64 {
	var maxDD, peak float64
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			maxDD = math.Max(maxDD, (peak-v)/peak)
		}
	}
	return maxDD
}

func mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v
	}
	return sum / float64(len(x))
}

// stdDev is the sample standard deviation
func stdDev(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	m := mean(x)
	var ss float64
	for _, v := range x {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(x)-1))
}
