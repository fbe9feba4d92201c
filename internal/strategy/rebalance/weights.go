package rebalance

import "math"

// minVolatility floors a volatility estimate so a flat instrument cannot
// divide by zero.
const minVolatility = 1e-6

// Scores returns max(r, 0) / max(vol, minVolatility) per instrument. A nil
// vols slice weights by momentum alone.
func Scores(returns, vols []float64) []float64 {
	out := make([]float64, len(returns))
	for i, r := range returns {
		s := math.Max(r, 0)
		if vols != nil {
			v := vols[i]
			if !(v > 0) {
				v = minVolatility
			}
			s /= v
		}
		out[i] = s
	}
	return out
}

// Normalize scales non-negative scores to sum to 1. It reports false when
// no score is positive.
func Normalize(scores []float64) ([]float64, bool) {
	var total float64
	for _, s := range scores {
		total += math.Max(s, 0)
	}
	out := make([]float64, len(scores))
	if total <= 0 {
		return out, false
	}
	for i, s := range scores {
		out[i] = math.Max(s, 0) / total
	}
	return out, true
}

// schedule tracks synchronized ticks and the last rebalance
type schedule struct {
	period int
	seen   int
	last   int
}

func newSchedule(period int) schedule {
	return schedule{period: period}
}

// tick counts a synchronized tick
func (s *schedule) tick() {
	s.seen++
}

// due reports whether a rebalance is due once warm > the warm-up count
func (s *schedule) due(warm int) bool {
	if s.seen <= max(warm, 1) {
		return false
	}
	return s.last == 0 || s.seen >= s.last+s.period
}

// done marks a rebalance on the current tick
func (s *schedule) done() {
	s.last = s.seen
}
