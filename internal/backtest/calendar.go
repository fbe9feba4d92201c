package backtest

import (
	"math"
	"sort"
	"time"

	"github.com/newthinker/swingbot/internal/core"
	"github.com/newthinker/swingbot/internal/strategy"
)

// calendar walks the union of all bar timestamps of a universe
type calendar struct {
	times   []time.Time
	symbols []string
	series  core.Universe

	next  map[string]int
	last  map[string]float64
	ticks int
}

func newCalendar(u core.Universe) *calendar {
	seen := make(map[int64]time.Time)
	for _, s := range u {
		for _, b := range s.Bars {
			seen[b.Time.UnixNano()] = b.Time
		}
	}
	times := make([]time.Time, 0, len(seen))
	for _, t := range seen {
		times = append(times, t)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	symbols := u.Symbols()
	c := &calendar{
		times:   times,
		symbols: symbols,
		series:  u,
		next:    make(map[string]int, len(symbols)),
		last:    make(map[string]float64, len(symbols)),
	}
	for _, sym := range symbols {
		c.last[sym] = math.NaN()
	}
	return c
}

// Len returns the number of ticks
func (c *calendar) Len() int {
	return len(c.times)
}

// advance moves to tick and returns the snapshot of every instrument
func (c *calendar) advance(tick int) map[string]strategy.Snapshot {
	t := c.times[tick]
	out := make(map[string]strategy.Snapshot, len(c.symbols))
	for _, sym := range c.symbols {
		bars := c.series[sym].Bars
		i := c.next[sym]
		if i < len(bars) && bars[i].Time.Equal(t) {
			c.last[sym] = bars[i].Close
			c.next[sym] = i + 1
			out[sym] = strategy.Snapshot{Bar: bars[i], Index: i, HasBar: true, LastClose: bars[i].Close}
			continue
		}
		out[sym] = strategy.Snapshot{Index: i - 1, LastClose: c.last[sym]}
	}
	c.ticks = tick + 1
	return out
}

// prices returns the forward-filled closes of instruments seen so far
func (c *calendar) prices() map[string]float64 {
	out := make(map[string]float64, len(c.symbols))
	for _, sym := range c.symbols {
		if v := c.last[sym]; !math.IsNaN(v) {
			out[sym] = v
		}
	}
	return out
}

// forwardFill aligns curves to the union of their timestamps. Before its
// first point a curve contributes its initial value.
func forwardFill(curves []EquityCurve, initial []float64) ([]time.Time, [][]float64) {
	seen := make(map[int64]time.Time)
	for _, c := range curves {
		for _, p := range c {
			seen[p.Time.UnixNano()] = p.Time
		}
	}
	times := make([]time.Time, 0, len(seen))
	for _, t := range seen {
		times = append(times, t)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	out := make([][]float64, len(curves))
	for k, c := range curves {
		vals := make([]float64, len(times))
		cur, j := initial[k], 0
		for i, t := range times {
			for j < len(c) && !c[j].Time.After(t) {
				cur = c[j].Value
				j++
			}
			vals[i] = cur
		}
		out[k] = vals
	}
	return times, out
}
