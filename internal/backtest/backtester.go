package backtest

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/newthinker/swingbot/internal/broker"
	"github.com/newthinker/swingbot/internal/core"
	"github.com/newthinker/swingbot/internal/indicator"
	"github.com/newthinker/swingbot/internal/strategy"
)

// Options configures a Backtester
type Options struct {
	InitialCapital float64
	FillMode       FillMode
	CashPolicy     broker.CashPolicy
	TradingDays    int
}

// DefaultOptions returns 100 000 of capital, close fills and the allow
// cash policy
func DefaultOptions() Options {
	return Options{
		InitialCapital: 100000,
		FillMode:       FillClose,
		CashPolicy:     broker.CashPolicyAllow,
		TradingDays:    DefaultTradingDays,
	}
}

// Validate checks the options
func (o Options) Validate() error {
	if math.IsNaN(o.InitialCapital) || math.IsInf(o.InitialCapital, 0) || o.InitialCapital <= 0 {
		return core.Errorf(core.ErrConfigInvalid, "initial capital %v must be positive", o.InitialCapital)
	}
	if _, err := ParseFillMode(string(o.FillMode)); err != nil {
		return err
	}
	if _, err := broker.ParseCashPolicy(string(o.CashPolicy)); err != nil {
		return err
	}
	if o.TradingDays < 0 {
		return core.Errorf(core.ErrConfigInvalid, "trading days %d", o.TradingDays)
	}
	return nil
}

// Backtester replays a universe through a strategy bar by bar
type Backtester struct {
	opts     Options
	logger   *zap.Logger
	recorder Recorder
}

// New creates a new Backtester
func New(opts Options, logger ...*zap.Logger) *Backtester {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	if opts.FillMode == "" {
		opts.FillMode = FillClose
	}
	if opts.CashPolicy == "" {
		opts.CashPolicy = broker.CashPolicyAllow
	}
	if opts.TradingDays == 0 {
		opts.TradingDays = DefaultTradingDays
	}
	return &Backtester{opts: opts, logger: l}
}

// SetRecorder attaches a metrics recorder
func (b *Backtester) SetRecorder(r Recorder) {
	b.recorder = r
}

// Options returns the effective options
func (b *Backtester) Options() Options {
	return b.opts
}

// withCapital returns a copy that starts with capital
func (b *Backtester) withCapital(capital float64) *Backtester {
	c := *b
	c.opts.InitialCapital = capital
	return &c
}

// run is the mutable state of one Run call
type run struct {
	b      *Backtester
	strat  strategy.Strategy
	cal    *calendar
	ledger *broker.Ledger
	set    *indicator.Set
	logger *zap.Logger

	queued  []broker.OrderIntent
	skipped []SkippedOrder
}

// Run executes a backtest of strat over universe
func (b *Backtester) Run(ctx context.Context, strat strategy.Strategy, universe core.Universe) (*Result, error) {
	started := time.Now()
	res, err := b.run(ctx, strat, universe)

	status := "success"
	if err != nil {
		status = "error"
	}
	if b.recorder != nil {
		b.recorder.RecordBacktest(strat.Name(), status, time.Since(started))
	}
	if err != nil {
		return nil, err
	}
	res.Duration = time.Since(started)
	return res, nil
}

func (b *Backtester) run(ctx context.Context, strat strategy.Strategy, universe core.Universe) (*Result, error) {
	if err := b.opts.Validate(); err != nil {
		return nil, err
	}
	if err := universe.Validate(); err != nil {
		return nil, err
	}

	req := strat.RequiredData()
	for _, spec := range req.Indicators {
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("strategy %s: %w", strat.Name(), err)
		}
	}

	id := uuid.New()
	symbols := universe.Symbols()
	r := &run{
		b:      b,
		strat:  strat,
		cal:    newCalendar(universe),
		ledger: broker.NewLedger(b.opts.InitialCapital, b.opts.CashPolicy),
		set:    indicator.NewSet(universe, req.Indicators),
		logger: b.logger.With(zap.String("strategy", strat.Name()), zap.String("run_id", id.String())),
	}
	strat.Reset(symbols)

	r.logger.Info("backtest started",
		zap.Strings("symbols", symbols),
		zap.Int("ticks", r.cal.Len()),
		zap.String("fill_mode", string(b.opts.FillMode)),
	)

	curve := make(EquityCurve, 0, r.cal.Len())
	for tick := 0; tick < r.cal.Len(); tick++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		value, err := r.step(tick)
		if err != nil {
			return nil, err
		}
		curve = append(curve, EquityPoint{Time: r.cal.times[tick], Value: value})
	}
	for _, in := range r.queued {
		r.logger.Debug("intent unfilled at end of data",
			zap.String("symbol", in.Symbol),
			zap.String("kind", string(in.Kind)),
		)
	}

	res := &Result{
		ID:             id,
		Strategy:       strat.Name(),
		Symbols:        symbols,
		FillMode:       b.opts.FillMode,
		InitialCapital: b.opts.InitialCapital,
		Equity:         curve,
		Trades:         r.ledger.Trades(),
		OpenPositions:  r.ledger.Positions(),
		Deficiencies:   r.ledger.Deficiencies(),
		SkippedOrders:  r.skipped,
	}
	if len(curve) > 0 {
		res.Start = curve[0].Time
		res.End = curve[len(curve)-1].Time
	}
	res.Summary = CalculateStatsAnnualized(curve, res.Trades, b.opts.TradingDays)

	r.logger.Info("backtest completed",
		zap.Float64("final_value", res.Summary.FinalValue),
		zap.Int("trades", res.Summary.TotalTrades),
		zap.Int("skipped_orders", len(r.skipped)),
		zap.Int("deficiencies", len(res.Deficiencies)),
	)
	return res, nil
}

// step processes one tick and returns the marked portfolio value
func (r *run) step(tick int) (float64, error) {
	t := r.cal.times[tick]
	snaps := r.cal.advance(tick)

	if len(r.queued) > 0 {
		queued := r.queued
		r.queued = nil
		prices := r.cal.prices()
		for sym, s := range snaps {
			if s.HasBar {
				prices[sym] = s.Bar.Open
			}
		}
		r.execute(queued, snaps, prices, t, func(s strategy.Snapshot) float64 { return s.Bar.Open })
	}

	prices := r.cal.prices()
	value := r.ledger.MarkToMarket(prices)
	ctx := strategy.Context{
		Tick:           tick,
		Time:           t,
		Symbols:        r.cal.symbols,
		Bars:           snaps,
		Indicators:     r.set,
		Portfolio:      r.ledger,
		PortfolioValue: value,
		OnSkip: func(symbol string, err error) {
			r.skip(broker.OrderIntent{Symbol: symbol, BarIndex: snaps[symbol].Index}, t, err)
		},
	}
	intents := r.strat.Decide(ctx)

	if r.b.opts.FillMode == FillNextOpen {
		r.queued = append(r.queued, intents...)
	} else {
		r.execute(intents, snaps, prices, t, func(s strategy.Snapshot) float64 { return s.Bar.Close })
	}

	value = r.ledger.MarkToMarket(r.cal.prices())
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, core.Errorf(core.ErrInvalidData, "tick %d (%s): portfolio value %v",
			tick, t.Format(time.DateOnly), value)
	}
	return value, nil
}

// execute applies intents in order with reductions first
func (r *run) execute(intents []broker.OrderIntent, snaps map[string]strategy.Snapshot, prices map[string]float64, t time.Time, price func(strategy.Snapshot) float64) {
	value := r.ledger.MarkToMarket(prices)
	ordered := make([]broker.OrderIntent, len(intents))
	copy(ordered, intents)
	sort.SliceStable(ordered, func(i, j int) bool {
		return r.reduces(ordered[i], prices, value) && !r.reduces(ordered[j], prices, value)
	})

	for _, in := range ordered {
		snap, ok := snaps[in.Symbol]
		if !ok || !snap.HasBar {
			r.logger.Debug("intent dropped, no bar",
				zap.String("symbol", in.Symbol),
				zap.String("kind", string(in.Kind)),
				zap.Time("time", t),
			)
			r.record(in.Kind, "dropped")
			continue
		}

		fill := broker.Fill{Price: price(snap), BarIndex: snap.Index, Time: t}
		if err := r.ledger.Apply(in, fill, prices); err != nil {
			r.skip(in, t, err)
			continue
		}
		r.record(in.Kind, "filled")
		r.logger.Debug("order filled",
			zap.String("symbol", in.Symbol),
			zap.String("kind", string(in.Kind)),
			zap.Int("bar", snap.Index),
			zap.Float64("price", fill.Price),
			zap.String("reason", in.Reason),
		)
	}
}

// reduces reports whether the intent lowers exposure
func (r *run) reduces(in broker.OrderIntent, prices map[string]float64, value float64) bool {
	switch in.Kind {
	case broker.OrderKindClose:
		return true
	case broker.OrderKindTargetWeight:
		pos, held := r.ledger.Position(in.Symbol)
		if !held {
			return false
		}
		price, ok := prices[in.Symbol]
		if !ok {
			price = pos.AverageCost
		}
		return in.Weight*value < pos.MarketValue(price)
	}
	return false
}

func (r *run) skip(in broker.OrderIntent, t time.Time, err error) {
	r.skipped = append(r.skipped, SkippedOrder{
		Symbol:   in.Symbol,
		Kind:     in.Kind,
		BarIndex: in.BarIndex,
		Time:     t,
		Reason:   in.Reason,
		Error:    err.Error(),
	})
	kind := in.Kind
	if kind == "" {
		kind = broker.OrderKindBuy
	}
	r.record(kind, "skipped")
	r.logger.Warn("order skipped",
		zap.String("symbol", in.Symbol),
		zap.Int("bar", in.BarIndex),
		zap.Error(err),
	)
}

func (r *run) record(kind broker.OrderKind, status string) {
	if r.b.recorder != nil {
		r.b.recorder.RecordOrder(string(kind), status)
	}
}
