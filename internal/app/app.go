package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/swingbot/internal/backtest"
	"github.com/newthinker/swingbot/internal/config"
	"github.com/newthinker/swingbot/internal/core"
	"github.com/newthinker/swingbot/internal/datasource"
	"github.com/newthinker/swingbot/internal/datasource/binance"
	"github.com/newthinker/swingbot/internal/datasource/csvdir"
	"github.com/newthinker/swingbot/internal/datasource/yahoo"
	"github.com/newthinker/swingbot/internal/metrics"
	"github.com/newthinker/swingbot/internal/report"
	"github.com/newthinker/swingbot/internal/storage/archive"
	"github.com/newthinker/swingbot/internal/strategy"
	"github.com/newthinker/swingbot/internal/strategy/catalog"
)

// RunRequest describes one backtest
type RunRequest struct {
	Strategy string
	Symbols  []string
	Start    time.Time
	End      time.Time
	// Params override the configured strategy parameters.
	Params map[string]any
	// Source overrides the configured data source.
	Source string
	// Split runs a single-instrument strategy once per symbol with an
	// equal capital share.
	Split     bool
	Benchmark bool
	Archive   bool
}

// Validate checks the request fields that do not need the registries
func (r RunRequest) Validate() error {
	if r.Strategy == "" {
		return core.Errorf(core.ErrConfigMissing, "strategy required")
	}
	if len(r.Symbols) == 0 {
		return core.Errorf(core.ErrConfigMissing, "at least one symbol required")
	}
	if !r.End.IsZero() && r.End.Before(r.Start) {
		return core.Errorf(core.ErrConfigInvalid, "end %s before start %s",
			r.End.Format(time.DateOnly), r.Start.Format(time.DateOnly))
	}
	return nil
}

// App wires configuration to the data sources, strategy catalog,
// backtester and result archive.
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	sources    *datasource.Registry
	strategies *strategy.Engine
	backtester *backtest.Backtester
	archive    *report.Archive
	metrics    *metrics.Registry

	mu        sync.RWMutex
	runs      int
	failures  int
	lastRunAt time.Time
}

// New creates an App from cfg. The metrics registry and result archive
// are only built when enabled.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts, err := cfg.BacktestOptions()
	if err != nil {
		return nil, err
	}

	sources := datasource.NewRegistry()
	sources.Register(csvdir.New(cfg.Data.Dir))
	sources.Register(yahoo.New(cfg.Data.YahooBaseURL))
	sources.Register(binance.New(cfg.Data.BinanceBaseURL))

	a := &App{
		cfg:        cfg,
		logger:     logger,
		sources:    sources,
		strategies: catalog.Default(logger),
		backtester: backtest.New(opts, logger),
	}

	if cfg.Metrics.Enabled {
		a.metrics = metrics.NewRegistry()
		a.backtester.SetRecorder(a.metrics)
	}

	if cfg.Archive.Enabled {
		store, err := archive.New(cfg.Archive.StorageConfig())
		if err != nil {
			return nil, fmt.Errorf("creating archive storage: %w", err)
		}
		a.archive = report.NewArchive(store)
	}

	return a, nil
}

// RegisterSource adds or replaces a data source
func (a *App) RegisterSource(s datasource.Source) {
	a.sources.Register(s)
}

// Config returns the loaded configuration
func (a *App) Config() *config.Config {
	return a.cfg
}

// Strategies returns the strategy catalog
func (a *App) Strategies() *strategy.Engine {
	return a.strategies
}

// HasStrategy reports whether name is in the catalog
func (a *App) HasStrategy(name string) bool {
	return a.strategies.Has(name)
}

// Metrics returns the metrics registry, or nil when metrics are disabled
func (a *App) Metrics() *metrics.Registry {
	return a.metrics
}

// Archive returns the result archive, or nil when archiving is disabled
func (a *App) Archive() *report.Archive {
	return a.archive
}

// Load fetches the universe of req from its data source
func (a *App) Load(ctx context.Context, req RunRequest) (core.Universe, error) {
	name := req.Source
	if name == "" {
		name = a.cfg.Data.Source
	}
	src, err := a.sources.Get(name)
	if err != nil {
		return nil, err
	}
	end := req.End
	if end.IsZero() {
		end = time.Now().UTC()
	}
	return datasource.Load(ctx, src, req.Symbols, req.Start, end, a.logger)
}

// Run loads data and executes one backtest. With Split set the strategy
// runs per symbol and the legs are summed.
func (a *App) Run(ctx context.Context, req RunRequest) (*backtest.Result, error) {
	res, err := a.run(ctx, req)
	a.track(err)
	return res, err
}

func (a *App) run(ctx context.Context, req RunRequest) (*backtest.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !a.strategies.Has(req.Strategy) {
		return nil, core.Errorf(core.ErrStrategyNotFound, "%q", req.Strategy)
	}

	universe, err := a.Load(ctx, req)
	if err != nil {
		return nil, err
	}

	params := a.cfg.StrategyParams(req.Strategy, req.Params)
	cfg := strategy.Config{Params: params}

	var res *backtest.Result
	if req.Split {
		factory, err := a.strategies.Factory(req.Strategy, cfg)
		if err != nil {
			return nil, err
		}
		res, err = a.backtester.RunSplit(ctx, factory, universe)
		if err != nil {
			return nil, err
		}
	} else {
		strat, err := a.strategies.New(req.Strategy, cfg)
		if err != nil {
			return nil, err
		}
		res, err = a.backtester.Run(ctx, strat, universe)
		if err != nil {
			return nil, err
		}
	}
	res.Params = params

	if req.Benchmark {
		res.Benchmark, err = backtest.Benchmark(universe, res.InitialCapital)
		if err != nil {
			return nil, err
		}
	}

	if req.Archive {
		if _, err := a.Save(ctx, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Sweep runs req once per grid combination on a single data load
func (a *App) Sweep(ctx context.Context, req RunRequest, grid backtest.Grid) ([]backtest.SweepResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !a.strategies.Has(req.Strategy) {
		return nil, core.Errorf(core.ErrStrategyNotFound, "%q", req.Strategy)
	}

	universe, err := a.Load(ctx, req)
	if err != nil {
		return nil, err
	}

	build := func(cfg strategy.Config) (strategy.Strategy, error) {
		return a.strategies.New(req.Strategy, cfg)
	}
	base := a.cfg.StrategyParams(req.Strategy, req.Params)
	results, err := a.backtester.Sweep(ctx, build, universe, base, grid, a.cfg.Backtest.Concurrency)
	if err != nil {
		return nil, err
	}

	if req.Archive {
		for _, r := range results {
			if r.Result == nil {
				continue
			}
			if _, err := a.Save(ctx, r.Result); err != nil {
				return nil, err
			}
		}
	}
	return results, nil
}

// Save archives res and returns its run directory
func (a *App) Save(ctx context.Context, res *backtest.Result) (string, error) {
	if a.archive == nil {
		return "", core.Errorf(core.ErrConfigMissing, "archive is disabled")
	}
	dir, err := a.archive.Save(ctx, res)
	if a.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		a.metrics.RecordArchive(status)
	}
	if err != nil {
		a.logger.Error("archive write failed", zap.String("run_id", res.ID.String()), zap.Error(err))
		return "", err
	}
	a.logger.Info("run archived", zap.String("run_id", res.ID.String()), zap.String("dir", dir))
	return dir, nil
}

func (a *App) track(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runs++
	if err != nil {
		a.failures++
	}
	a.lastRunAt = time.Now()
}

// GetStats returns app statistics
func (a *App) GetStats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return map[string]any{
		"runs":        a.runs,
		"failures":    a.failures,
		"last_run_at": a.lastRunAt,
		"strategies":  len(a.strategies.Names()),
		"sources":     a.sources.Names(),
		"archive":     a.archive != nil,
	}
}
