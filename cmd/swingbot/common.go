package main

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/swingbot/internal/app"
	"github.com/newthinker/swingbot/internal/config"
	"github.com/newthinker/swingbot/internal/logger"
)

// runFlags are shared by the backtest and sweep commands
type runFlags struct {
	symbols   []string
	from      string
	to        string
	source    string
	params    []string
	benchmark bool
	archive   bool
}

func loadConfig(log *zap.Logger) (*config.Config, error) {
	if cfgFile == "" {
		log.Debug("no config file specified, using defaults")
		return config.Defaults(), nil
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// cliLogger keeps report output readable unless debug is on
func cliLogger() (*zap.Logger, error) {
	if debug {
		return logger.New(true)
	}
	return logger.Quiet()
}

func newApp(log *zap.Logger) (*app.App, error) {
	cfg, err := loadConfig(log)
	if err != nil {
		return nil, err
	}
	return app.New(cfg, log)
}

func (f *runFlags) request(strategy string) (app.RunRequest, error) {
	req := app.RunRequest{
		Strategy:  strategy,
		Symbols:   f.symbols,
		Source:    f.source,
		Benchmark: f.benchmark,
		Archive:   f.archive,
	}

	var err error
	if req.Start, err = time.Parse(time.DateOnly, f.from); err != nil {
		return req, fmt.Errorf("invalid from date format (expected YYYY-MM-DD): %w", err)
	}
	if f.to != "" {
		if req.End, err = time.Parse(time.DateOnly, f.to); err != nil {
			return req, fmt.Errorf("invalid to date format (expected YYYY-MM-DD): %w", err)
		}
	}
	if req.Params, err = parseParams(f.params); err != nil {
		return req, err
	}
	return req, req.Validate()
}

// parseParams turns repeated key=value flags into strategy parameters
func parseParams(entries []string) (map[string]any, error) {
	params := make(map[string]any, len(entries))
	for _, e := range entries {
		k, v, ok := strings.Cut(e, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --param %q (expected key=value)", e)
		}
		params[k] = strings.TrimSpace(v)
	}
	return params, nil
}
