package datasource

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/newthinker/swingbot/internal/core"
)

// maxFetches bounds concurrent FetchHistory calls of one Load
const maxFetches = 4

// Load fetches every symbol from src concurrently and validates the result.
func Load(ctx context.Context, src Source, symbols []string, start, end time.Time, logger ...*zap.Logger) (core.Universe, error) {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	if len(symbols) == 0 {
		return nil, core.Errorf(core.ErrConfigMissing, "no symbols")
	}

	series := make([]core.Series, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxFetches)
	for i, sym := range symbols {
		g.Go(func() error {
			s, err := src.FetchHistory(gctx, sym, start, end)
			if err != nil {
				return err
			}
			l.Debug("series loaded",
				zap.String("source", src.Name()),
				zap.String("symbol", sym),
				zap.Int("bars", s.Len()),
			)
			series[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	u := make(core.Universe, len(symbols))
	for _, s := range series {
		u[s.Symbol] = s
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}
