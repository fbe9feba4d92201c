// Package datasource loads daily bar series for backtests.
package datasource

import (
	"context"
	"time"

	"github.com/newthinker/swingbot/internal/core"
)

// Source defines the interface for historical bar providers
type Source interface {
	Name() string
	// FetchHistory returns the daily bars of symbol with start <= Time <= end.
	// Zero bounds are open.
	FetchHistory(ctx context.Context, symbol string, start, end time.Time) (core.Series, error)
}
