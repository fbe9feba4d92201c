// Package catalog registers every built-in strategy.
package catalog

import (
	"go.uber.org/zap"

	"github.com/newthinker/swingbot/internal/strategy"
	"github.com/newthinker/swingbot/internal/strategy/buyhold"
	"github.com/newthinker/swingbot/internal/strategy/donchian"
	"github.com/newthinker/swingbot/internal/strategy/enhanced"
	"github.com/newthinker/swingbot/internal/strategy/momentum"
	"github.com/newthinker/swingbot/internal/strategy/rebalance"
	"github.com/newthinker/swingbot/internal/strategy/regime"
)

// Default returns an engine with all built-in strategies registered
func Default(logger ...*zap.Logger) *strategy.Engine {
	e := strategy.NewEngine(logger...)
	e.Register(func() strategy.Strategy { return momentum.New() })
	e.Register(func() strategy.Strategy { return donchian.New() })
	e.Register(func() strategy.Strategy { return enhanced.New() })
	e.Register(func() strategy.Strategy { return regime.New() })
	e.Register(func() strategy.Strategy { return rebalance.NewMomentum() })
	e.Register(func() strategy.Strategy { return rebalance.NewSafeHaven() })
	e.Register(func() strategy.Strategy { return buyhold.New() })
	return e
}
