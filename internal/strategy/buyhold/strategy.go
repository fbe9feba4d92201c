package buyhold

import (
	"fmt"

	"github.com/newthinker/swingbot/internal/broker"
	"github.com/newthinker/swingbot/internal/strategy"
)

// BuyHold spends an equal share of cash on every instrument on its first bar
// and never sells.
type BuyHold struct {
	bought map[string]bool
}

// New creates a buy-and-hold baseline
func New() *BuyHold {
	return &BuyHold{}
}

func (b *BuyHold) Name() string {
	return "buy_hold"
}

func (b *BuyHold) Description() string {
	return "Buy on the first bar and hold to the end"
}

func (b *BuyHold) RequiredData() strategy.DataRequirements {
	return strategy.DataRequirements{}
}

func (b *BuyHold) Init(cfg strategy.Config) error {
	return nil
}

func (b *BuyHold) Reset(symbols []string) {
	b.bought = make(map[string]bool, len(symbols))
}

func (b *BuyHold) Decide(ctx strategy.Context) []broker.OrderIntent {
	if b.bought == nil {
		b.Reset(ctx.Symbols)
	}

	remaining := 0
	for _, sym := range ctx.Symbols {
		if !b.bought[sym] {
			remaining++
		}
	}
	if remaining == 0 {
		return nil
	}
	share := ctx.Cash() / float64(remaining)

	var intents []broker.OrderIntent
	for _, sym := range ctx.Symbols {
		snap := ctx.Snapshot(sym)
		if b.bought[sym] || !snap.HasBar {
			continue
		}
		b.bought[sym] = true
		size, err := broker.AllInSize(share, snap.Bar.Close)
		if err != nil {
			ctx.Skip(sym, fmt.Errorf("%s bar %d: %w", sym, snap.Index, err))
			continue
		}
		intents = append(intents, broker.Buy(sym, size, snap.Index, "buy_and_hold"))
	}
	return intents
}
