package strategy

import "fmt"

// Phase is the per-instrument state of a single-asset strategy
type Phase int

const (
	Flat Phase = iota
	Long
)

func (p Phase) String() string {
	switch p {
	case Flat:
		return "FLAT"
	case Long:
		return "LONG"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// PositionState is the explicit per-instrument memory of a strategy.
// Decision steps take a state and return the next one.
type PositionState struct {
	Phase Phase
	// Pending is set when an intent was emitted this bar and cleared at the
	// start of the next.
	Pending    bool
	EntryPrice float64
	Stop       float64
	EntryBar   int
	// Peak is the running high (or close) since entry, for trailing stops.
	Peak float64
	// Scaled is set once a partial take-profit has been taken.
	Scaled bool
	// Carry is a crossover seen while warming up.
	Carry float64
}

// Enter returns the state after an entry at price on bar
func (s PositionState) Enter(price, stop float64, bar int) PositionState {
	s.Phase = Long
	s.Pending = true
	s.EntryPrice = price
	s.Stop = stop
	s.EntryBar = bar
	s.Peak = price
	s.Scaled = false
	return s
}

// Exit returns the state after a full close
func (s PositionState) Exit() PositionState {
	return PositionState{Phase: Flat, Pending: true, Carry: s.Carry}
}

// HeldBars returns bars since entry
func (s PositionState) HeldBars(bar int) int {
	return bar - s.EntryBar
}

// Book holds the per-instrument states of one run
type Book map[string]PositionState

// NewBook creates flat states for symbols
func NewBook(symbols []string) Book {
	b := make(Book, len(symbols))
	for _, sym := range symbols {
		b[sym] = PositionState{}
	}
	return b
}

// Begin returns the state of symbol at the start of a bar: the pending flag
// is cleared and the phase follows the ledger, so a position closed or
// refused outside the strategy resets it to flat.
func (b Book) Begin(symbol string, held bool) PositionState {
	s := b[symbol]
	s.Pending = false
	switch {
	case held && s.Phase == Flat:
		s.Phase = Long
	case !held && s.Phase == Long:
		s = PositionState{Carry: s.Carry}
	}
	return s
}
