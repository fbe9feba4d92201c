package broker

import (
	"github.com/newthinker/swingbot/internal/core"
)

// RiskSize returns the ATR-risk position size: risk * cash / atr.
// A size that is not positive and finite is a sizing error.
func RiskSize(risk, cash, atr float64) (float64, error) {
	size := risk * cash / atr
	if !finitePositive(size) {
		return 0, core.Errorf(core.ErrSizing, "risk %v cash %.2f atr %v gives size %v", risk, cash, atr, size)
	}
	return size, nil
}

// AllInSize returns the number of units cash buys at price.
func AllInSize(cash, price float64) (float64, error) {
	size := cash / price
	if !finitePositive(size) {
		return 0, core.Errorf(core.ErrSizing, "cash %.2f price %v gives size %v", cash, price, size)
	}
	return size, nil
}
