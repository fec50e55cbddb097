package sizing

import (
	"errors"

	"TrendWarden/internal/model"
)

var (
	// ErrInvalidStop means the stop distance was not positive; callers skip
	// the symbol for this cycle.
	ErrInvalidStop = errors.New("stop distance must be positive")
	// ErrBelowTradableFloor means the computed order is economically
	// negligible; callers skip rather than force a trade.
	ErrBelowTradableFloor = errors.New("order notional below tradable floor")
)

// minNotionalEpsilon pads the minimum-notional bump so float truncation at
// the exchange boundary cannot land the order a hair under the minimum.
const minNotionalEpsilon = 1e-9

// tradableFloor is the absolute minimum notional in quote currency.
const tradableFloor = 1.0

// Size converts a risk budget and stop distance into an order quantity that
// clears the market's minimums. It is the single sizing implementation
// shared by the live trading path and the pre-flight auditor.
func Size(riskBudget, stopDistance, refPrice float64, lim model.MarketLimits) (float64, error) {
	if stopDistance <= 0 {
		return 0, ErrInvalidStop
	}
	if refPrice <= 0 {
		return 0, ErrBelowTradableFloor
	}

	qty := riskBudget / stopDistance
	if lim.MinNotional != nil && qty*refPrice < *lim.MinNotional {
		qty = (*lim.MinNotional + minNotionalEpsilon) / refPrice
	}
	if lim.MinQuantity != nil && qty < *lim.MinQuantity {
		qty = *lim.MinQuantity
	}
	if qty*refPrice < tradableFloor {
		return 0, ErrBelowTradableFloor
	}
	return qty, nil
}
