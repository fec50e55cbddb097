package exchange

import (
	"context"
	"errors"

	"TrendWarden/internal/model"
)

var (
	// ErrDataUnavailable wraps network or parse failures while fetching
	// market data; the affected symbol is skipped, others continue.
	ErrDataUnavailable = errors.New("market data unavailable")
	// ErrOrderRejected wraps execution failures; the caller must not
	// mutate position state when it is returned.
	ErrOrderRejected = errors.New("order rejected")
)

// Side is the direction of a market order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Fill is the realized result of a market order. A zero Price means the
// venue did not report an average fill price.
type Fill struct {
	Qty   float64
	Price float64
}

// Exchange is the execution adapter consumed by the trader and the auditor.
type Exchange interface {
	// FetchSeries returns up to limit bars in ascending time order.
	FetchSeries(ctx context.Context, symbol, timeframe string, limit int) ([]model.Bar, error)
	// FetchBalance returns the total balance of one currency or asset.
	FetchBalance(ctx context.Context, currency string) (float64, error)
	// PlaceMarketOrder places (or simulates) an immediate market order.
	PlaceMarketOrder(ctx context.Context, symbol string, side Side, qty float64) (Fill, error)
	// ListMarkets returns the tradable pairs and their minimum-order limits.
	ListMarkets(ctx context.Context) (map[string]model.MarketLimits, error)
	Name() string
}
