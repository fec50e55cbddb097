package model

import "time"

// Bar represents a single OHLCV candlestick.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// MarketLimits holds a trading pair's minimum-order constraints.
// A nil field means the exchange does not publish that limit.
type MarketLimits struct {
	MinNotional *float64
	MinQuantity *float64
}
