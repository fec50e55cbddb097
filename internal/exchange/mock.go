package exchange

import (
	"context"

	"TrendWarden/internal/model"
)

// Mock returns controllable fixed data for development and testing.
type Mock struct {
	Series     map[string][]model.Bar
	Balances   map[string]float64
	Limits     map[string]model.MarketLimits
	FetchErr   map[string]error
	BalanceErr error
	OrderErr   error
	FillPrice  float64 // average fill price reported; 0 means not reported
	Orders     []MockOrder
}

// MockOrder records one PlaceMarketOrder call.
type MockOrder struct {
	Symbol string
	Side   Side
	Qty    float64
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) FetchSeries(_ context.Context, symbol, _ string, limit int) ([]model.Bar, error) {
	if err := m.FetchErr[symbol]; err != nil {
		return nil, err
	}
	bars := m.Series[symbol]
	if limit > 0 && len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return bars, nil
}

func (m *Mock) FetchBalance(_ context.Context, currency string) (float64, error) {
	if m.BalanceErr != nil {
		return 0, m.BalanceErr
	}
	return m.Balances[currency], nil
}

func (m *Mock) ListMarkets(_ context.Context) (map[string]model.MarketLimits, error) {
	return m.Limits, nil
}

func (m *Mock) PlaceMarketOrder(_ context.Context, symbol string, side Side, qty float64) (Fill, error) {
	m.Orders = append(m.Orders, MockOrder{Symbol: symbol, Side: side, Qty: qty})
	if m.OrderErr != nil {
		return Fill{}, m.OrderErr
	}
	return Fill{Qty: qty, Price: m.FillPrice}, nil
}
