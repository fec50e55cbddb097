package exchange

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"TrendWarden/internal/model"
)

var (
	metricFetches         = prometheus.NewCounter(prometheus.CounterOpts{Name: "bot_data_fetches_total", Help: "Market data fetches attempted"})
	metricFetchErrors     = prometheus.NewCounter(prometheus.CounterOpts{Name: "bot_data_fetch_errors_total", Help: "Market data fetches that failed"})
	metricOrdersAttempted = prometheus.NewCounter(prometheus.CounterOpts{Name: "bot_orders_attempted_total", Help: "Orders the bot tried to place"})
	metricOrdersPlaced    = prometheus.NewCounter(prometheus.CounterOpts{Name: "bot_orders_placed_total", Help: "Orders filled or handed to the exchange"})
	metricOrdersRejected  = prometheus.NewCounter(prometheus.CounterOpts{Name: "bot_orders_rejected_total", Help: "Orders the exchange rejected"})
)

func init() {
	prometheus.MustRegister(
		metricFetches, metricFetchErrors,
		metricOrdersAttempted, metricOrdersPlaced, metricOrdersRejected,
	)
}

// Instrumented wraps an Exchange with prometheus counters around data
// fetches and order placement.
type Instrumented struct {
	inner Exchange
}

// NewInstrumented wraps inner with metrics.
func NewInstrumented(inner Exchange) *Instrumented {
	return &Instrumented{inner: inner}
}

func (m *Instrumented) Name() string { return m.inner.Name() }

func (m *Instrumented) FetchSeries(ctx context.Context, symbol, timeframe string, limit int) ([]model.Bar, error) {
	metricFetches.Inc()
	bars, err := m.inner.FetchSeries(ctx, symbol, timeframe, limit)
	if err != nil {
		metricFetchErrors.Inc()
	}
	return bars, err
}

func (m *Instrumented) FetchBalance(ctx context.Context, currency string) (float64, error) {
	return m.inner.FetchBalance(ctx, currency)
}

func (m *Instrumented) ListMarkets(ctx context.Context) (map[string]model.MarketLimits, error) {
	return m.inner.ListMarkets(ctx)
}

func (m *Instrumented) PlaceMarketOrder(ctx context.Context, symbol string, side Side, qty float64) (Fill, error) {
	metricOrdersAttempted.Inc()
	fill, err := m.inner.PlaceMarketOrder(ctx, symbol, side, qty)
	if err != nil {
		metricOrdersRejected.Inc()
		return fill, err
	}
	metricOrdersPlaced.Inc()
	return fill, nil
}
