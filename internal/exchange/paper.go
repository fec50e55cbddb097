package exchange

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"TrendWarden/internal/model"
)

// PaperBroker simulates order execution against live market data. Fetches
// delegate to the underlying venue; orders fill locally with configured
// slippage and fee against a simulated cash balance.
type PaperBroker struct {
	venue Exchange
	quote string
	fee   float64
	slip  float64

	mu        sync.Mutex
	cash      float64
	holdings  map[string]float64 // base asset -> quantity
	lastClose map[string]float64 // symbol -> last seen close
}

// NewPaperBroker wraps venue with simulated execution. Fee and slippage are
// in basis points of notional.
func NewPaperBroker(venue Exchange, quoteCurrency string, startCash float64, feeBps, slipBps int) *PaperBroker {
	return &PaperBroker{
		venue:     venue,
		quote:     quoteCurrency,
		fee:       float64(feeBps) / 1e4,
		slip:      float64(slipBps) / 1e4,
		cash:      startCash,
		holdings:  make(map[string]float64),
		lastClose: make(map[string]float64),
	}
}

func (p *PaperBroker) Name() string { return "paper(" + p.venue.Name() + ")" }

// SeedHolding restores a persisted position quantity at startup.
func (p *PaperBroker) SeedHolding(symbol string, qty float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.holdings[baseAsset(symbol)] += qty
}

func (p *PaperBroker) FetchSeries(ctx context.Context, symbol, timeframe string, limit int) ([]model.Bar, error) {
	bars, err := p.venue.FetchSeries(ctx, symbol, timeframe, limit)
	if err != nil {
		return nil, err
	}
	if len(bars) > 0 {
		p.mu.Lock()
		p.lastClose[symbol] = bars[len(bars)-1].Close
		p.mu.Unlock()
	}
	return bars, nil
}

func (p *PaperBroker) ListMarkets(ctx context.Context) (map[string]model.MarketLimits, error) {
	return p.venue.ListMarkets(ctx)
}

func (p *PaperBroker) FetchBalance(_ context.Context, currency string) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if currency == p.quote {
		return p.cash, nil
	}
	return p.holdings[currency], nil
}

func (p *PaperBroker) PlaceMarketOrder(_ context.Context, symbol string, side Side, qty float64) (Fill, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	px := p.lastClose[symbol]
	if px <= 0 {
		return Fill{}, fmt.Errorf("%w: no reference price for %s", ErrOrderRejected, symbol)
	}
	base := baseAsset(symbol)

	switch side {
	case SideBuy:
		slipped := px * (1 + p.slip)
		notional := qty * px
		fee := notional * p.fee
		cost := notional + fee
		if p.cash < cost {
			return Fill{}, fmt.Errorf("%w: insufficient cash %.2f for cost %.2f", ErrOrderRejected, p.cash, cost)
		}
		filled := notional / slipped
		p.cash -= cost
		p.holdings[base] += filled
		return Fill{Qty: filled, Price: slipped}, nil

	case SideSell:
		held := p.holdings[base]
		if held <= 0 {
			return Fill{}, fmt.Errorf("%w: no %s holdings to sell", ErrOrderRejected, base)
		}
		if qty > held {
			qty = held
		}
		slipped := px * (1 - p.slip)
		proceeds := qty * slipped
		fee := proceeds * p.fee
		p.cash += proceeds - fee
		p.holdings[base] = held - qty
		return Fill{Qty: qty, Price: slipped}, nil
	}
	return Fill{}, fmt.Errorf("%w: unknown side %q", ErrOrderRejected, side)
}

func baseAsset(symbol string) string {
	if i := strings.Index(symbol, "/"); i > 0 {
		return symbol[:i]
	}
	return symbol
}
