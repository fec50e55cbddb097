package exchange

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"TrendWarden/internal/model"
)

func paperWithPrice(t *testing.T, cash, price float64) *PaperBroker {
	t.Helper()
	venue := &Mock{Series: map[string][]model.Bar{
		"XBT/EUR": {
			{Time: time.Now().Add(-time.Hour), Close: price, High: price, Low: price},
			{Time: time.Now(), Close: price, High: price, Low: price},
		},
	}}
	p := NewPaperBroker(venue, "EUR", cash, 26, 5)
	if _, err := p.FetchSeries(context.Background(), "XBT/EUR", "5m", 10); err != nil {
		t.Fatalf("fetch series: %v", err)
	}
	return p
}

func TestPaperBuy_SlippageAndFee(t *testing.T) {
	p := paperWithPrice(t, 1000, 100)

	fill, err := p.PlaceMarketOrder(context.Background(), "XBT/EUR", SideBuy, 2)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	wantPx := 100 * 1.0005
	if math.Abs(fill.Price-wantPx) > 1e-9 {
		t.Errorf("fill price = %f, want %f (5 bps slippage)", fill.Price, wantPx)
	}
	// Notional 200 buys 200/slipped units.
	wantQty := 200 / wantPx
	if math.Abs(fill.Qty-wantQty) > 1e-9 {
		t.Errorf("fill qty = %f, want %f", fill.Qty, wantQty)
	}

	cash, _ := p.FetchBalance(context.Background(), "EUR")
	wantCash := 1000 - 200 - 200*0.0026
	if math.Abs(cash-wantCash) > 1e-9 {
		t.Errorf("cash = %f, want %f (notional + 26 bps fee debited)", cash, wantCash)
	}
	held, _ := p.FetchBalance(context.Background(), "XBT")
	if math.Abs(held-wantQty) > 1e-9 {
		t.Errorf("holdings = %f, want %f", held, wantQty)
	}
}

func TestPaperBuy_InsufficientCash(t *testing.T) {
	p := paperWithPrice(t, 10, 100)
	if _, err := p.PlaceMarketOrder(context.Background(), "XBT/EUR", SideBuy, 1); !errors.Is(err, ErrOrderRejected) {
		t.Errorf("expected ErrOrderRejected for insufficient cash, got %v", err)
	}
	cash, _ := p.FetchBalance(context.Background(), "EUR")
	if cash != 10 {
		t.Errorf("rejected buy must not touch cash, got %f", cash)
	}
}

func TestPaperSell_NoHoldings(t *testing.T) {
	p := paperWithPrice(t, 1000, 100)
	if _, err := p.PlaceMarketOrder(context.Background(), "XBT/EUR", SideSell, 1); !errors.Is(err, ErrOrderRejected) {
		t.Errorf("expected ErrOrderRejected for empty holdings, got %v", err)
	}
}

func TestPaperSell_CapsAtHoldings(t *testing.T) {
	p := paperWithPrice(t, 1000, 100)
	p.SeedHolding("XBT/EUR", 0.5)

	fill, err := p.PlaceMarketOrder(context.Background(), "XBT/EUR", SideSell, 2)
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	if fill.Qty != 0.5 {
		t.Errorf("fill qty = %f, want 0.5 (capped at holdings)", fill.Qty)
	}
	wantPx := 100 * 0.9995
	if math.Abs(fill.Price-wantPx) > 1e-9 {
		t.Errorf("fill price = %f, want %f", fill.Price, wantPx)
	}
	held, _ := p.FetchBalance(context.Background(), "XBT")
	if held != 0 {
		t.Errorf("holdings = %f, want 0", held)
	}
	proceeds := 0.5 * wantPx
	wantCash := 1000 + proceeds - proceeds*0.0026
	cash, _ := p.FetchBalance(context.Background(), "EUR")
	if math.Abs(cash-wantCash) > 1e-9 {
		t.Errorf("cash = %f, want %f", cash, wantCash)
	}
}

func TestPaperOrder_NoReferencePrice(t *testing.T) {
	p := NewPaperBroker(&Mock{}, "EUR", 1000, 26, 5)
	if _, err := p.PlaceMarketOrder(context.Background(), "XBT/EUR", SideBuy, 1); !errors.Is(err, ErrOrderRejected) {
		t.Errorf("expected ErrOrderRejected without a reference price, got %v", err)
	}
}
