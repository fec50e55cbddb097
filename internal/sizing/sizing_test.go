package sizing

import (
	"errors"
	"math"
	"testing"

	"TrendWarden/internal/model"
)

func fptr(v float64) *float64 { return &v }

func TestSize_InvalidStop(t *testing.T) {
	for _, stop := range []float64{0, -1, -0.0001} {
		if _, err := Size(100, stop, 50, model.MarketLimits{}); !errors.Is(err, ErrInvalidStop) {
			t.Errorf("stop %f: expected ErrInvalidStop, got %v", stop, err)
		}
	}
}

func TestSize_BadReferencePrice(t *testing.T) {
	if _, err := Size(100, 5, 0, model.MarketLimits{}); !errors.Is(err, ErrBelowTradableFloor) {
		t.Errorf("zero price: expected ErrBelowTradableFloor, got %v", err)
	}
}

func TestSize_RiskBudgetQuantity(t *testing.T) {
	// 25 bps of 1000 equity = 2.5 risk budget, stop 50 -> 0.05 units.
	qty, err := Size(2.5, 50, 100, model.MarketLimits{})
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	if math.Abs(qty-0.05) > 1e-12 {
		t.Errorf("qty = %f, want 0.05", qty)
	}
}

func TestSize_MinNotionalBump(t *testing.T) {
	// Base qty 1.0 at price 2 -> notional 2 < min 5 -> raised to >= 2.5.
	qty, err := Size(10, 10, 2, model.MarketLimits{MinNotional: fptr(5)})
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	if qty < 2.5 {
		t.Errorf("qty = %f, want >= 2.5", qty)
	}
	if qty*2 < 5 {
		t.Errorf("notional %f still below min 5", qty*2)
	}
}

func TestSize_MinQuantityBump(t *testing.T) {
	qty, err := Size(10, 10, 100, model.MarketLimits{MinQuantity: fptr(3)})
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	if qty != 3 {
		t.Errorf("qty = %f, want 3 (raised to min quantity)", qty)
	}
}

func TestSize_FloorEnforcement(t *testing.T) {
	tests := []struct {
		name        string
		riskBudget  float64
		stop        float64
		price       float64
		minNotional *float64
	}{
		{"tiny budget", 0.001, 10, 100, nil},
		{"tiny budget with min notional", 0.001, 10, 100, fptr(0.5)},
	}
	for _, tt := range tests {
		lim := model.MarketLimits{MinNotional: tt.minNotional}
		if _, err := Size(tt.riskBudget, tt.stop, tt.price, lim); !errors.Is(err, ErrBelowTradableFloor) {
			t.Errorf("%s: expected ErrBelowTradableFloor, got %v", tt.name, err)
		}
	}
}

func TestSize_NotionalClearsMinimum(t *testing.T) {
	// For any positive min notional, the result clears it within epsilon.
	lim := model.MarketLimits{MinNotional: fptr(7.3)}
	for _, price := range []float64{0.37, 1, 2, 19.99, 12345} {
		qty, err := Size(0.5, 40, price, lim)
		if err != nil {
			t.Fatalf("price %f: %v", price, err)
		}
		if qty*price < 7.3-1e-9 {
			t.Errorf("price %f: notional %f below min 7.3", price, qty*price)
		}
	}
}

func TestSize_Idempotent(t *testing.T) {
	lim := model.MarketLimits{MinNotional: fptr(5), MinQuantity: fptr(0.01)}
	a, errA := Size(2.5, 50, 100, lim)
	b, errB := Size(2.5, 50, 100, lim)
	if errA != nil || errB != nil {
		t.Fatalf("size: %v / %v", errA, errB)
	}
	if a != b {
		t.Errorf("identical inputs gave different quantities: %f vs %f", a, b)
	}
}
