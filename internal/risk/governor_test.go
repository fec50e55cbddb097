package risk

import (
	"testing"
	"time"

	"TrendWarden/internal/model"
)

func TestResetIfNewDay(t *testing.T) {
	now := time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC)

	day := model.DayRisk{Date: "2025-06-09", PnL: -123.45, Trades: 7, LossStreak: 3}
	if !ResetIfNewDay(&day, now) {
		t.Fatal("expected reset on new date")
	}
	if day.Date != "2025-06-10" || day.PnL != 0 || day.Trades != 0 || day.LossStreak != 0 {
		t.Errorf("day not zeroed: %+v", day)
	}

	day.PnL = -5
	if ResetIfNewDay(&day, now) {
		t.Error("unexpected reset on same date")
	}
	if day.PnL != -5 {
		t.Errorf("same-day state clobbered: %+v", day)
	}
}

func TestGovernor_DrawdownBoundaryInclusive(t *testing.T) {
	g := NewGovernor(100, 0, 24) // 1% of equity

	tests := []struct {
		pnl     float64
		equity  float64
		allowed bool
	}{
		{0, 1000, true},
		{-9.99, 1000, true},
		{-10, 1000, false}, // exactly -1% blocks
		{-10.01, 1000, false},
		{5, 1000, true},
	}
	for _, tt := range tests {
		day := model.DayRisk{Date: "2025-06-10", PnL: tt.pnl}
		if got := g.Allowed(day, tt.equity); got != tt.allowed {
			t.Errorf("pnl %.2f equity %.0f: allowed = %v, want %v", tt.pnl, tt.equity, got, tt.allowed)
		}
	}
}

func TestGovernor_SessionWindow(t *testing.T) {
	g := NewGovernor(100, 8, 18)

	tests := []struct {
		hour int
		in   bool
	}{
		{7, false},
		{8, true}, // start inclusive
		{12, true},
		{17, true},
		{18, false}, // end exclusive
		{23, false},
	}
	for _, tt := range tests {
		now := time.Date(2025, 6, 10, tt.hour, 30, 0, 0, time.UTC)
		if got := g.InSession(now); got != tt.in {
			t.Errorf("hour %d: InSession = %v, want %v", tt.hour, got, tt.in)
		}
	}
}

func TestRecordExit_LossStreak(t *testing.T) {
	day := model.DayRisk{Date: "2025-06-10"}

	RecordExit(&day, -3)
	RecordExit(&day, -2)
	if day.LossStreak != 2 || day.Trades != 2 || day.PnL != -5 {
		t.Errorf("after two losses: %+v", day)
	}

	RecordExit(&day, 4)
	if day.LossStreak != 0 {
		t.Errorf("win must reset loss streak, got %d", day.LossStreak)
	}
	if day.PnL != -1 || day.Trades != 3 {
		t.Errorf("accounting wrong: %+v", day)
	}
}
