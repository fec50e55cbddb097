package risk

import (
	"time"

	"TrendWarden/internal/model"
)

// Governor gates trading on the day's realized drawdown and on the
// configured UTC session window. Both gates must pass independently.
type Governor struct {
	MaxDrawdownBps int
	StartHour      int
	EndHour        int
}

// NewGovernor creates a Governor.
func NewGovernor(maxDrawdownBps, startHour, endHour int) *Governor {
	return &Governor{MaxDrawdownBps: maxDrawdownBps, StartHour: startHour, EndHour: endHour}
}

// ResetIfNewDay zeroes the day's risk state when its stored UTC date differs
// from now's. Returns true when a reset happened.
func ResetIfNewDay(day *model.DayRisk, now time.Time) bool {
	today := now.UTC().Format("2006-01-02")
	if day.Date == today {
		return false
	}
	*day = model.DayRisk{Date: today}
	return true
}

// Allowed reports whether trading may proceed given the day's realized P&L.
// The drawdown boundary is inclusive: landing exactly on the threshold
// blocks the run. A blocked day is a full stop for entries and exits alike.
func (g *Governor) Allowed(day model.DayRisk, equityRef float64) bool {
	return day.PnL > -(float64(g.MaxDrawdownBps)/1e4)*equityRef
}

// InSession reports whether now's UTC hour falls in [StartHour, EndHour).
func (g *Governor) InSession(now time.Time) bool {
	h := now.UTC().Hour()
	return g.StartHour <= h && h < g.EndHour
}

// RecordExit folds one realized exit into the day's accounting.
func RecordExit(day *model.DayRisk, pnl float64) {
	day.PnL += pnl
	day.Trades++
	if pnl < 0 {
		day.LossStreak++
	} else {
		day.LossStreak = 0
	}
}
