package model

// StateVersion is the current layout of the persisted state record.
const StateVersion = 1

// Position is one open long position for a symbol. Qty 0 means flat.
type Position struct {
	Qty    float64 `json:"qty"`
	Entry  float64 `json:"entry"`
	Stop   float64 `json:"stop"`
	Risked float64 `json:"risked"`
}

// Open reports whether the position holds any quantity.
func (p Position) Open() bool { return p.Qty > 0 }

// DayRisk accumulates realized results for one UTC calendar day.
type DayRisk struct {
	Date       string  `json:"date"`
	PnL        float64 `json:"pnl"`
	Trades     int     `json:"trades"`
	LossStreak int     `json:"loss_streak"`
}

// BotState is the persisted record carried between runs: cash, equity,
// open positions, and the current day's risk accounting. Equity and Cash
// are nil until the first run computes them.
type BotState struct {
	Version   int                 `json:"version"`
	Equity    *float64            `json:"equity"`
	Cash      *float64            `json:"cash"`
	Positions map[string]Position `json:"positions"`
	Today     DayRisk             `json:"today"`
}
