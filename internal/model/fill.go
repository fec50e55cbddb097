package model

import "time"

// Action indicates what a fill record represents.
type Action string

const (
	ActionEntry Action = "ENTRY"
	ActionExit  Action = "EXIT"
)

// Fill is one realized entry or exit, as appended to the fill log.
// PnL is nil for entries.
type Fill struct {
	Time   time.Time
	Symbol string
	Action Action
	Qty    float64
	Price  float64
	Note   string
	PnL    *float64
}
