package recorder

// FillEvent records one realized entry or exit.
type FillEvent struct {
	Symbol string
	Action string // "ENTRY" or "EXIT"
	Qty    float64
	Price  float64
	Note   string
	PnL    float64
}

// RunSnapshot records the account after one evaluation pass.
type RunSnapshot struct {
	Equity  float64
	Cash    float64
	DayPnL  float64
	Trades  int
	Symbols int
}

// Recorder persists historical data for external dashboards. Recording
// failures are logged by callers, never fatal.
type Recorder interface {
	RecordFill(evt *FillEvent) error
	RecordRun(snap *RunSnapshot) error
	Close() error
}
