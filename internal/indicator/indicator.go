package indicator

import (
	"errors"
	"math"

	"TrendWarden/internal/model"
)

// ErrInsufficientData signals a series too short for cross detection.
var ErrInsufficientData = errors.New("insufficient data: need at least 2 bars")

// ErrInvalidPeriod signals a non-positive EMA or volatility period.
var ErrInvalidPeriod = errors.New("period must be positive")

// Params configures the EMA-cross / ATR-stop computation.
type Params struct {
	FastPeriod int
	SlowPeriod int
	VolPeriod  int
	VolMult    float64
}

// Snapshot is the per-bar indicator state derived from a price series.
// A snapshot depends only on its bar and the bars before it.
type Snapshot struct {
	EMAFast      float64
	EMASlow      float64
	Volatility   float64
	StopDistance float64
	EnterLong    bool
	ExitLong     bool
}

// Compute derives one Snapshot per input bar. EnterLong fires on an upward
// fast/slow EMA cross, ExitLong on a downward cross; the first bar never
// signals. StopDistance is VolMult times the ATR-style volatility estimate.
func Compute(bars []model.Bar, p Params) ([]Snapshot, error) {
	if len(bars) < 2 {
		return nil, ErrInsufficientData
	}
	if p.FastPeriod <= 0 || p.SlowPeriod <= 0 || p.VolPeriod <= 0 {
		return nil, ErrInvalidPeriod
	}

	fast := emaSeries(bars, p.FastPeriod)
	slow := emaSeries(bars, p.SlowPeriod)
	vol := volatilitySeries(bars, p.VolPeriod)

	snaps := make([]Snapshot, len(bars))
	for i := range bars {
		s := Snapshot{
			EMAFast:      fast[i],
			EMASlow:      slow[i],
			Volatility:   vol[i],
			StopDistance: p.VolMult * vol[i],
		}
		if i > 0 {
			s.EnterLong = fast[i] > slow[i] && fast[i-1] <= slow[i-1]
			s.ExitLong = fast[i] < slow[i] && fast[i-1] >= slow[i-1]
		}
		snaps[i] = s
	}
	return snaps, nil
}

// emaSeries computes the exponential moving average of closes,
// seeded with the first close: ema[i] = close[i]*k + ema[i-1]*(1-k).
func emaSeries(bars []model.Bar, period int) []float64 {
	k := 2.0 / (float64(period) + 1.0)
	out := make([]float64, len(bars))
	out[0] = bars[0].Close
	for i := 1; i < len(bars); i++ {
		out[i] = bars[i].Close*k + out[i-1]*(1.0-k)
	}
	return out
}

// volatilitySeries is the simple moving average of true range over period
// bars. Bars with fewer than period predecessors average whatever history
// exists, with a minimum window of 1.
func volatilitySeries(bars []model.Bar, period int) []float64 {
	tr := make([]float64, len(bars))
	for i, b := range bars {
		r := b.High - b.Low
		if i > 0 {
			prev := bars[i-1].Close
			r = math.Max(r, math.Max(math.Abs(b.High-prev), math.Abs(b.Low-prev)))
		}
		tr[i] = r
	}

	out := make([]float64, len(bars))
	sum := 0.0
	for i := range tr {
		sum += tr[i]
		n := period
		if i+1 < period {
			n = i + 1
		} else if i >= period {
			sum -= tr[i-period]
		}
		out[i] = sum / float64(n)
	}
	return out
}
