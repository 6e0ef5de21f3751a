// Package analytics computes the rolling signal, position, and P&L columns
// over a price series.
package analytics

import (
	"math"

	"github.com/L-Dinosaur/trading-server/internal/series"
)

// NumMinTradingDay is the length of a regular trading session (09:30 to
// 16:00) in minutes.
const NumMinTradingDay = 390

// Engine computes derived columns for a fixed sampling interval. The
// lookback window is one trading day's worth of samples.
type Engine struct {
	intervalMinutes int
}

// NewEngine creates an Engine for the given sampling interval in minutes.
func NewEngine(intervalMinutes int) *Engine {
	return &Engine{intervalMinutes: intervalMinutes}
}

// Window returns the rolling lookback size in samples.
func (e *Engine) Window() int {
	return int(math.Round(float64(NumMinTradingDay) / float64(e.intervalMinutes)))
}

// Compute recomputes every derived column of ts from scratch, in dependency
// order: rolling mean/std, signal, position, unit return, P&L. Calling it
// again on an unchanged price column yields identical results.
func (e *Engine) Compute(ts *series.TimeSeries) {
	n := ts.Len()
	window := e.Window()

	ts.RollingAvg = series.NaNSlice(n)
	ts.RollingStd = series.NaNSlice(n)
	ts.Signal = make([]int, n)
	ts.Position = make([]int, n)
	ts.UnitReturn = series.NaNSlice(n)
	ts.PnL = make([]float64, n)

	// Rolling mean and sample standard deviation over the trailing window,
	// inclusive of t. Undefined until the window is full.
	for t := window - 1; t < n; t++ {
		var sum float64
		for i := t - window + 1; i <= t; i++ {
			sum += ts.Points[i].Price
		}
		mean := sum / float64(window)

		var sq float64
		for i := t - window + 1; i <= t; i++ {
			d := ts.Points[i].Price - mean
			sq += d * d
		}
		std := 0.0
		if window > 1 {
			std = math.Sqrt(sq / float64(window-1))
		}

		ts.RollingAvg[t] = mean
		ts.RollingStd[t] = std
	}

	// Momentum signal against the rolling band. NaN bounds fail both
	// comparisons, so the first window-1 samples stay at 0.
	for t := 0; t < n; t++ {
		p := ts.Points[t].Price
		switch {
		case p > ts.RollingAvg[t]+ts.RollingStd[t]:
			ts.Signal[t] = 1
		case p < ts.RollingAvg[t]-ts.RollingStd[t]:
			ts.Signal[t] = -1
		}
	}

	// Position acts on the previous sample's signal: running sum of all
	// signals strictly before t.
	for t := 1; t < n; t++ {
		ts.Position[t] = ts.Position[t-1] + ts.Signal[t-1]
	}

	for t := 1; t < n; t++ {
		ts.UnitReturn[t] = ts.Points[t].Price - ts.Points[t-1].Price
	}

	// PnL(t) = Position(t-1) * [S(t) - S(t-1)]; the first sample holds
	// no position and contributes nothing.
	for t := 1; t < n; t++ {
		ts.PnL[t] = float64(ts.Position[t-1]) * ts.UnitReturn[t]
	}
}
