// Package series provides the per-ticker price time series: an ordered,
// duplicate-free sequence of price points plus the derived analytics columns
// aligned to the same timestamp index.
package series

import (
	"errors"
	"math"
	"sort"
	"time"
)

// ErrEmptySeries is returned when a lookup is attempted against a series
// with no price points.
var ErrEmptySeries = errors.New("series: no price points")

// Point is a single observed price at an instant. Points are immutable once
// produced by a data source; the ordering key is Timestamp.
type Point struct {
	Timestamp time.Time
	Price     float64
}

// TimeSeries holds a ticker's price points and the derived columns computed
// over them. Derived columns are either empty (not yet computed) or exactly
// as long as Points, aligned index-for-index. Undefined float entries are
// NaN; Signal and Position are always defined.
type TimeSeries struct {
	Ticker string
	Points []Point

	RollingAvg []float64
	RollingStd []float64
	Signal     []int
	Position   []int
	UnitReturn []float64
	PnL        []float64
}

// Sample is one resolved row of a series, as returned to clients.
type Sample struct {
	Ticker    string
	Timestamp time.Time
	Price     float64
	Signal    int
}

// Merge concatenates the given fragments in argument order, drops duplicate
// timestamps keeping the first-encountered point, and sorts ascending. Fetch
// results from the historical source must be passed before the live source so
// that historical closes win timestamp ties.
func Merge(ticker string, fragments ...[]Point) *TimeSeries {
	total := 0
	for _, f := range fragments {
		total += len(f)
	}

	seen := make(map[time.Time]struct{}, total)
	points := make([]Point, 0, total)
	for _, f := range fragments {
		for _, p := range f {
			if _, dup := seen[p.Timestamp]; dup {
				continue
			}
			seen[p.Timestamp] = struct{}{}
			points = append(points, p)
		}
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})

	return &TimeSeries{Ticker: ticker, Points: points}
}

// Len returns the number of price points.
func (ts *TimeSeries) Len() int {
	return len(ts.Points)
}

// Nearest resolves a query timestamp to the sample whose timestamp has the
// smallest absolute distance to t, ties broken by the earlier index. A query
// far outside the available range still resolves to the boundary sample.
func (ts *TimeSeries) Nearest(t time.Time) (Sample, error) {
	if len(ts.Points) == 0 {
		return Sample{}, ErrEmptySeries
	}

	best := 0
	bestDist := absDuration(ts.Points[0].Timestamp.Sub(t))
	for i := 1; i < len(ts.Points); i++ {
		d := absDuration(ts.Points[i].Timestamp.Sub(t))
		if d < bestDist {
			best = i
			bestDist = d
		}
	}

	s := Sample{
		Ticker:    ts.Ticker,
		Timestamp: ts.Points[best].Timestamp,
		Price:     ts.Points[best].Price,
	}
	if best < len(ts.Signal) {
		s.Signal = ts.Signal[best]
	}
	return s, nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// NaNSlice returns a float column of length n with every entry undefined.
func NaNSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}
