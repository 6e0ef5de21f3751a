// Package server holds the shared server state, the request dispatcher that
// mutates it, and the TCP listener servicing one request per connection.
package server

import (
	"errors"

	"github.com/L-Dinosaur/trading-server/internal/series"
)

// ErrUnknownSymbol tags operations against a symbol that is not tracked.
var ErrUnknownSymbol = errors.New("symbol not tracked")

// ErrDuplicateSymbol tags an add for a symbol that is already tracked.
var ErrDuplicateSymbol = errors.New("symbol already tracked")

// State is the symbol → series mapping plus the ordered tracked-symbol set.
// It performs no locking of its own: the dispatcher is the sole mutator and
// serializes access.
type State struct {
	tickers []string
	series  map[string]*series.TimeSeries
}

// NewState creates an empty State.
func NewState() *State {
	return &State{series: make(map[string]*series.TimeSeries)}
}

// Tickers returns a copy of the tracked symbols in insertion order.
func (s *State) Tickers() []string {
	out := make([]string, len(s.tickers))
	copy(out, s.tickers)
	return out
}

// Len returns the number of tracked symbols.
func (s *State) Len() int {
	return len(s.tickers)
}

// Tracked reports whether symbol is in the tracked set.
func (s *State) Tracked(symbol string) bool {
	_, ok := s.series[symbol]
	return ok
}

// Series returns the series for symbol.
func (s *State) Series(symbol string) (*series.TimeSeries, bool) {
	ts, ok := s.series[symbol]
	return ts, ok
}

// Put appends symbol to the tracked set and installs its series. It fails
// if the symbol is already tracked.
func (s *State) Put(symbol string, ts *series.TimeSeries) error {
	if s.Tracked(symbol) {
		return ErrDuplicateSymbol
	}
	s.tickers = append(s.tickers, symbol)
	s.series[symbol] = ts
	return nil
}

// Replace swaps in a fresh series for an already-tracked symbol.
func (s *State) Replace(symbol string, ts *series.TimeSeries) error {
	if !s.Tracked(symbol) {
		return ErrUnknownSymbol
	}
	s.series[symbol] = ts
	return nil
}

// Remove deletes symbol from the tracked set and the series map.
func (s *State) Remove(symbol string) error {
	if !s.Tracked(symbol) {
		return ErrUnknownSymbol
	}
	delete(s.series, symbol)
	for i, t := range s.tickers {
		if t == symbol {
			s.tickers = append(s.tickers[:i], s.tickers[i+1:]...)
			break
		}
	}
	return nil
}

// AllSeries returns every tracked series in insertion order.
func (s *State) AllSeries() []*series.TimeSeries {
	out := make([]*series.TimeSeries, 0, len(s.tickers))
	for _, t := range s.tickers {
		out = append(out, s.series[t])
	}
	return out
}
