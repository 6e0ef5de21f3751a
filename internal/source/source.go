// Package source provides the quote data-source adapters and the stitch
// pipeline that merges their output into one series per symbol.
//
// Two capabilities exist: a historical intraday source returning a trailing
// window of fixed-interval closes, and a latest-quote source whose single
// observation is flat-filled back to the session open. Each capability has
// an HTTP provider (Alpha Vantage, Finnhub) and an Alpaca SDK provider.
package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/L-Dinosaur/trading-server/internal/config"
	"github.com/L-Dinosaur/trading-server/internal/series"
	"github.com/L-Dinosaur/trading-server/internal/util"
)

// ErrRetrieval tags any fetch failure: network errors, non-OK status, and
// unexpected response shapes.
var ErrRetrieval = errors.New("source: retrieval failed")

// Source fetches and normalizes raw quote data for one symbol into a price
// fragment. Fragment ordering is not guaranteed; the stitch pipeline sorts.
type Source interface {
	// Name returns the provider identifier (e.g. "alphavantage").
	Name() string

	// Fetch retrieves raw data for symbol and normalizes it into points.
	Fetch(ctx context.Context, symbol string) ([]series.Point, error)
}

// flatFill synthesizes a dense index from the session open up to quoteTime
// at the given interval and fills every slot with the single observed
// price. No interpolation: every slot gets exactly the latest known price.
// A quote before the session open, or dated on a non-trading day (weekend
// or exchange holiday), yields an empty fragment; the merged series then
// carries the historical closes alone.
func flatFill(price float64, quoteTime time.Time, intervalMinutes int, cal *util.TradingCalendar) []series.Point {
	quoteTime = quoteTime.In(cal.Location())
	if !cal.IsTradingDay(quoteTime) {
		return nil
	}
	step := time.Duration(intervalMinutes) * time.Minute

	var points []series.Point
	for t := cal.SessionOpen(quoteTime); !t.After(quoteTime); t = t.Add(step) {
		points = append(points, series.Point{Timestamp: t, Price: price})
	}
	return points
}

// FromConfig constructs the historical and live sources selected by cfg.
func FromConfig(cfg config.Sources, intervalMinutes int, cal *util.TradingCalendar) (hist, live Source, err error) {
	switch cfg.Historical.Name {
	case "alphavantage":
		hist = NewAlphaVantage(cfg.Historical.URL, cfg.Historical.Key, intervalMinutes, cal)
	case "alpaca":
		hist = NewAlpacaBars(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL, intervalMinutes, cal)
	default:
		return nil, nil, fmt.Errorf("unknown historical provider %q", cfg.Historical.Name)
	}

	switch cfg.Live.Name {
	case "finnhub":
		live = NewFinnhub(cfg.Live.URL, cfg.Live.Key, intervalMinutes, cal)
	case "alpaca":
		live = NewAlpacaLatest(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL, intervalMinutes, cal)
	default:
		return nil, nil, fmt.Errorf("unknown live provider %q", cfg.Live.Name)
	}
	return hist, live, nil
}
