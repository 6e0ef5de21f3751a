package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/L-Dinosaur/trading-server/internal/series"
	"github.com/L-Dinosaur/trading-server/internal/util"
)

// Compile-time interface check.
var _ Source = (*AlphaVantage)(nil)

// avTimeLayout is the timestamp key format of the intraday time series,
// naive exchange-local time.
const avTimeLayout = "2006-01-02 15:04:05"

// AlphaVantage is the historical intraday source: a full trailing window
// (30 trading days) of fixed-interval closes per symbol. Only the close
// column is kept; open/high/low/volume are discarded.
type AlphaVantage struct {
	baseURL  string
	apiKey   string
	interval string // e.g. "30min"
	cal      *util.TradingCalendar
	client   *http.Client
}

// NewAlphaVantage creates an AlphaVantage source for the given endpoint and
// sampling interval.
func NewAlphaVantage(baseURL, apiKey string, intervalMinutes int, cal *util.TradingCalendar) *AlphaVantage {
	return &AlphaVantage{
		baseURL:  baseURL,
		apiKey:   apiKey,
		interval: fmt.Sprintf("%dmin", intervalMinutes),
		cal:      cal,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Name returns "alphavantage".
func (s *AlphaVantage) Name() string { return "alphavantage" }

// Fetch retrieves the trailing intraday window for symbol and keeps the
// close prices keyed by timestamp.
func (s *AlphaVantage) Fetch(ctx context.Context, symbol string) ([]series.Point, error) {
	u := s.buildURL(symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", s.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", s.Name(), resp.StatusCode)
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", s.Name(), err)
	}

	return normalizeIntraday(raw, s.interval, s.cal.Location())
}

// buildURL assembles the query URL: full output size, regular trading hours
// only.
func (s *AlphaVantage) buildURL(symbol string) string {
	q := url.Values{}
	q.Set("function", "TIME_SERIES_INTRADAY")
	q.Set("outputsize", "full")
	q.Set("extended_hours", "false")
	q.Set("interval", s.interval)
	q.Set("apikey", s.apiKey)
	q.Set("symbol", symbol)
	return strings.TrimSuffix(s.baseURL, "?") + "?" + q.Encode()
}

// normalizeIntraday extracts the close column from an intraday payload. The
// provider reports API problems as 200s with an explanatory field, so a
// missing time-series key surfaces that text.
func normalizeIntraday(raw map[string]json.RawMessage, interval string, loc *time.Location) ([]series.Point, error) {
	key := fmt.Sprintf("Time Series (%s)", interval)
	rows, ok := raw[key]
	if !ok {
		for _, k := range []string{"Error Message", "Note", "Information"} {
			if msg, found := raw[k]; found {
				return nil, fmt.Errorf("alphavantage: %s", strings.Trim(string(msg), `"`))
			}
		}
		return nil, fmt.Errorf("alphavantage: response missing %q", key)
	}

	var table map[string]map[string]string
	if err := json.Unmarshal(rows, &table); err != nil {
		return nil, fmt.Errorf("alphavantage: unexpected time-series shape: %w", err)
	}

	points := make([]series.Point, 0, len(table))
	for stamp, cols := range table {
		ts, err := time.ParseInLocation(avTimeLayout, stamp, loc)
		if err != nil {
			return nil, fmt.Errorf("alphavantage: bad timestamp %q: %w", stamp, err)
		}
		closeStr, ok := cols["4. close"]
		if !ok {
			return nil, fmt.Errorf("alphavantage: row %q missing close", stamp)
		}
		price, err := strconv.ParseFloat(closeStr, 64)
		if err != nil {
			return nil, fmt.Errorf("alphavantage: bad close %q: %w", closeStr, err)
		}
		points = append(points, series.Point{Timestamp: ts, Price: price})
	}
	return points, nil
}
