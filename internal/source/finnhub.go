package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/L-Dinosaur/trading-server/internal/series"
	"github.com/L-Dinosaur/trading-server/internal/util"
)

// Compile-time interface check.
var _ Source = (*Finnhub)(nil)

// Finnhub is the latest-quote source. It fetches a single most-recent quote
// and back-fills a dense intraday index with it, flat, from the session
// open to the quote time.
type Finnhub struct {
	baseURL         string
	token           string
	intervalMinutes int
	cal             *util.TradingCalendar
	client          *http.Client
}

// NewFinnhub creates a Finnhub source for the given endpoint and sampling
// interval.
func NewFinnhub(baseURL, token string, intervalMinutes int, cal *util.TradingCalendar) *Finnhub {
	return &Finnhub{
		baseURL:         baseURL,
		token:           token,
		intervalMinutes: intervalMinutes,
		cal:             cal,
		client:          &http.Client{Timeout: 30 * time.Second},
	}
}

// Name returns "finnhub".
func (s *Finnhub) Name() string { return "finnhub" }

// fhQuote is the /quote response: current price and quote time in Unix
// seconds. Remaining fields are ignored.
type fhQuote struct {
	Current   float64 `json:"c"`
	QuoteTime int64   `json:"t"`
}

// Fetch retrieves the latest quote for symbol and flat-fills it back to the
// beginning of the trading day.
func (s *Finnhub) Fetch(ctx context.Context, symbol string) ([]series.Point, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("token", s.token)
	u := strings.TrimSuffix(s.baseURL, "?") + "?" + q.Encode()

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

	var quote fhQuote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", s.Name(), err)
	}
	if quote.QuoteTime == 0 {
		// Finnhub reports unknown symbols as an all-zero quote.
		return nil, fmt.Errorf("%s: no quote for %q", s.Name(), symbol)
	}

	return flatFill(quote.Current, time.Unix(quote.QuoteTime, 0), s.intervalMinutes, s.cal), nil
}
