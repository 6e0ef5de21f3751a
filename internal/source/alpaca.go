package source

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"github.com/L-Dinosaur/trading-server/internal/series"
	"github.com/L-Dinosaur/trading-server/internal/util"
)

// Compile-time interface checks.
var _ Source = (*AlpacaBars)(nil)
var _ Source = (*AlpacaLatest)(nil)

// historicalLookbackDays is the trailing window pulled by the historical
// capability, matching the Alpha Vantage full output size.
const historicalLookbackDays = 30

func newMarketDataClient(apiKey, apiSecret, dataURL string) *marketdata.Client {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	return marketdata.NewClient(opts)
}

// AlpacaBars is the Alpaca-backed historical intraday source: fixed-interval
// bars over a trailing 30-day window, close column only.
type AlpacaBars struct {
	client          *marketdata.Client
	intervalMinutes int
	cal             *util.TradingCalendar
}

// NewAlpacaBars creates an AlpacaBars source with the given credentials.
func NewAlpacaBars(apiKey, apiSecret, dataURL string, intervalMinutes int, cal *util.TradingCalendar) *AlpacaBars {
	return &AlpacaBars{
		client:          newMarketDataClient(apiKey, apiSecret, dataURL),
		intervalMinutes: intervalMinutes,
		cal:             cal,
	}
}

// Name returns "alpaca-bars".
func (s *AlpacaBars) Name() string { return "alpaca-bars" }

// Fetch pulls intraday bars for symbol and keeps the close prices.
func (s *AlpacaBars) Fetch(ctx context.Context, symbol string) ([]series.Point, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	end := time.Now()
	bars, err := s.client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: marketdata.NewTimeFrame(s.intervalMinutes, marketdata.Min),
		Start:     end.AddDate(0, 0, -historicalLookbackDays),
		End:       end,
		Feed:      "iex",
	})
	if err != nil {
		return nil, fmt.Errorf("GetBars: %w", err)
	}

	points := make([]series.Point, 0, len(bars))
	for _, b := range bars {
		points = append(points, series.Point{
			Timestamp: b.Timestamp.In(s.cal.Location()),
			Price:     b.Close,
		})
	}
	return points, nil
}

// AlpacaLatest is the Alpaca-backed latest-quote source: the most recent
// trade price, flat-filled back to the session open like the Finnhub
// variant.
type AlpacaLatest struct {
	client          *marketdata.Client
	intervalMinutes int
	cal             *util.TradingCalendar
}

// NewAlpacaLatest creates an AlpacaLatest source with the given credentials.
func NewAlpacaLatest(apiKey, apiSecret, dataURL string, intervalMinutes int, cal *util.TradingCalendar) *AlpacaLatest {
	return &AlpacaLatest{
		client:          newMarketDataClient(apiKey, apiSecret, dataURL),
		intervalMinutes: intervalMinutes,
		cal:             cal,
	}
}

// Name returns "alpaca-latest".
func (s *AlpacaLatest) Name() string { return "alpaca-latest" }

// Fetch pulls the latest trade for symbol and flat-fills the trading day
// with it.
func (s *AlpacaLatest) Fetch(ctx context.Context, symbol string) ([]series.Point, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	trade, err := s.client.GetLatestTrade(symbol, marketdata.GetLatestTradeRequest{Feed: "iex"})
	if err != nil {
		return nil, fmt.Errorf("GetLatestTrade: %w", err)
	}

	return flatFill(trade.Price, trade.Timestamp, s.intervalMinutes, s.cal), nil
}
