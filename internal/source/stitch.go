package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/L-Dinosaur/trading-server/internal/series"
	"github.com/L-Dinosaur/trading-server/internal/util"
)

// retryBaseDelay is the initial backoff between fetch attempts.
const retryBaseDelay = 500 * time.Millisecond

// Stitcher merges the historical and live sources into one de-duplicated,
// sorted series per symbol. The server may be queried during or outside a
// trading day: during the day the live quote extends the historical window
// up to now; outside it the live quote duplicates an already-closed day and
// the historical close wins the timestamp tie.
type Stitcher struct {
	hist       Source
	live       Source
	limiter    *util.RateLimiter
	maxRetries int
	log        *slog.Logger
}

// NewStitcher creates a Stitcher over the two sources with the given fetch
// discipline.
func NewStitcher(hist, live Source, rateLimitPerMin, maxRetries int) *Stitcher {
	return &Stitcher{
		hist:       hist,
		live:       live,
		limiter:    util.NewRateLimiter(rateLimitPerMin),
		maxRetries: maxRetries,
		log:        slog.Default().With("component", "stitcher"),
	}
}

// Pull fetches both sources for symbol and merges the fragments,
// historical first so its closes win duplicate timestamps. Either fetch
// failing fails the whole pull; the caller decides policy.
func (st *Stitcher) Pull(ctx context.Context, symbol string) (*series.TimeSeries, error) {
	histPoints, err := st.fetch(ctx, st.hist, symbol)
	if err != nil {
		return nil, err
	}
	livePoints, err := st.fetch(ctx, st.live, symbol)
	if err != nil {
		return nil, err
	}

	merged := series.Merge(symbol, histPoints, livePoints)
	st.log.Debug("pulled symbol",
		"symbol", symbol,
		"historical", len(histPoints),
		"live", len(livePoints),
		"merged", merged.Len(),
	)
	return merged, nil
}

// fetch applies the rate limit and bounded retry around a single source
// fetch and tags failures as retrieval errors.
func (st *Stitcher) fetch(ctx context.Context, src Source, symbol string) ([]series.Point, error) {
	var points []series.Point
	err := util.Retry(ctx, st.maxRetries, retryBaseDelay, func() error {
		if err := st.limiter.Wait(ctx); err != nil {
			return err
		}
		var ferr error
		points, ferr = src.Fetch(ctx, symbol)
		if ferr != nil {
			st.log.Warn("fetch failed", "source", src.Name(), "symbol", symbol, "err", ferr)
		}
		return ferr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s for %s: %w", ErrRetrieval, src.Name(), symbol, err)
	}
	return points, nil
}
