package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/L-Dinosaur/trading-server/internal/analytics"
	"github.com/L-Dinosaur/trading-server/internal/protocol"
	"github.com/L-Dinosaur/trading-server/internal/report"
	"github.com/L-Dinosaur/trading-server/internal/series"
	"github.com/L-Dinosaur/trading-server/internal/util"
)

// Puller produces a fresh merged series for one symbol. Satisfied by
// source.Stitcher.
type Puller interface {
	Pull(ctx context.Context, symbol string) (*series.TimeSeries, error)
}

// Dispatcher translates one request into a query or mutation against the
// shared state and produces exactly one response. It is stateless between
// requests; each request is handled atomically under the dispatcher lock,
// which is the single mutual-exclusion boundary around State.
type Dispatcher struct {
	mu       sync.RWMutex
	state    *State
	puller   Puller
	engine   *analytics.Engine
	snapshot report.Writer
	cal      *util.TradingCalendar
	log      *slog.Logger
}

// NewDispatcher wires a Dispatcher over the given collaborators.
func NewDispatcher(state *State, puller Puller, engine *analytics.Engine, snapshot report.Writer, cal *util.TradingCalendar) *Dispatcher {
	return &Dispatcher{
		state:    state,
		puller:   puller,
		engine:   engine,
		snapshot: snapshot,
		cal:      cal,
		log:      slog.Default().With("component", "dispatcher"),
	}
}

// Bootstrap pulls, computes, and installs every configured ticker, then
// writes the initial snapshot. Unlike Add, a failure here is fatal: the
// server does not start half-initialized.
func (d *Dispatcher) Bootstrap(ctx context.Context, tickers []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, ticker := range tickers {
		ts, err := d.puller.Pull(ctx, ticker)
		if err != nil {
			return fmt.Errorf("bootstrapping %s: %w", ticker, err)
		}
		d.engine.Compute(ts)
		if err := d.state.Put(ticker, ts); err != nil {
			return fmt.Errorf("bootstrapping %s: %w", ticker, err)
		}
		d.log.Info("ticker initialized", "ticker", ticker, "samples", ts.Len())
	}

	if err := d.snapshot.Write(report.Flatten(d.state.AllSeries())); err != nil {
		return fmt.Errorf("writing initial snapshot: %w", err)
	}
	return nil
}

// Handle services one raw request frame and returns the raw response frame.
// Every failure becomes an error response; Handle never drops a request.
func (d *Dispatcher) Handle(ctx context.Context, raw []byte) []byte {
	q, err := protocol.DecodeQuery(raw)
	if err != nil || !q.Instruction.Valid() {
		return d.seal(protocol.NewErrorResponse(protocol.InstUnknown, "Undefined Instruction"))
	}

	var resp protocol.Response
	switch q.Instruction {
	case protocol.InstData:
		resp = d.handleData(q.Argument)
	case protocol.InstAdd:
		resp = d.handleAdd(ctx, q.Argument)
	case protocol.InstDelete:
		resp = d.handleDelete(q.Argument)
	case protocol.InstReport:
		resp = d.handleReport(ctx)
	}
	return d.seal(resp)
}

// seal serializes a response and applies the frame-limit fallback. The size
// check happens after serialization, never by estimate.
func (d *Dispatcher) seal(resp protocol.Response) []byte {
	raw, err := protocol.EncodeResponse(resp)
	if err == nil && len(raw) <= protocol.MaxPacketSize {
		return raw
	}
	if err != nil {
		d.log.Error("encoding response", "err", err)
	} else {
		d.log.Warn("response exceeds frame limit", "size", len(raw), "instruction", resp.Instruction)
	}
	raw, _ = protocol.EncodeResponse(
		protocol.NewErrorResponse(resp.Instruction, "Response payload too large."))
	return raw
}

// handleData resolves the query timestamp to the nearest sample of every
// tracked symbol. Any per-symbol failure fails the whole request; no
// partial payloads.
func (d *Dispatcher) handleData(arg string) protocol.Response {
	// Query timestamps are naive exchange-local time, like the series index.
	t, err := protocol.ParseTimestamp(arg, d.cal.Location())
	if err != nil {
		return protocol.NewErrorResponse(protocol.InstData,
			fmt.Sprintf("Unable to parse timestamp %q, expected %s", arg, protocol.TimestampLayout))
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.state.Len() == 0 {
		return protocol.NewErrorResponse(protocol.InstData, "No tickers tracked")
	}

	payload := &protocol.DataPayload{}
	for _, ticker := range d.state.Tickers() {
		ts, _ := d.state.Series(ticker)
		sample, err := ts.Nearest(t)
		if err != nil {
			return protocol.NewErrorResponse(protocol.InstData,
				fmt.Sprintf("Unable to resolve %s: %v", ticker, err))
		}
		payload.Ticker = append(payload.Ticker, sample.Ticker)
		payload.Price = append(payload.Price, sample.Price)
		payload.Signal = append(payload.Signal, sample.Signal)
	}
	return protocol.NewDataResponse(payload)
}

// handleAdd tracks a new symbol. State is only mutated once the pull and
// compute both succeed, so a failed add leaves it exactly as before.
func (d *Dispatcher) handleAdd(ctx context.Context, symbol string) protocol.Response {
	if symbol == "" {
		return protocol.NewErrorResponse(protocol.InstAdd, "Unable to add ticker: no symbol given")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state.Tracked(symbol) {
		return protocol.NewErrorResponse(protocol.InstAdd,
			fmt.Sprintf("Unable to add ticker %s: already tracked", symbol))
	}

	ts, err := d.puller.Pull(ctx, symbol)
	if err != nil {
		d.log.Warn("add failed", "ticker", symbol, "err", err)
		return protocol.NewErrorResponse(protocol.InstAdd,
			fmt.Sprintf("Unable to add ticker %s", symbol))
	}
	d.engine.Compute(ts)

	if err := d.state.Put(symbol, ts); err != nil {
		return protocol.NewErrorResponse(protocol.InstAdd,
			fmt.Sprintf("Unable to add ticker %s", symbol))
	}
	d.log.Info("ticker added", "ticker", symbol, "samples", ts.Len())
	return protocol.NewStatusResponse(protocol.InstAdd,
		fmt.Sprintf("Successfully added ticker %s", symbol))
}

// handleDelete removes a tracked symbol and its series.
func (d *Dispatcher) handleDelete(symbol string) protocol.Response {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.state.Remove(symbol); err != nil {
		return protocol.NewErrorResponse(protocol.InstDelete,
			fmt.Sprintf("Unable to delete ticker %s", symbol))
	}
	d.log.Info("ticker deleted", "ticker", symbol)
	return protocol.NewStatusResponse(protocol.InstDelete,
		fmt.Sprintf("Successfully deleted ticker %s", symbol))
}

// handleReport re-pulls and recomputes every tracked symbol, then persists
// the snapshot. All pulls complete into fresh series before any are
// installed, so a mid-refresh failure leaves the previous state intact.
func (d *Dispatcher) handleReport(ctx context.Context) protocol.Response {
	d.mu.Lock()
	defer d.mu.Unlock()

	fresh := make(map[string]*series.TimeSeries, d.state.Len())
	for _, ticker := range d.state.Tickers() {
		ts, err := d.puller.Pull(ctx, ticker)
		if err != nil {
			d.log.Warn("refresh failed", "ticker", ticker, "err", err)
			return protocol.NewErrorResponse(protocol.InstReport,
				fmt.Sprintf("Unable to refresh ticker %s", ticker))
		}
		d.engine.Compute(ts)
		fresh[ticker] = ts
	}

	for ticker, ts := range fresh {
		if err := d.state.Replace(ticker, ts); err != nil {
			return protocol.NewErrorResponse(protocol.InstReport,
				fmt.Sprintf("Unable to refresh ticker %s", ticker))
		}
	}

	if err := d.snapshot.Write(report.Flatten(d.state.AllSeries())); err != nil {
		d.log.Error("snapshot write failed", "err", err)
		return protocol.NewErrorResponse(protocol.InstReport, "Unable to persist snapshot")
	}
	d.log.Info("report refreshed", "tickers", d.state.Len())
	return protocol.NewStatusResponse(protocol.InstReport, "")
}
