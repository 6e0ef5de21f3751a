// Package tsclient provides a Go SDK for the trading-server request
// protocol: one TCP connection per request, one JSON frame in each
// direction, frames capped at the transport packet size.
package tsclient

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/L-Dinosaur/trading-server/internal/protocol"
)

// Client issues requests against a running trading-server instance.
type Client struct {
	addr    string
	dialer  net.Dialer
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-request I/O timeout (default 30s).
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// NewClient creates a client for the server at addr ("host:port").
func NewClient(addr string, opts ...Option) *Client {
	c := &Client{
		addr:    addr,
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Quote is one tracked symbol's row from a data response.
type Quote struct {
	Ticker string
	Price  float64
	Signal int
}

// Data returns the tracked symbols with their prices and signals resolved
// to the series row nearest the given timestamp.
func (c *Client) Data(ctx context.Context, ts time.Time) ([]Quote, error) {
	resp, err := c.do(ctx, protocol.Query{
		Instruction: protocol.InstData,
		Argument:    ts.Format(protocol.TimestampLayout),
	})
	if err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("data response carried no payload")
	}
	quotes := make([]Quote, len(resp.Data.Ticker))
	for i, sym := range resp.Data.Ticker {
		quotes[i] = Quote{Ticker: sym, Price: resp.Data.Price[i], Signal: resp.Data.Signal[i]}
	}
	return quotes, nil
}

// Add asks the server to start tracking symbol. The returned string is the
// server's status message.
func (c *Client) Add(ctx context.Context, symbol string) (string, error) {
	resp, err := c.do(ctx, protocol.Query{Instruction: protocol.InstAdd, Argument: symbol})
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Delete asks the server to stop tracking symbol.
func (c *Client) Delete(ctx context.Context, symbol string) (string, error) {
	resp, err := c.do(ctx, protocol.Query{Instruction: protocol.InstDelete, Argument: symbol})
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Report asks the server to refresh every tracked series from its sources
// and rewrite the snapshot file.
func (c *Client) Report(ctx context.Context) error {
	_, err := c.do(ctx, protocol.Query{Instruction: protocol.InstReport})
	return err
}

// do performs one request/response exchange on a fresh connection. A
// response with an error result is surfaced as a Go error carrying the
// server's message.
func (c *Client) do(ctx context.Context, q protocol.Query) (protocol.Response, error) {
	raw, err := protocol.EncodeQuery(q)
	if err != nil {
		return protocol.Response{}, fmt.Errorf("encoding %s request: %w", q.Instruction, err)
	}
	if len(raw) > protocol.MaxPacketSize {
		return protocol.Response{}, fmt.Errorf("%s request exceeds %d-byte frame", q.Instruction, protocol.MaxPacketSize)
	}

	conn, err := c.dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return protocol.Response{}, fmt.Errorf("connecting to %s: %w", c.addr, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetDeadline(deadline)

	if _, err := conn.Write(raw); err != nil {
		return protocol.Response{}, fmt.Errorf("sending %s request: %w", q.Instruction, err)
	}

	raw, err = protocol.ReadFrame(conn)
	if err != nil {
		if err == io.EOF {
			return protocol.Response{}, fmt.Errorf("server closed the connection without a response")
		}
		return protocol.Response{}, fmt.Errorf("reading %s response: %w", q.Instruction, err)
	}

	resp, err := protocol.DecodeResponse(raw)
	if err != nil {
		return protocol.Response{}, err
	}
	if resp.Result == protocol.ResultError {
		return resp, fmt.Errorf("server rejected %s request: %s", q.Instruction, resp.Message)
	}
	return resp, nil
}
