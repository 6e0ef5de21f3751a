// Package protocol defines the request/response envelopes exchanged between
// client and server, one JSON blob per direction over a fresh stream
// connection.
package protocol

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// MaxPacketSize is the fixed transport frame limit in bytes. A serialized
// message may never exceed it.
const MaxPacketSize = 4096

// TimestampLayout is the wire format for data-query timestamp arguments.
const TimestampLayout = "2006-01-02-15:04"

// Instruction identifies the kind of request or response.
type Instruction string

const (
	InstData    Instruction = "data"
	InstAdd     Instruction = "add"
	InstDelete  Instruction = "delete"
	InstReport  Instruction = "report"
	InstUnknown Instruction = "unknown"
)

// Valid reports whether i is an instruction a client may send.
func (i Instruction) Valid() bool {
	switch i {
	case InstData, InstAdd, InstDelete, InstReport:
		return true
	}
	return false
}

// Result is the outcome tag on a response.
type Result string

const (
	ResultSuccess Result = "success"
	ResultError   Result = "error"
)

// Query is a single client request. Argument is the query timestamp for
// "data", the symbol for "add"/"delete", and empty for "report".
type Query struct {
	Instruction Instruction `json:"instruction"`
	Argument    string      `json:"argument,omitempty"`
}

// DataPayload maps column names to ordered per-symbol values for a data
// response. The three slices are index-aligned; Ticker identifies row
// ownership.
type DataPayload struct {
	Ticker []string  `json:"ticker"`
	Price  []float64 `json:"price"`
	Signal []int     `json:"signal"`
}

// Response is the single reply to a Query. Exactly one of Message and Data
// carries the payload, depending on the instruction and result.
type Response struct {
	Instruction Instruction  `json:"instruction"`
	Result      Result       `json:"result"`
	Message     string       `json:"message,omitempty"`
	Data        *DataPayload `json:"data,omitempty"`
}

// NewDataResponse builds a successful data response.
func NewDataResponse(payload *DataPayload) Response {
	return Response{Instruction: InstData, Result: ResultSuccess, Data: payload}
}

// NewStatusResponse builds a successful add/delete/report response with a
// human-readable status message.
func NewStatusResponse(inst Instruction, msg string) Response {
	return Response{Instruction: inst, Result: ResultSuccess, Message: msg}
}

// NewErrorResponse builds an error response tagged with the instruction that
// failed.
func NewErrorResponse(inst Instruction, msg string) Response {
	return Response{Instruction: inst, Result: ResultError, Message: msg}
}

// ParseTimestamp parses a data-query timestamp argument in loc. Arguments
// are naive exchange-local time, so the caller supplies the exchange
// location.
func ParseTimestamp(arg string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(TimestampLayout, arg, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", arg, err)
	}
	return t, nil
}

// DecodeQuery unmarshals one request frame.
func DecodeQuery(raw []byte) (Query, error) {
	var q Query
	if err := json.Unmarshal(raw, &q); err != nil {
		return Query{}, fmt.Errorf("decoding query: %w", err)
	}
	return q, nil
}

// EncodeQuery marshals a request frame.
func EncodeQuery(q Query) ([]byte, error) {
	return json.Marshal(q)
}

// DecodeResponse unmarshals one response frame.
func DecodeResponse(raw []byte) (Response, error) {
	var r Response
	if err := json.Unmarshal(raw, &r); err != nil {
		return Response{}, fmt.Errorf("decoding response: %w", err)
	}
	return r, nil
}

// EncodeResponse marshals a response frame.
func EncodeResponse(r Response) ([]byte, error) {
	return json.Marshal(r)
}

// ReadFrame reads one frame of at most MaxPacketSize bytes from r. Frames
// carry no length prefix, so the read loops until the accumulated bytes
// form a complete JSON value, the peer closes the connection, or the
// buffer fills. A stream may deliver a frame across several reads.
func ReadFrame(r io.Reader) ([]byte, error) {
	buf := make([]byte, MaxPacketSize)
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if n > 0 && json.Valid(buf[:n]) {
			return buf[:n], nil
		}
		if err != nil {
			if err == io.EOF && n > 0 {
				return buf[:n], nil
			}
			return nil, err
		}
	}
	return buf[:n], nil
}
