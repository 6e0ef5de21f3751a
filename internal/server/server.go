package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/L-Dinosaur/trading-server/internal/protocol"
)

// readTimeout bounds how long a connected client may take to send its one
// request frame.
const readTimeout = 30 * time.Second

// Server accepts stream connections and services exactly one request per
// connection: read one frame, dispatch, write one response, close.
type Server struct {
	addr       string
	dispatcher *Dispatcher
	ln         net.Listener
	log        *slog.Logger
}

// NewServer creates a Server bound to host:port once Listen is called.
func NewServer(host string, port int, d *Dispatcher) *Server {
	return &Server{
		addr:       fmt.Sprintf("%s:%d", host, port),
		dispatcher: d,
		log:        slog.Default().With("component", "server"),
	}
}

// Listen opens the TCP listener.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	s.ln = ln
	return nil
}

// Addr returns the bound listener address. Valid after Listen.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Serve accepts connections until the context is cancelled. Each connection
// is serviced on its own goroutine; state access is serialized inside the
// dispatcher.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.ln.Close()
	}()

	s.log.Info("listening for requests", "addr", s.Addr())
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Warn("accept failed", "err", err)
			continue
		}
		go s.serveConn(ctx, conn)
	}
}

// serveConn reads one request frame and writes one response. A frame may
// arrive across several segments; an empty or failed read is discarded
// without a response, everything else gets exactly one reply.
func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	raw, err := protocol.ReadFrame(conn)
	if err != nil {
		return
	}

	resp := s.dispatcher.Handle(ctx, raw)
	if _, err := conn.Write(resp); err != nil {
		s.log.Warn("writing response", "err", err)
	}
}
