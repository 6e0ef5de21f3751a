package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/L-Dinosaur/trading-server/internal/analytics"
	"github.com/L-Dinosaur/trading-server/internal/config"
	"github.com/L-Dinosaur/trading-server/internal/report"
	"github.com/L-Dinosaur/trading-server/internal/server"
	"github.com/L-Dinosaur/trading-server/internal/source"
	"github.com/L-Dinosaur/trading-server/internal/util"
)

func main() {
	tickers := flag.String("t", "IBM,AAPL,GME", "comma-separated symbols to track at startup")
	port := flag.Int("p", 0, "listen port (overrides config)")
	flag.Parse()

	// Provider credentials may live in a local .env; absence is fine.
	_ = godotenv.Load()

	cfgPath := "config/trading.yaml"
	if p := os.Getenv("TRADING_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	cal := util.NewTradingCalendar()

	hist, live, err := source.FromConfig(cfg.Sources, cfg.IntervalMinutes, cal)
	if err != nil {
		log.Fatalf("failed to build quote sources: %v", err)
	}
	stitcher := source.NewStitcher(hist, live, cfg.Sources.RateLimitPerMin, cfg.Sources.MaxRetries)

	snapshot, err := report.FromConfig(cfg.Snapshot, cal.Location())
	if err != nil {
		log.Fatalf("failed to build snapshot writer: %v", err)
	}
	defer snapshot.Close()

	dispatcher := server.NewDispatcher(server.NewState(), stitcher, analytics.NewEngine(cfg.IntervalMinutes), snapshot, cal)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	symbols := splitSymbols(*tickers)
	slog.Info("bootstrapping tracked symbols", "symbols", symbols, "interval", cfg.IntervalMinutes)
	if err := dispatcher.Bootstrap(ctx, symbols); err != nil {
		log.Fatalf("bootstrap failed: %v", err)
	}

	srv := server.NewServer(cfg.Server.Host, cfg.Server.Port, dispatcher)
	if err := srv.Listen(); err != nil {
		log.Fatalf("failed to listen: %v", err)
	}
	if err := srv.Serve(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
	slog.Info("server stopped")
}

func splitSymbols(s string) []string {
	var out []string
	for _, sym := range strings.Split(s, ",") {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym != "" {
			out = append(out, sym)
		}
	}
	return out
}
