// Package main is the entry point for the sonar ingestion engine.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/polyinsider/sonar/internal/config"
	"github.com/polyinsider/sonar/internal/discovery"
	"github.com/polyinsider/sonar/internal/ingest"
	"github.com/polyinsider/sonar/internal/logging"
	"github.com/polyinsider/sonar/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.LogLevel)

	slog.Info("sonar starting", "version", "1.0.0")
	slog.Info("config_loaded",
		"polymarket_ws_url", cfg.PolymarketWSURL,
		"gamma_api_url", cfg.GammaAPIURL,
		"min_trade_usd", cfg.MinTradeUSD,
		"top_n_markets", cfg.TopNMarkets,
		"reconnect_delay", cfg.ReconnectDelay,
		"rediscover_interval", cfg.RediscoverInterval,
		"database", cfg.DatabaseURL != "",
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		slog.Info("shutdown_signal_received", "signal", sig.String())
		cancel()
	}()

	st, cleanup, err := openStore(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("store_init_failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	discoverer := discovery.NewDiscoverer(cfg.GammaAPIURL, cfg.TopNMarkets, st)

	sonar := ingest.New(ingest.Options{
		WSURL:              cfg.PolymarketWSURL,
		MinTradeUSD:        cfg.MinTradeUSD,
		ReconnectDelay:     cfg.ReconnectDelay,
		RediscoverInterval: cfg.RediscoverInterval,
	}, discoverer, st)

	if err := sonar.Run(ctx); err != nil {
		slog.Error("sonar_failed", "error", err)
		os.Exit(1)
	}

	ingested, rejected, reconnects := sonar.Stats()
	slog.Info("shutdown_complete",
		"ingested", ingested,
		"rejected", rejected,
		"reconnects", reconnects,
	)
}

// openStore connects to Postgres when DATABASE_URL is set, otherwise falls
// back to the in-memory store for standalone runs.
func openStore(ctx context.Context, dsn string) (store.Store, func(), error) {
	if dsn == "" {
		slog.Warn("no DATABASE_URL set, using in-memory store; watchers and dashboard will not see trades")
		return store.NewMemoryStore(), func() {}, nil
	}

	pg, err := store.NewPostgresStore(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := pg.Migrate(ctx); err != nil {
		pg.Close()
		return nil, nil, err
	}
	slog.Info("database_connected")
	return pg, pg.Close, nil
}
