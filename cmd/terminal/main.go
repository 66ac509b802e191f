// Package main is the entry point for the terminal dashboard, a read-only
// view over the trade database.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/polyinsider/sonar/internal/config"
	"github.com/polyinsider/sonar/internal/logging"
	"github.com/polyinsider/sonar/internal/store"
	"github.com/polyinsider/sonar/internal/ui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// The dashboard owns the terminal, so keep the logger quiet unless
	// something goes wrong.
	logging.Setup("WARN")

	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required for the dashboard")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("store_init_failed", "error", err)
		os.Exit(1)
	}
	defer pg.Close()

	app := ui.NewApp(pg, cfg.UIRefreshRate, cfg.WhaleAlertUSD, cfg.MinAlertScore)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		app.Stop()
	}()

	if err := app.Run(); err != nil {
		slog.Error("dashboard_failed", "error", err)
		os.Exit(1)
	}
}
