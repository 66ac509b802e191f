// Package main is the entry point for the alert watcher. It polls the trade
// table for fresh high-score trades and composite signals and forwards them
// to Telegram and Discord.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/polyinsider/sonar/internal/config"
	"github.com/polyinsider/sonar/internal/logging"
	"github.com/polyinsider/sonar/internal/store"
	"github.com/polyinsider/sonar/internal/watch"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.LogLevel)

	slog.Info("watcher starting", "version", "1.0.0")
	slog.Info("config_loaded",
		"check_interval", cfg.CheckInterval,
		"min_alert_score", cfg.MinAlertScore,
		"min_alert_usd", cfg.MinAlertUSD,
		"digest_interval", cfg.DigestInterval,
		"signal_scan_interval", cfg.SignalScanInterval,
		"telegram_token", cfg.MaskedTelegramToken(),
		"discord_webhook", cfg.MaskedDiscordWebhook(),
	)

	// The watcher is a separate process; it can only see trades through a
	// shared database.
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required for the watcher")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		slog.Info("shutdown_signal_received", "signal", sig.String())
		cancel()
	}()

	pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("store_init_failed", "error", err)
		os.Exit(1)
	}
	defer pg.Close()
	if err := pg.Migrate(ctx); err != nil {
		slog.Error("migrate_failed", "error", err)
		os.Exit(1)
	}

	notifiers := buildNotifiers(cfg)

	watcher := watch.NewWatcher(watch.Options{
		CheckInterval:  cfg.CheckInterval,
		MinAlertScore:  cfg.MinAlertScore,
		MinAlertUSD:    cfg.MinAlertUSD,
		DigestInterval: cfg.DigestInterval,
		WhaleUSD:       cfg.WhaleAlertUSD,
	}, pg, notifiers)

	scanner := watch.NewSignalScanner(pg, notifiers, cfg.SignalScanInterval)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := watcher.Run(ctx); err != nil {
			slog.Error("watcher_failed", "error", err)
			cancel()
		}
	}()
	go func() {
		defer wg.Done()
		if err := scanner.Run(ctx); err != nil {
			slog.Error("signal_scanner_failed", "error", err)
			cancel()
		}
	}()
	wg.Wait()

	slog.Info("shutdown_complete", "alerted", watcher.Alerted())
}

// buildNotifiers assembles the channels the configuration enables. With no
// credentials the watcher degrades to log-only alerts.
func buildNotifiers(cfg *config.Config) []watch.Notifier {
	var notifiers []watch.Notifier

	if cfg.HasTelegram() {
		notifiers = append(notifiers, watch.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
		slog.Info("telegram_enabled", "chat_id", cfg.TelegramChatID)
	}
	if cfg.HasDiscord() {
		notifiers = append(notifiers, watch.NewDiscordNotifier(cfg.DiscordWebhookURL, cfg.WhaleAlertUSD))
		slog.Info("discord_enabled")
	}
	if len(notifiers) == 0 {
		slog.Warn("no notification credentials configured, alerts will be logged only")
		notifiers = append(notifiers, watch.LogNotifier{})
	}

	return notifiers
}
