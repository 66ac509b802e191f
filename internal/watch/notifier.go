// Package watch polls the store for fresh high-score trades and composite
// signals and delivers them to notification channels. It runs as a separate
// process from the ingestion engine and only ever reads trade data.
package watch

import (
	"context"
	"log/slog"

	"github.com/polyinsider/sonar/internal/store"
)

// Notifier delivers alerts to one destination.
type Notifier interface {
	// Name identifies the channel in logs.
	Name() string
	// SendAlert delivers a formatted single-trade alert.
	SendAlert(ctx context.Context, t store.Trade) error
	// SendText delivers a preformatted message (digests, signals).
	SendText(ctx context.Context, text string) error
}

// LogNotifier writes alerts to the structured log. Used when no channel
// credentials are configured so the watcher still surfaces everything.
type LogNotifier struct{}

func (LogNotifier) Name() string { return "log" }

func (LogNotifier) SendAlert(_ context.Context, t store.Trade) error {
	slog.Info("alert",
		"market", t.MarketName,
		"outcome", t.Outcome,
		"side", t.Side,
		"usd_value", t.USDValue,
		"price", t.Price,
		"score", t.Score,
		"reasons", t.Alert,
	)
	return nil
}

func (LogNotifier) SendText(_ context.Context, text string) error {
	slog.Info("notification", "text", text)
	return nil
}
