package watch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/polyinsider/sonar/internal/detector"
	"github.com/polyinsider/sonar/internal/store"
)

// SignalScanner periodically runs the pattern detectors over the recent
// tape and broadcasts anything new.
type SignalScanner struct {
	st        store.Store
	notifiers []Notifier
	interval  time.Duration
	dedup     *detector.Dedup
	now       func() time.Time
}

// NewSignalScanner creates a scanner over st delivering to notifiers.
func NewSignalScanner(st store.Store, notifiers []Notifier, interval time.Duration) *SignalScanner {
	return &SignalScanner{
		st:        st,
		notifiers: notifiers,
		interval:  interval,
		dedup:     detector.NewDedup(detector.DefaultDedupTTL),
		now:       time.Now,
	}
}

// Run scans at the configured interval until ctx is cancelled.
func (s *SignalScanner) Run(ctx context.Context) error {
	slog.Info("signal_scanner_started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.ScanOnce(ctx); err != nil {
				slog.Warn("signal_scan_failed", "error", err)
			}
		}
	}
}

// ScanOnce fetches the lookback window, runs every detector, and broadcasts
// signals not seen before.
func (s *SignalScanner) ScanOnce(ctx context.Context) error {
	now := s.now()
	trades, err := s.st.TradesSince(ctx, now.Add(-detector.VelocityLookback))
	if err != nil {
		return fmt.Errorf("load scan window: %w", err)
	}

	for _, sig := range detector.Scan(trades, now) {
		if !s.dedup.FirstSeen(sig.Key) {
			continue
		}
		slog.Info("signal_detected", "type", sig.Type, "market", sig.Market)
		for _, n := range s.notifiers {
			if err := n.SendText(ctx, "📡 "+sig.Summary); err != nil {
				slog.Warn("signal_delivery_failed", "channel", n.Name(), "type", sig.Type, "error", err)
			}
		}
	}
	return nil
}
