package watch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/polyinsider/sonar/internal/store"
)

// PollLimit caps the trades fetched per poll so a backlog after downtime
// drains over several passes instead of flooding the channels.
const PollLimit = 20

// Options configures a Watcher.
type Options struct {
	CheckInterval  time.Duration
	MinAlertScore  float64
	MinAlertUSD    float64
	DigestInterval time.Duration // 0 disables the periodic digest
	WhaleUSD       float64
}

// Watcher tails the trade table by id and forwards qualifying trades to its
// notifiers. The cursor only ever moves forward, so a trade is alerted at
// most once even when a channel delivery fails.
type Watcher struct {
	opts      Options
	st        store.Store
	notifiers []Notifier

	lastSeenID int64
	lastDigest time.Time
	alerted    int64
}

// NewWatcher creates a watcher over st delivering to notifiers.
func NewWatcher(opts Options, st store.Store, notifiers []Notifier) *Watcher {
	return &Watcher{
		opts:      opts,
		st:        st,
		notifiers: notifiers,
	}
}

// Run seeds the cursor at the current maximum trade id, announces startup,
// and polls until ctx is cancelled. Only trades inserted after startup are
// ever alerted.
func (w *Watcher) Run(ctx context.Context) error {
	maxID, err := w.st.MaxTradeID(ctx)
	if err != nil {
		return fmt.Errorf("seed cursor: %w", err)
	}
	w.lastSeenID = maxID
	w.lastDigest = time.Now()

	slog.Info("watcher_started",
		"cursor", w.lastSeenID,
		"min_score", w.opts.MinAlertScore,
		"min_usd", w.opts.MinAlertUSD,
		"channels", w.channelNames(),
	)
	w.broadcast(ctx, "🟢 Sonar watcher online, tracking high-score trades.")

	ticker := time.NewTicker(w.opts.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.Poll(ctx); err != nil {
				slog.Warn("poll_failed", "error", err)
			}
			w.maybeDigest(ctx, time.Now())
		}
	}
}

// Poll runs one cursor pass: fetch trades past the cursor that clear both
// alert thresholds, deliver each, and advance the cursor. The cursor
// advances past delivery failures; a flaky channel must not re-alert the
// same trade forever.
func (w *Watcher) Poll(ctx context.Context) error {
	trades, err := w.st.TradesAfter(ctx, w.lastSeenID, w.opts.MinAlertScore, w.opts.MinAlertUSD, PollLimit)
	if err != nil {
		return fmt.Errorf("trades after %d: %w", w.lastSeenID, err)
	}

	for _, t := range trades {
		alertID := uuid.NewString()
		for _, n := range w.notifiers {
			if err := n.SendAlert(ctx, t); err != nil {
				slog.Warn("alert_delivery_failed",
					"alert_id", alertID,
					"channel", n.Name(),
					"trade_id", t.ID,
					"error", err,
				)
				continue
			}
			slog.Info("alert_sent",
				"alert_id", alertID,
				"channel", n.Name(),
				"trade_id", t.ID,
				"market", t.MarketName,
				"usd_value", t.USDValue,
				"score", t.Score,
			)
		}
		w.alerted++
		if t.ID > w.lastSeenID {
			w.lastSeenID = t.ID
		}
	}
	return nil
}

// maybeDigest sends the periodic summary when the interval has elapsed.
func (w *Watcher) maybeDigest(ctx context.Context, now time.Time) {
	if w.opts.DigestInterval <= 0 || now.Sub(w.lastDigest) < w.opts.DigestInterval {
		return
	}

	sum, err := w.st.Summary(ctx, w.lastDigest, w.opts.WhaleUSD)
	if err != nil {
		slog.Warn("digest_summary_failed", "error", err)
		return
	}

	w.broadcast(ctx, formatDigest(sum, w.lastDigest, now))
	w.lastDigest = now
	slog.Info("digest_sent", "trade_count", sum.TradeCount, "volume_usd", sum.VolumeUSD)
}

// broadcast sends text to every channel, logging failures.
func (w *Watcher) broadcast(ctx context.Context, text string) {
	for _, n := range w.notifiers {
		if err := n.SendText(ctx, text); err != nil {
			slog.Warn("broadcast_failed", "channel", n.Name(), "error", err)
		}
	}
}

func (w *Watcher) channelNames() []string {
	names := make([]string, 0, len(w.notifiers))
	for _, n := range w.notifiers {
		names = append(names, n.Name())
	}
	return names
}

// Cursor reports the current cursor position.
func (w *Watcher) Cursor() int64 {
	return w.lastSeenID
}

// Alerted reports the number of trades alerted since startup.
func (w *Watcher) Alerted() int64 {
	return w.alerted
}
