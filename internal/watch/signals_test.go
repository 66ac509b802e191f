package watch

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/polyinsider/sonar/internal/store"
)

func TestScanOnceBroadcastsNewSignals(t *testing.T) {
	st := store.NewMemoryStore()
	now := time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC)

	// Three buys on one market/outcome inside the accumulation window.
	for i, usd := range []float64{300, 500, 250} {
		_, err := st.InsertTrade(context.Background(), store.Trade{
			Timestamp:  now.Add(-time.Duration(i+2) * time.Minute),
			MarketID:   "tok-accum",
			MarketName: "Accumulating market",
			Outcome:    "YES",
			Side:       "BUY",
			Price:      0.40,
			Size:       usd / 0.40,
			USDValue:   usd,
			Score:      1.5,
		})
		if err != nil {
			t.Fatalf("InsertTrade failed: %v", err)
		}
	}

	fake := &fakeNotifier{name: "fake"}
	s := NewSignalScanner(st, []Notifier{fake}, time.Minute)
	s.now = func() time.Time { return now }

	if err := s.ScanOnce(context.Background()); err != nil {
		t.Fatalf("ScanOnce failed: %v", err)
	}

	texts := fake.sentTexts()
	if len(texts) != 1 {
		t.Fatalf("expected 1 signal broadcast, got %d: %v", len(texts), texts)
	}
	if !strings.Contains(texts[0], "ACCUMULATION") || !strings.Contains(texts[0], "Accumulating market") {
		t.Errorf("signal text = %q", texts[0])
	}

	// Same tape on the next pass: deduplicated.
	if err := s.ScanOnce(context.Background()); err != nil {
		t.Fatalf("second ScanOnce failed: %v", err)
	}
	if got := len(fake.sentTexts()); got != 1 {
		t.Errorf("signal rebroadcast despite dedup: %d", got)
	}
}

func TestScanOnceQuietTape(t *testing.T) {
	st := store.NewMemoryStore()
	fake := &fakeNotifier{name: "fake"}
	s := NewSignalScanner(st, []Notifier{fake}, time.Minute)

	if err := s.ScanOnce(context.Background()); err != nil {
		t.Fatalf("ScanOnce failed: %v", err)
	}
	if got := len(fake.sentTexts()); got != 0 {
		t.Errorf("quiet tape produced %d broadcasts", got)
	}
}
