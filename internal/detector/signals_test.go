package detector

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/polyinsider/sonar/internal/store"
)

var scanNow = time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC)

func trade(minsAgo int, market, outcome, side string, price, usd float64) store.Trade {
	return store.Trade{
		Timestamp:  scanNow.Add(-time.Duration(minsAgo) * time.Minute),
		MarketID:   "tok-" + market,
		MarketName: market,
		Outcome:    outcome,
		Side:       side,
		Price:      price,
		Size:       usd / price,
		USDValue:   usd,
	}
}

func only(t *testing.T, signals []Signal, sigType string) []Signal {
	t.Helper()
	var out []Signal
	for _, s := range signals {
		if s.Type == sigType {
			out = append(out, s)
		}
	}
	return out
}

func TestScanAccumulation(t *testing.T) {
	trades := []store.Trade{
		trade(2, "Fed cuts rates?", "YES", "BUY", 0.40, 300),
		trade(5, "Fed cuts rates?", "YES", "BUY", 0.42, 500),
		trade(9, "Fed cuts rates?", "YES", "BUY", 0.45, 250),
		// Wrong side, wrong outcome, too small, too old: none count.
		trade(3, "Fed cuts rates?", "YES", "SELL", 0.41, 400),
		trade(4, "Fed cuts rates?", "NO", "BUY", 0.58, 400),
		trade(6, "Fed cuts rates?", "YES", "BUY", 0.43, 150),
		trade(20, "Fed cuts rates?", "YES", "BUY", 0.44, 400),
	}

	signals := only(t, Scan(trades, scanNow), SignalAccumulation)
	if len(signals) != 1 {
		t.Fatalf("expected 1 accumulation signal, got %d: %+v", len(signals), signals)
	}

	s := signals[0]
	if s.Market != "Fed cuts rates?" {
		t.Errorf("Market = %q", s.Market)
	}
	if !strings.Contains(s.Summary, "3 buys") || !strings.Contains(s.Summary, "$1050") {
		t.Errorf("Summary = %q", s.Summary)
	}
	if !strings.Contains(s.Key, "accum_Fed cuts rates?_YES_") {
		t.Errorf("Key = %q", s.Key)
	}
}

func TestScanAccumulationNeedsThreeBuys(t *testing.T) {
	trades := []store.Trade{
		trade(2, "M", "YES", "BUY", 0.40, 5000),
		trade(5, "M", "YES", "BUY", 0.42, 5000),
	}
	if got := only(t, Scan(trades, scanNow), SignalAccumulation); len(got) != 0 {
		t.Errorf("two buys should not signal, got %+v", got)
	}
}

func TestScanPriceVelocity(t *testing.T) {
	trades := []store.Trade{
		// Older window average 0.50.
		trade(30, "Surger", "YES", "BUY", 0.48, 100),
		trade(40, "Surger", "YES", "BUY", 0.52, 100),
		// Recent window average 0.60: +20%.
		trade(5, "Surger", "YES", "BUY", 0.58, 100),
		trade(10, "Surger", "YES", "BUY", 0.62, 100),
		// Flat market: no signal.
		trade(30, "Flat", "YES", "BUY", 0.50, 100),
		trade(5, "Flat", "YES", "BUY", 0.52, 100),
		// Recent trades only, no baseline: no signal.
		trade(3, "Fresh", "YES", "BUY", 0.90, 100),
	}

	signals := only(t, Scan(trades, scanNow), SignalVelocity)
	if len(signals) != 1 {
		t.Fatalf("expected 1 velocity signal, got %d: %+v", len(signals), signals)
	}
	if signals[0].Market != "Surger" || !strings.Contains(signals[0].Summary, "SURGING") {
		t.Errorf("signal = %+v", signals[0])
	}
	if !strings.Contains(signals[0].Summary, "+20.0%") {
		t.Errorf("Summary = %q", signals[0].Summary)
	}
}

func TestScanPriceVelocityCrash(t *testing.T) {
	trades := []store.Trade{
		trade(30, "Crasher", "NO", "SELL", 0.80, 100),
		trade(5, "Crasher", "NO", "SELL", 0.60, 100),
	}

	signals := only(t, Scan(trades, scanNow), SignalVelocity)
	if len(signals) != 1 {
		t.Fatalf("expected 1 velocity signal, got %d", len(signals))
	}
	if !strings.Contains(signals[0].Summary, "CRASHING") {
		t.Errorf("Summary = %q", signals[0].Summary)
	}
}

func TestScanMegaWhale(t *testing.T) {
	big := trade(2, "Whale market", "YES", "BUY", 0.70, 30000)
	big.ID = 77
	trades := []store.Trade{
		big,
		trade(3, "Whale market", "YES", "BUY", 0.70, 24999), // below threshold
		trade(8, "Whale market", "YES", "BUY", 0.70, 30000), // outside 5min window
	}

	signals := only(t, Scan(trades, scanNow), SignalMegaWhale)
	if len(signals) != 1 {
		t.Fatalf("expected 1 mega whale signal, got %d: %+v", len(signals), signals)
	}
	if signals[0].Key != "bigwhale_77" {
		t.Errorf("Key = %q, want bigwhale_77", signals[0].Key)
	}
	if !strings.Contains(signals[0].Summary, "$30000") {
		t.Errorf("Summary = %q", signals[0].Summary)
	}
}

func TestScanNearResolution(t *testing.T) {
	trades := []store.Trade{
		trade(2, "Decided YES", "YES", "BUY", 0.95, 800),
		trade(4, "Decided YES", "YES", "BUY", 0.97, 600),
		// High price but thin volume: no signal.
		trade(3, "Thin", "YES", "BUY", 0.96, 500),
		// Near-zero side signals too.
		trade(2, "Decided NO", "NO", "SELL", 0.04, 1500),
		// Mid price never signals.
		trade(2, "Mid", "YES", "BUY", 0.60, 9000),
	}

	signals := only(t, Scan(trades, scanNow), SignalNearResolution)
	if len(signals) != 2 {
		t.Fatalf("expected 2 near-resolution signals, got %d: %+v", len(signals), signals)
	}

	byMarket := map[string]Signal{}
	for _, s := range signals {
		byMarket[s.Market] = s
	}
	if s, ok := byMarket["Decided YES"]; !ok || !strings.Contains(s.Summary, "pricing YES at 96%") {
		t.Errorf("Decided YES signal = %+v", s)
	}
	if s, ok := byMarket["Decided NO"]; !ok || !strings.Contains(s.Summary, "pricing NO at 96%") {
		t.Errorf("Decided NO signal = %+v", s)
	}
}

func TestScanBroadSurge(t *testing.T) {
	var trades []store.Trade
	for i := 0; i < 8; i++ {
		trades = append(trades, trade(3, fmt.Sprintf("Market %d", i), "YES", "BUY", 0.50, 7000))
	}

	signals := only(t, Scan(trades, scanNow), SignalBroadSurge)
	if len(signals) != 1 {
		t.Fatalf("expected 1 broad surge signal, got %d", len(signals))
	}
	if !strings.Contains(signals[0].Summary, "8 markets") || !strings.Contains(signals[0].Summary, "$56000") {
		t.Errorf("Summary = %q", signals[0].Summary)
	}
}

func TestScanBroadSurgeRequiresBothThresholds(t *testing.T) {
	// Seven markets at heavy volume: market count short.
	var few []store.Trade
	for i := 0; i < 7; i++ {
		few = append(few, trade(3, fmt.Sprintf("Market %d", i), "YES", "BUY", 0.50, 10000))
	}
	if got := only(t, Scan(few, scanNow), SignalBroadSurge); len(got) != 0 {
		t.Errorf("7 markets should not signal, got %+v", got)
	}

	// Nine markets at light volume: total short.
	var light []store.Trade
	for i := 0; i < 9; i++ {
		light = append(light, trade(3, fmt.Sprintf("Market %d", i), "YES", "BUY", 0.50, 2000))
	}
	if got := only(t, Scan(light, scanNow), SignalBroadSurge); len(got) != 0 {
		t.Errorf("$18k total should not signal, got %+v", got)
	}
}

func TestScanEmptyAndQuiet(t *testing.T) {
	if got := Scan(nil, scanNow); len(got) != 0 {
		t.Errorf("empty input should yield no signals, got %+v", got)
	}

	quiet := []store.Trade{
		trade(2, "Quiet", "YES", "BUY", 0.50, 50),
		trade(4, "Quiet", "NO", "SELL", 0.50, 60),
	}
	if got := Scan(quiet, scanNow); len(got) != 0 {
		t.Errorf("quiet tape should yield no signals, got %+v", got)
	}
}

func TestScanDeterministicOrder(t *testing.T) {
	trades := []store.Trade{
		trade(2, "B market", "YES", "BUY", 0.40, 300),
		trade(3, "B market", "YES", "BUY", 0.40, 300),
		trade(4, "B market", "YES", "BUY", 0.40, 300),
		trade(2, "A market", "YES", "BUY", 0.40, 300),
		trade(3, "A market", "YES", "BUY", 0.40, 300),
		trade(4, "A market", "YES", "BUY", 0.40, 300),
	}

	first := only(t, Scan(trades, scanNow), SignalAccumulation)
	second := only(t, Scan(trades, scanNow), SignalAccumulation)
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected 2 signals per pass, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Key != second[i].Key {
			t.Errorf("pass order differs at %d: %q vs %q", i, first[i].Key, second[i].Key)
		}
	}
	if first[0].Market != "A market" {
		t.Errorf("signals not key-sorted: %+v", first)
	}
}
