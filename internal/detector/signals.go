// Package detector scans recently persisted trades for composite signals
// that a single-trade score cannot see: accumulation runs, price velocity
// spikes, mega whales, near-resolution pricing and broad market surges.
package detector

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/polyinsider/sonar/internal/store"
)

// Signal types.
const (
	SignalAccumulation   = "ACCUMULATION"
	SignalVelocity       = "PRICE_VELOCITY"
	SignalMegaWhale      = "MEGA_WHALE"
	SignalNearResolution = "NEAR_RESOLUTION"
	SignalBroadSurge     = "BROAD_SURGE"
)

// Scan thresholds.
const (
	AccumWindow  = 15 * time.Minute
	AccumMinBuys = 3
	AccumMinUSD  = 200

	VelocityWindow    = 15 * time.Minute
	VelocityLookback  = 60 * time.Minute
	VelocityThreshold = 0.10

	MegaWhaleWindow = 5 * time.Minute
	MegaWhaleUSD    = 25000

	NearResWindow    = 10 * time.Minute
	NearResHigh      = 0.93
	NearResLow       = 0.07
	NearResMinVolume = 1000

	BroadWindow     = 10 * time.Minute
	BroadTradeUSD   = 1000
	BroadMinMarkets = 8
	BroadMinVolume  = 50000
)

// Signal is one detected pattern. Key deduplicates repeated detections of
// the same pattern across scan passes.
type Signal struct {
	Type    string
	Key     string
	Market  string
	Summary string
}

// Scan runs every check over trades from the last VelocityLookback window.
// Pure function: same trades and clock produce the same signals.
func Scan(trades []store.Trade, now time.Time) []Signal {
	var signals []Signal
	signals = append(signals, detectAccumulation(trades, now)...)
	signals = append(signals, detectVelocity(trades, now)...)
	signals = append(signals, detectMegaWhale(trades, now)...)
	signals = append(signals, detectNearResolution(trades, now)...)
	signals = append(signals, detectBroadSurge(trades, now)...)
	return signals
}

// detectAccumulation flags repeated buys on one market/outcome: someone is
// building a position.
func detectAccumulation(trades []store.Trade, now time.Time) []Signal {
	since := now.Add(-AccumWindow)

	type bucket struct {
		count              int
		total              float64
		minPrice, maxPrice float64
	}
	buckets := make(map[[2]string]*bucket)

	for _, t := range trades {
		if t.Timestamp.Before(since) || t.Side != "BUY" || t.USDValue < AccumMinUSD {
			continue
		}
		key := [2]string{t.MarketName, t.Outcome}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{minPrice: t.Price, maxPrice: t.Price}
			buckets[key] = b
		}
		b.count++
		b.total += t.USDValue
		b.minPrice = math.Min(b.minPrice, t.Price)
		b.maxPrice = math.Max(b.maxPrice, t.Price)
	}

	hourBucket := now.UTC().Truncate(time.Hour).Format("2006-01-02T15")
	var signals []Signal
	for key, b := range buckets {
		if b.count < AccumMinBuys {
			continue
		}
		market, outcome := key[0], key[1]
		signals = append(signals, Signal{
			Type:   SignalAccumulation,
			Key:    fmt.Sprintf("accum_%s_%s_%s", market, outcome, hourBucket),
			Market: market,
			Summary: fmt.Sprintf(
				"ACCUMULATION: %s [%s] - %d buys in 15min, $%.0f total, price %.3f → %.3f",
				truncate(market, 60), outcome, b.count, b.total, b.minPrice, b.maxPrice),
		})
	}
	sortSignals(signals)
	return signals
}

// detectVelocity flags a 10%+ average-price move over the last 15 minutes
// versus the preceding 45.
func detectVelocity(trades []store.Trade, now time.Time) []Signal {
	recentSince := now.Add(-VelocityWindow)
	olderSince := now.Add(-VelocityLookback)

	type avg struct {
		sum float64
		n   int
	}
	recent := make(map[string]*avg)
	older := make(map[string]*avg)

	for _, t := range trades {
		if t.Timestamp.Before(olderSince) {
			continue
		}
		m := older
		if !t.Timestamp.Before(recentSince) {
			m = recent
		}
		a, ok := m[t.MarketName]
		if !ok {
			a = &avg{}
			m[t.MarketName] = a
		}
		a.sum += t.Price
		a.n++
	}

	bucket := now.UTC().Truncate(VelocityWindow).Format("2006-01-02T15:04")
	var signals []Signal
	for market, r := range recent {
		o, ok := older[market]
		if !ok || o.n == 0 || r.n == 0 {
			continue
		}
		oldAvg := o.sum / float64(o.n)
		newAvg := r.sum / float64(r.n)
		if oldAvg == 0 {
			continue
		}
		move := (newAvg - oldAvg) / oldAvg
		if math.Abs(move) < VelocityThreshold {
			continue
		}
		direction := "SURGING"
		if move < 0 {
			direction = "CRASHING"
		}
		signals = append(signals, Signal{
			Type:   SignalVelocity,
			Key:    fmt.Sprintf("velocity_%s_%s", market, bucket),
			Market: market,
			Summary: fmt.Sprintf(
				"PRICE VELOCITY: %s %s - %.3f → %.3f (%+.1f%% in 15min)",
				truncate(market, 60), direction, oldAvg, newAvg, move*100),
		})
	}
	sortSignals(signals)
	return signals
}

// detectMegaWhale flags single trades at or above the mega-whale notional.
func detectMegaWhale(trades []store.Trade, now time.Time) []Signal {
	since := now.Add(-MegaWhaleWindow)

	var signals []Signal
	for _, t := range trades {
		if t.Timestamp.Before(since) || t.USDValue < MegaWhaleUSD {
			continue
		}
		signals = append(signals, Signal{
			Type:   SignalMegaWhale,
			Key:    fmt.Sprintf("bigwhale_%d", t.ID),
			Market: t.MarketName,
			Summary: fmt.Sprintf(
				"MEGA WHALE: %s - %s @ %.4f for $%.0f (%.0f shares)",
				truncate(t.MarketName, 60), t.Outcome, t.Price, t.USDValue, t.Size),
		})
	}
	return signals
}

// detectNearResolution flags markets trading near 0 or 1 with meaningful
// volume: the market believes the outcome is effectively decided.
func detectNearResolution(trades []store.Trade, now time.Time) []Signal {
	since := now.Add(-NearResWindow)

	type bucket struct {
		priceSum float64
		volume   float64
		n        int
	}
	buckets := make(map[string]*bucket)

	for _, t := range trades {
		if t.Timestamp.Before(since) || (t.Price < NearResHigh && t.Price > NearResLow) {
			continue
		}
		b, ok := buckets[t.MarketName]
		if !ok {
			b = &bucket{}
			buckets[t.MarketName] = b
		}
		b.priceSum += t.Price
		b.volume += t.USDValue
		b.n++
	}

	hourBucket := now.UTC().Truncate(time.Hour).Format("2006-01-02T15")
	var signals []Signal
	for market, b := range buckets {
		if b.volume < NearResMinVolume {
			continue
		}
		avgPrice := b.priceSum / float64(b.n)
		likely := "NO"
		confidence := 1 - avgPrice
		if avgPrice > 0.5 {
			likely = "YES"
			confidence = avgPrice
		}
		signals = append(signals, Signal{
			Type:   SignalNearResolution,
			Key:    fmt.Sprintf("nearres_%s_%s", market, hourBucket),
			Market: market,
			Summary: fmt.Sprintf(
				"NEAR RESOLUTION: %s - pricing %s at %.0f%% confidence, $%.0f volume in 10min",
				truncate(market, 60), likely, confidence*100, b.volume),
		})
	}
	sortSignals(signals)
	return signals
}

// detectBroadSurge flags simultaneous large flow across many markets,
// suggesting a macro event or coordinated entries.
func detectBroadSurge(trades []store.Trade, now time.Time) []Signal {
	since := now.Add(-BroadWindow)

	markets := make(map[string]struct{})
	var total float64
	for _, t := range trades {
		if t.Timestamp.Before(since) || t.USDValue < BroadTradeUSD {
			continue
		}
		markets[t.MarketName] = struct{}{}
		total += t.USDValue
	}

	if len(markets) < BroadMinMarkets || total < BroadMinVolume {
		return nil
	}

	bucket := now.UTC().Truncate(BroadWindow).Format("2006-01-02T15:04")
	return []Signal{{
		Type: SignalBroadSurge,
		Key:  fmt.Sprintf("broad_%s", bucket),
		Summary: fmt.Sprintf(
			"BROAD SURGE: %d markets active simultaneously, $%.0f total flow in 10min",
			len(markets), total),
	}}
}

// sortSignals orders map-derived signals deterministically.
func sortSignals(signals []Signal) {
	sort.Slice(signals, func(i, j int) bool {
		return signals[i].Key < signals[j].Key
	})
}

// truncate shortens a market name for message text.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
