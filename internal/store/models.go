// Package store provides the data models and persistence layer shared by the
// sonar engine, the alert watchers, and the terminal dashboard.
package store

import "time"

// Trade is one accepted feed event, persisted append-only.
type Trade struct {
	// ID is assigned by the store on insert and is strictly increasing.
	// It is the only stable ordering key across restarts.
	ID int64

	// Timestamp is the UTC instant of ingestion, not the venue's event time.
	Timestamp time.Time

	// MarketID is the outcome token ID the trade executed on.
	MarketID string

	// MarketName is the human-readable market question, or a truncated
	// token ID when the name map has no entry.
	MarketName string

	// Outcome is YES when price > 0.5, otherwise NO.
	Outcome string

	// Price is the execution price in (0, 1].
	Price float64

	// Size is the traded quantity.
	Size float64

	// USDValue is price * size rounded to 2 decimals.
	USDValue float64

	// Side is the venue-reported BUY/SELL, or UNKNOWN when absent.
	Side string

	// Score and Alert are the scorer output, fixed at ingestion time.
	Score float64
	Alert string
}

// Market is one tracked outcome token, upserted on every discovery pass.
type Market struct {
	TokenID   string
	Name      string
	Question  string
	Volume24h float64
	LastSeen  time.Time
}

// MarketVolume is one row of a digest's top-markets ranking.
type MarketVolume struct {
	Name      string
	VolumeUSD float64
	Trades    int
}

// Summary aggregates trade activity since a point in time.
type Summary struct {
	VolumeUSD  float64
	TradeCount int
	WhaleCount int
	TopMarkets []MarketVolume
}
