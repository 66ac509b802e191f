package store

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidInput is returned when a write carries no market identity.
var ErrInvalidInput = errors.New("store: invalid input")

// Store is the persistence contract between the ingesting writer and the
// read-only consumers (watchers, dashboard). The sonar engine is the only
// component that calls InsertTrade; everything else reads.
type Store interface {
	// InsertTrade appends a trade and returns its assigned id. Ids are
	// strictly increasing in insertion order and never reused. The write
	// is committed before the call returns.
	InsertTrade(ctx context.Context, t Trade) (int64, error)

	// UpsertMarket inserts or updates a market keyed by TokenID.
	// Last write wins on name, volume and last_seen.
	UpsertMarket(ctx context.Context, m Market) error

	// TradesAfter returns up to limit trades with id > afterID, score >=
	// minScore and usd_value >= minUSD, ordered by id ascending.
	TradesAfter(ctx context.Context, afterID int64, minScore, minUSD float64, limit int) ([]Trade, error)

	// TradesSince returns all trades ingested at or after since, ordered
	// by id ascending.
	TradesSince(ctx context.Context, since time.Time) ([]Trade, error)

	// MaxTradeID returns the highest assigned trade id, or 0 when the
	// trade log is empty.
	MaxTradeID(ctx context.Context) (int64, error)

	// Summary aggregates activity since the given instant. Trades with
	// usd_value >= whaleUSD count as whales. TopMarkets holds at most
	// five markets ranked by volume.
	Summary(ctx context.Context, since time.Time, whaleUSD float64) (Summary, error)

	// Markets returns all tracked markets ordered by 24h volume descending.
	Markets(ctx context.Context) ([]Market, error)
}
