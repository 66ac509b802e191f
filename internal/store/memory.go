package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store. It backs the test suite and local runs
// without a database; rows do not survive a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	trades  []Trade
	markets map[string]Market
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:  1,
		markets: make(map[string]Market),
	}
}

var _ Store = (*MemoryStore)(nil)

// InsertTrade appends a trade and returns its assigned id.
func (s *MemoryStore) InsertTrade(_ context.Context, t Trade) (int64, error) {
	if t.MarketID == "" {
		return 0, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t.ID = s.nextID
	s.nextID++
	s.trades = append(s.trades, t)
	return t.ID, nil
}

// UpsertMarket inserts or updates a market keyed by TokenID.
func (s *MemoryStore) UpsertMarket(_ context.Context, m Market) error {
	if m.TokenID == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.markets[m.TokenID] = m
	return nil
}

// TradesAfter returns trades past the cursor that clear both thresholds.
func (s *MemoryStore) TradesAfter(_ context.Context, afterID int64, minScore, minUSD float64, limit int) ([]Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []Trade
	for _, t := range s.trades {
		if t.ID <= afterID || t.Score < minScore || t.USDValue < minUSD {
			continue
		}
		result = append(result, t)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

// TradesSince returns all trades ingested at or after since.
func (s *MemoryStore) TradesSince(_ context.Context, since time.Time) ([]Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []Trade
	for _, t := range s.trades {
		if !t.Timestamp.Before(since) {
			result = append(result, t)
		}
	}
	return result, nil
}

// MaxTradeID returns the highest assigned trade id.
func (s *MemoryStore) MaxTradeID(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.trades) == 0 {
		return 0, nil
	}
	return s.trades[len(s.trades)-1].ID, nil
}

// Summary aggregates trade activity since the given instant.
func (s *MemoryStore) Summary(_ context.Context, since time.Time, whaleUSD float64) (Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum Summary
	byMarket := make(map[string]*MarketVolume)

	for _, t := range s.trades {
		if t.Timestamp.Before(since) {
			continue
		}
		sum.VolumeUSD += t.USDValue
		sum.TradeCount++
		if t.USDValue >= whaleUSD {
			sum.WhaleCount++
		}
		mv, ok := byMarket[t.MarketName]
		if !ok {
			mv = &MarketVolume{Name: t.MarketName}
			byMarket[t.MarketName] = mv
		}
		mv.VolumeUSD += t.USDValue
		mv.Trades++
	}

	for _, mv := range byMarket {
		sum.TopMarkets = append(sum.TopMarkets, *mv)
	}
	sort.Slice(sum.TopMarkets, func(i, j int) bool {
		return sum.TopMarkets[i].VolumeUSD > sum.TopMarkets[j].VolumeUSD
	})
	if len(sum.TopMarkets) > 5 {
		sum.TopMarkets = sum.TopMarkets[:5]
	}

	return sum, nil
}

// Markets returns all tracked markets ordered by 24h volume descending.
func (s *MemoryStore) Markets(_ context.Context) ([]Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Market, 0, len(s.markets))
	for _, m := range s.markets {
		result = append(result, m)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Volume24h > result[j].Volume24h
	})
	return result, nil
}
