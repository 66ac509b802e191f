package store

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreInsertTradeAssignsIncreasingIDs(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var last int64
	for i := 0; i < 10; i++ {
		id, err := s.InsertTrade(ctx, Trade{MarketID: "token-1", USDValue: 100, Timestamp: time.Now()})
		if err != nil {
			t.Fatalf("InsertTrade failed: %v", err)
		}
		if id <= last {
			t.Errorf("id %d not greater than previous %d", id, last)
		}
		last = id
	}

	max, err := s.MaxTradeID(ctx)
	if err != nil {
		t.Fatalf("MaxTradeID failed: %v", err)
	}
	if max != last {
		t.Errorf("MaxTradeID = %d, want %d", max, last)
	}
}

func TestMemoryStoreInsertTradeRejectsEmptyMarket(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.InsertTrade(context.Background(), Trade{}); err != ErrInvalidInput {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestMemoryStoreUpsertMarketLastWriteWins(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	first := Market{TokenID: "tok", Name: "Old name", Volume24h: 1000, LastSeen: time.Now().Add(-time.Hour)}
	second := Market{TokenID: "tok", Name: "New name", Volume24h: 5000, LastSeen: time.Now()}

	if err := s.UpsertMarket(ctx, first); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	if err := s.UpsertMarket(ctx, second); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	markets, err := s.Markets(ctx)
	if err != nil {
		t.Fatalf("Markets failed: %v", err)
	}
	if len(markets) != 1 {
		t.Fatalf("expected exactly 1 market row, got %d", len(markets))
	}
	if markets[0].Name != "New name" || markets[0].Volume24h != 5000 {
		t.Errorf("upsert did not take latest values: %+v", markets[0])
	}
	if !markets[0].LastSeen.Equal(second.LastSeen) {
		t.Errorf("last_seen not updated: %v", markets[0].LastSeen)
	}
}

func TestMemoryStoreTradesAfterCursorAndThresholds(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	trades := []Trade{
		{MarketID: "a", Score: 4.0, USDValue: 12000, Timestamp: now},
		{MarketID: "b", Score: 1.5, USDValue: 900, Timestamp: now},   // below score
		{MarketID: "c", Score: 5.0, USDValue: 300, Timestamp: now},   // below usd
		{MarketID: "d", Score: 3.5, USDValue: 2500, Timestamp: now},
	}
	for _, tr := range trades {
		if _, err := s.InsertTrade(ctx, tr); err != nil {
			t.Fatalf("InsertTrade failed: %v", err)
		}
	}

	got, err := s.TradesAfter(ctx, 0, 3.0, 500, 20)
	if err != nil {
		t.Fatalf("TradesAfter failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 qualifying trades, got %d", len(got))
	}
	if got[0].MarketID != "a" || got[1].MarketID != "d" {
		t.Errorf("wrong trades or order: %+v", got)
	}

	// Cursor excludes already-seen rows.
	got, err = s.TradesAfter(ctx, got[0].ID, 3.0, 500, 20)
	if err != nil {
		t.Fatalf("TradesAfter failed: %v", err)
	}
	if len(got) != 1 || got[0].MarketID != "d" {
		t.Errorf("cursor did not advance: %+v", got)
	}
}

func TestMemoryStoreSummary(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	rows := []Trade{
		{MarketID: "t1", MarketName: "Market A", USDValue: 15000, Timestamp: now},
		{MarketID: "t2", MarketName: "Market A", USDValue: 500, Timestamp: now},
		{MarketID: "t3", MarketName: "Market B", USDValue: 3000, Timestamp: now},
		{MarketID: "t4", MarketName: "Old", USDValue: 99999, Timestamp: now.Add(-2 * time.Hour)},
	}
	for _, tr := range rows {
		if _, err := s.InsertTrade(ctx, tr); err != nil {
			t.Fatalf("InsertTrade failed: %v", err)
		}
	}

	sum, err := s.Summary(ctx, now.Add(-time.Hour), 10000)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if sum.TradeCount != 3 {
		t.Errorf("TradeCount = %d, want 3", sum.TradeCount)
	}
	if sum.VolumeUSD != 18500 {
		t.Errorf("VolumeUSD = %f, want 18500", sum.VolumeUSD)
	}
	if sum.WhaleCount != 1 {
		t.Errorf("WhaleCount = %d, want 1", sum.WhaleCount)
	}
	if len(sum.TopMarkets) != 2 || sum.TopMarkets[0].Name != "Market A" {
		t.Errorf("TopMarkets wrong: %+v", sum.TopMarkets)
	}
	if sum.TopMarkets[0].VolumeUSD != 15500 || sum.TopMarkets[0].Trades != 2 {
		t.Errorf("top market aggregation wrong: %+v", sum.TopMarkets[0])
	}
}
