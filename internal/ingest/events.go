// Package ingest maintains the live feed subscription: it decodes wire
// events, filters noise, scores trades and writes them to the store.
package ingest

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// EventKind classifies a decoded wire event.
type EventKind int

const (
	// EventUnknown is any recognized-as-JSON message the feed logic drops.
	EventUnknown EventKind = iota
	// EventTrade is an executed trade.
	EventTrade
	// EventPriceUpdate is a price tick (price_change / last_trade_price).
	EventPriceUpdate
)

// WireEvent is the typed form of one feed message element. Both CLOB schema
// versions collapse into it: event_type vs type, price vs last_trade_price,
// size vs amount, asset_id vs market.
type WireEvent struct {
	Kind    EventKind
	AssetID string
	Price   float64
	Size    float64
	Side    string
}

// rawEvent carries every field name either schema version uses.
type rawEvent struct {
	EventType      string     `json:"event_type"`
	Type           string     `json:"type"`
	AssetID        string     `json:"asset_id"`
	Market         string     `json:"market"`
	Price          flexNumber `json:"price"`
	LastTradePrice flexNumber `json:"last_trade_price"`
	Size           flexNumber `json:"size"`
	Amount         flexNumber `json:"amount"`
	Side           string     `json:"side"`
}

// DecodeEvents parses a raw feed payload into typed events. A single object
// is normalized to a one-element list. Malformed JSON returns an error; the
// caller drops the message and keeps the loop alive.
func DecodeEvents(data []byte) ([]WireEvent, error) {
	var raws []rawEvent
	if err := json.Unmarshal(data, &raws); err != nil {
		var single rawEvent
		if err := json.Unmarshal(data, &single); err != nil {
			return nil, fmt.Errorf("unmarshal feed payload: %w", err)
		}
		raws = []rawEvent{single}
	}

	events := make([]WireEvent, 0, len(raws))
	for _, r := range raws {
		events = append(events, r.classify())
	}
	return events, nil
}

func (r rawEvent) classify() WireEvent {
	etype := r.EventType
	if etype == "" {
		etype = r.Type
	}

	ev := WireEvent{
		AssetID: r.AssetID,
		Price:   float64(r.Price),
		Size:    float64(r.Size),
		Side:    r.Side,
	}
	if ev.AssetID == "" {
		ev.AssetID = r.Market
	}
	if ev.Price == 0 {
		ev.Price = float64(r.LastTradePrice)
	}
	if ev.Size == 0 {
		ev.Size = float64(r.Amount)
	}
	if ev.Side == "" {
		ev.Side = "UNKNOWN"
	}

	switch etype {
	case "trade":
		ev.Kind = EventTrade
	case "price_change", "last_trade_price":
		ev.Kind = EventPriceUpdate
	default:
		ev.Kind = EventUnknown
	}
	return ev
}

// flexNumber accepts a JSON number or a numeric string; both appear on the
// wire depending on schema version.
type flexNumber float64

func (f *flexNumber) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexNumber(n)
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			*f = flexNumber(n)
			return nil
		}
		*f = 0
		return nil
	}

	*f = 0
	return nil
}
