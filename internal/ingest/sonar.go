package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/polyinsider/sonar/internal/discovery"
	"github.com/polyinsider/sonar/internal/scorer"
	"github.com/polyinsider/sonar/internal/store"
)

const (
	// HandshakeTimeout bounds the websocket dial.
	HandshakeTimeout = 10 * time.Second
	// WriteTimeout bounds subscription and keepalive writes.
	WriteTimeout = 10 * time.Second
	// SignificantScore is the score at or above which an ingested trade
	// logs at Info instead of Debug.
	SignificantScore = 3.0
)

// Conn is the subset of a websocket connection the receive loop uses.
// *websocket.Conn satisfies it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens feed connections. Injectable so tests can script
// connect/fail/reconnect sequences.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// TradeInserter is the slice of the store the receive loop writes through.
type TradeInserter interface {
	InsertTrade(ctx context.Context, t store.Trade) (int64, error)
}

// SnapshotSource produces the subscription set and name map.
type SnapshotSource interface {
	Discover(ctx context.Context) (*discovery.Snapshot, error)
}

// Options configures a Sonar.
type Options struct {
	WSURL              string
	MinTradeUSD        float64
	ReconnectDelay     time.Duration
	RediscoverInterval time.Duration // 0 disables periodic re-discovery
}

// Sonar owns the feed connection lifecycle: one discovery pass at startup,
// then connect, subscribe, receive, and reconnect after a fixed delay,
// forever. Message processing is strictly sequential; the store write blocks
// the loop until committed so persisted order matches arrival order.
type Sonar struct {
	opts     Options
	source   SnapshotSource
	trades   TradeInserter
	dialer   Dialer
	sleep    func(ctx context.Context, d time.Duration)
	snap     *discovery.Snapshot
	lastDisc time.Time

	ingested   int64
	rejected   int64
	reconnects int64
}

// New creates a Sonar using the real websocket dialer.
func New(opts Options, source SnapshotSource, trades TradeInserter) *Sonar {
	return &Sonar{
		opts:   opts,
		source: source,
		trades: trades,
		dialer: gorillaDialer{},
		sleep:  sleepContext,
	}
}

// SetDialer replaces the connection dialer. Used by tests to simulate the
// feed without a network.
func (s *Sonar) SetDialer(d Dialer) {
	s.dialer = d
}

// SetSleep replaces the backoff sleep. Used by tests to simulate many
// reconnect cycles without real delays.
func (s *Sonar) SetSleep(fn func(ctx context.Context, d time.Duration)) {
	s.sleep = fn
}

// Run executes the state machine until ctx is cancelled. A discovery
// failure before the first subscription is fatal; every later error only
// triggers a reconnect.
func (s *Sonar) Run(ctx context.Context) error {
	slog.Info("discovering_markets")
	snap, err := s.source.Discover(ctx)
	if err != nil {
		return fmt.Errorf("startup discovery: %w", err)
	}
	s.snap = snap
	s.lastDisc = time.Now()

	for {
		if ctx.Err() != nil {
			return nil
		}

		s.maybeRediscover(ctx)

		if err := s.runConnection(ctx); err != nil {
			slog.Warn("ws_connection_lost", "error", err, "reconnect_in", s.opts.ReconnectDelay)
		}

		if ctx.Err() != nil {
			return nil
		}

		s.reconnects++
		s.sleep(ctx, s.opts.ReconnectDelay)
	}
}

// maybeRediscover refreshes the subscription set when the optional interval
// has elapsed. A failed refresh keeps the previous set; after startup,
// discovery errors are never fatal.
func (s *Sonar) maybeRediscover(ctx context.Context) {
	if s.opts.RediscoverInterval <= 0 || time.Since(s.lastDisc) < s.opts.RediscoverInterval {
		return
	}

	snap, err := s.source.Discover(ctx)
	if err != nil {
		slog.Warn("rediscovery_failed", "error", err)
		return
	}
	s.snap = snap
	s.lastDisc = time.Now()
	slog.Info("markets_refreshed", "token_count", len(snap.TokenIDs))
}

// runConnection performs one CONNECTING -> SUBSCRIBED -> DISCONNECTED cycle.
func (s *Sonar) runConnection(ctx context.Context) error {
	conn, err := s.dialer.Dial(ctx, s.opts.WSURL)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	// Close the connection when ctx is cancelled so the blocking read
	// returns and the supervisor can stop cleanly between messages.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	defer conn.Close()

	if err := s.subscribe(conn); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	slog.Info("ws_subscribed", "endpoint", s.opts.WSURL, "token_count", len(s.snap.TokenIDs))

	return s.readLoop(ctx, conn)
}

// subscriptionMessage is the single control message naming every tracked token.
type subscriptionMessage struct {
	Type      string   `json:"type"`
	AssetsIDs []string `json:"assets_ids"`
}

func (s *Sonar) subscribe(conn Conn) error {
	payload, err := json.Marshal(subscriptionMessage{
		Type:      "market",
		AssetsIDs: s.snap.TokenIDs,
	})
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, payload)
}

// readLoop processes messages until the connection fails or ctx ends.
func (s *Sonar) readLoop(ctx context.Context, conn Conn) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		s.handleMessage(ctx, conn, data)
	}
}

// handleMessage decodes and persists one inbound payload. Malformed
// messages are dropped; they never terminate the loop.
func (s *Sonar) handleMessage(ctx context.Context, conn Conn, data []byte) {
	// The venue sends a bare text keepalive probe outside the JSON schema.
	if bytes.EqualFold(bytes.TrimSpace(data), []byte("ping")) {
		if err := conn.WriteMessage(websocket.TextMessage, []byte("pong")); err != nil {
			slog.Warn("keepalive_reply_failed", "error", err)
		}
		return
	}

	events, err := DecodeEvents(data)
	if err != nil {
		slog.Debug("ws_parse_error", "error", err)
		return
	}

	for _, ev := range events {
		s.handleEvent(ctx, ev)
	}
}

func (s *Sonar) handleEvent(ctx context.Context, ev WireEvent) {
	switch ev.Kind {
	case EventTrade, EventPriceUpdate:
	default:
		return
	}

	if ev.Kind == EventPriceUpdate && ev.Size <= 0 {
		s.rejected++
		return
	}

	usd := round2(ev.Price * ev.Size)
	if usd < s.opts.MinTradeUSD || ev.Price <= 0 {
		s.rejected++
		return
	}

	outcome := "NO"
	if ev.Price > 0.5 {
		outcome = "YES"
	}

	score, reasons := scorer.Score(usd, ev.Price)
	trade := store.Trade{
		Timestamp:  time.Now().UTC(),
		MarketID:   ev.AssetID,
		MarketName: s.snap.Name(ev.AssetID),
		Outcome:    outcome,
		Price:      ev.Price,
		Size:       ev.Size,
		USDValue:   usd,
		Side:       ev.Side,
		Score:      score,
		Alert:      scorer.AlertText(reasons),
	}

	id, err := s.trades.InsertTrade(ctx, trade)
	if err != nil {
		slog.Error("trade_insert_failed", "market", trade.MarketName, "error", err)
		return
	}
	s.ingested++

	if score >= SignificantScore {
		slog.Info("significant_trade",
			"id", id,
			"alert", trade.Alert,
			"market", truncate(trade.MarketName, 40),
			"usd_value", usd,
			"price", ev.Price,
		)
	} else {
		slog.Debug("trade_ingested",
			"id", id,
			"market", truncate(trade.MarketName, 40),
			"usd_value", usd,
			"price", ev.Price,
		)
	}
}

// Stats reports loop counters since startup.
func (s *Sonar) Stats() (ingested, rejected, reconnects int64) {
	return s.ingested, s.rejected, s.reconnects
}

// gorillaDialer opens real websocket connections with protocol keepalive.
type gorillaDialer struct{}

func (gorillaDialer) Dial(ctx context.Context, url string) (Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: HandshakeTimeout}

	headers := http.Header{}
	headers.Set("Origin", "https://polymarket.com")

	conn, resp, err := dialer.DialContext(ctx, url, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial failed with status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	// Echo protocol-level pings with the payload the server sent.
	conn.SetPingHandler(func(appData string) error {
		conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
		return conn.WriteMessage(websocket.PongMessage, []byte(appData))
	})

	return conn, nil
}

func sleepContext(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// truncate shortens a string for logging.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
