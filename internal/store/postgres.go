package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the durable Store backed by PostgreSQL. Every write is a
// single auto-committed statement: no batching, no async flush. Trade ids
// come from a BIGSERIAL column, which keeps them strictly increasing for the
// single ingesting writer even across restarts.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the database and verifies the connection.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

var _ Store = (*PostgresStore)(nil)

// Migrate creates the trades and markets tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			id          BIGSERIAL PRIMARY KEY,
			timestamp   TIMESTAMPTZ NOT NULL,
			market_id   TEXT NOT NULL,
			market_name TEXT,
			outcome     TEXT,
			price       DOUBLE PRECISION,
			size        DOUBLE PRECISION,
			usd_value   DOUBLE PRECISION,
			side        TEXT,
			score       DOUBLE PRECISION,
			alert       TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS markets (
			token_id    TEXT PRIMARY KEY,
			name        TEXT,
			question    TEXT,
			volume_24h  DOUBLE PRECISION,
			last_seen   TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_timestamp ON trades (timestamp)`,
	}

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// InsertTrade appends a trade and returns the database-assigned id.
func (s *PostgresStore) InsertTrade(ctx context.Context, t Trade) (int64, error) {
	if t.MarketID == "" {
		return 0, ErrInvalidInput
	}

	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO trades (timestamp, market_id, market_name, outcome, price, size, usd_value, side, score, alert)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, t.Timestamp, t.MarketID, t.MarketName, t.Outcome, t.Price, t.Size, t.USDValue, t.Side, t.Score, t.Alert).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert trade: %w", err)
	}
	return id, nil
}

// UpsertMarket inserts or updates a market keyed by token_id.
func (s *PostgresStore) UpsertMarket(ctx context.Context, m Market) error {
	if m.TokenID == "" {
		return ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO markets (token_id, name, question, volume_24h, last_seen)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (token_id) DO UPDATE SET
			name       = EXCLUDED.name,
			question   = EXCLUDED.question,
			volume_24h = EXCLUDED.volume_24h,
			last_seen  = EXCLUDED.last_seen
	`, m.TokenID, m.Name, m.Question, m.Volume24h, m.LastSeen)
	if err != nil {
		return fmt.Errorf("upsert market: %w", err)
	}
	return nil
}

// TradesAfter returns trades past the cursor that clear both thresholds.
func (s *PostgresStore) TradesAfter(ctx context.Context, afterID int64, minScore, minUSD float64, limit int) ([]Trade, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, timestamp, market_id, market_name, outcome, price, size, usd_value, side, score, alert
		FROM trades
		WHERE id > $1 AND score >= $2 AND usd_value >= $3
		ORDER BY id ASC
		LIMIT $4
	`, afterID, minScore, minUSD, limit)
	if err != nil {
		return nil, fmt.Errorf("query trades after: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// TradesSince returns all trades ingested at or after since.
func (s *PostgresStore) TradesSince(ctx context.Context, since time.Time) ([]Trade, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, timestamp, market_id, market_name, outcome, price, size, usd_value, side, score, alert
		FROM trades
		WHERE timestamp >= $1
		ORDER BY id ASC
	`, since)
	if err != nil {
		return nil, fmt.Errorf("query trades since: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// MaxTradeID returns the highest assigned trade id, or 0 when empty.
func (s *PostgresStore) MaxTradeID(ctx context.Context) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) FROM trades`).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("query max trade id: %w", err)
	}
	return id, nil
}

// Summary aggregates trade activity since the given instant.
func (s *PostgresStore) Summary(ctx context.Context, since time.Time, whaleUSD float64) (Summary, error) {
	var sum Summary
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(usd_value), 0),
		       COUNT(*),
		       COUNT(*) FILTER (WHERE usd_value >= $2)
		FROM trades
		WHERE timestamp >= $1
	`, since, whaleUSD).Scan(&sum.VolumeUSD, &sum.TradeCount, &sum.WhaleCount)
	if err != nil {
		return Summary{}, fmt.Errorf("query summary: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT market_name, SUM(usd_value), COUNT(*)
		FROM trades
		WHERE timestamp >= $1
		GROUP BY market_name
		ORDER BY SUM(usd_value) DESC
		LIMIT 5
	`, since)
	if err != nil {
		return Summary{}, fmt.Errorf("query top markets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var mv MarketVolume
		if err := rows.Scan(&mv.Name, &mv.VolumeUSD, &mv.Trades); err != nil {
			return Summary{}, fmt.Errorf("scan top market: %w", err)
		}
		sum.TopMarkets = append(sum.TopMarkets, mv)
	}
	if err := rows.Err(); err != nil {
		return Summary{}, fmt.Errorf("iterate top markets: %w", err)
	}

	return sum, nil
}

// Markets returns all tracked markets ordered by 24h volume descending.
func (s *PostgresStore) Markets(ctx context.Context) ([]Market, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT token_id, name, question, volume_24h, last_seen
		FROM markets
		ORDER BY volume_24h DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query markets: %w", err)
	}
	defer rows.Close()

	var result []Market
	for rows.Next() {
		var m Market
		if err := rows.Scan(&m.TokenID, &m.Name, &m.Question, &m.Volume24h, &m.LastSeen); err != nil {
			return nil, fmt.Errorf("scan market: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate markets: %w", err)
	}
	return result, nil
}

// rowScanner matches the subset of pgx.Rows that scanTrades needs.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanTrades(rows rowScanner) ([]Trade, error) {
	var result []Trade
	for rows.Next() {
		var t Trade
		if err := rows.Scan(&t.ID, &t.Timestamp, &t.MarketID, &t.MarketName, &t.Outcome,
			&t.Price, &t.Size, &t.USDValue, &t.Side, &t.Score, &t.Alert); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	return result, nil
}
