// Package discovery looks up the top markets by 24h volume on the Gamma API
// and produces the subscription set for the live feed.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/polyinsider/sonar/internal/store"
)

// SupersetLimit is how many markets to request per pass. The feed only
// tracks the first N qualifying ones; the headroom tolerates markets with
// missing or malformed token data.
const SupersetLimit = 50

// DiscoveryError wraps any failure that prevents a discovery pass from
// producing a subscription set.
type DiscoveryError struct {
	Err error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("market discovery failed: %v", e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// MarketUpserter is the slice of the store a discovery pass writes through.
type MarketUpserter interface {
	UpsertMarket(ctx context.Context, m store.Market) error
}

// Snapshot is the result of one discovery pass: the ordered subscription set
// and the token -> market question lookup.
type Snapshot struct {
	TokenIDs []string
	Names    map[string]string
}

// Name resolves a token to its market question, falling back to a truncated
// token ID when the map has no entry.
func (s *Snapshot) Name(tokenID string) string {
	if name, ok := s.Names[tokenID]; ok {
		return name
	}
	if len(tokenID) > 16 {
		return tokenID[:16]
	}
	return tokenID
}

// Discoverer queries the Gamma market listing endpoint.
type Discoverer struct {
	gammaURL string
	topN     int
	client   *http.Client
	markets  MarketUpserter
}

// NewDiscoverer creates a Discoverer tracking the top N markets.
func NewDiscoverer(gammaURL string, topN int, markets MarketUpserter) *Discoverer {
	return &Discoverer{
		gammaURL: gammaURL,
		topN:     topN,
		client:   &http.Client{Timeout: 10 * time.Second},
		markets:  markets,
	}
}

// gammaMarket is one market object from the Gamma listing response.
type gammaMarket struct {
	Question     string     `json:"question"`
	Volume24hr   flexNumber `json:"volume24hr"`
	Volume       flexNumber `json:"volume"`
	ClobTokenIDs tokenList  `json:"clobTokenIds"`
}

// Discover runs one pass: fetch the volume-sorted listing, keep the first N
// binary markets, upsert each into the store and build the snapshot.
func (d *Discoverer) Discover(ctx context.Context) (*Snapshot, error) {
	markets, err := d.fetchMarkets(ctx)
	if err != nil {
		return nil, &DiscoveryError{Err: err}
	}

	snap := &Snapshot{Names: make(map[string]string)}
	now := time.Now().UTC()
	qualified := 0

	for _, m := range markets {
		if qualified >= d.topN {
			break
		}

		// Binary YES/NO markets only: exactly two outcome tokens.
		if len(m.ClobTokenIDs) != 2 {
			slog.Debug("market_skipped", "question", truncate(m.Question, 40), "tokens", len(m.ClobTokenIDs))
			continue
		}

		question := m.Question
		if question == "" {
			question = "Unknown Market"
		}
		volume := float64(m.Volume24hr)
		if volume == 0 {
			volume = float64(m.Volume)
		}

		for _, token := range m.ClobTokenIDs {
			snap.TokenIDs = append(snap.TokenIDs, token)
			snap.Names[token] = question

			market := store.Market{
				TokenID:   token,
				Name:      truncate(question, 80),
				Question:  question,
				Volume24h: volume,
				LastSeen:  now,
			}
			if err := d.markets.UpsertMarket(ctx, market); err != nil {
				slog.Warn("market_upsert_failed", "token", truncate(token, 16), "error", err)
			}
		}
		qualified++
	}

	slog.Info("markets_discovered",
		"market_count", qualified,
		"token_count", len(snap.TokenIDs),
	)
	return snap, nil
}

// fetchMarkets requests active, open markets sorted by descending 24h volume.
func (d *Discoverer) fetchMarkets(ctx context.Context) ([]gammaMarket, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(SupersetLimit))
	params.Set("order", "volume24hr")
	params.Set("ascending", "false")
	params.Set("active", "true")
	params.Set("closed", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.gammaURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch markets: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var markets []gammaMarket
	if err := json.NewDecoder(resp.Body).Decode(&markets); err != nil {
		return nil, fmt.Errorf("decode markets: %w", err)
	}

	return markets, nil
}

// tokenList accepts the outcome-token field in both wire forms: a literal
// JSON array or a string containing a JSON array. Unparseable values decode
// to an empty list so a single bad market never fails the pass.
type tokenList []string

func (t *tokenList) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err == nil {
		*t = ids
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		if err := json.Unmarshal([]byte(raw), &ids); err == nil {
			*t = ids
			return nil
		}
	}

	*t = nil
	return nil
}

// flexNumber accepts a JSON number or a numeric string.
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
	}

	*f = 0
	return nil
}

// truncate shortens a string for names and logging.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
