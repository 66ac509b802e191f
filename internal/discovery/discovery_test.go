package discovery

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/polyinsider/sonar/internal/store"
)

const gammaResponse = `[
	{
		"question": "Will it rain tomorrow?",
		"volume24hr": "120000.5",
		"clobTokenIds": "[\"tok-yes-1\", \"tok-no-1\"]"
	},
	{
		"question": "Broken market",
		"volume24hr": 90000,
		"clobTokenIds": "not json"
	},
	{
		"question": "Multi outcome market",
		"volume24hr": 80000,
		"clobTokenIds": ["a", "b", "c"]
	},
	{
		"question": "Will the election resolve YES?",
		"volume24hr": 70000,
		"clobTokenIds": ["tok-yes-2", "tok-no-2"]
	},
	{
		"question": "Overflow market",
		"volume24hr": 60000,
		"clobTokenIds": ["tok-yes-3", "tok-no-3"]
	}
]`

func TestDiscoverPicksTopNBinaryMarkets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("order") != "volume24hr" || q.Get("ascending") != "false" {
			t.Errorf("missing volume sort params: %v", q)
		}
		if q.Get("active") != "true" || q.Get("closed") != "false" {
			t.Errorf("missing active/closed params: %v", q)
		}
		w.Write([]byte(gammaResponse))
	}))
	defer srv.Close()

	st := store.NewMemoryStore()
	d := NewDiscoverer(srv.URL, 2, st)

	snap, err := d.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}

	// Two qualifying markets, two tokens each; the malformed and
	// multi-outcome markets are skipped, the overflow one is past N.
	want := []string{"tok-yes-1", "tok-no-1", "tok-yes-2", "tok-no-2"}
	if len(snap.TokenIDs) != len(want) {
		t.Fatalf("TokenIDs = %v, want %v", snap.TokenIDs, want)
	}
	for i, id := range want {
		if snap.TokenIDs[i] != id {
			t.Errorf("TokenIDs[%d] = %q, want %q", i, snap.TokenIDs[i], id)
		}
	}

	if snap.Names["tok-yes-1"] != "Will it rain tomorrow?" {
		t.Errorf("name map wrong: %q", snap.Names["tok-yes-1"])
	}
	if snap.Names["tok-no-1"] != snap.Names["tok-yes-1"] {
		t.Error("both outcome tokens should share the market question")
	}

	markets, err := st.Markets(context.Background())
	if err != nil {
		t.Fatalf("Markets failed: %v", err)
	}
	if len(markets) != 4 {
		t.Fatalf("expected 4 upserted markets, got %d", len(markets))
	}
	if markets[0].Volume24h != 120000.5 {
		t.Errorf("string-encoded volume not parsed: %v", markets[0].Volume24h)
	}
}

func TestDiscoverEndpointFailureReturnsDiscoveryError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := NewDiscoverer(srv.URL, 5, store.NewMemoryStore())
	_, err := d.Discover(context.Background())

	var derr *DiscoveryError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DiscoveryError, got %v", err)
	}
}

func TestDiscoverMalformedBodyReturnsDiscoveryError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not a list}"))
	}))
	defer srv.Close()

	d := NewDiscoverer(srv.URL, 5, store.NewMemoryStore())
	_, err := d.Discover(context.Background())

	var derr *DiscoveryError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DiscoveryError, got %v", err)
	}
}

func TestSnapshotNameFallback(t *testing.T) {
	snap := &Snapshot{Names: map[string]string{"tok": "Known market"}}

	if got := snap.Name("tok"); got != "Known market" {
		t.Errorf("Name = %q", got)
	}
	if got := snap.Name("0123456789abcdef0123"); got != "0123456789abcdef" {
		t.Errorf("fallback should truncate to 16 chars, got %q", got)
	}
	if got := snap.Name("short"); got != "short" {
		t.Errorf("short ids pass through, got %q", got)
	}
}
