package detector

import (
	"sync"
	"time"
)

// DefaultDedupTTL keeps a signal key suppressed for two hours, comfortably
// past the longest key bucket so a pattern re-alerts only in a new bucket.
const DefaultDedupTTL = 2 * time.Hour

// Dedup suppresses repeated signals by key across scan passes. Safe for
// concurrent use.
type Dedup struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[string]time.Time
	now  func() time.Time
}

// NewDedup creates a tracker. A non-positive ttl falls back to the default.
func NewDedup(ttl time.Duration) *Dedup {
	if ttl <= 0 {
		ttl = DefaultDedupTTL
	}
	return &Dedup{
		ttl:  ttl,
		seen: make(map[string]time.Time),
		now:  time.Now,
	}
}

// FirstSeen reports whether key is new within the TTL and records it.
// Expired entries are swept on each call.
func (d *Dedup) FirstSeen(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for k, at := range d.seen {
		if now.Sub(at) > d.ttl {
			delete(d.seen, k)
		}
	}

	if _, ok := d.seen[key]; ok {
		return false
	}
	d.seen[key] = now
	return true
}

// Len reports the number of live keys.
func (d *Dedup) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
