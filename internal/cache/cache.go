// Package cache implements the tier-aware response cache: TTL per entry,
// bounded capacity with least-recently-used eviction, and stale reads for the
// executor's last-resort path.
package cache

import (
	"context"
	"time"

	"github.com/scout-analytics/adsbot/internal/models"
)

// Entry is one cached response. Entries are written atomically and never
// partially updated; insert and evict are the only mutations.
type Entry struct {
	Fingerprint string            `json:"fingerprint"`
	Response    models.AIResponse `json:"response"`
	CreatedAt   time.Time         `json:"created_at"`
	TTL         time.Duration     `json:"ttl"`
	Tier        models.Tier       `json:"tier"`
}

// Expired reports whether the entry's TTL has elapsed at the given instant.
func (e *Entry) Expired(now time.Time) bool {
	return now.Sub(e.CreatedAt) >= e.TTL
}

// Store is the response cache contract shared by the in-memory and Redis
// backends.
//
// Get returns only fresh entries; an expired entry is a miss but is retained
// so GetStale can still serve it as a last resort. Expired entries leave the
// store through LRU eviction. Put with a non-positive TTL is a no-op: TTL
// class none is never stored.
type Store interface {
	Get(ctx context.Context, fingerprint string) (*Entry, bool)
	GetStale(ctx context.Context, fingerprint string) (*Entry, bool)
	Put(ctx context.Context, fingerprint string, response models.AIResponse, ttl time.Duration, tier models.Tier) error
	Len(ctx context.Context) int
}
