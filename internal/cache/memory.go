package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/scout-analytics/adsbot/internal/metrics"
	"github.com/scout-analytics/adsbot/internal/models"
)

// MemoryStore is a bounded in-process cache with LRU eviction. A Get on a hit
// updates the entry's last-access time, so reads take the write lock too.
type MemoryStore struct {
	mu       sync.Mutex
	entries  map[string]*Entry
	access   map[string]time.Time
	capacity int
	logger   *zap.Logger
	now      func() time.Time
}

// DefaultCapacity bounds the cache when the caller passes a non-positive
// capacity.
const DefaultCapacity = 1000

// NewMemoryStore creates an in-memory store holding at most capacity entries.
func NewMemoryStore(capacity int, logger *zap.Logger) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryStore{
		entries:  make(map[string]*Entry),
		access:   make(map[string]time.Time),
		capacity: capacity,
		logger:   logger,
		now:      time.Now,
	}
}

// Get returns a fresh entry and touches its recency. Expired entries are
// misses but stay resident for GetStale.
func (s *MemoryStore) Get(ctx context.Context, fingerprint string) (*Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[fingerprint]
	if !ok {
		metrics.CacheMisses.Inc()
		return nil, false
	}
	if e.Expired(s.now()) {
		metrics.CacheMisses.Inc()
		return nil, false
	}
	s.access[fingerprint] = s.now()
	metrics.CacheHits.Inc()
	cp := *e
	return &cp, true
}

// GetStale returns an entry regardless of expiry. It does not touch recency:
// a stale serve should not outlive fresher entries under eviction pressure.
func (s *MemoryStore) GetStale(ctx context.Context, fingerprint string) (*Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[fingerprint]
	if !ok {
		return nil, false
	}
	cp := *e
	return &cp, true
}

// Put inserts or overwrites the entry for a fingerprint, evicting the
// least-recently-used entry first when at capacity. A non-positive TTL is a
// no-op.
func (s *MemoryStore) Put(ctx context.Context, fingerprint string, response models.AIResponse, ttl time.Duration, tier models.Tier) error {
	if ttl <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[fingerprint]; !exists && len(s.entries) >= s.capacity {
		s.evictLRULocked()
	}

	now := s.now()
	s.entries[fingerprint] = &Entry{
		Fingerprint: fingerprint,
		Response:    response,
		CreatedAt:   now,
		TTL:         ttl,
		Tier:        tier,
	}
	s.access[fingerprint] = now
	metrics.CacheSize.Set(float64(len(s.entries)))
	return nil
}

// Len returns the number of resident entries, expired ones included.
func (s *MemoryStore) Len(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// evictLRULocked removes the entry with the oldest last-access time. Caller
// must hold s.mu.
func (s *MemoryStore) evictLRULocked() {
	var oldestKey string
	var oldestAt time.Time
	for fp, at := range s.access {
		if oldestKey == "" || at.Before(oldestAt) {
			oldestKey = fp
			oldestAt = at
		}
	}
	if oldestKey == "" {
		return
	}
	delete(s.entries, oldestKey)
	delete(s.access, oldestKey)
	metrics.CacheEvictions.Inc()
	if s.logger != nil {
		s.logger.Debug("evicted cache entry",
			zap.String("fingerprint", oldestKey),
			zap.Time("last_access", oldestAt),
		)
	}
}
