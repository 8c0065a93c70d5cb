// Package telemetry records every routing decision and outcome as timestamped
// events. The store is append-only; aggregates are computed on read so the
// write path has no side effects beyond the append.
package telemetry

import (
	"sync"
	"time"

	"github.com/scout-analytics/adsbot/internal/metrics"
)

// Well-known event keys. Callers may record additional keys; these are the
// minimum the executor emits.
const (
	EventQuerySuccess     = "query_success"
	EventQueryFailure     = "query_failure"
	EventCacheHit         = "cache_hit"
	EventCacheMiss        = "cache_miss"
	EventCacheStaleHit    = "cache_stale_hit"
	EventProviderFallback = "provider_fallback"
)

// Event is one telemetry record. Date is the ISO calendar date of Timestamp,
// kept denormalized because date filtering is the common read path.
type Event struct {
	Key       string                 `json:"key"`
	Date      string                 `json:"date"`
	Timestamp time.Time              `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

// Stats are the on-read aggregates over the event list.
type Stats struct {
	TotalEvents    int            `json:"total_events"`
	ByKey          map[string]int `json:"by_key"`
	CacheHitRate   float64        `json:"cache_hit_rate"`
	ProviderCounts map[string]int `json:"provider_counts"`
	AvgDurationMS  float64        `json:"avg_duration_ms"`
}

// Store is an injected, in-memory telemetry recorder. Retention is bounded:
// once maxEvents is reached the oldest events are dropped so long-lived
// processes do not grow without limit.
type Store struct {
	mu        sync.RWMutex
	events    []Event
	maxEvents int
	now       func() time.Time
}

// DefaultMaxEvents bounds retention when the caller passes a non-positive cap.
const DefaultMaxEvents = 10000

// NewStore creates a telemetry store retaining at most maxEvents events.
func NewStore(maxEvents int) *Store {
	if maxEvents <= 0 {
		maxEvents = DefaultMaxEvents
	}
	return &Store{
		events:    make([]Event, 0, 256),
		maxEvents: maxEvents,
		now:       time.Now,
	}
}

// Record appends one event.
func (s *Store) Record(key string, payload map[string]interface{}) {
	now := s.now()
	e := Event{
		Key:       key,
		Date:      now.Format("2006-01-02"),
		Timestamp: now,
		Payload:   payload,
	}

	s.mu.Lock()
	if len(s.events) >= s.maxEvents {
		drop := len(s.events) - s.maxEvents + 1
		s.events = append(s.events[:0], s.events[drop:]...)
	}
	s.events = append(s.events, e)
	s.mu.Unlock()

	metrics.TelemetryEvents.WithLabelValues(key).Inc()
}

// Query returns events matching the filters, oldest first. Empty filters
// match everything; date filters compare against the ISO date string.
func (s *Store) Query(keyFilter, dateFilter string) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Event, 0, len(s.events))
	for _, e := range s.events {
		if keyFilter != "" && e.Key != keyFilter {
			continue
		}
		if dateFilter != "" && e.Date != dateFilter {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Aggregate computes read-time statistics over all retained events.
func (s *Store) Aggregate() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		ByKey:          make(map[string]int),
		ProviderCounts: make(map[string]int),
	}
	var durTotal float64
	var durCount int

	for _, e := range s.events {
		stats.TotalEvents++
		stats.ByKey[e.Key]++
		if p, ok := e.Payload["provider"].(string); ok && p != "" {
			stats.ProviderCounts[p]++
		}
		if d, ok := toFloat(e.Payload["duration_ms"]); ok {
			durTotal += d
			durCount++
		}
	}

	hits := stats.ByKey[EventCacheHit]
	misses := stats.ByKey[EventCacheMiss]
	if hits+misses > 0 {
		stats.CacheHitRate = float64(hits) / float64(hits+misses)
	}
	if durCount > 0 {
		stats.AvgDurationMS = durTotal / float64(durCount)
	}
	return stats
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
