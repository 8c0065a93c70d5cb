package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/scout-analytics/adsbot/internal/metrics"
	"github.com/scout-analytics/adsbot/internal/models"
)

// RedisStore is the shared-cache backend for multi-process deployments.
//
// Entries carry their created-at and TTL inside the serialized value instead
// of using Redis key expiry: Redis would delete expired keys on its own,
// which breaks stale reads. Recency lives in a sorted set scored by access
// time; trimming that set to capacity is the LRU policy.
type RedisStore struct {
	client   redis.UniversalClient
	prefix   string
	capacity int
	logger   *zap.Logger
	now      func() time.Time
}

// NewRedisStore creates a Redis-backed store holding at most capacity entries.
func NewRedisStore(client redis.UniversalClient, prefix string, capacity int, logger *zap.Logger) *RedisStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if prefix == "" {
		prefix = "adsbot:cache"
	}
	return &RedisStore{
		client:   client,
		prefix:   prefix,
		capacity: capacity,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *RedisStore) entryKey(fingerprint string) string {
	return s.prefix + ":entry:" + fingerprint
}

func (s *RedisStore) accessKey() string {
	return s.prefix + ":access"
}

// Get returns a fresh entry and touches its recency.
func (s *RedisStore) Get(ctx context.Context, fingerprint string) (*Entry, bool) {
	e, ok := s.load(ctx, fingerprint)
	if !ok || e.Expired(s.now()) {
		metrics.CacheMisses.Inc()
		return nil, false
	}
	s.touch(ctx, fingerprint)
	metrics.CacheHits.Inc()
	return e, true
}

// GetStale returns an entry regardless of expiry, without touching recency.
func (s *RedisStore) GetStale(ctx context.Context, fingerprint string) (*Entry, bool) {
	return s.load(ctx, fingerprint)
}

// Put stores the entry and trims the store back to capacity. A non-positive
// TTL is a no-op.
func (s *RedisStore) Put(ctx context.Context, fingerprint string, response models.AIResponse, ttl time.Duration, tier models.Tier) error {
	if ttl <= 0 {
		return nil
	}

	now := s.now()
	e := Entry{
		Fingerprint: fingerprint,
		Response:    response,
		CreatedAt:   now,
		TTL:         ttl,
		Tier:        tier,
	}
	raw, err := json.Marshal(&e)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.entryKey(fingerprint), raw, 0)
	pipe.ZAdd(ctx, s.accessKey(), redis.Z{Score: float64(now.UnixNano()), Member: fingerprint})
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	s.trim(ctx)
	metrics.CacheSize.Set(float64(s.Len(ctx)))
	return nil
}

// Len returns the number of tracked entries.
func (s *RedisStore) Len(ctx context.Context) int {
	n, err := s.client.ZCard(ctx, s.accessKey()).Result()
	if err != nil {
		return 0
	}
	return int(n)
}

// load fetches and decodes an entry. A value that fails to decode is treated
// as a miss, deleted, and logged rather than surfaced as an error.
func (s *RedisStore) load(ctx context.Context, fingerprint string) (*Entry, bool) {
	raw, err := s.client.Get(ctx, s.entryKey(fingerprint)).Bytes()
	if err != nil {
		if err != redis.Nil && s.logger != nil {
			s.logger.Warn("cache read failed", zap.String("fingerprint", fingerprint), zap.Error(err))
		}
		return nil, false
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		if s.logger != nil {
			s.logger.Warn("corrupt cache entry, dropping",
				zap.String("fingerprint", fingerprint),
				zap.Error(err),
			)
		}
		s.client.Del(ctx, s.entryKey(fingerprint))
		s.client.ZRem(ctx, s.accessKey(), fingerprint)
		return nil, false
	}
	return &e, true
}

func (s *RedisStore) touch(ctx context.Context, fingerprint string) {
	s.client.ZAdd(ctx, s.accessKey(), redis.Z{
		Score:  float64(s.now().UnixNano()),
		Member: fingerprint,
	})
}

// trim evicts least-recently-accessed fingerprints until the store is back at
// capacity.
func (s *RedisStore) trim(ctx context.Context) {
	n, err := s.client.ZCard(ctx, s.accessKey()).Result()
	if err != nil || int(n) <= s.capacity {
		return
	}
	over := int(n) - s.capacity
	victims, err := s.client.ZRange(ctx, s.accessKey(), 0, int64(over-1)).Result()
	if err != nil || len(victims) == 0 {
		return
	}
	pipe := s.client.TxPipeline()
	for _, fp := range victims {
		pipe.Del(ctx, s.entryKey(fp))
		pipe.ZRem(ctx, s.accessKey(), fp)
	}
	if _, err := pipe.Exec(ctx); err != nil && s.logger != nil {
		s.logger.Warn("cache trim failed", zap.Error(err))
		return
	}
	metrics.CacheEvictions.Add(float64(len(victims)))
}
