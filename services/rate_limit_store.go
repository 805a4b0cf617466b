package services

import (
	"context"
	"sync"
	"time"

	"github.com/dentis-care/dentis-api/model"
)

// RateLimitStore is the injectable counter backend for the fixed-window
// limiter. Hit performs the whole read-modify-write for one request: it
// starts a fresh window at count=1 when the key is unseen or its window has
// elapsed, and increments otherwise. The caller compares the returned count
// against its own max.
type RateLimitStore interface {
	Hit(ctx context.Context, key string, window time.Duration) (*model.RateLimitEntry, error)
	Reset(ctx context.Context, key string) error
	// Sweep drops entries whose window has already elapsed and returns how
	// many were removed. Backends with native expiry may make this a no-op.
	Sweep(ctx context.Context, now time.Time) int
}

// memoryRateLimitStore keeps counters in a process-local map. The reference
// implementation left the read-modify-write unsynchronized; this port takes
// a mutex instead, since Fiber handles requests on concurrent goroutines
// and a race here would under-count. Single-instance deployments only — see
// redisRateLimitStore for the multi-replica backend.
type memoryRateLimitStore struct {
	mu      sync.Mutex
	entries map[string]*model.RateLimitEntry
}

func newMemoryRateLimitStore() *memoryRateLimitStore {
	return &memoryRateLimitStore{
		entries: make(map[string]*model.RateLimitEntry),
	}
}

func (s *memoryRateLimitStore) Hit(_ context.Context, key string, window time.Duration) (*model.RateLimitEntry, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || now.After(entry.ResetAt) || now.Equal(entry.ResetAt) {
		entry = &model.RateLimitEntry{
			Key:     key,
			Count:   1,
			ResetAt: now.Add(window),
		}
		s.entries[key] = entry
	} else {
		entry.Count++
	}

	snapshot := *entry
	return &snapshot, nil
}

func (s *memoryRateLimitStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

func (s *memoryRateLimitStore) Sweep(_ context.Context, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.entries {
		if entry.ResetAt.Before(now) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

func (s *memoryRateLimitStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// redisRateLimitStore shares counters across replicas. INCR+EXPIREAT gives
// the same fixed-window semantics as the in-memory map; expiry replaces the
// sweep entirely.
type redisRateLimitStore struct {
	redisSvc *RedisService
}

func newRedisRateLimitStore(redisSvc *RedisService) *redisRateLimitStore {
	return &redisRateLimitStore{redisSvc: redisSvc}
}

func (s *redisRateLimitStore) Hit(ctx context.Context, key string, window time.Duration) (*model.RateLimitEntry, error) {
	count, err := s.redisSvc.Increment(ctx, "ratelimit:"+key)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	resetAt := now.Add(window)
	if count == 1 {
		if err := s.redisSvc.ExpireAt(ctx, "ratelimit:"+key, resetAt); err != nil {
			return nil, err
		}
	} else if ttl, err := s.redisSvc.PTTL(ctx, "ratelimit:"+key); err == nil && ttl > 0 {
		resetAt = now.Add(ttl)
	}

	return &model.RateLimitEntry{
		Key:     key,
		Count:   int(count),
		ResetAt: resetAt,
	}, nil
}

func (s *redisRateLimitStore) Reset(ctx context.Context, key string) error {
	return s.redisSvc.Delete(ctx, "ratelimit:"+key)
}

func (s *redisRateLimitStore) Sweep(_ context.Context, _ time.Time) int {
	// Redis expires keys on its own.
	return 0
}
