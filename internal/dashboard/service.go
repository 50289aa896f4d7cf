package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const cacheKey = "dashboard:counts"

// RepositoryPort defines the counter source.
type RepositoryPort interface {
	Counts(ctx context.Context, now time.Time) (Counts, error)
}

// Service caches the counters in Redis and coalesces concurrent misses so a
// cold cache triggers at most one set of count queries.
type Service struct {
	repo  RepositoryPort
	redis *redis.Client
	ttl   time.Duration
	group singleflight.Group
}

// NewService builds Service instance. A nil redis client disables caching.
func NewService(repo RepositoryPort, rdb *redis.Client, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{repo: repo, redis: rdb, ttl: ttl}
}

// Counts returns the current counters, from cache when fresh.
func (s *Service) Counts(ctx context.Context, now time.Time) (Counts, error) {
	if s.redis != nil {
		raw, err := s.redis.Get(ctx, cacheKey).Bytes()
		if err == nil {
			var cached Counts
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			return Counts{}, err
		}
	}

	v, err, _ := s.group.Do(cacheKey, func() (any, error) {
		counts, err := s.repo.Counts(ctx, now)
		if err != nil {
			return Counts{}, err
		}
		if s.redis != nil {
			if raw, err := json.Marshal(counts); err == nil {
				// Cache write failures degrade to recomputation.
				_ = s.redis.Set(ctx, cacheKey, raw, s.ttl).Err()
			}
		}
		return counts, nil
	})
	if err != nil {
		return Counts{}, err
	}
	return v.(Counts), nil
}

// Invalidate drops the cached counters. Mutating services may call this
// when a fresher dashboard matters more than the TTL.
func (s *Service) Invalidate(ctx context.Context) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Del(ctx, cacheKey).Err()
}
