package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/zaidAlkhathlan/ramdan/internal/domain"
	"golang.org/x/sync/singleflight"
)

// PoolLoader fetches the riddle pool from a backing store (e.g. Postgres).
type PoolLoader interface {
	LoadPool(ctx context.Context) ([]domain.Riddle, error)
}

// RiddleSource caches the riddle pool with TTL to avoid repeated store hits.
// The pool is static lookup data, so a generous TTL is safe.
type RiddleSource struct {
	loader PoolLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	pool      []domain.Riddle
	expiresAt time.Time
}

func NewRiddleSource(loader PoolLoader, ttl time.Duration) *RiddleSource {
	return &RiddleSource{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *RiddleSource) Pool(ctx context.Context) ([]domain.Riddle, error) {
	now := s.clock()

	s.mu.RLock()
	if s.fresh(now) {
		pool := s.pool
		s.mu.RUnlock()
		return pool, nil
	}
	s.mu.RUnlock()

	result, err, _ := s.sf.Do("pool", func() (interface{}, error) {
		now := s.clock()
		s.mu.RLock()
		if s.fresh(now) {
			pool := s.pool
			s.mu.RUnlock()
			return pool, nil
		}
		s.mu.RUnlock()

		pool, err := s.loader.LoadPool(ctx)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.pool = pool
		s.expiresAt = now.Add(s.ttlWithJitter())
		s.mu.Unlock()
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Riddle), nil
}

// fresh reports whether the cached pool is still usable. A non-positive TTL
// means the pool never expires, matching the Redis source's zero-TTL
// contract. Callers must hold at least the read lock.
func (s *RiddleSource) fresh(now time.Time) bool {
	return s.pool != nil && (s.ttl <= 0 || s.expiresAt.After(now))
}

func (s *RiddleSource) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(s.ttl) / 10
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}

// StaticPoolLoader serves a fixed pool from memory (demo mode, tests).
type StaticPoolLoader struct {
	pool []domain.Riddle
}

func NewStaticPoolLoader(pool []domain.Riddle) *StaticPoolLoader {
	return &StaticPoolLoader{pool: pool}
}

func (l *StaticPoolLoader) LoadPool(_ context.Context) ([]domain.Riddle, error) {
	if len(l.pool) == 0 {
		return nil, domain.ErrEmptyPool
	}
	return l.pool, nil
}
