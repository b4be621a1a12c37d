package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/zaidAlkhathlan/ramdan/internal/domain"
)

const poolKey = "riddle:pool"

// PoolLoader fetches the riddle pool from a backing store (e.g. Postgres).
type PoolLoader interface {
	LoadPool(ctx context.Context) ([]domain.Riddle, error)
}

// RiddleSource caches the serialized riddle pool in Redis and falls back to
// a loader on cache miss, so every instance shares one warm copy.
type RiddleSource struct {
	client *redis.Client
	loader PoolLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewRiddleSource(client *redis.Client, loader PoolLoader, ttl time.Duration) *RiddleSource {
	return &RiddleSource{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *RiddleSource) Pool(ctx context.Context) ([]domain.Riddle, error) {
	if pool, ok := s.cached(ctx); ok {
		return pool, nil
	}

	result, err, _ := s.sf.Do(poolKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if pool, ok := s.cached(ctx); ok {
			return pool, nil
		}

		pool, err := s.loader.LoadPool(ctx)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(pool); err == nil {
			_ = s.client.Set(ctx, poolKey, data, s.ttlWithJitter()).Err()
		}
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Riddle), nil
}

func (s *RiddleSource) cached(ctx context.Context) ([]domain.Riddle, bool) {
	data, err := s.client.Get(ctx, poolKey).Bytes()
	if err != nil {
		return nil, false
	}
	var pool []domain.Riddle
	if err := json.Unmarshal(data, &pool); err != nil || len(pool) == 0 {
		return nil, false
	}
	return pool, true
}

func (s *RiddleSource) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	jitterMax := int64(s.ttl) / 10
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}
