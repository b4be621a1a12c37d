package memory

import (
	"context"
	"testing"
	"time"

	"github.com/zaidAlkhathlan/ramdan/internal/domain"
	"github.com/zaidAlkhathlan/ramdan/internal/riddle"
)

func TestRiddleSourceCachesPool(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{PoolLoader: NewStaticPoolLoader(riddle.DefaultPool())}
	source := NewRiddleSource(loader, 5*time.Minute)

	pool, err := source.Pool(ctx)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	if len(pool) != 3 {
		t.Fatalf("expected 3 riddles, got %d", len(pool))
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}

	// Second call should hit cache, loader not incremented.
	_, _ = source.Pool(ctx)
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
}

func TestRiddleSourceZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{PoolLoader: NewStaticPoolLoader(riddle.DefaultPool())}
	source := NewRiddleSource(loader, 0)

	current := time.Date(2026, time.March, 5, 12, 0, 0, 0, time.UTC)
	source.clock = func() time.Time { return current }

	if _, err := source.Pool(ctx); err != nil {
		t.Fatalf("pool: %v", err)
	}
	current = current.AddDate(1, 0, 0)
	if _, err := source.Pool(ctx); err != nil {
		t.Fatalf("pool: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("a zero TTL must never expire the cache, loader calls=%d", loader.calls)
	}
}

func TestStaticPoolLoaderRejectsEmptyPool(t *testing.T) {
	loader := NewStaticPoolLoader(nil)
	if _, err := loader.LoadPool(context.Background()); err != domain.ErrEmptyPool {
		t.Fatalf("expected ErrEmptyPool, got %v", err)
	}
}

type countingLoader struct {
	PoolLoader
	calls int
}

func (l *countingLoader) LoadPool(ctx context.Context) ([]domain.Riddle, error) {
	l.calls++
	return l.PoolLoader.LoadPool(ctx)
}
