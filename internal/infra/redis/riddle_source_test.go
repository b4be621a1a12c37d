package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/zaidAlkhathlan/ramdan/internal/domain"
	"github.com/zaidAlkhathlan/ramdan/internal/infra/memory"
	"github.com/zaidAlkhathlan/ramdan/internal/riddle"
)

func TestRiddleSourceCachesPoolInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{PoolLoader: memory.NewStaticPoolLoader(riddle.DefaultPool())}
	source := NewRiddleSource(newClient(mr), loader, time.Minute)

	pool, err := source.Pool(context.Background())
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	if len(pool) != 3 {
		t.Fatalf("expected 3 riddles, got %d", len(pool))
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists(poolKey) {
		t.Fatalf("expected pool cached under %q", poolKey)
	}

	// Second call should hit cache, loader not incremented.
	_, _ = source.Pool(context.Background())
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
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
