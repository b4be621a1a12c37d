package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/zaidAlkhathlan/ramdan/internal/domain"
	"github.com/zaidAlkhathlan/ramdan/internal/riddle"
)

func TestMongoStores(t *testing.T) {
	ctx := context.Background()

	uri, cleanup := startMongo(t, ctx)
	defer cleanup()

	client, err := Connect(ctx, uri)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database("ramdan_test")
	if err := EnsureIndexes(ctx, db); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	t.Run("user store", func(t *testing.T) {
		store := NewUserStore(db)

		first, err := store.Create(ctx, "u1", "a@example.com")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		again, err := store.Create(ctx, "u1", "other@example.com")
		if err != nil {
			t.Fatalf("re-create: %v", err)
		}
		if again.Email != first.Email || again.Seq != first.Seq {
			t.Fatalf("re-create changed the record: %+v vs %+v", again, first)
		}

		total, err := store.MarkAnswered(ctx, "u1", "2026-03-05", true, 15)
		if err != nil {
			t.Fatalf("mark answered: %v", err)
		}
		if total != 15 {
			t.Fatalf("expected 15 points, got %d", total)
		}
		if _, err := store.MarkAnswered(ctx, "u1", "2026-03-05", true, 10); !errors.Is(err, domain.ErrAlreadyAnswered) {
			t.Fatalf("expected ErrAlreadyAnswered, got %v", err)
		}
		if _, err := store.MarkAnswered(ctx, "ghost", "2026-03-05", true, 10); !errors.Is(err, domain.ErrRecordNotFound) {
			t.Fatalf("expected ErrRecordNotFound, got %v", err)
		}

		// A new day is a fresh attempt.
		if _, err := store.MarkAnswered(ctx, "u1", "2026-03-06", false, 0); err != nil {
			t.Fatalf("next day mark: %v", err)
		}

		for i := 2; i <= 3; i++ {
			userID := fmt.Sprintf("u%d", i)
			if _, err := store.Create(ctx, userID, userID+"@example.com"); err != nil {
				t.Fatalf("create %s: %v", userID, err)
			}
		}
		_, _ = store.MarkAnswered(ctx, "u2", "2026-03-05", true, 15)

		rows, err := store.Leaderboard(ctx, 10)
		if err != nil {
			t.Fatalf("leaderboard: %v", err)
		}
		if len(rows) != 3 {
			t.Fatalf("expected 3 rows, got %d", len(rows))
		}
		// u1 and u2 tie on points; creation order decides.
		if rows[0].UserID != "u1" || rows[1].UserID != "u2" || rows[2].UserID != "u3" {
			t.Fatalf("unexpected ordering: %s %s %s", rows[0].UserID, rows[1].UserID, rows[2].UserID)
		}
	})

	t.Run("placement counter", func(t *testing.T) {
		counter := NewPlacementCounter(db)

		for want := 0; want < 3; want++ {
			got, err := counter.Next(ctx, "2026-03-05")
			if err != nil {
				t.Fatalf("next: %v", err)
			}
			if got != want {
				t.Fatalf("expected slot %d, got %d", want, got)
			}
		}
		if got, _ := counter.Next(ctx, "2026-03-06"); got != 0 {
			t.Fatalf("expected fresh day to start at slot 0, got %d", got)
		}

		// Releasing a stale slot must not rewind the counter.
		if err := counter.Release(ctx, "2026-03-05", 0); err != nil {
			t.Fatalf("release: %v", err)
		}
		if got, _ := counter.Next(ctx, "2026-03-05"); got != 3 {
			t.Fatalf("stale release rewound counter, got slot %d", got)
		}
		// Releasing the latest slot makes it claimable again.
		if err := counter.Release(ctx, "2026-03-05", 3); err != nil {
			t.Fatalf("release: %v", err)
		}
		if got, _ := counter.Next(ctx, "2026-03-05"); got != 3 {
			t.Fatalf("expected released slot 3 to be reissued, got %d", got)
		}
	})

	t.Run("account store", func(t *testing.T) {
		store := NewAccountStore(db)
		account := domain.Account{ID: "acc-1", Email: "a@example.com", PasswordHash: "hash", CreatedAt: time.Now()}

		if err := store.Create(ctx, account); err != nil {
			t.Fatalf("create: %v", err)
		}
		dup := account
		dup.ID = "acc-2"
		if err := store.Create(ctx, dup); !errors.Is(err, domain.ErrAccountExists) {
			t.Fatalf("expected ErrAccountExists, got %v", err)
		}

		got, err := store.ByEmail(ctx, "a@example.com")
		if err != nil {
			t.Fatalf("by email: %v", err)
		}
		if got.ID != "acc-1" || got.PasswordHash != "hash" {
			t.Fatalf("unexpected account: %+v", got)
		}
		if _, err := store.ByEmail(ctx, "ghost@example.com"); !errors.Is(err, domain.ErrAccountNotFound) {
			t.Fatalf("expected ErrAccountNotFound, got %v", err)
		}
	})

	t.Run("riddle loader", func(t *testing.T) {
		loader := NewRiddleLoader(db)

		if _, err := loader.LoadPool(ctx); !errors.Is(err, domain.ErrEmptyPool) {
			t.Fatalf("expected ErrEmptyPool before seeding, got %v", err)
		}
		if err := loader.Seed(ctx, riddle.DefaultPool()); err != nil {
			t.Fatalf("seed: %v", err)
		}
		pool, err := loader.LoadPool(ctx)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if len(pool) != len(riddle.DefaultPool()) {
			t.Fatalf("expected %d riddles, got %d", len(riddle.DefaultPool()), len(pool))
		}
		if pool[0].Answer != riddle.DefaultPool()[0].Answer {
			t.Fatalf("pool order not preserved: %+v", pool[0])
		}
	})
}

func startMongo(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start mongo: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "27017/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	uri := fmt.Sprintf("mongodb://%s:%s", host, port.Port())
	return uri, func() {
		_ = container.Terminate(ctx)
	}
}
