package cli

import (
	"context"
	"crypto/rand"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/zaidAlkhathlan/ramdan/internal/app"
	"github.com/zaidAlkhathlan/ramdan/internal/config"
	"github.com/zaidAlkhathlan/ramdan/internal/domain"
	"github.com/zaidAlkhathlan/ramdan/internal/event"
	"github.com/zaidAlkhathlan/ramdan/internal/identity"
	"github.com/zaidAlkhathlan/ramdan/internal/infra/memory"
	mongoinfra "github.com/zaidAlkhathlan/ramdan/internal/infra/mongo"
	pginfra "github.com/zaidAlkhathlan/ramdan/internal/infra/postgres"
	redisinfra "github.com/zaidAlkhathlan/ramdan/internal/infra/redis"
	"github.com/zaidAlkhathlan/ramdan/internal/riddle"
	transport "github.com/zaidAlkhathlan/ramdan/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the riddle server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	window, err := cfg.Window()
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var mongoDB *mongodriver.Database
	if cfg.Mongo.URI != "" {
		client, err := mongoinfra.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			return err
		}
		defer client.Disconnect(context.Background())
		dbName := cfg.Mongo.Database
		if dbName == "" {
			dbName = "ramdan"
		}
		mongoDB = client.Database(dbName)
		if err := mongoinfra.EnsureIndexes(ctx, mongoDB); err != nil {
			return err
		}
	}

	var loader memory.PoolLoader = memory.NewStaticPoolLoader(riddle.DefaultPool())
	switch {
	case pool != nil:
		loader = pginfra.NewRiddleLoader(pool)
	case mongoDB != nil:
		mloader := mongoinfra.NewRiddleLoader(mongoDB)
		if _, err := mloader.LoadPool(ctx); errors.Is(err, domain.ErrEmptyPool) {
			if err := mloader.Seed(ctx, riddle.DefaultPool()); err != nil {
				return err
			}
			log.Printf("seeded default riddle pool")
		}
		loader = mloader
	}

	riddleTTL := config.TTLDuration(cfg.Riddle.TTL, 10*time.Minute)
	var riddles app.RiddleSource
	if redisClient != nil {
		riddles = redisinfra.NewRiddleSource(redisClient, loader, riddleTTL)
	} else {
		riddles = memory.NewRiddleSource(loader, riddleTTL)
	}

	// The pool must be usable before the first request; an empty pool is a
	// configuration error, not a per-call one.
	warmup, warmupCancel := context.WithTimeout(ctx, 10*time.Second)
	defer warmupCancel()
	if _, err := riddles.Pool(warmup); err != nil {
		return err
	}

	var users app.UserStore = memory.NewUserStore()
	var accounts identity.AccountStore = memory.NewAccountStore()
	switch {
	case pool != nil:
		users = pginfra.NewUserStore(pool)
		accounts = pginfra.NewAccountStore(pool)
	case mongoDB != nil:
		users = mongoinfra.NewUserStore(mongoDB)
		accounts = mongoinfra.NewAccountStore(mongoDB)
	}

	// Placement assignment prefers the shared stores; only the no-backend
	// demo mode falls back to the in-process counter.
	var counter app.PlacementCounter = memory.NewPlacementCounter()
	switch {
	case redisClient != nil:
		counter = redisinfra.NewPlacementCounter(redisClient)
	case pool != nil:
		counter = pginfra.NewPlacementCounter(pool)
	case mongoDB != nil:
		counter = mongoinfra.NewPlacementCounter(mongoDB)
	}

	secret := []byte(cfg.Auth.JWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		_, _ = rand.Read(secret)
		log.Printf("auth.jwt_secret not configured, using an ephemeral key")
	}
	issuer := cfg.Auth.Issuer
	if issuer == "" {
		issuer = "ramdan"
	}

	game := app.NewGameService(users, counter, riddles, window)
	ids := identity.NewService(accounts, identity.NewTokenIssuer(secret, issuer))

	if cfg.AMQP.URL != "" {
		exchange := cfg.AMQP.Exchange
		if exchange == "" {
			exchange = "ramdan.events"
		}
		publisher, err := event.NewPublisher(cfg.AMQP.URL, exchange)
		if err != nil {
			return err
		}
		defer publisher.Close()

		updates, cancelFeed, err := game.Subscribe(ctx)
		if err != nil {
			return err
		}
		defer cancelFeed()
		go func() {
			for lb := range updates {
				if err := publisher.Publish("leaderboard.updated", lb); err != nil {
					log.Printf("publish leaderboard event: %v", err)
				}
			}
		}()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	transport.NewHandler(game, ids).Register(mux)
	mux.HandleFunc("/ws", transport.NewWSHandler(game).ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting riddle service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
