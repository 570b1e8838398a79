package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/AI-Driven-Creators/Chess-fight-backend/internal/catalog"
	"github.com/AI-Driven-Creators/Chess-fight-backend/internal/config"
	"github.com/AI-Driven-Creators/Chess-fight-backend/internal/database"
	"github.com/AI-Driven-Creators/Chess-fight-backend/internal/handler/health"
	"github.com/AI-Driven-Creators/Chess-fight-backend/internal/handler/matchws"
	"github.com/AI-Driven-Creators/Chess-fight-backend/internal/ledger"
	"github.com/AI-Driven-Creators/Chess-fight-backend/internal/match"
	"github.com/AI-Driven-Creators/Chess-fight-backend/internal/migrations"
	"github.com/AI-Driven-Creators/Chess-fight-backend/internal/notify"
	"github.com/AI-Driven-Creators/Chess-fight-backend/internal/server"
	"github.com/AI-Driven-Creators/Chess-fight-backend/internal/telemetry"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- Tracing ---
	shutdownTracing, err := telemetry.Setup(ctx, cfg.ServiceName, cfg.OTELEndpoint)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer shutdownTracing(context.Background())

	// --- Catalog ---
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	logger.Info("catalog loaded", "shop_pool", len(cat.ShopPool()))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	version, err := migrations.Version(db)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath, "schema_version", version)

	players := ledger.NewSQLiteLedger(db)
	if err := ledger.SeedDefault(ctx, players); err != nil {
		return fmt.Errorf("seeding default player: %w", err)
	}

	checks := map[string]health.Checker{"sqlite": health.DB(db)}

	// --- Notifications ---
	broker := notify.NewBroker()
	publishers := notify.Fanout{broker}

	if cfg.RedisURL != "" {
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		logger.Info("connected to redis")

		publishers = append(publishers, notify.NewRedisPublisher(rdb))
		checks["redis"] = health.Redis(rdb)
	}

	// --- Matches ---
	matches := match.NewRegistry(ctx, match.Config{
		TickInterval:   cfg.TickInterval,
		WaitingTimeout: cfg.WaitingTimeout,
		TimeScale:      cfg.TimeScale,
	}, match.SystemClock, publishers, logger)

	if cfg.AdminTokenHash == "" {
		logger.Warn("ADMIN_TOKEN_HASH not set, admin routes are open")
	}

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Matches:        matches,
		Events:         broker,
		Catalog:        cat,
		Health:         health.NewHandler(logger, checks).Routes(),
		MatchSocket:    matchws.NewHandler(logger, matches, players, cat, broker, matchws.Config{}).Routes(),
		AdminTokenHash: cfg.AdminTokenHash,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		err := srv.Shutdown(context.Background())
		logger.Info("stopping match runners")
		if cerr := matches.Close(); err == nil {
			err = cerr
		}
		return err
	})

	return g.Wait()
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}
