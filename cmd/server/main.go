package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/playperu/geohunt/internal/config"
	"github.com/playperu/geohunt/internal/database"
	"github.com/playperu/geohunt/internal/handler/health"
	"github.com/playperu/geohunt/internal/hunt"
	"github.com/playperu/geohunt/internal/migrations"
	"github.com/playperu/geohunt/internal/server"
	"github.com/playperu/geohunt/internal/store"
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

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(ctx, db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	checks := map[string]health.Checker{
		"sqlite": health.CheckerFunc(db.PingContext),
	}

	// --- Backpack storage ---
	var backpacks hunt.Storage = store.NewSQLiteKV(db)
	if cfg.BackpackStore == "redis" {
		rdb, err := store.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()

		kv := store.NewRedisKV(rdb, "geohunt:")
		backpacks = kv
		checks["redis"] = kv
		logger.Info("connected to redis")
	}

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, server.Deps{
		Logger:        logger,
		Source:        geofenceSource(cfg.GeofenceSource),
		Storage:       backpacks,
		Cooldown:      cfg.Cooldown,
		SessionTTL:    cfg.SessionTTL,
		Registrations: store.NewRegistrations(db),
		Checks:        checks,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr, "geofences", cfg.GeofenceSource)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		return srv.ExpireSessions(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

// geofenceSource treats http(s) URLs as remote sources and anything else as
// a file path.
func geofenceSource(s string) hunt.Source {
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return hunt.HTTPSource{URL: s}
	}
	return hunt.FileSource{Path: s}
}
