// Package main runs the backend query service: the live and historical
// stores served in their native conventions, cache administration and the
// push channel hub.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cs2-telemetry/internal/api"
	"cs2-telemetry/internal/config"
	"cs2-telemetry/internal/observability"
	"cs2-telemetry/internal/pipeline"
	"cs2-telemetry/internal/storage"
	chstore "cs2-telemetry/internal/storage/clickhouse"
	"cs2-telemetry/internal/storage/memory"
	"cs2-telemetry/internal/storage/migrations"
	pgstore "cs2-telemetry/internal/storage/postgres"
	redisstore "cs2-telemetry/internal/storage/redis"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (overrides "+config.EnvConfigFile+")")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := log.New(os.Stdout, "[server] ", cfg.LogFlags())
	observability.Init(cfg.MetricsNamespace)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	live, historical, cleanup, err := createStores(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	if cfg.SeedFixtures {
		if err := pipeline.LoadFixtures(ctx, live, historical); err != nil {
			logger.Fatalf("Failed to load fixtures: %v", err)
		}
		logger.Println("Loaded demonstration fixtures")
	}

	srv := api.NewServer(api.ServerOptions{
		Live:       live,
		Historical: historical,
		Hub:        api.NewHub(api.DefaultBroadcastBuffer, log.New(os.Stdout, "[hub] ", cfg.LogFlags())),
		Origins:    cfg.Origins(),
		Timeout:    cfg.RequestTimeout(),
		Logger:     logger,
	})
	go srv.Hub().Run(ctx)

	httpServer := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           srv.Routes(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("Starting HTTP server on %s (live=%s historical=%s)",
			cfg.ServerAddr, cfg.LiveBackend, cfg.HistoricalBackend)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
	case err := <-errCh:
		logger.Printf("HTTP server error: %v", err)
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	go func() {
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-shutdownCtx.Done():
		}
	}()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP shutdown: %v", err)
	}
	logger.Println("Shutdown complete")
}

// createStores opens the configured live and historical stores and applies
// migrations where the backend needs them.
func createStores(ctx context.Context, cfg *config.Config) (storage.LiveStore, storage.HistoricalStore, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var live storage.LiveStore
	switch cfg.LiveBackend {
	case config.BackendMemory:
		live = memory.NewLiveStore()
	default:
		client, err := redisstore.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		closers = append(closers, func() { _ = client.Close() })
		live = redisstore.NewLiveStore(client)
	}

	var historical storage.HistoricalStore
	switch cfg.HistoricalBackend {
	case config.BackendMemory:
		historical = memory.NewHistoricalStore()
	case config.BackendPostgres:
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN, pgstore.WithApplicationName("cs2-telemetry-server"))
		if err != nil {
			cleanup()
			return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			cleanup()
			return nil, nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		historical = pgstore.NewHistoricalStore(pool)
	default:
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		closers = append(closers, func() { _ = conn.Close() })
		historical = chstore.NewHistoricalStore(conn)
	}

	return live, historical, cleanup, nil
}
