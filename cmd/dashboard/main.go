// Package main runs the dashboard service: the poll scheduler, the
// aggregation engine and the live event log, exposed as JSON.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cs2-telemetry/internal/api"
	"cs2-telemetry/internal/config"
	"cs2-telemetry/internal/livelog"
	"cs2-telemetry/internal/metrics"
	"cs2-telemetry/internal/normalization"
	"cs2-telemetry/internal/observability"
	"cs2-telemetry/internal/pipeline"
	"cs2-telemetry/internal/query"
	"cs2-telemetry/internal/scheduler"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (overrides "+config.EnvConfigFile+")")
	connectLog := flag.Bool("connect-log", true, "Connect the live event log at startup")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	newLogger := func(name string) *log.Logger {
		return log.New(os.Stdout, "["+name+"] ", cfg.LogFlags())
	}
	logger := newLogger("dashboard")
	observability.Init(cfg.MetricsNamespace)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	adapter := query.NewAdapter(cfg.BackendURL, query.WithTimeout(cfg.RequestTimeout()))
	cycle := pipeline.NewCycle(
		adapter,
		normalization.New(normalization.Options{Logger: newLogger("normalizer")}),
		metrics.NewEngine(metrics.WithLocation(cfg.Location())),
	)

	sched := scheduler.New(scheduler.Options{
		Runner:      cycle,
		Interval:    cfg.PollInterval(),
		RefreshHold: cfg.RefreshHold(),
		Source:      cfg.Source(),
		Logger:      newLogger("scheduler"),
	})

	feed := livelog.NewFeed(livelog.FeedOptions{
		Endpoint: cfg.PushURL,
		Log: livelog.New(livelog.Options{
			Capacity: cfg.LogCapacity,
			Location: cfg.Location(),
			Logger:   newLogger("livelog"),
		}),
		Logger: newLogger("feed"),
	})
	defer feed.Disconnect()

	if *connectLog {
		// The feed can be connected later through the API.
		if err := feed.Connect(ctx); err != nil {
			logger.Printf("Live event log not connected: %v", err)
		}
	}

	dash := api.NewDashboard(api.DashboardOptions{
		Poller:  sched,
		Cache:   adapter,
		Feed:    feed,
		Origins: cfg.Origins(),
		Timeout: cfg.RequestTimeout(),
		Logger:  logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.DashboardAddr,
		Handler:           dash.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()
	go func() {
		logger.Printf("Starting HTTP server on %s (backend %s, source %s)",
			cfg.DashboardAddr, cfg.BackendURL, cfg.DefaultSource)
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
		logger.Printf("Fatal component error: %v", err)
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
