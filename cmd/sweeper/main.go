// Package main is the entry point for the flightwx sweeper.
// It re-evaluates every flight departing within the horizon once per interval.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"flightwx/internal/app"
	"flightwx/internal/config"
	"flightwx/internal/logger"
	"flightwx/internal/observability"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: flightwx.yaml in current directory)")
	once := flag.Bool("once", false, "Run a single pass and exit")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing
	shutdownTracer, err := observability.InitTracer(ctx, "flightwx-sweeper", cfg.OTELEndpoint)
	if err != nil {
		log.Error("failed to init tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Warn("failed to shutdown tracer", "error", err)
		}
	}()

	// Metrics
	metricsHandler, shutdownMetrics, err := observability.InitMetrics(ctx, "flightwx-sweeper")
	if err != nil {
		log.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			log.Warn("failed to shutdown metrics", "error", err)
		}
	}()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	coordinator := a.Coordinator()

	if *once {
		report, err := coordinator.RunOnce(ctx)
		if err != nil {
			log.Error("sweep failed", "error", err)
			os.Exit(1)
		}
		log.Info("sweep finished",
			"flights", report.Flights,
			"cancelled", report.Cancelled,
			"failures", report.Failures,
		)
		return
	}

	if err := a.RegisterPendingGauge(); err != nil {
		log.Warn("failed to register pending requests gauge", "error", err)
	}

	go coordinator.Run(ctx)

	// Dedicated metrics server
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metricsHandler)
		addr := fmt.Sprintf(":%d", cfg.MetricsPort)
		log.Info("sweeper metrics listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down sweeper")
	cancel()

	<-coordinator.Done()
}
