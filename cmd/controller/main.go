// Package main is the entry point for the flightwx controller.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flightwx/internal/app"
	"flightwx/internal/auth"
	"flightwx/internal/config"
	"flightwx/internal/controller"
	"flightwx/internal/controller/middleware"
	"flightwx/internal/logger"
	"flightwx/internal/observability"

	"github.com/joho/godotenv"
)

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}

func main() {
	// Parse flags
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	sweepsFlag := flag.Bool("sweeps", true, "Serve POST /sweeps")
	configPath := flag.String("config", "", "Path to config file (default: flightwx.yaml in current directory)")
	flag.Parse()

	// A missing .env is normal outside development.
	_ = godotenv.Load()

	// Load Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(slog.Default(), "failed to load config", err)
	}
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing
	shutdownTracer, err := observability.InitTracer(ctx, "flightwx-controller", cfg.OTELEndpoint)
	if err != nil {
		fatal(log, "failed to init tracing", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Warn("failed to shutdown tracer", "error", err)
		}
	}()

	// Metrics
	metricsHandler, shutdownMetrics, err := observability.InitMetrics(ctx, "flightwx-controller")
	if err != nil {
		fatal(log, "failed to init metrics", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			log.Warn("failed to shutdown metrics", "error", err)
		}
	}()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		fatal(log, "failed to initialize", err)
	}
	defer a.Close()

	// Run migrations if requested
	if *migrateFlag {
		log.Info("running database migrations")
		version, err := app.Migrate(a.Store, log)
		if err != nil {
			fatal(log, "migration failed", err)
		}
		log.Info("migrations completed", "schema_version", version)
	}

	if err := a.RegisterPendingGauge(); err != nil {
		log.Warn("failed to register pending requests gauge", "error", err)
	}

	signer, err := auth.NewSigner(cfg.Auth.JWTSecret)
	if err != nil {
		fatal(log, "auth.jwt_secret is required", err)
	}

	srvCfg := controller.Config{
		Addr:     fmt.Sprintf(":%d", cfg.HTTPPort),
		Engine:   a.Engine,
		Reader:   a.Store,
		Verifier: signer,
		Limiter: middleware.NewRateLimiter(
			middleware.WithLimit(cfg.Auth.RateLimit, cfg.Auth.RateBurst),
		),
		Metrics: metricsHandler,
		Logger:  log,
	}
	if *sweepsFlag {
		srvCfg.Sweeper = a.Coordinator()
	}
	srv := controller.New(srvCfg)

	go func() {
		log.Info("flightwx controller starting", "addr", srvCfg.Addr)
		if err := srv.Run(ctx); err != nil {
			log.Error("server stopped", "error", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down controller")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	log.Info("server exited properly")
}
