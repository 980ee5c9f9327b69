// Package app assembles the store, weather sources, generator, notifier and engine
// from configuration. The controller, the sweeper and the CLI share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"flightwx/internal/config"
	"flightwx/internal/engine"
	"flightwx/internal/notify"
	"flightwx/internal/observability"
	"flightwx/internal/reschedule"
	"flightwx/internal/store"
	"flightwx/internal/store/memory"
	"flightwx/internal/store/postgres"
	"flightwx/internal/sweep"
	"flightwx/internal/weather"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
)

// MemoryURL selects the in-process store instead of PostgreSQL.
const MemoryURL = "memory://"

// App holds the assembled collaborators.
type App struct {
	Config  *config.Config
	Store   store.Store
	Weather *weather.Adapter
	Engine  *engine.Engine
	Metrics *observability.Instruments
	Logger  *slog.Logger

	closers []func() error
}

// OpenStore connects to the store named by databaseURL.
func OpenStore(ctx context.Context, databaseURL string) (store.Store, error) {
	if strings.HasPrefix(databaseURL, MemoryURL) {
		return memory.New(), nil
	}
	return postgres.New(ctx, databaseURL)
}

// Migrate applies schema migrations and returns the resulting schema version. The
// in-process store needs none and reports version 0.
func Migrate(s store.Store, logger *slog.Logger) (uint, error) {
	pg, ok := s.(*postgres.Store)
	if !ok {
		return 0, nil
	}
	return postgres.Migrate(pg.DB(), logger)
}

// New builds the App. Metrics are recorded against the global meter provider, so
// observability.InitMetrics should run first when they are exported.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	metrics, err := observability.NewInstruments(otel.Meter(observability.ScopeName))
	if err != nil {
		return nil, fmt.Errorf("failed to create instruments: %w", err)
	}
	a.Metrics = metrics

	s, err := OpenStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a.Store = s
	a.closers = append(a.closers, s.Close)

	adapter, err := a.weatherAdapter(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Weather = adapter

	notifier, err := a.notifier()
	if err != nil {
		a.Close()
		return nil, err
	}

	generator := reschedule.NewOpenAIGenerator(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, cfg.OpenAI.Timeout, nil)

	eng, err := engine.New(engine.Deps{
		Repo:      s,
		Weather:   adapter,
		Generator: generator,
		Notifier:  notifier,
		Composer:  notify.NewComposer(cfg.AppBaseURL),
		Metrics:   metrics,
		Logger:    logger,
		TTL:       cfg.Reschedule.TTL,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Engine = eng

	return a, nil
}

func (a *App) weatherAdapter(ctx context.Context) (*weather.Adapter, error) {
	cfg := a.Config.Weather
	client := &http.Client{Timeout: cfg.Timeout}

	var metar weather.Source = weather.NewMetarSource(cfg.MetarURL, client)
	var commercial weather.Source
	if cfg.APIKey != "" {
		commercial = weather.NewWeatherAPISource(cfg.APIURL, cfg.APIKey, cfg.RateLimit, client)
	} else if cfg.Primary == config.ProviderWeatherAPI {
		a.Logger.Warn("weather.api_key is empty, using METAR only")
	}

	if cache := a.redisCache(ctx); cache != nil {
		metar = weather.NewCachedSource(metar, cache, cfg.CacheTTL, a.Logger)
		if commercial != nil {
			commercial = weather.NewCachedSource(commercial, cache, cfg.CacheTTL, a.Logger)
		}
	}

	primary := cfg.Primary
	if commercial == nil {
		primary = config.ProviderFAA
	}

	return weather.NewAdapter(primary, commercial, metar, func(ctx context.Context, from, to string, err error) {
		a.Metrics.WeatherFallback(ctx, from, to)
		a.Logger.WarnContext(ctx, "weather source failed, falling back", "from", from, "to", to, "error", err)
	})
}

// redisCache returns nil when no address is configured or the server is unreachable.
// The cache is an optimization; startup does not depend on it.
func (a *App) redisCache(ctx context.Context) weather.Cache {
	rc := a.Config.Redis
	if rc.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		a.Logger.Warn("redis unavailable, weather cache disabled", "addr", rc.Addr, "error", err)
		client.Close()
		return nil
	}

	a.closers = append(a.closers, client.Close)
	a.Logger.Info("weather cache enabled", "addr", rc.Addr, "ttl", a.Config.Weather.CacheTTL.String())
	return weather.NewRedisCache(client)
}

func (a *App) notifier() (notify.Notifier, error) {
	sc := a.Config.SMTP
	if sc.Host == "" {
		return notify.NewLogNotifier(a.Logger), nil
	}
	return notify.NewSMTPNotifier(notify.SMTPConfig{
		Host:     sc.Host,
		Port:     sc.Port,
		Username: sc.Username,
		Password: sc.Password,
		From:     sc.From,
		Timeout:  sc.Timeout,
	})
}

// Coordinator returns a sweep coordinator over the App's store and engine.
func (a *App) Coordinator() *sweep.Coordinator {
	sc := a.Config.Sweep
	return sweep.New(a.Store, a.Engine, sweep.Config{
		Interval:    sc.Interval,
		Horizon:     sc.Horizon,
		Concurrency: sc.Concurrency,
		ReapExpired: sc.ReapExpired,
	}, a.Metrics, a.Logger)
}

// RegisterPendingGauge exports the number of open reschedule requests.
func (a *App) RegisterPendingGauge() error {
	return observability.RegisterPendingGauge(otel.Meter(observability.ScopeName), a.Store.CountPendingRescheduleRequests)
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() error {
	var errList []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errList = append(errList, err)
		}
	}
	a.closers = nil
	return errors.Join(errList...)
}
