// Package controller contains the controller-specific logic for the HTTP API.
package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"flightwx/internal/auth"
	"flightwx/internal/controller/handlers"
	"flightwx/internal/controller/middleware"
)

// Server is the HTTP server for the controller API.
type Server struct {
	httpServer *http.Server
}

// Config wires the server's collaborators.
type Config struct {
	Addr     string
	Engine   handlers.Engine
	Reader   handlers.Reader
	Sweeper  handlers.Sweeper // optional
	Verifier middleware.TokenVerifier
	Limiter  *middleware.RateLimiter
	Metrics  http.Handler // served unauthenticated at /metrics when set
	Logger   *slog.Logger
}

// New creates a new controller server.
func New(cfg Config) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      NewHandler(cfg),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 90 * time.Second, // generation and sweeps run inline
		},
	}
}

// NewHandler builds the routed handler. Every route but health and readiness requires a bearer
// token; writes are further restricted by role.
func NewHandler(cfg Config) http.Handler {
	h := handlers.New(cfg.Engine, cfg.Reader, cfg.Sweeper, cfg.Logger)

	limiter := cfg.Limiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter()
	}
	authMW := middleware.AuthMiddleware(cfg.Verifier)
	rateMW := limiter.Middleware()

	protect := func(fn http.HandlerFunc, roles ...auth.Role) http.Handler {
		var next http.Handler = fn
		if len(roles) > 0 {
			next = middleware.RequireRole(roles...)(next)
		}
		return authMW(rateMW(next))
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	mux.Handle("POST /flights/{id}/weather-check",
		protect(h.CheckWeather, auth.RoleInstructor, auth.RoleAdmin, auth.RoleScheduler))
	mux.Handle("GET /flights/{id}/weather-checks/latest", protect(h.LatestWeatherCheck))
	mux.Handle("GET /flights/{id}/weather-briefing", protect(h.WeatherBriefing))
	mux.Handle("POST /flights/{id}/reschedule-options",
		protect(h.GenerateOptions, auth.RoleInstructor, auth.RoleAdmin, auth.RoleScheduler))

	mux.Handle("GET /reschedule-requests/{id}", protect(h.GetRequest))
	mux.Handle("POST /reschedule-requests/{id}/select",
		protect(h.SelectOption, auth.RoleStudent, auth.RoleAdmin))
	mux.Handle("POST /reschedule-requests/{id}/approve",
		protect(h.Approve, auth.RoleInstructor, auth.RoleAdmin))

	mux.Handle("POST /sweeps", protect(h.RunSweep, auth.RoleScheduler, auth.RoleAdmin))

	return middleware.RequestID(mux)
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutDownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return s.Shutdown(shutDownCtx)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
