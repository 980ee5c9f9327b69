// Package sweep runs the periodic weather pass over upcoming flights.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"flightwx/internal/engine"
	"flightwx/internal/observability"
	"flightwx/internal/store"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Engine is the subset of *engine.Engine a sweep drives.
type Engine interface {
	CheckFlight(ctx context.Context, d *store.FlightDetails) (*engine.CheckResult, error)
	HandleUnsafe(ctx context.Context, d *store.FlightDetails, reasons []string) (*store.RescheduleRequest, error)
	ReapExpired(ctx context.Context) (int64, error)
}

// FlightLister returns SCHEDULED flights starting within [from, to].
type FlightLister interface {
	ListUpcomingFlights(ctx context.Context, from, to time.Time) ([]store.FlightDetails, error)
}

// Config holds configuration for the coordinator.
type Config struct {
	Interval    time.Duration // Time between passes (default: 1h)
	Horizon     time.Duration // How far ahead flights are checked (default: 24h)
	Concurrency int           // Flights processed in parallel (default: 1)
	ReapExpired bool          // Expire lapsed reschedule requests at the start of each pass
}

// Report summarizes one pass.
type Report struct {
	Flights   int
	Checked   int
	Cancelled int
	Requests  int
	Failures  int
	Expired   int64
	Duration  time.Duration
}

// Coordinator evaluates every upcoming flight on a fixed cadence. A failure on one
// flight is logged and counted; it never stops the rest of the pass.
type Coordinator struct {
	flights FlightLister
	engine  Engine
	config  Config
	metrics *observability.Instruments
	logger  *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time
	done    chan struct{}
}

func New(flights FlightLister, eng Engine, config Config, metrics *observability.Instruments, logger *slog.Logger) *Coordinator {
	if config.Interval <= 0 {
		config.Interval = time.Hour
	}
	if config.Horizon <= 0 {
		config.Horizon = 24 * time.Hour
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Coordinator{
		flights: flights,
		engine:  eng,
		config:  config,
		metrics: metrics,
		logger:  logger,
		tracer:  observability.Tracer(),
		now:     func() time.Time { return time.Now().UTC() },
		done:    make(chan struct{}),
	}
}

// Run performs a pass immediately and then once per interval. It blocks until the
// context is cancelled; a pass in progress is abandoned through the same context.
func (c *Coordinator) Run(ctx context.Context) error {
	c.logger.Info("sweeper starting",
		"interval", c.config.Interval.String(),
		"horizon", c.config.Horizon.String(),
		"concurrency", c.config.Concurrency,
	)
	defer close(c.done)

	var wait time.Duration
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("context cancelled, sweeper stopping")
			return ctx.Err()

		case <-time.After(wait):
			started := time.Now()
			if _, err := c.RunOnce(ctx); err != nil {
				c.logger.Error("sweep failed", "error", err)
			}
			wait = c.config.Interval - time.Since(started)
			if wait < 0 {
				wait = 0
			}
		}
	}
}

// Done returns a channel that is closed when Run has returned.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// RunOnce performs a single pass. It only returns an error when the flight list cannot
// be loaded; per-flight failures are reported in Report.Failures.
func (c *Coordinator) RunOnce(ctx context.Context) (report Report, err error) {
	started := c.now()

	ctx, span := c.tracer.Start(ctx, "sweep.run", trace.WithSpanKind(trace.SpanKindInternal))
	defer func() {
		report.Duration = c.now().Sub(started)
		c.metrics.SweepFinished(ctx, report.Duration, report.Failures)
		span.SetAttributes(
			attribute.Int("sweep.flights", report.Flights),
			attribute.Int("sweep.cancelled", report.Cancelled),
			attribute.Int("sweep.failures", report.Failures),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if c.config.ReapExpired {
		n, rerr := c.engine.ReapExpired(ctx)
		if rerr != nil {
			c.logger.ErrorContext(ctx, "failed to reap expired reschedule requests", "error", rerr)
		} else if n > 0 {
			c.logger.InfoContext(ctx, "expired lapsed reschedule requests", "count", n)
		}
		report.Expired = n
	}

	flights, err := c.flights.ListUpcomingFlights(ctx, started, started.Add(c.config.Horizon))
	if err != nil {
		return report, fmt.Errorf("failed to list upcoming flights: %w", err)
	}
	report.Flights = len(flights)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(c.config.Concurrency)

	for i := range flights {
		d := flights[i]
		g.Go(func() error {
			out := c.processFlight(ctx, &d)

			mu.Lock()
			defer mu.Unlock()
			if out.checked {
				report.Checked++
			}
			if out.cancelled {
				report.Cancelled++
			}
			if out.requested {
				report.Requests++
			}
			if out.failed {
				report.Failures++
			}
			return nil
		})
	}
	_ = g.Wait()

	c.logger.InfoContext(ctx, "sweep finished",
		"flights", report.Flights,
		"checked", report.Checked,
		"cancelled", report.Cancelled,
		"requests", report.Requests,
		"failures", report.Failures,
	)
	return report, nil
}

type outcome struct {
	checked   bool
	cancelled bool
	requested bool
	failed    bool
}

// processFlight runs check, cancel and reschedule for one flight. It never returns an
// error and recovers panics, so one flight cannot abort the pass.
func (c *Coordinator) processFlight(ctx context.Context, d *store.FlightDetails) (out outcome) {
	log := c.logger.With("flight_id", d.Flight.ID, "airport", d.Flight.DepartureAirport)

	ctx, span := c.tracer.Start(ctx, "sweep.flight",
		trace.WithAttributes(
			attribute.String("flight.id", d.Flight.ID.String()),
			attribute.String("flight.airport", d.Flight.DepartureAirport),
		),
	)
	defer span.End()
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			log.ErrorContext(ctx, "flight processing panicked", "error", err, "stack", string(debug.Stack()))
			out.failed = true
		}
	}()

	fail := func(msg string, err error) outcome {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.ErrorContext(ctx, msg, "error", err)
		out.failed = true
		return out
	}

	res, err := c.engine.CheckFlight(ctx, d)
	if err != nil {
		return fail("weather check failed", err)
	}
	out.checked = true

	if !res.Cancelled {
		return out
	}
	out.cancelled = true
	log.InfoContext(ctx, "flight cancelled for weather", "reasons", res.Verdict.Reasons)

	d.Flight.Status = res.FlightStatus
	req, err := c.engine.HandleUnsafe(ctx, d, res.Verdict.Reasons)
	if err != nil {
		return fail("failed to create reschedule request", err)
	}
	out.requested = true
	log.InfoContext(ctx, "reschedule request created", "request_id", req.ID)

	return out
}
