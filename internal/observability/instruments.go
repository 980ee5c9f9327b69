package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ScopeName is the instrumentation scope for every flightwx meter and tracer.
const ScopeName = "flightwx"

// Tracer returns the flightwx tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(ScopeName)
}

// Instruments holds the domain counters and histograms. A nil *Instruments records nothing.
type Instruments struct {
	weatherChecks      metric.Int64Counter
	weatherFallbacks   metric.Int64Counter
	flightsCancelled   metric.Int64Counter
	rescheduleRequests metric.Int64Counter
	transitions        metric.Int64Counter
	sweepDuration      metric.Float64Histogram
	sweepFailures      metric.Int64Counter
}

// NewInstruments creates the domain instruments on meter.
func NewInstruments(meter metric.Meter) (*Instruments, error) {
	var (
		in  Instruments
		err error
	)

	if in.weatherChecks, err = meter.Int64Counter("flightwx.weather.checks",
		metric.WithDescription("Weather checks recorded, by provider and result")); err != nil {
		return nil, fmt.Errorf("failed to create weather checks counter: %w", err)
	}
	if in.weatherFallbacks, err = meter.Int64Counter("flightwx.weather.fallbacks",
		metric.WithDescription("Fetches that fell back to the secondary weather source")); err != nil {
		return nil, fmt.Errorf("failed to create fallback counter: %w", err)
	}
	if in.flightsCancelled, err = meter.Int64Counter("flightwx.flights.cancelled",
		metric.WithDescription("Flights moved to WEATHER_CANCELLED")); err != nil {
		return nil, fmt.Errorf("failed to create cancellation counter: %w", err)
	}
	if in.rescheduleRequests, err = meter.Int64Counter("flightwx.reschedule.requests",
		metric.WithDescription("Reschedule option generations, by outcome")); err != nil {
		return nil, fmt.Errorf("failed to create reschedule requests counter: %w", err)
	}
	if in.transitions, err = meter.Int64Counter("flightwx.reschedule.transitions",
		metric.WithDescription("Reschedule request state transitions, by target state")); err != nil {
		return nil, fmt.Errorf("failed to create transitions counter: %w", err)
	}
	if in.sweepDuration, err = meter.Float64Histogram("flightwx.sweep.duration",
		metric.WithDescription("Duration of one sweep pass"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("failed to create sweep duration histogram: %w", err)
	}
	if in.sweepFailures, err = meter.Int64Counter("flightwx.sweep.failures",
		metric.WithDescription("Per-flight failures during sweeps")); err != nil {
		return nil, fmt.Errorf("failed to create sweep failures counter: %w", err)
	}

	return &in, nil
}

func (in *Instruments) WeatherCheck(ctx context.Context, provider, result string) {
	if in == nil {
		return
	}
	in.weatherChecks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("result", result),
	))
}

func (in *Instruments) WeatherFallback(ctx context.Context, from, to string) {
	if in == nil {
		return
	}
	in.weatherFallbacks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func (in *Instruments) FlightCancelled(ctx context.Context) {
	if in == nil {
		return
	}
	in.flightsCancelled.Add(ctx, 1)
}

// RescheduleRequest records a generation outcome: "created" or "generation_failed".
func (in *Instruments) RescheduleRequest(ctx context.Context, outcome string) {
	if in == nil {
		return
	}
	in.rescheduleRequests.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// Transition records n requests entering state to.
func (in *Instruments) Transition(ctx context.Context, to string, n int64) {
	if in == nil || n <= 0 {
		return
	}
	in.transitions.Add(ctx, n, metric.WithAttributes(attribute.String("to", to)))
}

func (in *Instruments) SweepFinished(ctx context.Context, elapsed time.Duration, failures int) {
	if in == nil {
		return
	}
	in.sweepDuration.Record(ctx, elapsed.Seconds())
	if failures > 0 {
		in.sweepFailures.Add(ctx, int64(failures))
	}
}

// RegisterPendingGauge exports the number of open reschedule requests, read from count
// at collection time.
func RegisterPendingGauge(meter metric.Meter, count func(ctx context.Context) (int64, error)) error {
	_, err := meter.Int64ObservableGauge("flightwx.reschedule.pending",
		metric.WithDescription("Reschedule requests awaiting a student or instructor"),
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			n, err := count(ctx)
			if err != nil {
				return err
			}
			o.Observe(n)
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create pending gauge: %w", err)
	}
	return nil
}
