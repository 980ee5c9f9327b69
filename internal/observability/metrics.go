// Package observability wires OpenTelemetry tracing and metrics for the flightwx services.
package observability

import (
	"context"
	"fmt"
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
)

// SweepDurationBuckets are the histogram boundaries, in seconds, for flightwx.sweep.duration.
// A pass over a busy day's schedule takes seconds to a few minutes.
var SweepDurationBuckets = []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}

// InitMetrics installs a global meter provider for serviceName, exported through a
// dedicated Prometheus registry that also carries the Go runtime and process
// collectors. It returns the /metrics handler and a shutdown function to call on exit.
func InitMetrics(ctx context.Context, serviceName string) (http.Handler, func(context.Context) error, error) {
	res, err := Resource(ctx, serviceName)
	if err != nil {
		return nil, nil, err
	}

	registry := prom.NewRegistry()
	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, nil, fmt.Errorf("failed to register go collector: %w", err)
	}
	if err := registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, nil, fmt.Errorf("failed to register process collector: %w", err)
	}

	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(exporter),
		metric.WithView(metric.NewView(
			metric.Instrument{Name: "flightwx.sweep.duration"},
			metric.Stream{Aggregation: metric.AggregationExplicitBucketHistogram{Boundaries: SweepDurationBuckets}},
		)),
	)

	otel.SetMeterProvider(provider)

	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), provider.Shutdown, nil
}
