package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
)

func scrape(t *testing.T, handler http.Handler) string {
	t.Helper()
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}
	return rr.Body.String()
}

func initMetrics(t *testing.T) http.Handler {
	t.Helper()
	handler, shutdown, err := InitMetrics(context.Background(), "flightwx-test")
	if err != nil {
		t.Fatalf("InitMetrics failed: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = shutdown(ctx)
	})
	return handler
}

func TestInitMetrics_DomainInstrumentsExported(t *testing.T) {
	handler := initMetrics(t)
	ctx := context.Background()

	in, err := NewInstruments(otel.Meter(ScopeName))
	if err != nil {
		t.Fatalf("NewInstruments failed: %v", err)
	}
	in.WeatherCheck(ctx, "primary", "SAFE")
	in.WeatherCheck(ctx, "primary", "SAFE")
	in.FlightCancelled(ctx)
	in.SweepFinished(ctx, 3*time.Second, 1)

	body := scrape(t, handler)

	for _, want := range []string{
		`flightwx_weather_checks_total{`,
		`provider="primary"`,
		`result="SAFE"`,
		`flightwx_flights_cancelled_total`,
		`flightwx_sweep_failures_total`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in output, got:\n%s", want, body)
		}
	}

	var buckets []string
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "flightwx_sweep_duration_seconds_bucket{") {
			buckets = append(buckets, line)
		}
	}
	// len(SweepDurationBuckets) boundaries plus +Inf.
	if got, want := len(buckets), len(SweepDurationBuckets)+1; got != want {
		t.Fatalf("sweep duration buckets: got %d, want %d:\n%s", got, want, strings.Join(buckets, "\n"))
	}
	for _, want := range []string{`le="2.5"`, `le="300"`, `le="+Inf"`} {
		if !strings.Contains(strings.Join(buckets, "\n"), want) {
			t.Errorf("expected bucket %s, got:\n%s", want, strings.Join(buckets, "\n"))
		}
	}
}

func TestInitMetrics_RuntimeCollectors(t *testing.T) {
	body := scrape(t, initMetrics(t))

	if !strings.Contains(body, "go_goroutines") {
		t.Errorf("expected go runtime metrics in output, got:\n%s", body)
	}
}

func TestInitMetrics_ServiceIdentity(t *testing.T) {
	handler := initMetrics(t)

	counter, err := otel.Meter(ScopeName).Int64Counter("flightwx.identity.check")
	if err != nil {
		t.Fatalf("failed to create counter: %v", err)
	}
	counter.Add(context.Background(), 1)

	body := scrape(t, handler)
	if !strings.Contains(body, "target_info") {
		t.Fatalf("expected target_info in output, got:\n%s", body)
	}
	if !strings.Contains(body, `service_name="flightwx-test"`) {
		t.Errorf("expected service_name label on target_info, got:\n%s", body)
	}
	if !strings.Contains(body, `service_namespace="flightwx"`) {
		t.Errorf("expected service_namespace label on target_info, got:\n%s", body)
	}
}
