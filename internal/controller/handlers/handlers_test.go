package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"flightwx/internal/engine"
	"flightwx/internal/reschedule"
	"flightwx/internal/store"
	"flightwx/internal/sweep"

	"github.com/google/uuid"
)

type mockEngine struct {
	checkResp    *engine.CheckResult
	checkErr     error
	briefingResp *engine.Briefing
	briefingErr  error
	generateResp *store.RescheduleRequest
	generateErr  error
	selectResp   *store.RescheduleRequest
	selectErr    error
	approveResp  *reschedule.Approval
	approveErr   error

	// Spies
	capturedID       uuid.UUID
	capturedIndex    int
	capturedApproved bool
	selectCalled     bool
}

func (m *mockEngine) CheckWeatherForFlight(ctx context.Context, flightID uuid.UUID) (*engine.CheckResult, error) {
	m.capturedID = flightID
	return m.checkResp, m.checkErr
}

func (m *mockEngine) WeatherBriefing(ctx context.Context, flightID uuid.UUID) (*engine.Briefing, error) {
	m.capturedID = flightID
	return m.briefingResp, m.briefingErr
}

func (m *mockEngine) GenerateRescheduleOptions(ctx context.Context, flightID uuid.UUID) (*store.RescheduleRequest, error) {
	m.capturedID = flightID
	return m.generateResp, m.generateErr
}

func (m *mockEngine) SelectRescheduleOption(ctx context.Context, requestID uuid.UUID, index int) (*store.RescheduleRequest, error) {
	m.selectCalled = true
	m.capturedID = requestID
	m.capturedIndex = index
	return m.selectResp, m.selectErr
}

func (m *mockEngine) ApproveReschedule(ctx context.Context, requestID uuid.UUID, approved bool) (*reschedule.Approval, error) {
	m.capturedID = requestID
	m.capturedApproved = approved
	return m.approveResp, m.approveErr
}

type mockReader struct {
	pingErr     error
	latestResp  *store.WeatherCheck
	latestErr   error
	requestResp *store.RescheduleRequest
	requestErr  error
}

func (m *mockReader) Ping(ctx context.Context) error { return m.pingErr }

func (m *mockReader) GetLatestWeatherCheck(ctx context.Context, flightID uuid.UUID) (*store.WeatherCheck, error) {
	return m.latestResp, m.latestErr
}

func (m *mockReader) GetRescheduleRequest(ctx context.Context, tx store.Tx, id uuid.UUID) (*store.RescheduleRequest, error) {
	return m.requestResp, m.requestErr
}

type mockSweeper struct {
	report sweep.Report
	err    error
}

func (m *mockSweeper) RunOnce(ctx context.Context) (sweep.Report, error) {
	return m.report, m.err
}

func newTestHandlers(e *mockEngine, r *mockReader, s Sweeper) *Handlers {
	return New(e, r, s, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// serve routes req through a mux so r.PathValue resolves.
func serve(pattern string, handler http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, handler)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func assertResponse(t *testing.T, rr *httptest.ResponseRecorder, status int, inBody string) {
	t.Helper()
	if rr.Code != status {
		t.Errorf("got status %d, want %d (body: %s)", rr.Code, status, rr.Body.String())
	}
	if inBody != "" && !strings.Contains(rr.Body.String(), inBody) {
		t.Errorf("body %q does not contain %q", rr.Body.String(), inBody)
	}
}
