package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"flightwx/internal/engine"
	"flightwx/internal/errs"
	"flightwx/internal/safety"
	"flightwx/internal/store"
	"flightwx/internal/weather"
	"flightwx/pkg/api"

	"github.com/google/uuid"
)

func TestCheckWeather(t *testing.T) {
	flightID := uuid.New()
	ceiling := 800
	unsafe := &engine.CheckResult{
		CheckID: uuid.New(),
		Reading: weather.Reading{
			Airport: "KAUS", Visibility: 2, Ceiling: &ceiling, WindSpeed: 12,
			Conditions: "Mist", Provider: "faa", FetchedAt: time.Now().UTC(),
		},
		Verdict: safety.Verdict{
			Safe:     false,
			Reasons:  []string{"Visibility 2.0 SM below minimum 3.0 SM"},
			Minimums: safety.Minimums{Visibility: 3, Ceiling: 1000, MaxWind: 15},
		},
		FlightStatus: store.FlightStatusWeatherCancelled,
		Cancelled:    true,
	}

	tests := []struct {
		name           string
		path           string
		mockSetup      func(*mockEngine)
		expectedStatus int
		expectedInBody string
	}{
		{
			name:           "Unsafe Cancels",
			path:           "/flights/" + flightID.String() + "/weather-check",
			mockSetup:      func(m *mockEngine) { m.checkResp = unsafe },
			expectedStatus: http.StatusOK,
			expectedInBody: `"flight_status":"WEATHER_CANCELLED"`,
		},
		{
			name:           "Invalid ID",
			path:           "/flights/not-a-uuid/weather-check",
			mockSetup:      func(m *mockEngine) {},
			expectedStatus: http.StatusBadRequest,
			expectedInBody: "Invalid flight ID",
		},
		{
			name:           "Flight Not Found",
			path:           "/flights/" + flightID.String() + "/weather-check",
			mockSetup:      func(m *mockEngine) { m.checkErr = errs.NotFound("check", "flight %s not found", flightID) },
			expectedStatus: http.StatusNotFound,
			expectedInBody: `"kind":"not_found"`,
		},
		{
			name: "Provider Exhausted",
			path: "/flights/" + flightID.String() + "/weather-check",
			mockSetup: func(m *mockEngine) {
				m.checkErr = fmt.Errorf("check: %w", &weather.ProviderError{Source: "faa", Err: errors.New("timeout")})
			},
			expectedStatus: http.StatusBadGateway,
			expectedInBody: "weather provider faa",
		},
		{
			name:           "Internal Error Hidden",
			path:           "/flights/" + flightID.String() + "/weather-check",
			mockSetup:      func(m *mockEngine) { m.checkErr = errors.New("pq: connection refused") },
			expectedStatus: http.StatusInternalServerError,
			expectedInBody: "Internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &mockEngine{}
			tt.mockSetup(e)
			h := newTestHandlers(e, &mockReader{}, nil)

			req := httptest.NewRequest(http.MethodPost, tt.path, nil)
			rr := serve("POST /flights/{id}/weather-check", h.CheckWeather, req)

			assertResponse(t, rr, tt.expectedStatus, tt.expectedInBody)
		})
	}
}

func TestCheckWeather_ResponseShape(t *testing.T) {
	flightID := uuid.New()
	e := &mockEngine{checkResp: &engine.CheckResult{
		CheckID:      uuid.New(),
		Reading:      weather.Reading{Airport: "KSAT", Visibility: 10, Provider: "weatherapi"},
		Verdict:      safety.Verdict{Safe: true, Minimums: safety.Minimums{Visibility: 10, Ceiling: 3000, MaxWind: 10}},
		FlightStatus: store.FlightStatusScheduled,
	}}
	h := newTestHandlers(e, &mockReader{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/flights/"+flightID.String()+"/weather-check", nil)
	rr := serve("POST /flights/{id}/weather-check", h.CheckWeather, req)

	var resp api.WeatherCheckResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if e.capturedID != flightID {
		t.Errorf("got flight id %s, want %s", e.capturedID, flightID)
	}
	if resp.FlightID != flightID.String() {
		t.Errorf("got flight_id %s, want %s", resp.FlightID, flightID)
	}
	if !resp.Verdict.Safe || resp.Verdict.Result != "SAFE" {
		t.Errorf("got verdict %+v, want SAFE", resp.Verdict)
	}
	if resp.Verdict.Reasons == nil {
		t.Error("expected reasons to encode as an empty list")
	}
	if resp.Reading.Ceiling != nil {
		t.Errorf("expected unlimited ceiling, got %d", *resp.Reading.Ceiling)
	}
	if resp.Verdict.Minimums.Ceiling != 3000 {
		t.Errorf("got minimum ceiling %d, want 3000", resp.Verdict.Minimums.Ceiling)
	}
}

func TestLatestWeatherCheck(t *testing.T) {
	flightID := uuid.New()
	check := &store.WeatherCheck{
		ID:                 uuid.New(),
		FlightID:           flightID,
		Location:           "KAUS",
		Result:             store.WeatherUnsafe,
		Reasons:            []string{"Wind 22 kt exceeds maximum 15 kt"},
		Provider:           "weatherapi",
		TrainingLevel:      store.TrainingLevelPrivatePilot,
		RequiredVisibility: 3,
		RequiredCeiling:    1000,
		MaxWindSpeed:       15,
	}

	tests := []struct {
		name           string
		reader         *mockReader
		expectedStatus int
		expectedInBody string
	}{
		{"Found", &mockReader{latestResp: check}, http.StatusOK, `"result":"UNSAFE"`},
		{"None Yet", &mockReader{latestErr: store.ErrNotFound}, http.StatusNotFound, "No weather check"},
		{"Store Error", &mockReader{latestErr: errors.New("db down")}, http.StatusInternalServerError, "Internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandlers(&mockEngine{}, tt.reader, nil)

			req := httptest.NewRequest(http.MethodGet, "/flights/"+flightID.String()+"/weather-checks/latest", nil)
			rr := serve("GET /flights/{id}/weather-checks/latest", h.LatestWeatherCheck, req)

			assertResponse(t, rr, tt.expectedStatus, tt.expectedInBody)
		})
	}
}

func TestWeatherBriefing(t *testing.T) {
	flightID := uuid.New()
	ceiling := 800
	briefing := &engine.Briefing{
		Flight: store.FlightDetails{
			Flight:  store.Flight{ID: flightID, DepartureAirport: "KAUS", Status: store.FlightStatusScheduled},
			Student: store.Student{FirstName: "Sam", LastName: "Rivera", TrainingLevel: store.TrainingLevelPrivatePilot},
		},
		Reading: weather.Reading{Airport: "KAUS", Visibility: 2, Ceiling: &ceiling, WindSpeed: 12, Provider: "faa"},
		Verdict: safety.Verdict{
			Reasons:  []string{"Visibility 2SM below 3SM minimum", "Ceiling 800ft below 1000ft minimum"},
			Minimums: safety.Minimums{Visibility: 3, Ceiling: 1000, MaxWind: 15},
		},
		History: []store.WeatherCheck{
			{ID: uuid.New(), FlightID: flightID, Result: store.WeatherSafe},
			{ID: uuid.New(), FlightID: flightID, Result: store.WeatherUnsafe, Reasons: []string{"Wind 18kt exceeds 15kt maximum"}},
		},
	}

	tests := []struct {
		name           string
		path           string
		mockSetup      func(*mockEngine)
		expectedStatus int
		expectedInBody string
	}{
		{
			name:           "Unsafe Briefing",
			path:           "/flights/" + flightID.String() + "/weather-briefing",
			mockSetup:      func(m *mockEngine) { m.briefingResp = briefing },
			expectedStatus: http.StatusOK,
			expectedInBody: `"student_name":"Sam Rivera"`,
		},
		{
			name:           "Invalid ID",
			path:           "/flights/nope/weather-briefing",
			mockSetup:      func(m *mockEngine) {},
			expectedStatus: http.StatusBadRequest,
			expectedInBody: "Invalid flight ID",
		},
		{
			name:           "Flight Not Found",
			path:           "/flights/" + flightID.String() + "/weather-briefing",
			mockSetup:      func(m *mockEngine) { m.briefingErr = errs.NotFound("briefing", "flight %s not found", flightID) },
			expectedStatus: http.StatusNotFound,
			expectedInBody: `"kind":"not_found"`,
		},
		{
			name: "Provider Exhausted",
			path: "/flights/" + flightID.String() + "/weather-briefing",
			mockSetup: func(m *mockEngine) {
				m.briefingErr = &weather.ProviderError{Source: "faa", Err: errors.New("timeout")}
			},
			expectedStatus: http.StatusBadGateway,
			expectedInBody: "weather provider faa",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &mockEngine{}
			tt.mockSetup(e)
			h := newTestHandlers(e, &mockReader{}, nil)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rr := serve("GET /flights/{id}/weather-briefing", h.WeatherBriefing, req)

			assertResponse(t, rr, tt.expectedStatus, tt.expectedInBody)
		})
	}
}

func TestWeatherBriefing_ResponseShape(t *testing.T) {
	flightID := uuid.New()
	e := &mockEngine{briefingResp: &engine.Briefing{
		Flight: store.FlightDetails{
			Flight:  store.Flight{ID: flightID},
			Student: store.Student{TrainingLevel: store.TrainingLevelInstrumentRated},
		},
		Reading: weather.Reading{Airport: "KAUS", Visibility: 10, Provider: "weatherapi"},
		Verdict: safety.Verdict{Safe: true, Minimums: safety.Minimums{MaxWind: 25}},
		History: []store.WeatherCheck{{ID: uuid.New(), FlightID: flightID, Result: store.WeatherSafe}},
	}}
	h := newTestHandlers(e, &mockReader{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/flights/"+flightID.String()+"/weather-briefing", nil)
	rr := serve("GET /flights/{id}/weather-briefing", h.WeatherBriefing, req)

	var resp api.WeatherBriefingResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if e.capturedID != flightID {
		t.Errorf("got flight id %s, want %s", e.capturedID, flightID)
	}
	if resp.Flight.ID != flightID.String() {
		t.Errorf("got flight.id %s, want %s", resp.Flight.ID, flightID)
	}
	if resp.TrainingLevel != "INSTRUMENT_RATED" {
		t.Errorf("got training_level %s, want INSTRUMENT_RATED", resp.TrainingLevel)
	}
	if resp.Verdict.Result != "SAFE" || resp.Verdict.Reasons == nil {
		t.Errorf("got verdict %+v, want SAFE with empty reasons", resp.Verdict)
	}
	if len(resp.History) != 1 || resp.History[0].Reasons == nil {
		t.Errorf("got history %+v, want one check with empty reasons", resp.History)
	}
}

func TestGenerateOptions(t *testing.T) {
	flightID := uuid.New()
	created := &store.RescheduleRequest{
		ID:       uuid.New(),
		FlightID: flightID,
		Status:   store.RescheduleStatusPendingStudent,
		Suggestions: store.Candidates{
			{Slot: time.Now().Add(48 * time.Hour), Priority: 1, Confidence: store.ConfidenceHigh},
			{Slot: time.Now().Add(72 * time.Hour), Priority: 2, Confidence: store.ConfidenceMedium},
			{Slot: time.Now().Add(96 * time.Hour), Priority: 3, Confidence: store.ConfidenceLow},
		},
		ExpiresAt: time.Now().Add(48 * time.Hour),
	}

	tests := []struct {
		name           string
		mockSetup      func(*mockEngine)
		expectedStatus int
		expectedInBody string
	}{
		{
			name:           "Created",
			mockSetup:      func(m *mockEngine) { m.generateResp = created },
			expectedStatus: http.StatusCreated,
			expectedInBody: `"status":"PENDING_STUDENT"`,
		},
		{
			name:           "Already Pending",
			mockSetup:      func(m *mockEngine) { m.generateErr = errs.InvalidTransition("create", "flight already has a pending request") },
			expectedStatus: http.StatusConflict,
			expectedInBody: "pending request",
		},
		{
			name:           "Invalid Generator Output",
			mockSetup:      func(m *mockEngine) { m.generateErr = errs.Wrap(errs.KindValidation, "generate", errors.New("expected 3 suggestions")) },
			expectedStatus: http.StatusBadRequest,
			expectedInBody: `"kind":"validation"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &mockEngine{}
			tt.mockSetup(e)
			h := newTestHandlers(e, &mockReader{}, nil)

			req := httptest.NewRequest(http.MethodPost, "/flights/"+flightID.String()+"/reschedule-options", nil)
			rr := serve("POST /flights/{id}/reschedule-options", h.GenerateOptions, req)

			assertResponse(t, rr, tt.expectedStatus, tt.expectedInBody)
		})
	}
}
