package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"flightwx/internal/auth"
	"flightwx/internal/controller/middleware"
	"flightwx/internal/errs"
	"flightwx/internal/reschedule"
	"flightwx/internal/store"
	"flightwx/pkg/api"

	"github.com/google/uuid"
)

func pendingRequest(studentID uuid.UUID) *store.RescheduleRequest {
	return &store.RescheduleRequest{
		ID:        uuid.New(),
		FlightID:  uuid.New(),
		StudentID: studentID,
		Status:    store.RescheduleStatusPendingStudent,
		Suggestions: store.Candidates{
			{Slot: time.Now().Add(48 * time.Hour), Priority: 1, Confidence: store.ConfidenceHigh},
			{Slot: time.Now().Add(72 * time.Hour), Priority: 2, Confidence: store.ConfidenceMedium},
			{Slot: time.Now().Add(96 * time.Hour), Priority: 3, Confidence: store.ConfidenceLow},
		},
		ExpiresAt: time.Now().Add(48 * time.Hour),
	}
}

func TestGetRequest(t *testing.T) {
	existing := pendingRequest(uuid.New())

	tests := []struct {
		name           string
		id             string
		reader         *mockReader
		expectedStatus int
		expectedInBody string
	}{
		{"Found", existing.ID.String(), &mockReader{requestResp: existing}, http.StatusOK, existing.ID.String()},
		{"Not Found", uuid.NewString(), &mockReader{requestErr: store.ErrNotFound}, http.StatusNotFound, "not found"},
		{"Invalid ID", "abc", &mockReader{}, http.StatusBadRequest, "Invalid request ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandlers(&mockEngine{}, tt.reader, nil)

			req := httptest.NewRequest(http.MethodGet, "/reschedule-requests/"+tt.id, nil)
			rr := serve("GET /reschedule-requests/{id}", h.GetRequest, req)

			assertResponse(t, rr, tt.expectedStatus, tt.expectedInBody)
		})
	}
}

func TestSelectOption(t *testing.T) {
	studentID := uuid.New()
	existing := pendingRequest(studentID)
	selected := *existing
	selected.Status = store.RescheduleStatusPendingInstructor
	one := 1
	selected.SelectedOption = &one

	tests := []struct {
		name           string
		body           string
		identity       *auth.Identity
		mockSetup      func(*mockEngine)
		expectedStatus int
		expectedInBody string
		expectSelect   bool
	}{
		{
			name:           "Student Selects Own Request",
			body:           `{"option": 1}`,
			identity:       &auth.Identity{Subject: studentID.String(), Role: auth.RoleStudent},
			mockSetup:      func(m *mockEngine) { m.selectResp = &selected },
			expectedStatus: http.StatusOK,
			expectedInBody: `"selected_option":1`,
			expectSelect:   true,
		},
		{
			name:           "Student Of Another Request",
			body:           `{"option": 1}`,
			identity:       &auth.Identity{Subject: uuid.NewString(), Role: auth.RoleStudent},
			mockSetup:      func(m *mockEngine) {},
			expectedStatus: http.StatusForbidden,
			expectedInBody: "Forbidden",
		},
		{
			name:           "Admin Selects",
			body:           `{"option": 0}`,
			identity:       &auth.Identity{Subject: "admin", Role: auth.RoleAdmin},
			mockSetup:      func(m *mockEngine) { m.selectResp = &selected },
			expectedStatus: http.StatusOK,
			expectSelect:   true,
		},
		{
			name:           "Missing Option",
			body:           `{}`,
			mockSetup:      func(m *mockEngine) {},
			expectedStatus: http.StatusBadRequest,
			expectedInBody: "option is required",
		},
		{
			name:           "Invalid JSON",
			body:           `{invalid-json}`,
			mockSetup:      func(m *mockEngine) {},
			expectedStatus: http.StatusBadRequest,
			expectedInBody: "Invalid request body",
		},
		{
			name:           "Index Out Of Range",
			body:           `{"option": 7}`,
			mockSetup:      func(m *mockEngine) { m.selectErr = errs.InvalidArgument("select", "option 7 out of range") },
			expectedStatus: http.StatusBadRequest,
			expectedInBody: "out of range",
			expectSelect:   true,
		},
		{
			name:           "Request Lapsed",
			body:           `{"option": 0}`,
			mockSetup:      func(m *mockEngine) { m.selectErr = errs.Expired("select", "request expired") },
			expectedStatus: http.StatusGone,
			expectedInBody: `"kind":"expired"`,
			expectSelect:   true,
		},
		{
			name:           "Wrong State",
			body:           `{"option": 0}`,
			mockSetup:      func(m *mockEngine) { m.selectErr = errs.InvalidTransition("select", "request is ACCEPTED") },
			expectedStatus: http.StatusConflict,
			expectSelect:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &mockEngine{}
			tt.mockSetup(e)
			h := newTestHandlers(e, &mockReader{requestResp: existing}, nil)

			req := httptest.NewRequest(http.MethodPost, "/reschedule-requests/"+existing.ID.String()+"/select", bytes.NewBufferString(tt.body))
			if tt.identity != nil {
				req = req.WithContext(middleware.NewContextWithIdentity(req.Context(), tt.identity))
			}
			rr := serve("POST /reschedule-requests/{id}/select", h.SelectOption, req)

			assertResponse(t, rr, tt.expectedStatus, tt.expectedInBody)
			if e.selectCalled != tt.expectSelect {
				t.Errorf("select called = %v, want %v", e.selectCalled, tt.expectSelect)
			}
		})
	}
}

func TestSelectOption_PassesIndex(t *testing.T) {
	existing := pendingRequest(uuid.New())
	e := &mockEngine{selectResp: existing}
	h := newTestHandlers(e, &mockReader{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/reschedule-requests/"+existing.ID.String()+"/select", bytes.NewBufferString(`{"option": 2}`))
	serve("POST /reschedule-requests/{id}/select", h.SelectOption, req)

	if e.capturedID != existing.ID {
		t.Errorf("got request id %s, want %s", e.capturedID, existing.ID)
	}
	if e.capturedIndex != 2 {
		t.Errorf("got index %d, want 2", e.capturedIndex)
	}
}

func TestApprove(t *testing.T) {
	existing := pendingRequest(uuid.New())
	accepted := *existing
	accepted.Status = store.RescheduleStatusAccepted
	newFlightID := uuid.New()
	accepted.NewFlightID = &newFlightID
	rejected := *existing
	rejected.Status = store.RescheduleStatusRejected

	tests := []struct {
		name           string
		body           string
		mockSetup      func(*mockEngine)
		expectedStatus int
		expectedInBody string
	}{
		{
			name: "Approved",
			body: `{"approved": true}`,
			mockSetup: func(m *mockEngine) {
				m.approveResp = &reschedule.Approval{
					Request:   &accepted,
					NewFlight: &store.Flight{ID: newFlightID, Status: store.FlightStatusScheduled},
				}
			},
			expectedStatus: http.StatusOK,
			expectedInBody: `"new_flight":{"id":"` + newFlightID.String(),
		},
		{
			name:           "Rejected",
			body:           `{"approved": false}`,
			mockSetup:      func(m *mockEngine) { m.approveResp = &reschedule.Approval{Request: &rejected} },
			expectedStatus: http.StatusOK,
			expectedInBody: `"status":"REJECTED"`,
		},
		{
			name:           "Missing Decision",
			body:           `{}`,
			mockSetup:      func(m *mockEngine) {},
			expectedStatus: http.StatusBadRequest,
			expectedInBody: "approved is required",
		},
		{
			name:           "Not Found",
			body:           `{"approved": true}`,
			mockSetup:      func(m *mockEngine) { m.approveErr = errs.NotFound("approve", "request not found") },
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Atomic Write Failed",
			body:           `{"approved": true}`,
			mockSetup:      func(m *mockEngine) { m.approveErr = errs.Transaction("approve", errors.New("serialization failure")) },
			expectedStatus: http.StatusInternalServerError,
			expectedInBody: `"kind":"transaction"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &mockEngine{}
			tt.mockSetup(e)
			h := newTestHandlers(e, &mockReader{}, nil)

			req := httptest.NewRequest(http.MethodPost, "/reschedule-requests/"+existing.ID.String()+"/approve", bytes.NewBufferString(tt.body))
			rr := serve("POST /reschedule-requests/{id}/approve", h.Approve, req)

			assertResponse(t, rr, tt.expectedStatus, tt.expectedInBody)
		})
	}
}

func TestApprove_RejectedHasNoFlight(t *testing.T) {
	existing := pendingRequest(uuid.New())
	existing.Status = store.RescheduleStatusRejected
	e := &mockEngine{approveResp: &reschedule.Approval{Request: existing}}
	h := newTestHandlers(e, &mockReader{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/reschedule-requests/"+existing.ID.String()+"/approve", bytes.NewBufferString(`{"approved": false}`))
	rr := serve("POST /reschedule-requests/{id}/approve", h.Approve, req)

	var resp api.ApproveResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.NewFlight != nil {
		t.Errorf("expected no new flight, got %+v", resp.NewFlight)
	}
	if e.capturedApproved {
		t.Error("expected approved=false to reach the engine")
	}
}
