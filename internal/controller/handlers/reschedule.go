package handlers

import (
	"encoding/json"
	"net/http"

	"flightwx/internal/auth"
	"flightwx/internal/controller/middleware"
	"flightwx/pkg/api"
)

// GetRequest handles GET /reschedule-requests/{id}.
func (h *Handlers) GetRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "request")
	if !ok {
		return
	}

	req, err := h.reader.GetRescheduleRequest(r.Context(), nil, id)
	if err != nil {
		if isNotFound(err) {
			h.httpError(w, "Reschedule request not found", http.StatusNotFound)
			return
		}
		h.fail(w, r, "get reschedule request", err)
		return
	}
	h.respondJson(w, http.StatusOK, toAPIRequest(req))
}

// SelectOption handles POST /reschedule-requests/{id}/select.
// A student may only answer their own request.
func (h *Handlers) SelectOption(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.pathID(w, r, "request")
	if !ok {
		return
	}

	var body api.SelectOptionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if body.Option == nil {
		h.httpError(w, "option is required", http.StatusBadRequest)
		return
	}

	if caller, ok := middleware.IdentityFromContext(ctx); ok && caller.Role == auth.RoleStudent {
		existing, err := h.reader.GetRescheduleRequest(ctx, nil, id)
		if err != nil {
			if isNotFound(err) {
				h.httpError(w, "Reschedule request not found", http.StatusNotFound)
				return
			}
			h.fail(w, r, "select reschedule option", err)
			return
		}
		if existing.StudentID.String() != caller.Subject {
			h.httpError(w, "Forbidden", http.StatusForbidden)
			return
		}
	}

	req, err := h.engine.SelectRescheduleOption(ctx, id, *body.Option)
	if err != nil {
		h.fail(w, r, "select reschedule option", err)
		return
	}
	h.respondJson(w, http.StatusOK, toAPIRequest(req))
}

// Approve handles POST /reschedule-requests/{id}/approve.
// Approval books the replacement flight; the response carries it.
func (h *Handlers) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "request")
	if !ok {
		return
	}

	var body api.ApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if body.Approved == nil {
		h.httpError(w, "approved is required", http.StatusBadRequest)
		return
	}

	res, err := h.engine.ApproveReschedule(r.Context(), id, *body.Approved)
	if err != nil {
		h.fail(w, r, "approve reschedule", err)
		return
	}

	resp := api.ApproveResponse{Request: toAPIRequest(res.Request)}
	if res.NewFlight != nil {
		f := toAPIFlight(res.NewFlight)
		resp.NewFlight = &f
	}
	h.respondJson(w, http.StatusOK, resp)
}
