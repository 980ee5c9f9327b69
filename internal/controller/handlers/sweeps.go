package handlers

import (
	"net/http"

	"flightwx/pkg/api"
)

// RunSweep handles POST /sweeps. It runs one pass synchronously and returns its report.
func (h *Handlers) RunSweep(w http.ResponseWriter, r *http.Request) {
	if h.sweeper == nil {
		h.httpError(w, "Sweeps are not enabled", http.StatusServiceUnavailable)
		return
	}

	report, err := h.sweeper.RunOnce(r.Context())
	if err != nil {
		h.fail(w, r, "sweep", err)
		return
	}

	h.respondJson(w, http.StatusOK, api.SweepResponse{
		Flights:    report.Flights,
		Checked:    report.Checked,
		Cancelled:  report.Cancelled,
		Requests:   report.Requests,
		Failures:   report.Failures,
		Expired:    report.Expired,
		DurationMS: report.Duration.Milliseconds(),
	})
}
