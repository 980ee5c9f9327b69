package handlers

import (
	"context"
	"net/http"
	"time"

	"flightwx/pkg/api"
)

// ReadyTimeout bounds the store ping behind /readyz.
const ReadyTimeout = 2 * time.Second

// Healthz reports that the process is serving.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	h.respondJson(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Readyz answers 503 while the store is unreachable. The sweeps entry is informational:
// a controller without a sweeper still serves every other route.
func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	resp := api.ReadinessResponse{Status: "ready", Checks: map[string]string{"database": "ok"}}
	status := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), ReadyTimeout)
	defer cancel()
	if err := h.reader.Ping(ctx); err != nil {
		h.logger.Warn("readiness check failed", "check", "database", "error", err)
		resp.Status = "unavailable"
		resp.Checks["database"] = "unreachable"
		status = http.StatusServiceUnavailable
	}

	if h.sweeper != nil {
		resp.Checks["sweeps"] = "enabled"
	} else {
		resp.Checks["sweeps"] = "disabled"
	}

	h.respondJson(w, status, resp)
}
