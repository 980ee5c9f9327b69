// Package handlers contains HTTP handlers for the controller API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"flightwx/internal/engine"
	"flightwx/internal/errs"
	"flightwx/internal/logger"
	"flightwx/internal/reschedule"
	"flightwx/internal/store"
	"flightwx/internal/sweep"
	"flightwx/pkg/api"

	"github.com/google/uuid"
)

// Engine is the set of core operations exposed over HTTP. *engine.Engine implements it.
type Engine interface {
	CheckWeatherForFlight(ctx context.Context, flightID uuid.UUID) (*engine.CheckResult, error)
	WeatherBriefing(ctx context.Context, flightID uuid.UUID) (*engine.Briefing, error)
	GenerateRescheduleOptions(ctx context.Context, flightID uuid.UUID) (*store.RescheduleRequest, error)
	SelectRescheduleOption(ctx context.Context, requestID uuid.UUID, index int) (*store.RescheduleRequest, error)
	ApproveReschedule(ctx context.Context, requestID uuid.UUID, approved bool) (*reschedule.Approval, error)
}

// Reader serves the read-only endpoints and the readiness check.
type Reader interface {
	Ping(ctx context.Context) error
	GetLatestWeatherCheck(ctx context.Context, flightID uuid.UUID) (*store.WeatherCheck, error)
	GetRescheduleRequest(ctx context.Context, tx store.Tx, id uuid.UUID) (*store.RescheduleRequest, error)
}

// Sweeper runs one sweep pass on demand.
type Sweeper interface {
	RunOnce(ctx context.Context) (sweep.Report, error)
}

// Handlers holds all HTTP handlers and their dependencies.
type Handlers struct {
	engine  Engine
	reader  Reader
	sweeper Sweeper
	logger  *slog.Logger
}

// New creates a new Handlers instance. sweeper may be nil, in which case POST /sweeps
// answers 503.
func New(e Engine, r Reader, s Sweeper, logger *slog.Logger) *Handlers {
	return &Handlers{engine: e, reader: r, sweeper: s, logger: logger}
}

// A helper function to write standard JSON responses.
func (h *Handlers) respondJson(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// A helper function to return consistent error messages.
func (h *Handlers) httpError(w http.ResponseWriter, message string, code int) {
	h.respondJson(w, code, api.ErrorResponse{
		Error: message,
		Code:  strconv.Itoa(code),
	})
}

func statusFor(kind errs.Kind) int {
	switch kind {
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindValidation, errs.KindInvalidArgument:
		return http.StatusBadRequest
	case errs.KindExpired:
		return http.StatusGone
	case errs.KindInvalidTransition:
		return http.StatusConflict
	case errs.KindProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail maps a core error to its HTTP status. Internal failures are logged here and
// their detail is not echoed to the caller.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	kind := errs.KindOf(err)
	status := statusFor(kind)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.FromContext(r.Context(), h.logger).Error(op+" failed", "kind", kind, "error", err)
		msg = "Internal error"
	} else {
		logger.FromContext(r.Context(), h.logger).Warn(op+" rejected", "kind", kind, "error", err)
	}
	h.respondJson(w, status, api.ErrorResponse{
		Error: msg,
		Code:  strconv.Itoa(status),
		Kind:  string(kind),
	})
}

func (h *Handlers) pathID(w http.ResponseWriter, r *http.Request, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid "+what+" ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
