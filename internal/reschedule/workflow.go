package reschedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flightwx/internal/errs"
	"flightwx/internal/store"

	"github.com/google/uuid"
)

// DefaultTTL is how long a request stays open after creation.
const DefaultTTL = 48 * time.Hour

// Repository is the persistence a Workflow needs.
type Repository interface {
	store.Transactor
	GetFlightByID(ctx context.Context, tx store.Tx, id uuid.UUID) (*store.Flight, error)
	CreateFlight(ctx context.Context, tx store.Tx, flight *store.Flight) error
	TransitionFlight(ctx context.Context, tx store.Tx, id uuid.UUID, from, to store.FlightStatus) (bool, error)
	CreateRescheduleRequest(ctx context.Context, tx store.Tx, req *store.RescheduleRequest) error
	GetRescheduleRequest(ctx context.Context, tx store.Tx, id uuid.UUID) (*store.RescheduleRequest, error)
	GetActiveRescheduleRequest(ctx context.Context, tx store.Tx, flightID uuid.UUID, now time.Time) (*store.RescheduleRequest, error)
	UpdateRescheduleRequest(ctx context.Context, tx store.Tx, req *store.RescheduleRequest) error
	ExpireRescheduleRequests(ctx context.Context, tx store.Tx, flightID *uuid.UUID, now time.Time) (int64, error)
}

// Workflow is the reschedule request state machine:
//
//	PENDING_STUDENT -> PENDING_INSTRUCTOR -> ACCEPTED | REJECTED
//	PENDING_* -> EXPIRED once the deadline has passed
//
// Every transition runs in one transaction with the request row locked.
type Workflow struct {
	repo Repository
	ttl  time.Duration
	now  func() time.Time
}

func NewWorkflow(repo Repository, ttl time.Duration) *Workflow {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Workflow{repo: repo, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

// Approval is the outcome of an instructor decision. NewFlight is set only when accepted.
type Approval struct {
	Request   *store.RescheduleRequest
	NewFlight *store.Flight
}

// Create opens a request for a flight with its three candidates. Lapsed requests for
// the flight are expired first; a still-pending one makes Create fail.
func (w *Workflow) Create(ctx context.Context, flight store.Flight, candidates []store.Candidate) (*store.RescheduleRequest, error) {
	const op = "create reschedule request"

	if len(candidates) != CandidateCount {
		return nil, errs.InvalidArgument(op, "expected %d candidates, got %d", CandidateCount, len(candidates))
	}

	now := w.now()

	tx, err := w.repo.BeginTx(ctx)
	if err != nil {
		return nil, errs.Transaction(op, err)
	}
	defer tx.Rollback()

	if _, err := w.repo.ExpireRescheduleRequests(ctx, tx, &flight.ID, now); err != nil {
		return nil, errs.Transaction(op, err)
	}

	active, err := w.repo.GetActiveRescheduleRequest(ctx, tx, flight.ID, now)
	switch {
	case err == nil:
		return nil, errs.InvalidTransition(op, "flight %s already has pending request %s", flight.ID, active.ID)
	case !errors.Is(err, store.ErrNotFound):
		return nil, errs.Transaction(op, err)
	}

	req := &store.RescheduleRequest{
		ID:          uuid.New(),
		FlightID:    flight.ID,
		StudentID:   flight.StudentID,
		Suggestions: append(store.Candidates(nil), candidates...),
		Status:      store.RescheduleStatusPendingStudent,
		ExpiresAt:   now.Add(w.ttl),
		CreatedAt:   now,
	}
	if err := w.repo.CreateRescheduleRequest(ctx, tx, req); err != nil {
		return nil, errs.Transaction(op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, errs.Transaction(op, err)
	}
	return req, nil
}

// Select records the student's choice and hands the request to the instructor.
// A lapsed request is moved to EXPIRED and the call fails with an expired error.
func (w *Workflow) Select(ctx context.Context, requestID uuid.UUID, index int) (*store.RescheduleRequest, error) {
	const op = "select option"

	if index < 0 || index >= CandidateCount {
		return nil, errs.InvalidArgument(op, "option index %d out of range 0..%d", index, CandidateCount-1)
	}

	now := w.now()

	tx, err := w.repo.BeginTx(ctx)
	if err != nil {
		return nil, errs.Transaction(op, err)
	}
	defer tx.Rollback()

	req, err := w.lock(ctx, tx, op, requestID)
	if err != nil {
		return nil, err
	}

	if err := w.expireIfLapsed(ctx, tx, op, req, now); err != nil {
		return nil, err
	}
	if req.Status != store.RescheduleStatusPendingStudent {
		return nil, errs.InvalidTransition(op, "request %s is %s, not %s", req.ID, req.Status, store.RescheduleStatusPendingStudent)
	}

	req.SelectedOption = &index
	req.StudentConfirmedAt = &now
	req.Status = store.RescheduleStatusPendingInstructor

	if err := w.repo.UpdateRescheduleRequest(ctx, tx, req); err != nil {
		return nil, errs.Transaction(op, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, errs.Transaction(op, err)
	}
	return req, nil
}

// Approve applies the instructor's decision. Acceptance creates the replacement flight,
// marks the original RESCHEDULED and closes the request in one transaction; if any
// write fails none of them are visible.
func (w *Workflow) Approve(ctx context.Context, requestID uuid.UUID, approved bool) (*Approval, error) {
	const op = "approve reschedule"

	now := w.now()

	tx, err := w.repo.BeginTx(ctx)
	if err != nil {
		return nil, errs.Transaction(op, err)
	}
	defer tx.Rollback()

	req, err := w.lock(ctx, tx, op, requestID)
	if err != nil {
		return nil, err
	}

	if err := w.expireIfLapsed(ctx, tx, op, req, now); err != nil {
		return nil, err
	}
	if req.Status != store.RescheduleStatusPendingInstructor {
		return nil, errs.InvalidTransition(op, "request %s is %s, not %s", req.ID, req.Status, store.RescheduleStatusPendingInstructor)
	}

	req.InstructorConfirmedAt = &now

	if !approved {
		req.Status = store.RescheduleStatusRejected
		if err := w.repo.UpdateRescheduleRequest(ctx, tx, req); err != nil {
			return nil, errs.Transaction(op, err)
		}
		if err := tx.Commit(); err != nil {
			return nil, errs.Transaction(op, err)
		}
		return &Approval{Request: req}, nil
	}

	selected, ok := req.Selected()
	if !ok {
		return nil, errs.InvalidTransition(op, "request %s has no selected option", req.ID)
	}

	original, err := w.repo.GetFlightByID(ctx, tx, req.FlightID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errs.NotFound(op, "flight %s not found", req.FlightID)
		}
		return nil, errs.Transaction(op, err)
	}

	switch original.Status {
	case store.FlightStatusWeatherCancelled, store.FlightStatusScheduled:
	default:
		return nil, errs.InvalidTransition(op, "original flight %s is %s", original.ID, original.Status)
	}

	replacement := &store.Flight{
		ID:               uuid.New(),
		SchoolID:         original.SchoolID,
		StudentID:        original.StudentID,
		InstructorID:     original.InstructorID,
		AircraftID:       original.AircraftID,
		ScheduledStart:   selected.Slot,
		ScheduledEnd:     selected.Slot.Add(original.Duration()),
		DepartureAirport: original.DepartureAirport,
		Status:           store.FlightStatusScheduled,
		CreatedAt:        now,
	}
	if err := w.repo.CreateFlight(ctx, tx, replacement); err != nil {
		return nil, errs.Transaction(op, err)
	}

	changed, err := w.repo.TransitionFlight(ctx, tx, original.ID, original.Status, store.FlightStatusRescheduled)
	if err != nil {
		return nil, errs.Transaction(op, err)
	}
	if !changed {
		return nil, errs.Transaction(op, fmt.Errorf("flight %s changed status concurrently", original.ID))
	}

	req.Status = store.RescheduleStatusAccepted
	req.NewFlightID = &replacement.ID
	if err := w.repo.UpdateRescheduleRequest(ctx, tx, req); err != nil {
		return nil, errs.Transaction(op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, errs.Transaction(op, err)
	}
	return &Approval{Request: req, NewFlight: replacement}, nil
}

func (w *Workflow) lock(ctx context.Context, tx store.Tx, op string, id uuid.UUID) (*store.RescheduleRequest, error) {
	req, err := w.repo.GetRescheduleRequest(ctx, tx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errs.NotFound(op, "reschedule request %s not found", id)
		}
		return nil, errs.Transaction(op, err)
	}
	if req.Status.Terminal() {
		return nil, errs.InvalidTransition(op, "request %s is already %s", req.ID, req.Status)
	}
	return req, nil
}

// expireIfLapsed commits the EXPIRED transition and returns an expired error when the
// deadline has passed. It returns nil for a live request.
func (w *Workflow) expireIfLapsed(ctx context.Context, tx store.Tx, op string, req *store.RescheduleRequest, now time.Time) error {
	if !req.Expired(now) {
		return nil
	}

	req.Status = store.RescheduleStatusExpired
	if err := w.repo.UpdateRescheduleRequest(ctx, tx, req); err != nil {
		return errs.Transaction(op, err)
	}
	if err := tx.Commit(); err != nil {
		return errs.Transaction(op, err)
	}
	return errs.Expired(op, "request %s expired at %s", req.ID, req.ExpiresAt.Format(time.RFC3339))
}
