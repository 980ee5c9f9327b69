// Package memory is an in-process implementation of store.Store.
// It backs DATABASE_URL=memory:// for local runs and the domain package tests.
//
// Transactions are serialized: BeginTx takes the writer lock and works on a copy
// of the data, which replaces the live data on Commit. Readers outside the
// transaction keep seeing the last committed state.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"flightwx/internal/store"

	"github.com/google/uuid"
)

// ErrTxDone is returned when a finished transaction is used again.
var ErrTxDone = errors.New("memory: transaction already committed or rolled back")

type data struct {
	schools     map[uuid.UUID]store.School
	students    map[uuid.UUID]store.Student
	instructors map[uuid.UUID]store.Instructor
	aircraft    map[uuid.UUID]store.Aircraft
	flights     map[uuid.UUID]store.Flight
	checks      []store.WeatherCheck
	requests    map[uuid.UUID]store.RescheduleRequest
}

func newData() *data {
	return &data{
		schools:     map[uuid.UUID]store.School{},
		students:    map[uuid.UUID]store.Student{},
		instructors: map[uuid.UUID]store.Instructor{},
		aircraft:    map[uuid.UUID]store.Aircraft{},
		flights:     map[uuid.UUID]store.Flight{},
		requests:    map[uuid.UUID]store.RescheduleRequest{},
	}
}

func (d *data) clone() *data {
	c := newData()
	for k, v := range d.schools {
		c.schools[k] = v
	}
	for k, v := range d.students {
		c.students[k] = v
	}
	for k, v := range d.instructors {
		c.instructors[k] = v
	}
	for k, v := range d.aircraft {
		c.aircraft[k] = v
	}
	for k, v := range d.flights {
		c.flights[k] = v
	}
	c.checks = append(c.checks, d.checks...)
	for k, v := range d.requests {
		c.requests[k] = v
	}
	return c
}

// Store keeps every record in memory.
type Store struct {
	writer sync.Mutex   // held by the open transaction or a single auto-commit write
	mu     sync.RWMutex // guards live
	live   *data

	// FailOn, when set, is consulted before every write; a non-nil result aborts it.
	// Tests use it to inject storage failures.
	FailOn func(op string) error
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{live: newData()}
}

type memTx struct {
	s    *Store
	work *data
	done bool
}

func (s *Store) BeginTx(ctx context.Context) (store.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.writer.Lock()
	s.mu.RLock()
	work := s.live.clone()
	s.mu.RUnlock()
	return &memTx{s: s, work: work}, nil
}

func (t *memTx) Commit() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	t.s.mu.Lock()
	t.s.live = t.work
	t.s.mu.Unlock()
	t.s.writer.Unlock()
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	t.s.writer.Unlock()
	return nil
}

// read runs fn against the transaction's copy, or the committed data under a read lock.
func (s *Store) read(tx store.Tx, fn func(d *data) error) error {
	if t, ok := tx.(*memTx); ok && t != nil {
		if t.done {
			return ErrTxDone
		}
		return fn(t.work)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.live)
}

// write runs fn against the transaction's copy, or as its own committed transaction.
func (s *Store) write(op string, tx store.Tx, fn func(d *data) error) error {
	if s.FailOn != nil {
		if err := s.FailOn(op); err != nil {
			return err
		}
	}
	if t, ok := tx.(*memTx); ok && t != nil {
		if t.done {
			return ErrTxDone
		}
		return fn(t.work)
	}

	s.writer.Lock()
	defer s.writer.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.live.clone()
	if err := fn(work); err != nil {
		return err
	}
	s.live = work
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Close() error { return nil }

// Flights

func (s *Store) GetFlightByID(ctx context.Context, tx store.Tx, id uuid.UUID) (*store.Flight, error) {
	var out store.Flight
	err := s.read(tx, func(d *data) error {
		f, ok := d.flights[id]
		if !ok {
			return store.ErrNotFound
		}
		out = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (d *data) details(f store.Flight) (store.FlightDetails, bool) {
	school, ok1 := d.schools[f.SchoolID]
	student, ok2 := d.students[f.StudentID]
	instructor, ok3 := d.instructors[f.InstructorID]
	aircraft, ok4 := d.aircraft[f.AircraftID]
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return store.FlightDetails{}, false
	}
	return store.FlightDetails{Flight: f, School: school, Student: student, Instructor: instructor, Aircraft: aircraft}, true
}

func (s *Store) GetFlightDetails(ctx context.Context, id uuid.UUID) (*store.FlightDetails, error) {
	var out store.FlightDetails
	err := s.read(nil, func(d *data) error {
		f, ok := d.flights[id]
		if !ok {
			return store.ErrNotFound
		}
		details, ok := d.details(f)
		if !ok {
			return store.ErrNotFound
		}
		out = details
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) ListUpcomingFlights(ctx context.Context, from, to time.Time) ([]store.FlightDetails, error) {
	var out []store.FlightDetails
	err := s.read(nil, func(d *data) error {
		for _, f := range d.flights {
			if f.Status != store.FlightStatusScheduled || f.ScheduledStart.Before(from) || f.ScheduledStart.After(to) {
				continue
			}
			if details, ok := d.details(f); ok {
				out = append(out, details)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].Flight.ScheduledStart.Before(out[j].Flight.ScheduledStart)
	})
	return out, err
}

func (s *Store) CreateFlight(ctx context.Context, tx store.Tx, flight *store.Flight) error {
	return s.write("CreateFlight", tx, func(d *data) error {
		if flight.ID == uuid.Nil {
			flight.ID = uuid.New()
		}
		if flight.CreatedAt.IsZero() {
			flight.CreatedAt = time.Now().UTC()
		}
		flight.UpdatedAt = flight.CreatedAt
		d.flights[flight.ID] = *flight
		return nil
	})
}

func (s *Store) TransitionFlight(ctx context.Context, tx store.Tx, id uuid.UUID, from, to store.FlightStatus) (bool, error) {
	changed := false
	err := s.write("TransitionFlight", tx, func(d *data) error {
		f, ok := d.flights[id]
		if !ok || f.Status != from {
			return nil
		}
		f.Status = to
		f.UpdatedAt = time.Now().UTC()
		d.flights[id] = f
		changed = true
		return nil
	})
	return changed, err
}

// Weather checks

func (s *Store) CreateWeatherCheck(ctx context.Context, tx store.Tx, check *store.WeatherCheck) error {
	return s.write("CreateWeatherCheck", tx, func(d *data) error {
		if check.ID == uuid.Nil {
			check.ID = uuid.New()
		}
		if check.CheckTime.IsZero() {
			check.CheckTime = time.Now().UTC()
		}
		c := *check
		c.Reasons = append([]string(nil), check.Reasons...)
		d.checks = append(d.checks, c)
		return nil
	})
}

func (s *Store) GetLatestWeatherCheck(ctx context.Context, flightID uuid.UUID) (*store.WeatherCheck, error) {
	var out *store.WeatherCheck
	err := s.read(nil, func(d *data) error {
		for i := range d.checks {
			c := d.checks[i]
			if c.FlightID != flightID {
				continue
			}
			// Later appends win ties.
			if out == nil || !c.CheckTime.Before(out.CheckTime) {
				out = &c
			}
		}
		if out == nil {
			return store.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) ListWeatherChecks(ctx context.Context, flightID uuid.UUID, limit int) ([]store.WeatherCheck, error) {
	out := []store.WeatherCheck{}
	err := s.read(nil, func(d *data) error {
		// Walk newest appends first so equal check times keep later-first order.
		for i := len(d.checks) - 1; i >= 0; i-- {
			if c := d.checks[i]; c.FlightID == flightID {
				c.Reasons = append([]string(nil), c.Reasons...)
				out = append(out, c)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CheckTime.After(out[j].CheckTime) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// WeatherChecks returns every check recorded for a flight, oldest first.
func (s *Store) WeatherChecks(flightID uuid.UUID) []store.WeatherCheck {
	var out []store.WeatherCheck
	_ = s.read(nil, func(d *data) error {
		for _, c := range d.checks {
			if c.FlightID == flightID {
				out = append(out, c)
			}
		}
		return nil
	})
	return out
}

// Reschedule requests

func copyRequest(r store.RescheduleRequest) store.RescheduleRequest {
	r.Suggestions = append(store.Candidates(nil), r.Suggestions...)
	return r
}

func (s *Store) CreateRescheduleRequest(ctx context.Context, tx store.Tx, req *store.RescheduleRequest) error {
	return s.write("CreateRescheduleRequest", tx, func(d *data) error {
		if req.ID == uuid.Nil {
			req.ID = uuid.New()
		}
		if req.CreatedAt.IsZero() {
			req.CreatedAt = time.Now().UTC()
		}
		req.UpdatedAt = req.CreatedAt
		d.requests[req.ID] = copyRequest(*req)
		return nil
	})
}

func (s *Store) GetRescheduleRequest(ctx context.Context, tx store.Tx, id uuid.UUID) (*store.RescheduleRequest, error) {
	var out store.RescheduleRequest
	err := s.read(tx, func(d *data) error {
		r, ok := d.requests[id]
		if !ok {
			return store.ErrNotFound
		}
		out = copyRequest(r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func pending(status store.RescheduleStatus) bool {
	return status == store.RescheduleStatusPendingStudent || status == store.RescheduleStatusPendingInstructor
}

func (s *Store) GetActiveRescheduleRequest(ctx context.Context, tx store.Tx, flightID uuid.UUID, now time.Time) (*store.RescheduleRequest, error) {
	var out *store.RescheduleRequest
	err := s.read(tx, func(d *data) error {
		for _, r := range d.requests {
			if r.FlightID != flightID || !pending(r.Status) || r.ExpiresAt.Before(now) {
				continue
			}
			if out == nil || r.CreatedAt.After(out.CreatedAt) {
				c := copyRequest(r)
				out = &c
			}
		}
		if out == nil {
			return store.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UpdateRescheduleRequest(ctx context.Context, tx store.Tx, req *store.RescheduleRequest) error {
	return s.write("UpdateRescheduleRequest", tx, func(d *data) error {
		existing, ok := d.requests[req.ID]
		if !ok {
			return store.ErrNotFound
		}
		existing.Status = req.Status
		existing.SelectedOption = req.SelectedOption
		existing.StudentConfirmedAt = req.StudentConfirmedAt
		existing.InstructorConfirmedAt = req.InstructorConfirmedAt
		existing.NewFlightID = req.NewFlightID
		existing.UpdatedAt = time.Now().UTC()
		req.UpdatedAt = existing.UpdatedAt
		d.requests[req.ID] = existing
		return nil
	})
}

func (s *Store) ExpireRescheduleRequests(ctx context.Context, tx store.Tx, flightID *uuid.UUID, now time.Time) (int64, error) {
	var n int64
	err := s.write("ExpireRescheduleRequests", tx, func(d *data) error {
		for id, r := range d.requests {
			if !pending(r.Status) || !r.ExpiresAt.Before(now) {
				continue
			}
			if flightID != nil && r.FlightID != *flightID {
				continue
			}
			r.Status = store.RescheduleStatusExpired
			r.UpdatedAt = now
			d.requests[id] = r
			n++
		}
		return nil
	})
	return n, err
}

func (s *Store) CountPendingRescheduleRequests(ctx context.Context) (int64, error) {
	var n int64
	err := s.read(nil, func(d *data) error {
		for _, r := range d.requests {
			if pending(r.Status) {
				n++
			}
		}
		return nil
	})
	return n, err
}

// Directory

func (s *Store) CreateSchool(ctx context.Context, school *store.School) error {
	return s.write("CreateSchool", nil, func(d *data) error {
		if school.ID == uuid.Nil {
			school.ID = uuid.New()
		}
		if _, exists := d.schools[school.ID]; !exists {
			d.schools[school.ID] = *school
		}
		return nil
	})
}

func (s *Store) CreateStudent(ctx context.Context, student *store.Student) error {
	return s.write("CreateStudent", nil, func(d *data) error {
		if student.ID == uuid.Nil {
			student.ID = uuid.New()
		}
		if _, exists := d.students[student.ID]; !exists {
			d.students[student.ID] = *student
		}
		return nil
	})
}

func (s *Store) CreateInstructor(ctx context.Context, instructor *store.Instructor) error {
	return s.write("CreateInstructor", nil, func(d *data) error {
		if instructor.ID == uuid.Nil {
			instructor.ID = uuid.New()
		}
		if _, exists := d.instructors[instructor.ID]; !exists {
			d.instructors[instructor.ID] = *instructor
		}
		return nil
	})
}

func (s *Store) CreateAircraft(ctx context.Context, aircraft *store.Aircraft) error {
	return s.write("CreateAircraft", nil, func(d *data) error {
		if aircraft.ID == uuid.Nil {
			aircraft.ID = uuid.New()
		}
		if _, exists := d.aircraft[aircraft.ID]; !exists {
			d.aircraft[aircraft.ID] = *aircraft
		}
		return nil
	})
}
