// Package store contains the database layer for flightwx.
package store

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TrainingLevel is a pilot's certification tier. It selects the weather minimums that apply.
type TrainingLevel string

const (
	TrainingLevelEarlyStudent    TrainingLevel = "EARLY_STUDENT"
	TrainingLevelPrivatePilot    TrainingLevel = "PRIVATE_PILOT"
	TrainingLevelInstrumentRated TrainingLevel = "INSTRUMENT_RATED"
)

// FlightStatus represents the state of a scheduled lesson.
// Originals never reopen: a rescheduled lesson is a new Flight.
type FlightStatus string

const (
	FlightStatusScheduled        FlightStatus = "SCHEDULED"
	FlightStatusCompleted        FlightStatus = "COMPLETED"
	FlightStatusWeatherCancelled FlightStatus = "WEATHER_CANCELLED"
	FlightStatusRescheduled      FlightStatus = "RESCHEDULED"
)

// WeatherSafety is the persisted outcome of a weather check.
type WeatherSafety string

const (
	WeatherSafe   WeatherSafety = "SAFE"
	WeatherUnsafe WeatherSafety = "UNSAFE"
)

// RescheduleStatus represents the lifecycle state of a reschedule request.
type RescheduleStatus string

const (
	RescheduleStatusPendingStudent    RescheduleStatus = "PENDING_STUDENT"
	RescheduleStatusPendingInstructor RescheduleStatus = "PENDING_INSTRUCTOR"
	RescheduleStatusAccepted          RescheduleStatus = "ACCEPTED"
	RescheduleStatusRejected          RescheduleStatus = "REJECTED"
	RescheduleStatusExpired           RescheduleStatus = "EXPIRED"
)

// Terminal reports whether no further transition is allowed from s.
func (s RescheduleStatus) Terminal() bool {
	switch s {
	case RescheduleStatusAccepted, RescheduleStatusRejected, RescheduleStatusExpired:
		return true
	}
	return false
}

// Confidence is the generator's confidence tier for a candidate slot.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("record not found")

// Weekdays lists availability keys in calendar order, starting Monday.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// Availability maps a lowercase weekday to "HH:MM-HH:MM" intervals.
// Stored as a JSON object.
type Availability map[string][]string

func (a Availability) Value() (driver.Value, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(a)
}

func (a *Availability) Scan(src any) error {
	return scanJSON(src, a)
}

// School is a flight school operating out of one home airport.
type School struct {
	ID              uuid.UUID
	Name            string
	AirportCode     string
	Timezone        string
	WeatherProvider string // optional override of the configured primary source
	CreatedAt       time.Time
}

// Student is a pilot in training.
type Student struct {
	ID            uuid.UUID
	SchoolID      uuid.UUID
	Email         string
	FirstName     string
	LastName      string
	TrainingLevel TrainingLevel
	TotalHours    float64
	Availability  Availability
	CreatedAt     time.Time
}

func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Instructor is a flight instructor.
type Instructor struct {
	ID           uuid.UUID
	SchoolID     uuid.UUID
	Email        string
	FirstName    string
	LastName     string
	Availability Availability
	CreatedAt    time.Time
}

func (i Instructor) FullName() string {
	return strings.TrimSpace(i.FirstName + " " + i.LastName)
}

// Aircraft is a training aircraft.
type Aircraft struct {
	ID         uuid.UUID
	SchoolID   uuid.UUID
	TailNumber string
	Model      string
	Available  bool
	CreatedAt  time.Time
}

// Label renders the aircraft as "Model (TAIL)".
func (a Aircraft) Label() string {
	return fmt.Sprintf("%s (%s)", a.Model, a.TailNumber)
}

// Flight is one scheduled lesson.
type Flight struct {
	ID               uuid.UUID
	SchoolID         uuid.UUID
	StudentID        uuid.UUID
	InstructorID     uuid.UUID
	AircraftID       uuid.UUID
	ScheduledStart   time.Time
	ScheduledEnd     time.Time
	DepartureAirport string
	Status           FlightStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Duration is the planned block time of the lesson.
func (f Flight) Duration() time.Duration {
	return f.ScheduledEnd.Sub(f.ScheduledStart)
}

// FlightDetails is a flight joined with the parties it involves.
type FlightDetails struct {
	Flight     Flight
	School     School
	Student    Student
	Instructor Instructor
	Aircraft   Aircraft
}

// WeatherCheck is an append-only snapshot of one evaluation of a flight's weather.
// The latest check for a flight is authoritative.
type WeatherCheck struct {
	ID                 uuid.UUID
	FlightID           uuid.UUID
	CheckTime          time.Time
	Location           string
	Visibility         float64
	Ceiling            *int // nil means unlimited
	WindSpeed          int
	Conditions         string
	Result             WeatherSafety
	Reasons            []string
	Provider           string
	RawData            string
	TrainingLevel      TrainingLevel
	RequiredVisibility float64
	RequiredCeiling    int
	MaxWindSpeed       int
}

// Candidate is one proposed reschedule slot.
type Candidate struct {
	Slot                time.Time  `json:"slot"`
	Priority            int        `json:"priority"`
	Reasoning           string     `json:"reasoning"`
	WeatherForecast     string     `json:"weatherForecast"`
	Confidence          Confidence `json:"confidence"`
	InstructorAvailable bool       `json:"instructorAvailable"`
	AircraftAvailable   bool       `json:"aircraftAvailable"`
}

// Candidates is the set of slots owned by a request. Stored as a JSON array.
type Candidates []Candidate

func (c Candidates) Value() (driver.Value, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c)
}

func (c *Candidates) Scan(src any) error {
	return scanJSON(src, c)
}

// RescheduleRequest tracks a cancelled flight from suggestion through approval.
type RescheduleRequest struct {
	ID                    uuid.UUID
	FlightID              uuid.UUID
	StudentID             uuid.UUID
	Suggestions           Candidates
	Status                RescheduleStatus
	SelectedOption        *int
	StudentConfirmedAt    *time.Time
	InstructorConfirmedAt *time.Time
	NewFlightID           *uuid.UUID
	ExpiresAt             time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Expired reports whether the request's deadline has passed at now.
func (r *RescheduleRequest) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// Selected returns the candidate the student picked, if any.
func (r *RescheduleRequest) Selected() (Candidate, bool) {
	if r.SelectedOption == nil {
		return Candidate{}, false
	}
	idx := *r.SelectedOption
	if idx < 0 || idx >= len(r.Suggestions) {
		return Candidate{}, false
	}
	return r.Suggestions[idx], true
}

func scanJSON(src any, dest any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported JSON column type %T", src)
	}
}
