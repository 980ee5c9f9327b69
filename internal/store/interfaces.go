package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// DBTransaction defines the methods shared by *sql.DB and *sql.Tx.
// This allows us to pass either a connection pool or an active transaction to the repository methods.
type DBTransaction interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Tx is an open unit of work. Repository methods that take a Tx run inside it;
// a nil Tx means the call commits on its own.
type Tx interface {
	Commit() error
	Rollback() error
}

// Transactor opens transactions.
type Transactor interface {
	BeginTx(ctx context.Context) (Tx, error)
}

// FlightStore handles flights and the parties attached to them.
type FlightStore interface {
	// GetFlightByID returns a flight by its ID.
	GetFlightByID(ctx context.Context, tx Tx, id uuid.UUID) (*Flight, error)

	// GetFlightDetails returns a flight joined with its school, student, instructor and aircraft.
	GetFlightDetails(ctx context.Context, id uuid.UUID) (*FlightDetails, error)

	// ListUpcomingFlights returns SCHEDULED flights starting within [from, to], earliest first.
	ListUpcomingFlights(ctx context.Context, from, to time.Time) ([]FlightDetails, error)

	// CreateFlight inserts a new flight.
	CreateFlight(ctx context.Context, tx Tx, flight *Flight) error

	// TransitionFlight moves a flight from one status to another.
	// It reports false when the flight was not in the expected status.
	TransitionFlight(ctx context.Context, tx Tx, id uuid.UUID, from, to FlightStatus) (bool, error)
}

// WeatherCheckStore is the append-only weather audit log.
type WeatherCheckStore interface {
	// CreateWeatherCheck appends a check.
	CreateWeatherCheck(ctx context.Context, tx Tx, check *WeatherCheck) error

	// GetLatestWeatherCheck returns the most recent check for a flight.
	GetLatestWeatherCheck(ctx context.Context, flightID uuid.UUID) (*WeatherCheck, error)

	// ListWeatherChecks returns up to limit checks for a flight, newest first.
	ListWeatherChecks(ctx context.Context, flightID uuid.UUID, limit int) ([]WeatherCheck, error)
}

// RescheduleStore persists reschedule requests.
type RescheduleStore interface {
	// CreateRescheduleRequest inserts a new request.
	CreateRescheduleRequest(ctx context.Context, tx Tx, req *RescheduleRequest) error

	// GetRescheduleRequest returns a request by its ID. A non-nil tx locks the row.
	GetRescheduleRequest(ctx context.Context, tx Tx, id uuid.UUID) (*RescheduleRequest, error)

	// GetActiveRescheduleRequest returns the pending request for a flight that has not lapsed at now.
	GetActiveRescheduleRequest(ctx context.Context, tx Tx, flightID uuid.UUID, now time.Time) (*RescheduleRequest, error)

	// UpdateRescheduleRequest saves status, selection, confirmation times and the replacement link.
	UpdateRescheduleRequest(ctx context.Context, tx Tx, req *RescheduleRequest) error

	// ExpireRescheduleRequests flips pending requests whose deadline passed before now to EXPIRED.
	// A nil flightID applies to every flight.
	ExpireRescheduleRequests(ctx context.Context, tx Tx, flightID *uuid.UUID, now time.Time) (int64, error)

	// CountPendingRescheduleRequests returns the number of non-terminal requests.
	CountPendingRescheduleRequests(ctx context.Context) (int64, error)
}

// DirectoryStore writes the reference entities a flight points at.
type DirectoryStore interface {
	CreateSchool(ctx context.Context, school *School) error
	CreateStudent(ctx context.Context, student *Student) error
	CreateInstructor(ctx context.Context, instructor *Instructor) error
	CreateAircraft(ctx context.Context, aircraft *Aircraft) error
}

// Store is everything the service processes need from persistence.
type Store interface {
	Transactor
	FlightStore
	WeatherCheckStore
	RescheduleStore
	DirectoryStore
	Ping(ctx context.Context) error
	Close() error
}
