package postgres

import (
	"context"
	"time"

	"flightwx/internal/store"

	"github.com/google/uuid"
)

const flightColumns = `id, school_id, student_id, instructor_id, aircraft_id, scheduled_start, scheduled_end, departure_airport, status, created_at, updated_at`

const flightDetailsQuery = `
	SELECT f.id, f.school_id, f.student_id, f.instructor_id, f.aircraft_id,
		f.scheduled_start, f.scheduled_end, f.departure_airport, f.status, f.created_at, f.updated_at,
		sc.name, sc.airport_code, sc.timezone, sc.weather_provider,
		st.email, st.first_name, st.last_name, st.training_level, st.total_hours, st.availability,
		i.email, i.first_name, i.last_name, i.availability,
		a.tail_number, a.model, a.available
	FROM flights f
	JOIN schools sc ON sc.id = f.school_id
	JOIN students st ON st.id = f.student_id
	JOIN instructors i ON i.id = f.instructor_id
	JOIN aircraft a ON a.id = f.aircraft_id
`

func scanFlight(row scanner) (*store.Flight, error) {
	var f store.Flight
	if err := row.Scan(
		&f.ID, &f.SchoolID, &f.StudentID, &f.InstructorID, &f.AircraftID,
		&f.ScheduledStart, &f.ScheduledEnd, &f.DepartureAirport, &f.Status,
		&f.CreatedAt, &f.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &f, nil
}

func scanFlightDetails(row scanner) (*store.FlightDetails, error) {
	var d store.FlightDetails
	f := &d.Flight
	if err := row.Scan(
		&f.ID, &f.SchoolID, &f.StudentID, &f.InstructorID, &f.AircraftID,
		&f.ScheduledStart, &f.ScheduledEnd, &f.DepartureAirport, &f.Status, &f.CreatedAt, &f.UpdatedAt,
		&d.School.Name, &d.School.AirportCode, &d.School.Timezone, &d.School.WeatherProvider,
		&d.Student.Email, &d.Student.FirstName, &d.Student.LastName, &d.Student.TrainingLevel,
		&d.Student.TotalHours, &d.Student.Availability,
		&d.Instructor.Email, &d.Instructor.FirstName, &d.Instructor.LastName, &d.Instructor.Availability,
		&d.Aircraft.TailNumber, &d.Aircraft.Model, &d.Aircraft.Available,
	); err != nil {
		return nil, err
	}

	d.School.ID = f.SchoolID
	d.Student.ID, d.Student.SchoolID = f.StudentID, f.SchoolID
	d.Instructor.ID, d.Instructor.SchoolID = f.InstructorID, f.SchoolID
	d.Aircraft.ID, d.Aircraft.SchoolID = f.AircraftID, f.SchoolID
	return &d, nil
}

// GetFlightByID returns a flight. Inside a transaction the row is locked until commit.
func (s *Store) GetFlightByID(ctx context.Context, tx store.Tx, id uuid.UUID) (*store.Flight, error) {
	query := `SELECT ` + flightColumns + ` FROM flights WHERE id = $1`
	if tx != nil {
		query += ` FOR UPDATE`
	}

	flight, err := scanFlight(s.getExecutor(tx).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return flight, nil
}

func (s *Store) GetFlightDetails(ctx context.Context, id uuid.UUID) (*store.FlightDetails, error) {
	details, err := scanFlightDetails(s.db.QueryRowContext(ctx, flightDetailsQuery+` WHERE f.id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return details, nil
}

func (s *Store) ListUpcomingFlights(ctx context.Context, from, to time.Time) ([]store.FlightDetails, error) {
	query := flightDetailsQuery + `
	WHERE f.status = $1 AND f.scheduled_start >= $2 AND f.scheduled_start <= $3
	ORDER BY f.scheduled_start ASC
	`

	rows, err := s.db.QueryContext(ctx, query, store.FlightStatusScheduled, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flights []store.FlightDetails
	for rows.Next() {
		details, err := scanFlightDetails(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, *details)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return flights, nil
}

func (s *Store) CreateFlight(ctx context.Context, tx store.Tx, flight *store.Flight) error {
	now := time.Now().UTC()
	if flight.ID == uuid.Nil {
		flight.ID = uuid.New()
	}
	if flight.CreatedAt.IsZero() {
		flight.CreatedAt = now
	}
	flight.UpdatedAt = flight.CreatedAt

	query := `INSERT INTO flights (` + flightColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := s.getExecutor(tx).ExecContext(ctx, query,
		flight.ID, flight.SchoolID, flight.StudentID, flight.InstructorID, flight.AircraftID,
		flight.ScheduledStart, flight.ScheduledEnd, flight.DepartureAirport, flight.Status,
		flight.CreatedAt, flight.UpdatedAt,
	)
	return err
}

func (s *Store) TransitionFlight(ctx context.Context, tx store.Tx, id uuid.UUID, from, to store.FlightStatus) (bool, error) {
	query := `UPDATE flights SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`

	result, err := s.getExecutor(tx).ExecContext(ctx, query, id, from, to)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
