package postgres

import (
	"context"
	"time"

	"flightwx/internal/store"

	"github.com/google/uuid"
)

// Directory inserts are keyed on id and skip rows that already exist, so fixtures can be reloaded.

func (s *Store) CreateSchool(ctx context.Context, school *store.School) error {
	if school.ID == uuid.Nil {
		school.ID = uuid.New()
	}
	if school.CreatedAt.IsZero() {
		school.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO schools (id, name, airport_code, timezone, weather_provider, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`,
		school.ID, school.Name, school.AirportCode, school.Timezone, school.WeatherProvider, school.CreatedAt,
	)
	return err
}

func (s *Store) CreateStudent(ctx context.Context, student *store.Student) error {
	if student.ID == uuid.Nil {
		student.ID = uuid.New()
	}
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO students (id, school_id, email, first_name, last_name, training_level, total_hours, availability, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`,
		student.ID, student.SchoolID, student.Email, student.FirstName, student.LastName,
		student.TrainingLevel, student.TotalHours, student.Availability, student.CreatedAt,
	)
	return err
}

func (s *Store) CreateInstructor(ctx context.Context, instructor *store.Instructor) error {
	if instructor.ID == uuid.Nil {
		instructor.ID = uuid.New()
	}
	if instructor.CreatedAt.IsZero() {
		instructor.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO instructors (id, school_id, email, first_name, last_name, availability, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`,
		instructor.ID, instructor.SchoolID, instructor.Email, instructor.FirstName, instructor.LastName,
		instructor.Availability, instructor.CreatedAt,
	)
	return err
}

func (s *Store) CreateAircraft(ctx context.Context, aircraft *store.Aircraft) error {
	if aircraft.ID == uuid.Nil {
		aircraft.ID = uuid.New()
	}
	if aircraft.CreatedAt.IsZero() {
		aircraft.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO aircraft (id, school_id, tail_number, model, available, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`,
		aircraft.ID, aircraft.SchoolID, aircraft.TailNumber, aircraft.Model, aircraft.Available, aircraft.CreatedAt,
	)
	return err
}
