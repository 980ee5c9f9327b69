// Package seed loads YAML fixtures of schools, people, aircraft and flights into a store.
package seed

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"flightwx/internal/store"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Fixture is the document layout. Entities reference each other by key.
type Fixture struct {
	Schools     []School     `yaml:"schools"`
	Students    []Student    `yaml:"students"`
	Instructors []Instructor `yaml:"instructors"`
	Aircraft    []Aircraft   `yaml:"aircraft"`
	Flights     []Flight     `yaml:"flights"`
}

type School struct {
	Key             string    `yaml:"key"`
	ID              uuid.UUID `yaml:"id"`
	Name            string    `yaml:"name"`
	Airport         string    `yaml:"airport"`
	Timezone        string    `yaml:"timezone"`
	WeatherProvider string    `yaml:"weather_provider"`
}

type Student struct {
	Key           string              `yaml:"key"`
	ID            uuid.UUID           `yaml:"id"`
	School        string              `yaml:"school"`
	Email         string              `yaml:"email"`
	FirstName     string              `yaml:"first_name"`
	LastName      string              `yaml:"last_name"`
	TrainingLevel string              `yaml:"training_level"`
	TotalHours    float64             `yaml:"total_hours"`
	Availability  map[string][]string `yaml:"availability"`
}

type Instructor struct {
	Key          string              `yaml:"key"`
	ID           uuid.UUID           `yaml:"id"`
	School       string              `yaml:"school"`
	Email        string              `yaml:"email"`
	FirstName    string              `yaml:"first_name"`
	LastName     string              `yaml:"last_name"`
	Availability map[string][]string `yaml:"availability"`
}

type Aircraft struct {
	Key        string    `yaml:"key"`
	ID         uuid.UUID `yaml:"id"`
	School     string    `yaml:"school"`
	TailNumber string    `yaml:"tail_number"`
	Model      string    `yaml:"model"`
}

// Flight is scheduled either at an absolute Start or StartIn after the load time.
type Flight struct {
	ID         uuid.UUID     `yaml:"id"`
	School     string        `yaml:"school"`
	Student    string        `yaml:"student"`
	Instructor string        `yaml:"instructor"`
	Aircraft   string        `yaml:"aircraft"`
	Start      time.Time     `yaml:"start"`
	StartIn    time.Duration `yaml:"start_in"`
	Duration   time.Duration `yaml:"duration"`
	Departure  string        `yaml:"departure_airport"`
}

// Parse decodes a fixture, rejecting unknown fields.
func Parse(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixture
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return &f, nil
		}
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	return &f, nil
}

// Store is what Load writes to.
type Store interface {
	store.DirectoryStore
	CreateFlight(ctx context.Context, tx store.Tx, flight *store.Flight) error
}

// Result counts what was written.
type Result struct {
	Schools     int
	Students    int
	Instructors int
	Aircraft    int
	Flights     int
}

type loader struct {
	schools     map[string]store.School
	students    map[string]uuid.UUID
	instructors map[string]uuid.UUID
	aircraft    map[string]uuid.UUID
}

func (l *loader) school(key string) (store.School, error) {
	s, ok := l.schools[key]
	if !ok {
		return store.School{}, fmt.Errorf("unknown school %q", key)
	}
	return s, nil
}

func lookup(kind string, m map[string]uuid.UUID, key string) (uuid.UUID, error) {
	id, ok := m[key]
	if !ok {
		return uuid.Nil, fmt.Errorf("unknown %s %q", kind, key)
	}
	return id, nil
}

func parseLevel(s string) (store.TrainingLevel, error) {
	level := store.TrainingLevel(strings.ToUpper(strings.TrimSpace(s)))
	switch level {
	case store.TrainingLevelEarlyStudent, store.TrainingLevelPrivatePilot, store.TrainingLevelInstrumentRated:
		return level, nil
	}
	return "", fmt.Errorf("unknown training level %q", s)
}

func idOr(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}

// Load writes the fixture in dependency order. Relative flight starts are measured from now.
func Load(ctx context.Context, s Store, f *Fixture, now time.Time) (Result, error) {
	var res Result
	l := &loader{
		schools:     make(map[string]store.School),
		students:    make(map[string]uuid.UUID),
		instructors: make(map[string]uuid.UUID),
		aircraft:    make(map[string]uuid.UUID),
	}

	for _, in := range f.Schools {
		if in.Key == "" || in.Airport == "" {
			return res, fmt.Errorf("school %q: key and airport are required", in.Name)
		}
		tz := in.Timezone
		if tz == "" {
			tz = "UTC"
		}
		if _, err := time.LoadLocation(tz); err != nil {
			return res, fmt.Errorf("school %s: %w", in.Key, err)
		}
		school := store.School{
			ID:              idOr(in.ID),
			Name:            in.Name,
			AirportCode:     strings.ToUpper(in.Airport),
			Timezone:        tz,
			WeatherProvider: strings.ToLower(in.WeatherProvider),
			CreatedAt:       now,
		}
		if err := s.CreateSchool(ctx, &school); err != nil {
			return res, fmt.Errorf("school %s: %w", in.Key, err)
		}
		l.schools[in.Key] = school
		res.Schools++
	}

	for _, in := range f.Students {
		school, err := l.school(in.School)
		if err != nil {
			return res, fmt.Errorf("student %s: %w", in.Key, err)
		}
		level, err := parseLevel(in.TrainingLevel)
		if err != nil {
			return res, fmt.Errorf("student %s: %w", in.Key, err)
		}
		student := store.Student{
			ID:            idOr(in.ID),
			SchoolID:      school.ID,
			Email:         in.Email,
			FirstName:     in.FirstName,
			LastName:      in.LastName,
			TrainingLevel: level,
			TotalHours:    in.TotalHours,
			Availability:  store.Availability(in.Availability),
			CreatedAt:     now,
		}
		if err := s.CreateStudent(ctx, &student); err != nil {
			return res, fmt.Errorf("student %s: %w", in.Key, err)
		}
		l.students[in.Key] = student.ID
		res.Students++
	}

	for _, in := range f.Instructors {
		school, err := l.school(in.School)
		if err != nil {
			return res, fmt.Errorf("instructor %s: %w", in.Key, err)
		}
		instructor := store.Instructor{
			ID:           idOr(in.ID),
			SchoolID:     school.ID,
			Email:        in.Email,
			FirstName:    in.FirstName,
			LastName:     in.LastName,
			Availability: store.Availability(in.Availability),
			CreatedAt:    now,
		}
		if err := s.CreateInstructor(ctx, &instructor); err != nil {
			return res, fmt.Errorf("instructor %s: %w", in.Key, err)
		}
		l.instructors[in.Key] = instructor.ID
		res.Instructors++
	}

	for _, in := range f.Aircraft {
		school, err := l.school(in.School)
		if err != nil {
			return res, fmt.Errorf("aircraft %s: %w", in.Key, err)
		}
		aircraft := store.Aircraft{
			ID:         idOr(in.ID),
			SchoolID:   school.ID,
			TailNumber: in.TailNumber,
			Model:      in.Model,
			Available:  true,
			CreatedAt:  now,
		}
		if err := s.CreateAircraft(ctx, &aircraft); err != nil {
			return res, fmt.Errorf("aircraft %s: %w", in.Key, err)
		}
		l.aircraft[in.Key] = aircraft.ID
		res.Aircraft++
	}

	for i, in := range f.Flights {
		flight, err := l.flight(in, now)
		if err != nil {
			return res, fmt.Errorf("flight %d: %w", i+1, err)
		}
		if err := s.CreateFlight(ctx, nil, flight); err != nil {
			return res, fmt.Errorf("flight %d: %w", i+1, err)
		}
		res.Flights++
	}

	return res, nil
}

func (l *loader) flight(in Flight, now time.Time) (*store.Flight, error) {
	school, err := l.school(in.School)
	if err != nil {
		return nil, err
	}
	studentID, err := lookup("student", l.students, in.Student)
	if err != nil {
		return nil, err
	}
	instructorID, err := lookup("instructor", l.instructors, in.Instructor)
	if err != nil {
		return nil, err
	}
	aircraftID, err := lookup("aircraft", l.aircraft, in.Aircraft)
	if err != nil {
		return nil, err
	}

	start := in.Start
	if start.IsZero() {
		if in.StartIn <= 0 {
			return nil, fmt.Errorf("start or start_in is required")
		}
		start = now.Add(in.StartIn).Truncate(time.Minute)
	}
	if in.Duration <= 0 {
		return nil, fmt.Errorf("duration must be positive")
	}
	departure := strings.ToUpper(in.Departure)
	if departure == "" {
		departure = school.AirportCode
	}

	return &store.Flight{
		ID:               idOr(in.ID),
		SchoolID:         school.ID,
		StudentID:        studentID,
		InstructorID:     instructorID,
		AircraftID:       aircraftID,
		ScheduledStart:   start.UTC(),
		ScheduledEnd:     start.Add(in.Duration).UTC(),
		DepartureAirport: departure,
		Status:           store.FlightStatusScheduled,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}
