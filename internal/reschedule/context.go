// Package reschedule builds generator input for a cancelled lesson, validates the
// generator's suggestions and drives a reschedule request through its lifecycle.
package reschedule

import (
	"strings"
	"time"

	"flightwx/internal/store"

	"github.com/google/uuid"
)

// AircraftAvailability is offered for every aircraft until fleet scheduling data exists.
var AircraftAvailability = []string{"Available during school hours"}

// Context is everything the suggestion generator is told about a cancelled lesson.
type Context struct {
	FlightID         uuid.UUID
	StudentName      string
	TrainingLevel    store.TrainingLevel
	TotalHours       float64
	InstructorName   string
	AircraftModel    string
	AircraftTail     string
	OriginalTime     time.Time
	Duration         time.Duration
	WeatherReason    string
	DepartureAirport string
	AirportCode      string
	Timezone         string

	StudentAvailability    []string
	InstructorAvailability []string
	AircraftAvailability   []string
}

// BuildContext assembles the generator context for a flight cancelled for the given reasons.
func BuildContext(d store.FlightDetails, reasons []string) Context {
	return Context{
		FlightID:               d.Flight.ID,
		StudentName:            d.Student.FullName(),
		TrainingLevel:          d.Student.TrainingLevel,
		TotalHours:             d.Student.TotalHours,
		InstructorName:         d.Instructor.FullName(),
		AircraftModel:          d.Aircraft.Model,
		AircraftTail:           d.Aircraft.TailNumber,
		OriginalTime:           d.Flight.ScheduledStart,
		Duration:               d.Flight.Duration(),
		WeatherReason:          WeatherReason(reasons),
		DepartureAirport:       d.Flight.DepartureAirport,
		AirportCode:            d.School.AirportCode,
		Timezone:               d.School.Timezone,
		StudentAvailability:    FormatAvailability(d.Student.Availability),
		InstructorAvailability: FormatAvailability(d.Instructor.Availability),
		AircraftAvailability:   append([]string(nil), AircraftAvailability...),
	}
}

// WeatherReason renders violation reasons as one cause string.
func WeatherReason(reasons []string) string {
	if len(reasons) == 0 {
		return "Weather conditions unsafe"
	}
	return "Weather conditions: " + strings.Join(reasons, ", ")
}

// FormatAvailability turns per-day intervals into "Monday 09:00-17:00" strings, Monday first.
// Days without intervals contribute nothing.
func FormatAvailability(a store.Availability) []string {
	out := []string{}
	for _, day := range store.Weekdays {
		for _, interval := range a[day] {
			interval = strings.TrimSpace(interval)
			if interval == "" {
				continue
			}
			out = append(out, strings.ToUpper(day[:1])+day[1:]+" "+interval)
		}
	}
	return out
}
