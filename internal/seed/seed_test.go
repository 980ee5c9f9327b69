package seed

import (
	"context"
	"strings"
	"testing"
	"time"

	"flightwx/internal/store"
	"flightwx/internal/store/memory"

	"github.com/google/uuid"
)

const fixture = `
schools:
  - key: austin
    id: 6f1c7a52-4b8e-4d0f-9a57-2f1f3d0c9b11
    name: Austin Flight Academy
    airport: kaus
    timezone: America/Chicago
    weather_provider: FAA
students:
  - key: sam
    school: austin
    email: sam@example.com
    first_name: Sam
    last_name: Rivera
    training_level: early_student
    total_hours: 12.5
    availability:
      monday: ["08:00-12:00"]
      wednesday: ["13:00-17:00"]
instructors:
  - key: jo
    school: austin
    email: jo@example.com
    first_name: Jo
    last_name: Park
    availability:
      monday: ["07:00-15:00"]
aircraft:
  - key: n123
    school: austin
    tail_number: N123AB
    model: Cessna 172
flights:
  - school: austin
    student: sam
    instructor: jo
    aircraft: n123
    start_in: 6h
    duration: 90m
  - school: austin
    student: sam
    instructor: jo
    aircraft: n123
    start: 2026-05-06T15:00:00Z
    duration: 1h
    departure_airport: ksat
`

func TestLoad(t *testing.T) {
	f, err := Parse(strings.NewReader(fixture))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	s := memory.New()
	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

	res, err := Load(context.Background(), s, f, now)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := Result{Schools: 1, Students: 1, Instructors: 1, Aircraft: 1, Flights: 2}
	if res != want {
		t.Errorf("got %+v, want %+v", res, want)
	}

	upcoming, err := s.ListUpcomingFlights(context.Background(), now, now.Add(7*24*time.Hour))
	if err != nil {
		t.Fatalf("ListUpcomingFlights failed: %v", err)
	}
	if len(upcoming) != 2 {
		t.Fatalf("got %d flights, want 2", len(upcoming))
	}

	first := upcoming[0]
	if got := first.Flight.ScheduledStart; !got.Equal(now.Add(6 * time.Hour)) {
		t.Errorf("got start %v, want %v", got, now.Add(6*time.Hour))
	}
	if got := first.Flight.Duration(); got != 90*time.Minute {
		t.Errorf("got duration %v, want 90m", got)
	}
	if first.Flight.DepartureAirport != "KAUS" {
		t.Errorf("got departure %q, want school airport KAUS", first.Flight.DepartureAirport)
	}
	if first.School.ID != uuid.MustParse("6f1c7a52-4b8e-4d0f-9a57-2f1f3d0c9b11") {
		t.Errorf("got school id %s, want the fixture id", first.School.ID)
	}
	if first.School.WeatherProvider != "faa" {
		t.Errorf("got provider %q, want faa", first.School.WeatherProvider)
	}
	if first.Student.TrainingLevel != store.TrainingLevelEarlyStudent {
		t.Errorf("got level %q, want EARLY_STUDENT", first.Student.TrainingLevel)
	}
	if got := first.Student.Availability["wednesday"]; len(got) != 1 || got[0] != "13:00-17:00" {
		t.Errorf("got wednesday availability %v", got)
	}
	if first.Flight.Status != store.FlightStatusScheduled {
		t.Errorf("got status %q, want SCHEDULED", first.Flight.Status)
	}

	if upcoming[1].Flight.DepartureAirport != "KSAT" {
		t.Errorf("got departure %q, want KSAT", upcoming[1].Flight.DepartureAirport)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name:    "unknown school",
			doc:     "students:\n  - key: sam\n    school: nowhere\n    training_level: PRIVATE_PILOT\n",
			wantErr: `unknown school "nowhere"`,
		},
		{
			name: "unknown level",
			doc: "schools:\n  - key: a\n    airport: KAUS\nstudents:\n  - key: sam\n    school: a\n    training_level: ATP\n",
			wantErr: `unknown training level "ATP"`,
		},
		{
			name:    "bad timezone",
			doc:     "schools:\n  - key: a\n    airport: KAUS\n    timezone: Mars/Olympus\n",
			wantErr: "school a",
		},
		{
			name: "flight without start",
			doc: "schools:\n  - key: a\n    airport: KAUS\nstudents:\n  - key: s\n    school: a\n    training_level: PRIVATE_PILOT\n" +
				"instructors:\n  - key: i\n    school: a\naircraft:\n  - key: p\n    school: a\n" +
				"flights:\n  - school: a\n    student: s\n    instructor: i\n    aircraft: p\n    duration: 1h\n",
			wantErr: "start or start_in is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse(strings.NewReader(tt.doc))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			_, err = Load(context.Background(), memory.New(), f, time.Now())
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got error %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestParse_UnknownField(t *testing.T) {
	if _, err := Parse(strings.NewReader("pilots:\n  - key: x\n")); err == nil {
		t.Error("expected error for unknown top-level field")
	}
}

func TestParse_Empty(t *testing.T) {
	f, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(f.Schools) != 0 {
		t.Errorf("expected an empty fixture, got %+v", f)
	}
}
