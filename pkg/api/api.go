// Package api contains shared JSON request/response structs.
// This package is shared between the CLI and Controller.
package api

import "time"

// ErrorResponse is the body of every non-2xx response other than /readyz.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Kind  string `json:"kind,omitempty"`
}

// ReadinessResponse reports each dependency the controller needs to serve traffic.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// WeatherReading is a normalized observation.
type WeatherReading struct {
	Airport    string    `json:"airport"`
	Visibility float64   `json:"visibility_sm"`
	Ceiling    *int      `json:"ceiling_ft,omitempty"` // omitted when unlimited
	WindSpeed  int       `json:"wind_speed_kt"`
	Conditions string    `json:"conditions"`
	Provider   string    `json:"provider"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// Minimums are the limits applied for a training level.
type Minimums struct {
	Visibility float64 `json:"visibility_sm"`
	Ceiling    int     `json:"ceiling_ft"`
	MaxWind    int     `json:"max_wind_kt"`
}

// SafetyVerdict is the result of evaluating a reading.
type SafetyVerdict struct {
	Safe     bool     `json:"safe"`
	Result   string   `json:"result"`
	Reasons  []string `json:"reasons"`
	Minimums Minimums `json:"minimums"`
}

// WeatherCheckResponse is returned by POST /flights/{id}/weather-check.
type WeatherCheckResponse struct {
	CheckID      string         `json:"check_id"`
	FlightID     string         `json:"flight_id"`
	FlightStatus string         `json:"flight_status"`
	Cancelled    bool           `json:"cancelled"`
	Reading      WeatherReading `json:"reading"`
	Verdict      SafetyVerdict  `json:"verdict"`
}

// WeatherBriefingResponse is returned by GET /flights/{id}/weather-briefing.
// Nothing in it is persisted; History lists recorded checks, newest first.
type WeatherBriefingResponse struct {
	Flight        Flight         `json:"flight"`
	StudentName   string         `json:"student_name"`
	TrainingLevel string         `json:"training_level"`
	Reading       WeatherReading `json:"reading"`
	Verdict       SafetyVerdict  `json:"verdict"`
	History       []WeatherCheck `json:"history"`
}

// WeatherCheck is a stored check.
type WeatherCheck struct {
	ID            string    `json:"id"`
	FlightID      string    `json:"flight_id"`
	CheckTime     time.Time `json:"check_time"`
	Location      string    `json:"location"`
	Visibility    float64   `json:"visibility_sm"`
	Ceiling       *int      `json:"ceiling_ft,omitempty"`
	WindSpeed     int       `json:"wind_speed_kt"`
	Conditions    string    `json:"conditions"`
	Result        string    `json:"result"`
	Reasons       []string  `json:"reasons"`
	Provider      string    `json:"provider"`
	TrainingLevel string    `json:"training_level"`
	Minimums      Minimums  `json:"minimums"`
}

// Candidate is one proposed reschedule slot.
type Candidate struct {
	Slot                time.Time `json:"slot"`
	Priority            int       `json:"priority"`
	Reasoning           string    `json:"reasoning"`
	WeatherForecast     string    `json:"weather_forecast"`
	Confidence          string    `json:"confidence"`
	InstructorAvailable bool      `json:"instructor_available"`
	AircraftAvailable   bool      `json:"aircraft_available"`
}

// RescheduleRequest represents a reschedule request in API responses.
type RescheduleRequest struct {
	ID                    string      `json:"id"`
	FlightID              string      `json:"flight_id"`
	StudentID             string      `json:"student_id"`
	Status                string      `json:"status"`
	Suggestions           []Candidate `json:"suggestions"`
	SelectedOption        *int        `json:"selected_option,omitempty"`
	StudentConfirmedAt    *time.Time  `json:"student_confirmed_at,omitempty"`
	InstructorConfirmedAt *time.Time  `json:"instructor_confirmed_at,omitempty"`
	NewFlightID           *string     `json:"new_flight_id,omitempty"`
	ExpiresAt             time.Time   `json:"expires_at"`
	CreatedAt             time.Time   `json:"created_at"`
}

// SelectOptionRequest is the body of POST /reschedule-requests/{id}/select.
type SelectOptionRequest struct {
	// Option is the 0-based index of the chosen candidate.
	Option *int `json:"option"`
}

// ApproveRequest is the body of POST /reschedule-requests/{id}/approve.
type ApproveRequest struct {
	Approved *bool `json:"approved"`
}

// Flight represents a flight in API responses.
type Flight struct {
	ID               string    `json:"id"`
	SchoolID         string    `json:"school_id"`
	StudentID        string    `json:"student_id"`
	InstructorID     string    `json:"instructor_id"`
	AircraftID       string    `json:"aircraft_id"`
	ScheduledStart   time.Time `json:"scheduled_start"`
	ScheduledEnd     time.Time `json:"scheduled_end"`
	DepartureAirport string    `json:"departure_airport"`
	Status           string    `json:"status"`
}

// ApproveResponse is returned after an instructor decision.
type ApproveResponse struct {
	Request   RescheduleRequest `json:"request"`
	NewFlight *Flight           `json:"new_flight,omitempty"`
}

// SweepResponse summarizes a sweep run on demand.
type SweepResponse struct {
	Flights    int   `json:"flights"`
	Checked    int   `json:"checked"`
	Cancelled  int   `json:"cancelled"`
	Requests   int   `json:"requests"`
	Failures   int   `json:"failures"`
	Expired    int64 `json:"expired"`
	DurationMS int64 `json:"duration_ms"`
}
