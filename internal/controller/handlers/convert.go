package handlers

import (
	"flightwx/internal/engine"
	"flightwx/internal/safety"
	"flightwx/internal/store"
	"flightwx/internal/weather"
	"flightwx/pkg/api"
)

func toAPIMinimums(m safety.Minimums) api.Minimums {
	return api.Minimums{Visibility: m.Visibility, Ceiling: m.Ceiling, MaxWind: m.MaxWind}
}

func toAPIReading(r weather.Reading) api.WeatherReading {
	return api.WeatherReading{
		Airport:    r.Airport,
		Visibility: r.Visibility,
		Ceiling:    r.Ceiling,
		WindSpeed:  r.WindSpeed,
		Conditions: r.Conditions,
		Provider:   r.Provider,
		FetchedAt:  r.FetchedAt,
	}
}

func toAPIVerdict(v safety.Verdict) api.SafetyVerdict {
	reasons := v.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	return api.SafetyVerdict{
		Safe:     v.Safe,
		Result:   string(v.Result()),
		Reasons:  reasons,
		Minimums: toAPIMinimums(v.Minimums),
	}
}

func toAPICheckResult(flightID string, res *engine.CheckResult) api.WeatherCheckResponse {
	return api.WeatherCheckResponse{
		CheckID:      res.CheckID.String(),
		FlightID:     flightID,
		FlightStatus: string(res.FlightStatus),
		Cancelled:    res.Cancelled,
		Reading:      toAPIReading(res.Reading),
		Verdict:      toAPIVerdict(res.Verdict),
	}
}

func toAPIBriefing(b *engine.Briefing) api.WeatherBriefingResponse {
	out := api.WeatherBriefingResponse{
		Flight:        toAPIFlight(&b.Flight.Flight),
		StudentName:   b.Flight.Student.FullName(),
		TrainingLevel: string(b.Flight.Student.TrainingLevel),
		Reading:       toAPIReading(b.Reading),
		Verdict:       toAPIVerdict(b.Verdict),
		History:       make([]api.WeatherCheck, 0, len(b.History)),
	}
	for i := range b.History {
		out.History = append(out.History, toAPIWeatherCheck(&b.History[i]))
	}
	return out
}

func toAPIWeatherCheck(c *store.WeatherCheck) api.WeatherCheck {
	reasons := c.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	return api.WeatherCheck{
		ID:            c.ID.String(),
		FlightID:      c.FlightID.String(),
		CheckTime:     c.CheckTime,
		Location:      c.Location,
		Visibility:    c.Visibility,
		Ceiling:       c.Ceiling,
		WindSpeed:     c.WindSpeed,
		Conditions:    c.Conditions,
		Result:        string(c.Result),
		Reasons:       reasons,
		Provider:      c.Provider,
		TrainingLevel: string(c.TrainingLevel),
		Minimums: api.Minimums{
			Visibility: c.RequiredVisibility,
			Ceiling:    c.RequiredCeiling,
			MaxWind:    c.MaxWindSpeed,
		},
	}
}

func toAPIRequest(r *store.RescheduleRequest) api.RescheduleRequest {
	out := api.RescheduleRequest{
		ID:                    r.ID.String(),
		FlightID:              r.FlightID.String(),
		StudentID:             r.StudentID.String(),
		Status:                string(r.Status),
		Suggestions:           make([]api.Candidate, 0, len(r.Suggestions)),
		SelectedOption:        r.SelectedOption,
		StudentConfirmedAt:    r.StudentConfirmedAt,
		InstructorConfirmedAt: r.InstructorConfirmedAt,
		ExpiresAt:             r.ExpiresAt,
		CreatedAt:             r.CreatedAt,
	}
	for _, c := range r.Suggestions {
		out.Suggestions = append(out.Suggestions, api.Candidate{
			Slot:                c.Slot,
			Priority:            c.Priority,
			Reasoning:           c.Reasoning,
			WeatherForecast:     c.WeatherForecast,
			Confidence:          string(c.Confidence),
			InstructorAvailable: c.InstructorAvailable,
			AircraftAvailable:   c.AircraftAvailable,
		})
	}
	if r.NewFlightID != nil {
		id := r.NewFlightID.String()
		out.NewFlightID = &id
	}
	return out
}

func toAPIFlight(f *store.Flight) api.Flight {
	return api.Flight{
		ID:               f.ID.String(),
		SchoolID:         f.SchoolID.String(),
		StudentID:        f.StudentID.String(),
		InstructorID:     f.InstructorID.String(),
		AircraftID:       f.AircraftID.String(),
		ScheduledStart:   f.ScheduledStart,
		ScheduledEnd:     f.ScheduledEnd,
		DepartureAirport: f.DepartureAirport,
		Status:           string(f.Status),
	}
}
