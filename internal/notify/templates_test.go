package notify

import (
	"strings"
	"testing"
	"time"

	"flightwx/internal/store"

	"github.com/google/uuid"
)

func sampleDetails() store.FlightDetails {
	start := time.Date(2026, 5, 4, 15, 0, 0, 0, time.UTC)
	return store.FlightDetails{
		Flight: store.Flight{
			ID:               uuid.New(),
			ScheduledStart:   start,
			ScheduledEnd:     start.Add(time.Hour),
			DepartureAirport: "KAUS",
		},
		School:     store.School{Timezone: "America/Chicago"},
		Student:    store.Student{FirstName: "Sam", LastName: "Rivera", Email: "sam@example.com"},
		Instructor: store.Instructor{FirstName: "Jo", LastName: "Park", Email: "jo@example.com"},
		Aircraft:   store.Aircraft{Model: "Cessna 172", TailNumber: "N172SP"},
	}
}

func sampleRequest() *store.RescheduleRequest {
	selected := 1
	return &store.RescheduleRequest{
		ID: uuid.MustParse("7f8b1c2e-0000-4000-8000-000000000001"),
		Suggestions: store.Candidates{
			{Slot: time.Date(2026, 5, 6, 14, 0, 0, 0, time.UTC), Priority: 1, Reasoning: "Soonest", WeatherForecast: "Clear", Confidence: store.ConfidenceHigh},
			{Slot: time.Date(2026, 5, 7, 16, 0, 0, 0, time.UTC), Priority: 2, Reasoning: "Calm <winds>", WeatherForecast: "Few clouds", Confidence: store.ConfidenceMedium},
			{Slot: time.Date(2026, 5, 8, 14, 0, 0, 0, time.UTC), Priority: 3, Reasoning: "Fallback", WeatherForecast: "Scattered", Confidence: store.ConfidenceLow},
		},
		SelectedOption: &selected,
		ExpiresAt:      time.Date(2026, 5, 6, 12, 0, 0, 0, time.UTC),
	}
}

func TestComposer_Cancellation(t *testing.T) {
	msg, err := NewComposer("https://wx.example.com").Cancellation(sampleDetails(), []string{"Visibility 2SM below 3SM minimum"})
	if err != nil {
		t.Fatalf("Cancellation failed: %v", err)
	}

	if len(msg.To) != 1 || msg.To[0] != "sam@example.com" {
		t.Errorf("got recipients %v, want [sam@example.com]", msg.To)
	}
	if msg.Subject != "Flight Cancelled - Weather Conditions Unsafe" {
		t.Errorf("got subject %q", msg.Subject)
	}
	for _, want := range []string{
		"Hi Sam,",
		"- Date & Time: Monday, May 4, 2026 at 10:00 AM CDT",
		"- Aircraft: Cessna 172 (N172SP)",
		"- Visibility 2SM below 3SM minimum",
	} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("text body missing %q:\n%s", want, msg.Text)
		}
	}
	if !strings.Contains(msg.HTML, "<li>Visibility 2SM below 3SM minimum</li>") {
		t.Errorf("html body missing reason:\n%s", msg.HTML)
	}
}

func TestComposer_Options(t *testing.T) {
	req := sampleRequest()
	msg, err := NewComposer("https://wx.example.com/").Options(sampleDetails(), req)
	if err != nil {
		t.Fatalf("Options failed: %v", err)
	}

	link := "https://wx.example.com/reschedule/" + req.ID.String()
	for _, want := range []string{
		"OPTION 1 - PRIORITY 1 (HIGH CONFIDENCE)",
		"OPTION 3 - PRIORITY 3 (LOW CONFIDENCE)",
		"Wednesday, May 6, 2026 at 9:00 AM CDT",
		"Select your preferred time: " + link,
		"Please respond by Wednesday, May 6, 2026 at 7:00 AM CDT.",
	} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("text body missing %q:\n%s", want, msg.Text)
		}
	}
	if !strings.Contains(msg.HTML, `href="`+link+`"`) {
		t.Errorf("html body missing link:\n%s", msg.HTML)
	}
	if !strings.Contains(msg.HTML, "Calm &lt;winds&gt;") {
		t.Errorf("html body should escape generator text:\n%s", msg.HTML)
	}
}

func TestComposer_ApprovalRequest(t *testing.T) {
	req := sampleRequest()
	msg, err := NewComposer("https://wx.example.com").ApprovalRequest(sampleDetails(), req)
	if err != nil {
		t.Fatalf("ApprovalRequest failed: %v", err)
	}

	if len(msg.To) != 1 || msg.To[0] != "jo@example.com" {
		t.Errorf("got recipients %v, want the instructor", msg.To)
	}
	if !strings.Contains(msg.Text, "Sam Rivera has selected: Thursday, May 7, 2026 at 11:00 AM CDT") {
		t.Errorf("text body missing selection:\n%s", msg.Text)
	}
	if !strings.Contains(msg.Text, "Approve at: https://wx.example.com/approve/"+req.ID.String()) {
		t.Errorf("text body missing approval link:\n%s", msg.Text)
	}
}

func TestComposer_RejectionAndConfirmations(t *testing.T) {
	c := NewComposer("https://wx.example.com")
	d := sampleDetails()

	rejection, err := c.Rejection(d)
	if err != nil {
		t.Fatalf("Rejection failed: %v", err)
	}
	if rejection.Subject != "Reschedule Time Not Available" {
		t.Errorf("got subject %q", rejection.Subject)
	}

	replacement := d.Flight
	replacement.ScheduledStart = time.Date(2026, 5, 8, 14, 0, 0, 0, time.UTC)

	msgs, err := c.Confirmations(d, replacement)
	if err != nil {
		t.Fatalf("Confirmations failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d confirmations, want 2", len(msgs))
	}
	if msgs[0].To[0] != "sam@example.com" || msgs[1].To[0] != "jo@example.com" {
		t.Errorf("got recipients %v and %v", msgs[0].To, msgs[1].To)
	}
	if !strings.Contains(msgs[1].Text, "Hi Jo,") || !strings.Contains(msgs[1].Text, "Friday, May 8, 2026 at 9:00 AM CDT") {
		t.Errorf("instructor confirmation body:\n%s", msgs[1].Text)
	}
}

func TestComposer_MissingEmail(t *testing.T) {
	d := sampleDetails()
	d.Student.Email = " "

	msg, err := NewComposer("").Rejection(d)
	if err != nil {
		t.Fatalf("Rejection failed: %v", err)
	}
	if len(msg.To) != 0 {
		t.Errorf("got recipients %v, want none", msg.To)
	}
}
