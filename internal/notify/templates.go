package notify

import (
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"
	_ "time/tzdata"

	"flightwx/internal/store"
)

const timeLayout = "Monday, January 2, 2006 at 3:04 PM MST"

const htmlStyle = `body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
    .container { max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background: #0284c7; color: white; padding: 20px; text-align: center; }
    .box { background: #f8fafc; border-left: 4px solid #0284c7; padding: 15px; margin: 20px 0; }
    .button { background: #0284c7; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block; }`

// notice pairs render one notice as HTML and plain text from the same data.
type notice struct {
	subject string
	html    *htmltemplate.Template
	text    *texttemplate.Template
}

func newNotice(name, subject, html, text string) notice {
	return notice{
		subject: subject,
		html:    htmltemplate.Must(htmltemplate.New(name).Parse(`<!DOCTYPE html><html><head><style>` + htmlStyle + `</style></head><body><div class="container">` + html + `</div></body></html>`)),
		text:    texttemplate.Must(texttemplate.New(name).Parse(text)),
	}
}

func (t notice) render(to []string, data any) (Message, error) {
	var h, x strings.Builder
	if err := t.html.Execute(&h, data); err != nil {
		return Message{}, err
	}
	if err := t.text.Execute(&x, data); err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: t.subject, HTML: h.String(), Text: strings.TrimSpace(x.String()) + "\n"}, nil
}

var cancellationTmpl = newNotice("cancellation", "Flight Cancelled - Weather Conditions Unsafe", `
<div class="header"><h1>Flight Cancelled - Weather</h1></div>
<p>Hi {{.Name}},</p>
<p>Your scheduled flight has been cancelled due to unsafe weather conditions.</p>
<div class="box">
  <strong>Flight Details:</strong><br/>
  Date &amp; Time: {{.Flight.When}}<br/>
  Instructor: {{.Flight.Instructor}}<br/>
  Aircraft: {{.Flight.Aircraft}}<br/>
  Departure: {{.Flight.Airport}}
</div>
<p><strong>Weather Conditions:</strong></p>
<ul>{{range .Reasons}}<li>{{.}}</li>{{end}}</ul>
<p>Reschedule options are being prepared. You will receive another email with 3 suggested times.</p>
`, `
Flight Cancelled - Weather Conditions Unsafe

Hi {{.Name}},

Your scheduled flight has been cancelled due to unsafe weather conditions.

Flight Details:
- Date & Time: {{.Flight.When}}
- Instructor: {{.Flight.Instructor}}
- Aircraft: {{.Flight.Aircraft}}
- Departure: {{.Flight.Airport}}

Weather Conditions:
{{range .Reasons}}- {{.}}
{{end}}
Reschedule options are being prepared. You will receive another email with 3 suggested times.
`)

var optionsTmpl = newNotice("options", "3 Reschedule Options Available", `
<div class="header"><h1>Reschedule Options Ready</h1></div>
<p>Hi {{.Name}},</p>
<p>Here are the best times to make up your cancelled flight from {{.Flight.When}}:</p>
{{range .Options}}<div class="box">
  <strong>Option {{.Number}} - Priority {{.Priority}}</strong> ({{.Confidence}} confidence)<br/>
  <strong>{{.When}}</strong><br/>
  <strong>Why this works:</strong> {{.Reasoning}}<br/>
  <strong>Weather Forecast:</strong> {{.Forecast}}
</div>
{{end}}<p><a class="button" href="{{.Link}}">Select Your Preferred Time</a></p>
<p><strong>Please respond by {{.RespondBy}}.</strong> These options expire after that.</p>
<p>Once you select an option it is sent to your instructor for final confirmation.</p>
`, `
Reschedule Options Ready

Hi {{.Name}},

Here are the best times to make up your cancelled flight from {{.Flight.When}}:
{{range .Options}}
OPTION {{.Number}} - PRIORITY {{.Priority}} ({{.Confidence}} CONFIDENCE)
{{.When}}
Why this works: {{.Reasoning}}
Weather Forecast: {{.Forecast}}
{{end}}
Select your preferred time: {{.Link}}

Please respond by {{.RespondBy}}.
`)

var approvalTmpl = newNotice("approval", "Flight Reschedule - Awaiting Your Approval", `
<div class="header"><h1>Student Selected Reschedule Time</h1></div>
<p>{{.Flight.Student}} has selected a new time for their cancelled flight.</p>
<div class="box">
  <strong>Selected Time:</strong><br/>
  {{.Selected.When}}<br/><br/>
  <strong>Reason:</strong> {{.Selected.Reasoning}}
</div>
<p><a class="button" href="{{.Link}}">Approve This Time</a></p>
`, `
Student Selected Reschedule Time

{{.Flight.Student}} has selected: {{.Selected.When}}
Reason: {{.Selected.Reasoning}}

Approve at: {{.Link}}
`)

var rejectionTmpl = newNotice("rejection", "Reschedule Time Not Available", `
<p>Hi {{.Name}},</p>
<p>Unfortunately, your selected time is no longer available. New options will be sent for your flight from {{.Flight.When}}.</p>
`, `
Hi {{.Name}},

Your selected time is no longer available. New options will be sent for your flight from {{.Flight.When}}.
`)

var confirmationTmpl = newNotice("confirmation", "Flight Rescheduled Successfully", `
<div class="header"><h1>Flight Confirmed</h1></div>
<p>Hi {{.Name}},</p>
<p>Your flight has been successfully rescheduled.</p>
<div class="box">
  <strong>New Flight Details:</strong><br/>
  {{.Flight.When}}<br/>
  Instructor: {{.Flight.Instructor}}<br/>
  Student: {{.Flight.Student}}<br/>
  Aircraft: {{.Flight.Aircraft}}<br/>
  Departure: {{.Flight.Airport}}
</div>
<p>We will keep monitoring weather conditions and notify you of any changes.</p>
`, `
Flight Rescheduled Successfully

Hi {{.Name}},

Your flight has been successfully rescheduled.

New Flight Details:
- {{.Flight.When}}
- Instructor: {{.Flight.Instructor}}
- Student: {{.Flight.Student}}
- Aircraft: {{.Flight.Aircraft}}
- Departure: {{.Flight.Airport}}
`)

type flightView struct {
	When       string
	Student    string
	Instructor string
	Aircraft   string
	Airport    string
}

type optionView struct {
	Number     int
	Priority   int
	Confidence string
	When       string
	Reasoning  string
	Forecast   string
}

type noticeData struct {
	Name      string
	Flight    flightView
	Reasons   []string
	Options   []optionView
	Selected  optionView
	Link      string
	RespondBy string
}

// Composer builds notices for a school's flights. Times are shown in the school's
// timezone and links point at baseURL.
type Composer struct {
	baseURL string
}

func NewComposer(baseURL string) *Composer {
	return &Composer{baseURL: strings.TrimRight(baseURL, "/")}
}

func localTime(t time.Time, tz string) string {
	if tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			t = t.In(loc)
		}
	}
	return t.Format(timeLayout)
}

func recipients(addrs ...string) []string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

func viewOf(d store.FlightDetails, f store.Flight) flightView {
	return flightView{
		When:       localTime(f.ScheduledStart, d.School.Timezone),
		Student:    d.Student.FullName(),
		Instructor: d.Instructor.FullName(),
		Aircraft:   d.Aircraft.Label(),
		Airport:    f.DepartureAirport,
	}
}

func optionOf(i int, c store.Candidate, tz string) optionView {
	return optionView{
		Number:     i + 1,
		Priority:   c.Priority,
		Confidence: strings.ToUpper(string(c.Confidence)),
		When:       localTime(c.Slot, tz),
		Reasoning:  c.Reasoning,
		Forecast:   c.WeatherForecast,
	}
}

// Cancellation tells the student their flight was cancelled and why.
func (c *Composer) Cancellation(d store.FlightDetails, reasons []string) (Message, error) {
	return cancellationTmpl.render(recipients(d.Student.Email), noticeData{
		Name:    d.Student.FirstName,
		Flight:  viewOf(d, d.Flight),
		Reasons: reasons,
	})
}

// Options sends the student the candidates of a new request.
func (c *Composer) Options(d store.FlightDetails, req *store.RescheduleRequest) (Message, error) {
	options := make([]optionView, 0, len(req.Suggestions))
	for i, s := range req.Suggestions {
		options = append(options, optionOf(i, s, d.School.Timezone))
	}
	return optionsTmpl.render(recipients(d.Student.Email), noticeData{
		Name:      d.Student.FirstName,
		Flight:    viewOf(d, d.Flight),
		Options:   options,
		Link:      c.baseURL + "/reschedule/" + req.ID.String(),
		RespondBy: localTime(req.ExpiresAt, d.School.Timezone),
	})
}

// ApprovalRequest asks the instructor to confirm the student's selection.
func (c *Composer) ApprovalRequest(d store.FlightDetails, req *store.RescheduleRequest) (Message, error) {
	selected, _ := req.Selected()
	idx := 0
	if req.SelectedOption != nil {
		idx = *req.SelectedOption
	}
	return approvalTmpl.render(recipients(d.Instructor.Email), noticeData{
		Name:     d.Instructor.FirstName,
		Flight:   viewOf(d, d.Flight),
		Selected: optionOf(idx, selected, d.School.Timezone),
		Link:     c.baseURL + "/approve/" + req.ID.String(),
	})
}

// Rejection tells the student the instructor declined the selected time.
func (c *Composer) Rejection(d store.FlightDetails) (Message, error) {
	return rejectionTmpl.render(recipients(d.Student.Email), noticeData{
		Name:   d.Student.FirstName,
		Flight: viewOf(d, d.Flight),
	})
}

// Confirmations returns one confirmation for the student and one for the instructor.
func (c *Composer) Confirmations(d store.FlightDetails, replacement store.Flight) ([]Message, error) {
	view := viewOf(d, replacement)
	people := []struct {
		name, email string
	}{
		{d.Student.FirstName, d.Student.Email},
		{d.Instructor.FirstName, d.Instructor.Email},
	}

	out := make([]Message, 0, len(people))
	for _, p := range people {
		msg, err := confirmationTmpl.render(recipients(p.email), noticeData{Name: p.name, Flight: view})
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, nil
}
