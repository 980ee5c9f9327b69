package reschedule

import (
	"strings"
	"text/template"
	"time"
	_ "time/tzdata"
)

const systemPrompt = `You are an expert flight scheduling assistant for a flight training school. ` +
	`You reply with a single JSON object of the form {"suggestions": [...]} and nothing else.`

var promptTemplate = template.Must(template.New("prompt").Parse(`A flight lesson has been cancelled due to unsafe weather conditions, and you need to suggest exactly 3 optimal reschedule times.

CANCELLED FLIGHT DETAILS:
- Student: {{.StudentName}} ({{.TrainingLevel}}, {{.TotalHours}} total hours)
- Instructor: {{.InstructorName}}
- Aircraft: {{.AircraftModel}} ({{.AircraftTail}})
- Original Time: {{.OriginalTime}}
- Lesson Length: {{.Duration}}
- Departure Airport: {{.DepartureAirport}} ({{.AirportCode}})
- Weather Reason: {{.WeatherReason}}
- School Timezone: {{.Timezone}}

AVAILABILITY CONSTRAINTS:
Student Available:
{{- range .StudentAvailability}}
  - {{.}}
{{- else}}
  - No availability on file
{{- end}}

Instructor Available:
{{- range .InstructorAvailability}}
  - {{.}}
{{- else}}
  - No availability on file
{{- end}}

Aircraft Available:
{{- range .AircraftAvailability}}
  - {{.}}
{{- end}}

REQUIREMENTS:
1. Generate exactly 3 reschedule options
2. Prioritize options that:
   - Minimize delay from original flight time
   - Match the student's training level requirements
   - Have favorable weather forecasts
   - Use the same instructor and aircraft when possible
3. Each option must:
   - Be within the next 14 days
   - Fall within ALL availability windows (student, instructor, AND aircraft)
   - Include a realistic weather forecast based on typical conditions for the time/date
   - Have a clear reasoning explanation
   - Be assigned a unique priority (1 = best, 2 = good, 3 = acceptable)
   - Include a confidence level (high/medium/low)

OUTPUT FORMAT:
Return {"suggestions": [...]} with exactly 3 entries ordered by priority. Each entry has:
- slot: ISO 8601 datetime string with offset
- priority: 1, 2, or 3
- reasoning: 2-3 sentence explanation
- weatherForecast: brief forecast (e.g. "Clear skies, winds 8kt")
- confidence: "high", "medium", or "low"
- instructorAvailable: true/false
- aircraftAvailable: true/false

Consider that {{.TrainingLevel}} pilots have specific weather minimums.`))

type promptData struct {
	Context
	OriginalTime string
	Duration     string
}

// RenderPrompt renders the user prompt for a context. The original time is shown in
// the school's timezone when it is known.
func RenderPrompt(c Context) (string, error) {
	original := c.OriginalTime
	if loc, err := time.LoadLocation(c.Timezone); err == nil && c.Timezone != "" {
		original = original.In(loc)
	}

	var b strings.Builder
	err := promptTemplate.Execute(&b, promptData{
		Context:      c,
		OriginalTime: original.Format("Monday, January 2, 2006 at 3:04 PM MST"),
		Duration:     c.Duration.String(),
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}
