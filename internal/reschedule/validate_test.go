package reschedule

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"flightwx/internal/errs"
	"flightwx/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func suggestion(slot string, priority any) map[string]any {
	return map[string]any{
		"slot":                slot,
		"priority":            priority,
		"reasoning":           "Closest morning slot with both parties free.",
		"weatherForecast":     "Clear skies, winds 6kt",
		"confidence":          "high",
		"instructorAvailable": true,
		"aircraftAvailable":   true,
	}
}

func validSuggestions() []map[string]any {
	return []map[string]any{
		suggestion("2026-05-06T09:00:00-05:00", 1),
		suggestion("2026-05-07T14:00:00Z", 2),
		suggestion("2026-05-08T10:30", 3),
	}
}

func encode(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestValidate_Envelope(t *testing.T) {
	got, err := Validate(encode(t, map[string]any{"suggestions": validSuggestions()}))
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, time.Date(2026, 5, 6, 14, 0, 0, 0, time.UTC), got[0].Slot)
	assert.Equal(t, time.Date(2026, 5, 8, 10, 30, 0, 0, time.UTC), got[2].Slot)
	assert.Equal(t, []int{1, 2, 3}, []int{got[0].Priority, got[1].Priority, got[2].Priority})
	assert.Equal(t, store.ConfidenceHigh, got[1].Confidence)
	assert.True(t, got[1].InstructorAvailable)
}

func TestValidate_BareArray(t *testing.T) {
	got, err := Validate(encode(t, validSuggestions()))
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestValidate_KeepsGeneratorOrder(t *testing.T) {
	s := validSuggestions()
	s[0]["priority"], s[2]["priority"] = 3, 1

	got, err := Validate(encode(t, s))
	require.NoError(t, err)
	assert.Equal(t, 3, got[0].Priority)
	assert.Equal(t, 1, got[2].Priority)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s []map[string]any) any
		field  string
	}{
		{"two entries", func(s []map[string]any) any { return s[:2] }, "suggestions"},
		{"four entries", func(s []map[string]any) any { return append(s, suggestion("2026-05-09T09:00:00Z", 1)) }, "suggestions"},
		{"missing envelope key", func(s []map[string]any) any { return map[string]any{"options": s} }, "suggestions"},
		{"priority zero", func(s []map[string]any) any { s[0]["priority"] = 0; return s }, "suggestions[0].priority"},
		{"priority four", func(s []map[string]any) any { s[1]["priority"] = 4; return s }, "suggestions[1].priority"},
		{"fractional priority", func(s []map[string]any) any { s[1]["priority"] = 1.5; return s }, "suggestions[1].priority"},
		{"string priority", func(s []map[string]any) any { s[2]["priority"] = "3"; return s }, "suggestions[2].priority"},
		{"duplicate priority", func(s []map[string]any) any { s[2]["priority"] = 1; return s }, "suggestions[2].priority"},
		{"bad slot", func(s []map[string]any) any { s[0]["slot"] = "next tuesday"; return s }, "suggestions[0].slot"},
		{"missing slot", func(s []map[string]any) any { delete(s[0], "slot"); return s }, "suggestions[0].slot"},
		{"empty reasoning", func(s []map[string]any) any { s[1]["reasoning"] = "  "; return s }, "suggestions[1].reasoning"},
		{"missing forecast", func(s []map[string]any) any { delete(s[1], "weatherForecast"); return s }, "suggestions[1].weatherForecast"},
		{"bad confidence", func(s []map[string]any) any { s[0]["confidence"] = "certain"; return s }, "suggestions[0].confidence"},
		{"missing instructor flag", func(s []map[string]any) any { delete(s[0], "instructorAvailable"); return s }, "suggestions[0].instructorAvailable"},
		{"non-boolean aircraft flag", func(s []map[string]any) any { s[2]["aircraftAvailable"] = "yes"; return s }, "suggestions[2].aircraftAvailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(encode(t, tt.mutate(validSuggestions())))
			require.Error(t, err)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, errs.KindValidation, errs.KindOf(err))
		})
	}
}

func TestValidate_Malformed(t *testing.T) {
	for _, raw := range []string{"", "   ", "{not json", "[1, 2, 3]", `"suggestions"`} {
		_, err := Validate([]byte(raw))
		assert.Error(t, err, "input %q", raw)
		assert.Equal(t, errs.KindValidation, errs.KindOf(err), "input %q", raw)
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Field: "suggestions[0].slot", Problem: "missing"}
	assert.Equal(t, "invalid suggestions: suggestions[0].slot: missing", err.Error())
	assert.True(t, strings.HasPrefix((&ValidationError{Problem: "x"}).Error(), "invalid suggestions: x"))
}
