package reschedule

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"flightwx/internal/errs"
	"flightwx/internal/store"
)

// CandidateCount is the number of suggestions every request carries.
const CandidateCount = 3

// ValidationError reports generator output that does not satisfy the suggestion contract.
type ValidationError struct {
	Field   string
	Problem string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid suggestions: " + e.Problem
	}
	return fmt.Sprintf("invalid suggestions: %s: %s", e.Field, e.Problem)
}

func (e *ValidationError) ErrorKind() errs.Kind { return errs.KindValidation }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Problem: fmt.Sprintf(format, args...)}
}

// rawCandidate keeps every field optional so absence is distinguishable from a zero value.
type rawCandidate struct {
	Slot                *string         `json:"slot"`
	Priority            json.RawMessage `json:"priority"`
	Reasoning           *string         `json:"reasoning"`
	WeatherForecast     *string         `json:"weatherForecast"`
	Confidence          *string         `json:"confidence"`
	InstructorAvailable *bool           `json:"instructorAvailable"`
	AircraftAvailable   *bool           `json:"aircraftAvailable"`
}

// slotLayouts are the accepted ISO-8601 forms. Layouts without an offset are read as UTC.
var slotLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// Validate decodes generator output into exactly three candidates. It accepts either
// {"suggestions": [...]} or a bare array. Priorities must be 1, 2 and 3, each used once.
func Validate(raw []byte) ([]store.Candidate, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, invalid("", "empty generator output")
	}

	var entries []json.RawMessage
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, invalid("", "malformed JSON: %v", err)
		}
	} else {
		var envelope struct {
			Suggestions *[]json.RawMessage `json:"suggestions"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, invalid("suggestions", "malformed JSON: %v", err)
		}
		if envelope.Suggestions == nil {
			return nil, invalid("suggestions", "missing")
		}
		entries = *envelope.Suggestions
	}

	if len(entries) != CandidateCount {
		return nil, invalid("suggestions", "expected exactly %d entries, got %d", CandidateCount, len(entries))
	}

	candidates := make([]store.Candidate, 0, CandidateCount)
	seen := map[int]bool{}
	for i, entry := range entries {
		c, err := validateCandidate(fmt.Sprintf("suggestions[%d]", i), entry)
		if err != nil {
			return nil, err
		}
		if seen[c.Priority] {
			return nil, invalid(fmt.Sprintf("suggestions[%d].priority", i), "duplicate priority %d", c.Priority)
		}
		seen[c.Priority] = true
		candidates = append(candidates, c)
	}

	return candidates, nil
}

func validateCandidate(path string, entry json.RawMessage) (store.Candidate, error) {
	var rc rawCandidate
	if err := json.Unmarshal(entry, &rc); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return store.Candidate{}, invalid(path+"."+typeErr.Field, "expected %s, got %s", typeErr.Type, typeErr.Value)
		}
		return store.Candidate{}, invalid(path, "not an object: %v", err)
	}

	var c store.Candidate

	if rc.Slot == nil {
		return c, invalid(path+".slot", "missing")
	}
	slot, err := parseSlot(*rc.Slot)
	if err != nil {
		return c, invalid(path+".slot", "%q is not an ISO-8601 datetime", *rc.Slot)
	}
	c.Slot = slot

	priority, err := parsePriority(rc.Priority)
	if err != nil {
		return c, invalid(path+".priority", "%v", err)
	}
	c.Priority = priority

	if rc.Reasoning == nil || strings.TrimSpace(*rc.Reasoning) == "" {
		return c, invalid(path+".reasoning", "must be non-empty")
	}
	c.Reasoning = strings.TrimSpace(*rc.Reasoning)

	if rc.WeatherForecast == nil || strings.TrimSpace(*rc.WeatherForecast) == "" {
		return c, invalid(path+".weatherForecast", "must be non-empty")
	}
	c.WeatherForecast = strings.TrimSpace(*rc.WeatherForecast)

	if rc.Confidence == nil {
		return c, invalid(path+".confidence", "missing")
	}
	switch conf := store.Confidence(*rc.Confidence); conf {
	case store.ConfidenceHigh, store.ConfidenceMedium, store.ConfidenceLow:
		c.Confidence = conf
	default:
		return c, invalid(path+".confidence", "%q is not one of high, medium, low", *rc.Confidence)
	}

	if rc.InstructorAvailable == nil {
		return c, invalid(path+".instructorAvailable", "must be a boolean")
	}
	c.InstructorAvailable = *rc.InstructorAvailable

	if rc.AircraftAvailable == nil {
		return c, invalid(path+".aircraftAvailable", "must be a boolean")
	}
	c.AircraftAvailable = *rc.AircraftAvailable

	return c, nil
}

func parseSlot(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range slotLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func parsePriority(raw json.RawMessage) (int, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return 0, errors.New("missing")
	}
	if text[0] == '"' {
		return 0, errors.New("must be a number, got a string")
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("must be a number, got %s", text)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("must be an integer, got %s", text)
	}
	if f < 1 || f > 3 {
		return 0, fmt.Errorf("must be 1, 2 or 3, got %s", text)
	}
	return int(f), nil
}
