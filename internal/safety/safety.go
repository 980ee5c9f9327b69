// Package safety decides whether observed weather is flyable for a pilot's training level.
package safety

import (
	"fmt"
	"strconv"

	"flightwx/internal/errs"
	"flightwx/internal/store"
	"flightwx/internal/weather"
)

// Minimums are the limits for one training level. A zero Visibility or Ceiling means no requirement.
type Minimums struct {
	Visibility float64 `json:"visibility"` // statute miles
	Ceiling    int     `json:"ceiling"`    // feet AGL
	MaxWind    int     `json:"max_wind"`   // knots
}

var minimums = map[store.TrainingLevel]Minimums{
	store.TrainingLevelEarlyStudent:    {Visibility: 10, Ceiling: 3000, MaxWind: 10},
	store.TrainingLevelPrivatePilot:    {Visibility: 3, Ceiling: 1000, MaxWind: 15},
	store.TrainingLevelInstrumentRated: {Visibility: 0, Ceiling: 0, MaxWind: 25},
}

// MinimumsFor returns the fixed minimums of a training level.
func MinimumsFor(level store.TrainingLevel) (Minimums, bool) {
	m, ok := minimums[level]
	return m, ok
}

// Verdict is the outcome of one evaluation. Reasons is empty iff Safe.
type Verdict struct {
	Safe     bool     `json:"safe"`
	Reasons  []string `json:"reasons"`
	Minimums Minimums `json:"minimums"`
}

// Result maps the verdict to its persisted form.
func (v Verdict) Result() store.WeatherSafety {
	if v.Safe {
		return store.WeatherSafe
	}
	return store.WeatherUnsafe
}

// Evaluate compares a reading against the minimums for level. Violations are
// reported in a fixed order: visibility, ceiling, wind.
//
// A reading without a ceiling is never a ceiling violation, even when the level
// has a ceiling floor.
func Evaluate(r weather.Reading, level store.TrainingLevel) (Verdict, error) {
	m, ok := MinimumsFor(level)
	if !ok {
		return Verdict{}, errs.InvalidArgument("evaluate", "unknown training level %q", level)
	}

	reasons := []string{}

	if r.Visibility < m.Visibility {
		reasons = append(reasons, fmt.Sprintf("Visibility %sSM below %sSM minimum", num(r.Visibility), num(m.Visibility)))
	}

	if m.Ceiling > 0 && r.Ceiling != nil && *r.Ceiling < m.Ceiling {
		reasons = append(reasons, fmt.Sprintf("Ceiling %dft below %dft minimum", *r.Ceiling, m.Ceiling))
	}

	if r.WindSpeed > m.MaxWind {
		reasons = append(reasons, fmt.Sprintf("Wind %dkt exceeds %dkt maximum", r.WindSpeed, m.MaxWind))
	}

	return Verdict{
		Safe:     len(reasons) == 0,
		Reasons:  reasons,
		Minimums: m,
	}, nil
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
