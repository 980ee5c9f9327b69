// Package weather fetches current conditions at an airport and normalizes them
// into a Reading: visibility in statute miles, ceiling in feet, wind in knots.
package weather

import (
	"context"
	"fmt"
	"math"
	"time"

	"flightwx/internal/errs"
)

// Source tags recorded on every reading.
const (
	ProviderWeatherAPI = "weatherapi"
	ProviderFAA        = "faa"
)

// DefaultVisibility is reported when a source omits visibility.
const DefaultVisibility = 10.0

// Reading is one normalized observation. It is never mutated after a source returns it.
type Reading struct {
	Airport    string    `json:"airport"`
	Visibility float64   `json:"visibility"`
	Ceiling    *int      `json:"ceiling"` // nil means unlimited
	WindSpeed  int       `json:"wind_speed"`
	Conditions string    `json:"conditions"`
	Provider   string    `json:"provider"`
	Raw        string    `json:"raw"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// Source fetches current weather for an airport code.
type Source interface {
	Name() string
	FetchCurrentWeather(ctx context.Context, airport string) (*Reading, error)
}

// ProviderError reports a failed fetch and the source that was last tried.
type ProviderError struct {
	Source string
	Err    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("weather provider %s: %v", e.Source, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) ErrorKind() errs.Kind { return errs.KindProvider }

func providerErr(source string, format string, args ...any) error {
	return &ProviderError{Source: source, Err: fmt.Errorf(format, args...)}
}

// roundTo rounds v to the given number of decimals.
func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
