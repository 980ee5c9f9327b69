package weather

import (
	"context"
	"errors"
	"fmt"
)

// FallbackFunc is called when a step of a chain fails and the next one is about to run.
type FallbackFunc func(ctx context.Context, from, to string, err error)

// Chain tries its sources in order and returns the first reading that succeeds.
//
// A chain with a single source returns that source's error untouched. When every
// step of a longer chain fails, the result is a *ProviderError naming the last
// source tried and joining all the causes.
type Chain struct {
	steps      []Source
	onFallback FallbackFunc
}

// NewChain builds a chain; sources are tried in the order given.
func NewChain(onFallback FallbackFunc, sources ...Source) *Chain {
	return &Chain{steps: sources, onFallback: onFallback}
}

func (c *Chain) Name() string {
	if len(c.steps) == 0 {
		return ""
	}
	return c.steps[0].Name()
}

func (c *Chain) FetchCurrentWeather(ctx context.Context, airport string) (*Reading, error) {
	if len(c.steps) == 0 {
		return nil, &ProviderError{Source: "none", Err: errors.New("no weather source configured")}
	}

	var failures []error
	for i, src := range c.steps {
		reading, err := src.FetchCurrentWeather(ctx, airport)
		if err == nil {
			return reading, nil
		}
		if len(c.steps) == 1 {
			return nil, err
		}

		failures = append(failures, err)
		if i+1 < len(c.steps) && c.onFallback != nil {
			c.onFallback(ctx, src.Name(), c.steps[i+1].Name(), err)
		}
	}

	return nil, &ProviderError{
		Source: c.steps[len(c.steps)-1].Name(),
		Err:    errors.Join(failures...),
	}
}

// Adapter picks the fetch strategy for a configured primary source.
// A commercial primary falls back once to METAR; a METAR primary has no fallback.
type Adapter struct {
	primary    string
	commercial Source
	metar      Source
	onFallback FallbackFunc
}

// NewAdapter returns an Adapter. primary is ProviderWeatherAPI or ProviderFAA.
func NewAdapter(primary string, commercial, metar Source, onFallback FallbackFunc) (*Adapter, error) {
	switch primary {
	case ProviderWeatherAPI, ProviderFAA:
	default:
		return nil, fmt.Errorf("unknown weather provider %q", primary)
	}
	if metar == nil {
		return nil, errors.New("metar source is required")
	}
	if primary == ProviderWeatherAPI && commercial == nil {
		return nil, errors.New("weatherapi source is required when it is the primary")
	}
	return &Adapter{primary: primary, commercial: commercial, metar: metar, onFallback: onFallback}, nil
}

// Primary returns the configured default source tag.
func (a *Adapter) Primary() string { return a.primary }

// Strategy returns the ordered chain for a primary tag. An empty or unknown tag,
// or a commercial tag without a commercial source, selects the configured default.
func (a *Adapter) Strategy(primary string) *Chain {
	switch {
	case primary == ProviderFAA:
		return NewChain(a.onFallback, a.metar)
	case primary == ProviderWeatherAPI && a.commercial != nil:
		return NewChain(a.onFallback, a.commercial, a.metar)
	case primary != a.primary:
		return a.Strategy(a.primary)
	}
	return NewChain(a.onFallback, a.metar)
}

// FetchCurrentWeather fetches using the configured primary.
func (a *Adapter) FetchCurrentWeather(ctx context.Context, airport string) (*Reading, error) {
	return a.Strategy(a.primary).FetchCurrentWeather(ctx, airport)
}

// FetchWith fetches using the given primary, falling back to the configured one when empty.
func (a *Adapter) FetchWith(ctx context.Context, primary, airport string) (*Reading, error) {
	return a.Strategy(primary).FetchCurrentWeather(ctx, airport)
}
