package weather

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// MetarSource reads raw METAR text from the aviationweather.gov data service.
type MetarSource struct {
	baseURL string
	client  *http.Client
	now     func() time.Time
}

// NewMetarSource creates a METAR source. baseURL is the metar.php endpoint.
func NewMetarSource(baseURL string, client *http.Client) *MetarSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &MetarSource{baseURL: baseURL, client: client, now: time.Now}
}

func (s *MetarSource) Name() string { return ProviderFAA }

func (s *MetarSource) FetchCurrentWeather(ctx context.Context, airport string) (*Reading, error) {
	q := url.Values{}
	q.Set("ids", airport)
	q.Set("format", "raw")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, providerErr(ProviderFAA, "build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, providerErr(ProviderFAA, "fetch METAR for %s: %w", airport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, providerErr(ProviderFAA, "unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, providerErr(ProviderFAA, "read response: %w", err)
	}

	raw := firstLine(string(body))
	if raw == "" || strings.Contains(raw, "No data") {
		return nil, providerErr(ProviderFAA, "no METAR data available for %s", airport)
	}

	obs, err := ParseMETAR(raw)
	if err != nil {
		return nil, &ProviderError{Source: ProviderFAA, Err: err}
	}

	return &Reading{
		Airport:    airport,
		Visibility: obs.Visibility,
		Ceiling:    obs.Ceiling,
		WindSpeed:  obs.WindSpeed,
		Conditions: obs.Conditions(),
		Provider:   ProviderFAA,
		Raw:        raw,
		FetchedAt:  s.now().UTC(),
	}, nil
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

var _ Source = (*MetarSource)(nil)
