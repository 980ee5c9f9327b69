package weather

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const mphToKnots = 0.868976

// WeatherAPISource reads current conditions from weatherapi.com.
// Outbound calls share one token bucket so a sweep cannot exceed the plan's quota.
type WeatherAPISource struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	now     func() time.Time
}

// NewWeatherAPISource creates the commercial source. ratePerSecond <= 0 disables throttling.
func NewWeatherAPISource(baseURL, apiKey string, ratePerSecond float64, client *http.Client) *WeatherAPISource {
	if client == nil {
		client = http.DefaultClient
	}
	limit := rate.Inf
	burst := 1
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
		burst = int(math.Max(1, math.Ceil(ratePerSecond)))
	}
	return &WeatherAPISource{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
		limiter: rate.NewLimiter(limit, burst),
		now:     time.Now,
	}
}

func (s *WeatherAPISource) Name() string { return ProviderWeatherAPI }

type weatherAPIResponse struct {
	Current struct {
		VisMiles  *float64 `json:"vis_miles"`
		Cloud     int      `json:"cloud"`
		WindMph   float64  `json:"wind_mph"`
		Condition struct {
			Text string `json:"text"`
		} `json:"condition"`
	} `json:"current"`
}

type weatherAPIError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *WeatherAPISource) FetchCurrentWeather(ctx context.Context, airport string) (*Reading, error) {
	if s.apiKey == "" {
		return nil, providerErr(ProviderWeatherAPI, "api key not configured")
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, providerErr(ProviderWeatherAPI, "rate limiter: %w", err)
	}

	q := url.Values{}
	q.Set("key", s.apiKey)
	q.Set("q", airport)
	q.Set("aqi", "no")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/current.json?"+q.Encode(), nil)
	if err != nil {
		return nil, providerErr(ProviderWeatherAPI, "build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, providerErr(ProviderWeatherAPI, "fetch current conditions for %s: %w", airport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, providerErr(ProviderWeatherAPI, "read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr weatherAPIError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, providerErr(ProviderWeatherAPI, "status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, providerErr(ProviderWeatherAPI, "unexpected status %d", resp.StatusCode)
	}

	var data weatherAPIResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, providerErr(ProviderWeatherAPI, "decode response: %w", err)
	}

	return s.normalize(airport, &data, string(body)), nil
}

func (s *WeatherAPISource) normalize(airport string, data *weatherAPIResponse, raw string) *Reading {
	visibility := DefaultVisibility
	if data.Current.VisMiles != nil {
		visibility = *data.Current.VisMiles
	}

	// The service reports cloud cover as a percentage, not layers. Cover is
	// scaled to a rough ceiling estimate; zero cover means unlimited.
	var ceiling *int
	if data.Current.Cloud > 0 {
		c := data.Current.Cloud * 100
		ceiling = &c
	}

	conditions := data.Current.Condition.Text
	if conditions == "" {
		conditions = "Clear"
	}

	return &Reading{
		Airport:    airport,
		Visibility: visibility,
		Ceiling:    ceiling,
		WindSpeed:  int(math.Round(data.Current.WindMph * mphToKnots)),
		Conditions: conditions,
		Provider:   ProviderWeatherAPI,
		Raw:        raw,
		FetchedAt:  s.now().UTC(),
	}
}

var _ Source = (*WeatherAPISource)(nil)
