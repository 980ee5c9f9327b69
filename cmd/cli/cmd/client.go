package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"flightwx/pkg/api"
)

// WxClient handles API calls to the flightwx controller.
type WxClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewWxClient creates a new client with the given base URL and token.
// Generation and sweeps run inline on the server, so the timeout is generous.
func NewWxClient(baseURL, token string) *WxClient {
	return &WxClient{
		BaseURL: baseURL,
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int
	Kind       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

func (c *WxClient) do(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	httpReq, err := http.NewRequest(method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Add("Authorization", fmt.Sprintf("Bearer %s", c.Token))
	httpReq.Header.Add("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(bytes.TrimSpace(respBody))}
		var e api.ErrorResponse
		if json.Unmarshal(respBody, &e) == nil && e.Error != "" {
			apiErr.Message = e.Error
			apiErr.Kind = e.Kind
		}
		return apiErr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// CheckWeather sends POST /flights/{id}/weather-check.
func (c *WxClient) CheckWeather(flightID string) (*api.WeatherCheckResponse, error) {
	var result api.WeatherCheckResponse
	if err := c.do(http.MethodPost, fmt.Sprintf("/flights/%s/weather-check", flightID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// LatestWeatherCheck sends GET /flights/{id}/weather-checks/latest.
func (c *WxClient) LatestWeatherCheck(flightID string) (*api.WeatherCheck, error) {
	var result api.WeatherCheck
	if err := c.do(http.MethodGet, fmt.Sprintf("/flights/%s/weather-checks/latest", flightID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// WeatherBriefing sends GET /flights/{id}/weather-briefing.
func (c *WxClient) WeatherBriefing(flightID string) (*api.WeatherBriefingResponse, error) {
	var result api.WeatherBriefingResponse
	if err := c.do(http.MethodGet, fmt.Sprintf("/flights/%s/weather-briefing", flightID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GenerateOptions sends POST /flights/{id}/reschedule-options.
func (c *WxClient) GenerateOptions(flightID string) (*api.RescheduleRequest, error) {
	var result api.RescheduleRequest
	if err := c.do(http.MethodPost, fmt.Sprintf("/flights/%s/reschedule-options", flightID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetRequest sends GET /reschedule-requests/{id}.
func (c *WxClient) GetRequest(requestID string) (*api.RescheduleRequest, error) {
	var result api.RescheduleRequest
	if err := c.do(http.MethodGet, fmt.Sprintf("/reschedule-requests/%s", requestID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SelectOption sends POST /reschedule-requests/{id}/select with a 0-based index.
func (c *WxClient) SelectOption(requestID string, index int) (*api.RescheduleRequest, error) {
	var result api.RescheduleRequest
	body := api.SelectOptionRequest{Option: &index}
	if err := c.do(http.MethodPost, fmt.Sprintf("/reschedule-requests/%s/select", requestID), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Approve sends POST /reschedule-requests/{id}/approve.
func (c *WxClient) Approve(requestID string, approved bool) (*api.ApproveResponse, error) {
	var result api.ApproveResponse
	body := api.ApproveRequest{Approved: &approved}
	if err := c.do(http.MethodPost, fmt.Sprintf("/reschedule-requests/%s/approve", requestID), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Sweep sends POST /sweeps.
func (c *WxClient) Sweep() (*api.SweepResponse, error) {
	var result api.SweepResponse
	if err := c.do(http.MethodPost, "/sweeps", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
