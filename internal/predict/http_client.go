package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ngmaloney/port-navigator/internal/models"
)

// HTTPClient implements Client against the prediction backend's JSON API
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a prediction client. An empty baseURL yields a disabled client.
func NewClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		userAgent: "PortNavigator/1.0 (github.com/ngmaloney/port-navigator)",
	}
}

// Enabled reports whether a backend URL is configured
func (c *HTTPClient) Enabled() bool {
	return c.baseURL != ""
}

// GetWeather retrieves current weather for a location
func (c *HTTPClient) GetWeather(ctx context.Context, lat, lon float64) (*models.Weather, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	var resp weatherResponse
	if err := c.do(ctx, "GET", "/weather?"+params.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch weather: %w", err)
	}

	weather := &models.Weather{
		TempC:      resp.Main.Temp,
		Visibility: resp.Visibility,
		Rain1h:     resp.Rain.OneHour,
		UpdatedAt:  time.Now(),
	}
	if len(resp.Weather) > 0 {
		weather.Main = resp.Weather[0].Main
		weather.Description = resp.Weather[0].Description
	}

	return weather, nil
}

// Predict retrieves the wait-time and demurrage estimate for a port gate
func (c *HTTPClient) Predict(ctx context.Context, req Request) (*models.Prediction, error) {
	if req.TruckDensity == 0 {
		req.TruckDensity = DefaultTruckDensity
	}

	var prediction models.Prediction
	if err := c.do(ctx, "POST", "/predict", req, &prediction); err != nil {
		return nil, fmt.Errorf("failed to fetch prediction: %w", err)
	}
	prediction.UpdatedAt = time.Now()

	return &prediction, nil
}

// UpdateLocation reports this truck's position and returns the active peer count
func (c *HTTPClient) UpdateLocation(ctx context.Context, report Report) (int, error) {
	var resp struct {
		Status      string `json:"status"`
		ActivePeers int    `json:"active_peers"`
	}
	if err := c.do(ctx, "POST", "/update_location", report, &resp); err != nil {
		return 0, fmt.Errorf("failed to update location: %w", err)
	}
	return resp.ActivePeers, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	if !c.Enabled() {
		return fmt.Errorf("prediction backend not configured")
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Internal types for backend responses

type weatherResponse struct {
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Visibility float64 `json:"visibility"`
	Rain       struct {
		OneHour float64 `json:"1h"`
	} `json:"rain"`
}
