// Package traffic reads live road flow around the vehicle from the TomTom
// Traffic Flow API. It is only active when an API key is configured.
package traffic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the TomTom API host
const DefaultBaseURL = "https://api.tomtom.com"

// Flow is the traffic state of the road segment nearest a point
type Flow struct {
	CurrentSpeed  float64 // km/h
	FreeFlowSpeed float64 // km/h
	Confidence    float64
	RoadClosure   bool
	UpdatedAt     time.Time
}

// Ratio is current over free-flow speed; 1 means no congestion
func (f *Flow) Ratio() float64 {
	if f == nil || f.FreeFlowSpeed <= 0 {
		return 1
	}
	return f.CurrentSpeed / f.FreeFlowSpeed
}

// Label describes the congestion for display
func (f *Flow) Label() string {
	switch r := f.Ratio(); {
	case f != nil && f.RoadClosure:
		return "Road closed"
	case r >= 0.8:
		return "Free flow"
	case r >= 0.5:
		return "Slow"
	default:
		return "Heavy"
	}
}

// Client fetches flow segment data
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a flow client. Without apiKey the client is disabled.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Enabled reports whether an API key is configured
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

type flowResponse struct {
	FlowSegmentData struct {
		CurrentSpeed  float64 `json:"currentSpeed"`
		FreeFlowSpeed float64 `json:"freeFlowSpeed"`
		Confidence    float64 `json:"confidence"`
		RoadClosure   bool    `json:"roadClosure"`
	} `json:"flowSegmentData"`
}

// FlowAt returns the flow on the road segment closest to lat/lon
func (c *Client) FlowAt(ctx context.Context, lat, lon float64) (*Flow, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("traffic API key not configured")
	}

	params := url.Values{}
	params.Set("point", fmt.Sprintf("%f,%f", lat, lon))
	params.Set("unit", "KMPH")
	params.Set("key", c.apiKey)
	reqURL := c.baseURL + "/traffic/services/4/flowSegmentData/relative0/10/json?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching traffic flow: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("traffic API returned status %d: %s", resp.StatusCode, string(body))
	}

	var fr flowResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		return nil, fmt.Errorf("decoding traffic flow: %w", err)
	}

	d := fr.FlowSegmentData
	return &Flow{
		CurrentSpeed:  d.CurrentSpeed,
		FreeFlowSpeed: d.FreeFlowSpeed,
		Confidence:    d.Confidence,
		RoadClosure:   d.RoadClosure,
		UpdatedAt:     time.Now(),
	}, nil
}
