package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ngmaloney/port-navigator/internal/models"
)

// DefaultBaseURL is the OSRM public demo server
const DefaultBaseURL = "https://router.project-osrm.org"

// ErrNoRoute is returned when OSRM answers but has no usable route
var ErrNoRoute = errors.New("no route found")

// Router computes a driving route between two points
type Router interface {
	Route(ctx context.Context, origin, dest models.Coordinate) (*models.Route, error)
}

// OSRMClient implements Router against an OSRM HTTP server
type OSRMClient struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// NewClient creates an OSRM client. An empty baseURL uses the public demo server.
func NewClient(baseURL string) *OSRMClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &OSRMClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		userAgent: "PortNavigator/1.0 (github.com/ngmaloney/port-navigator)",
	}
}

// Route fetches the full-overview GeoJSON route with steps between origin and dest
func (c *OSRMClient) Route(ctx context.Context, origin, dest models.Coordinate) (*models.Route, error) {
	params := url.Values{}
	params.Set("overview", "full")
	params.Set("geometries", "geojson")
	params.Set("steps", "true")

	// OSRM takes lon,lat pairs
	reqURL := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?%s",
		c.baseURL, origin.Lon, origin.Lat, dest.Lon, dest.Lat, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching route: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("OSRM returned status %d: %s", resp.StatusCode, string(body))
	}

	var routeResp routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&routeResp); err != nil {
		return nil, fmt.Errorf("decoding route: %w", err)
	}

	return routeResp.toRoute()
}

func (r *routeResponse) toRoute() (*models.Route, error) {
	if r.Code != "Ok" {
		return nil, fmt.Errorf("%w: OSRM code %s: %s", ErrNoRoute, r.Code, r.Message)
	}
	if len(r.Routes) == 0 {
		return nil, ErrNoRoute
	}

	best := r.Routes[0]
	route := &models.Route{
		Path:     make([]models.Coordinate, 0, len(best.Geometry.Coordinates)),
		Distance: best.Distance,
		Duration: best.Duration,
	}

	for _, c := range best.Geometry.Coordinates {
		if len(c) < 2 {
			continue
		}
		route.Path = append(route.Path, models.Coordinate{Lat: c[1], Lon: c[0]})
	}

	if len(best.Legs) > 0 {
		for _, s := range best.Legs[0].Steps {
			route.Steps = append(route.Steps, models.Step{
				Maneuver: models.Maneuver{
					Type:     s.Maneuver.Type,
					Modifier: s.Maneuver.Modifier,
				},
				Distance: s.Distance,
				Name:     s.Name,
			})
		}
	}

	return route, nil
}

// Internal types for OSRM API responses

type routeResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Type        string      `json:"type"`
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Legs []struct {
			Steps []struct {
				Distance float64 `json:"distance"`
				Name     string  `json:"name"`
				Maneuver struct {
					Type     string `json:"type"`
					Modifier string `json:"modifier"`
				} `json:"maneuver"`
			} `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}
