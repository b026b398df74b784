package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ngmaloney/port-navigator/internal/models"
)

const (
	DefaultBaseURL = "https://nominatim.openstreetmap.org"
	userAgent      = "PortNavigator/1.0" // Required by Nominatim ToS

	// MinQueryLength is the shortest input that triggers live suggestions
	MinQueryLength = 2
)

// ErrNotFound is returned when a query resolves to no places
var ErrNotFound = errors.New("place not found")

// Place is one ranked geocoder candidate
type Place struct {
	DisplayName string
	Latitude    float64
	Longitude   float64
	PlaceID     int64
}

// Coordinate returns the place's position
func (p Place) Coordinate() models.Coordinate {
	return models.Coordinate{Lat: p.Latitude, Lon: p.Longitude}
}

// ShortName returns the first n comma-separated parts of the display name
func (p Place) ShortName(n int) string {
	parts := strings.Split(p.DisplayName, ",")
	if len(parts) > n {
		parts = parts[:n]
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return strings.Join(parts, ", ")
}

// Destination converts the place into a navigation destination with a 4-part label
func (p Place) Destination() models.Destination {
	return models.Destination{Coordinate: p.Coordinate(), Label: p.ShortName(4)}
}

// NotFoundMessage is the inline message shown when free text can't be resolved
func NotFoundMessage(query string) string {
	return fmt.Sprintf("%q not found. Try being more specific, e.g. \"Mysore Railway Station, Karnataka\".", query)
}

// Geocoder converts free text to places using Nominatim, restricted to India
type Geocoder struct {
	baseURL     string
	countryCode string
	httpClient  *http.Client
	lastCall    time.Time
	mu          sync.Mutex
}

// NewGeocoder creates a new geocoder. An empty baseURL uses the public Nominatim server.
func NewGeocoder(baseURL string) *Geocoder {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Geocoder{
		baseURL:     strings.TrimRight(baseURL, "/"),
		countryCode: "in",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// nominatimResponse represents the Nominatim API response
type nominatimResponse struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	PlaceID     int64  `json:"place_id"`
}

// Search returns up to limit ranked candidates for a free-text query.
// Queries shorter than MinQueryLength return no candidates without a request.
func (g *Geocoder) Search(ctx context.Context, query string, limit int) ([]Place, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinQueryLength {
		return nil, nil
	}
	if limit <= 0 {
		limit = 1
	}

	params := url.Values{}
	params.Add("q", query)
	params.Add("format", "json")
	params.Add("limit", strconv.Itoa(limit))
	params.Add("countrycodes", g.countryCode)
	params.Add("accept-language", "en")

	reqURL := fmt.Sprintf("%s/search?%s", g.baseURL, params.Encode())

	// Rate limiting: Nominatim requires 1 req/sec max
	g.mu.Lock()
	if !g.lastCall.IsZero() {
		elapsed := time.Since(g.lastCall)
		if elapsed < time.Second {
			time.Sleep(time.Second - elapsed)
		}
	}
	g.lastCall = time.Now()
	g.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	// Set required User-Agent header (Nominatim ToS requirement)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim API returned status %d", resp.StatusCode)
	}

	var results []nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	places := make([]Place, 0, len(results))
	for _, r := range results {
		lat, err := strconv.ParseFloat(r.Lat, 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(r.Lon, 64)
		if err != nil {
			continue
		}
		places = append(places, Place{
			DisplayName: r.DisplayName,
			Latitude:    lat,
			Longitude:   lon,
			PlaceID:     r.PlaceID,
		})
	}

	return places, nil
}

// Geocode resolves a query to its best candidate, or ErrNotFound
func (g *Geocoder) Geocode(ctx context.Context, query string) (*Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	places, err := g.Search(ctx, query, 1)
	if err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return nil, fmt.Errorf("%w: '%s'", ErrNotFound, query)
	}

	return &places[0], nil
}
