// Package predict talks to the port congestion prediction service.
package predict

import (
	"context"

	"github.com/ngmaloney/port-navigator/internal/models"
)

// DefaultTruckDensity is sent when the caller has no fleet density estimate
const DefaultTruckDensity = 120

// Request is the body of a prediction call
type Request struct {
	PortName     string  `json:"port_name"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	Rain1h       float64 `json:"rain_1h"`
	Visibility   float64 `json:"visibility"`
	TruckDensity int     `json:"truck_density"`
}

// Report announces this truck's position to the fleet tracker
type Report struct {
	TruckID string  `json:"truck_id"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Heading float64 `json:"heading"`
}

// Client defines the prediction service operations
type Client interface {
	// GetWeather retrieves current weather for a location
	GetWeather(ctx context.Context, lat, lon float64) (*models.Weather, error)

	// Predict retrieves the wait-time and demurrage estimate for a port gate
	Predict(ctx context.Context, req Request) (*models.Prediction, error)

	// UpdateLocation reports this truck's position and returns the active peer count
	UpdateLocation(ctx context.Context, report Report) (int, error)
}
