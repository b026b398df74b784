package models

import "fmt"

// Coordinate is a WGS84 point
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// String formats the coordinate with 5 decimals (about 1 m)
func (c Coordinate) String() string {
	return fmt.Sprintf("%.5f, %.5f", c.Lat, c.Lon)
}

// Source identifies what produced a Position
type Source int

const (
	SourceGPS       Source = iota // Live device fix
	SourceSimulated                // Synthetic playback along a route
	SourceFallback                 // Fixed fallback when geolocation failed
)

func (s Source) String() string {
	switch s {
	case SourceGPS:
		return "GPS"
	case SourceSimulated:
		return "SIM"
	case SourceFallback:
		return "FALLBACK"
	}
	return "UNKNOWN"
}

// Position is the vehicle's current location and motion.
// Speed (km/h) and Heading (compass degrees) are nil when the source didn't report them.
type Position struct {
	Coordinate
	Speed   *float64
	Heading *float64
	Source  Source
}

// SpeedOr returns the speed or the fallback when absent
func (p Position) SpeedOr(fallback float64) float64 {
	if p.Speed == nil {
		return fallback
	}
	return *p.Speed
}

// HeadingOr returns the heading or the fallback when absent
func (p Position) HeadingOr(fallback float64) float64 {
	if p.Heading == nil {
		return fallback
	}
	return *p.Heading
}

// Float returns a pointer to v, for populating optional Position fields
func Float(v float64) *float64 {
	return &v
}

var (
	// FallbackOrigin is used when geolocation fails before any fix arrived (Kochi city centre)
	FallbackOrigin = Coordinate{Lat: 9.9312, Lon: 76.2673}

	// DefaultDestination is the arrival point when the user hasn't chosen one
	DefaultDestination = Destination{
		Coordinate: Coordinate{Lat: 9.9667, Lon: 76.2667},
		Label:      "Gate A – Cochin Port",
	}
)

// Destination is a user-chosen or default arrival point
type Destination struct {
	Coordinate
	Label string `json:"label"`
}
