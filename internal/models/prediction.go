package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TrafficLevel is the congestion ordinal reported by the prediction service
type TrafficLevel int

const (
	TrafficLow TrafficLevel = iota
	TrafficModerate
	TrafficHigh
	TrafficCritical
)

func (l TrafficLevel) String() string {
	switch l {
	case TrafficLow:
		return "LOW"
	case TrafficModerate:
		return "MODERATE"
	case TrafficHigh:
		return "HIGH"
	case TrafficCritical:
		return "CRITICAL"
	}
	return "UNKNOWN"
}

// ParseTrafficLevel parses the wire representation. Unknown values map to LOW with an error.
func ParseTrafficLevel(s string) (TrafficLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW":
		return TrafficLow, nil
	case "MODERATE":
		return TrafficModerate, nil
	case "HIGH":
		return TrafficHigh, nil
	case "CRITICAL":
		return TrafficCritical, nil
	}
	return TrafficLow, fmt.Errorf("unknown traffic level %q", s)
}

// UnmarshalJSON accepts the string form; unknown levels decode as LOW
func (l *TrafficLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*l, _ = ParseTrafficLevel(s)
	return nil
}

// MarshalJSON writes the string form
func (l TrafficLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// Congested reports whether the level warrants a smart divert suggestion
func (l TrafficLevel) Congested() bool {
	return l >= TrafficHigh
}

// TrafficSegment is a colored stretch of the approach, as painted by the backend
type TrafficSegment struct {
	Color       string `json:"color"`
	Description string `json:"description"`
}

// Prediction is the externally computed congestion estimate for a port gate
type Prediction struct {
	PredictedWaitMinutes int              `json:"predicted_wait_minutes"`
	DemurrageRiskUSD     float64          `json:"demurrage_risk_usd"`
	TrafficLevel         TrafficLevel     `json:"traffic_level"`
	ActiveFleetCount     int              `json:"active_fleet_count"`
	MonsoonMode          bool             `json:"monsoon_mode"`
	SmartDivert          string           `json:"smart_divert,omitempty"`
	TrafficSegments      []TrafficSegment `json:"traffic_segments,omitempty"`
	UpdatedAt            time.Time        `json:"-"`
}

// Weather is the current weather at a location
type Weather struct {
	TempC       float64
	Main        string  // e.g. "Rain", "Clear"
	Description string  // e.g. "monsoon showers"
	Visibility  float64 // meters
	Rain1h      float64 // mm in the last hour
	UpdatedAt   time.Time
}

// Summary is a one-line description for the HUD
func (w *Weather) Summary() string {
	if w == nil {
		return ""
	}
	if w.Description != "" {
		return fmt.Sprintf("%s, %.0f°C", w.Description, w.TempC)
	}
	return fmt.Sprintf("%s, %.0f°C", w.Main, w.TempC)
}
