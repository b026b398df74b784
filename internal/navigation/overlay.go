package navigation

import (
	"fmt"
	"math"

	"github.com/ngmaloney/port-navigator/internal/models"
)

// DefaultDistance is shown when a step carries no distance
const DefaultDistance = 100.0

// Instruction is the maneuver currently shown and spoken
type Instruction struct {
	Text     string
	Distance float64 // meters
}

// Overlay picks the maneuver for the vehicle's place on the path.
// Progress along the path (stepIndex/pathLen) is mapped proportionally onto
// the step list, so maneuvers are assumed evenly spread across path points.
func Overlay(steps []models.Step, stepIndex, pathLen int) (Instruction, bool) {
	if len(steps) == 0 || pathLen <= 0 {
		return Instruction{}, false
	}

	progress := float64(stepIndex) / float64(pathLen)
	idx := int(math.Floor(progress * float64(len(steps))))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(steps) {
		idx = len(steps) - 1
	}

	step := steps[idx]
	dist := step.Distance
	if dist == 0 {
		dist = DefaultDistance
	}
	return Instruction{Text: step.Instruction(), Distance: dist}, true
}

// FormatDistance renders meters the way the banner shows them
func FormatDistance(m float64) string {
	if m >= 1000 {
		return fmt.Sprintf("%.1f km", m/1000)
	}
	return fmt.Sprintf("%.0f m", m)
}
