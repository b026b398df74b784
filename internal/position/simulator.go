package position

import (
	"errors"
	"math"
	"time"

	"github.com/ngmaloney/port-navigator/internal/models"
)

const (
	// FrameIncrement is how far along a segment one frame moves (20 frames per segment)
	FrameIncrement = 0.05

	// FrameInterval is the animation frame period
	FrameInterval = 16 * time.Millisecond

	cruiseSpeed = 45.0 // km/h
	speedWobble = 5.0
)

// ErrPathTooShort is returned when a simulation is started on fewer than two points
var ErrPathTooShort = errors.New("path needs at least 2 points to simulate")

// SimulationState is the progress along the active route during playback
type SimulationState struct {
	Step     int     // current segment index
	Progress float64 // position within the segment, [0,1)
}

// Simulator replays a route path frame by frame. It holds no timers; the
// caller drives it with Advance on its own frame clock.
type Simulator struct {
	path    []models.Coordinate
	state   SimulationState
	running bool
	heading float64
	last    models.Position
}

// NewSimulator prepares a playback of path starting at its first point
func NewSimulator(path []models.Coordinate) (*Simulator, error) {
	if len(path) < 2 {
		return nil, ErrPathTooShort
	}
	p := make([]models.Coordinate, len(path))
	copy(p, path)

	s := &Simulator{path: p, running: true}
	s.heading = bearing(p[0], p[1])
	s.last = models.Position{Coordinate: p[0], Heading: models.Float(s.heading), Source: models.SourceSimulated}
	return s, nil
}

// State returns the current segment index and progress
func (s *Simulator) State() SimulationState {
	return s.state
}

// Running reports whether the playback hasn't reached the final point
func (s *Simulator) Running() bool {
	return s.running
}

// PathLen returns the number of points being replayed
func (s *Simulator) PathLen() int {
	return len(s.path)
}

// Last returns the most recently emitted position
func (s *Simulator) Last() models.Position {
	return s.last
}

// Advance moves the playback one frame. It returns the new position and
// whether playback is still running. Reaching the last point emits it once
// with running=false; further calls return the same position.
func (s *Simulator) Advance(now time.Time) (models.Position, bool) {
	last := len(s.path) - 1
	if !s.running || s.state.Step >= last {
		s.running = false
		return s.last, false
	}

	s.state.Progress += FrameIncrement
	// Tolerate float drift so a segment takes exactly 1/FrameIncrement frames
	if s.state.Progress >= 1-1e-9 {
		s.state.Step++
		s.state.Progress = 0
	}

	speed := cruiseSpeed + math.Sin(float64(now.UnixMilli())/1000)*speedWobble

	if s.state.Step >= last {
		s.running = false
		s.last = models.Position{
			Coordinate: s.path[last],
			Speed:      models.Float(speed),
			Heading:    models.Float(s.heading),
			Source:     models.SourceSimulated,
		}
		return s.last, false
	}

	p1 := s.path[s.state.Step]
	p2 := s.path[s.state.Step+1]

	if h := bearing(p1, p2); !math.IsNaN(h) {
		s.heading = h
	}

	s.last = models.Position{
		Coordinate: Interpolate(p1, p2, s.state.Progress),
		Speed:      models.Float(speed),
		Heading:    models.Float(s.heading),
		Source:     models.SourceSimulated,
	}
	return s.last, true
}

// Interpolate returns the point at fraction t along the straight line p1→p2
func Interpolate(p1, p2 models.Coordinate, t float64) models.Coordinate {
	return models.Coordinate{
		Lat: p1.Lat + (p2.Lat-p1.Lat)*t,
		Lon: p1.Lon + (p2.Lon-p1.Lon)*t,
	}
}

// bearing converts the math angle of the segment into a compass heading in [0,360)
func bearing(p1, p2 models.Coordinate) float64 {
	angle := math.Atan2(p2.Lat-p1.Lat, p2.Lon-p1.Lon) * 180 / math.Pi
	h := math.Mod(90-angle, 360)
	if h < 0 {
		h += 360
	}
	return h
}
