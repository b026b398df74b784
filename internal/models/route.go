package models

// Maneuver is the turn descriptor of a routed step (OSRM "maneuver")
type Maneuver struct {
	Type     string // e.g. "turn", "depart", "arrive", "continue"
	Modifier string // e.g. "left", "slight right"; empty when not given
}

// Step is one turn-by-turn instruction of a route
type Step struct {
	Maneuver Maneuver
	Distance float64 // meters to the next maneuver
	Name     string  // road name, may be empty
}

// Instruction builds the display text "<type> <modifier>", or "<type>" alone
func (s Step) Instruction() string {
	if s.Maneuver.Modifier != "" {
		return s.Maneuver.Type + " " + s.Maneuver.Modifier
	}
	return s.Maneuver.Type
}

// Route is a planned path between an origin and a destination
type Route struct {
	Path     []Coordinate
	Steps    []Step
	Distance float64 // meters
	Duration float64 // seconds
}

// Playable reports whether the route has enough points to simulate
func (r *Route) Playable() bool {
	return r != nil && len(r.Path) >= 2
}
