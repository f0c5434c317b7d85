package model

// Waypoint is a single point of the canonical path, in meters
type Waypoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Grasp *bool   `json:"grasp,omitempty"`
}

// Fixtures holds pick and place positions in millimeters, passed through unmodified
type Fixtures struct {
	Pick  []float64 `json:"pick,omitempty" yaml:"pick,omitempty"`
	Place []float64 `json:"place,omitempty" yaml:"place,omitempty"`
}

// GraspEvent marks a tool-state change at a waypoint index
type GraspEvent struct {
	Index int    `json:"index" yaml:"index"`
	Event string `json:"event" yaml:"event"`
}

// Path is the canonical, meters-based waypoint sequence
type Path struct {
	Points      []Waypoint   `json:"points"`
	Fixtures    *Fixtures    `json:"fixtures,omitempty"`
	GraspEvents []GraspEvent `json:"grasp_events,omitempty"`
}

// Len returns the number of waypoints
func (p Path) Len() int {
	return len(p.Points)
}

// Status returns VALID when the path has at least two waypoints
func (p Path) Status() JobStatus {
	return StatusFor(len(p.Points))
}

// EmptyPath returns a path with a non-nil, empty points array
func EmptyPath() Path {
	return Path{Points: []Waypoint{}}
}
