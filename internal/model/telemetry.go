package model

// Telemetry documents the recognized fields of an ingested telemetry event.
// Ingestion never decodes into this type directly: payloads are heterogeneous and
// the normalizer reads each field defensively.
type Telemetry struct {
	RobotModel  string         `json:"robot_model,omitempty" yaml:"robot_model,omitempty"`
	SourceID    string         `json:"source_id,omitempty" yaml:"source_id,omitempty"`
	DeviceID    string         `json:"device_id,omitempty" yaml:"device_id,omitempty"`
	PathPoints  []TelemetryXYZ `json:"path_points" yaml:"path_points"`
	GraspEvents []GraspEvent   `json:"grasp_events,omitempty" yaml:"grasp_events,omitempty"`
	Fixtures    *Fixtures      `json:"fixtures,omitempty" yaml:"fixtures,omitempty"`
}

// TelemetryXYZ is a raw point in millimeters
type TelemetryXYZ struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// IngestResponse is returned by the telemetry endpoint
type IngestResponse struct {
	JobID      string    `json:"jobId"`
	Queued     bool      `json:"queued"`
	Status     JobStatus `json:"status,omitempty"`
	Valid      bool      `json:"valid"`
	PointCount int       `json:"pointCount"`
	Refined    []Dialect `json:"refined,omitempty"`
}
