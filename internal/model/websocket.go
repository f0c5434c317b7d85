package model

// WebSocket message types
const (
	WSMessageTypeJob  = "job"
	WSMessageTypePing = "ping"
	WSMessageTypePong = "pong"
)

// WSMessage represents a generic WebSocket message
type WSMessage struct {
	Type string `json:"type"`
}

// WSJobMessage announces a newly stored job that is now the latest
type WSJobMessage struct {
	Type      string    `json:"type"`
	JobID     string    `json:"jobId"`
	Valid     bool      `json:"valid"`
	Status    JobStatus `json:"status"`
	UpdatedAt string    `json:"updatedAt"`
}
