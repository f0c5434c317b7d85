package model

import "time"

// TimestampLayout is fixed-width so that timestamps compare correctly as strings
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// FormatTimestamp renders t in UTC using TimestampLayout
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Artifact names within a job prefix
const (
	ArtifactRaw          = "iot_raw.json"
	ArtifactPath         = "path.json"
	ArtifactKAREL        = "karel.LS"
	ArtifactKRL          = "kuka.src"
	ArtifactRAPID        = "rapid.mod"
	ArtifactKARELRefined = "karel.refined.LS"
	ArtifactKRLRefined   = "kuka.refined.src"
	ArtifactRAPIDRefined = "rapid.refined.mod"
)

// ProgramArtifact returns the artifact name for a dialect's program, refined or base
func ProgramArtifact(d Dialect, refined bool) string {
	switch d {
	case DialectKAREL:
		if refined {
			return ArtifactKARELRefined
		}
		return ArtifactKAREL
	case DialectKRL:
		if refined {
			return ArtifactKRLRefined
		}
		return ArtifactKRL
	case DialectRAPID:
		if refined {
			return ArtifactRAPIDRefined
		}
		return ArtifactRAPID
	}
	return ""
}

// Job is one immutable ingestion result
type Job struct {
	ID         string    `json:"jobId"`
	Status     JobStatus `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	PointCount int       `json:"pointCount"`
	RobotModel string    `json:"robotModel,omitempty"`
	SourceID   string    `json:"sourceId,omitempty"`
}

// Artifacts holds the blob contents written for a job
type Artifacts struct {
	Raw      []byte
	Path     []byte
	Programs map[Dialect]string
	Refined  map[Dialect]string
}

// IndexRecord is the per-job pointer record. Empty pointer strings mean "absent".
type IndexRecord struct {
	JobID      string    `json:"jobId"`
	Status     JobStatus `json:"status"`
	CreatedAt  string    `json:"createdAt"`
	UpdatedAt  string    `json:"updatedAt"`
	PointCount int       `json:"pointCount"`
	RobotModel string    `json:"robotModel"`
	SourceID   string    `json:"sourceId"`

	RawKey          string `json:"rawKey"`
	PathKey         string `json:"pathKey"`
	KarelKey        string `json:"karelKey"`
	KRLKey          string `json:"krlKey"`
	RapidKey        string `json:"rapidKey"`
	KarelRefinedKey string `json:"karelRefinedKey"`
	KRLRefinedKey   string `json:"krlRefinedKey"`
	RapidRefinedKey string `json:"rapidRefinedKey"`
}

// ProgramKey returns the base or refined blob pointer for a dialect
func (r *IndexRecord) ProgramKey(d Dialect, refined bool) string {
	switch d {
	case DialectKAREL:
		if refined {
			return r.KarelRefinedKey
		}
		return r.KarelKey
	case DialectKRL:
		if refined {
			return r.KRLRefinedKey
		}
		return r.KRLKey
	case DialectRAPID:
		if refined {
			return r.RapidRefinedKey
		}
		return r.RapidKey
	}
	return ""
}

// SetProgramKey assigns the base or refined blob pointer for a dialect
func (r *IndexRecord) SetProgramKey(d Dialect, refined bool, key string) {
	switch d {
	case DialectKAREL:
		if refined {
			r.KarelRefinedKey = key
		} else {
			r.KarelKey = key
		}
	case DialectKRL:
		if refined {
			r.KRLRefinedKey = key
		} else {
			r.KRLKey = key
		}
	case DialectRAPID:
		if refined {
			r.RapidRefinedKey = key
		} else {
			r.RapidKey = key
		}
	}
}

// IngestJobPayload is the asynq task payload for queued ingestion
type IngestJobPayload struct {
	JobID      string `json:"jobId"`
	SourceID   string `json:"sourceId,omitempty"`
	ReceivedAt string `json:"receivedAt"`
	Raw        []byte `json:"raw"`
}
