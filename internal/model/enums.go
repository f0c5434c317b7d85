package model

import "strings"

// Dialect identifies a target motion-program language
type Dialect string

const (
	DialectKAREL Dialect = "karel"
	DialectKRL   Dialect = "krl"
	DialectRAPID Dialect = "rapid"
)

// Dialects lists every supported dialect in storage and response order
var Dialects = []Dialect{DialectKAREL, DialectKRL, DialectRAPID}

// ParseDialect resolves a dialect tag case-insensitively. "kuka" is accepted for KRL.
func ParseDialect(s string) (Dialect, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "karel", "fanuc":
		return DialectKAREL, true
	case "krl", "kuka":
		return DialectKRL, true
	case "rapid", "abb":
		return DialectRAPID, true
	}
	return "", false
}

// Job status
type JobStatus string

const (
	JobStatusValid   JobStatus = "VALID"
	JobStatusInvalid JobStatus = "INVALID"
)

// StatusFor returns the validity status of a path with the given number of waypoints
func StatusFor(pointCount int) JobStatus {
	if pointCount >= 2 {
		return JobStatusValid
	}
	return JobStatusInvalid
}

// RAPID program variants
type RapidVariant string

const (
	RapidVariantBasic     RapidVariant = "basic"
	RapidVariantAdvanced  RapidVariant = "advanced"
	RapidVariantOptimized RapidVariant = "optimized"
)

// Grasp event kinds
const (
	GraspEventGrasp   = "grasp"
	GraspEventRelease = "release"
)
