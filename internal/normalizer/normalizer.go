// Package normalizer converts raw telemetry events into the canonical path.
//
// Telemetry arrives from heterogeneous IoT sources, so every field is read
// defensively: malformed input yields an empty, INVALID path rather than an error.
package normalizer

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/pathforge/api/internal/model"
)

// MillimetersPerMeter is the divisor applied to every raw coordinate
const MillimetersPerMeter = 1000.0

// Envelope keys that may wrap the telemetry object one level deep
var envelopeKeys = []string{"payload", "body", "data"}

// Result is the outcome of normalizing one telemetry event
type Result struct {
	Path       model.Path
	Status     model.JobStatus
	RobotModel string
	SourceID   string
	// Dropped counts raw points rejected for missing or non-finite coordinates
	Dropped int
}

// Valid reports whether the canonical path has at least two waypoints
func (r Result) Valid() bool {
	return r.Status == model.JobStatusValid
}

// Normalize parses raw telemetry bytes. It never fails.
func Normalize(raw []byte) Result {
	obj, ok := decodeObject(raw)
	if !ok {
		return emptyResult()
	}
	return NormalizeObject(obj)
}

// NormalizeObject normalizes an already decoded telemetry object
func NormalizeObject(obj map[string]any) Result {
	if obj == nil {
		return emptyResult()
	}
	obj = unwrapEnvelope(obj)

	res := Result{
		Path:       model.EmptyPath(),
		RobotModel: stringField(obj, "robot_model"),
		SourceID:   firstNonEmpty(stringField(obj, "source_id"), stringField(obj, "device_id")),
	}

	// rawToPoint maps positions in path_points to positions in the canonical path
	var rawToPoint map[int]int
	if items, ok := obj["path_points"].([]any); ok {
		rawToPoint = make(map[int]int, len(items))
		for i, item := range items {
			wp, ok := toWaypoint(item)
			if !ok {
				res.Dropped++
				continue
			}
			rawToPoint[i] = len(res.Path.Points)
			res.Path.Points = append(res.Path.Points, wp)
		}
	}

	if events, ok := obj["grasp_events"].([]any); ok {
		res.Path.GraspEvents = applyGraspEvents(res.Path.Points, rawToPoint, events)
	}

	res.Path.Fixtures = toFixtures(obj["fixtures"])
	res.Status = res.Path.Status()
	return res
}

func emptyResult() Result {
	return Result{
		Path:   model.EmptyPath(),
		Status: model.JobStatusInvalid,
	}
}

func decodeObject(raw []byte) (map[string]any, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, false
	}
	return obj, obj != nil
}

// unwrapEnvelope descends into payload/body/data when the top level carries no
// path_points. String-encoded JSON bodies are decoded as well.
func unwrapEnvelope(obj map[string]any) map[string]any {
	if _, ok := obj["path_points"]; ok {
		return obj
	}
	for _, key := range envelopeKeys {
		switch inner := obj[key].(type) {
		case map[string]any:
			if _, ok := inner["path_points"]; ok {
				return inner
			}
		case string:
			if decoded, ok := decodeObject([]byte(inner)); ok {
				if _, ok := decoded["path_points"]; ok {
					return decoded
				}
			}
		}
	}
	return obj
}

// toWaypoint accepts {x,y,z} objects and [x,y,z] arrays in millimeters
func toWaypoint(item any) (model.Waypoint, bool) {
	var xs, ys, zs any
	switch v := item.(type) {
	case map[string]any:
		xs, ys, zs = lookup(v, "x", "X"), lookup(v, "y", "Y"), lookup(v, "z", "Z")
	case []any:
		if len(v) < 3 {
			return model.Waypoint{}, false
		}
		xs, ys, zs = v[0], v[1], v[2]
	default:
		return model.Waypoint{}, false
	}

	x, okx := toFloat(xs)
	y, oky := toFloat(ys)
	z, okz := toFloat(zs)
	if !okx || !oky || !okz {
		return model.Waypoint{}, false
	}
	return model.Waypoint{
		X: x / MillimetersPerMeter,
		Y: y / MillimetersPerMeter,
		Z: z / MillimetersPerMeter,
	}, true
}

// applyGraspEvents annotates points in place and returns the events that applied,
// re-indexed to positions in the canonical points slice. Events with a non-integer
// or out-of-range index, an index naming a dropped point, or an unknown kind are dropped.
func applyGraspEvents(points []model.Waypoint, rawToPoint map[int]int, events []any) []model.GraspEvent {
	var applied []model.GraspEvent
	for _, item := range events {
		ev, ok := item.(map[string]any)
		if !ok {
			continue
		}
		index, ok := toIndex(ev["index"])
		if !ok {
			continue
		}
		pos, ok := rawToPoint[index]
		if !ok || pos < 0 || pos >= len(points) {
			continue
		}

		kind := strings.ToLower(strings.TrimSpace(stringOf(ev["event"])))
		var grasp bool
		switch kind {
		case model.GraspEventGrasp:
			grasp = true
		case model.GraspEventRelease:
			grasp = false
		default:
			continue
		}
		points[pos].Grasp = &grasp
		applied = append(applied, model.GraspEvent{Index: pos, Event: kind})
	}
	return applied
}

func toFixtures(v any) *model.Fixtures {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	f := &model.Fixtures{
		Pick:  toTriple(obj["pick"]),
		Place: toTriple(obj["place"]),
	}
	if f.Pick == nil && f.Place == nil {
		return nil
	}
	return f
}

func toTriple(v any) []float64 {
	items, ok := v.([]any)
	if !ok || len(items) == 0 {
		return nil
	}
	out := make([]float64, 0, len(items))
	for _, item := range items {
		f, ok := toFloat(item)
		if !ok {
			return nil
		}
		out = append(out, f)
	}
	return out
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = n
	case int:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toIndex(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}

func lookup(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}

func stringField(m map[string]any, key string) string {
	return strings.TrimSpace(stringOf(m[key]))
}

func stringOf(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
