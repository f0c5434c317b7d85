package e2e

import (
	"net/http"
	"strings"
	"testing"
)

const scenarioBody = `{
	"robot_model": "ur5",
	"source_id": "glove-01",
	"path_points": [
		{"x": -210, "y": -83, "z": -1121},
		{"x": -200, "y": -80, "z": -1100},
		{"x": 150, "y": 20, "z": -900}
	],
	"grasp_events": [{"index": 1, "event": "grasp"}]
}`

func getJSON(t *testing.T, ta *testApp, path string) map[string]interface{} {
	t.Helper()
	resp, err := doRequest(ta.app, http.MethodGet, path, "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
	return parseJSON(t, resp)
}

func TestLatest_BeforeAnyJob(t *testing.T) {
	ta := setupApp(t)

	status := getJSON(t, ta, "/latest/status")
	if status["valid"] != false {
		t.Errorf("expected valid false, got %v", status["valid"])
	}
	if status["message"] != "Awaiting data" {
		t.Errorf("expected 'Awaiting data', got %v", status["message"])
	}

	path := getJSON(t, ta, "/latest/path")
	inner, ok := path["path"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected 'path' object, got %v", path)
	}
	points, ok := inner["points"].([]interface{})
	if !ok || len(points) != 0 {
		t.Errorf("expected empty points array, got %v", inner["points"])
	}

	code := getJSON(t, ta, "/latest/code")
	for _, dialect := range []string{"karel", "krl", "rapid"} {
		if code[dialect] != "Awaiting code..." {
			t.Errorf("expected placeholder for %s, got %v", dialect, code[dialect])
		}
	}
}

func TestIngest_ValidScenario(t *testing.T) {
	ta := setupApp(t)

	result := postTelemetry(t, ta.app, scenarioBody)
	if result["jobId"] == nil || result["jobId"] == "" {
		t.Error("expected 'jobId' in response")
	}
	if result["status"] != "VALID" {
		t.Errorf("expected status VALID, got %v", result["status"])
	}
	if result["pointCount"] != float64(3) {
		t.Errorf("expected pointCount 3, got %v", result["pointCount"])
	}
	if result["queued"] != false {
		t.Errorf("expected queued false, got %v", result["queued"])
	}

	status := getJSON(t, ta, "/latest/status")
	if status["valid"] != true || status["message"] != "VALID" {
		t.Errorf("unexpected status %v", status)
	}

	path := getJSON(t, ta, "/latest/path")
	points := path["path"].(map[string]interface{})["points"].([]interface{})
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	first := points[0].(map[string]interface{})
	if first["x"] != -0.21 || first["z"] != -1.121 {
		t.Errorf("expected meters in first point, got %v", first)
	}
	second := points[1].(map[string]interface{})
	if second["grasp"] != true {
		t.Errorf("expected grasp on second point, got %v", second)
	}

	code := getJSON(t, ta, "/latest/code")
	karel, _ := code["karel"].(string)
	if !strings.Contains(karel, "MOVE TO POS(-0.210, -0.083, -1.121") {
		t.Errorf("unexpected KAREL program:\n%s", karel)
	}
	krl, _ := code["krl"].(string)
	if !strings.HasPrefix(krl, "DEF ") {
		t.Errorf("unexpected KRL program:\n%s", krl)
	}
	rapid, _ := code["rapid"].(string)
	if !strings.HasPrefix(rapid, "MODULE ") {
		t.Errorf("unexpected RAPID program:\n%s", rapid)
	}
}

func TestIngest_SinglePointIsInvalid(t *testing.T) {
	ta := setupApp(t)

	result := postTelemetry(t, ta.app, `{"path_points": [{"x": 1, "y": 2, "z": 3}]}`)
	if result["status"] != "INVALID" {
		t.Errorf("expected status INVALID, got %v", result["status"])
	}

	status := getJSON(t, ta, "/latest/status")
	if status["valid"] != false || status["message"] != "INVALID" {
		t.Errorf("unexpected status %v", status)
	}

	// Programs are still generated for an invalid path
	code := getJSON(t, ta, "/latest/code")
	if code["karel"] == "Awaiting code..." {
		t.Error("expected a generated KAREL program")
	}
}

func TestIngest_MalformedBodyIsStored(t *testing.T) {
	ta := setupApp(t)

	result := postTelemetry(t, ta.app, `{not json`)
	if result["status"] != "INVALID" {
		t.Errorf("expected status INVALID, got %v", result["status"])
	}
	if result["pointCount"] != float64(0) {
		t.Errorf("expected pointCount 0, got %v", result["pointCount"])
	}

	path := getJSON(t, ta, "/latest/path")
	points := path["path"].(map[string]interface{})["points"].([]interface{})
	if len(points) != 0 {
		t.Errorf("expected empty points, got %v", points)
	}
}

func TestIngest_EnvelopeAndArrayPoints(t *testing.T) {
	ta := setupApp(t)

	result := postTelemetry(t, ta.app, `{"payload": {"path_points": [[0, 0, 0], [1000, 2000, 3000]]}}`)
	if result["status"] != "VALID" {
		t.Errorf("expected status VALID, got %v", result["status"])
	}

	path := getJSON(t, ta, "/latest/path")
	points := path["path"].(map[string]interface{})["points"].([]interface{})
	last := points[1].(map[string]interface{})
	if last["x"] != float64(1) || last["y"] != float64(2) || last["z"] != float64(3) {
		t.Errorf("unexpected converted point %v", last)
	}
}

func TestLatest_NewestJobWins(t *testing.T) {
	ta := setupApp(t)

	postTelemetry(t, ta.app, scenarioBody)
	second := postTelemetry(t, ta.app, `{"path_points": [{"x": 5, "y": 5, "z": 5}]}`)

	status := getJSON(t, ta, "/latest/status")
	if status["message"] != "INVALID" {
		t.Errorf("expected the second job to be latest, got %v (job %v)", status, second["jobId"])
	}
}

func TestLatest_DanglingProgramPointer(t *testing.T) {
	ta := setupApp(t)

	result := postTelemetry(t, ta.app, scenarioBody)
	jobID, _ := result["jobId"].(string)
	ta.blobs.Delete(jobID + "/kuka.src")

	code := getJSON(t, ta, "/latest/code")
	if code["krl"] != "Awaiting code..." {
		t.Errorf("expected KRL placeholder, got %v", code["krl"])
	}
	if code["karel"] == "Awaiting code..." {
		t.Error("expected KAREL program to survive a missing KRL blob")
	}
}

func TestIngest_SourceHeaderAccepted(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodPost, "/api/telemetry", scenarioBody, map[string]string{
		"X-Source-Id": "glove-02",
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusCreated)
}
