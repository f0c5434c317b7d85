package e2e

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap/zaptest"

	"github.com/pathforge/api/internal/handler"
	"github.com/pathforge/api/internal/middleware"
	"github.com/pathforge/api/internal/model"
	"github.com/pathforge/api/internal/refine"
	"github.com/pathforge/api/internal/service"
	"github.com/pathforge/api/internal/storage"
	"github.com/pathforge/api/pkg/response"
)

// testApp holds all components needed for testing
type testApp struct {
	app   *fiber.App
	blobs *storage.MemoryStore
}

// setupApp creates a Fiber app wired like main.go with in-memory backends, no
// Redis, no queue and refinement disabled.
func setupApp(t *testing.T) *testApp {
	t.Helper()
	logger := zaptest.NewLogger(t)

	blobs := storage.NewMemoryStore()
	store := storage.NewArtifactStore(blobs, storage.NewMemoryIndex())

	ingestService := service.NewIngestService(store, refine.Disabled{}, nil, nil, logger, service.IngestOptions{
		RapidVariant: model.RapidVariantBasic,
	})
	queryService := service.NewQueryService(store, logger)

	telemetryHandler := handler.NewTelemetryHandler(ingestService, logger)
	latestHandler := handler.NewLatestHandler(queryService)
	systemHandler := handler.NewSystemHandler(handler.HealthInfo{
		Storage: "memory",
		Index:   "memory",
	})
	rateLimiter := middleware.NewRateLimiter(nil)

	app := fiber.New(fiber.Config{
		ErrorHandler: response.ErrorHandler,
		BodyLimit:    10 * 1024 * 1024,
	})

	app.Get("/", systemHandler.Root)
	app.Get("/health", systemHandler.Health)

	api := app.Group("/api")
	api.Post("/telemetry", rateLimiter.IngestLimit(10000), telemetryHandler.Ingest)

	latest := app.Group("/latest")
	latest.Get("/status", latestHandler.Status)
	latest.Get("/path", latestHandler.Path)
	latest.Get("/code", latestHandler.Code)

	return &testApp{app: app, blobs: blobs}
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// postTelemetry ingests a body and returns the decoded response.
func postTelemetry(t *testing.T, app *fiber.App, body string) map[string]interface{} {
	t.Helper()
	resp, err := doRequest(app, http.MethodPost, "/api/telemetry", body, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusCreated)
	return parseJSON(t, resp)
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}
