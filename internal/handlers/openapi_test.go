package handlers

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
)

func newOpenAPIRouter(path string) *mux.Router {
	r := mux.NewRouter()
	NewOpenAPIHandler(path, nil).RegisterRoutes(r)
	return r
}

func TestOpenAPIHandler_ServesDocument(t *testing.T) {
	t.Parallel()

	router := newOpenAPIRouter(filepath.Join("..", "..", "api", "openapi", "openapi.yaml"))

	rr := serve(router, http.MethodGet, "/api/v1/openapi.yaml", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/x-yaml" {
		t.Errorf("Expected application/x-yaml, got %q", ct)
	}

	rr = serve(router, http.MethodGet, "/api/v1/openapi.json", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	var doc struct {
		OpenAPI string                    `json:"openapi"`
		Paths   map[string]map[string]any `json:"paths"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &doc); err != nil {
		t.Fatalf("JSON document does not decode: %v", err)
	}
	if doc.OpenAPI == "" {
		t.Error("Expected openapi version field")
	}

	routes := map[string]string{
		"/api/v1/tasks":                        "post",
		"/api/v1/tasks/prioritized":            "get",
		"/api/v1/tasks/{id}":                   "patch",
		"/api/v1/tasks/{id}/complete":          "post",
		"/api/v1/exams/upcoming":               "get",
		"/api/v1/stats/weekly":                 "get",
		"/api/v1/export/csv":                   "get",
		"/api/v1/timer/settings":               "put",
		"/api/v1/ai/recommendations/jobs/{id}": "get",
	}
	for path, method := range routes {
		if _, ok := doc.Paths[path][method]; !ok {
			t.Errorf("Document missing %s %s", method, path)
		}
	}
}

func TestOpenAPIHandler_MissingDocument(t *testing.T) {
	t.Parallel()

	router := newOpenAPIRouter(filepath.Join(t.TempDir(), "missing.yaml"))
	for _, target := range []string{"/api/v1/openapi.yaml", "/api/v1/openapi.json"} {
		if rr := serve(router, http.MethodGet, target, "", nil); rr.Code != http.StatusNotFound {
			t.Errorf("%s: expected status 404, got %d", target, rr.Code)
		}
	}
}
