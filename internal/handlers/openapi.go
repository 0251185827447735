package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// OpenAPIHandler serves the API description as YAML and as JSON. The document is read
// on first use and kept in memory.
type OpenAPIHandler struct {
	path   string
	logger *zap.Logger

	once    sync.Once
	yamlDoc []byte
	jsonDoc []byte
	loadErr error
}

// NewOpenAPIHandler creates a handler for the YAML document at openAPIPath
func NewOpenAPIHandler(openAPIPath string, logger *zap.Logger) *OpenAPIHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	path, err := filepath.Abs(filepath.Clean(openAPIPath))
	if err != nil {
		path = filepath.Clean(openAPIPath)
	}
	return &OpenAPIHandler{path: path, logger: logger}
}

// RegisterRoutes registers OpenAPI routes
func (h *OpenAPIHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/v1/openapi.yaml", h.ServeYAML).Methods("GET")
	r.HandleFunc("/api/v1/openapi.json", h.ServeJSON).Methods("GET")
}

func (h *OpenAPIHandler) load() error {
	h.once.Do(func() {
		data, err := os.ReadFile(h.path)
		if err != nil {
			h.loadErr = err
			return
		}

		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			h.loadErr = fmt.Errorf("failed to parse OpenAPI document: %w", err)
			return
		}
		jsonDoc, err := json.Marshal(doc)
		if err != nil {
			h.loadErr = fmt.Errorf("failed to convert OpenAPI document: %w", err)
			return
		}
		h.yamlDoc = data
		h.jsonDoc = jsonDoc
	})
	if h.loadErr != nil {
		h.logger.Warn("openapi_document_unavailable", zap.String("path", h.path), zap.Error(h.loadErr))
	}
	return h.loadErr
}

// ServeYAML serves the document as stored
func (h *OpenAPIHandler) ServeYAML(w http.ResponseWriter, r *http.Request) {
	if err := h.load(); err != nil {
		http.Error(w, "OpenAPI specification not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/x-yaml")
	if _, err := w.Write(h.yamlDoc); err != nil {
		h.logger.Warn("openapi_write_failed", zap.Error(err))
	}
}

// ServeJSON serves the document converted to JSON
func (h *OpenAPIHandler) ServeJSON(w http.ResponseWriter, r *http.Request) {
	if err := h.load(); err != nil {
		http.Error(w, "OpenAPI specification not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(h.jsonDoc); err != nil {
		h.logger.Warn("openapi_write_failed", zap.Error(err))
	}
}
