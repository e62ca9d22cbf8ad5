package apiserver

import (
	_ "embed"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openAPISpec []byte

// OpenAPIHandler serves the API description
type OpenAPIHandler struct {
	logger   *zap.Logger
	specJSON []byte
}

// NewOpenAPIHandler creates a new OpenAPI handler. The JSON form is derived
// from the embedded YAML once at startup.
func NewOpenAPIHandler(logger *zap.Logger) *OpenAPIHandler {
	h := &OpenAPIHandler{logger: logger}

	var doc map[string]interface{}
	if err := yaml.Unmarshal(openAPISpec, &doc); err != nil {
		logger.Error("Failed to parse OpenAPI spec", zap.Error(err))
		return h
	}
	specJSON, err := json.Marshal(doc)
	if err != nil {
		logger.Error("Failed to encode OpenAPI spec as JSON", zap.Error(err))
		return h
	}
	h.specJSON = specJSON
	return h
}

// ServeYAML serves the OpenAPI document in YAML format
func (h *OpenAPIHandler) ServeYAML(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/x-yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openAPISpec)
}

// ServeJSON serves the OpenAPI document in JSON format
func (h *OpenAPIHandler) ServeJSON(w http.ResponseWriter, r *http.Request) {
	if h.specJSON == nil {
		http.Error(w, `{"error":"OpenAPI document unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.specJSON)
}
