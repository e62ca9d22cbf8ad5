package apiserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alchemorsel/nutriplan/internal/domain/blueprint"
	"github.com/alchemorsel/nutriplan/internal/infrastructure/config"
	"github.com/alchemorsel/nutriplan/internal/infrastructure/monitoring"
	"github.com/alchemorsel/nutriplan/internal/infrastructure/security"
	apperrors "github.com/alchemorsel/nutriplan/pkg/errors"
	"github.com/alchemorsel/nutriplan/test/testutils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestServer(t *testing.T, requireAuthOnly bool) (*APIServer, *testutils.MockBlueprintService, *security.AuthService, *prometheus.Registry) {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:           "127.0.0.1",
			Port:           8080,
			EnableCORS:     true,
			AllowedOrigins: []string{"*"},
			RequestTimeout: time.Minute,
			RateLimitRPS:   100,
			RateLimitBurst: 100,
		},
		Auth: config.AuthConfig{
			JWTSecret:       "api-server-test-secret-32-bytes-xx",
			JWTIssuer:       "nutriplan",
			ElevatedTiers:   []string{"premium", "pro"},
			RequireAuthOnly: requireAuthOnly,
		},
	}
	logger := zaptest.NewLogger(t)
	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetricsCollectorWithRegistry(reg, reg, logger)
	auth := security.NewAuthService(cfg, logger)
	service := new(testutils.MockBlueprintService)

	return NewAPIServer(cfg, logger, service, auth, metrics), service, auth, reg
}

func bearer(t *testing.T, auth *security.AuthService, userID, tier string) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, tier, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func requestCount(t *testing.T, reg *prometheus.Registry, route, status string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "nutriplan_http_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			labels := map[string]string{}
			for _, l := range metric.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["route"] == route && labels["status_code"] == status {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestAPIServer_GetPlanEndToEnd(t *testing.T) {
	server, service, auth, reg := newTestServer(t, false)
	monday := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	plan := testutils.NewPlanBuilder(5).WithUser("user-42").WithWeek(monday).Build()
	service.On("GetPlan", mock.Anything, "user-42", monday).Return(plan, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/blueprints/2026-10-19", nil)
	req.Header.Set("Authorization", bearer(t, auth, "user-42", "pro"))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Type"))

	var doc blueprint.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "2026-10-19", doc.WeekStartDate)

	assert.Equal(t, 1.0, requestCount(t, reg, "/api/v1/blueprints/{week}", "200"))
	service.AssertExpectations(t)
}

func TestAPIServer_EntitlementRequired(t *testing.T) {
	server, service, auth, _ := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/blueprints", nil)
	req.Header.Set("Authorization", bearer(t, auth, "user-1", "free"))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, apperrors.CodeEntitlementDenied, body.Error.Code)
	assert.NotEmpty(t, body.Error.RequestID)
	service.AssertNotCalled(t, "ListPlans", mock.Anything, mock.Anything, mock.Anything)
}

func TestAPIServer_RequireAuthOnlySkipsTierCheck(t *testing.T) {
	server, service, auth, _ := newTestServer(t, true)
	service.On("ListPlans", mock.Anything, "user-1", 0).Return([]blueprint.Summary{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/blueprints", nil)
	req.Header.Set("Authorization", bearer(t, auth, "user-1", "free"))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	service.AssertExpectations(t)
}

func TestAPIServer_Unauthenticated(t *testing.T) {
	server, _, _, _ := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/blueprints/2026-10-19", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPIServer_OpenAPI(t *testing.T) {
	server, _, _, _ := newTestServer(t, false)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/openapi.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "3.0.3", doc["openapi"])
	paths, ok := doc["paths"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, paths, "/blueprints/{week}")

	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/openapi.yaml", nil))
	assert.Equal(t, "application/x-yaml", rec.Header().Get("Content-Type"))
}
