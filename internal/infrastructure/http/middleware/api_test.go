package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alchemorsel/nutriplan/internal/infrastructure/config"
	"github.com/alchemorsel/nutriplan/internal/infrastructure/security"
	apperrors "github.com/alchemorsel/nutriplan/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func newAuthService(t *testing.T) *security.AuthService {
	cfg := &config.Config{Auth: config.AuthConfig{
		JWTSecret:     "middleware-test-secret-32-bytes-long",
		JWTIssuer:     "nutriplan",
		ElevatedTiers: []string{"premium", "pro"},
	}}
	return security.NewAuthService(cfg, zaptest.NewLogger(t))
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := GetUserIDFromContext(r.Context())
		tier, _ := GetTierFromContext(r.Context())
		_, _ = w.Write([]byte(userID + ":" + tier))
	})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAuthenticate(t *testing.T) {
	auth := newAuthService(t)
	premium, err := auth.GenerateToken("user-1", "premium", time.Hour)
	require.NoError(t, err)
	free, err := auth.GenerateToken("user-2", "free", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name      string
		header    string
		tierCheck bool
		status    int
		code      apperrors.ErrorCode
		body      string
	}{
		{name: "missing header", header: "", tierCheck: true, status: http.StatusUnauthorized, code: apperrors.CodeUnauthorized},
		{name: "garbage token", header: "Bearer not-a-jwt", tierCheck: true, status: http.StatusUnauthorized, code: apperrors.CodeUnauthorized},
		{name: "free tier", header: "Bearer " + free, tierCheck: true, status: http.StatusForbidden, code: apperrors.CodeEntitlementDenied},
		{name: "free tier without tier check", header: "Bearer " + free, tierCheck: false, status: http.StatusOK, body: "user-2:free"},
		{name: "premium tier", header: "Bearer " + premium, tierCheck: true, status: http.StatusOK, body: "user-1:premium"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := Authenticate(auth, tt.tierCheck, zaptest.NewLogger(t))(echoUser())
			req := httptest.NewRequest(http.MethodGet, "/api/v1/blueprints", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.code != "" {
				assert.Equal(t, tt.code, decodeError(t, rec).Error.Code)
				return
			}
			assert.Equal(t, tt.body, rec.Body.String())
		})
	}
}

func TestUserRateLimiter(t *testing.T) {
	limiter := NewUserRateLimiter(1, 2)
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Allow("a"))
	assert.True(t, limiter.Allow("a"))
	assert.False(t, limiter.Allow("a"))
	assert.True(t, limiter.Allow("b"), "buckets are per user")

	now = now.Add(time.Second)
	assert.True(t, limiter.Allow("a"))

	now = now.Add(time.Hour)
	limiter.Allow("c")
	assert.NotContains(t, limiter.limiters, "a")
	assert.NotContains(t, limiter.limiters, "b")
}

func TestUserRateLimiter_Middleware(t *testing.T) {
	limiter := NewUserRateLimiter(0.001, 1)
	handler := limiter.Middleware(echoUser())

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithUser(req.Context(), "user-1", "pro"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send().Code)
	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, apperrors.CodeTooManyRequests, decodeError(t, rec).Error.Code)
}

func TestUserRateLimiter_Disabled(t *testing.T) {
	limiter := NewUserRateLimiter(0, 0)
	for i := 0; i < 100; i++ {
		require.True(t, limiter.Allow("user-1"))
	}
}

func TestJSONOnly(t *testing.T) {
	handler := JSONOnly()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("week_start=2026-10-19"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"week_start":"2026-10-19"}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestCORS(t *testing.T) {
	handler := CORS([]string{"https://app.example.com"})(echoUser())

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestLogger_RecordsUserAndStatus(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	handler := Logger(zap.New(core))(inner)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/blueprints/2026-10-19", nil)
	req = req.WithContext(WithUser(req.Context(), "user-1", "pro"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, int64(http.StatusNotFound), fields["status_code"])
	assert.Equal(t, "user-1", fields["user_id"])
}

func TestLogger_SeesUserSetByAuthenticate(t *testing.T) {
	auth := newAuthService(t)
	token, err := auth.GenerateToken("user-7", "pro", time.Hour)
	require.NoError(t, err)

	core, logs := observer.New(zap.InfoLevel)
	handler := Logger(zap.New(core))(Authenticate(auth, true, zaptest.NewLogger(t))(echoUser()))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/blueprints", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "user-7", logs.All()[0].ContextMap()["user_id"])
}
