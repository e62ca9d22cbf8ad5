// Package middleware provides Chi-compatible middleware for the blueprint API server
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/alchemorsel/nutriplan/internal/infrastructure/monitoring"
	"github.com/alchemorsel/nutriplan/internal/infrastructure/security"
	apperrors "github.com/alchemorsel/nutriplan/pkg/errors"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type contextKey string

const (
	userIDKey  contextKey = "user_id"
	tierKey    contextKey = "tier"
	requestKey contextKey = "request_info"
)

// requestInfo lets inner middleware report the authenticated user to Logger
type requestInfo struct {
	userID string
}

// Logger creates a Chi-compatible logging middleware
func Logger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			info := &requestInfo{}
			if userID, ok := GetUserIDFromContext(r.Context()); ok {
				info.userID = userID
			}

			next.ServeHTTP(wrapped, r.WithContext(context.WithValue(r.Context(), requestKey, info)))

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Int("status_code", wrapped.statusCode),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", chimiddleware.GetReqID(r.Context())),
			}
			if traceID := monitoring.TraceIDFromContext(r.Context()); traceID != "" {
				fields = append(fields, zap.String("trace_id", traceID))
			}
			if info.userID != "" {
				fields = append(fields, zap.String("user_id", info.userID))
			}

			if wrapped.statusCode >= http.StatusInternalServerError {
				logger.Error("API Request", fields...)
				return
			}
			logger.Info("API Request", fields...)
		})
	}
}

// Security adds security headers for API responses
func Security() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			w.Header().Set("Referrer-Policy", "no-referrer")
			w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			w.Header().Set("Cache-Control", "no-store")
			next.ServeHTTP(w, r)
		})
	}
}

// CORS adds CORS headers for the configured origins. A "*" entry allows any origin.
func CORS(allowedOrigins []string) func(next http.Handler) http.Handler {
	allowAll := false
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				if _, ok := allowed[origin]; ok || allowAll {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Add("Vary", "Origin")
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
					w.Header().Set("Access-Control-Max-Age", "86400")
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// JSONOnly forces JSON responses and rejects non-JSON request bodies
func JSONOnly() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")

			if r.Method == http.MethodPost && r.ContentLength != 0 {
				if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
					WriteError(w, r, apperrors.NewAppError(apperrors.CodeBadRequest,
						"Content-Type must be application/json", ""), http.StatusUnsupportedMediaType)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Authenticate verifies the bearer token and, unless tierCheck is false,
// requires an elevated subscription tier.
func Authenticate(authService *security.AuthService, tierCheck bool, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := security.ParseBearer(r.Header.Get("Authorization"))
			if err != nil {
				WriteError(w, r, apperrors.NewUnauthorizedError(""), 0)
				return
			}

			claims, err := authService.ValidateToken(token)
			if err != nil {
				logger.Debug("Rejected token", zap.Error(err))
				WriteError(w, r, apperrors.NewUnauthorizedError("Invalid or expired token"), 0)
				return
			}

			if tierCheck && !authService.IsElevated(claims.Tier) {
				WriteError(w, r, apperrors.NewEntitlementError(claims.Tier), 0)
				return
			}

			if info, ok := r.Context().Value(requestKey).(*requestInfo); ok {
				info.userID = claims.UserID
			}
			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			ctx = context.WithValue(ctx, tierKey, claims.Tier)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserRateLimiter holds one token bucket per authenticated user
type UserRateLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	limiters map[string]*userLimiter
	now      func() time.Time
}

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewUserRateLimiter creates a limiter allowing rps requests per second per user.
// rps <= 0 disables limiting.
func NewUserRateLimiter(rps float64, burst int) *UserRateLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &UserRateLimiter{
		limit:    limit,
		burst:    burst,
		idleTTL:  10 * time.Minute,
		limiters: make(map[string]*userLimiter),
		now:      time.Now,
	}
}

// Allow reports whether the user may make another request now
func (l *UserRateLimiter) Allow(userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.limiters[userID]
	if !ok {
		l.sweep(now)
		entry = &userLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[userID] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// sweep drops limiters idle for longer than idleTTL. Caller holds mu.
func (l *UserRateLimiter) sweep(now time.Time) {
	for id, entry := range l.limiters {
		if now.Sub(entry.lastSeen) > l.idleTTL {
			delete(l.limiters, id)
		}
	}
}

// Middleware rejects requests over the per-user limit with 429.
// It must run after Authenticate.
func (l *UserRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := GetUserIDFromContext(r.Context())
		if !l.Allow(userID) {
			w.Header().Set("Retry-After", "1")
			WriteError(w, r, apperrors.NewAppError(apperrors.CodeTooManyRequests, "Rate limit exceeded", ""), 0)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WriteError renders err as the standard error envelope. A zero status uses
// the status mapped from the error code.
func WriteError(w http.ResponseWriter, r *http.Request, err error, status int) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.NewInternalError("")
	}
	if status == 0 {
		status = appErr.StatusCode()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apperrors.ToErrorResponse(appErr, chimiddleware.GetReqID(r.Context())))
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// GetUserIDFromContext extracts user ID from request context
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok && userID != ""
}

// GetTierFromContext extracts the subscription tier from request context
func GetTierFromContext(ctx context.Context) (string, bool) {
	tier, ok := ctx.Value(tierKey).(string)
	return tier, ok
}

// WithUser returns a context carrying an authenticated user, for handler tests
func WithUser(ctx context.Context, userID, tier string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, tierKey, tier)
}
