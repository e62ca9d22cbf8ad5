// Package apiserver provides the JSON API HTTP server for weekly blueprints
package apiserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/alchemorsel/nutriplan/internal/infrastructure/config"
	"github.com/alchemorsel/nutriplan/internal/infrastructure/http/handlers"
	"github.com/alchemorsel/nutriplan/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/nutriplan/internal/infrastructure/monitoring"
	"github.com/alchemorsel/nutriplan/internal/infrastructure/security"
	"github.com/alchemorsel/nutriplan/internal/ports/inbound"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// APIServer serves the blueprint API
type APIServer struct {
	config      *config.Config
	logger      *zap.Logger
	server      *http.Server
	router      *chi.Mux
	service     inbound.BlueprintService
	authService *security.AuthService
	metrics     *monitoring.MetricsCollector
	limiter     *middleware.UserRateLimiter
	openAPI     *OpenAPIHandler
}

// NewAPIServer creates a new API server instance
func NewAPIServer(
	cfg *config.Config,
	log *zap.Logger,
	service inbound.BlueprintService,
	authService *security.AuthService,
	metrics *monitoring.MetricsCollector,
) *APIServer {
	s := &APIServer{
		config:      cfg,
		logger:      log.Named("api-server"),
		service:     service,
		authService: authService,
		metrics:     metrics,
		limiter:     middleware.NewUserRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst),
		openAPI:     NewOpenAPIHandler(log),
	}

	s.router = s.setupRoutes()
	s.server = &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:        otelhttp.NewHandler(s.router, "nutriplan-api"),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	return s
}

// setupRoutes configures the API routes
func (s *APIServer) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}
	r.Use(middleware.Security())
	if s.config.Server.EnableCORS {
		r.Use(middleware.CORS(s.config.Server.AllowedOrigins))
	}
	if s.config.Server.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(s.config.Server.RequestTimeout))
	}
	r.Use(chimiddleware.Compress(5))
	r.Use(middleware.JSONOnly())

	r.Route("/api/v1", func(r chi.Router) {
		s.setupAPIV1Routes(r)
	})

	return r
}

// setupAPIV1Routes configures API v1 endpoints
func (s *APIServer) setupAPIV1Routes(r chi.Router) {
	h := handlers.NewBlueprintHandlers(s.service, s.logger)

	r.Get("/openapi.yaml", s.openAPI.ServeYAML)
	r.Get("/openapi.json", s.openAPI.ServeJSON)

	r.Route("/blueprints", func(r chi.Router) {
		r.Use(middleware.Authenticate(s.authService, !s.config.Auth.RequireAuthOnly, s.logger))
		r.Use(s.limiter.Middleware)

		r.Post("/", h.Generate)
		r.Get("/", h.ListPlans)
		r.Get("/{week}", h.GetPlan)
		r.Delete("/{week}", h.DeletePlan)
	})
}

// Handler returns the routed handler without the tracing wrapper
func (s *APIServer) Handler() http.Handler {
	return s.router
}

// Start runs the server until it is shut down
func (s *APIServer) Start() error {
	s.logger.Info("Starting blueprint API server", zap.String("address", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *APIServer) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down blueprint API server")
	return s.server.Shutdown(ctx)
}
