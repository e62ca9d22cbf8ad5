package monitoring

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alchemorsel/nutriplan/internal/infrastructure/config"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OpsServer serves metrics and probes on a port separate from the public API
type OpsServer struct {
	engine  *gin.Engine
	server  *http.Server
	health  *HealthCheckManager
	version string
	logger  *zap.Logger
}

// NewOpsServer builds the gin engine for /metrics, liveness and readiness
func NewOpsServer(cfg *config.Config, metrics *MetricsCollector, health *HealthCheckManager, logger *zap.Logger) *OpsServer {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &OpsServer{
		engine:  gin.New(),
		health:  health,
		version: cfg.App.Version,
		logger:  logger.Named("ops"),
	}
	s.engine.Use(gin.Recovery())

	if cfg.Monitoring.EnableMetrics && metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(metrics.Handler()))
	}
	s.engine.GET(cfg.Monitoring.HealthCheckPath, s.liveness)
	s.engine.GET(cfg.Monitoring.ReadinessPath, s.readiness)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Monitoring.MetricsPort),
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the engine for tests
func (s *OpsServer) Handler() http.Handler {
	return s.engine
}

func (s *OpsServer) liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    StatusHealthy,
		"version":   s.version,
		"timestamp": time.Now().UTC(),
	})
}

func (s *OpsServer) readiness(c *gin.Context) {
	checks, healthy := s.health.CheckAll(c.Request.Context())

	status, code := StatusHealthy, http.StatusOK
	if !healthy {
		status, code = StatusUnhealthy, http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status": status,
		"checks": checks,
	})
}

// Start listens in the background
func (s *OpsServer) Start() error {
	go func() {
		s.logger.Info("Ops server listening", zap.String("addr", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Ops server failed", zap.Error(err))
		}
	}()
	return nil
}

// Stop shuts the server down gracefully
func (s *OpsServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
