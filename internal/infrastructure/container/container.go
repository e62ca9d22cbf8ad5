// Package container provides dependency injection using Uber FX
package container

import (
	"context"
	"fmt"

	appblueprint "github.com/alchemorsel/nutriplan/internal/application/blueprint"
	"github.com/alchemorsel/nutriplan/internal/infrastructure/ai"
	"github.com/alchemorsel/nutriplan/internal/infrastructure/config"
	"github.com/alchemorsel/nutriplan/internal/infrastructure/http/apiserver"
	"github.com/alchemorsel/nutriplan/internal/infrastructure/messaging"
	"github.com/alchemorsel/nutriplan/internal/infrastructure/messaging/kafka"
	"github.com/alchemorsel/nutriplan/internal/infrastructure/monitoring"
	"github.com/alchemorsel/nutriplan/internal/infrastructure/nutrition"
	gormRepo "github.com/alchemorsel/nutriplan/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/nutriplan/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/nutriplan/internal/infrastructure/persistence/postgres"
	redisRepo "github.com/alchemorsel/nutriplan/internal/infrastructure/persistence/redis"
	"github.com/alchemorsel/nutriplan/internal/infrastructure/persistence/sqlite"
	"github.com/alchemorsel/nutriplan/internal/infrastructure/security"
	"github.com/alchemorsel/nutriplan/internal/ports/inbound"
	"github.com/alchemorsel/nutriplan/internal/ports/outbound"
	"github.com/alchemorsel/nutriplan/pkg/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Module provides all dependency injection modules
var Module = fx.Options(
	// Infrastructure modules
	ConfigModule,
	LoggerModule,
	MonitoringModule,
	DatabaseModule,
	CacheModule,

	// Repository modules
	RepositoryModule,

	// Outbound adapters
	AIModule,
	EventModule,

	// Service modules
	ServiceModule,

	// HTTP modules
	HTTPModule,

	// Lifecycle hooks
	LifecycleModule,
)

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func() (*config.Config, error) {
		return config.Load("")
	},
)

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
			Service:     cfg.App.Name,
		})
	},
)

// MonitoringModule provides metrics, tracing and readiness checks
var MonitoringModule = fx.Provide(
	monitoring.NewMetricsCollector,
	func(m *monitoring.MetricsCollector) outbound.PipelineMetrics { return m },
	monitoring.NewHealthCheckManager,
	monitoring.NewOpsServer,
	func(cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
		return monitoring.NewTracingProvider(context.Background(), cfg, log)
	},
)

// DatabaseModule provides the GORM handle for the configured driver
var DatabaseModule = fx.Provide(NewDatabase)

// NewDatabase opens sqlite or postgres and registers its readiness check
func NewDatabase(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, health *monitoring.HealthCheckManager) (*gorm.DB, error) {
	var db *gorm.DB

	switch cfg.Database.Driver {
	case "postgres":
		cm, err := postgres.NewConnectionManager(cfg, log)
		if err != nil {
			return nil, err
		}
		db = cm.GetDB()
		health.RegisterCheck("database", monitoring.CheckFunc(cm.HealthCheck))
		lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { return cm.Close() }})

	default:
		var err error
		db, err = sqlite.SetupDatabase(cfg.Database.Database, sqlite.ParseLogLevel(cfg.Database.LogLevel))
		if err != nil {
			return nil, fmt.Errorf("failed to setup SQLite database: %w", err)
		}
		if cfg.IsDevelopment() {
			if err := sqlite.SeedDatabase(db); err != nil {
				log.Warn("Failed to seed database", zap.Error(err))
			}
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		health.RegisterCheck("database", monitoring.CheckFunc(sqlDB.PingContext))
		lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { return sqlDB.Close() }})

		log.Info("Connected to SQLite database", zap.String("path", cfg.Database.Database))
	}

	return db, nil
}

// CacheResult carries the cache and the regeneration lock backend
type CacheResult struct {
	fx.Out

	Cache  outbound.CacheRepository
	Locker outbound.PlanLocker
}

// CacheModule provides caching and plan locks
var CacheModule = fx.Provide(NewCache)

// NewCache uses Redis when enabled and process-local stores otherwise
func NewCache(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, health *monitoring.HealthCheckManager) (CacheResult, error) {
	if !cfg.Redis.Enabled {
		log.Info("Redis disabled, using in-memory cache and locks")
		cache := memory.NewCacheRepository()
		lc.Append(fx.Hook{OnStop: func(ctx context.Context) error {
			cache.Close()
			return nil
		}})
		return CacheResult{Cache: cache, Locker: memory.NewLocker()}, nil
	}

	client, err := redisRepo.NewClient(cfg.Redis, log)
	if err != nil {
		return CacheResult{}, err
	}
	health.RegisterCheck("redis", monitoring.CheckFunc(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}))
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { return client.Close() }})

	return CacheResult{
		Cache:  redisRepo.NewCacheRepository(client, log),
		Locker: redisRepo.NewLocker(client, log),
	}, nil
}

// RepositoryModule provides repository implementations
var RepositoryModule = fx.Provide(
	fx.Annotate(
		gormRepo.NewPlanRepository,
		fx.As(new(outbound.PlanRepository)),
	),
	fx.Annotate(
		gormRepo.NewProfileRepository,
		fx.As(new(outbound.ProfileRepository)),
	),
)

// AIModule provides the text generator and the nutrition lookup client
var AIModule = fx.Provide(
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (outbound.TextGenerator, error) {
		generator, err := ai.NewTextGenerator(context.Background(), cfg.AI, log)
		if err != nil {
			return nil, err
		}
		if closer, ok := generator.(ai.Closer); ok {
			lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { return closer.Close() }})
		}
		return generator, nil
	},
	func(cfg *config.Config, log *zap.Logger) outbound.NutritionLookup {
		return nutrition.NewClient(cfg.Nutrition, log)
	},
)

// EventModule provides the event publisher
var EventModule = fx.Provide(
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) outbound.EventPublisher {
		var publisher outbound.EventPublisher
		if cfg.Kafka.Enabled {
			publisher = kafka.NewPublisher(cfg.Kafka, log)
		} else {
			publisher = messaging.NewLogPublisher(log)
		}
		lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { return publisher.Close() }})
		return publisher
	},
)

// ServiceModule provides the pipeline components and the blueprint service
var ServiceModule = fx.Provide(
	appblueprint.NewPromptBuilder,
	func(cfg *config.Config, plans outbound.PlanRepository, log *zap.Logger) *appblueprint.Advisor {
		return appblueprint.NewAdvisor(plans, cfg.Generation.HistoryWindow, log)
	},
	func(cfg *config.Config, generator outbound.TextGenerator, metrics outbound.PipelineMetrics, log *zap.Logger) *appblueprint.Orchestrator {
		return appblueprint.NewOrchestrator(generator, cfg.AI.Retry, metrics, log)
	},
	func(cfg *config.Config, metrics outbound.PipelineMetrics, log *zap.Logger) *appblueprint.MacroValidator {
		return appblueprint.NewMacroValidator(cfg.Generation.DeviationThreshold, metrics, log)
	},
	func(cfg *config.Config, log *zap.Logger) *appblueprint.Aggregator {
		return appblueprint.NewAggregator(cfg.Generation.Aggregator, log)
	},
	NewRecalculator,
	NewBlueprintService,
)

// NewRecalculator returns nil when recalculation is disabled
func NewRecalculator(
	cfg *config.Config,
	plans outbound.PlanRepository,
	lookup outbound.NutritionLookup,
	cache outbound.CacheRepository,
	publisher outbound.EventPublisher,
	metrics outbound.PipelineMetrics,
	log *zap.Logger,
) *appblueprint.Recalculator {
	if !cfg.Recalc.Enabled {
		log.Info("Macro recalculation disabled")
		return nil
	}
	return appblueprint.NewRecalculator(plans, lookup, cache, publisher, cfg.Recalc.Topic, cfg.Recalc.Policy, metrics, log)
}

// ServiceParams groups the blueprint service collaborators
type ServiceParams struct {
	fx.In

	Config       *config.Config
	Logger       *zap.Logger
	Profiles     outbound.ProfileRepository
	Plans        outbound.PlanRepository
	Cache        outbound.CacheRepository
	Locker       outbound.PlanLocker
	Publisher    outbound.EventPublisher
	Metrics      outbound.PipelineMetrics
	Advisor      *appblueprint.Advisor
	Prompts      *appblueprint.PromptBuilder
	Orchestrator *appblueprint.Orchestrator
	Validator    *appblueprint.MacroValidator
	Aggregator   *appblueprint.Aggregator
	Recalculator *appblueprint.Recalculator
}

// NewBlueprintService wires the pipeline into the inbound port
func NewBlueprintService(p ServiceParams) inbound.BlueprintService {
	return appblueprint.NewService(appblueprint.Dependencies{
		Profiles:     p.Profiles,
		Plans:        p.Plans,
		Cache:        p.Cache,
		Locker:       p.Locker,
		Publisher:    p.Publisher,
		Advisor:      p.Advisor,
		Prompts:      p.Prompts,
		Orchestrator: p.Orchestrator,
		Validator:    p.Validator,
		Aggregator:   p.Aggregator,
		Recalculator: p.Recalculator,
		Metrics:      p.Metrics,
	}, p.Config.Generation.Service, p.Logger)
}

// HTTPModule provides the API server and its authentication
var HTTPModule = fx.Provide(
	security.NewAuthService,
	apiserver.NewAPIServer,
)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
)

// LifecycleParams groups the components started and stopped with the app
type LifecycleParams struct {
	fx.In

	Lifecycle    fx.Lifecycle
	Shutdowner   fx.Shutdowner
	Config       *config.Config
	Logger       *zap.Logger
	Server       *apiserver.APIServer
	OpsServer    *monitoring.OpsServer
	Tracing      *monitoring.TracingProvider
	Recalculator *appblueprint.Recalculator
}

// RegisterLifecycleHooks registers application lifecycle hooks
func RegisterLifecycleHooks(p LifecycleParams) {
	cfg, log := p.Config, p.Logger

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting nutriplan",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
				zap.String("ai_provider", cfg.AI.Provider),
				zap.String("database", cfg.Database.Driver),
			)

			if p.Recalculator != nil {
				p.Recalculator.Start()
			}

			if err := p.OpsServer.Start(); err != nil {
				return err
			}

			go func() {
				if err := p.Server.Start(); err != nil {
					log.Error("HTTP server failed", zap.Error(err))
					_ = p.Shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down nutriplan")

			if err := p.Server.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}

			if p.Recalculator != nil {
				if err := p.Recalculator.Stop(ctx); err != nil {
					log.Warn("Recalculator did not drain before shutdown", zap.Error(err))
				}
			}

			if err := p.OpsServer.Stop(ctx); err != nil {
				log.Error("Failed to shutdown ops server", zap.Error(err))
			}

			if err := p.Tracing.Shutdown(ctx); err != nil {
				log.Warn("Failed to flush traces", zap.Error(err))
			}

			_ = log.Sync()
			return nil
		},
	})
}
