// Package postgres provides PostgreSQL database connection and management
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/alchemorsel/nutriplan/internal/infrastructure/config"
	gormModels "github.com/alchemorsel/nutriplan/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/nutriplan/internal/infrastructure/persistence/migrations"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"
)

// ConnectionManager owns the primary connection and any read replicas
type ConnectionManager struct {
	config  *config.Config
	logger  *zap.Logger
	db      *gorm.DB
	writeDB *sql.DB
}

// NewConnectionManager opens the primary connection, registers replicas and migrates
func NewConnectionManager(cfg *config.Config, log *zap.Logger) (*ConnectionManager, error) {
	cm := &ConnectionManager{config: cfg, logger: log.Named("postgres")}

	if err := cm.initializePrimaryConnection(); err != nil {
		return nil, fmt.Errorf("failed to initialize primary connection: %w", err)
	}

	if err := cm.initializeReadReplicas(); err != nil {
		cm.logger.Warn("Failed to initialize read replicas", zap.Error(err))
	}

	if cfg.Database.AutoMigrate {
		if err := cm.migrate(); err != nil {
			return nil, err
		}
	}

	cm.logger.Info("Database connection manager initialized",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
		zap.Int("replicas", len(cfg.Database.Replicas)),
		zap.Duration("slow_query_threshold", cfg.Database.SlowQueryThreshold),
	)

	return cm, nil
}

// migrate applies the versioned schema, falling back to GORM AutoMigrate in development
func (cm *ConnectionManager) migrate() error {
	migrator, err := migrations.New(cm.writeDB, cm.config.Database.Database, cm.logger)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := migrator.Up(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if cm.config.IsDevelopment() {
		if err := cm.db.AutoMigrate(gormModels.Models()...); err != nil {
			return fmt.Errorf("failed to reconcile models: %w", err)
		}
	}
	return nil
}

// initializePrimaryConnection sets up the primary database connection
func (cm *ConnectionManager) initializePrimaryConnection() error {
	db, err := gorm.Open(postgres.Open(cm.config.GetDSN()), &gorm.Config{
		Logger:      cm.createGORMLogger(),
		PrepareStmt: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cm.config.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cm.config.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cm.config.Database.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cm.config.Database.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	cm.db = db
	cm.writeDB = sqlDB
	return nil
}

// initializeReadReplicas routes history reads to replicas through dbresolver
func (cm *ConnectionManager) initializeReadReplicas() error {
	if len(cm.config.Database.Replicas) == 0 {
		return nil
	}

	db := cm.config.Database
	replicas := make([]gorm.Dialector, len(db.Replicas))
	for i, host := range db.Replicas {
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			host, db.Port, db.Username, db.Password, db.Database, db.SSLMode)
		replicas[i] = postgres.Open(dsn)
	}

	err := cm.db.Use(dbresolver.Register(dbresolver.Config{
		Replicas: replicas,
		Policy:   dbresolver.RandomPolicy{},
	}).
		SetMaxOpenConns(db.MaxOpenConns).
		SetMaxIdleConns(db.MaxIdleConns).
		SetConnMaxLifetime(db.ConnMaxLifetime))
	if err != nil {
		return fmt.Errorf("failed to register read replicas: %w", err)
	}

	cm.logger.Info("Read replicas configured", zap.Int("replica_count", len(replicas)))
	return nil
}

// createGORMLogger routes GORM output through zap
func (cm *ConnectionManager) createGORMLogger() logger.Interface {
	logLevel := logger.Warn
	switch cm.config.Database.LogLevel {
	case "debug", "info":
		logLevel = logger.Info
	case "error":
		logLevel = logger.Error
	case "silent":
		logLevel = logger.Silent
	}

	return logger.New(
		&GORMLogWriter{logger: cm.logger},
		logger.Config{
			SlowThreshold:             cm.config.Database.SlowQueryThreshold,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// GetDB returns the main database connection
func (cm *ConnectionManager) GetDB() *gorm.DB {
	return cm.db
}

// HealthCheck pings the primary
func (cm *ConnectionManager) HealthCheck(ctx context.Context) error {
	if err := cm.writeDB.PingContext(ctx); err != nil {
		return fmt.Errorf("primary database ping failed: %w", err)
	}
	return nil
}

// Close closes the primary connection pool
func (cm *ConnectionManager) Close() error {
	if cm.writeDB == nil {
		return nil
	}
	return cm.writeDB.Close()
}

// GORMLogWriter implements GORM's Writer interface on zap
type GORMLogWriter struct {
	logger *zap.Logger
}

// Printf implements the Writer interface
func (w *GORMLogWriter) Printf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)

	switch {
	case strings.Contains(msg, "SLOW SQL"):
		w.logger.Warn("GORM slow query", zap.String("message", msg))
	case strings.Contains(msg, "error"):
		w.logger.Error("GORM error", zap.String("message", msg))
	default:
		w.logger.Debug("GORM query", zap.String("message", msg))
	}
}
