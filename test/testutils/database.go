// Package testutils provides common testing utilities and infrastructure setup
package testutils

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alchemorsel/nutriplan/internal/infrastructure/persistence/migrations"
	"github.com/alchemorsel/nutriplan/internal/infrastructure/persistence/sqlite"
	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB returns a migrated in-memory database that is closed with the test
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := sqlite.SetupDatabase("", logger.Silent)
	require.NoError(t, err, "Failed to open sqlite test database")

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// TestDatabase provides a PostgreSQL container with the versioned schema applied
type TestDatabase struct {
	Container testcontainers.Container
	GormDB    *gorm.DB
	DSN       string
	t         *testing.T
}

// DatabaseConfig holds test database configuration
type DatabaseConfig struct {
	Image    string
	Database string
	Username string
	Password string
	Port     string
}

// DefaultDatabaseConfig returns the default test database configuration
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Image:    "postgres:15-alpine",
		Database: "nutriplan_test",
		Username: "test_user",
		Password: "test_password",
		Port:     "5432",
	}
}

// SetupTestDatabase starts postgres in a container and runs migrations
func SetupTestDatabase(t *testing.T) *TestDatabase {
	return SetupTestDatabaseWithConfig(t, DefaultDatabaseConfig())
}

// SetupTestDatabaseWithConfig creates a test database with custom configuration
func SetupTestDatabaseWithConfig(t *testing.T, cfg DatabaseConfig) *TestDatabase {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        cfg.Image,
			ExposedPorts: []string{cfg.Port + "/tcp"},
			Env: map[string]string{
				"POSTGRES_DB":       cfg.Database,
				"POSTGRES_USER":     cfg.Username,
				"POSTGRES_PASSWORD": cfg.Password,
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
			Tmpfs: map[string]string{"/var/lib/postgresql/data": "rw"},
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start postgres container")

	testDB := &TestDatabase{Container: container, t: t}
	t.Cleanup(testDB.Cleanup)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, nat.Port(cfg.Port+"/tcp"))
	require.NoError(t, err)

	testDB.DSN = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.Username, cfg.Password, host, port.Port(), cfg.Database)

	testDB.GormDB, err = gorm.Open(postgres.Open(testDB.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to create GORM connection")

	sqlDB, err := testDB.GormDB.DB()
	require.NoError(t, err)
	migrator, err := migrations.New(sqlDB, cfg.Database, zaptest.NewLogger(t))
	require.NoError(t, err, "Failed to create migrator")
	require.NoError(t, migrator.Up(), "Failed to run migrations")

	return testDB
}

// TruncateAllTables removes all rows while preserving the schema
func (td *TestDatabase) TruncateAllTables() error {
	for _, table := range []string{"plan_meals", "plans", "nutrition_profiles"} {
		if err := td.GormDB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}
	return nil
}

// CountRecords counts rows in a table
func (td *TestDatabase) CountRecords(table string) (int64, error) {
	var count int64
	err := td.GormDB.Table(table).Count(&count).Error
	return count, err
}

// Cleanup closes connections and stops the container
func (td *TestDatabase) Cleanup() {
	if td.GormDB != nil {
		if sqlDB, err := td.GormDB.DB(); err == nil {
			sqlDB.Close()
		}
	}
	if td.Container != nil {
		if err := td.Container.Terminate(context.Background()); err != nil {
			td.t.Logf("Failed to terminate postgres container: %v", err)
		}
	}
}
