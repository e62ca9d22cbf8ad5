// Package sqlite provides SQLite database setup and configuration
package sqlite

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alchemorsel/nutriplan/internal/domain/nutrition"
	gormModels "github.com/alchemorsel/nutriplan/internal/infrastructure/persistence/gorm"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ParseLogLevel maps a config string to a gorm log level
func ParseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info", "debug":
		return logger.Info
	default:
		return logger.Warn
	}
}

// SetupDatabase creates and configures the SQLite database
func SetupDatabase(dbPath string, logLevel logger.LogLevel) (*gorm.DB, error) {
	// Use in-memory database if no path provided
	inMemory := dbPath == "" || dbPath == ":memory:"
	if inMemory {
		dbPath = ":memory:"
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	if inMemory {
		// every connection to :memory: opens a separate database
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(gormModels.Models()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// SeedDatabase stores demo nutrition profiles for local development
func SeedDatabase(db *gorm.DB) error {
	var count int64
	if err := db.Model(&gormModels.ProfileModel{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	demoProfiles := []*nutrition.Profile{
		{
			UserID:            "demo-balanced",
			WeightKg:          70,
			HeightCm:          175,
			Age:               35,
			Sex:               nutrition.SexMale,
			ActivityLevel:     nutrition.ActivityModerate,
			DietaryPreference: "balanced",
			WeightTrend:       nutrition.TrendMaintaining,
			UnitSystem:        nutrition.UnitsImperial,
			MealsPerDay:       3,
			SnacksPerDay:      1,
			CalorieGoal:       2000,
		},
		{
			UserID:            "demo-keto",
			WeightKg:          82,
			HeightCm:          168,
			Age:               42,
			Sex:               nutrition.SexFemale,
			ActivityLevel:     nutrition.ActivityLight,
			DietaryPreference: "ketogenic",
			WeightTrend:       nutrition.TrendLosing,
			UnitSystem:        nutrition.UnitsMetric,
			MealsPerDay:       2,
			SnacksPerDay:      1,
		},
	}

	var errs []error
	for _, p := range demoProfiles {
		if err := p.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := db.Create(gormModels.ProfileToModel(p)).Error; err != nil {
			errs = append(errs, fmt.Errorf("failed to create demo profile %s: %w", p.UserID, err))
		}
	}
	return errors.Join(errs...)
}
