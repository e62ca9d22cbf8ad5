// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"
	"time"

	"github.com/alchemorsel/nutriplan/internal/domain/blueprint"
)

// BlueprintService defines the use cases for weekly plan generation
// This is the primary port that HTTP handlers will use
type BlueprintService interface {
	// Commands
	Generate(ctx context.Context, cmd GenerateCommand) (*blueprint.Plan, error)
	DeletePlan(ctx context.Context, userID string, week time.Time) error

	// Queries
	GetPlan(ctx context.Context, userID string, week time.Time) (*blueprint.Plan, error)
	ListPlans(ctx context.Context, userID string, limit int) ([]blueprint.Summary, error)
}

// GenerateCommand requests a plan for one user and week
type GenerateCommand struct {
	UserID    string    `validate:"required"`
	WeekStart time.Time `validate:"required"`

	// CalorieGoal overrides the profile goal when positive
	CalorieGoal int `validate:"gte=0,lte=10000"`
}
