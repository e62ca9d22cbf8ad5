// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/alchemorsel/nutriplan/internal/domain/blueprint"
	"github.com/alchemorsel/nutriplan/internal/domain/nutrition"
	"github.com/google/uuid"
)

// ErrProfileNotFound is returned when a user has no nutrition profile
var ErrProfileNotFound = errors.New("profile not found")

// ErrCacheMiss is returned by CacheRepository.Get for absent keys
var ErrCacheMiss = errors.New("cache miss")

// ErrLockHeld is returned when another caller owns the lock
var ErrLockHeld = errors.New("lock already held")

// ProfileRepository reads nutrition profiles
type ProfileRepository interface {
	FindByUserID(ctx context.Context, userID string) (*nutrition.Profile, error)
	Save(ctx context.Context, profile *nutrition.Profile) error
}

// PlanRepository persists generated plans keyed by (user, week)
type PlanRepository interface {
	Save(ctx context.Context, plan *blueprint.Plan) error
	FindByID(ctx context.Context, id uuid.UUID) (*blueprint.Plan, error)
	FindByUserWeek(ctx context.Context, userID string, week time.Time) (*blueprint.Plan, error)
	DeleteByUserWeek(ctx context.Context, userID string, week time.Time) error

	// ListRecent returns up to limit plans for the user, newest week first,
	// restricted to weeks strictly before the given week when it is non-zero
	ListRecent(ctx context.Context, userID string, before time.Time, limit int) ([]*blueprint.Plan, error)

	// UpdateMealMacros overwrites only the macro fields of one meal
	UpdateMealMacros(ctx context.Context, planID uuid.UUID, ref blueprint.MealRef, macros blueprint.Macros) error
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Unlocker releases a held lock
type Unlocker interface {
	Release(ctx context.Context) error
}

// PlanLocker serializes regenerations of the same (user, week)
type PlanLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Unlocker, error)
}

// EventPublisher defines the interface for publishing messages
type EventPublisher interface {
	Publish(ctx context.Context, topic string, message Message) error
	Close() error
}

// Message represents a message to be published
type Message struct {
	ID        string
	Type      string
	Key       string
	Payload   []byte
	Metadata  map[string]string
	Timestamp time.Time
}
