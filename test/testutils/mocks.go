// Package testutils provides testify mocks for the outbound and inbound ports
package testutils

import (
	"context"
	"time"

	"github.com/alchemorsel/nutriplan/internal/domain/blueprint"
	"github.com/alchemorsel/nutriplan/internal/domain/nutrition"
	"github.com/alchemorsel/nutriplan/internal/ports/inbound"
	"github.com/alchemorsel/nutriplan/internal/ports/outbound"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockPlanRepository is a mock implementation of the plan repository
type MockPlanRepository struct {
	mock.Mock
}

func (m *MockPlanRepository) Save(ctx context.Context, plan *blueprint.Plan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*blueprint.Plan, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*blueprint.Plan), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPlanRepository) FindByUserWeek(ctx context.Context, userID string, week time.Time) (*blueprint.Plan, error) {
	args := m.Called(ctx, userID, week)
	if p := args.Get(0); p != nil {
		return p.(*blueprint.Plan), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPlanRepository) DeleteByUserWeek(ctx context.Context, userID string, week time.Time) error {
	args := m.Called(ctx, userID, week)
	return args.Error(0)
}

func (m *MockPlanRepository) ListRecent(ctx context.Context, userID string, before time.Time, limit int) ([]*blueprint.Plan, error) {
	args := m.Called(ctx, userID, before, limit)
	if p := args.Get(0); p != nil {
		return p.([]*blueprint.Plan), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPlanRepository) UpdateMealMacros(ctx context.Context, planID uuid.UUID, ref blueprint.MealRef, macros blueprint.Macros) error {
	args := m.Called(ctx, planID, ref, macros)
	return args.Error(0)
}

// MockProfileRepository is a mock implementation of the profile repository
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) FindByUserID(ctx context.Context, userID string) (*nutrition.Profile, error) {
	args := m.Called(ctx, userID)
	if p := args.Get(0); p != nil {
		return p.(*nutrition.Profile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProfileRepository) Save(ctx context.Context, profile *nutrition.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

// MockCacheRepository is a mock implementation of the cache repository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if b := args.Get(0); b != nil {
		return b.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// MockTextGenerator is a mock implementation of the text generator
type MockTextGenerator struct {
	mock.Mock
}

func (m *MockTextGenerator) Generate(ctx context.Context, req outbound.GenerationRequest) (*outbound.GenerationResponse, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*outbound.GenerationResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockNutritionLookup is a mock implementation of the nutrition lookup
type MockNutritionLookup struct {
	mock.Mock
}

func (m *MockNutritionLookup) Lookup(ctx context.Context, query string) (*outbound.NutritionFacts, error) {
	args := m.Called(ctx, query)
	if f := args.Get(0); f != nil {
		return f.(*outbound.NutritionFacts), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockLocker is a mock implementation of the plan locker
type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (outbound.Unlocker, error) {
	args := m.Called(ctx, key, ttl)
	if u := args.Get(0); u != nil {
		return u.(outbound.Unlocker), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockUnlocker is a mock implementation of a held lock
type MockUnlocker struct {
	mock.Mock
}

func (m *MockUnlocker) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of the event publisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, topic string, message outbound.Message) error {
	args := m.Called(ctx, topic, message)
	return args.Error(0)
}

func (m *MockEventPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockBlueprintService is a mock implementation of the inbound plan service
type MockBlueprintService struct {
	mock.Mock
}

func (m *MockBlueprintService) Generate(ctx context.Context, cmd inbound.GenerateCommand) (*blueprint.Plan, error) {
	args := m.Called(ctx, cmd)
	if p := args.Get(0); p != nil {
		return p.(*blueprint.Plan), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBlueprintService) DeletePlan(ctx context.Context, userID string, week time.Time) error {
	args := m.Called(ctx, userID, week)
	return args.Error(0)
}

func (m *MockBlueprintService) GetPlan(ctx context.Context, userID string, week time.Time) (*blueprint.Plan, error) {
	args := m.Called(ctx, userID, week)
	if p := args.Get(0); p != nil {
		return p.(*blueprint.Plan), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBlueprintService) ListPlans(ctx context.Context, userID string, limit int) ([]blueprint.Summary, error) {
	args := m.Called(ctx, userID, limit)
	if s := args.Get(0); s != nil {
		return s.([]blueprint.Summary), args.Error(1)
	}
	return nil, args.Error(1)
}
