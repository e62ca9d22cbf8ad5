package blueprint

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alchemorsel/nutriplan/internal/domain/blueprint"
	"github.com/alchemorsel/nutriplan/internal/ports/outbound"
	"github.com/alchemorsel/nutriplan/test/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestRecalculator(t *testing.T, plans outbound.PlanRepository, lookup outbound.NutritionLookup, cache outbound.CacheRepository) (*Recalculator, *recordingSleeper) {
	sleeper := &syncSleeper{}
	r := NewRecalculator(plans, lookup, cache, nil, "", DefaultRecalcPolicy(), nil, zaptest.NewLogger(t)).
		WithSleeper(sleeper.sleep)
	return r, &sleeper.recordingSleeper
}

// syncSleeper is a recordingSleeper safe for concurrent use
type syncSleeper struct {
	mu sync.Mutex
	recordingSleeper
}

func (s *syncSleeper) sleep(ctx context.Context, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordingSleeper.sleep(ctx, d)
}

func TestRecalculator_UpdatesEveryMealWithIngredients(t *testing.T) {
	plan := testPlan("user-1", monday)
	plan.Days[2].Lunch.Ingredients = nil

	repo := &testutils.MockPlanRepository{}
	repo.On("FindByID", mock.Anything, plan.ID).Return(plan, nil)
	repo.On("UpdateMealMacros", mock.Anything, plan.ID, mock.Anything, mock.Anything).Return(nil)

	lookup := &testutils.MockNutritionLookup{}
	lookup.On("Lookup", mock.Anything, mock.Anything).Return(&outbound.NutritionFacts{Calories: 100, ProteinG: 10, CarbsG: 5, FatG: 2}, nil)

	cache := &testutils.MockCacheRepository{}
	cache.On("Delete", mock.Anything, PlanCacheKey("user-1", monday)).Return(nil).Once()

	r, sleeper := newTestRecalculator(t, repo, lookup, cache)
	summary, err := r.Process(context.Background(), RecalcJob{PlanID: plan.ID, UserID: "user-1", WeekStart: monday})

	require.NoError(t, err)
	assert.Equal(t, 27, summary.Updated)
	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, summary.Failed)
	repo.AssertNumberOfCalls(t, "UpdateMealMacros", 27)
	repo.AssertCalled(t, "UpdateMealMacros", mock.Anything, plan.ID,
		blueprint.MealRef{Day: 0, Slot: blueprint.SlotBreakfast},
		blueprint.Macros{Calories: 300, ProteinG: 30, CarbsG: 15, FatG: 6})
	repo.AssertNotCalled(t, "UpdateMealMacros", mock.Anything, plan.ID,
		blueprint.MealRef{Day: 2, Slot: blueprint.SlotLunch}, mock.Anything)
	assert.Len(t, sleeper.slept, 5, "six batches of at most five meals")
	cache.AssertExpectations(t)
}

func TestRecalculator_FailedMealKeepsEstimate(t *testing.T) {
	plan := testPlan("user-1", monday)
	for i := range plan.Days {
		if i > 0 {
			plan.Days[i] = blueprint.DayEntry{Day: plan.Days[i].Day}
		}
	}
	plan.Days[0].Lunch = nil
	plan.Days[0].Dinner = nil
	plan.Days[0].Snacks = nil

	repo := &testutils.MockPlanRepository{}
	repo.On("FindByID", mock.Anything, plan.ID).Return(plan, nil)

	lookup := &testutils.MockNutritionLookup{}
	lookup.On("Lookup", mock.Anything, mock.Anything).
		Return(nil, &outbound.LookupError{StatusCode: 429, RateLimited: true})

	r, sleeper := newTestRecalculator(t, repo, lookup, nil)
	summary, err := r.Process(context.Background(), RecalcJob{PlanID: plan.ID})

	require.NoError(t, err)
	assert.Zero(t, summary.Updated)
	assert.Equal(t, 1, summary.Failed)
	lookup.AssertNumberOfCalls(t, "Lookup", 3)
	repo.AssertNotCalled(t, "UpdateMealMacros", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, sleeper.slept)
}

func TestRecalculator_GenericFailureUsesShortBackoff(t *testing.T) {
	r := NewRecalculator(nil, nil, nil, nil, "", DefaultRecalcPolicy(), nil, zaptest.NewLogger(t))

	assert.Equal(t, time.Second, r.backoff(errors.New("boom")))
	assert.Equal(t, 5*time.Second, r.backoff(&outbound.LookupError{RateLimited: true}))
	assert.Greater(t, r.backoff(&outbound.LookupError{RateLimited: true}), r.backoff(errors.New("boom")))
}

func TestRecalculator_MissingPlan(t *testing.T) {
	repo := &testutils.MockPlanRepository{}
	id := uuid.New()
	repo.On("FindByID", mock.Anything, id).Return(nil, blueprint.ErrPlanNotFound)

	r, _ := newTestRecalculator(t, repo, &testutils.MockNutritionLookup{}, nil)
	_, err := r.Process(context.Background(), RecalcJob{PlanID: id})

	assert.ErrorIs(t, err, blueprint.ErrPlanNotFound)
}

func TestRecalculator_QueueLifecycle(t *testing.T) {
	plan := testPlan("user-1", monday)
	processed := make(chan struct{})

	repo := &testutils.MockPlanRepository{}
	repo.On("FindByID", mock.Anything, plan.ID).Return(plan, nil).Run(func(mock.Arguments) { close(processed) })
	repo.On("UpdateMealMacros", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	lookup := &testutils.MockNutritionLookup{}
	lookup.On("Lookup", mock.Anything, mock.Anything).Return(&outbound.NutritionFacts{Calories: 1}, nil)

	r, _ := newTestRecalculator(t, repo, lookup, nil)
	r.Start()

	assert.True(t, r.Enqueue(RecalcJob{PlanID: plan.ID}))
	select {
	case <-processed:
	case <-time.After(5 * time.Second):
		t.Fatal("job was not processed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Stop(ctx))
	assert.False(t, r.Enqueue(RecalcJob{PlanID: plan.ID}), "stopped queue rejects jobs")
}

func TestRecalculator_FullQueueDropsJobs(t *testing.T) {
	policy := DefaultRecalcPolicy()
	policy.QueueSize = 1
	r := NewRecalculator(nil, nil, nil, nil, "", policy, nil, zaptest.NewLogger(t))

	assert.True(t, r.Enqueue(RecalcJob{PlanID: uuid.New()}))
	assert.False(t, r.Enqueue(RecalcJob{PlanID: uuid.New()}))
}
