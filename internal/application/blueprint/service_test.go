package blueprint

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alchemorsel/nutriplan/internal/domain/blueprint"
	"github.com/alchemorsel/nutriplan/internal/ports/inbound"
	"github.com/alchemorsel/nutriplan/internal/ports/outbound"
	apperrors "github.com/alchemorsel/nutriplan/pkg/errors"
	"github.com/alchemorsel/nutriplan/test/testutils"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
)

type ServiceTestSuite struct {
	suite.Suite
	profiles  *testutils.MockProfileRepository
	plans     *testutils.MockPlanRepository
	cache     *testutils.MockCacheRepository
	locker    *testutils.MockLocker
	unlocker  *testutils.MockUnlocker
	publisher *testutils.MockEventPublisher
	generator *testutils.MockTextGenerator
	lookup    *testutils.MockNutritionLookup
	service   *Service
}

func (s *ServiceTestSuite) SetupTest() {
	s.profiles = &testutils.MockProfileRepository{}
	s.plans = &testutils.MockPlanRepository{}
	s.cache = &testutils.MockCacheRepository{}
	s.locker = &testutils.MockLocker{}
	s.unlocker = &testutils.MockUnlocker{}
	s.publisher = &testutils.MockEventPublisher{}
	s.generator = &testutils.MockTextGenerator{}
	s.lookup = &testutils.MockNutritionLookup{}

	logger := zaptest.NewLogger(s.T())
	sleeper := &recordingSleeper{}
	prompts, err := NewPromptBuilder()
	s.Require().NoError(err)

	s.service = NewService(Dependencies{
		Profiles:     s.profiles,
		Plans:        s.plans,
		Cache:        s.cache,
		Locker:       s.locker,
		Publisher:    s.publisher,
		Advisor:      NewAdvisor(s.plans, 8, logger),
		Prompts:      prompts,
		Orchestrator: NewOrchestrator(s.generator, DefaultRetryPolicy(), nil, logger).WithSleeper(sleeper.sleep),
		Validator:    NewMacroValidator(0, nil, logger),
		Aggregator:   NewAggregator(DefaultAggregatorLimits(), logger),
		Recalculator: NewRecalculator(s.plans, s.lookup, s.cache, s.publisher, "plans.recalculated", DefaultRecalcPolicy(), nil, logger),
	}, DefaultServiceConfig(), logger)
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func (s *ServiceTestSuite) expectLock() {
	s.locker.On("Acquire", mock.Anything, "blueprint:lock:user-1:2026-10-19", 20*time.Minute).Return(s.unlocker, nil).Once()
	s.unlocker.On("Release", mock.Anything).Return(nil).Once()
}

func (s *ServiceTestSuite) TestGenerate_Success() {
	cacheKey := PlanCacheKey("user-1", monday)
	s.profiles.On("FindByUserID", mock.Anything, "user-1").Return(testProfile(), nil)
	s.expectLock()
	s.cache.On("Delete", mock.Anything, cacheKey).Return(nil)
	s.plans.On("DeleteByUserWeek", mock.Anything, "user-1", monday).Return(blueprint.ErrPlanNotFound)
	s.plans.On("ListRecent", mock.Anything, "user-1", monday, 8).Return([]*blueprint.Plan{}, nil)
	s.generator.On("Generate", mock.Anything, mock.Anything).Return(malformedResponse(), nil).Twice()
	s.generator.On("Generate", mock.Anything, mock.Anything).Return(validResponse(), nil).Once()
	s.plans.On("Save", mock.Anything, mock.AnythingOfType("*blueprint.Plan")).Return(nil)
	s.cache.On("Set", mock.Anything, cacheKey, mock.Anything, 24*time.Hour).Return(nil)
	s.publisher.On("Publish", mock.Anything, "blueprint.plan-ready", mock.MatchedBy(func(m outbound.Message) bool {
		return m.Type == "plan.generated" && m.Key == "user-1"
	})).Return(nil)

	plan, err := s.service.Generate(context.Background(), inbound.GenerateCommand{
		UserID:    "user-1",
		WeekStart: monday.AddDate(0, 0, 2),
	})

	s.Require().NoError(err)
	s.Len(plan.Days, 7)
	s.Equal(monday, plan.WeekStart)
	s.Equal(2000, plan.DailyCalories)
	s.Equal(blueprint.ServingsPerRecipe, plan.HouseholdSize)
	s.Equal(blueprint.TierEconomy, plan.Metadata.Tier)
	s.Equal(3, plan.Metadata.AttemptCount)
	s.Equal("test-model", plan.Metadata.Model)
	s.NotEmpty(plan.ShoppingList[blueprint.CategoryProteins])
	s.LessOrEqual(plan.ShoppingList.Count(), 25)

	s.plans.AssertCalled(s.T(), "Save", mock.Anything, plan)
	s.unlocker.AssertExpectations(s.T())
	s.publisher.AssertExpectations(s.T())
	s.Len(s.service.recalc.jobs, 1, "recalculation queued after persistence")
}

func (s *ServiceTestSuite) TestGenerate_LockHeld() {
	s.profiles.On("FindByUserID", mock.Anything, "user-1").Return(testProfile(), nil)
	s.locker.On("Acquire", mock.Anything, mock.Anything, mock.Anything).Return(nil, outbound.ErrLockHeld)

	_, err := s.service.Generate(context.Background(), inbound.GenerateCommand{UserID: "user-1", WeekStart: monday})

	s.True(apperrors.Is(err, apperrors.CodeRegenerationInUse))
	s.plans.AssertNotCalled(s.T(), "DeleteByUserWeek", mock.Anything, mock.Anything, mock.Anything)
	s.generator.AssertNotCalled(s.T(), "Generate", mock.Anything, mock.Anything)
}

func (s *ServiceTestSuite) TestGenerate_ProfileMissing() {
	s.profiles.On("FindByUserID", mock.Anything, "user-1").Return(nil, outbound.ErrProfileNotFound)

	_, err := s.service.Generate(context.Background(), inbound.GenerateCommand{UserID: "user-1", WeekStart: monday})

	s.True(apperrors.Is(err, apperrors.CodeProfileNotFound))
}

func (s *ServiceTestSuite) TestGenerate_UnknownPreferenceIsPrecondition() {
	profile := testProfile()
	profile.DietaryPreference = "fruitarian"
	s.profiles.On("FindByUserID", mock.Anything, "user-1").Return(profile, nil)

	_, err := s.service.Generate(context.Background(), inbound.GenerateCommand{UserID: "user-1", WeekStart: monday})

	s.True(apperrors.Is(err, apperrors.CodePreconditionFailed))
	s.generator.AssertNotCalled(s.T(), "Generate", mock.Anything, mock.Anything)
	s.locker.AssertNotCalled(s.T(), "Acquire", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ServiceTestSuite) TestGenerate_MissingCalorieGoalIsPrecondition() {
	profile := testProfile()
	profile.CalorieGoal = 0
	profile.WeightKg = 0
	profile.HeightCm = 0
	profile.Age = 0
	s.profiles.On("FindByUserID", mock.Anything, "user-1").Return(profile, nil)

	_, err := s.service.Generate(context.Background(), inbound.GenerateCommand{UserID: "user-1", WeekStart: monday})

	s.True(apperrors.Is(err, apperrors.CodePreconditionFailed))
}

func (s *ServiceTestSuite) TestGenerate_SaveFailureIsInternal() {
	s.profiles.On("FindByUserID", mock.Anything, "user-1").Return(testProfile(), nil)
	s.expectLock()
	s.cache.On("Delete", mock.Anything, mock.Anything).Return(nil)
	s.plans.On("DeleteByUserWeek", mock.Anything, "user-1", monday).Return(nil)
	s.plans.On("ListRecent", mock.Anything, "user-1", monday, 8).Return(nil, errors.New("timeout"))
	s.generator.On("Generate", mock.Anything, mock.Anything).Return(validResponse(), nil).Once()
	s.plans.On("Save", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	_, err := s.service.Generate(context.Background(), inbound.GenerateCommand{UserID: "user-1", WeekStart: monday})

	s.True(apperrors.Is(err, apperrors.CodeInternal))
	s.cache.AssertNotCalled(s.T(), "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	s.publisher.AssertNotCalled(s.T(), "Publish", mock.Anything, mock.Anything, mock.Anything)
	s.Empty(s.service.recalc.jobs)
}

func (s *ServiceTestSuite) TestGenerate_ExhaustionSurfacesAttemptCount() {
	s.profiles.On("FindByUserID", mock.Anything, "user-1").Return(testProfile(), nil)
	s.expectLock()
	s.cache.On("Delete", mock.Anything, mock.Anything).Return(nil)
	s.plans.On("DeleteByUserWeek", mock.Anything, "user-1", monday).Return(nil)
	s.plans.On("ListRecent", mock.Anything, "user-1", monday, 8).Return([]*blueprint.Plan{}, nil)
	s.generator.On("Generate", mock.Anything, mock.Anything).Return(malformedResponse(), nil)

	_, err := s.service.Generate(context.Background(), inbound.GenerateCommand{UserID: "user-1", WeekStart: monday})

	var appErr *apperrors.AppError
	s.Require().True(errors.As(err, &appErr))
	s.Equal(6, appErr.Metadata["attempts"])
	s.plans.AssertNotCalled(s.T(), "Save", mock.Anything, mock.Anything)
}

func (s *ServiceTestSuite) TestGenerate_InvalidCommand() {
	_, err := s.service.Generate(context.Background(), inbound.GenerateCommand{WeekStart: monday})

	s.True(apperrors.Is(err, apperrors.CodeValidationFailed))
}

func (s *ServiceTestSuite) TestGetPlan_CacheHit() {
	plan := testPlan("user-1", monday)
	data, err := json.Marshal(plan)
	s.Require().NoError(err)
	s.cache.On("Get", mock.Anything, PlanCacheKey("user-1", monday)).Return(data, nil)

	got, err := s.service.GetPlan(context.Background(), "user-1", monday)

	s.Require().NoError(err)
	s.Equal(plan.ID, got.ID)
	s.plans.AssertNotCalled(s.T(), "FindByUserWeek", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ServiceTestSuite) TestGetPlan_CacheMissReadsRepository() {
	plan := testPlan("user-1", monday)
	key := PlanCacheKey("user-1", monday)
	s.cache.On("Get", mock.Anything, key).Return(nil, outbound.ErrCacheMiss)
	s.plans.On("FindByUserWeek", mock.Anything, "user-1", monday).Return(plan, nil)
	s.cache.On("Set", mock.Anything, key, mock.Anything, 24*time.Hour).Return(nil)

	got, err := s.service.GetPlan(context.Background(), "user-1", monday.AddDate(0, 0, 3))

	s.Require().NoError(err)
	s.Equal(plan, got)
	s.cache.AssertExpectations(s.T())
}

func (s *ServiceTestSuite) TestGetPlan_NotFound() {
	s.cache.On("Get", mock.Anything, mock.Anything).Return(nil, outbound.ErrCacheMiss)
	s.plans.On("FindByUserWeek", mock.Anything, "user-1", monday).Return(nil, blueprint.ErrPlanNotFound)

	_, err := s.service.GetPlan(context.Background(), "user-1", monday)

	s.True(apperrors.Is(err, apperrors.CodePlanNotFound))
}

func (s *ServiceTestSuite) TestDeletePlan() {
	s.cache.On("Delete", mock.Anything, PlanCacheKey("user-1", monday)).Return(nil)
	s.plans.On("DeleteByUserWeek", mock.Anything, "user-1", monday).Return(nil).Once()
	s.plans.On("DeleteByUserWeek", mock.Anything, "user-1", monday).Return(blueprint.ErrPlanNotFound).Once()

	s.NoError(s.service.DeletePlan(context.Background(), "user-1", monday))
	err := s.service.DeletePlan(context.Background(), "user-1", monday)
	s.True(apperrors.Is(err, apperrors.CodePlanNotFound))
}

func (s *ServiceTestSuite) TestListPlans_ClampsLimit() {
	plans := []*blueprint.Plan{testPlan("user-1", monday), testPlan("user-1", monday.AddDate(0, 0, -7))}
	s.plans.On("ListRecent", mock.Anything, "user-1", time.Time{}, 52).Return(plans, nil)

	summaries, err := s.service.ListPlans(context.Background(), "user-1", 500)

	s.Require().NoError(err)
	s.Len(summaries, 2)
	s.Equal("2026-10-19", summaries[0].WeekStartDate)
	s.Equal("2026-10-12", summaries[1].WeekStartDate)
}
