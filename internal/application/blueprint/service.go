// Package blueprint provides the application layer for weekly plan generation
// This implements the use cases defined in the inbound ports
package blueprint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alchemorsel/nutriplan/internal/domain/blueprint"
	"github.com/alchemorsel/nutriplan/internal/domain/nutrition"
	"github.com/alchemorsel/nutriplan/internal/ports/inbound"
	"github.com/alchemorsel/nutriplan/internal/ports/outbound"
	apperrors "github.com/alchemorsel/nutriplan/pkg/errors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ServiceConfig holds pipeline settings that are not owned by a component
type ServiceConfig struct {
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`
	LockTTL          time.Duration `mapstructure:"lock_ttl"`
	GenerationBudget time.Duration `mapstructure:"generation_budget"`
	PlanReadyTopic   string        `mapstructure:"plan_ready_topic"`
	DefaultListLimit int           `mapstructure:"default_list_limit"`
	MaxListLimit     int           `mapstructure:"max_list_limit"`
}

// DefaultServiceConfig returns production settings
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		CacheTTL:         24 * time.Hour,
		LockTTL:          20 * time.Minute,
		GenerationBudget: 15 * time.Minute,
		PlanReadyTopic:   "blueprint.plan-ready",
		DefaultListLimit: 10,
		MaxListLimit:     52,
	}
}

// Service implements the blueprint use cases
type Service struct {
	profiles     outbound.ProfileRepository
	plans        outbound.PlanRepository
	cache        outbound.CacheRepository
	locker       outbound.PlanLocker
	publisher    outbound.EventPublisher
	advisor      *Advisor
	prompts      *PromptBuilder
	orchestrator *Orchestrator
	validator    *MacroValidator
	aggregator   *Aggregator
	recalc       *Recalculator
	metrics      outbound.PipelineMetrics
	config       ServiceConfig
	validate     *validator.Validate
	logger       *zap.Logger
}

// Dependencies groups the collaborators of Service
type Dependencies struct {
	Profiles     outbound.ProfileRepository
	Plans        outbound.PlanRepository
	Cache        outbound.CacheRepository
	Locker       outbound.PlanLocker
	Publisher    outbound.EventPublisher
	Advisor      *Advisor
	Prompts      *PromptBuilder
	Orchestrator *Orchestrator
	Validator    *MacroValidator
	Aggregator   *Aggregator
	Recalculator *Recalculator
	Metrics      outbound.PipelineMetrics
}

// NewService creates the blueprint service
func NewService(deps Dependencies, config ServiceConfig, logger *zap.Logger) *Service {
	defaults := DefaultServiceConfig()
	if config.CacheTTL <= 0 {
		config.CacheTTL = defaults.CacheTTL
	}
	if config.LockTTL <= 0 {
		config.LockTTL = defaults.LockTTL
	}
	if config.GenerationBudget <= 0 {
		config.GenerationBudget = defaults.GenerationBudget
	}
	if config.DefaultListLimit <= 0 {
		config.DefaultListLimit = defaults.DefaultListLimit
	}
	if config.MaxListLimit <= 0 {
		config.MaxListLimit = defaults.MaxListLimit
	}
	return &Service{
		profiles:     deps.Profiles,
		plans:        deps.Plans,
		cache:        deps.Cache,
		locker:       deps.Locker,
		publisher:    deps.Publisher,
		advisor:      deps.Advisor,
		prompts:      deps.Prompts,
		orchestrator: deps.Orchestrator,
		validator:    deps.Validator,
		aggregator:   deps.Aggregator,
		recalc:       deps.Recalculator,
		metrics:      metricsOrNoop(deps.Metrics),
		config:       config,
		validate:     validator.New(),
		logger:       logger.Named("blueprint-service"),
	}
}

var _ inbound.BlueprintService = (*Service)(nil)

// PlanCacheKey is the cache key of a user's plan for a week
func PlanCacheKey(userID string, week time.Time) string {
	return fmt.Sprintf("blueprint:plan:%s:%s", userID, blueprint.WeekKey(week))
}

func planLockKey(userID string, week time.Time) string {
	return fmt.Sprintf("blueprint:lock:%s:%s", userID, blueprint.WeekKey(week))
}

// Generate runs the full pipeline and returns the persisted plan
func (s *Service) Generate(ctx context.Context, cmd inbound.GenerateCommand) (*blueprint.Plan, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	week := blueprint.WeekStart(cmd.WeekStart)
	log := s.logger.With(zap.String("user_id", cmd.UserID), zap.String("week", blueprint.WeekKey(week)))
	log.Info("Generating blueprint")

	profile, target, preset, err := s.resolveTarget(ctx, cmd)
	if err != nil {
		return nil, err
	}

	unlock, err := s.acquireLock(ctx, cmd.UserID, week)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// the pipeline runs to completion even if the caller goes away
	pipelineCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.GenerationBudget)
	defer cancel()

	if err := s.removePlan(pipelineCtx, cmd.UserID, week); err != nil && !errors.Is(err, blueprint.ErrPlanNotFound) {
		return nil, apperrors.NewDatabaseError("delete previous plan", err)
	}

	exclusions := s.advisor.Exclusions(pipelineCtx, cmd.UserID, week)

	prompt, err := s.prompts.Build(PromptInput{
		Profile:    profile,
		Target:     target,
		Preset:     preset,
		Exclusions: exclusions,
		WeekStart:  week,
	})
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to build generation prompt").WithCause(err)
	}

	result, err := s.orchestrator.Run(pipelineCtx, prompt)
	if err != nil {
		return nil, err
	}

	report := s.validator.Validate(result.Days, target)
	list := s.aggregator.Aggregate(result.Days)
	s.metrics.RecordShoppingListSize(list.Count())

	plan, err := blueprint.NewPlan(cmd.UserID, week, target, result.Days, list, profile.Units(), blueprint.GenerationMetadata{
		Tier:             result.Tier,
		AttemptCount:     result.AttemptCount,
		Model:            result.Model,
		PromptTokens:     result.Usage.PromptTokens,
		CompletionTokens: result.Usage.CompletionTokens,
		RepairPasses:     result.RepairPasses,
		MacroDeviation:   report.Deviation.AsMap(),
		DurationMs:       result.Duration.Milliseconds(),
	})
	if err != nil {
		return nil, apperrors.NewInternalError("Generated plan failed validation").WithCause(err)
	}

	if err := s.plans.Save(pipelineCtx, plan); err != nil {
		log.Error("Failed to persist generated plan", zap.Error(err))
		return nil, apperrors.NewInternalError("Failed to persist generated plan").WithCause(err)
	}

	s.cachePlan(pipelineCtx, plan)

	if err := publishEvent(pipelineCtx, s.publisher, s.config.PlanReadyTopic, plan.UserID, blueprint.NewPlanGeneratedEvent(plan)); err != nil {
		log.Warn("Failed to publish plan ready event", zap.Error(err))
	}

	if s.recalc != nil {
		s.recalc.Enqueue(RecalcJob{PlanID: plan.ID, UserID: plan.UserID, WeekStart: plan.WeekStart})
	}

	log.Info("Blueprint generated",
		zap.String("plan_id", plan.ID.String()),
		zap.String("tier", string(plan.Metadata.Tier)),
		zap.Int("attempts", plan.Metadata.AttemptCount),
		zap.Int("shopping_items", list.Count()),
		zap.Bool("critical_deviation", report.Critical),
	)
	return plan, nil
}

// resolveTarget loads the profile and computes its macro target. Every
// failure here is a precondition failure and no generation is attempted.
func (s *Service) resolveTarget(ctx context.Context, cmd inbound.GenerateCommand) (*nutrition.Profile, nutrition.MacroTarget, nutrition.Preset, error) {
	profile, err := s.profiles.FindByUserID(ctx, cmd.UserID)
	if err != nil {
		if errors.Is(err, outbound.ErrProfileNotFound) {
			return nil, nutrition.MacroTarget{}, nutrition.Preset{}, apperrors.NewProfileNotFoundError(cmd.UserID)
		}
		return nil, nutrition.MacroTarget{}, nutrition.Preset{}, apperrors.NewDatabaseError("load profile", err)
	}

	if err := profile.Validate(); err != nil {
		return nil, nutrition.MacroTarget{}, nutrition.Preset{}, apperrors.NewPreconditionError(err.Error()).WithCause(err)
	}

	target, err := nutrition.Resolve(profile, cmd.CalorieGoal)
	if err != nil {
		return nil, nutrition.MacroTarget{}, nutrition.Preset{}, apperrors.NewPreconditionError(err.Error()).WithCause(err)
	}

	preset, _ := nutrition.LookupPreset(profile.DietaryPreference)
	return profile, target, preset, nil
}

// acquireLock serializes regenerations of one (user, week). A held lock fails
// fast; an unavailable lock backend is logged and generation proceeds.
func (s *Service) acquireLock(ctx context.Context, userID string, week time.Time) (func(), error) {
	noop := func() {}
	if s.locker == nil {
		return noop, nil
	}
	lock, err := s.locker.Acquire(ctx, planLockKey(userID, week), s.config.LockTTL)
	if err != nil {
		if errors.Is(err, outbound.ErrLockHeld) {
			return nil, apperrors.NewRegenerationInProgressError(userID, blueprint.WeekKey(week))
		}
		s.logger.Warn("Plan lock unavailable, generating without it",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return noop, nil
	}
	return func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("Failed to release plan lock", zap.String("user_id", userID), zap.Error(err))
		}
	}, nil
}

// GetPlan reads through the cache
func (s *Service) GetPlan(ctx context.Context, userID string, week time.Time) (*blueprint.Plan, error) {
	week = blueprint.WeekStart(week)
	key := PlanCacheKey(userID, week)

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var plan blueprint.Plan
			if err := json.Unmarshal(data, &plan); err == nil {
				return &plan, nil
			}
			s.logger.Warn("Discarding undecodable cached plan", zap.String("key", key))
		} else if !errors.Is(err, outbound.ErrCacheMiss) {
			s.logger.Warn("Plan cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	plan, err := s.plans.FindByUserWeek(ctx, userID, week)
	if err != nil {
		if errors.Is(err, blueprint.ErrPlanNotFound) {
			return nil, apperrors.NewPlanNotFoundError(userID, blueprint.WeekKey(week))
		}
		return nil, apperrors.NewDatabaseError("load plan", err)
	}

	s.cachePlan(ctx, plan)
	return plan, nil
}

// DeletePlan removes a plan and its cache entry
func (s *Service) DeletePlan(ctx context.Context, userID string, week time.Time) error {
	week = blueprint.WeekStart(week)
	if err := s.removePlan(ctx, userID, week); err != nil {
		if errors.Is(err, blueprint.ErrPlanNotFound) {
			return apperrors.NewPlanNotFoundError(userID, blueprint.WeekKey(week))
		}
		return apperrors.NewDatabaseError("delete plan", err)
	}
	s.logger.Info("Blueprint deleted", zap.String("user_id", userID), zap.String("week", blueprint.WeekKey(week)))
	return nil
}

// ListPlans returns summaries of the user's most recent plans
func (s *Service) ListPlans(ctx context.Context, userID string, limit int) ([]blueprint.Summary, error) {
	if limit <= 0 {
		limit = s.config.DefaultListLimit
	}
	if limit > s.config.MaxListLimit {
		limit = s.config.MaxListLimit
	}
	plans, err := s.plans.ListRecent(ctx, userID, time.Time{}, limit)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list plans", err)
	}
	summaries := make([]blueprint.Summary, 0, len(plans))
	for _, p := range plans {
		summaries = append(summaries, blueprint.Summarize(p))
	}
	return summaries, nil
}

func (s *Service) removePlan(ctx context.Context, userID string, week time.Time) error {
	if s.cache != nil {
		if err := s.cache.Delete(ctx, PlanCacheKey(userID, week)); err != nil {
			s.logger.Warn("Failed to invalidate cached plan", zap.Error(err))
		}
	}
	return s.plans.DeleteByUserWeek(ctx, userID, week)
}

func (s *Service) cachePlan(ctx context.Context, plan *blueprint.Plan) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(plan)
	if err != nil {
		s.logger.Warn("Failed to encode plan for cache", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, PlanCacheKey(plan.UserID, plan.WeekStart), data, s.config.CacheTTL); err != nil {
		s.logger.Warn("Failed to cache plan", zap.Error(err))
	}
}
