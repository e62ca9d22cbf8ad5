package blueprint

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alchemorsel/nutriplan/internal/domain/blueprint"
	"github.com/alchemorsel/nutriplan/internal/ports/outbound"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RecalcPolicy configures the background macro pass
type RecalcPolicy struct {
	BatchSize        int           `mapstructure:"batch_size"`
	MaxRetries       int           `mapstructure:"max_retries"`
	RateLimitBackoff time.Duration `mapstructure:"rate_limit_backoff"`
	RetryBackoff     time.Duration `mapstructure:"retry_backoff"`
	BatchDelay       time.Duration `mapstructure:"batch_delay"`
	JobTimeout       time.Duration `mapstructure:"job_timeout"`
	QueueSize        int           `mapstructure:"queue_size"`
}

// DefaultRecalcPolicy returns the production policy
func DefaultRecalcPolicy() RecalcPolicy {
	return RecalcPolicy{
		BatchSize:        5,
		MaxRetries:       3,
		RateLimitBackoff: 5 * time.Second,
		RetryBackoff:     time.Second,
		BatchDelay:       time.Second,
		JobTimeout:       10 * time.Minute,
		QueueSize:        64,
	}
}

// RecalcJob identifies a persisted plan to reconcile
type RecalcJob struct {
	PlanID    uuid.UUID
	UserID    string
	WeekStart time.Time
}

// RecalcSummary counts per-meal outcomes of one job
type RecalcSummary struct {
	Updated int
	Skipped int
	Failed  int
}

// Recalculator reconciles generator macro estimates against the nutrition
// lookup service. It runs detached from the request that produced the plan.
type Recalculator struct {
	plans     outbound.PlanRepository
	lookup    outbound.NutritionLookup
	cache     outbound.CacheRepository
	publisher outbound.EventPublisher
	topic     string
	policy    RecalcPolicy
	sleep     Sleeper
	metrics   outbound.PipelineMetrics
	logger    *zap.Logger

	jobs    chan RecalcJob
	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool
}

// NewRecalculator creates a recalculator with a bounded queue
func NewRecalculator(
	plans outbound.PlanRepository,
	lookup outbound.NutritionLookup,
	cache outbound.CacheRepository,
	publisher outbound.EventPublisher,
	topic string,
	policy RecalcPolicy,
	metrics outbound.PipelineMetrics,
	logger *zap.Logger,
) *Recalculator {
	if policy.BatchSize <= 0 || policy.MaxRetries <= 0 {
		policy = DefaultRecalcPolicy()
	}
	if policy.QueueSize <= 0 {
		policy.QueueSize = DefaultRecalcPolicy().QueueSize
	}
	return &Recalculator{
		plans:     plans,
		lookup:    lookup,
		cache:     cache,
		publisher: publisher,
		topic:     topic,
		policy:    policy,
		sleep:     contextSleep,
		metrics:   metricsOrNoop(metrics),
		logger:    logger.Named("recalculator"),
		jobs:      make(chan RecalcJob, policy.QueueSize),
	}
}

// WithSleeper replaces the backoff sleep, used by tests
func (r *Recalculator) WithSleeper(s Sleeper) *Recalculator {
	r.sleep = s
	return r
}

// Start launches the worker draining the queue
func (r *Recalculator) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for job := range r.jobs {
			r.run(job)
		}
	}()
	r.logger.Info("Macro recalculator started", zap.Int("queue_size", r.policy.QueueSize))
}

// Stop closes the queue and waits for queued jobs or ctx expiry
func (r *Recalculator) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.stopped {
		r.stopped = true
		close(r.jobs)
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Enqueue schedules a job without blocking. It reports false when the queue
// is full or stopped; the plan then keeps its generated estimates.
func (r *Recalculator) Enqueue(job RecalcJob) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.stopped {
		return false
	}
	select {
	case r.jobs <- job:
		return true
	default:
		r.metrics.RecordRecalculation("dropped")
		r.logger.Warn("Recalculation queue full, dropping job",
			zap.String("plan_id", job.PlanID.String()),
			zap.String("user_id", job.UserID),
		)
		return false
	}
}

func (r *Recalculator) run(job RecalcJob) {
	ctx, cancel := context.WithTimeout(context.Background(), r.policy.JobTimeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Recalculation panicked",
				zap.String("plan_id", job.PlanID.String()),
				zap.Any("panic", rec),
			)
		}
	}()

	if _, err := r.Process(ctx, job); err != nil {
		r.logger.Error("Recalculation failed",
			zap.String("plan_id", job.PlanID.String()),
			zap.String("user_id", job.UserID),
			zap.Error(err),
		)
	}
}

type mealTask struct {
	ref  blueprint.MealRef
	meal blueprint.Meal
}

// Process reconciles one plan synchronously in batches
func (r *Recalculator) Process(ctx context.Context, job RecalcJob) (RecalcSummary, error) {
	plan, err := r.plans.FindByID(ctx, job.PlanID)
	if err != nil {
		return RecalcSummary{}, fmt.Errorf("load plan %s: %w", job.PlanID, err)
	}

	var tasks []mealTask
	skipped := 0
	plan.EachMeal(func(ref blueprint.MealRef, m *blueprint.Meal) {
		if len(m.Ingredients) == 0 {
			skipped++
			return
		}
		tasks = append(tasks, mealTask{ref: ref, meal: *m})
	})

	var updated, failed atomic.Int64
	for start := 0; start < len(tasks); start += r.policy.BatchSize {
		if start > 0 {
			r.sleep(ctx, r.policy.BatchDelay)
		}
		if ctx.Err() != nil {
			break
		}
		end := min(start+r.policy.BatchSize, len(tasks))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.policy.BatchSize)
		for _, task := range tasks[start:end] {
			g.Go(func() error {
				if r.recalculateMeal(gctx, plan.ID, task) {
					updated.Add(1)
				} else {
					failed.Add(1)
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	summary := RecalcSummary{
		Updated: int(updated.Load()),
		Skipped: skipped,
		Failed:  int(failed.Load()),
	}
	r.logger.Info("Recalculation finished",
		zap.String("plan_id", plan.ID.String()),
		zap.Int("updated", summary.Updated),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
	)

	if r.cache != nil && summary.Updated > 0 {
		if err := r.cache.Delete(ctx, PlanCacheKey(plan.UserID, plan.WeekStart)); err != nil {
			r.logger.Warn("Failed to invalidate cached plan", zap.Error(err))
		}
	}

	event := blueprint.PlanMacrosRecalculatedEvent{
		PlanID:      plan.ID,
		UserID:      plan.UserID,
		WeekStart:   plan.WeekKey(),
		Updated:     summary.Updated,
		Skipped:     summary.Skipped + summary.Failed,
		CompletedAt: time.Now().UTC(),
	}
	if err := publishEvent(ctx, r.publisher, r.topic, plan.UserID, event); err != nil {
		r.logger.Warn("Failed to publish recalculation event", zap.Error(err))
	}
	return summary, nil
}

// recalculateMeal retries the full ingredient lookup up to MaxRetries times
// and writes the summed macros back to the one meal
func (r *Recalculator) recalculateMeal(ctx context.Context, planID uuid.UUID, task mealTask) bool {
	var lastErr error
	for attempt := 0; attempt < r.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			r.sleep(ctx, r.backoff(lastErr))
		}
		macros, err := r.sumIngredients(ctx, task.meal.Ingredients)
		if err != nil {
			lastErr = err
			r.logger.Debug("Meal lookup failed",
				zap.String("meal", task.ref.String()),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			continue
		}
		if err := r.plans.UpdateMealMacros(ctx, planID, task.ref, macros); err != nil {
			lastErr = err
			continue
		}
		r.metrics.RecordRecalculation("updated")
		return true
	}

	r.metrics.RecordRecalculation("failed")
	r.logger.Warn("Keeping generated macros after failed recalculation",
		zap.String("plan_id", planID.String()),
		zap.String("meal", task.ref.String()),
		zap.String("name", task.meal.Name),
		zap.Error(lastErr),
	)
	return false
}

func (r *Recalculator) backoff(err error) time.Duration {
	var lookupErr *outbound.LookupError
	if errors.As(err, &lookupErr) && lookupErr.RateLimited {
		return r.policy.RateLimitBackoff
	}
	return r.policy.RetryBackoff
}

func (r *Recalculator) sumIngredients(ctx context.Context, ingredients []string) (blueprint.Macros, error) {
	var total blueprint.Macros
	for _, ing := range ingredients {
		facts, err := r.lookup.Lookup(ctx, ing)
		if err != nil {
			return blueprint.Macros{}, err
		}
		total = total.Add(blueprint.Macros{
			Calories: facts.Calories,
			ProteinG: facts.ProteinG,
			CarbsG:   facts.CarbsG,
			FatG:     facts.FatG,
		})
	}
	round := func(v float64) float64 { return math.Round(v*10) / 10 }
	return blueprint.Macros{
		Calories: round(total.Calories),
		ProteinG: round(total.ProteinG),
		CarbsG:   round(total.CarbsG),
		FatG:     round(total.FatG),
	}, nil
}
