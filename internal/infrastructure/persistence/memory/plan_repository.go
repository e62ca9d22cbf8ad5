package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/alchemorsel/nutriplan/internal/domain/blueprint"
	"github.com/alchemorsel/nutriplan/internal/ports/outbound"
	"github.com/google/uuid"
)

// PlanRepository keeps plans in process memory. Stored plans are deep copies.
type PlanRepository struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]*blueprint.Plan
	byWeek map[string]uuid.UUID
}

// NewPlanRepository creates an empty repository
func NewPlanRepository() *PlanRepository {
	return &PlanRepository{
		byID:   make(map[uuid.UUID]*blueprint.Plan),
		byWeek: make(map[string]uuid.UUID),
	}
}

func userWeekKey(userID string, week time.Time) string {
	return userID + "|" + blueprint.WeekKey(week)
}

func clonePlan(p *blueprint.Plan) (*blueprint.Plan, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to copy plan: %w", err)
	}
	var out blueprint.Plan
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to copy plan: %w", err)
	}
	return &out, nil
}

// Save stores the plan, replacing any plan for the same user and week
func (r *PlanRepository) Save(ctx context.Context, plan *blueprint.Plan) error {
	if err := plan.Validate(); err != nil {
		return err
	}
	stored, err := clonePlan(plan)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := userWeekKey(plan.UserID, plan.WeekStart)
	if old, ok := r.byWeek[key]; ok && old != plan.ID {
		delete(r.byID, old)
	}
	r.byID[plan.ID] = stored
	r.byWeek[key] = plan.ID
	return nil
}

// FindByID returns blueprint.ErrPlanNotFound for unknown ids
func (r *PlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*blueprint.Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	plan, ok := r.byID[id]
	if !ok {
		return nil, blueprint.ErrPlanNotFound
	}
	return clonePlan(plan)
}

// FindByUserWeek returns the user's plan for the week containing week
func (r *PlanRepository) FindByUserWeek(ctx context.Context, userID string, week time.Time) (*blueprint.Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byWeek[userWeekKey(userID, week)]
	if !ok {
		return nil, blueprint.ErrPlanNotFound
	}
	return clonePlan(r.byID[id])
}

// DeleteByUserWeek removes the plan for the week
func (r *PlanRepository) DeleteByUserWeek(ctx context.Context, userID string, week time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := userWeekKey(userID, week)
	id, ok := r.byWeek[key]
	if !ok {
		return blueprint.ErrPlanNotFound
	}
	delete(r.byWeek, key)
	delete(r.byID, id)
	return nil
}

// ListRecent returns the newest plans first
func (r *PlanRepository) ListRecent(ctx context.Context, userID string, before time.Time, limit int) ([]*blueprint.Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var cutoff time.Time
	if !before.IsZero() {
		cutoff = blueprint.WeekStart(before)
	}

	var matches []*blueprint.Plan
	for _, plan := range r.byID {
		if plan.UserID != userID {
			continue
		}
		if !cutoff.IsZero() && !plan.WeekStart.Before(cutoff) {
			continue
		}
		matches = append(matches, plan)
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].WeekStart.After(matches[j].WeekStart)
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]*blueprint.Plan, 0, len(matches))
	for _, plan := range matches {
		c, err := clonePlan(plan)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// UpdateMealMacros overwrites the four macro fields of one meal in place
func (r *PlanRepository) UpdateMealMacros(ctx context.Context, planID uuid.UUID, ref blueprint.MealRef, macros blueprint.Macros) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	plan, ok := r.byID[planID]
	if !ok {
		return blueprint.ErrPlanNotFound
	}
	meal, err := plan.MealAt(ref)
	if err != nil {
		return err
	}
	meal.SetMacros(macros)
	return nil
}

var _ outbound.PlanRepository = (*PlanRepository)(nil)
