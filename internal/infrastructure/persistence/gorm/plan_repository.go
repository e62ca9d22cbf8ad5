package gorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alchemorsel/nutriplan/internal/domain/blueprint"
	"github.com/alchemorsel/nutriplan/internal/ports/outbound"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlanRepository implements the plan repository interface using GORM
type PlanRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

func orderedMeals(db *gorm.DB) *gorm.DB {
	return db.Order("day_index ASC, position ASC")
}

// Save stores the plan, replacing any plan already stored for the same user and week
func (r *PlanRepository) Save(ctx context.Context, plan *blueprint.Plan) error {
	if err := plan.Validate(); err != nil {
		return err
	}
	model := PlanToModel(plan)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteByUserWeek(tx, model.UserID, model.WeekStart); err != nil && !errors.Is(err, blueprint.ErrPlanNotFound) {
			return err
		}
		if err := deletePlanRows(tx, model.ID); err != nil {
			return err
		}
		if err := tx.Create(model).Error; err != nil {
			return fmt.Errorf("failed to save plan: %w", err)
		}
		return nil
	})
}

// FindByID finds a plan by ID
func (r *PlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*blueprint.Plan, error) {
	var model PlanModel

	result := r.db.WithContext(ctx).
		Preload("Meals", orderedMeals).
		First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, blueprint.ErrPlanNotFound
		}
		return nil, result.Error
	}

	return ModelToPlan(&model)
}

// FindByUserWeek finds the user's plan for the week containing week
func (r *PlanRepository) FindByUserWeek(ctx context.Context, userID string, week time.Time) (*blueprint.Plan, error) {
	var model PlanModel

	result := r.db.WithContext(ctx).
		Preload("Meals", orderedMeals).
		Where("user_id = ? AND week_start = ?", userID, blueprint.WeekKey(week)).
		First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, blueprint.ErrPlanNotFound
		}
		return nil, result.Error
	}

	return ModelToPlan(&model)
}

// DeleteByUserWeek removes the plan and its meals
func (r *PlanRepository) DeleteByUserWeek(ctx context.Context, userID string, week time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteByUserWeek(tx, userID, blueprint.WeekKey(week))
	})
}

func deleteByUserWeek(tx *gorm.DB, userID, weekKey string) error {
	var ids []uuid.UUID
	if err := tx.Model(&PlanModel{}).
		Where("user_id = ? AND week_start = ?", userID, weekKey).
		Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return blueprint.ErrPlanNotFound
	}
	for _, id := range ids {
		if err := deletePlanRows(tx, id); err != nil {
			return err
		}
	}
	return nil
}

func deletePlanRows(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Where("plan_id = ?", id).Delete(&MealModel{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", id).Delete(&PlanModel{}).Error
}

// ListRecent returns the newest plans first, optionally only weeks before the given one
func (r *PlanRepository) ListRecent(ctx context.Context, userID string, before time.Time, limit int) ([]*blueprint.Plan, error) {
	query := r.db.WithContext(ctx).
		Preload("Meals", orderedMeals).
		Where("user_id = ?", userID)
	if !before.IsZero() {
		query = query.Where("week_start < ?", blueprint.WeekKey(before))
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []PlanModel
	if err := query.Order("week_start DESC").Find(&models).Error; err != nil {
		return nil, err
	}

	plans := make([]*blueprint.Plan, 0, len(models))
	for i := range models {
		plan, err := ModelToPlan(&models[i])
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

// UpdateMealMacros overwrites only the macro columns of one meal row
func (r *PlanRepository) UpdateMealMacros(ctx context.Context, planID uuid.UUID, ref blueprint.MealRef, macros blueprint.Macros) error {
	index := 0
	if ref.Slot == blueprint.SlotSnack {
		index = ref.Index
	}

	result := r.db.WithContext(ctx).
		Model(&MealModel{}).
		Where("plan_id = ? AND day_index = ? AND slot = ? AND slot_index = ?", planID, ref.Day, string(ref.Slot), index).
		Updates(map[string]interface{}{
			"calories":  macros.Calories,
			"protein_g": macros.ProteinG,
			"carbs_g":   macros.CarbsG,
			"fat_g":     macros.FatG,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", blueprint.ErrMealNotFound, ref)
	}

	return r.db.WithContext(ctx).
		Model(&PlanModel{}).
		Where("id = ?", planID).
		Update("updated_at", time.Now().UTC()).Error
}

var _ outbound.PlanRepository = (*PlanRepository)(nil)
