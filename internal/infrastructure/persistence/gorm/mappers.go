package gorm

import (
	"fmt"
	"time"

	"github.com/alchemorsel/nutriplan/internal/domain/blueprint"
	"github.com/alchemorsel/nutriplan/internal/domain/nutrition"
)

const weekLayout = "2006-01-02"

// PlanToModel converts a domain plan to a GORM model with one row per meal
func PlanToModel(p *blueprint.Plan) *PlanModel {
	model := &PlanModel{
		ID:               p.ID,
		UserID:           p.UserID,
		WeekStart:        p.WeekKey(),
		DailyCalories:    p.DailyCalories,
		TargetProtein:    p.Target.ProteinGrams,
		TargetCarbs:      p.Target.CarbsGrams,
		TargetFat:        p.Target.FatGrams,
		UnitSystem:       string(p.UnitSystem),
		HouseholdSize:    p.HouseholdSize,
		Tier:             string(p.Metadata.Tier),
		AttemptCount:     p.Metadata.AttemptCount,
		Model:            p.Metadata.Model,
		PromptTokens:     p.Metadata.PromptTokens,
		CompletionTokens: p.Metadata.CompletionTokens,
		RepairPasses:     p.Metadata.RepairPasses,
		DurationMs:       p.Metadata.DurationMs,
		GeneratedAt:      p.GeneratedAt,
	}
	model.Deviation.Data = p.Metadata.MacroDeviation

	lists := make(ShoppingLists, len(p.ShoppingList))
	for category, items := range p.ShoppingList {
		records := make([]ShoppingItemRecord, 0, len(items))
		for _, item := range items {
			records = append(records, ShoppingItemRecord{Item: item.Name, Quantity: item.Quantity, Unit: item.Unit})
		}
		lists[string(category)] = records
	}
	model.ShoppingList.Data = lists

	model.DayNames = make(StringSlice, 0, len(p.Days))
	for _, day := range p.Days {
		model.DayNames = append(model.DayNames, day.Day)
	}

	position := 0
	p.EachMeal(func(ref blueprint.MealRef, m *blueprint.Meal) {
		model.Meals = append(model.Meals, MealModel{
			PlanID:       p.ID,
			DayIndex:     ref.Day,
			Slot:         string(ref.Slot),
			SlotIndex:    ref.Index,
			Position:     position,
			Name:         m.Name,
			Ingredients:  StringSlice(m.Ingredients),
			Instructions: StringSlice(m.Instructions),
			Calories:     m.Calories,
			ProteinG:     m.ProteinG,
			CarbsG:       m.CarbsG,
			FatG:         m.FatG,
		})
		position++
	})

	return model
}

// ModelToPlan converts a GORM model back to a domain plan
func ModelToPlan(model *PlanModel) (*blueprint.Plan, error) {
	week, err := time.Parse(weekLayout, model.WeekStart)
	if err != nil {
		return nil, fmt.Errorf("plan %s has invalid week %q: %w", model.ID, model.WeekStart, err)
	}

	days := make([]blueprint.DayEntry, len(model.DayNames))
	for i, name := range model.DayNames {
		days[i] = blueprint.DayEntry{Day: name, Snacks: []blueprint.Meal{}}
	}

	for _, row := range model.Meals {
		if row.DayIndex < 0 || row.DayIndex >= len(days) {
			return nil, fmt.Errorf("plan %s has meal for unknown day %d", model.ID, row.DayIndex)
		}
		meal := blueprint.Meal{
			Name:         row.Name,
			Ingredients:  []string(row.Ingredients),
			Instructions: []string(row.Instructions),
			Calories:     row.Calories,
			ProteinG:     row.ProteinG,
			CarbsG:       row.CarbsG,
			FatG:         row.FatG,
		}
		if meal.Ingredients == nil {
			meal.Ingredients = []string{}
		}
		if meal.Instructions == nil {
			meal.Instructions = []string{}
		}

		day := &days[row.DayIndex]
		switch blueprint.Slot(row.Slot) {
		case blueprint.SlotBreakfast:
			day.Breakfast = &meal
		case blueprint.SlotLunch:
			day.Lunch = &meal
		case blueprint.SlotDinner:
			day.Dinner = &meal
		case blueprint.SlotExtra:
			day.Extra = &meal
		case blueprint.SlotSnack:
			day.Snacks = append(day.Snacks, meal)
		default:
			return nil, fmt.Errorf("plan %s has meal in unknown slot %q", model.ID, row.Slot)
		}
	}

	list := make(blueprint.ShoppingList, len(model.ShoppingList.Data))
	for category, records := range model.ShoppingList.Data {
		items := make([]blueprint.ShoppingItem, 0, len(records))
		for _, r := range records {
			items = append(items, blueprint.ShoppingItem{Name: r.Item, Quantity: r.Quantity, Unit: r.Unit})
		}
		list[blueprint.Category(category)] = items
	}

	return &blueprint.Plan{
		ID:            model.ID,
		UserID:        model.UserID,
		WeekStart:     week,
		DailyCalories: model.DailyCalories,
		Target: nutrition.MacroTarget{
			Calories:     model.DailyCalories,
			ProteinGrams: model.TargetProtein,
			CarbsGrams:   model.TargetCarbs,
			FatGrams:     model.TargetFat,
		},
		Days:          days,
		ShoppingList:  list,
		UnitSystem:    nutrition.UnitSystem(model.UnitSystem),
		HouseholdSize: model.HouseholdSize,
		Metadata: blueprint.GenerationMetadata{
			Tier:             blueprint.Tier(model.Tier),
			AttemptCount:     model.AttemptCount,
			Model:            model.Model,
			PromptTokens:     model.PromptTokens,
			CompletionTokens: model.CompletionTokens,
			RepairPasses:     model.RepairPasses,
			MacroDeviation:   model.Deviation.Data,
			DurationMs:       model.DurationMs,
		},
		GeneratedAt: model.GeneratedAt.UTC(),
	}, nil
}

// ProfileToModel converts a nutrition profile to a GORM model
func ProfileToModel(p *nutrition.Profile) *ProfileModel {
	model := &ProfileModel{
		UserID:            p.UserID,
		WeightKg:          p.WeightKg,
		HeightCm:          p.HeightCm,
		Age:               p.Age,
		Sex:               string(p.Sex),
		ActivityLevel:     string(p.ActivityLevel),
		DietaryPreference: p.DietaryPreference,
		WeightTrend:       string(p.WeightTrend),
		UnitSystem:        string(p.UnitSystem),
		MealsPerDay:       p.MealsPerDay,
		SnacksPerDay:      p.SnacksPerDay,
		CalorieGoal:       p.CalorieGoal,
	}
	if o := p.MacroOverride; o != nil {
		protein, carbs, fat := o.Protein, o.Carbs, o.Fat
		model.OverrideProtein = &protein
		model.OverrideCarbs = &carbs
		model.OverrideFat = &fat
	}
	return model
}

// ModelToProfile converts a GORM model to a nutrition profile
func ModelToProfile(model *ProfileModel) *nutrition.Profile {
	p := &nutrition.Profile{
		UserID:            model.UserID,
		WeightKg:          model.WeightKg,
		HeightCm:          model.HeightCm,
		Age:               model.Age,
		Sex:               nutrition.Sex(model.Sex),
		ActivityLevel:     nutrition.ActivityLevel(model.ActivityLevel),
		DietaryPreference: model.DietaryPreference,
		WeightTrend:       nutrition.WeightTrend(model.WeightTrend),
		UnitSystem:        nutrition.UnitSystem(model.UnitSystem),
		MealsPerDay:       model.MealsPerDay,
		SnacksPerDay:      model.SnacksPerDay,
		CalorieGoal:       model.CalorieGoal,
	}
	if model.OverrideProtein != nil && model.OverrideCarbs != nil && model.OverrideFat != nil {
		p.MacroOverride = &nutrition.MacroSplit{
			Protein: *model.OverrideProtein,
			Carbs:   *model.OverrideCarbs,
			Fat:     *model.OverrideFat,
		}
	}
	return p
}
