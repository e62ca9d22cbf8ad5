// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"fmt"
	"time"

	"github.com/alchemorsel/nutriplan/internal/domain/blueprint"
	"github.com/alchemorsel/nutriplan/internal/domain/nutrition"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
)

var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// ProfileFactory provides methods to create test nutrition profiles
type ProfileFactory struct {
	faker *gofakeit.Faker
}

// NewProfileFactory creates a new profile factory with seeded faker
func NewProfileFactory(seed int64) *ProfileFactory {
	return &ProfileFactory{faker: gofakeit.New(seed)}
}

// Profile returns a random profile that passes validation
func (f *ProfileFactory) Profile() *nutrition.Profile {
	presets := nutrition.PresetKeys()
	return &nutrition.Profile{
		UserID:            "user-" + f.faker.UUID(),
		WeightKg:          f.faker.Float64Range(50, 110),
		HeightCm:          f.faker.Float64Range(150, 200),
		Age:               f.faker.Number(18, 75),
		Sex:               nutrition.Sex(f.faker.RandomString([]string{"male", "female"})),
		ActivityLevel:     nutrition.ActivityLevel(f.faker.RandomString([]string{"sedentary", "light", "moderate", "active", "very_active"})),
		DietaryPreference: presets[f.faker.Number(0, len(presets)-1)],
		WeightTrend:       nutrition.WeightTrend(f.faker.RandomString([]string{"losing", "maintaining", "gaining"})),
		UnitSystem:        nutrition.UnitSystem(f.faker.RandomString([]string{"imperial", "metric"})),
		MealsPerDay:       f.faker.Number(2, 4),
		SnacksPerDay:      f.faker.Number(0, 2),
	}
}

// Meal returns a random full-recipe meal
func (f *ProfileFactory) Meal() blueprint.Meal {
	return blueprint.Meal{
		Name: fmt.Sprintf("%s %s", f.faker.AdjectiveDescriptive(), f.faker.Dinner()),
		Ingredients: []string{
			fmt.Sprintf("%d lbs chicken breast", f.faker.Number(1, 3)),
			fmt.Sprintf("%d cups %s", f.faker.Number(1, 4), f.faker.Vegetable()),
			"2 tbsp olive oil",
		},
		Instructions: []string{f.faker.Sentence(8), f.faker.Sentence(6)},
		Calories:     float64(f.faker.Number(1200, 3200)),
		ProteinG:     float64(f.faker.Number(80, 240)),
		CarbsG:       float64(f.faker.Number(60, 400)),
		FatG:         float64(f.faker.Number(30, 140)),
	}
}

// PlanBuilder provides a fluent interface for building test plans
type PlanBuilder struct {
	factory *ProfileFactory
	userID  string
	week    time.Time
	target  nutrition.MacroTarget
	snacks  int
	tier    blueprint.Tier
}

// NewPlanBuilder creates a plan builder with default values
func NewPlanBuilder(seed int64) *PlanBuilder {
	return &PlanBuilder{
		factory: NewProfileFactory(seed),
		userID:  "user-1",
		week:    blueprint.WeekStart(time.Now()),
		target:  nutrition.MacroTarget{Calories: 2000, ProteinGrams: 125, CarbsGrams: 250, FatGrams: 55},
		snacks:  1,
		tier:    blueprint.TierEconomy,
	}
}

// WithUser sets the plan owner
func (b *PlanBuilder) WithUser(userID string) *PlanBuilder {
	b.userID = userID
	return b
}

// WithWeek sets the plan week
func (b *PlanBuilder) WithWeek(week time.Time) *PlanBuilder {
	b.week = week
	return b
}

// WithSnacks sets the snacks per day
func (b *PlanBuilder) WithSnacks(n int) *PlanBuilder {
	b.snacks = n
	return b
}

// WithTier sets the generation tier
func (b *PlanBuilder) WithTier(tier blueprint.Tier) *PlanBuilder {
	b.tier = tier
	return b
}

// Build assembles a valid seven-day plan
func (b *PlanBuilder) Build() *blueprint.Plan {
	days := make([]blueprint.DayEntry, 0, blueprint.DaysPerPlan)
	for _, name := range weekdays {
		breakfast, lunch, dinner := b.factory.Meal(), b.factory.Meal(), b.factory.Meal()
		day := blueprint.DayEntry{Day: name, Breakfast: &breakfast, Lunch: &lunch, Dinner: &dinner, Snacks: []blueprint.Meal{}}
		for i := 0; i < b.snacks; i++ {
			day.Snacks = append(day.Snacks, b.factory.Meal())
		}
		days = append(days, day)
	}

	list := blueprint.ShoppingList{
		blueprint.CategoryProteins: {{Name: "chicken breast", Quantity: 14, Unit: "lbs"}},
		blueprint.CategoryPantry:   {{Name: "olive oil", Quantity: 42, Unit: "tbsp"}},
	}

	plan, err := blueprint.NewPlan(b.userID, b.week, b.target, days, list, nutrition.UnitsImperial,
		blueprint.GenerationMetadata{Tier: b.tier, AttemptCount: 1, Model: "test-model"})
	if err != nil {
		panic(fmt.Sprintf("testutils: invalid plan: %v", err))
	}
	plan.ID = uuid.New()
	plan.GeneratedAt = plan.GeneratedAt.Truncate(time.Millisecond)
	return plan
}
