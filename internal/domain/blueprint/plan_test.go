package blueprint

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/alchemorsel/nutriplan/internal/domain/nutrition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDays() []DayEntry {
	names := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	days := make([]DayEntry, 0, len(names))
	for _, name := range names {
		days = append(days, DayEntry{
			Day:       name,
			Breakfast: &Meal{Name: name + " Oats", Calories: 1600, ProteinG: 60, CarbsG: 240, FatG: 40},
			Dinner:    &Meal{Name: name + " Salmon", Calories: 2800, ProteinG: 200, CarbsG: 160, FatG: 120},
			Snacks:    []Meal{{Name: "Apple", Calories: 380, CarbsG: 100}},
		})
	}
	return days
}

func TestWeekStart(t *testing.T) {
	wednesday := time.Date(2026, 10, 21, 15, 30, 0, 0, time.FixedZone("EST", -5*3600))
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), WeekStart(wednesday))

	sunday := time.Date(2026, 10, 25, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-10-19", WeekKey(sunday))
}

func TestParseWeekStart(t *testing.T) {
	got, err := ParseWeekStart("2026-10-19")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, got.Weekday())

	_, err = ParseWeekStart("2026-10-20")
	assert.ErrorIs(t, err, ErrInvalidWeekStart)

	_, err = ParseWeekStart("next week")
	assert.ErrorIs(t, err, ErrInvalidWeekStart)
}

func TestNewPlan(t *testing.T) {
	target := nutrition.MacroTarget{Calories: 2000, ProteinGrams: 125, CarbsGrams: 250, FatGrams: 55}
	week := time.Date(2026, 10, 22, 0, 0, 0, 0, time.UTC)

	plan, err := NewPlan("user-1", week, target, sampleDays(), ShoppingList{}, nutrition.UnitsMetric, GenerationMetadata{Tier: TierEconomy, AttemptCount: 1})
	require.NoError(t, err)
	assert.Equal(t, "2026-10-19", plan.WeekKey())
	assert.Equal(t, 2000, plan.DailyCalories)
	assert.Equal(t, ServingsPerRecipe, plan.HouseholdSize)

	_, err = NewPlan("user-1", week, target, sampleDays()[:6], nil, nutrition.UnitsMetric, GenerationMetadata{})
	assert.ErrorIs(t, err, ErrInvalidDayCount)

	_, err = NewPlan("", week, target, sampleDays(), nil, nutrition.UnitsMetric, GenerationMetadata{})
	assert.ErrorIs(t, err, ErrMissingUser)
}

func TestPlan_MealAccess(t *testing.T) {
	plan := &Plan{UserID: "user-1", Days: sampleDays()}

	var refs []MealRef
	plan.EachMeal(func(ref MealRef, _ *Meal) { refs = append(refs, ref) })
	assert.Len(t, refs, 21)
	assert.Equal(t, MealRef{Day: 0, Slot: SlotBreakfast}, refs[0])
	assert.Equal(t, MealRef{Day: 0, Slot: SlotSnack, Index: 0}, refs[2])

	meal, err := plan.MealAt(MealRef{Day: 3, Slot: SlotDinner})
	require.NoError(t, err)
	assert.Equal(t, "Thursday Salmon", meal.Name)

	_, err = plan.MealAt(MealRef{Day: 3, Slot: SlotLunch})
	assert.ErrorIs(t, err, ErrMealNotFound)
	_, err = plan.MealAt(MealRef{Day: 9, Slot: SlotDinner})
	assert.ErrorIs(t, err, ErrMealNotFound)

	assert.Equal(t, "day2/snack/1", MealRef{Day: 2, Slot: SlotSnack, Index: 1}.String())
	assert.Equal(t, "day2/lunch", MealRef{Day: 2, Slot: SlotLunch}.String())
	assert.Contains(t, plan.MealNames(), "Apple")
}

func TestMeal_SetMacrosLeavesRecipeUntouched(t *testing.T) {
	meal := Meal{Name: "Chili", Ingredients: []string{"1 lb beef"}, Instructions: []string{"Simmer"}, Calories: 1}
	meal.SetMacros(Macros{Calories: 2400, ProteinG: 180, CarbsG: 150, FatG: 110})

	assert.Equal(t, "Chili", meal.Name)
	assert.Equal(t, []string{"1 lb beef"}, meal.Ingredients)
	assert.Equal(t, Macros{Calories: 2400, ProteinG: 180, CarbsG: 150, FatG: 110}, meal.Macros())
}

func TestDayEntry_Totals(t *testing.T) {
	day := sampleDays()[0]
	assert.Equal(t, Macros{Calories: 4780, ProteinG: 260, CarbsG: 500, FatG: 160}, day.Totals())
}

func TestSlotsForMeals(t *testing.T) {
	assert.Equal(t, []Slot{SlotBreakfast, SlotDinner}, SlotsForMeals(2))
	assert.Equal(t, []Slot{SlotBreakfast, SlotLunch, SlotDinner}, SlotsForMeals(3))
	assert.Len(t, SlotsForMeals(4), 4)
}

func TestToDocument(t *testing.T) {
	plan := &Plan{
		UserID:        "user-1",
		WeekStart:     time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
		DailyCalories: 2000,
		Days:          sampleDays(),
		Metadata:      GenerationMetadata{Tier: TierPremium},
	}

	doc := ToDocument(plan)
	assert.Equal(t, "2026-10-19", doc.WeekStartDate)
	assert.NotNil(t, doc.ShoppingList)

	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"weekStartDate":"2026-10-19"`)
	assert.Contains(t, string(raw), `"shoppingList":{}`)
	assert.Contains(t, string(raw), `"generationMetadata"`)

	summary := Summarize(plan)
	assert.Equal(t, TierPremium, summary.Tier)
	assert.Equal(t, 2000, summary.DailyCalories)
}

func TestShoppingList_Count(t *testing.T) {
	list := ShoppingList{
		CategoryProteins: {{Name: "chicken breast", Quantity: 2, Unit: "lbs"}},
		CategoryProduce:  {{Name: "onion", Quantity: 3}, {Name: "garlic", Quantity: 4, Unit: "cloves"}},
	}
	assert.Equal(t, 3, list.Count())
	assert.Len(t, CategoryOrder, 6)
}
