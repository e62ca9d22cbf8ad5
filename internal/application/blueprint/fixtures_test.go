package blueprint

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alchemorsel/nutriplan/internal/domain/blueprint"
	"github.com/alchemorsel/nutriplan/internal/domain/nutrition"
)

var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func testMeal(name string, calories, protein, carbs, fat float64, ingredients ...string) *blueprint.Meal {
	return &blueprint.Meal{
		Name:         name,
		Ingredients:  ingredients,
		Instructions: []string{"Prepare the ingredients.", "Cook and serve."},
		Calories:     calories,
		ProteinG:     protein,
		CarbsG:       carbs,
		FatG:         fat,
	}
}

// testDays builds seven days of three meals and one snack whose totals match
// the full-recipe target of 2000 kcal balanced (8000/500/1000/220)
func testDays() []blueprint.DayEntry {
	days := make([]blueprint.DayEntry, blueprint.DaysPerPlan)
	for i := range days {
		days[i] = blueprint.DayEntry{
			Day:       weekdays[i],
			Breakfast: testMeal(fmt.Sprintf("Veggie Omelet %d", i), 2000, 125, 250, 55, "8 large eggs", "1 cup spinach", "2 tbsp butter"),
			Lunch:     testMeal(fmt.Sprintf("Chicken Rice Bowl %d", i), 2400, 150, 300, 66, "2 lbs chicken breast", "2 cups brown rice", "1 tbsp olive oil"),
			Dinner:    testMeal(fmt.Sprintf("Salmon Quinoa %d", i), 2800, 175, 350, 77, "1.5 lbs salmon fillet", "1 cup quinoa", "2 cups broccoli"),
			Snacks: []blueprint.Meal{
				*testMeal(fmt.Sprintf("Yogurt Parfait %d", i), 800, 50, 100, 22, "2 cups greek yogurt", "1 cup blueberries"),
			},
		}
	}
	return days
}

func testDocument() string {
	data, err := json.Marshal(map[string]interface{}{"days": testDays()})
	if err != nil {
		panic(err)
	}
	return string(data)
}

func testProfile() *nutrition.Profile {
	return &nutrition.Profile{
		UserID:            "user-1",
		WeightKg:          70,
		HeightCm:          175,
		Age:               35,
		Sex:               nutrition.SexMale,
		ActivityLevel:     nutrition.ActivityModerate,
		DietaryPreference: "balanced",
		WeightTrend:       nutrition.TrendMaintaining,
		UnitSystem:        nutrition.UnitsImperial,
		MealsPerDay:       3,
		SnacksPerDay:      1,
		CalorieGoal:       2000,
	}
}

func testPlan(userID string, week time.Time) *blueprint.Plan {
	target := nutrition.MacroTarget{Calories: 2000, ProteinGrams: 125, CarbsGrams: 250, FatGrams: 55}
	plan, err := blueprint.NewPlan(userID, week, target, testDays(), blueprint.ShoppingList{}, nutrition.UnitsImperial,
		blueprint.GenerationMetadata{Tier: blueprint.TierEconomy, AttemptCount: 1})
	if err != nil {
		panic(err)
	}
	return plan
}

// recordingSleeper captures requested sleeps without waiting
type recordingSleeper struct {
	slept []time.Duration
}

func (r *recordingSleeper) sleep(_ context.Context, d time.Duration) {
	r.slept = append(r.slept, d)
}

var monday = time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)

func jsonDays(days []blueprint.DayEntry) (string, error) {
	data, err := json.Marshal(map[string]interface{}{"days": days})
	return string(data), err
}
