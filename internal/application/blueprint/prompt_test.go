package blueprint

import (
	"testing"

	"github.com/alchemorsel/nutriplan/internal/domain/blueprint"
	"github.com/alchemorsel/nutriplan/internal/domain/nutrition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildPrompt(t *testing.T, in PromptInput) Prompt {
	t.Helper()
	builder, err := NewPromptBuilder()
	require.NoError(t, err)
	p, err := builder.Build(in)
	require.NoError(t, err)
	return p
}

func TestPromptBuilder_IncludesTargetsAndStructure(t *testing.T) {
	profile := testProfile()
	preset, _ := nutrition.LookupPreset("balanced")

	p := buildPrompt(t, PromptInput{Profile: profile, Target: balancedTarget, Preset: preset, WeekStart: monday})

	assert.Contains(t, p.System, "exactly 4 people")
	assert.Contains(t, p.User, "2026-10-19")
	assert.Contains(t, p.User, "Calories: 2000 kcal")
	assert.Contains(t, p.User, "Protein: 125 g")
	assert.Contains(t, p.User, "Calories: 8000 kcal")
	assert.Contains(t, p.User, "Protein: 500 g")
	assert.Contains(t, p.User, "3 meals per day in these slots: breakfast, lunch, dinner")
	assert.Contains(t, p.User, "1 snacks per day")
	assert.Contains(t, p.User, `"lunch": {"name"`)
	assert.Contains(t, p.User, "DIETARY PREFERENCE: Balanced")
	assert.NotContains(t, p.User, "VARIETY")
}

func TestPromptBuilder_TwoMealsHaveNoLunch(t *testing.T) {
	profile := testProfile()
	profile.MealsPerDay = 2
	profile.SnacksPerDay = 0
	preset, _ := nutrition.LookupPreset("balanced")

	p := buildPrompt(t, PromptInput{Profile: profile, Target: balancedTarget, Preset: preset, WeekStart: monday})

	assert.Contains(t, p.User, "slots: breakfast, dinner")
	assert.NotContains(t, p.User, `"lunch"`)
	assert.Contains(t, p.User, `"snacks": []`)
}

func TestPromptBuilder_PresetConstraints(t *testing.T) {
	preset, ok := nutrition.LookupPreset("ketogenic")
	require.True(t, ok)

	p := buildPrompt(t, PromptInput{Profile: testProfile(), Target: balancedTarget, Preset: preset, WeekStart: monday})

	assert.Contains(t, p.User, "Never use: ")
	for _, f := range preset.Forbidden {
		assert.Contains(t, p.User, f)
	}
}

func TestPromptBuilder_UnitDirective(t *testing.T) {
	preset, _ := nutrition.LookupPreset("balanced")

	imperial := buildPrompt(t, PromptInput{Profile: testProfile(), Target: balancedTarget, Preset: preset, WeekStart: monday})
	assert.Contains(t, imperial.User, "UNITS: imperial only")
	assert.Contains(t, imperial.User, "Forbidden units: g, kg, ml, l")

	metricProfile := testProfile()
	metricProfile.UnitSystem = nutrition.UnitsMetric
	metric := buildPrompt(t, PromptInput{Profile: metricProfile, Target: balancedTarget, Preset: preset, WeekStart: monday})
	assert.Contains(t, metric.User, "UNITS: metric only")
	assert.Contains(t, metric.User, "Forbidden units: cups, tbsp, tsp, oz, lbs")
	assert.Contains(t, metric.System, "700 g chicken breast")
}

func TestPromptBuilder_ExclusionBlock(t *testing.T) {
	preset, _ := nutrition.LookupPreset("balanced")
	exclusions := ExclusionContext{MealNames: []string{"Shakshuka"}, Ingredients: []string{"chickpea"}}

	p := buildPrompt(t, PromptInput{Profile: testProfile(), Target: balancedTarget, Preset: preset, Exclusions: exclusions, WeekStart: monday})

	assert.Contains(t, p.User, "VARIETY")
	assert.Contains(t, p.User, "- Shakshuka")
	assert.Contains(t, p.User, "DISCOURAGED INGREDIENTS (prefer alternatives): chickpea")
}

func TestPromptBuilder_RejectsIncompleteInput(t *testing.T) {
	builder, err := NewPromptBuilder()
	require.NoError(t, err)
	preset, _ := nutrition.LookupPreset("balanced")

	_, err = builder.Build(PromptInput{Profile: testProfile(), Preset: preset, WeekStart: monday})
	assert.Error(t, err)

	_, err = builder.Build(PromptInput{Target: balancedTarget, Preset: preset, WeekStart: monday})
	assert.Error(t, err)

	_, err = builder.Build(PromptInput{Profile: testProfile(), Target: balancedTarget, WeekStart: monday})
	assert.Error(t, err)
}

func TestMealTargets_ReserveSnackShare(t *testing.T) {
	targets := mealTargets(balancedTarget, []blueprint.Slot{blueprint.SlotBreakfast, blueprint.SlotLunch, blueprint.SlotDinner}, 1)

	require.Len(t, targets, 4)
	assert.Equal(t, 2400, targets[0].Calories)
	assert.Equal(t, 800, targets[3].Calories)
}
