package nutrition

import (
	"fmt"
	"math"
)

const (
	kcalPerGramProtein = 4.0
	kcalPerGramCarbs   = 4.0
	kcalPerGramFat     = 9.0

	fatCalorieFloor    = 0.20
	fatGramsPerKgFloor = 0.5

	losingDeficit   = 500
	gainingSurplus  = 300
	minimumCalories = 1200
)

// MacroTarget is the daily calorie and macro gram target for one user
type MacroTarget struct {
	Calories     int `json:"calories"`
	ProteinGrams int `json:"protein_g"`
	CarbsGrams   int `json:"carbs_g"`
	FatGrams     int `json:"fat_g"`
}

// Energy returns the calories implied by the macro grams
func (t MacroTarget) Energy() int {
	return int(kcalPerGramProtein)*t.ProteinGrams + int(kcalPerGramCarbs)*t.CarbsGrams + int(kcalPerGramFat)*t.FatGrams
}

// Scale multiplies every field, used for full-recipe targets
func (t MacroTarget) Scale(factor int) MacroTarget {
	return MacroTarget{
		Calories:     t.Calories * factor,
		ProteinGrams: t.ProteinGrams * factor,
		CarbsGrams:   t.CarbsGrams * factor,
		FatGrams:     t.FatGrams * factor,
	}
}

// BMR computes basal metabolic rate with Mifflin-St Jeor
func BMR(p *Profile) float64 {
	bmr := 10*p.WeightKg + 6.25*p.HeightCm - 5*float64(p.Age)
	if p.Sex == SexMale {
		return bmr + 5
	}
	return bmr - 161
}

// TDEE is BMR scaled by the activity multiplier
func TDEE(p *Profile) float64 {
	return BMR(p) * p.ActivityLevel.Multiplier()
}

// CalorieGoal resolves the daily calorie goal. An explicit goal wins; otherwise
// the goal is derived from TDEE and the weight trend.
func CalorieGoal(p *Profile, explicit int) (int, error) {
	if explicit > 0 {
		return explicit, nil
	}
	if p.CalorieGoal > 0 {
		return p.CalorieGoal, nil
	}
	if !p.HasBodyMetrics() {
		return 0, ErrMissingCalorieGoal
	}

	goal := math.Round(TDEE(p))
	switch p.WeightTrend {
	case TrendLosing:
		goal -= losingDeficit
	case TrendGaining:
		goal += gainingSurplus
	}
	if goal < minimumCalories {
		goal = minimumCalories
	}
	return int(goal), nil
}

// Split returns the trend-adjusted, clamped and renormalized ratio split
func Split(p *Profile, preset Preset) MacroSplit {
	split := preset.Split
	if p.MacroOverride != nil {
		split = *p.MacroOverride
	}

	switch p.WeightTrend {
	case TrendLosing:
		split.Protein += 0.05
		split.Carbs -= 0.05
	case TrendGaining:
		if !preset.StrictLowCarb {
			split.Carbs += 0.05
			split.Fat += 0.02
			split.Protein -= 0.02
		}
	}

	split.Protein = preset.ProteinBounds.clamp(split.Protein)
	split.Carbs = preset.CarbBounds.clamp(split.Carbs)
	split.Fat = preset.FatBounds.clamp(split.Fat)

	if sum := split.Sum(); sum > 0 {
		split.Protein /= sum
		split.Carbs /= sum
		split.Fat /= sum
	}
	return split
}

// Resolve computes the daily macro target for a profile. It performs no I/O.
func Resolve(p *Profile, calorieGoal int) (MacroTarget, error) {
	preset, ok := LookupPreset(p.DietaryPreference)
	if !ok {
		return MacroTarget{}, fmt.Errorf("%w: %q", ErrUnknownPreference, p.DietaryPreference)
	}

	goal, err := CalorieGoal(p, calorieGoal)
	if err != nil {
		return MacroTarget{}, err
	}
	calories := float64(goal)

	split := Split(p, preset)

	protein := split.Protein * calories / kcalPerGramProtein
	if p.WeightKg > 0 {
		band := preset.ProteinPerKg
		protein = math.Max(protein, band.Min*p.WeightKg)
		protein = math.Min(protein, band.Max*p.WeightKg)
	}

	// The weight-based fat minimum may not eat into the protein share; the
	// calorie-based floor always holds.
	fatFloor := fatCalorieFloor * calories / kcalPerGramFat
	if p.WeightKg > 0 {
		weightFloor := math.Min(fatGramsPerKgFloor*p.WeightKg, (1-split.Protein)*calories/kcalPerGramFat)
		fatFloor = math.Max(fatFloor, weightFloor)
	}
	fat := math.Max(split.Fat*calories/kcalPerGramFat, fatFloor)

	proteinG := math.Round(protein)
	fatG := math.Round(fat)

	if proteinG*kcalPerGramProtein+fatG*kcalPerGramFat > calories {
		fatG = math.Round(math.Max(fatFloor, (calories-proteinG*kcalPerGramProtein)/kcalPerGramFat))
	}
	// Protein gives up its per-kg band before the fat floor is breached.
	if proteinG*kcalPerGramProtein+fatG*kcalPerGramFat > calories {
		proteinG = math.Max(0, math.Floor((calories-fatG*kcalPerGramFat)/kcalPerGramProtein))
	}

	carbs := math.Max(0, (calories-proteinG*kcalPerGramProtein-fatG*kcalPerGramFat)/kcalPerGramCarbs)

	return MacroTarget{
		Calories:     goal,
		ProteinGrams: int(proteinG),
		CarbsGrams:   int(math.Round(carbs)),
		FatGrams:     int(fatG),
	}, nil
}
