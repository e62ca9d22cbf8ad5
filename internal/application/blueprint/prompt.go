package blueprint

import (
	"bytes"
	"embed"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/alchemorsel/nutriplan/internal/domain/blueprint"
	"github.com/alchemorsel/nutriplan/internal/domain/nutrition"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

// snackShare is the fraction of daily calories budgeted per snack
const snackShare = 0.10

var unitDirectives = map[nutrition.UnitSystem]struct {
	allowed   []string
	forbidden []string
	examples  []string
}{
	nutrition.UnitsImperial: {
		allowed:   []string{"cups", "tbsp", "tsp", "oz", "lbs"},
		forbidden: []string{"g", "kg", "ml", "l"},
		examples:  []string{"1.5 lbs chicken breast", "2 cups broccoli florets", "1 tbsp olive oil"},
	},
	nutrition.UnitsMetric: {
		allowed:   []string{"g", "kg", "ml", "l"},
		forbidden: []string{"cups", "tbsp", "tsp", "oz", "lbs"},
		examples:  []string{"700 g chicken breast", "300 g broccoli florets", "15 ml olive oil"},
	},
}

// Prompt is the rendered generation request
type Prompt struct {
	System string
	User   string
}

// PromptInput is everything the builder needs
type PromptInput struct {
	Profile    *nutrition.Profile
	Target     nutrition.MacroTarget
	Preset     nutrition.Preset
	Exclusions ExclusionContext
	WeekStart  time.Time
}

// MealTarget is the full-recipe budget for one slot
type MealTarget struct {
	Slot blueprint.Slot
	nutrition.MacroTarget
}

type promptData struct {
	WeekStart      string
	Servings       int
	Daily          nutrition.MacroTarget
	FullRecipe     nutrition.MacroTarget
	MealsPerDay    int
	SnacksPerDay   int
	Slots          []blueprint.Slot
	MealTargets    []MealTarget
	PresetLabel    string
	Forbidden      []string
	Emphasize      []string
	UnitSystem     nutrition.UnitSystem
	AllowedUnits   []string
	ForbiddenUnits []string
	UnitExamples   []string
	Exclusions     string
}

// PromptBuilder renders generation prompts from embedded templates
type PromptBuilder struct {
	system *template.Template
	user   *template.Template
}

// NewPromptBuilder parses the embedded templates
func NewPromptBuilder() (*PromptBuilder, error) {
	funcs := template.FuncMap{
		"join": func(items interface{}, sep string) string {
			switch v := items.(type) {
			case []string:
				return strings.Join(v, sep)
			case []blueprint.Slot:
				parts := make([]string, len(v))
				for i, s := range v {
					parts[i] = string(s)
				}
				return strings.Join(parts, sep)
			default:
				return fmt.Sprint(v)
			}
		},
	}
	system, err := template.New("system.tmpl").Funcs(funcs).ParseFS(promptFS, "prompts/system.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse system prompt: %w", err)
	}
	user, err := template.New("user.tmpl").Funcs(funcs).ParseFS(promptFS, "prompts/user.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse user prompt: %w", err)
	}
	return &PromptBuilder{system: system, user: user}, nil
}

// Build renders the prompt and verifies that every target and profile value
// made it into the text
func (b *PromptBuilder) Build(in PromptInput) (Prompt, error) {
	data, err := newPromptData(in)
	if err != nil {
		return Prompt{}, err
	}

	var sys, usr bytes.Buffer
	if err := b.system.Execute(&sys, data); err != nil {
		return Prompt{}, fmt.Errorf("render system prompt: %w", err)
	}
	if err := b.user.Execute(&usr, data); err != nil {
		return Prompt{}, fmt.Errorf("render user prompt: %w", err)
	}

	p := Prompt{System: sys.String(), User: usr.String()}
	if err := checkComplete(p.User, data); err != nil {
		return Prompt{}, err
	}
	return p, nil
}

func newPromptData(in PromptInput) (promptData, error) {
	if in.Profile == nil {
		return promptData{}, fmt.Errorf("prompt input has no profile")
	}
	if in.Target.Calories <= 0 {
		return promptData{}, fmt.Errorf("prompt input has no calorie target")
	}
	if in.Preset.Key == "" {
		return promptData{}, fmt.Errorf("prompt input has no dietary preset")
	}

	units := in.Profile.Units()
	directive := unitDirectives[units]
	slots := blueprint.SlotsForMeals(in.Profile.MealsPerDay)

	return promptData{
		WeekStart:      blueprint.WeekKey(in.WeekStart),
		Servings:       blueprint.ServingsPerRecipe,
		Daily:          in.Target,
		FullRecipe:     in.Target.Scale(blueprint.ServingsPerRecipe),
		MealsPerDay:    len(slots),
		SnacksPerDay:   in.Profile.SnacksPerDay,
		Slots:          slots,
		MealTargets:    mealTargets(in.Target, slots, in.Profile.SnacksPerDay),
		PresetLabel:    in.Preset.Label,
		Forbidden:      in.Preset.Forbidden,
		Emphasize:      in.Preset.Emphasize,
		UnitSystem:     units,
		AllowedUnits:   directive.allowed,
		ForbiddenUnits: directive.forbidden,
		UnitExamples:   directive.examples,
		Exclusions:     in.Exclusions.Render(),
	}, nil
}

// mealTargets splits the daily target across slots after reserving the snack
// share, and scales each slot to the full recipe
func mealTargets(daily nutrition.MacroTarget, slots []blueprint.Slot, snacks int) []MealTarget {
	mealShare := 1 - snackShare*float64(snacks)
	per := mealShare / float64(len(slots))
	scale := func(v int, share float64) int {
		return int(float64(v)*share*blueprint.ServingsPerRecipe + 0.5)
	}

	targets := make([]MealTarget, 0, len(slots)+1)
	for _, slot := range slots {
		targets = append(targets, MealTarget{
			Slot: slot,
			MacroTarget: nutrition.MacroTarget{
				Calories:     scale(daily.Calories, per),
				ProteinGrams: scale(daily.ProteinGrams, per),
				CarbsGrams:   scale(daily.CarbsGrams, per),
				FatGrams:     scale(daily.FatGrams, per),
			},
		})
	}
	if snacks > 0 {
		targets = append(targets, MealTarget{
			Slot: blueprint.SlotSnack,
			MacroTarget: nutrition.MacroTarget{
				Calories:     scale(daily.Calories, snackShare),
				ProteinGrams: scale(daily.ProteinGrams, snackShare),
				CarbsGrams:   scale(daily.CarbsGrams, snackShare),
				FatGrams:     scale(daily.FatGrams, snackShare),
			},
		})
	}
	return targets
}

// checkComplete fails when a required value is missing from the rendered text
func checkComplete(text string, data promptData) error {
	required := []string{
		strconv.Itoa(data.Daily.Calories),
		strconv.Itoa(data.Daily.ProteinGrams),
		strconv.Itoa(data.Daily.CarbsGrams),
		strconv.Itoa(data.Daily.FatGrams),
		strconv.Itoa(data.FullRecipe.Calories),
		strconv.Itoa(data.FullRecipe.ProteinGrams),
		strconv.Itoa(data.FullRecipe.CarbsGrams),
		strconv.Itoa(data.FullRecipe.FatGrams),
		data.PresetLabel,
		string(data.UnitSystem),
		data.WeekStart,
	}
	for _, slot := range data.Slots {
		required = append(required, `"`+string(slot)+`"`)
	}
	required = append(required, data.Forbidden...)

	var missing []string
	for _, r := range required {
		if !strings.Contains(text, r) {
			missing = append(missing, r)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("prompt is missing required values: %s", strings.Join(missing, ", "))
	}
	return nil
}
