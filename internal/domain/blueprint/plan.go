// Package blueprint contains the weekly meal plan aggregate produced by the
// generation pipeline.
package blueprint

import (
	"fmt"
	"time"

	"github.com/alchemorsel/nutriplan/internal/domain/nutrition"
	"github.com/google/uuid"
)

const (
	// DaysPerPlan is the fixed plan length
	DaysPerPlan = 7
	// ServingsPerRecipe is the recipe scale; macro fields always describe all servings
	ServingsPerRecipe = 4
)

// Tier is the generative model tier that produced a plan
type Tier string

const (
	TierEconomy Tier = "economy"
	TierPremium Tier = "premium"
)

// Slot names a meal position within a day
type Slot string

const (
	SlotBreakfast Slot = "breakfast"
	SlotLunch     Slot = "lunch"
	SlotDinner    Slot = "dinner"
	SlotExtra     Slot = "extra"
	SlotSnack     Slot = "snack"
)

// SlotsForMeals returns the ordered meal slots for a meals-per-day count
func SlotsForMeals(mealsPerDay int) []Slot {
	switch {
	case mealsPerDay <= 2:
		return []Slot{SlotBreakfast, SlotDinner}
	case mealsPerDay == 3:
		return []Slot{SlotBreakfast, SlotLunch, SlotDinner}
	default:
		return []Slot{SlotBreakfast, SlotLunch, SlotDinner, SlotExtra}
	}
}

// Macros is a calorie and macro gram total
type Macros struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

// Add returns the element-wise sum
func (m Macros) Add(o Macros) Macros {
	return Macros{
		Calories: m.Calories + o.Calories,
		ProteinG: m.ProteinG + o.ProteinG,
		CarbsG:   m.CarbsG + o.CarbsG,
		FatG:     m.FatG + o.FatG,
	}
}

// Meal is one recipe. Macro fields cover the full recipe, never a single serving.
type Meal struct {
	Name         string   `json:"name"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	Calories     float64  `json:"calories"`
	ProteinG     float64  `json:"protein_g"`
	CarbsG       float64  `json:"carbs_g"`
	FatG         float64  `json:"fat_g"`
}

// Macros returns the meal's macro fields
func (m *Meal) Macros() Macros {
	return Macros{Calories: m.Calories, ProteinG: m.ProteinG, CarbsG: m.CarbsG, FatG: m.FatG}
}

// SetMacros overwrites only the four macro fields
func (m *Meal) SetMacros(macros Macros) {
	m.Calories = macros.Calories
	m.ProteinG = macros.ProteinG
	m.CarbsG = macros.CarbsG
	m.FatG = macros.FatG
}

// DayEntry holds the meals of one day. Unused slots stay nil.
type DayEntry struct {
	Day       string `json:"day"`
	Breakfast *Meal  `json:"breakfast,omitempty"`
	Lunch     *Meal  `json:"lunch,omitempty"`
	Dinner    *Meal  `json:"dinner,omitempty"`
	Extra     *Meal  `json:"extra,omitempty"`
	Snacks    []Meal `json:"snacks"`
}

// MealRef addresses a single meal inside a plan
type MealRef struct {
	Day   int  `json:"day"`
	Slot  Slot `json:"slot"`
	Index int  `json:"index"`
}

func (r MealRef) String() string {
	if r.Slot == SlotSnack {
		return fmt.Sprintf("day%d/%s/%d", r.Day, r.Slot, r.Index)
	}
	return fmt.Sprintf("day%d/%s", r.Day, r.Slot)
}

// Meal returns the meal stored in slot, or nil
func (d *DayEntry) Meal(slot Slot, index int) *Meal {
	switch slot {
	case SlotBreakfast:
		return d.Breakfast
	case SlotLunch:
		return d.Lunch
	case SlotDinner:
		return d.Dinner
	case SlotExtra:
		return d.Extra
	case SlotSnack:
		if index >= 0 && index < len(d.Snacks) {
			return &d.Snacks[index]
		}
	}
	return nil
}

// EachMeal visits every meal and snack of the day in slot order
func (d *DayEntry) EachMeal(day int, fn func(ref MealRef, meal *Meal)) {
	for _, slot := range []Slot{SlotBreakfast, SlotLunch, SlotDinner, SlotExtra} {
		if m := d.Meal(slot, 0); m != nil {
			fn(MealRef{Day: day, Slot: slot}, m)
		}
	}
	for i := range d.Snacks {
		fn(MealRef{Day: day, Slot: SlotSnack, Index: i}, &d.Snacks[i])
	}
}

// Totals sums the macros of every meal and snack in the day
func (d *DayEntry) Totals() Macros {
	var total Macros
	d.EachMeal(0, func(_ MealRef, m *Meal) {
		total = total.Add(m.Macros())
	})
	return total
}

// GenerationMetadata records how a plan was produced
type GenerationMetadata struct {
	Tier             Tier               `json:"tier"`
	AttemptCount     int                `json:"attempt_count"`
	Model            string             `json:"model,omitempty"`
	PromptTokens     int                `json:"prompt_tokens,omitempty"`
	CompletionTokens int                `json:"completion_tokens,omitempty"`
	RepairPasses     int                `json:"repair_passes"`
	MacroDeviation   map[string]float64 `json:"macro_deviation,omitempty"`
	DurationMs       int64              `json:"duration_ms"`
}

// Plan is the persisted weekly blueprint
type Plan struct {
	ID            uuid.UUID             `json:"id"`
	UserID        string                `json:"user_id"`
	WeekStart     time.Time             `json:"week_start"`
	DailyCalories int                   `json:"daily_calories"`
	Target        nutrition.MacroTarget `json:"target"`
	Days          []DayEntry            `json:"days"`
	ShoppingList  ShoppingList          `json:"shopping_list"`
	UnitSystem    nutrition.UnitSystem  `json:"unit_system"`
	HouseholdSize int                   `json:"household_size"`
	Metadata      GenerationMetadata    `json:"metadata"`
	GeneratedAt   time.Time             `json:"generated_at"`
}

// NewPlan assembles a plan and enforces the seven-day invariant
func NewPlan(userID string, week time.Time, target nutrition.MacroTarget, days []DayEntry, list ShoppingList, units nutrition.UnitSystem, meta GenerationMetadata) (*Plan, error) {
	p := &Plan{
		ID:            uuid.New(),
		UserID:        userID,
		WeekStart:     WeekStart(week),
		DailyCalories: target.Calories,
		Target:        target,
		Days:          days,
		ShoppingList:  list,
		UnitSystem:    units,
		HouseholdSize: ServingsPerRecipe,
		Metadata:      meta,
		GeneratedAt:   time.Now().UTC(),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks structural invariants
func (p *Plan) Validate() error {
	if len(p.Days) != DaysPerPlan {
		return fmt.Errorf("%w: got %d", ErrInvalidDayCount, len(p.Days))
	}
	if p.UserID == "" {
		return ErrMissingUser
	}
	return nil
}

// WeekKey returns the ISO date of the plan's Monday
func (p *Plan) WeekKey() string {
	return WeekKey(p.WeekStart)
}

// EachMeal visits every meal of every day
func (p *Plan) EachMeal(fn func(ref MealRef, meal *Meal)) {
	for i := range p.Days {
		p.Days[i].EachMeal(i, fn)
	}
}

// MealAt resolves a reference
func (p *Plan) MealAt(ref MealRef) (*Meal, error) {
	if ref.Day < 0 || ref.Day >= len(p.Days) {
		return nil, fmt.Errorf("%w: %s", ErrMealNotFound, ref)
	}
	m := p.Days[ref.Day].Meal(ref.Slot, ref.Index)
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrMealNotFound, ref)
	}
	return m, nil
}

// MealNames lists every meal and snack name in plan order
func (p *Plan) MealNames() []string {
	var names []string
	p.EachMeal(func(_ MealRef, m *Meal) {
		if m.Name != "" {
			names = append(names, m.Name)
		}
	})
	return names
}
