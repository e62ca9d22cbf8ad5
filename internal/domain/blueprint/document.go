package blueprint

import (
	"time"

	"github.com/alchemorsel/nutriplan/internal/domain/nutrition"
)

// Document is the plan shape exposed at the storage and API boundary
type Document struct {
	ID            string                `json:"id"`
	WeekStartDate string                `json:"weekStartDate"`
	DailyCalories int                   `json:"dailyCalories"`
	Meals         []DayEntry            `json:"meals"`
	ShoppingList  ShoppingList          `json:"shoppingList"`
	UnitSystem    nutrition.UnitSystem  `json:"unitSystem"`
	HouseholdSize int                   `json:"householdSize"`
	Target        nutrition.MacroTarget `json:"target"`
	Metadata      GenerationMetadata    `json:"generationMetadata"`
	GeneratedAt   time.Time             `json:"generatedAt"`
}

// ToDocument converts a plan to its boundary representation
func ToDocument(p *Plan) Document {
	list := p.ShoppingList
	if list == nil {
		list = ShoppingList{}
	}
	return Document{
		ID:            p.ID.String(),
		WeekStartDate: p.WeekKey(),
		DailyCalories: p.DailyCalories,
		Meals:         p.Days,
		ShoppingList:  list,
		UnitSystem:    p.UnitSystem,
		HouseholdSize: p.HouseholdSize,
		Target:        p.Target,
		Metadata:      p.Metadata,
		GeneratedAt:   p.GeneratedAt,
	}
}

// Summary is a compact listing entry
type Summary struct {
	ID            string    `json:"id"`
	WeekStartDate string    `json:"weekStartDate"`
	DailyCalories int       `json:"dailyCalories"`
	Tier          Tier      `json:"tier"`
	GeneratedAt   time.Time `json:"generatedAt"`
}

// Summarize returns the listing entry for a plan
func Summarize(p *Plan) Summary {
	return Summary{
		ID:            p.ID.String(),
		WeekStartDate: p.WeekKey(),
		DailyCalories: p.DailyCalories,
		Tier:          p.Metadata.Tier,
		GeneratedAt:   p.GeneratedAt,
	}
}
