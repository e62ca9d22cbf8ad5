package blueprint

import (
	"math"
	"sort"
	"strings"

	"github.com/alchemorsel/nutriplan/internal/domain/blueprint"
	"go.uber.org/zap"
)

// AggregatorLimits bounds the shopping list
type AggregatorLimits struct {
	MaxItems    int `mapstructure:"max_items"`
	MaxProteins int `mapstructure:"max_proteins"`
}

// DefaultAggregatorLimits returns the production caps
func DefaultAggregatorLimits() AggregatorLimits {
	return AggregatorLimits{MaxItems: 25, MaxProteins: 7}
}

// Aggregator merges every ingredient in a plan into a categorized shopping list
type Aggregator struct {
	limits AggregatorLimits
	logger *zap.Logger
}

// NewAggregator creates an aggregator. Invalid limits fall back to the defaults.
func NewAggregator(limits AggregatorLimits, logger *zap.Logger) *Aggregator {
	if limits.MaxItems <= 0 || limits.MaxProteins <= 0 || limits.MaxProteins > limits.MaxItems {
		limits = DefaultAggregatorLimits()
	}
	return &Aggregator{limits: limits, logger: logger.Named("aggregator")}
}

type mergedEntry struct {
	name     string
	quantity float64
	unit     string
}

// Aggregate builds the shopping list for the given days
func (a *Aggregator) Aggregate(days []blueprint.DayEntry) blueprint.ShoppingList {
	merged := make(map[string]*mergedEntry)
	for i := range days {
		days[i].EachMeal(i, func(_ blueprint.MealRef, meal *blueprint.Meal) {
			for _, raw := range meal.Ingredients {
				a.merge(merged, ParseIngredient(raw))
			}
		})
	}

	grouped := make(map[blueprint.Category][]blueprint.ShoppingItem)
	for _, e := range merged {
		cat := Categorize(e.name)
		grouped[cat] = append(grouped[cat], blueprint.ShoppingItem{
			Name:     e.name,
			Quantity: math.Round(e.quantity*100) / 100,
			Unit:     e.unit,
		})
	}

	for _, items := range grouped {
		sort.Slice(items, func(i, j int) bool {
			if items[i].Quantity != items[j].Quantity {
				return items[i].Quantity > items[j].Quantity
			}
			return items[i].Name < items[j].Name
		})
	}

	return a.truncate(grouped)
}

func (a *Aggregator) merge(merged map[string]*mergedEntry, p ParsedIngredient) {
	if p.Name == "" {
		return
	}
	existing, ok := merged[p.Name]
	if !ok {
		merged[p.Name] = &mergedEntry{name: p.Name, quantity: p.Quantity, unit: p.Unit}
		return
	}
	if existing.unit != p.Unit {
		a.logger.Warn("Unit mismatch while merging ingredient, summing without conversion",
			zap.String("ingredient", p.Name),
			zap.String("kept_unit", existing.unit),
			zap.String("other_unit", p.Unit),
			zap.String("raw", p.Raw),
		)
	}
	existing.quantity += p.Quantity
}

// truncate applies the proteins cap and then the global cap in priority order
func (a *Aggregator) truncate(grouped map[blueprint.Category][]blueprint.ShoppingItem) blueprint.ShoppingList {
	list := make(blueprint.ShoppingList)
	remaining := a.limits.MaxItems

	for _, cat := range blueprint.CategoryOrder {
		items := grouped[cat]
		if cat == blueprint.CategoryProteins && len(items) > a.limits.MaxProteins {
			items = items[:a.limits.MaxProteins]
		}
		if len(items) > remaining {
			a.logger.Debug("Shopping list cap reached",
				zap.String("category", string(cat)),
				zap.Int("dropped", len(items)-remaining),
			)
			items = items[:remaining]
		}
		if len(items) == 0 {
			continue
		}
		list[cat] = items
		remaining -= len(items)
	}
	return list
}

// Categorize assigns a normalized ingredient name to a shopping list section.
// The longest matching keyword phrase wins; ties go to the earlier category.
func Categorize(name string) blueprint.Category {
	tokens := strings.Fields(name)
	best := blueprint.CategoryOther
	bestLen := 0
	for _, cat := range blueprint.CategoryOrder {
		for _, kw := range categoryKeywords[cat] {
			kwTokens := strings.Fields(kw)
			if len(kwTokens) > bestLen && containsPhrase(tokens, kwTokens) {
				best = cat
				bestLen = len(kwTokens)
			}
		}
	}
	return best
}

func containsPhrase(tokens, phrase []string) bool {
	if len(phrase) == 0 || len(phrase) > len(tokens) {
		return false
	}
outer:
	for i := 0; i+len(phrase) <= len(tokens); i++ {
		for j := range phrase {
			if tokens[i+j] != phrase[j] {
				continue outer
			}
		}
		return true
	}
	return false
}
