package blueprint

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/alchemorsel/nutriplan/internal/domain/blueprint"
	"github.com/alchemorsel/nutriplan/internal/ports/outbound"
	"go.uber.org/zap"
)

const (
	defaultHistoryWindow      = 8
	maxDiscouragedIngredients = 40
)

// ExclusionContext lists what recent plans already used
type ExclusionContext struct {
	MealNames   []string
	Ingredients []string
}

// Empty reports whether there is nothing to exclude
func (e ExclusionContext) Empty() bool {
	return len(e.MealNames) == 0 && len(e.Ingredients) == 0
}

// Render formats the exclusion block for the prompt
func (e ExclusionContext) Render() string {
	if e.Empty() {
		return ""
	}
	var b strings.Builder
	if len(e.MealNames) > 0 {
		b.WriteString("AVOID THESE MEALS (used in recent weeks):\n")
		for _, name := range e.MealNames {
			b.WriteString("- ")
			b.WriteString(name)
			b.WriteByte('\n')
		}
	}
	if len(e.Ingredients) > 0 {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("DISCOURAGED INGREDIENTS (prefer alternatives): ")
		b.WriteString(strings.Join(e.Ingredients, ", "))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

// Advisor builds variety context from a user's recent plans
type Advisor struct {
	plans  outbound.PlanRepository
	window int
	logger *zap.Logger
}

// NewAdvisor creates an advisor reading up to window prior plans
func NewAdvisor(plans outbound.PlanRepository, window int, logger *zap.Logger) *Advisor {
	if window <= 0 {
		window = defaultHistoryWindow
	}
	return &Advisor{plans: plans, window: window, logger: logger.Named("advisor")}
}

// Exclusions never fails: a history read error yields an empty context
func (a *Advisor) Exclusions(ctx context.Context, userID string, before time.Time) ExclusionContext {
	history, err := a.plans.ListRecent(ctx, userID, before, a.window)
	if err != nil {
		a.logger.Warn("Failed to load plan history, continuing without variety context",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return ExclusionContext{}
	}
	return buildExclusions(history)
}

// headNoun is the last word of a normalized name: "black bean" -> "bean"
func headNoun(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

func buildExclusions(history []*blueprint.Plan) ExclusionContext {
	seenMeals := make(map[string]struct{})
	var meals []string
	counts := make(map[string]int)
	var order []string

	for _, plan := range history {
		plan.EachMeal(func(_ blueprint.MealRef, m *blueprint.Meal) {
			name := strings.TrimSpace(m.Name)
			if name != "" {
				key := strings.ToLower(name)
				if _, ok := seenMeals[key]; !ok {
					seenMeals[key] = struct{}{}
					meals = append(meals, name)
				}
			}
			for _, raw := range m.Ingredients {
				ing := headNoun(ParseIngredient(raw).Name)
				if ing == "" {
					continue
				}
				if counts[ing] == 0 {
					order = append(order, ing)
				}
				counts[ing]++
			}
		})
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > maxDiscouragedIngredients {
		order = order[:maxDiscouragedIngredients]
	}

	return ExclusionContext{MealNames: meals, Ingredients: order}
}
