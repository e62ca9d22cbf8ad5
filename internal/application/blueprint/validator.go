package blueprint

import (
	"math"

	"github.com/alchemorsel/nutriplan/internal/domain/blueprint"
	"github.com/alchemorsel/nutriplan/internal/domain/nutrition"
	"github.com/alchemorsel/nutriplan/internal/ports/outbound"
	"go.uber.org/zap"
)

// DefaultDeviationThreshold is the fraction above which a macro deviation is
// reported as critical. Plans are never rejected on it.
const DefaultDeviationThreshold = 0.50

// MacroDeviation holds the relative deviation per macro axis
type MacroDeviation struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
}

// Max returns the largest absolute deviation
func (d MacroDeviation) Max() float64 {
	return math.Max(math.Abs(d.Protein), math.Max(math.Abs(d.Carbs), math.Abs(d.Fat)))
}

// AsMap is the form stored in generation metadata
func (d MacroDeviation) AsMap() map[string]float64 {
	round := func(v float64) float64 { return math.Round(v*1000) / 1000 }
	return map[string]float64{
		"protein": round(d.Protein),
		"carbs":   round(d.Carbs),
		"fat":     round(d.Fat),
	}
}

// MacroReport is the validator's verdict
type MacroReport struct {
	AverageDaily blueprint.Macros
	Expected     nutrition.MacroTarget
	Deviation    MacroDeviation
	Critical     bool
}

// MacroValidator compares generated plans with the resolved target
type MacroValidator struct {
	threshold float64
	metrics   outbound.PipelineMetrics
	logger    *zap.Logger
}

// NewMacroValidator creates a validator
func NewMacroValidator(threshold float64, metrics outbound.PipelineMetrics, logger *zap.Logger) *MacroValidator {
	if threshold <= 0 {
		threshold = DefaultDeviationThreshold
	}
	return &MacroValidator{threshold: threshold, metrics: metricsOrNoop(metrics), logger: logger.Named("macro-validator")}
}

// Validate averages the seven days and compares against the full-recipe
// target. A critical deviation is logged and reported but never rejected.
func (v *MacroValidator) Validate(days []blueprint.DayEntry, target nutrition.MacroTarget) MacroReport {
	var total blueprint.Macros
	for i := range days {
		total = total.Add(days[i].Totals())
	}

	n := float64(len(days))
	if n == 0 {
		n = 1
	}
	avg := blueprint.Macros{
		Calories: total.Calories / n,
		ProteinG: total.ProteinG / n,
		CarbsG:   total.CarbsG / n,
		FatG:     total.FatG / n,
	}

	expected := target.Scale(blueprint.ServingsPerRecipe)
	dev := MacroDeviation{
		Protein: relativeDeviation(avg.ProteinG, float64(expected.ProteinGrams)),
		Carbs:   relativeDeviation(avg.CarbsG, float64(expected.CarbsGrams)),
		Fat:     relativeDeviation(avg.FatG, float64(expected.FatGrams)),
	}

	report := MacroReport{
		AverageDaily: avg,
		Expected:     expected,
		Deviation:    dev,
		Critical:     dev.Max() > v.threshold,
	}

	for axis, value := range dev.AsMap() {
		v.metrics.RecordMacroDeviation(axis, value, math.Abs(value) > v.threshold)
	}

	if report.Critical {
		v.logger.Error("Critical macro deviation, keeping generated plan",
			zap.Float64("protein_deviation", dev.Protein),
			zap.Float64("carbs_deviation", dev.Carbs),
			zap.Float64("fat_deviation", dev.Fat),
			zap.Float64("threshold", v.threshold),
			zap.Float64("avg_protein_g", avg.ProteinG),
			zap.Float64("avg_carbs_g", avg.CarbsG),
			zap.Float64("avg_fat_g", avg.FatG),
		)
	}
	return report
}

// relativeDeviation is (actual-expected)/expected; a zero expectation with a
// non-zero actual counts as a full deviation
func relativeDeviation(actual, expected float64) float64 {
	if expected == 0 {
		if actual == 0 {
			return 0
		}
		return 1
	}
	return (actual - expected) / expected
}
