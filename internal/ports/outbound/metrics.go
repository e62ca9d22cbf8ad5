package outbound

import "time"

// PipelineMetrics records generation pipeline measurements
type PipelineMetrics interface {
	RecordGenerationAttempt(tier, outcome string, duration time.Duration)
	RecordGeneration(tier string, attempts int, success bool)
	RecordRepairPasses(passes int)
	RecordMacroDeviation(axis string, deviation float64, critical bool)
	RecordShoppingListSize(items int)
	RecordRecalculation(outcome string)
}
