package blueprint

import (
	"time"

	"github.com/alchemorsel/nutriplan/internal/ports/outbound"
)

type noopMetrics struct{}

func (noopMetrics) RecordGenerationAttempt(string, string, time.Duration) {}
func (noopMetrics) RecordGeneration(string, int, bool)                    {}
func (noopMetrics) RecordRepairPasses(int)                                {}
func (noopMetrics) RecordMacroDeviation(string, float64, bool)            {}
func (noopMetrics) RecordShoppingListSize(int)                            {}
func (noopMetrics) RecordRecalculation(string)                            {}

func metricsOrNoop(m outbound.PipelineMetrics) outbound.PipelineMetrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}
