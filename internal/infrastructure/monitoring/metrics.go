package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/alchemorsel/nutriplan/internal/ports/outbound"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "nutriplan"

// MetricsCollector handles Prometheus metrics collection
type MetricsCollector struct {
	logger   *zap.Logger
	gatherer prometheus.Gatherer

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Pipeline metrics
	generationAttempts        *prometheus.CounterVec
	generationAttemptDuration *prometheus.HistogramVec
	generationsTotal          *prometheus.CounterVec
	generationAttemptsPerPlan prometheus.Histogram
	repairPasses              prometheus.Histogram
	macroDeviation            *prometheus.HistogramVec
	criticalDeviations        *prometheus.CounterVec
	shoppingListItems         prometheus.Histogram
	recalculations            *prometheus.CounterVec
}

// NewMetricsCollector registers every collector on the default registry
func NewMetricsCollector(logger *zap.Logger) *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer, prometheus.DefaultGatherer, logger)
}

// NewMetricsCollectorWithRegistry registers every collector on the given registry
func NewMetricsCollectorWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer, logger *zap.Logger) *MetricsCollector {
	factory := promauto.With(reg)

	return &MetricsCollector{
		logger:   logger.Named("metrics"),
		gatherer: gatherer,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120, 600},
			},
			[]string{"method", "route"},
		),

		generationAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generation_attempts_total",
				Help:      "Generation attempts by model tier and outcome",
			},
			[]string{"tier", "outcome"},
		),
		generationAttemptDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generation_attempt_duration_seconds",
				Help:      "Duration of a single generation attempt",
				Buckets:   []float64{1, 5, 10, 30, 60, 90, 120},
			},
			[]string{"tier"},
		),
		generationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generations_total",
				Help:      "Completed plan generations by final tier and result",
			},
			[]string{"tier", "result"},
		),
		generationAttemptsPerPlan: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generation_attempts_per_plan",
				Help:      "Attempts consumed per plan generation",
				Buckets:   []float64{1, 2, 3, 4, 5, 6},
			},
		),
		repairPasses: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "json_repair_passes",
				Help:      "Repair passes needed before a response parsed",
				Buckets:   []float64{0, 1, 2, 3, 4, 5},
			},
		),
		macroDeviation: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "macro_deviation_ratio",
				Help:      "Relative deviation of plan macros from target",
				Buckets:   []float64{0.05, 0.1, 0.2, 0.3, 0.5, 0.75, 1, 2},
			},
			[]string{"axis"},
		),
		criticalDeviations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "macro_deviation_critical_total",
				Help:      "Plans whose macro deviation exceeded the critical threshold",
			},
			[]string{"axis"},
		),
		shoppingListItems: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "shopping_list_items",
				Help:      "Items in the consolidated shopping list",
				Buckets:   []float64{10, 25, 50, 75, 100, 150},
			},
		),
		recalculations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "macro_recalculations_total",
				Help:      "Per-meal macro recalculations by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// Middleware records request count and latency per chi route pattern
func (m *MetricsCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func (m *MetricsCollector) RecordGenerationAttempt(tier, outcome string, duration time.Duration) {
	m.generationAttempts.WithLabelValues(tier, outcome).Inc()
	m.generationAttemptDuration.WithLabelValues(tier).Observe(duration.Seconds())
}

func (m *MetricsCollector) RecordGeneration(tier string, attempts int, success bool) {
	result := "success"
	if !success {
		result = "exhausted"
	}
	m.generationsTotal.WithLabelValues(tier, result).Inc()
	m.generationAttemptsPerPlan.Observe(float64(attempts))
}

func (m *MetricsCollector) RecordRepairPasses(passes int) {
	m.repairPasses.Observe(float64(passes))
}

func (m *MetricsCollector) RecordMacroDeviation(axis string, deviation float64, critical bool) {
	m.macroDeviation.WithLabelValues(axis).Observe(deviation)
	if critical {
		m.criticalDeviations.WithLabelValues(axis).Inc()
	}
}

func (m *MetricsCollector) RecordShoppingListSize(items int) {
	m.shoppingListItems.Observe(float64(items))
}

func (m *MetricsCollector) RecordRecalculation(outcome string) {
	m.recalculations.WithLabelValues(outcome).Inc()
}

// Handler returns the Prometheus metrics handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

var _ outbound.PipelineMetrics = (*MetricsCollector)(nil)
