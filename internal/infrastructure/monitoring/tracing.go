package monitoring

import (
	"context"
	"fmt"

	"github.com/alchemorsel/nutriplan/internal/infrastructure/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// TracingProvider owns the SDK tracer provider when tracing is enabled
type TracingProvider struct {
	provider *sdktrace.TracerProvider
	logger   *zap.Logger
}

// NewTracingProvider installs the global tracer provider and W3C propagators.
// With tracing disabled only the propagators are installed.
func NewTracingProvider(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*TracingProvider, error) {
	logger = logger.Named("tracing")
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if !cfg.Monitoring.EnableTracing {
		logger.Info("Tracing is disabled")
		return &TracingProvider{logger: logger}, nil
	}

	var opts []otlptracehttp.Option
	if cfg.Monitoring.OTLPEndpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpointURL(cfg.Monitoring.OTLPEndpoint))
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.App.Name),
		semconv.ServiceVersion(cfg.App.Version),
		semconv.DeploymentEnvironment(cfg.App.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.Monitoring.SamplingRate))),
	)
	otel.SetTracerProvider(tp)

	logger.Info("Tracing initialized",
		zap.String("service", cfg.App.Name),
		zap.String("endpoint", cfg.Monitoring.OTLPEndpoint),
		zap.Float64("sampling_rate", cfg.Monitoring.SamplingRate),
	)

	return &TracingProvider{provider: tp, logger: logger}, nil
}

// Shutdown flushes pending spans
func (t *TracingProvider) Shutdown(ctx context.Context) error {
	if t.provider != nil {
		return t.provider.Shutdown(ctx)
	}
	return nil
}

// TraceIDFromContext extracts trace ID from context for logging correlation
func TraceIDFromContext(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
