// internal/common/observability/observability.go
package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"renovation-estimator/internal/common/config"
	"renovation-estimator/internal/common/logger"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Observability owns the OpenTelemetry meter and tracer providers for the process.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	jobCounter     otelmetric.Int64Counter
	jobDuration    otelmetric.Float64Histogram
}

// New wires a Prometheus-backed meter provider and, when tracing is enabled,
// a Jaeger tracer provider.
func New(cfg config.ObservabilityConfig, log logger.Logger) (*Observability, error) {
	var exporter sdktrace.SpanExporter
	if cfg.Tracing.Enabled {
		exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.Tracing.JaegerEndpoint)))
		if err != nil {
			return nil, fmt.Errorf("create jaeger exporter: %w", err)
		}
		exporter = exp
	}
	o, err := newObservability(cfg, prometheus.DefaultRegisterer, exporter)
	if err != nil {
		return nil, err
	}
	log.Info("Observability initialised", map[string]interface{}{
		"serviceName":    cfg.ServiceName,
		"tracing":        cfg.Tracing.Enabled,
		"jaegerEndpoint": cfg.Tracing.JaegerEndpoint,
	})
	return o, nil
}

func newObservability(cfg config.ObservabilityConfig, reg prometheus.Registerer, spans sdktrace.SpanExporter) (*Observability, error) {
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "renovation-estimator"
	}
	res := resource.NewSchemaless(attribute.String("service.name", serviceName))

	promExporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}
	provider := metric.NewMeterProvider(metric.WithReader(promExporter), metric.WithResource(res))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)
	// Instrument names use underscores so the scrape shows the same names
	// whichever escaping the exporter applies to dots.
	jobCounter, err := meter.Int64Counter(
		"estimates_processed",
		otelmetric.WithDescription("Number of estimate jobs processed"),
	)
	if err != nil {
		return nil, err
	}
	jobDuration, err := meter.Float64Histogram(
		"estimates_duration",
		otelmetric.WithDescription("Estimate job processing duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	o := &Observability{
		meterProvider: provider,
		jobCounter:    jobCounter,
		jobDuration:   jobDuration,
		tracer:        noop.NewTracerProvider().Tracer(serviceName),
	}

	if spans != nil {
		ratio := cfg.Tracing.SampleRatio
		if ratio <= 0 {
			ratio = 1
		}
		o.tracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(spans),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
		)
		otel.SetTracerProvider(o.tracerProvider)
		o.tracer = o.tracerProvider.Tracer(serviceName)
	}
	return o, nil
}

// StartSpan starts a span; with tracing disabled the span is a no-op.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if o == nil || o.tracer == nil {
		return noop.NewTracerProvider().Tracer("").Start(ctx, name)
	}
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) RecordJobProcessed(ctx context.Context, status string) {
	if o != nil && o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordJobDuration(ctx context.Context, duration time.Duration, status string) {
	if o != nil && o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

// Shutdown flushes pending spans and stops both providers.
func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var errs []error
	if o.tracerProvider != nil {
		errs = append(errs, o.tracerProvider.Shutdown(ctx))
	}
	if o.meterProvider != nil {
		errs = append(errs, o.meterProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
