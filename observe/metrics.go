package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records check and transition metrics for monitored services.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCheck records one logical check with its duration and error status.
	RecordCheck(ctx context.Context, meta ServiceMeta, duration time.Duration, err error)

	// RecordTransition records a status transition of a service.
	RecordTransition(ctx context.Context, meta ServiceMeta, from, to string)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter           metric.Meter
	checkCount      metric.Int64Counter
	checkErrors     metric.Int64Counter
	checkDuration   metric.Float64Histogram
	transitionCount metric.Int64Counter
}

// NewMetrics creates a Metrics instance with the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	checkCount, err := meter.Int64Counter(
		"vigil.check.total",
		metric.WithDescription("Total number of service checks"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, err
	}

	checkErrors, err := meter.Int64Counter(
		"vigil.check.errors",
		metric.WithDescription("Total number of failed service checks"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	checkDuration, err := meter.Float64Histogram(
		"vigil.check.duration_ms",
		metric.WithDescription("Service check duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	transitionCount, err := meter.Int64Counter(
		"vigil.status.transitions",
		metric.WithDescription("Total number of service status transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:           meter,
		checkCount:      checkCount,
		checkErrors:     checkErrors,
		checkDuration:   checkDuration,
		transitionCount: transitionCount,
	}, nil
}

// RecordCheck records metrics for one logical check.
func (m *metricsImpl) RecordCheck(ctx context.Context, meta ServiceMeta, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("service.id", meta.ID),
	}
	if meta.Kind != "" {
		attrs = append(attrs, attribute.String("probe.kind", meta.Kind))
	}

	opt := metric.WithAttributes(attrs...)

	m.checkCount.Add(ctx, 1, opt)

	if err != nil {
		m.checkErrors.Add(ctx, 1, opt)
	}

	m.checkDuration.Record(ctx, float64(duration.Milliseconds()), opt)
}

// RecordTransition records one status transition.
func (m *metricsImpl) RecordTransition(ctx context.Context, meta ServiceMeta, from, to string) {
	m.transitionCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("service.id", meta.ID),
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (m *noopMetrics) RecordCheck(ctx context.Context, meta ServiceMeta, duration time.Duration, err error) {
}

func (m *noopMetrics) RecordTransition(ctx context.Context, meta ServiceMeta, from, to string) {
}

// NopMetrics returns a Metrics implementation that records nothing.
func NopMetrics() Metrics {
	return &noopMetrics{}
}
