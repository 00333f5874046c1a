package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// ServiceMeta contains metadata about a monitored service for telemetry
// purposes.
type ServiceMeta struct {
	ID   string // Unique service id (required)
	Name string // Human-readable name (may be empty)
	Kind string // Probe kind, e.g. "http" (may be empty)
}

// SpanName returns the deterministic span name for checks of this service.
// Format: service.check.<id>
func (m ServiceMeta) SpanName() string {
	return "service.check." + m.ID
}

// Label returns the display name: Name when set, the id otherwise.
func (m ServiceMeta) Label() string {
	if m.Name != "" {
		return m.Name
	}
	return m.ID
}

// Tracer wraps OpenTelemetry tracing with check-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: StartSpan must honor cancellation/deadlines.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a service check.
	StartSpan(ctx context.Context, meta ServiceMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer wrapping the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with service metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta ServiceMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("service.id", meta.ID),
		attribute.Bool("check.error", false), // Updated in EndSpan on error
	}
	if meta.Name != "" {
		attrs = append(attrs, attribute.String("service.name", meta.Name))
	}
	if meta.Kind != "" {
		attrs = append(attrs, attribute.String("probe.kind", meta.Kind))
	}

	ctx, span := t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)

	return ctx, span
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("check.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

// NopTracer returns a tracer that records nothing.
func NopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta ServiceMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
