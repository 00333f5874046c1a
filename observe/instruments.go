package observe

import (
	"context"
	"time"
)

// Instruments bundles the telemetry primitives a check pipeline consumes.
// Zero-value fields are replaced with no-ops by NewInstruments, so a partially
// populated bundle is always safe to use.
type Instruments struct {
	Tracer  Tracer
	Metrics Metrics
	Logger  Logger
}

// NewInstruments fills nil fields with no-op implementations.
func NewInstruments(in Instruments) *Instruments {
	if in.Tracer == nil {
		in.Tracer = NopTracer()
	}
	if in.Metrics == nil {
		in.Metrics = NopMetrics()
	}
	if in.Logger == nil {
		in.Logger = NopLogger()
	}
	return &in
}

// InstrumentsFromObserver builds an Instruments bundle from an Observer.
// This is the common wiring for callers that configure telemetry through
// NewObserver.
func InstrumentsFromObserver(obs Observer) (*Instruments, error) {
	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return &Instruments{
		Tracer:  NewTracer(obs.Tracer()),
		Metrics: metrics,
		Logger:  obs.Logger(),
	}, nil
}

// ObserveCheck wraps one logical check with a span, metrics and a log line.
// The returned function must be called exactly once with the check's error.
func (in *Instruments) ObserveCheck(ctx context.Context, meta ServiceMeta) (context.Context, func(err error)) {
	ctx, span := in.Tracer.StartSpan(ctx, meta)
	start := time.Now()

	return ctx, func(err error) {
		duration := time.Since(start)

		in.Tracer.EndSpan(span, err)
		in.Metrics.RecordCheck(ctx, meta, duration, err)

		logger := in.Logger.WithService(meta)
		fields := []Field{
			{Key: "duration_ms", Value: float64(duration.Milliseconds())},
		}
		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			logger.Warn(ctx, "service check failed", fields...)
		} else {
			logger.Debug(ctx, "service check completed", fields...)
		}
	}
}
