package observe

import (
	"context"
	"errors"
	"testing"
	"time"
)

// A zero-value Config (beyond the service name) disables every subsystem, and
// the observer must still hand out usable primitives.
func TestObserver_DisabledSubsystemsStillUsable(t *testing.T) {
	obs, err := NewObserver(context.Background(), Config{ServiceName: "vigil-tests"})
	if err != nil {
		t.Fatalf("NewObserver failed: %v", err)
	}

	if obs.Tracer() == nil {
		t.Error("Tracer() = nil, want noop tracer")
	}
	if obs.Meter() == nil {
		t.Error("Meter() = nil, want noop meter")
	}
	if obs.Logger() == nil {
		t.Error("Logger() = nil, want noop logger")
	}
}

func TestNopLogger_WithServiceNonNil(t *testing.T) {
	logger := NopLogger()
	if logger.WithService(ServiceMeta{ID: "noop"}) == nil {
		t.Error("WithService() = nil, want noop logger")
	}
}

func TestNopMetrics_RecordNoPanic(t *testing.T) {
	metrics := NopMetrics()
	meta := ServiceMeta{ID: "noop"}
	metrics.RecordCheck(context.Background(), meta, 10*time.Millisecond, nil)
	metrics.RecordCheck(context.Background(), meta, 10*time.Millisecond, errors.New("boom"))
	metrics.RecordTransition(context.Background(), meta, "healthy", "down")
}

func TestNopTracer_SpanLifecycle(t *testing.T) {
	tracer := NopTracer()
	ctx := context.Background()

	_, span := tracer.StartSpan(ctx, ServiceMeta{ID: "noop"})
	tracer.EndSpan(span, nil)

	_, span = tracer.StartSpan(ctx, ServiceMeta{ID: "noop"})
	tracer.EndSpan(span, errors.New("boom"))
}
