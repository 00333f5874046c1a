package notify

import (
	"context"
	"time"

	"github.com/jonwraymond/vigil/monitor"
	"github.com/jonwraymond/vigil/observe"
)

// Sink is a destination for monitor events (alerting and analytics systems).
// Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, e monitor.Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, e monitor.Event) error

// Send invokes the wrapped function.
func (f SinkFunc) Send(ctx context.Context, e monitor.Event) error {
	return f(ctx, e)
}

// LogSink writes events through a structured logger, mapping event types to
// levels: outages log as errors, degradations as warnings, routine checks as
// debug.
type LogSink struct {
	logger observe.Logger
}

// NewLogSink creates a sink that logs every event it receives.
func NewLogSink(logger observe.Logger) *LogSink {
	if logger == nil {
		logger = observe.NopLogger()
	}
	return &LogSink{logger: logger}
}

// Send logs one event. It never fails.
func (s *LogSink) Send(ctx context.Context, e monitor.Event) error {
	fields := []observe.Field{
		{Key: "event", Value: string(e.Type)},
		{Key: "event_id", Value: e.ID},
	}
	if e.Service != nil {
		fields = append(fields,
			observe.Field{Key: "service.id", Value: e.Service.ID},
			observe.Field{Key: "status", Value: string(e.Service.Status)},
		)
	}
	if e.From != e.To {
		fields = append(fields,
			observe.Field{Key: "from", Value: string(e.From)},
			observe.Field{Key: "to", Value: string(e.To)},
		)
	}
	if e.Err != "" {
		fields = append(fields, observe.Field{Key: "error", Value: e.Err})
	}

	switch e.Type {
	case monitor.EventServiceDown, monitor.EventError:
		s.logger.Error(ctx, "monitor event", fields...)
	case monitor.EventServiceDegraded:
		s.logger.Warn(ctx, "monitor event", fields...)
	case monitor.EventServiceCheck, monitor.EventHealthCheck:
		s.logger.Debug(ctx, "monitor event", fields...)
	default:
		s.logger.Info(ctx, "monitor event", fields...)
	}
	return nil
}

// ForwardOptions configures the event pump.
type ForwardOptions struct {
	// Types filters which event types are forwarded. Empty forwards all.
	Types []monitor.EventType

	// Buffer is the subscription buffer size. Events beyond it are dropped
	// while the sinks are busy.
	// Default: 64
	Buffer int

	// Logger records sink failures.
	// Default: no logging
	Logger observe.Logger
}

// Forward subscribes to the monitor and pumps matching events into the sinks
// until ctx is canceled. A failing sink is logged and skipped; it never
// interrupts the stream or the other sinks. Forward blocks, so run it on its
// own goroutine.
func Forward(ctx context.Context, m *monitor.Monitor, opts ForwardOptions, sinks ...Sink) {
	buf := opts.Buffer
	if buf <= 0 {
		buf = 64
	}
	logger := opts.Logger
	if logger == nil {
		logger = observe.NopLogger()
	}

	want := make(map[monitor.EventType]bool, len(opts.Types))
	for _, t := range opts.Types {
		want[t] = true
	}

	events, cancel := m.Subscribe(buf)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if len(want) > 0 && !want[e.Type] {
				continue
			}
			for _, s := range sinks {
				if err := s.Send(ctx, e); err != nil {
					logger.Error(ctx, "event sink failed",
						observe.Field{Key: "event", Value: string(e.Type)},
						observe.Field{Key: "event_id", Value: e.ID},
						observe.Field{Key: "error", Value: err.Error()},
					)
				}
			}
		}
	}
}

// EventPayload is the JSON wire shape of an exported event.
type EventPayload struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	At        time.Time       `json:"at"`
	From      string          `json:"from,omitempty"`
	To        string          `json:"to,omitempty"`
	Error     string          `json:"error,omitempty"`
	Aggregate string          `json:"aggregate,omitempty"`
	Service   *ServicePayload `json:"service,omitempty"`
}

// ServicePayload is the JSON wire shape of the service state attached to an
// event.
type ServicePayload struct {
	ID                   string `json:"id"`
	Name                 string `json:"name,omitempty"`
	Kind                 string `json:"kind"`
	Status               string `json:"status"`
	ResponseTimeMS       int64  `json:"response_time_ms"`
	ConsecutiveFailures  int    `json:"consecutive_failures"`
	ConsecutiveSuccesses int    `json:"consecutive_successes"`
	Error                string `json:"error,omitempty"`
}

// eventPayload flattens an event for the wire.
func eventPayload(e monitor.Event) EventPayload {
	p := EventPayload{
		ID:    e.ID,
		Type:  string(e.Type),
		At:    e.At,
		From:  string(e.From),
		To:    string(e.To),
		Error: e.Err,
	}
	if e.Snapshot != nil {
		p.Aggregate = string(e.Snapshot.Status)
	}
	if e.Service != nil {
		p.Service = &ServicePayload{
			ID:                   e.Service.ID,
			Name:                 e.Service.Name,
			Kind:                 string(e.Service.Kind),
			Status:               string(e.Service.Status),
			ResponseTimeMS:       e.Service.ResponseTime.Milliseconds(),
			ConsecutiveFailures:  e.Service.ConsecutiveFailures,
			ConsecutiveSuccesses: e.Service.ConsecutiveSuccesses,
			Error:                e.Service.Error,
		}
	}
	return p
}

// messageKey keys an event for partitioned transports. Events about one
// service share a key so their relative order survives; global events key
// on their type.
func messageKey(e monitor.Event) string {
	if e.Service != nil {
		return e.Service.ID
	}
	return string(e.Type)
}
