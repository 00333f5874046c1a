package monitor

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType identifies a monitor event.
type EventType string

const (
	// EventStarted fires when the scheduler starts.
	EventStarted EventType = "started"
	// EventStopped fires when the scheduler stops.
	EventStopped EventType = "stopped"
	// EventServiceCheck fires after every completed check, success or failure.
	EventServiceCheck EventType = "serviceCheck"
	// EventServiceDown fires on the failure that crosses the alert threshold.
	EventServiceDown EventType = "serviceDown"
	// EventServiceDegraded fires when a healthy service records a failure
	// below the alert threshold.
	EventServiceDegraded EventType = "serviceDegraded"
	// EventServiceRecovered fires when a down service returns to healthy.
	EventServiceRecovered EventType = "serviceRecovered"
	// EventHealthCheck fires after every completed full pass with the
	// aggregate snapshot.
	EventHealthCheck EventType = "healthCheck"
	// EventStatusUpdate fires on every service status change.
	EventStatusUpdate EventType = "statusUpdate"
	// EventError fires when a check fails for configuration reasons rather
	// than liveness, scoped to the affected service.
	EventError EventType = "error"
)

// Event is one entry on the monitor's event stream.
type Event struct {
	// ID uniquely identifies the event.
	ID string

	// Type is the event type.
	Type EventType

	// At is when the event was emitted.
	At time.Time

	// Service is a copy of the service state for service-scoped events,
	// nil otherwise.
	Service *ServiceState

	// From and To carry the statuses around a transition for
	// statusUpdate and the service* transition events.
	From Status
	To   Status

	// Snapshot carries the aggregate snapshot for started, stopped and
	// healthCheck events, nil otherwise.
	Snapshot *Snapshot

	// Err is the failure message for error events.
	Err string
}

// broadcaster fans events out to subscribers. Delivery is best-effort: an
// event is dropped for any subscriber whose buffer is full.
type broadcaster struct {
	mu   sync.RWMutex
	subs map[int]chan Event
	next int
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[int]chan Event)}
}

// subscribe registers a buffered subscriber channel and returns it with a
// cancel function. Cancel is idempotent and closes the channel.
func (b *broadcaster) subscribe(buf int) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan Event, buf)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// publish delivers the event to every subscriber without blocking.
func (b *broadcaster) publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			// Subscriber buffer full, event dropped.
		}
	}
}

// count returns the number of active subscribers.
func (b *broadcaster) count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// newEvent stamps a typed event with id and time.
func newEvent(t EventType) Event {
	return Event{
		ID:   uuid.NewString(),
		Type: t,
		At:   time.Now().UTC(),
	}
}
