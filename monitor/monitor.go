package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/vigil/observe"
	"github.com/jonwraymond/vigil/probe"
)

// Options configures a Monitor.
type Options struct {
	// CheckInterval is the time between scheduled passes.
	// Default: 60 seconds
	CheckInterval time.Duration

	// Timeout bounds each individual probe attempt.
	// Default: 5 seconds
	Timeout time.Duration

	// Retries is the maximum number of probe attempts per logical check.
	// Default: 3
	Retries int

	// RetryDelay is the pause between attempts, never before the first.
	// Default: 1 second
	RetryDelay time.Duration

	// AlertThreshold is the number of consecutive failures before a
	// service is reported down.
	// Default: 2
	AlertThreshold int

	// RecoveryThreshold is the number of consecutive successes before a
	// down or degraded service is reported healthy again.
	// Default: 2
	RecoveryThreshold int

	// HistoryLimit caps the retained history entries per service.
	// Default: 100
	HistoryLimit int

	// MaxConcurrent caps concurrent checks within one pass.
	// Default: 10
	MaxConcurrent int

	// EventBuffer is the default Subscribe channel capacity when the
	// subscriber passes a non-positive buffer size.
	// Default: 16
	EventBuffer int

	// Logger receives structured check and transition logs.
	// Default: no-op
	Logger observe.Logger

	// Metrics records per-check and per-transition metrics.
	// Default: no-op
	Metrics observe.Metrics

	// Tracer wraps each logical check in a span.
	// Default: no-op
	Tracer observe.Tracer
}

// ServiceConfig declares one service to monitor. Immutable after
// registration.
type ServiceConfig struct {
	// ID uniquely identifies the service. Required.
	ID string

	// Name is a human-readable label.
	Name string

	// Probe performs the liveness check. Required.
	Probe probe.Probe
}

// service bundles everything the Monitor owns for one registered id.
// Config, state and history are created and destroyed together.
type service struct {
	cfg     ServiceConfig
	state   *ServiceState
	history *ring
}

// Monitor is a registry of services checked on a schedule, with hysteresis
// state tracking, bounded history and a typed event stream. Safe for
// concurrent use.
type Monitor struct {
	opts Options

	mu       sync.RWMutex
	services map[string]*service
	order    []string // registration order

	events *broadcaster

	// sf collapses concurrent checks of one service id so scheduled and
	// on-demand checks never overlap per service.
	sf  singleflight.Group
	sem chan struct{} // bounds per-pass fan-out

	runMu   sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	in *observe.Instruments
}

// New creates a Monitor. Zero-value options take documented defaults.
func New(opts ...Options) *Monitor {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.CheckInterval <= 0 {
		o.CheckInterval = 60 * time.Second
	}
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	if o.Retries <= 0 {
		o.Retries = 3
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = time.Second
	}
	if o.AlertThreshold <= 0 {
		o.AlertThreshold = 2
	}
	if o.RecoveryThreshold <= 0 {
		o.RecoveryThreshold = 2
	}
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = 100
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = 10
	}
	if o.EventBuffer <= 0 {
		o.EventBuffer = 16
	}

	return &Monitor{
		opts:     o,
		services: make(map[string]*service),
		order:    make([]string, 0),
		events:   newBroadcaster(),
		sem:      make(chan struct{}, o.MaxConcurrent),
		in: observe.NewInstruments(observe.Instruments{
			Tracer:  o.Tracer,
			Metrics: o.Metrics,
			Logger:  o.Logger,
		}),
	}
}

// Register adds a service to the registry with an initial unknown state and
// empty history. It fails if the id is missing, the probe is nil, or the id
// is already registered.
func (m *Monitor) Register(cfg ServiceConfig) error {
	if cfg.ID == "" {
		return ErrMissingID
	}
	if cfg.Probe == nil {
		return fmt.Errorf("%w: service %q", ErrNilProbe, cfg.ID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.services[cfg.ID]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateService, cfg.ID)
	}

	m.services[cfg.ID] = &service{
		cfg: cfg,
		state: &ServiceState{
			ID:     cfg.ID,
			Name:   cfg.Name,
			Kind:   cfg.Probe.Kind(),
			Status: StatusUnknown,
		},
		history: newRing(m.opts.HistoryLimit),
	}
	m.order = append(m.order, cfg.ID)
	return nil
}

// Unregister removes a service along with its state and history. It returns
// false if the id is unknown.
func (m *Monitor) Unregister(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.services[id]; !exists {
		return false
	}
	delete(m.services, id)

	for i, n := range m.order {
		if n == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

// ServiceIDs returns the registered service ids in registration order.
func (m *Monitor) ServiceIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, len(m.order))
	copy(ids, m.order)
	return ids
}

// Snapshot is the aggregate status of all monitored services at one instant.
type Snapshot struct {
	// Status is the worst-case status across all services: unhealthy if
	// any is down, degraded if any is degraded, healthy otherwise.
	Status Overall

	// Timestamp is when the snapshot was computed.
	Timestamp time.Time

	// Services maps service id to a copy of its state.
	Services map[string]*ServiceState
}

// Status computes the aggregate snapshot fresh on every call. Services still
// in their initial unknown state do not degrade the aggregate.
func (m *Monitor) Status() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

// snapshotLocked builds a snapshot. Caller holds at least the read lock.
func (m *Monitor) snapshotLocked() Snapshot {
	snap := Snapshot{
		Status:    OverallHealthy,
		Timestamp: time.Now().UTC(),
		Services:  make(map[string]*ServiceState, len(m.services)),
	}

	hasDown, hasDegraded := false, false
	for id, svc := range m.services {
		snap.Services[id] = svc.state.clone()
		switch svc.state.Status {
		case StatusDown:
			hasDown = true
		case StatusDegraded:
			hasDegraded = true
		}
	}

	if hasDown {
		snap.Status = OverallUnhealthy
	} else if hasDegraded {
		snap.Status = OverallDegraded
	}
	return snap
}

// ServiceStatus returns a copy of one service's state, or false if the id is
// unknown.
func (m *Monitor) ServiceStatus(id string) (*ServiceState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	svc, ok := m.services[id]
	if !ok {
		return nil, false
	}
	return svc.state.clone(), true
}

// History returns the most recent limit entries for a service in
// chronological order, oldest first. A non-positive limit defaults to 10.
// Returns false if the id is unknown.
func (m *Monitor) History(id string, limit int) ([]HistoryEntry, bool) {
	if limit <= 0 {
		limit = 10
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	svc, ok := m.services[id]
	if !ok {
		return nil, false
	}
	return svc.history.tail(limit), true
}

// HistorySummary folds a service's retained history into uptime and latency
// aggregates. Returns false if the id is unknown.
func (m *Monitor) HistorySummary(id string) (HistorySummary, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	svc, ok := m.services[id]
	if !ok {
		return HistorySummary{}, false
	}
	return svc.history.summarize(), true
}

// Subscribe registers an event subscriber and returns its channel plus a
// cancel function. A non-positive buf takes the Options.EventBuffer default.
// Delivery is best-effort: events are dropped for a subscriber whose buffer
// is full. Cancel is idempotent and closes the channel.
func (m *Monitor) Subscribe(buf int) (<-chan Event, func()) {
	if buf <= 0 {
		buf = m.opts.EventBuffer
	}
	return m.events.subscribe(buf)
}

// emit publishes an event to all subscribers.
func (m *Monitor) emit(e Event) {
	m.events.publish(e)
}
