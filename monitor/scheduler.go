package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonwraymond/vigil/observe"
	"github.com/jonwraymond/vigil/probe"
)

// Start begins scheduled monitoring: one immediate full pass, then a pass
// every CheckInterval until Stop is called or ctx is canceled. Start is
// idempotent while the monitor is running.
func (m *Monitor) Start(ctx context.Context) {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	if m.running {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	m.running = true

	ev := newEvent(EventStarted)
	snap := m.Status()
	ev.Snapshot = &snap
	m.emit(ev)

	go m.loop(loopCtx)
}

// Stop cancels the schedule. A pass already in progress completes first:
// in-flight probes are never canceled and their results are still applied.
// Service state and history are left untouched. Stop is idempotent while the
// monitor is stopped.
func (m *Monitor) Stop() {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	if !m.running {
		return
	}

	m.cancel()
	<-m.done
	m.running = false

	ev := newEvent(EventStopped)
	snap := m.Status()
	ev.Snapshot = &snap
	m.emit(ev)
}

// Running reports whether the scheduler is active.
func (m *Monitor) Running() bool {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	return m.running
}

// loop drives scheduled passes. Passes run on a context detached from the
// scheduler's cancellation, so stopping never interrupts a pass in flight.
func (m *Monitor) loop(ctx context.Context) {
	defer close(m.done)

	passCtx := context.WithoutCancel(ctx)
	m.runPass(passCtx)

	ticker := time.NewTicker(m.opts.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.runPass(passCtx)
		}
	}
}

// CheckNow triggers an out-of-band full pass and returns the resulting
// aggregate snapshot. Probe failures surface as service state, never as an
// error. Canceling ctx abandons checks not yet started.
func (m *Monitor) CheckNow(ctx context.Context) Snapshot {
	return m.runPass(ctx)
}

// CheckService triggers an out-of-band check of a single service and returns
// the resulting state. It fails only when the id is unknown; a failing probe
// is reported through the returned state.
func (m *Monitor) CheckService(ctx context.Context, id string) (*ServiceState, error) {
	m.mu.RLock()
	_, ok := m.services[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrServiceNotFound, id)
	}

	st, ok := m.checkOne(ctx, id)
	if !ok {
		// Removed between the lookup and the check.
		return nil, fmt.Errorf("%w: %q", ErrServiceNotFound, id)
	}
	// Concurrent callers share one singleflight result; each gets its own
	// copy.
	return st.clone(), nil
}

// runPass checks every registered service with bounded fan-out, waits for
// all results, then emits healthCheck with the fresh aggregate snapshot.
func (m *Monitor) runPass(ctx context.Context) Snapshot {
	ids := m.ServiceIDs()

	var wg sync.WaitGroup
	for _, id := range ids {
		select {
		case m.sem <- struct{}{}:
		case <-ctx.Done():
			// Pass abandoned; services not yet started are skipped.
			wg.Wait()
			return m.Status()
		}

		wg.Add(1)
		go func(id string) {
			defer func() {
				<-m.sem
				wg.Done()
			}()
			m.checkOne(ctx, id)
		}(id)
	}
	wg.Wait()

	snap := m.Status()
	ev := newEvent(EventHealthCheck)
	ev.Snapshot = &snap
	m.emit(ev)
	return snap
}

// checkOne runs one logical check behind singleflight, so concurrent checks
// of the same id collapse into a single probe run and history entry.
func (m *Monitor) checkOne(ctx context.Context, id string) (*ServiceState, bool) {
	v, _, _ := m.sf.Do(id, func() (any, error) {
		return m.runCheck(ctx, id), nil
	})

	st, _ := v.(*ServiceState)
	if st == nil {
		return nil, false
	}
	return st, true
}

// runCheck executes the probe for one service and applies the outcome:
// state transition, history entry, events, telemetry. Returns nil if the
// service is not (or no longer) registered.
func (m *Monitor) runCheck(ctx context.Context, id string) *ServiceState {
	m.mu.RLock()
	svc, ok := m.services[id]
	if !ok {
		m.mu.RUnlock()
		return nil
	}
	p := svc.cfg.Probe
	meta := observe.ServiceMeta{
		ID:   svc.cfg.ID,
		Name: svc.cfg.Name,
		Kind: string(p.Kind()),
	}
	m.mu.RUnlock()

	ctx, finish := m.in.ObserveCheck(ctx, meta)

	exec := probe.NewExecutor(probe.ExecutorConfig{
		Attempts: m.opts.Retries,
		Delay:    m.opts.RetryDelay,
		Timeout:  m.opts.Timeout,
		OnAttempt: func(attempt int, err error, delay time.Duration) {
			m.in.Logger.WithService(meta).Debug(ctx, "probe attempt failed",
				observe.Field{Key: "attempt", Value: attempt},
				observe.Field{Key: "error", Value: err.Error()},
				observe.Field{Key: "retry_in", Value: delay.String()},
			)
		},
	})
	out := exec.Run(ctx, p)
	finish(out.Err)

	m.mu.Lock()
	svc, ok = m.services[id]
	if !ok {
		// Removed while the check was in flight; the result is dropped
		// with the service.
		m.mu.Unlock()
		return nil
	}

	from, fired := advance(svc.state, out, m.opts.AlertThreshold, m.opts.RecoveryThreshold)
	svc.history.append(HistoryEntry{
		Timestamp:    out.CheckedAt,
		Status:       svc.state.Status,
		ResponseTime: out.Elapsed,
		Error:        svc.state.Error,
	})
	st := svc.state.clone()
	m.mu.Unlock()

	for _, t := range fired {
		ev := newEvent(t)
		ev.Service = st.clone()
		ev.From = from
		ev.To = st.Status
		m.emit(ev)
	}

	if from != st.Status {
		ev := newEvent(EventStatusUpdate)
		ev.Service = st.clone()
		ev.From = from
		ev.To = st.Status
		m.emit(ev)

		m.in.Metrics.RecordTransition(ctx, meta, string(from), string(st.Status))
		m.in.Logger.WithService(meta).Info(ctx, "service status changed",
			observe.Field{Key: "from", Value: string(from)},
			observe.Field{Key: "to", Value: string(st.Status)},
		)
	}

	if out.Err != nil && errors.Is(out.Err, probe.ErrConfiguration) {
		ev := newEvent(EventError)
		ev.Service = st.clone()
		ev.Err = out.Err.Error()
		m.emit(ev)
	}

	ev := newEvent(EventServiceCheck)
	ev.Service = st.clone()
	m.emit(ev)

	return st
}
