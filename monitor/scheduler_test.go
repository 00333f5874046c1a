package monitor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/vigil/probe"
)

// fastOptions keeps scheduler tests quick and deterministic. The interval is
// long enough that periodic passes never fire unless a test lowers it.
func fastOptions() Options {
	return Options{
		CheckInterval:     time.Hour,
		Timeout:           5 * time.Second,
		Retries:           1,
		RetryDelay:        time.Millisecond,
		AlertThreshold:    2,
		RecoveryThreshold: 2,
		HistoryLimit:      50,
	}
}

// scriptProbe succeeds or fails per the script, one step per logical check,
// then repeats the last step.
func scriptProbe(script ...bool) probe.Probe {
	var mu sync.Mutex
	i := 0
	return probe.NewFunc(func(ctx context.Context) (map[string]any, error) {
		mu.Lock()
		defer mu.Unlock()

		ok := script[i]
		if i < len(script)-1 {
			i++
		}
		if !ok {
			return nil, errRefused
		}
		return nil, nil
	})
}

func collectEvents(t *testing.T, ch <-chan Event, n int) []Event {
	t.Helper()

	events := make([]Event, 0, n)
	deadline := time.After(5 * time.Second)
	for len(events) < n {
		select {
		case e := <-ch:
			events = append(events, e)
		case <-deadline:
			t.Fatalf("collected %d events, want %d", len(events), n)
		}
	}
	return events
}

func TestMonitor_CheckNow(t *testing.T) {
	m := New(fastOptions())
	_ = m.Register(ServiceConfig{ID: "up", Probe: okProbe()})
	_ = m.Register(ServiceConfig{ID: "down", Probe: failProbe()})

	snap := m.CheckNow(context.Background())

	if snap.Status != OverallUnhealthy {
		t.Errorf("Status = %v, want %v", snap.Status, OverallUnhealthy)
	}
	if got := snap.Services["up"].Status; got != StatusHealthy {
		t.Errorf("up Status = %v, want %v", got, StatusHealthy)
	}
	// A failure from unknown goes straight to down, silently.
	if got := snap.Services["down"].Status; got != StatusDown {
		t.Errorf("down Status = %v, want %v", got, StatusDown)
	}

	for _, id := range []string{"up", "down"} {
		entries, _ := m.History(id, 10)
		if len(entries) != 1 {
			t.Errorf("%s history = %d entries, want 1", id, len(entries))
		}
	}
}

func TestMonitor_CheckNow_EventSequence(t *testing.T) {
	m := New(fastOptions())
	_ = m.Register(ServiceConfig{ID: "api", Probe: scriptProbe(false, false, true, true)})

	ch, cancel := m.Subscribe(64)
	defer cancel()

	for i := 0; i < 4; i++ {
		m.CheckNow(context.Background())
	}

	events := collectEvents(t, ch, 12)
	want := []EventType{
		// Failure from unknown: straight to down, no alert yet.
		EventStatusUpdate, EventServiceCheck, EventHealthCheck,
		// Second failure crosses the alert threshold.
		EventServiceDown, EventServiceCheck, EventHealthCheck,
		// First success is below the recovery threshold.
		EventServiceCheck, EventHealthCheck,
		// Second success recovers the service.
		EventServiceRecovered, EventStatusUpdate, EventServiceCheck, EventHealthCheck,
	}
	for i, e := range events {
		if e.Type != want[i] {
			t.Fatalf("events[%d] = %v, want %v (sequence %v)", i, e.Type, want[i], types(events))
		}
	}

	if e := events[0]; e.From != StatusUnknown || e.To != StatusDown {
		t.Errorf("statusUpdate = %v->%v, want unknown->down", e.From, e.To)
	}
	if e := events[3]; e.Service == nil || e.Service.ID != "api" {
		t.Errorf("serviceDown.Service = %+v, want api state", e.Service)
	}
	if e := events[8]; e.From != StatusDown || e.To != StatusHealthy {
		t.Errorf("serviceRecovered = %v->%v, want down->healthy", e.From, e.To)
	}
	for _, i := range []int{2, 5, 7, 11} {
		if events[i].Snapshot == nil {
			t.Errorf("healthCheck events[%d] should carry a snapshot", i)
		}
	}
}

func types(events []Event) []EventType {
	out := make([]EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func TestMonitor_RetriesCollapseToOneHistoryEntry(t *testing.T) {
	var invocations atomic.Int32
	p := probe.NewFunc(func(ctx context.Context) (map[string]any, error) {
		invocations.Add(1)
		return nil, errRefused
	})

	opts := fastOptions()
	opts.Retries = 3
	m := New(opts)
	_ = m.Register(ServiceConfig{ID: "api", Probe: p})

	st, err := m.CheckService(context.Background(), "api")
	if err != nil {
		t.Fatalf("CheckService() error = %v", err)
	}

	if got := invocations.Load(); got != 3 {
		t.Errorf("probe invocations = %d, want 3", got)
	}
	if st.ConsecutiveFailures != 1 {
		t.Errorf("ConsecutiveFailures = %d, want 1 (one logical check)", st.ConsecutiveFailures)
	}

	entries, _ := m.History("api", 10)
	if len(entries) != 1 {
		t.Fatalf("history = %d entries, want 1", len(entries))
	}
	if entries[0].Error == "" {
		t.Error("history entry should record the failure")
	}
}

func TestMonitor_CheckService(t *testing.T) {
	m := New(fastOptions())
	_ = m.Register(ServiceConfig{ID: "api", Probe: okProbe()})

	st, err := m.CheckService(context.Background(), "api")
	if err != nil {
		t.Fatalf("CheckService() error = %v", err)
	}
	if st.Status != StatusHealthy {
		t.Errorf("Status = %v, want %v", st.Status, StatusHealthy)
	}
	if st.LastCheck.IsZero() {
		t.Error("LastCheck should be set")
	}
	if st.Details["latency"] != "low" {
		t.Errorf("Details = %v, want probe payload", st.Details)
	}
}

func TestMonitor_CheckServiceUnknownID(t *testing.T) {
	m := New(fastOptions())

	st, err := m.CheckService(context.Background(), "ghost")
	if !errors.Is(err, ErrServiceNotFound) {
		t.Errorf("CheckService() error = %v, want ErrServiceNotFound", err)
	}
	if st != nil {
		t.Errorf("state = %+v, want nil", st)
	}
	if !strings.Contains(err.Error(), "ghost") {
		t.Errorf("error %q should name the id", err)
	}
}

func TestMonitor_ConcurrentChecksCollapse(t *testing.T) {
	var invocations atomic.Int32
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	p := probe.NewFunc(func(ctx context.Context) (map[string]any, error) {
		invocations.Add(1)
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
		return nil, nil
	})

	m := New(fastOptions())
	_ = m.Register(ServiceConfig{ID: "api", Probe: p})

	results := make(chan *ServiceState, 5)
	go func() {
		st, _ := m.CheckService(context.Background(), "api")
		results <- st
	}()
	<-entered

	// The probe is in flight; these calls must join it, not start new runs.
	for i := 0; i < 4; i++ {
		go func() {
			st, _ := m.CheckService(context.Background(), "api")
			results <- st
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)

	for i := 0; i < 5; i++ {
		select {
		case st := <-results:
			if st == nil || st.Status != StatusHealthy {
				t.Errorf("result %d = %+v, want healthy state", i, st)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("CheckService did not return")
		}
	}

	if got := invocations.Load(); got != 1 {
		t.Errorf("probe invocations = %d, want 1", got)
	}
	if entries, _ := m.History("api", 10); len(entries) != 1 {
		t.Errorf("history = %d entries, want 1", len(entries))
	}
}

func TestMonitor_StartRunsImmediatePass(t *testing.T) {
	m := New(fastOptions())
	_ = m.Register(ServiceConfig{ID: "api", Probe: okProbe()})

	ch, cancel := m.Subscribe(16)
	defer cancel()

	m.Start(context.Background())
	defer m.Stop()

	// started, then the immediate pass: statusUpdate, serviceCheck, healthCheck.
	events := collectEvents(t, ch, 4)
	if events[0].Type != EventStarted {
		t.Errorf("events[0] = %v, want %v", events[0].Type, EventStarted)
	}
	if events[0].Snapshot == nil {
		t.Error("started event should carry a snapshot")
	}
	if events[3].Type != EventHealthCheck {
		t.Errorf("events[3] = %v, want %v (immediate pass)", events[3].Type, EventHealthCheck)
	}

	st, _ := m.ServiceStatus("api")
	if st.Status != StatusHealthy {
		t.Errorf("Status = %v, want %v", st.Status, StatusHealthy)
	}
}

func TestMonitor_StartIsIdempotent(t *testing.T) {
	m := New(fastOptions())

	ch, cancel := m.Subscribe(16)
	defer cancel()

	m.Start(context.Background())
	m.Start(context.Background())
	if !m.Running() {
		t.Error("Running() = false, want true")
	}
	m.Stop()
	if m.Running() {
		t.Error("Running() = true, want false")
	}

	started := 0
	for _, typ := range drainTypes(ch) {
		if typ == EventStarted {
			started++
		}
	}
	if started != 1 {
		t.Errorf("started events = %d, want 1", started)
	}
}

func TestMonitor_StopIsIdempotent(t *testing.T) {
	m := New(fastOptions())

	ch, cancel := m.Subscribe(16)
	defer cancel()

	m.Stop() // not running, no-op

	m.Start(context.Background())
	m.Stop()
	m.Stop()

	stopped := 0
	for _, typ := range drainTypes(ch) {
		if typ == EventStopped {
			stopped++
		}
	}
	if stopped != 1 {
		t.Errorf("stopped events = %d, want 1", stopped)
	}
}

// drainTypes empties whatever is buffered right now. Callers only use it
// after the emitting calls have returned.
func drainTypes(ch <-chan Event) []EventType {
	var out []EventType
	for {
		select {
		case e := <-ch:
			out = append(out, e.Type)
		default:
			return out
		}
	}
}

func TestMonitor_PeriodicPasses(t *testing.T) {
	opts := fastOptions()
	opts.CheckInterval = 20 * time.Millisecond
	m := New(opts)
	_ = m.Register(ServiceConfig{ID: "api", Probe: okProbe()})

	ch, cancel := m.Subscribe(64)
	defer cancel()

	m.Start(context.Background())
	defer m.Stop()

	passes := 0
	deadline := time.After(5 * time.Second)
	for passes < 3 {
		select {
		case e := <-ch:
			if e.Type == EventHealthCheck {
				passes++
			}
		case <-deadline:
			t.Fatalf("saw %d passes, want 3", passes)
		}
	}

	st, _ := m.ServiceStatus("api")
	if st.ConsecutiveSuccesses < 3 {
		t.Errorf("ConsecutiveSuccesses = %d, want >= 3", st.ConsecutiveSuccesses)
	}
}

func TestMonitor_StopDoesNotCancelInFlightProbe(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	p := probe.NewFunc(func(ctx context.Context) (map[string]any, error) {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	})

	opts := fastOptions()
	opts.Timeout = 30 * time.Second
	m := New(opts)
	_ = m.Register(ServiceConfig{ID: "slow", Probe: p})

	m.Start(context.Background())
	<-entered

	stopped := make(chan struct{})
	go func() {
		m.Stop()
		close(stopped)
	}()

	// Stop must wait for the pass in flight.
	select {
	case <-stopped:
		t.Fatal("Stop returned while a probe was in flight")
	case <-time.After(30 * time.Millisecond):
	}

	close(release)

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return after the probe finished")
	}

	// The in-flight result was still applied.
	st, _ := m.ServiceStatus("slow")
	if st.Status != StatusHealthy {
		t.Errorf("Status = %v, want %v", st.Status, StatusHealthy)
	}
	if entries, _ := m.History("slow", 10); len(entries) != 1 {
		t.Errorf("history = %d entries, want 1", len(entries))
	}
}

func TestMonitor_ParentContextCancelStopsScheduling(t *testing.T) {
	opts := fastOptions()
	opts.CheckInterval = 10 * time.Millisecond
	m := New(opts)
	_ = m.Register(ServiceConfig{ID: "api", Probe: okProbe()})

	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)
	cancel()

	select {
	case <-m.done:
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not exit after parent cancel")
	}

	before, _ := m.History("api", 100)
	time.Sleep(50 * time.Millisecond)
	after, _ := m.History("api", 100)
	if len(after) != len(before) {
		t.Errorf("passes kept running after parent cancel: %d -> %d", len(before), len(after))
	}

	// The scheduler still needs an explicit Stop to reset.
	if !m.Running() {
		t.Error("Running() = false, want true until Stop")
	}
	m.Stop()
	if m.Running() {
		t.Error("Running() = true after Stop")
	}
}

func TestMonitor_ErrorEventOnMisconfiguredProbe(t *testing.T) {
	m := New(fastOptions())
	_ = m.Register(ServiceConfig{ID: "broken", Probe: probe.NewFunc(nil)})

	ch, cancel := m.Subscribe(16)
	defer cancel()

	if _, err := m.CheckService(context.Background(), "broken"); err != nil {
		t.Fatalf("CheckService() error = %v (probe failures are state, not errors)", err)
	}

	var sawError bool
	for _, e := range collectEvents(t, ch, 3) {
		if e.Type == EventError {
			sawError = true
			if !strings.Contains(e.Err, "invalid configuration") {
				t.Errorf("error event Err = %q, want configuration failure", e.Err)
			}
		}
	}
	if !sawError {
		t.Error("misconfigured probe should emit an error event")
	}
}

func TestMonitor_NoErrorEventOnLivenessFailure(t *testing.T) {
	m := New(fastOptions())
	_ = m.Register(ServiceConfig{ID: "flaky", Probe: failProbe()})

	ch, cancel := m.Subscribe(16)
	defer cancel()

	_, _ = m.CheckService(context.Background(), "flaky")

	// Failure from unknown: statusUpdate then serviceCheck, no error event.
	for _, e := range collectEvents(t, ch, 2) {
		if e.Type == EventError {
			t.Error("liveness failure should not emit an error event")
		}
	}
}

func TestMonitor_UnregisterDuringCheckDropsResult(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	p := probe.NewFunc(func(ctx context.Context) (map[string]any, error) {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
		return nil, nil
	})

	m := New(fastOptions())
	_ = m.Register(ServiceConfig{ID: "api", Probe: p})

	errCh := make(chan error, 1)
	go func() {
		_, err := m.CheckService(context.Background(), "api")
		errCh <- err
	}()
	<-entered

	if !m.Unregister("api") {
		t.Fatal("Unregister() = false, want true")
	}
	close(release)

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrServiceNotFound) {
			t.Errorf("CheckService() error = %v, want ErrServiceNotFound", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("CheckService did not return")
	}

	if _, ok := m.ServiceStatus("api"); ok {
		t.Error("service should stay removed")
	}
}
