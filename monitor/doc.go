// Package monitor implements a protocol-agnostic service health monitoring
// engine: a registry of services probed on a schedule, a hysteresis state
// machine that keeps transient blips from flapping alerts, bounded per-service
// check history, and a typed event stream for alerting and dashboards.
//
// # Core Concepts
//
// A service is registered with a unique id and a probe (see the probe
// package). Each logical check runs the probe with bounded retries and
// records exactly one history entry. Check outcomes feed a per-service state
// machine over the statuses unknown, healthy, degraded and down:
//
//   - AlertThreshold consecutive failures mark a service down.
//   - RecoveryThreshold consecutive successes bring it back to healthy.
//   - A single failure from healthy only degrades the service.
//
// # Basic Usage
//
//	m := monitor.New(monitor.Options{
//	    CheckInterval:  30 * time.Second,
//	    AlertThreshold: 2,
//	})
//
//	err := m.Register(monitor.ServiceConfig{
//	    ID:    "api",
//	    Name:  "API Gateway",
//	    Probe: probe.NewHTTP(probe.HTTPConfig{URL: "https://api.example.com/health"}),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	m.Start(ctx)
//	defer m.Stop()
//
// # Events
//
// Subscribe returns a channel of typed events (serviceDown, serviceRecovered,
// statusUpdate, ...). Delivery is in-process and best-effort: a slow consumer
// drops events rather than blocking checks.
//
//	events, cancel := m.Subscribe(16)
//	defer cancel()
//	for ev := range events {
//	    if ev.Type == monitor.EventServiceDown {
//	        page(ev.Service.ID, ev.Service.Error)
//	    }
//	}
//
// # Status
//
// Status computes an aggregate snapshot fresh on every call: unhealthy if any
// service is down, degraded if any is degraded, healthy otherwise. All data
// returned from the public API is a copy, never a live reference.
//
// # HTTP Endpoints
//
// The package provides HTTP handlers for common health surface patterns:
//
//	mux := http.NewServeMux()
//	monitor.RegisterHandlers(mux, m)
//	// GET /healthz  - liveness
//	// GET /readyz   - readiness driven by the aggregate status
//	// GET /health   - detailed JSON snapshot
package monitor
