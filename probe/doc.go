// Package probe provides the probing primitives used to check remote services.
//
// This package defines the Probe interface, concrete probe implementations for
// common protocols, and an Executor that runs a probe with bounded retries and
// per-attempt timeouts. Probes answer a single question about one target: is it
// reachable and behaving right now? Everything stateful (thresholds, history,
// scheduling) lives in the monitor package, which consumes probes through the
// Executor.
//
// # Core Concepts
//
// A Probe is any component that can check one target. Check returns optional
// probe-specific details and an error describing the failure. Errors are
// classified with the package sentinels (ErrTimeout, ErrConnection,
// ErrValidation, ErrConfiguration) so callers can inspect the failure class
// with errors.Is.
//
// # Built-in Probes
//
//	// HTTP endpoint with an expected status code
//	p := probe.NewHTTP(probe.HTTPConfig{
//	    URL:            "https://api.example.com/health",
//	    ExpectedStatus: 200,
//	})
//
//	// Plain TCP connect
//	p := probe.NewTCP(probe.TCPConfig{Address: "db.internal:5432"})
//
//	// Datastore handle that exposes Ping (database/sql fits directly)
//	p := probe.NewStore(probe.StoreConfig{
//	    Client: probe.PingerFunc(db.PingContext),
//	})
//
// # Running Probes
//
// The Executor wraps a probe with retry and timeout behavior and reports a
// single Outcome per logical check:
//
//	exec := probe.NewExecutor(probe.ExecutorConfig{
//	    Attempts: 3,
//	    Delay:    time.Second,
//	    Timeout:  5 * time.Second,
//	})
//	outcome := exec.Run(ctx, p)
//	if !outcome.OK {
//	    log.Printf("check failed after %d attempts: %v", outcome.Attempts, outcome.Err)
//	}
package probe
