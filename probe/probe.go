package probe

import (
	"context"
	"fmt"
)

// Kind identifies the protocol a probe speaks.
type Kind string

const (
	// KindHTTP checks an HTTP endpoint for an expected response.
	KindHTTP Kind = "http"
	// KindTCP checks that a TCP connection can be established.
	KindTCP Kind = "tcp"
	// KindStore checks a datastore client handle via its ping method.
	KindStore Kind = "store"
	// KindDNS checks that a hostname resolves.
	KindDNS Kind = "dns"
	// KindICMP checks a host with ICMP echo requests.
	KindICMP Kind = "icmp"
	// KindTLS checks a TLS endpoint and its certificate expiry.
	KindTLS Kind = "tls"
	// KindCustom is a caller-supplied check function.
	KindCustom Kind = "custom"
)

// Probe is the interface for single-target checks.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: Check must honor cancellation/deadlines.
// - Errors: failures are classified with the package sentinels; details may be
//   returned alongside an error to describe what was observed.
// - Ownership: the returned details map is owned by the caller; implementations
//   must allocate a fresh map per call and never retain or mutate it.
type Probe interface {
	// Kind returns the protocol this probe speaks.
	Kind() Kind

	// Check probes the target once.
	Check(ctx context.Context) (map[string]any, error)
}

// Func adapts an ordinary function to the Probe interface. It reports
// KindCustom and is the extension point for checks the built-in probes do not
// cover.
type Func struct {
	fn func(context.Context) (map[string]any, error)
}

// NewFunc creates a probe from a check function.
func NewFunc(fn func(context.Context) (map[string]any, error)) *Func {
	return &Func{fn: fn}
}

// Kind returns KindCustom.
func (f *Func) Kind() Kind {
	return KindCustom
}

// Check invokes the wrapped function.
func (f *Func) Check(ctx context.Context) (map[string]any, error) {
	if f.fn == nil {
		return nil, fmt.Errorf("%w: nil check function", ErrConfiguration)
	}
	return f.fn(ctx)
}

var _ Probe = (*Func)(nil)
