package probe

import (
	"context"
	"fmt"
)

// Pinger is the handle a datastore client must expose to be probed. The
// database/sql DB type fits via PingerFunc:
//
//	probe.NewStore(probe.StoreConfig{Client: probe.PingerFunc(db.PingContext)})
//
// Redis, memcached and similar clients adapt the same way.
type Pinger interface {
	// Ping checks that the store is reachable and serving.
	Ping(ctx context.Context) error
}

// PingerFunc is an adapter to allow ordinary functions to be used as Pingers.
type PingerFunc func(ctx context.Context) error

// Ping calls the wrapped function.
func (f PingerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// StoreConfig configures the store probe.
type StoreConfig struct {
	// Client is the datastore handle to ping. Required.
	Client Pinger

	// Name identifies the store in check details, e.g. "postgres" or "redis".
	Name string
}

// Store probes a datastore through its client handle. A missing client is a
// configuration failure scoped to this probe's service, not a panic.
type Store struct {
	config StoreConfig
}

// NewStore creates a new store probe.
func NewStore(config StoreConfig) *Store {
	return &Store{config: config}
}

// Kind returns KindStore.
func (p *Store) Kind() Kind {
	return KindStore
}

// Check pings the store once.
func (p *Store) Check(ctx context.Context) (map[string]any, error) {
	if p.config.Client == nil {
		return nil, fmt.Errorf("%w: store client not configured", ErrConfiguration)
	}

	if err := p.config.Client.Ping(ctx); err != nil {
		return nil, classify(err)
	}

	details := map[string]any{}
	if p.config.Name != "" {
		details["store"] = p.config.Name
	}
	return details, nil
}

var _ Probe = (*Store)(nil)
