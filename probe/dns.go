package probe

import (
	"context"
	"fmt"
	"net"
)

// DNSConfig configures the DNS probe.
type DNSConfig struct {
	// Host is the name to resolve. Required.
	Host string

	// Resolver performs the lookup.
	// Default: the Go resolver.
	Resolver *net.Resolver
}

// DNS probes a hostname by resolving it. Resolution to at least one address
// is success.
type DNS struct {
	config DNSConfig
}

// NewDNS creates a new DNS probe.
func NewDNS(config DNSConfig) *DNS {
	if config.Resolver == nil {
		config.Resolver = &net.Resolver{PreferGo: true}
	}

	return &DNS{config: config}
}

// Kind returns KindDNS.
func (p *DNS) Kind() Kind {
	return KindDNS
}

// Check resolves the host once.
func (p *DNS) Check(ctx context.Context) (map[string]any, error) {
	if p.config.Host == "" {
		return nil, fmt.Errorf("%w: dns probe requires a host", ErrConfiguration)
	}

	addrs, err := p.config.Resolver.LookupIPAddr(ctx, p.config.Host)
	if err != nil {
		return nil, classify(err)
	}

	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: no addresses found for %s", ErrValidation, p.config.Host)
	}

	details := map[string]any{
		"host":      p.config.Host,
		"addresses": len(addrs),
		"resolved":  addrs[0].String(),
	}
	return details, nil
}

var _ Probe = (*DNS)(nil)
