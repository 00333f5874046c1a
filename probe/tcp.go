package probe

import (
	"context"
	"fmt"
	"net"
)

// TCPConfig configures the TCP probe.
type TCPConfig struct {
	// Address is the host:port to connect to. Required.
	Address string

	// Dialer is the dialer used to connect.
	// Default: a zero net.Dialer, bounded by the attempt context.
	Dialer *net.Dialer
}

// TCP probes a target by establishing a TCP connection. A completed handshake
// is success; the connection is closed immediately.
type TCP struct {
	config TCPConfig
}

// NewTCP creates a new TCP probe.
func NewTCP(config TCPConfig) *TCP {
	if config.Dialer == nil {
		config.Dialer = &net.Dialer{}
	}

	return &TCP{config: config}
}

// Kind returns KindTCP.
func (p *TCP) Kind() Kind {
	return KindTCP
}

// Check dials the target once.
func (p *TCP) Check(ctx context.Context) (map[string]any, error) {
	if p.config.Address == "" {
		return nil, fmt.Errorf("%w: tcp probe requires an address", ErrConfiguration)
	}

	conn, err := p.config.Dialer.DialContext(ctx, "tcp", p.config.Address)
	if err != nil {
		return nil, classify(err)
	}

	details := map[string]any{
		"address":     p.config.Address,
		"remote_addr": conn.RemoteAddr().String(),
	}
	_ = conn.Close()

	return details, nil
}

var _ Probe = (*TCP)(nil)
