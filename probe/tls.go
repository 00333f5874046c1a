package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"time"
)

// TLSProbeConfig configures the TLS probe.
type TLSProbeConfig struct {
	// Address is the host[:port] to connect to. Port 443 is assumed when
	// missing. Required.
	Address string

	// WarnWindow fails the check when the certificate expires within this
	// window.
	// Default: 30 days
	WarnWindow time.Duration

	// TLS overrides the handshake configuration, e.g. to pin roots.
	TLS *tls.Config
}

// TLS probes a TLS endpoint: the handshake must complete and the leaf
// certificate must not be expired or expiring soon.
type TLS struct {
	config TLSProbeConfig
}

// NewTLS creates a new TLS probe.
func NewTLS(config TLSProbeConfig) *TLS {
	if config.WarnWindow <= 0 {
		config.WarnWindow = 30 * 24 * time.Hour
	}

	return &TLS{config: config}
}

// Kind returns KindTLS.
func (p *TLS) Kind() Kind {
	return KindTLS
}

// Check performs one TLS handshake and inspects the peer certificate.
func (p *TLS) Check(ctx context.Context) (map[string]any, error) {
	if p.config.Address == "" {
		return nil, fmt.Errorf("%w: tls probe requires an address", ErrConfiguration)
	}

	address := p.config.Address
	if !strings.Contains(address, ":") {
		address += ":443"
	}

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{},
		Config:    p.config.TLS,
	}

	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, classify(err)
	}
	defer conn.Close()

	certs := conn.(*tls.Conn).ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return nil, fmt.Errorf("%w: no peer certificates presented", ErrValidation)
	}

	cert := certs[0]
	now := time.Now()
	daysLeft := int(cert.NotAfter.Sub(now).Hours() / 24)

	details := map[string]any{
		"expires_at": cert.NotAfter.UTC().Format(time.RFC3339),
		"days_left":  daysLeft,
		"issuer":     cert.Issuer.CommonName,
	}

	if now.After(cert.NotAfter) {
		return details, fmt.Errorf("%w: certificate expired on %s",
			ErrValidation, cert.NotAfter.Format("2006-01-02"))
	}

	if cert.NotAfter.Sub(now) < p.config.WarnWindow {
		return details, fmt.Errorf("%w: certificate expires in %d days (warn window %d days)",
			ErrValidation, daysLeft, int(p.config.WarnWindow.Hours()/24))
	}

	return details, nil
}

var _ Probe = (*TLS)(nil)
