package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-ping/ping"
)

// ICMPConfig configures the ICMP probe.
type ICMPConfig struct {
	// Host is the target to ping. Required.
	Host string

	// Count is the number of echo requests per check.
	// Default: 3
	Count int

	// Privileged uses raw ICMP sockets instead of unprivileged UDP pings.
	// Raw sockets require elevated privileges on most systems.
	Privileged bool
}

// ICMP probes a host with ICMP echo requests. At least one reply is success.
type ICMP struct {
	config ICMPConfig
}

// NewICMP creates a new ICMP probe.
func NewICMP(config ICMPConfig) *ICMP {
	if config.Count <= 0 {
		config.Count = 3
	}

	return &ICMP{config: config}
}

// Kind returns KindICMP.
func (p *ICMP) Kind() Kind {
	return KindICMP
}

// Check pings the host once.
func (p *ICMP) Check(ctx context.Context) (map[string]any, error) {
	if p.config.Host == "" {
		return nil, fmt.Errorf("%w: icmp probe requires a host", ErrConfiguration)
	}

	pinger, err := ping.NewPinger(p.config.Host)
	if err != nil {
		return nil, classify(err)
	}

	pinger.Count = p.config.Count
	pinger.SetPrivileged(p.config.Privileged)

	if deadline, ok := ctx.Deadline(); ok {
		pinger.Timeout = time.Until(deadline)
	} else {
		pinger.Timeout = 5 * time.Second
	}

	done := make(chan error, 1)
	go func() {
		done <- pinger.Run()
	}()

	select {
	case <-ctx.Done():
		pinger.Stop()
		<-done
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
		}
		return nil, ctx.Err()
	case err := <-done:
		if err != nil {
			return nil, classify(err)
		}
	}

	stats := pinger.Statistics()
	details := map[string]any{
		"packets_sent": stats.PacketsSent,
		"packets_recv": stats.PacketsRecv,
		"packet_loss":  stats.PacketLoss,
		"avg_rtt_ms":   float64(stats.AvgRtt.Milliseconds()),
	}
	if stats.IPAddr != nil {
		details["resolved"] = stats.IPAddr.String()
	}

	if stats.PacketsRecv == 0 {
		return details, fmt.Errorf("%w: no echo replies from %s", ErrConnection, p.config.Host)
	}

	return details, nil
}

var _ Probe = (*ICMP)(nil)
