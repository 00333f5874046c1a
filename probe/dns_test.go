package probe

import (
	"context"
	"errors"
	"net"
	"testing"
)

func TestDNS_Check_Success(t *testing.T) {
	p := NewDNS(DNSConfig{Host: "localhost"})

	details, err := p.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if details["host"] != "localhost" {
		t.Errorf("host = %v, want localhost", details["host"])
	}
	if details["addresses"].(int) < 1 {
		t.Errorf("addresses = %v, want at least 1", details["addresses"])
	}
	if details["resolved"] == "" {
		t.Error("resolved address is empty")
	}
}

func TestDNS_Check_LookupFails(t *testing.T) {
	// A resolver whose transport always fails forces a lookup error for any
	// name that is not in the hosts file.
	resolver := &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
			return nil, errors.New("no route to resolver")
		},
	}

	p := NewDNS(DNSConfig{Host: "svc.invalid", Resolver: resolver})

	_, err := p.Check(context.Background())
	if err == nil {
		t.Fatal("Check() error = nil, want lookup failure")
	}
	if !errors.Is(err, ErrConnection) && !errors.Is(err, ErrTimeout) {
		t.Errorf("Check() error = %v, want a classified transport error", err)
	}
}

func TestDNS_Check_MissingHost(t *testing.T) {
	p := NewDNS(DNSConfig{})

	_, err := p.Check(context.Background())
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("Check() error = %v, want ErrConfiguration", err)
	}
}

func TestDNS_Kind(t *testing.T) {
	if kind := NewDNS(DNSConfig{Host: "example.com"}).Kind(); kind != KindDNS {
		t.Errorf("Kind() = %q, want %q", kind, KindDNS)
	}
}
