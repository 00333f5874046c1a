package monitor

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/vigil/probe"
	"github.com/jonwraymond/vigil/secret"
)

// FileConfig is the YAML shape of a monitor deployment: one block of engine
// options plus the services to watch. Durations are strings in Go syntax
// ("30s", "1m"). ${VAR} references are expanded from the environment before
// parsing so credentials can stay out of the file; referencing an unset
// variable fails the load:
//
//	monitor:
//	  check_interval: 30s
//	  alert_threshold: 2
//	services:
//	  - id: billing-api
//	    kind: http
//	    http:
//	      url: https://billing.internal/health
//	      auth:
//	        type: bearer
//	        token: ${BILLING_TOKEN}
//	  - id: postgres
//	    kind: tcp
//	    tcp:
//	      address: db.internal:5432
type FileConfig struct {
	Monitor  EngineConfig  `yaml:"monitor"`
	Services []ServiceDecl `yaml:"services"`
}

// EngineConfig mirrors Options with YAML-friendly types. Unset fields keep
// the defaults documented on Options.
type EngineConfig struct {
	CheckInterval     string `yaml:"check_interval,omitempty"`
	Timeout           string `yaml:"timeout,omitempty"`
	Retries           int    `yaml:"retries,omitempty"`
	RetryDelay        string `yaml:"retry_delay,omitempty"`
	AlertThreshold    int    `yaml:"alert_threshold,omitempty"`
	RecoveryThreshold int    `yaml:"recovery_threshold,omitempty"`
	HistoryLimit      int    `yaml:"history_limit,omitempty"`
	MaxConcurrent     int    `yaml:"max_concurrent,omitempty"`
}

// ServiceDecl declares one monitored service. Kind selects which probe block
// applies. Store and custom probes need client handles or code and cannot be
// declared in a file; use Register for those.
type ServiceDecl struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name,omitempty"`
	Kind string `yaml:"kind"`

	HTTP *HTTPDecl `yaml:"http,omitempty"`
	TCP  *TCPDecl  `yaml:"tcp,omitempty"`
	DNS  *DNSDecl  `yaml:"dns,omitempty"`
	ICMP *ICMPDecl `yaml:"icmp,omitempty"`
	TLS  *TLSDecl  `yaml:"tls,omitempty"`
}

// HTTPDecl declares an HTTP probe.
type HTTPDecl struct {
	URL            string            `yaml:"url"`
	Method         string            `yaml:"method,omitempty"`
	Headers        map[string]string `yaml:"headers,omitempty"`
	Body           string            `yaml:"body,omitempty"`
	ExpectedStatus int               `yaml:"expected_status,omitempty"`
	Auth           *AuthDecl         `yaml:"auth,omitempty"`
	Assertions     []AssertionDecl   `yaml:"assertions,omitempty"`
}

// AuthDecl declares request authentication for an HTTP probe. Type is one of
// "bearer", "basic" or "jwt".
type AuthDecl struct {
	Type     string `yaml:"type"`
	Token    string `yaml:"token,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Secret   string `yaml:"secret,omitempty"`
	Issuer   string `yaml:"issuer,omitempty"`
	Subject  string `yaml:"subject,omitempty"`
	Audience string `yaml:"audience,omitempty"`
	TTL      string `yaml:"ttl,omitempty"`
}

// AssertionDecl declares a JSON body assertion. Path uses gjson syntax.
type AssertionDecl struct {
	Path     string `yaml:"path"`
	Operator string `yaml:"operator,omitempty"`
	Value    any    `yaml:"value"`
}

// TCPDecl declares a TCP probe.
type TCPDecl struct {
	Address string `yaml:"address"`
}

// DNSDecl declares a DNS probe.
type DNSDecl struct {
	Host string `yaml:"host"`
}

// ICMPDecl declares an ICMP probe.
type ICMPDecl struct {
	Host       string `yaml:"host"`
	Count      int    `yaml:"count,omitempty"`
	Privileged bool   `yaml:"privileged,omitempty"`
}

// TLSDecl declares a TLS probe.
type TLSDecl struct {
	Address    string `yaml:"address"`
	WarnWindow string `yaml:"warn_window,omitempty"`
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("monitor: read config: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig parses YAML config bytes. Environment references are expanded
// first; a ${VAR} reference to an unset variable fails the load.
func ParseConfig(data []byte) (*FileConfig, error) {
	expanded, err := secret.Expand(string(data))
	if err != nil {
		return nil, fmt.Errorf("monitor: expand config: %w", err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal([]byte(expanded), &fc); err != nil {
		return nil, fmt.Errorf("monitor: parse config: %w", err)
	}

	return &fc, nil
}

// NewFromConfig builds a Monitor from a parsed config and registers every
// declared service. base supplies options a file cannot carry, such as the
// observability handles; values set in the file win over base.
func NewFromConfig(fc *FileConfig, base ...Options) (*Monitor, error) {
	var opts Options
	if len(base) > 0 {
		opts = base[0]
	}
	if err := fc.Monitor.apply(&opts); err != nil {
		return nil, err
	}

	m := New(opts)

	configs, err := fc.ServiceConfigs()
	if err != nil {
		return nil, err
	}
	for _, cfg := range configs {
		if err := m.Register(cfg); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// NewFromFile is NewFromConfig over a config file path.
func NewFromFile(path string, base ...Options) (*Monitor, error) {
	fc, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	return NewFromConfig(fc, base...)
}

// Options converts the engine block to Options. Unset fields stay zero and
// pick up the New defaults.
func (ec EngineConfig) Options() (Options, error) {
	var opts Options
	if err := ec.apply(&opts); err != nil {
		return Options{}, err
	}

	return opts, nil
}

// apply copies set fields onto opts and leaves the rest alone.
func (ec EngineConfig) apply(opts *Options) error {
	durations := []struct {
		field string
		raw   string
		dst   *time.Duration
	}{
		{"check_interval", ec.CheckInterval, &opts.CheckInterval},
		{"timeout", ec.Timeout, &opts.Timeout},
		{"retry_delay", ec.RetryDelay, &opts.RetryDelay},
	}
	for _, d := range durations {
		parsed, err := parseDuration(d.raw, d.field)
		if err != nil {
			return err
		}
		if parsed > 0 {
			*d.dst = parsed
		}
	}

	if ec.Retries > 0 {
		opts.Retries = ec.Retries
	}
	if ec.AlertThreshold > 0 {
		opts.AlertThreshold = ec.AlertThreshold
	}
	if ec.RecoveryThreshold > 0 {
		opts.RecoveryThreshold = ec.RecoveryThreshold
	}
	if ec.HistoryLimit > 0 {
		opts.HistoryLimit = ec.HistoryLimit
	}
	if ec.MaxConcurrent > 0 {
		opts.MaxConcurrent = ec.MaxConcurrent
	}

	return nil
}

// ServiceConfigs builds a probe-backed ServiceConfig per declaration. A kind
// that cannot be declared in a file fails with probe.ErrUnsupportedKind.
func (fc *FileConfig) ServiceConfigs() ([]ServiceConfig, error) {
	configs := make([]ServiceConfig, 0, len(fc.Services))
	for _, decl := range fc.Services {
		p, err := decl.buildProbe()
		if err != nil {
			return nil, err
		}
		configs = append(configs, ServiceConfig{ID: decl.ID, Name: decl.Name, Probe: p})
	}

	return configs, nil
}

func (d ServiceDecl) buildProbe() (probe.Probe, error) {
	switch probe.Kind(d.Kind) {
	case probe.KindHTTP:
		if d.HTTP == nil {
			return nil, fmt.Errorf("monitor: service %q: missing http block", d.ID)
		}
		return d.HTTP.build()

	case probe.KindTCP:
		if d.TCP == nil {
			return nil, fmt.Errorf("monitor: service %q: missing tcp block", d.ID)
		}
		return probe.NewTCP(probe.TCPConfig{Address: d.TCP.Address}), nil

	case probe.KindDNS:
		if d.DNS == nil {
			return nil, fmt.Errorf("monitor: service %q: missing dns block", d.ID)
		}
		return probe.NewDNS(probe.DNSConfig{Host: d.DNS.Host}), nil

	case probe.KindICMP:
		if d.ICMP == nil {
			return nil, fmt.Errorf("monitor: service %q: missing icmp block", d.ID)
		}
		return probe.NewICMP(probe.ICMPConfig{
			Host:       d.ICMP.Host,
			Count:      d.ICMP.Count,
			Privileged: d.ICMP.Privileged,
		}), nil

	case probe.KindTLS:
		if d.TLS == nil {
			return nil, fmt.Errorf("monitor: service %q: missing tls block", d.ID)
		}
		warn, err := parseDuration(d.TLS.WarnWindow, "warn_window")
		if err != nil {
			return nil, fmt.Errorf("monitor: service %q: %w", d.ID, err)
		}
		return probe.NewTLS(probe.TLSProbeConfig{Address: d.TLS.Address, WarnWindow: warn}), nil

	case probe.KindStore, probe.KindCustom:
		return nil, fmt.Errorf("%w: %q is not declarable in a file (service %q)",
			probe.ErrUnsupportedKind, d.Kind, d.ID)

	default:
		return nil, fmt.Errorf("%w: %q (service %q)", probe.ErrUnsupportedKind, d.Kind, d.ID)
	}
}

func (d *HTTPDecl) build() (probe.Probe, error) {
	cfg := probe.HTTPConfig{
		URL:            d.URL,
		Method:         d.Method,
		Headers:        d.Headers,
		Body:           d.Body,
		ExpectedStatus: d.ExpectedStatus,
	}

	for _, a := range d.Assertions {
		cfg.Assertions = append(cfg.Assertions, probe.Assertion{
			Path:     a.Path,
			Operator: a.Operator,
			Value:    a.Value,
		})
	}

	if d.Auth != nil {
		ttl, err := parseDuration(d.Auth.TTL, "auth.ttl")
		if err != nil {
			return nil, err
		}
		cfg.Auth = &probe.Auth{
			Type:     d.Auth.Type,
			Token:    d.Auth.Token,
			Username: d.Auth.Username,
			Password: d.Auth.Password,
			Secret:   []byte(d.Auth.Secret),
			Issuer:   d.Auth.Issuer,
			Subject:  d.Auth.Subject,
			Audience: d.Auth.Audience,
			TTL:      ttl,
		}
	}

	return probe.NewHTTP(cfg), nil
}

func parseDuration(raw, field string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("monitor: %s: %w", field, err)
	}

	return d, nil
}
