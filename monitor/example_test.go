package monitor_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/jonwraymond/vigil/monitor"
	"github.com/jonwraymond/vigil/probe"
)

func ExampleNew() {
	m := monitor.New()

	// A custom probe wraps any check function; built-in probes cover
	// http, tcp, store, dns, icmp and tls.
	err := m.Register(monitor.ServiceConfig{
		ID:   "payments-db",
		Name: "Payments Database",
		Probe: probe.NewFunc(func(ctx context.Context) (map[string]any, error) {
			return map[string]any{"pool": "warm"}, nil
		}),
	})
	if err != nil {
		fmt.Println("register failed:", err)
		return
	}

	snap := m.CheckNow(context.Background())

	fmt.Println("Aggregate:", snap.Status)
	fmt.Println("Service:", snap.Services["payments-db"].Status)
	// Output:
	// Aggregate: healthy
	// Service: healthy
}

func ExampleMonitor_CheckService() {
	m := monitor.New(monitor.Options{Retries: 1})

	_ = m.Register(monitor.ServiceConfig{
		ID: "billing-api",
		Probe: probe.NewFunc(func(ctx context.Context) (map[string]any, error) {
			return nil, errors.New("connection refused")
		}),
	})

	st, err := m.CheckService(context.Background(), "billing-api")
	if err != nil {
		fmt.Println("check failed:", err)
		return
	}

	// A failing probe is service state, not an error.
	fmt.Println("Status:", st.Status)
	fmt.Println("Error:", st.Error)
	// Output:
	// Status: down
	// Error: connection refused
}

func ExampleMonitor_CheckService_unknownID() {
	m := monitor.New()

	_, err := m.CheckService(context.Background(), "ghost")

	fmt.Println("Not found:", errors.Is(err, monitor.ErrServiceNotFound))
	// Output:
	// Not found: true
}

func ExampleMonitor_Subscribe() {
	m := monitor.New(monitor.Options{Retries: 1})
	_ = m.Register(monitor.ServiceConfig{
		ID: "api",
		Probe: probe.NewFunc(func(ctx context.Context) (map[string]any, error) {
			return nil, nil
		}),
	})

	events, cancel := m.Subscribe(16)
	defer cancel()

	m.CheckNow(context.Background())

	// The first check moves the service from unknown to healthy.
	e := <-events
	fmt.Println("Event:", e.Type)
	fmt.Println("Transition:", e.From, "->", e.To)
	// Output:
	// Event: statusUpdate
	// Transition: unknown -> healthy
}

func ExampleMonitor_History() {
	m := monitor.New(monitor.Options{Retries: 1})
	_ = m.Register(monitor.ServiceConfig{
		ID: "api",
		Probe: probe.NewFunc(func(ctx context.Context) (map[string]any, error) {
			return nil, nil
		}),
	})

	m.CheckNow(context.Background())
	m.CheckNow(context.Background())

	entries, _ := m.History("api", 10)
	summary, _ := m.HistorySummary("api")

	fmt.Println("Entries:", len(entries))
	fmt.Println("Uptime:", summary.Uptime)
	// Output:
	// Entries: 2
	// Uptime: 1
}

func ExampleParseConfig() {
	raw := `
monitor:
  check_interval: 30s
services:
  - id: postgres
    kind: tcp
    tcp:
      address: db.internal:5432
`

	fc, err := monitor.ParseConfig([]byte(raw))
	if err != nil {
		fmt.Println("parse failed:", err)
		return
	}

	fmt.Println("Services:", len(fc.Services))
	fmt.Println("Kind:", fc.Services[0].Kind)
	// Output:
	// Services: 1
	// Kind: tcp
}

func ExampleRegisterHandlers() {
	m := monitor.New()
	_ = m.Register(monitor.ServiceConfig{
		ID: "api",
		Probe: probe.NewFunc(func(ctx context.Context) (map[string]any, error) {
			return nil, nil
		}),
	})
	m.CheckNow(context.Background())

	mux := http.NewServeMux()
	monitor.RegisterHandlers(mux, m)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	fmt.Println("Code:", rec.Code)
	fmt.Println("Body:", rec.Body.String())
	// Output:
	// Code: 200
	// Body: OK
}
