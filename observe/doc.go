// Package observe provides observability primitives for service health checks.
//
// It is a pure instrumentation library: no probing, no scheduling, no I/O
// beyond exporter setup. The monitor package wires an Observer (or individual
// Logger/Metrics/Tracer values) into its check pipeline; everything here works
// standalone as well.
package observe
