package observe

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// otlpEndpoint resolves the OTLP target from the generic endpoint variable,
// falling back to the signal-specific one. OTLP exporters read these variables
// themselves; this check exists only to fail construction early with a clear
// error instead of exporting into the void.
func otlpEndpoint(signalVar string) (string, error) {
	if ep := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); ep != "" {
		return ep, nil
	}
	if ep := os.Getenv(signalVar); ep != "" {
		return ep, nil
	}
	return "", fmt.Errorf("%w: set OTEL_EXPORTER_OTLP_ENDPOINT or %s", ErrEndpointNotConfigured, signalVar)
}

// newTracingExporter builds the span exporter named by cfg.Tracing.Exporter.
// The empty name and "none" write to io.Discard so the provider pipeline stays
// intact without producing output.
func newTracingExporter(ctx context.Context, name string) (sdktrace.SpanExporter, error) {
	var w io.Writer
	switch name {
	case "stdout":
		w = os.Stdout
	case "none", "":
		w = io.Discard
	case "otlp":
		if _, err := otlpEndpoint("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"); err != nil {
			return nil, err
		}
		return otlptracegrpc.New(ctx)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidTracingExporter, name)
	}
	return stdouttrace.New(stdouttrace.WithWriter(w))
}

// newMetricsReader builds the metrics reader named by cfg.Metrics.Exporter.
// Push exporters (stdout, otlp, none) are wrapped in a periodic reader; the
// Prometheus exporter is itself a pull-based reader.
func newMetricsReader(ctx context.Context, name string) (sdkmetric.Reader, error) {
	var w io.Writer
	switch name {
	case "stdout":
		w = os.Stdout
	case "none", "":
		w = io.Discard
	case "otlp":
		if _, err := otlpEndpoint("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"); err != nil {
			return nil, err
		}
		exp, err := otlpmetricgrpc.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("otlp metrics exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exp), nil
	case "prometheus":
		exp, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("prometheus exporter: %w", err)
		}
		return exp, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMetricsExporter, name)
	}

	exp, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("stdout metrics exporter: %w", err)
	}
	return sdkmetric.NewPeriodicReader(exp), nil
}
