package observe

import "errors"

// Configuration errors returned by Config.Validate.
var (
	// ErrMissingServiceName reports an empty Config.ServiceName.
	ErrMissingServiceName = errors.New("observe: missing service name")

	// ErrInvalidSamplePct reports a Tracing.SamplePct outside [0.0, 1.0].
	ErrInvalidSamplePct = errors.New("observe: sample percentage out of range 0.0-1.0")

	// ErrInvalidTracingExporter reports an unrecognized tracing exporter name.
	ErrInvalidTracingExporter = errors.New("observe: invalid tracing exporter")

	// ErrInvalidMetricsExporter reports an unrecognized metrics exporter name.
	ErrInvalidMetricsExporter = errors.New("observe: invalid metrics exporter")

	// ErrInvalidLogLevel reports an unrecognized log level name.
	ErrInvalidLogLevel = errors.New("observe: invalid log level")
)

// ErrEndpointNotConfigured reports an OTLP exporter selected without any
// endpoint environment variable set.
var ErrEndpointNotConfigured = errors.New("observe: endpoint not configured")

// Bounds for Tracing.SamplePct.
const (
	MinSamplePct = 0.0
	MaxSamplePct = 1.0
)

// ValidTracingExporters are the accepted Tracing.Exporter names.
var ValidTracingExporters = []string{"otlp", "stdout", "none", ""}

// ValidMetricsExporters are the accepted Metrics.Exporter names.
var ValidMetricsExporters = []string{"otlp", "prometheus", "stdout", "none", ""}

// ValidLogLevels are the accepted Logging.Level names.
var ValidLogLevels = []string{"debug", "info", "warn", "error", ""}

// RedactedFields lists log field keys whose values are replaced with
// "[REDACTED]". Probe configurations carry credentials (bearer tokens, basic
// auth, signing secrets) that must never reach log output.
var RedactedFields = []string{
	"password",
	"secret",
	"token",
	"api_key",
	"apiKey",
	"credential",
	"authorization",
}
