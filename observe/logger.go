package observe

import (
	"context"
	"encoding/json"
	"io"
	"maps"
	"os"
	"sync"
	"time"
)

// LogLevel represents a logging level.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"debug", "info", "warn", "error"}

// ParseLogLevel parses a level name. Unknown names (including the empty
// string) fall back to info rather than failing.
func ParseLogLevel(s string) LogLevel {
	for i, name := range levelNames {
		if s == name {
			return LogLevel(i)
		}
	}
	return LevelInfo
}

func (l LogLevel) String() string {
	if l < LevelDebug || l > LevelError {
		return "info"
	}
	return levelNames[l]
}

// jsonLogger writes one JSON object per line. Service context attached via
// WithService is carried in base and merged into every entry.
type jsonLogger struct {
	level LogLevel
	base  map[string]any

	mu sync.Mutex
	w  io.Writer
}

// NewLogger creates a logger writing to stderr at the given level.
func NewLogger(level string) Logger {
	return NewLoggerWithWriter(level, os.Stderr)
}

// NewLoggerWithWriter creates a logger writing to w at the given level.
func NewLoggerWithWriter(level string, w io.Writer) Logger {
	return &jsonLogger{
		level: ParseLogLevel(level),
		base:  make(map[string]any),
		w:     w,
	}
}

// WithService returns a child logger that stamps every entry with the service
// identity. The receiver is not modified.
func (l *jsonLogger) WithService(meta ServiceMeta) Logger {
	base := maps.Clone(l.base)
	base["service.id"] = meta.ID
	if meta.Name != "" {
		base["service.name"] = meta.Name
	}
	if meta.Kind != "" {
		base["probe.kind"] = meta.Kind
	}

	return &jsonLogger{
		level: l.level,
		base:  base,
		w:     l.w,
	}
}

func (l *jsonLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.log(LevelInfo, msg, fields)
}

func (l *jsonLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.log(LevelWarn, msg, fields)
}

func (l *jsonLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.log(LevelError, msg, fields)
}

func (l *jsonLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.log(LevelDebug, msg, fields)
}

func (l *jsonLogger) log(level LogLevel, msg string, fields []Field) {
	if level < l.level {
		return
	}

	entry := make(map[string]any, len(l.base)+len(fields)+3)
	maps.Copy(entry, l.base)
	for _, f := range fields {
		if redacted[f.Key] {
			entry[f.Key] = "[REDACTED]"
		} else {
			entry[f.Key] = f.Value
		}
	}
	entry["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	entry["level"] = level.String()
	entry["msg"] = msg

	data, err := json.Marshal(entry)
	if err != nil {
		// An unmarshalable field value drops the entry; a check must never
		// fail because of its log line.
		return
	}
	data = append(data, '\n')

	// One locked write per entry keeps concurrent lines intact.
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(data)
}

// redacted is the lookup form of RedactedFields.
var redacted = func() map[string]bool {
	m := make(map[string]bool, len(RedactedFields))
	for _, k := range RedactedFields {
		m[k] = true
	}
	return m
}()

var _ Logger = (*jsonLogger)(nil)
