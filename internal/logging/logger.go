// Package logging provides structured JSON logging with component and
// trace-ID scoping for the monitor subsystems.
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Logger is the logging interface shared by all monitor components.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	Fatal(msg string, fields ...interface{})

	DebugContext(ctx context.Context, msg string, fields ...interface{})
	InfoContext(ctx context.Context, msg string, fields ...interface{})
	WarnContext(ctx context.Context, msg string, fields ...interface{})
	ErrorContext(ctx context.Context, msg string, fields ...interface{})

	WithTraceID(traceID string) Logger
	WithComponent(component string) Logger
}

// Level controls which entries a logger emits.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "INFO"
	}
}

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "FATAL":
		return LevelFatal
	default:
		return LevelInfo
	}
}

// Entry is a single structured log record.
type Entry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Component string                 `json:"component,omitempty"`
	TraceID   string                 `json:"trace_id,omitempty"`
	Caller    string                 `json:"caller,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

type contextKey string

// TraceIDKey carries a request trace ID through a context.
const TraceIDKey contextKey = "trace_id"

// StructuredLogger writes JSON (or plain text) entries to a writer.
type StructuredLogger struct {
	mu        sync.Mutex
	out       io.Writer
	level     Level
	component string
	traceID   string
	useJSON   bool
}

// New creates a logger at the given level writing to stdout. JSON output
// is the default; set LOG_JSON=false for plain text.
func New(level Level) *StructuredLogger {
	useJSON := true
	if v := os.Getenv("LOG_JSON"); v == "false" || v == "0" {
		useJSON = false
	}
	return &StructuredLogger{out: os.Stdout, level: level, useJSON: useJSON}
}

// NewWithWriter creates a JSON logger writing to the given writer.
func NewWithWriter(level Level, out io.Writer) *StructuredLogger {
	return &StructuredLogger{out: out, level: level, useJSON: true}
}

func (l *StructuredLogger) clone() *StructuredLogger {
	return &StructuredLogger{
		out:       l.out,
		level:     l.level,
		component: l.component,
		traceID:   l.traceID,
		useJSON:   l.useJSON,
	}
}

// WithTraceID returns a copy of the logger bound to a trace ID.
func (l *StructuredLogger) WithTraceID(traceID string) Logger {
	c := l.clone()
	c.traceID = traceID
	return c
}

// WithComponent returns a copy of the logger bound to a component name.
func (l *StructuredLogger) WithComponent(component string) Logger {
	c := l.clone()
	c.component = component
	return c
}

func (l *StructuredLogger) Debug(msg string, fields ...interface{}) {
	l.log(LevelDebug, msg, "", fields...)
}

func (l *StructuredLogger) Info(msg string, fields ...interface{}) {
	l.log(LevelInfo, msg, "", fields...)
}

func (l *StructuredLogger) Warn(msg string, fields ...interface{}) {
	l.log(LevelWarn, msg, "", fields...)
}

func (l *StructuredLogger) Error(msg string, fields ...interface{}) {
	l.log(LevelError, msg, "", fields...)
}

// Fatal logs the message and exits the process.
func (l *StructuredLogger) Fatal(msg string, fields ...interface{}) {
	l.log(LevelFatal, msg, "", fields...)
	os.Exit(1)
}

func (l *StructuredLogger) DebugContext(ctx context.Context, msg string, fields ...interface{}) {
	l.log(LevelDebug, msg, TraceIDFromContext(ctx), fields...)
}

func (l *StructuredLogger) InfoContext(ctx context.Context, msg string, fields ...interface{}) {
	l.log(LevelInfo, msg, TraceIDFromContext(ctx), fields...)
}

func (l *StructuredLogger) WarnContext(ctx context.Context, msg string, fields ...interface{}) {
	l.log(LevelWarn, msg, TraceIDFromContext(ctx), fields...)
}

func (l *StructuredLogger) ErrorContext(ctx context.Context, msg string, fields ...interface{}) {
	l.log(LevelError, msg, TraceIDFromContext(ctx), fields...)
}

func (l *StructuredLogger) log(level Level, msg, ctxTraceID string, fields ...interface{}) {
	if level < l.level {
		return
	}

	traceID := l.traceID
	if ctxTraceID != "" {
		traceID = ctxTraceID
	}

	caller := ""
	if _, file, line, ok := runtime.Caller(2); ok {
		parts := strings.Split(file, "/")
		caller = fmt.Sprintf("%s:%d", parts[len(parts)-1], line)
	}

	entry := Entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level.String(),
		Message:   msg,
		Component: l.component,
		TraceID:   traceID,
		Caller:    caller,
		Fields:    fieldMap(fields),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.useJSON {
		data, err := json.Marshal(entry)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log marshal failed: %v\n", err)
			return
		}
		fmt.Fprintln(l.out, string(data))
		return
	}
	fmt.Fprintln(l.out, formatText(entry))
}

// fieldMap pairs variadic key/value arguments into a map. A trailing key
// without a value is kept under a positional name rather than dropped.
func fieldMap(fields []interface{}) map[string]interface{} {
	if len(fields) == 0 {
		return nil
	}
	m := make(map[string]interface{}, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		if i+1 < len(fields) {
			m[fmt.Sprintf("%v", fields[i])] = fields[i+1]
		} else {
			m[fmt.Sprintf("field_%d", i)] = fields[i]
		}
	}
	return m
}

func formatText(e Entry) string {
	parts := []string{e.Timestamp, "[" + e.Level + "]"}
	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}
	if e.TraceID != "" {
		id := e.TraceID
		if len(id) > 8 {
			id = id[:8]
		}
		parts = append(parts, "trace:"+id)
	}
	parts = append(parts, e.Message)
	for k, v := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	if e.Caller != "" {
		parts = append(parts, "("+e.Caller+")")
	}
	return strings.Join(parts, " ")
}

// GenerateTraceID returns a new random trace ID.
func GenerateTraceID() string {
	return uuid.New().String()
}

// ContextWithTraceID attaches a trace ID to the context, generating one
// when none is supplied.
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		traceID = GenerateTraceID()
	}
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// TraceIDFromContext returns the trace ID stored in ctx, if any.
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(TraceIDKey).(string); ok {
		return id
	}
	return ""
}

var (
	defaultMu     sync.RWMutex
	defaultLogger Logger = New(LevelInfo)
)

// SetDefault replaces the package-level logger.
func SetDefault(l Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// Default returns the package-level logger.
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// WithComponent returns the package-level logger scoped to a component.
func WithComponent(component string) Logger {
	return Default().WithComponent(component)
}

func Debug(msg string, fields ...interface{}) { Default().Debug(msg, fields...) }
func Info(msg string, fields ...interface{})  { Default().Info(msg, fields...) }
func Warn(msg string, fields ...interface{})  { Default().Warn(msg, fields...) }
func Error(msg string, fields ...interface{}) { Default().Error(msg, fields...) }
