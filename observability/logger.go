// Package observability provides the logging and tracing primitives shared by kamba components.
package observability

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
)

const (
	// ErrorLogField is the key used for error fields in logs
	ErrorLogField string = "error"
)

// Logger is the logging surface every kamba component accepts.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})

	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})

	WithFields(fields map[string]interface{}) Logger
	WithContext(ctx context.Context) Logger
	WithErr(err error) Logger
}

// Level orders log severities for DefaultLogger.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

// ParseLevel accepts debug, info, warn/warning and error, in any case.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// DefaultLogger writes "[k=v ...] [LEVEL] message" lines through the standard log package.
// Fields are sorted by key.
type DefaultLogger struct {
	out    *log.Logger
	level  Level
	fields map[string]interface{}
	err    error
}

// DefaultLoggerOption configures a DefaultLogger.
type DefaultLoggerOption func(*DefaultLogger)

// WithOutput sets where lines are written, with no timestamp prefix.
func WithOutput(w io.Writer) DefaultLoggerOption {
	return func(l *DefaultLogger) {
		l.out = log.New(w, "", 0)
	}
}

// WithLevel drops records below level.
func WithLevel(level Level) DefaultLoggerOption {
	return func(l *DefaultLogger) {
		l.level = level
	}
}

// NewDefaultLogger logs to standard error at info level unless configured otherwise.
func NewDefaultLogger(opts ...DefaultLoggerOption) Logger {
	l := &DefaultLogger{
		out:   log.New(os.Stderr, "", log.LstdFlags),
		level: LevelInfo,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *DefaultLogger) Debugf(format string, args ...interface{}) {
	l.logf(LevelDebug, format, args...)
}
func (l *DefaultLogger) Infof(format string, args ...interface{}) {
	l.logf(LevelInfo, format, args...)
}
func (l *DefaultLogger) Warnf(format string, args ...interface{}) {
	l.logf(LevelWarn, format, args...)
}
func (l *DefaultLogger) Errorf(format string, args ...interface{}) {
	l.logf(LevelError, format, args...)
}

func (l *DefaultLogger) Debug(args ...interface{}) { l.logf(LevelDebug, "%s", fmt.Sprint(args...)) }
func (l *DefaultLogger) Info(args ...interface{})  { l.logf(LevelInfo, "%s", fmt.Sprint(args...)) }
func (l *DefaultLogger) Warn(args ...interface{})  { l.logf(LevelWarn, "%s", fmt.Sprint(args...)) }
func (l *DefaultLogger) Error(args ...interface{}) { l.logf(LevelError, "%s", fmt.Sprint(args...)) }

// WithFields returns a logger carrying the union of the current and the given fields.
func (l *DefaultLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	clone := *l
	clone.fields = merged
	return &clone
}

// WithContext returns l; DefaultLogger reads nothing from the context.
func (l *DefaultLogger) WithContext(ctx context.Context) Logger {
	return l
}

func (l *DefaultLogger) WithErr(err error) Logger {
	clone := *l
	clone.err = err
	return &clone
}

func (l *DefaultLogger) logf(level Level, format string, args ...interface{}) {
	if level < l.level {
		return
	}

	keys := make([]string, 0, len(l.fields))
	for k := range l.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, l.fields[k]))
	}
	if l.err != nil {
		parts = append(parts, fmt.Sprintf("%s=%v", ErrorLogField, l.err))
	}

	var sb strings.Builder
	if len(parts) > 0 {
		sb.WriteString("[" + strings.Join(parts, " ") + "] ")
	}
	sb.WriteString("[" + levelNames[level] + "] ")
	sb.WriteString(fmt.Sprintf(format, args...))
	l.out.Print(sb.String())
}

// NullLogger discards everything. Components default to it.
type NullLogger struct{}

func NewNullLogger() Logger {
	return &NullLogger{}
}

func (l *NullLogger) Debugf(format string, args ...interface{}) {}
func (l *NullLogger) Infof(format string, args ...interface{})  {}
func (l *NullLogger) Warnf(format string, args ...interface{})  {}
func (l *NullLogger) Errorf(format string, args ...interface{}) {}

func (l *NullLogger) Debug(args ...interface{}) {}
func (l *NullLogger) Info(args ...interface{})  {}
func (l *NullLogger) Warn(args ...interface{})  {}
func (l *NullLogger) Error(args ...interface{}) {}

func (l *NullLogger) WithFields(fields map[string]interface{}) Logger { return l }
func (l *NullLogger) WithContext(ctx context.Context) Logger          { return l }
func (l *NullLogger) WithErr(err error) Logger                        { return l }
