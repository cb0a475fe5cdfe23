package marisa

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"maps"
	"os"
	"sync"
	"time"

	"github.com/CVDpl/go-marisa/internal/common"
)

// Logger receives structured events from a Trie. Fields are alternating
// keys and values.
type Logger = common.Logger

// LogLevel is the minimum severity a DefaultLogger emits.
type LogLevel = common.LogLevel

const (
	LogLevelDebug = common.LogLevelDebug
	LogLevelInfo  = common.LogLevelInfo
	LogLevelWarn  = common.LogLevelWarn
	LogLevelError = common.LogLevelError
)

// DefaultLogger writes one JSON object per line.
type DefaultLogger struct {
	mu     *sync.Mutex
	level  LogLevel
	logger *log.Logger
	fields map[string]interface{}
}

// NewDefaultLogger returns a logger that writes INFO and above to stderr.
func NewDefaultLogger() Logger {
	return NewDefaultLoggerWithLevel(LogLevelInfo)
}

// NewDefaultLoggerWithLevel returns a stderr logger with the given level.
func NewDefaultLoggerWithLevel(level LogLevel) Logger {
	return NewWriterLogger(os.Stderr, level)
}

// NewWriterLogger returns a logger that writes to w.
func NewWriterLogger(w io.Writer, level LogLevel) *DefaultLogger {
	return &DefaultLogger{
		mu:     &sync.Mutex{},
		level:  level,
		logger: log.New(w, "", 0),
		fields: make(map[string]interface{}),
	}
}

func (l *DefaultLogger) Debug(msg string, fields ...interface{}) {
	l.log(LogLevelDebug, msg, fields...)
}

func (l *DefaultLogger) Info(msg string, fields ...interface{}) {
	l.log(LogLevelInfo, msg, fields...)
}

func (l *DefaultLogger) Warn(msg string, fields ...interface{}) {
	l.log(LogLevelWarn, msg, fields...)
}

func (l *DefaultLogger) Error(msg string, fields ...interface{}) {
	l.log(LogLevelError, msg, fields...)
}

func (l *DefaultLogger) log(level LogLevel, msg string, fields ...interface{}) {
	if level < l.level {
		return
	}
	entry := map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"level":     level.String(),
		"message":   msg,
	}
	for i := 0; i+1 < len(fields); i += 2 {
		if key, ok := fields[i].(string); ok {
			entry[key] = fields[i+1]
		}
	}
	for k, v := range l.fields {
		if _, exists := entry[k]; !exists {
			entry[k] = v
		}
	}

	data, err := json.Marshal(entry)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.logger.Printf(`{"level":"ERROR","message":"failed to marshal log entry","error":%q}`, err.Error())
		return
	}
	l.logger.Println(string(data))
}

// WithFields returns a logger that adds fields to every record. It shares
// the output and its lock with l.
func (l *DefaultLogger) WithFields(fields map[string]interface{}) Logger {
	return &DefaultLogger{
		mu:     l.mu,
		level:  l.level,
		logger: l.logger,
		fields: mergeMaps(l.fields, fields),
	}
}

// NullLogger discards everything.
type NullLogger struct{}

// NewNullLogger returns a logger that discards all messages.
func NewNullLogger() Logger { return NullLogger{} }

func (NullLogger) Debug(string, ...interface{}) {}
func (NullLogger) Info(string, ...interface{})  {}
func (NullLogger) Warn(string, ...interface{})  {}
func (NullLogger) Error(string, ...interface{}) {}

// LoggerWithContext prepends a fixed set of fields to every record.
type LoggerWithContext struct {
	logger Logger
	fields map[string]interface{}
}

// WithContext wraps logger so that every record carries fields. Wrapping a
// LoggerWithContext merges the field sets instead of nesting.
func WithContext(logger Logger, fields map[string]interface{}) Logger {
	if logger == nil {
		logger = NewDefaultLogger()
	}
	if lwc, ok := logger.(*LoggerWithContext); ok {
		return &LoggerWithContext{logger: lwc.logger, fields: mergeMaps(lwc.fields, fields)}
	}
	return &LoggerWithContext{logger: logger, fields: mergeMaps(nil, fields)}
}

func mergeMaps(base, extra map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(base)+len(extra))
	maps.Copy(out, base)
	maps.Copy(out, extra)
	return out
}

func (l *LoggerWithContext) Debug(msg string, fields ...interface{}) {
	l.logger.Debug(msg, l.mergeFields(fields)...)
}

func (l *LoggerWithContext) Info(msg string, fields ...interface{}) {
	l.logger.Info(msg, l.mergeFields(fields)...)
}

func (l *LoggerWithContext) Warn(msg string, fields ...interface{}) {
	l.logger.Warn(msg, l.mergeFields(fields)...)
}

func (l *LoggerWithContext) Error(msg string, fields ...interface{}) {
	l.logger.Error(msg, l.mergeFields(fields)...)
}

func (l *LoggerWithContext) mergeFields(fields []interface{}) []interface{} {
	result := make([]interface{}, 0, len(fields)+len(l.fields)*2)
	for k, v := range l.fields {
		result = append(result, k, v)
	}
	return append(result, fields...)
}

// LogError logs err under the "error" field.
func LogError(logger Logger, msg string, err error, fields ...interface{}) {
	logger.Error(msg, append([]interface{}{"error", err.Error()}, fields...)...)
}

// slowOperation is the latency above which LogLatency warns.
const slowOperation = time.Second

// LogLatency logs how long operation took since start, as a warning when it
// was slow and at debug level otherwise.
func LogLatency(logger Logger, operation string, start time.Time, fields ...interface{}) {
	d := time.Since(start)
	all := append([]interface{}{
		"operation", operation,
		"duration_ms", d.Milliseconds(),
		"duration_ns", d.Nanoseconds(),
	}, fields...)
	if d > slowOperation {
		logger.Warn(fmt.Sprintf("slow operation: %s", operation), all...)
	} else {
		logger.Debug(fmt.Sprintf("operation completed: %s", operation), all...)
	}
}
