// Package logging provides the structured logger used throughout the node
// runtime: worker and processor lifecycle errors, transport I/O errors, and
// graceful-stop timeouts log through it. Router registry changes and secure
// channel handshake state changes are not logged.
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"
)

// Logger is a structured, leveled logger. Implementations may be swapped
// freely; nothing in the node runtime depends on the default one beyond
// this interface.
type Logger interface {
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})

	// WithFields returns a derived logger that includes the given
	// key-value pairs on every subsequent entry.
	WithFields(fields map[string]interface{}) Logger

	// WithContext returns a derived logger tagged with whatever worker
	// address is attached to ctx, if any.
	WithContext(ctx context.Context) Logger
}

// Config controls a default logger's output mode. Level is stored with the
// logger but does not filter output: every entry is written whatever its
// level.
type Config struct {
	JSONOutput bool
	Level      string
}

type defaultLogger struct {
	errorLogger *log.Logger
	warnLogger  *log.Logger
	infoLogger  *log.Logger
	debugLogger *log.Logger
	config      Config
	fields      map[string]interface{}
}

// New creates a plain-text default logger.
func New() Logger {
	return NewWithConfig(Config{JSONOutput: false, Level: "DEBUG"})
}

// NewJSON creates a default logger with JSON-structured output.
func NewJSON() Logger {
	return NewWithConfig(Config{JSONOutput: true, Level: "DEBUG"})
}

// NewWithConfig creates a default logger with explicit configuration.
func NewWithConfig(config Config) Logger {
	return &defaultLogger{
		errorLogger: log.New(os.Stderr, "[ERROR] ", log.LstdFlags|log.Lshortfile),
		warnLogger:  log.New(os.Stderr, "[WARN] ", log.LstdFlags|log.Lshortfile),
		infoLogger:  log.New(os.Stdout, "[INFO] ", log.LstdFlags|log.Lshortfile),
		debugLogger: log.New(os.Stdout, "[DEBUG] ", log.LstdFlags|log.Lshortfile),
		config:      config,
		fields:      make(map[string]interface{}),
	}
}

type logEntry struct {
	Timestamp string                 `json:"timestamp,omitempty"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

func (l *defaultLogger) log(level string, logger *log.Logger, message string) {
	if l.config.JSONOutput {
		entry := logEntry{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Level:     level,
			Message:   message,
		}
		if len(l.fields) > 0 {
			entry.Fields = l.fields
		}
		if data, err := json.Marshal(entry); err == nil {
			logger.Output(3, string(data))
			return
		}
		logger.Output(3, fmt.Sprintf("[%s] %s %v", level, message, l.fields))
		return
	}
	if len(l.fields) > 0 {
		logger.Output(3, fmt.Sprintf("%s %v", message, l.fields))
		return
	}
	logger.Output(3, message)
}

func (l *defaultLogger) Error(args ...interface{}) { l.log("ERROR", l.errorLogger, fmt.Sprint(args...)) }
func (l *defaultLogger) Errorf(format string, args ...interface{}) {
	l.log("ERROR", l.errorLogger, fmt.Sprintf(format, args...))
}
func (l *defaultLogger) Warn(args ...interface{}) { l.log("WARN", l.warnLogger, fmt.Sprint(args...)) }
func (l *defaultLogger) Warnf(format string, args ...interface{}) {
	l.log("WARN", l.warnLogger, fmt.Sprintf(format, args...))
}
func (l *defaultLogger) Info(args ...interface{}) { l.log("INFO", l.infoLogger, fmt.Sprint(args...)) }
func (l *defaultLogger) Infof(format string, args ...interface{}) {
	l.log("INFO", l.infoLogger, fmt.Sprintf(format, args...))
}
func (l *defaultLogger) Debug(args ...interface{}) {
	l.log("DEBUG", l.debugLogger, fmt.Sprint(args...))
}
func (l *defaultLogger) Debugf(format string, args ...interface{}) {
	l.log("DEBUG", l.debugLogger, fmt.Sprintf(format, args...))
}

func (l *defaultLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &defaultLogger{
		errorLogger: l.errorLogger,
		warnLogger:  l.warnLogger,
		infoLogger:  l.infoLogger,
		debugLogger: l.debugLogger,
		config:      l.config,
		fields:      merged,
	}
}

func (l *defaultLogger) WithContext(ctx context.Context) Logger {
	fields := make(map[string]interface{}, len(l.fields)+1)
	for k, v := range l.fields {
		fields[k] = v
	}
	if a, ok := AddressFromContext(ctx); ok {
		fields["address"] = a
	}
	return &defaultLogger{
		errorLogger: l.errorLogger,
		warnLogger:  l.warnLogger,
		infoLogger:  l.infoLogger,
		debugLogger: l.debugLogger,
		config:      l.config,
		fields:      fields,
	}
}

type contextKey string

const addressContextKey contextKey = "logging.address"

// ContextWithAddress returns a context carrying addr's string form, so a
// logger derived via WithContext tags every entry with it.
func ContextWithAddress(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, addressContextKey, addr)
}

// AddressFromContext retrieves the address string attached by
// ContextWithAddress, if any.
func AddressFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(addressContextKey).(string)
	return v, ok
}
