package internal

import (
	"log"
	"os"
	"strings"
)

// LogLevel represents different logging verbosity levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

var levelNames = map[LogLevel]string{
	LogLevelError: "ERROR",
	LogLevelWarn:  "WARN",
	LogLevelInfo:  "INFO",
	LogLevelDebug: "DEBUG",
	LogLevelTrace: "TRACE",
}

func (l LogLevel) String() string {
	return levelNames[l]
}

// ParseLogLevel maps a LOG_LEVEL value to a level. Unknown values give INFO.
func ParseLogLevel(s string) LogLevel {
	s = strings.ToUpper(strings.TrimSpace(s))
	for level, name := range levelNames {
		if name == s {
			return level
		}
	}
	return LogLevelInfo
}

// Logger provides leveled logging
type Logger struct {
	level LogLevel
}

// NewLogger creates a new logger with the specified level
func NewLogger(level LogLevel) *Logger {
	return &Logger{level: level}
}

// NewDefaultLogger creates a logger based on LOG_LEVEL environment variable
func NewDefaultLogger() *Logger {
	return &Logger{level: ParseLogLevel(os.Getenv("LOG_LEVEL"))}
}

func (l *Logger) logf(level LogLevel, format string, args ...interface{}) {
	if l.level >= level {
		log.Printf("["+level.String()+"] "+format, args...)
	}
}

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) { l.logf(LogLevelError, format, args...) }

// Warn logs warning messages
func (l *Logger) Warn(format string, args ...interface{}) { l.logf(LogLevelWarn, format, args...) }

// Info logs info messages
func (l *Logger) Info(format string, args ...interface{}) { l.logf(LogLevelInfo, format, args...) }

// Debug logs debug messages
func (l *Logger) Debug(format string, args ...interface{}) { l.logf(LogLevelDebug, format, args...) }

// Trace logs trace messages
func (l *Logger) Trace(format string, args ...interface{}) { l.logf(LogLevelTrace, format, args...) }

// GetLevel returns the current log level
func (l *Logger) GetLevel() LogLevel {
	return l.level
}

// Enabled reports whether messages at level are written
func (l *Logger) Enabled(level LogLevel) bool {
	return l.level >= level
}

// Global logger instance
var DefaultLogger = NewDefaultLogger()
