package internal

import (
	"io"
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
)

// Logger provides leveled logging on top of the standard logger
type Logger struct {
	level LogLevel
}

// NewLogger creates a new logger with the specified level
func NewLogger(level LogLevel) *Logger {
	return &Logger{level: level}
}

// ParseLogLevel converts a level name, defaulting to warn
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LogLevelError
	case "INFO":
		return LogLevelInfo
	case "DEBUG":
		return LogLevelDebug
	default:
		return LogLevelWarn
	}
}

// NewDefaultLogger creates a logger based on the GOFIT_LOG_LEVEL environment variable
func NewDefaultLogger() *Logger {
	return NewLogger(ParseLogLevel(os.Getenv("GOFIT_LOG_LEVEL")))
}

// Configure routes the standard logger to w when level is info or above, and discards it otherwise.
// Component logs such as [FittingEngine] and [DataReader] are info-level.
func Configure(w io.Writer, level LogLevel) *Logger {
	if level >= LogLevelInfo {
		log.SetOutput(w)
	} else {
		log.SetOutput(io.Discard)
	}
	return NewLogger(level)
}

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	if l.level >= LogLevelError {
		l.emit("[ERROR] "+format, args...)
	}
}

// Warn logs warning messages
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.level >= LogLevelWarn {
		l.emit("[WARN] "+format, args...)
	}
}

// Info logs info messages
func (l *Logger) Info(format string, args ...interface{}) {
	if l.level >= LogLevelInfo {
		l.emit("[INFO] "+format, args...)
	}
}

// Debug logs debug messages
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.level >= LogLevelDebug {
		l.emit("[DEBUG] "+format, args...)
	}
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() LogLevel {
	return l.level
}

// warnings and errors are shown even when component logs are discarded
func (l *Logger) emit(format string, args ...interface{}) {
	if l.level < LogLevelInfo {
		log.New(os.Stderr, "", log.LstdFlags).Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}
