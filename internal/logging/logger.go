// Package logging provides component-scoped console+file loggers, modeled
// after the teacher repository's LoggerManager but with a single internally
// consistent Logger type instead of two half-defined ones.
package logging

import (
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// LogLevel is a logging verbosity level, ordered from most to least verbose.
type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

// String returns the level's name.
func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger writes to a console sink and an optional file sink, each with its
// own minimum level.
type Logger struct {
	component       string
	consoleLogger   *log.Logger
	fileLogger      *log.Logger
	file            *os.File
	minConsoleLevel LogLevel
	minFileLevel    LogLevel
}

// NewLogger creates a logger for component, writing INFO+ to stdout and
// TRACE+ to a timestamped file under logs/. If the log directory or file
// cannot be created, the returned logger still works with console-only
// output and a non-nil error is returned for the caller to log once.
func NewLogger(component string) (*Logger, error) {
	l := &Logger{
		component:       component,
		consoleLogger:   log.New(os.Stdout, "", log.LstdFlags),
		minConsoleLevel: INFO,
		minFileLevel:    TRACE,
	}

	if err := os.MkdirAll("logs", 0755); err != nil {
		return l, fmt.Errorf("create logs dir: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := filepath.Join("logs", fmt.Sprintf("%s_%s.log", component, timestamp))
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return l, fmt.Errorf("open log file: %w", err)
	}

	l.file = file
	l.fileLogger = log.New(file, "", log.LstdFlags)
	return l, nil
}

// Close flushes and closes the file sink, if any.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	message := fmt.Sprintf("[%s] [%s] %s", level.String(), l.component, fmt.Sprintf(format, args...))
	if l.fileLogger != nil && level >= l.minFileLevel {
		l.fileLogger.Println(message)
	}
	if level >= l.minConsoleLevel {
		l.consoleLogger.Println(message)
	}
}

func (l *Logger) Trace(format string, args ...interface{}) { l.log(TRACE, format, args...) }
func (l *Logger) Debug(format string, args ...interface{}) { l.log(DEBUG, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.log(INFO, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.log(WARN, format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.log(ERROR, format, args...) }

// SetLevels overrides the console and file minimum levels.
func (l *Logger) SetLevels(console, file LogLevel) {
	l.minConsoleLevel = console
	l.minFileLevel = file
}

// --- package-level default logger convenience API, used by code that does
// not need a dedicated component logger (e.g. broadcast, eventbus) ---

var defaultLogger *Logger

// InitDefaultLogger initializes the package-level default logger used by the
// Trace/Debug/Info/Warn/Error package funcs.
func InitDefaultLogger(component string) error {
	l, err := NewLogger(component)
	defaultLogger = l
	return err
}

// CloseDefaultLogger closes the package-level default logger, if set.
func CloseDefaultLogger() {
	if defaultLogger != nil {
		defaultLogger.Close()
	}
}

func Trace(format string, args ...interface{}) { defaultOrDiscard().Trace(format, args...) }
func Debug(format string, args ...interface{}) { defaultOrDiscard().Debug(format, args...) }
func Info(format string, args ...interface{})  { defaultOrDiscard().Info(format, args...) }
func Warn(format string, args ...interface{})  { defaultOrDiscard().Warn(format, args...) }
func Error(format string, args ...interface{}) { defaultOrDiscard().Error(format, args...) }

func defaultOrDiscard() *Logger {
	if defaultLogger != nil {
		return defaultLogger
	}
	// Lazily create a console-only logger so early/test code that never
	// calls InitDefaultLogger still prints somewhere instead of panicking.
	defaultLogger = &Logger{
		component:       "default",
		consoleLogger:   log.New(os.Stdout, "", log.LstdFlags),
		minConsoleLevel: INFO,
		minFileLevel:    ERROR,
	}
	return defaultLogger
}

// HexDump renders up to 256 bytes of data as a hex dump, for protocol error
// diagnostics.
func HexDump(data []byte) string {
	if len(data) == 0 {
		return "no data"
	}
	size := len(data)
	if size > 256 {
		size = 256
	}
	return hex.Dump(data[:size])
}
