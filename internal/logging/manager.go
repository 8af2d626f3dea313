package logging

import (
	"fmt"
	"sync"
)

// LoggerManager hands out one Logger per named component, creating it lazily.
type LoggerManager struct {
	mu      sync.RWMutex
	loggers map[string]*Logger
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// GetLoggerManager returns the process-wide logger manager.
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = &LoggerManager{loggers: make(map[string]*Logger)}
	})
	return globalManager
}

// GetLogger returns the logger for component, creating it on first use.
func (lm *LoggerManager) GetLogger(component string) (*Logger, error) {
	lm.mu.RLock()
	if logger, exists := lm.loggers[component]; exists {
		lm.mu.RUnlock()
		return logger, nil
	}
	lm.mu.RUnlock()

	lm.mu.Lock()
	defer lm.mu.Unlock()

	if logger, exists := lm.loggers[component]; exists {
		return logger, nil
	}

	logger, err := NewLogger(component)
	if logger != nil {
		lm.loggers[component] = logger
	}
	if err != nil {
		return logger, fmt.Errorf("create logger for %s: %w", component, err)
	}
	return logger, nil
}

// MustGetLogger returns the component logger, falling back to a console-only
// logger if file creation failed rather than ever returning nil.
func (lm *LoggerManager) MustGetLogger(component string) *Logger {
	logger, err := lm.GetLogger(component)
	if err != nil && logger == nil {
		return defaultOrDiscard()
	}
	return logger
}

// CloseAll closes every logger's file sink.
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var lastErr error
	for component, logger := range lm.loggers {
		if err := logger.Close(); err != nil {
			lastErr = fmt.Errorf("close logger for %s: %w", component, err)
		}
	}
	lm.loggers = make(map[string]*Logger)
	return lastErr
}

// ListComponents returns the names of all loggers created so far.
func (lm *LoggerManager) ListComponents() []string {
	lm.mu.RLock()
	defer lm.mu.RUnlock()

	components := make([]string, 0, len(lm.loggers))
	for component := range lm.loggers {
		components = append(components, component)
	}
	return components
}

// SetLogLevel overrides console/file levels for an existing component logger.
func (lm *LoggerManager) SetLogLevel(component string, consoleLevel, fileLevel LogLevel) error {
	lm.mu.RLock()
	logger, exists := lm.loggers[component]
	lm.mu.RUnlock()

	if !exists {
		return fmt.Errorf("logger for component %s not found", component)
	}
	logger.SetLevels(consoleLevel, fileLevel)
	return nil
}

// GetComponentLogger is the common entry point used across the codebase.
func GetComponentLogger(component string) *Logger {
	return GetLoggerManager().MustGetLogger(component)
}

func GetServerLogger() *Logger    { return GetComponentLogger("server") }
func GetClientLogger() *Logger    { return GetComponentLogger("client") }
func GetTransportLogger() *Logger { return GetComponentLogger("transport") }
func GetBroadcastLogger() *Logger { return GetComponentLogger("broadcast") }
func GetRollbackLogger() *Logger  { return GetComponentLogger("rollback") }
