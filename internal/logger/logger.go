// Package logger provides the process-wide structured logger for the farm
// service. The level comes from the log.level key in configs/config.yml.
package logger

import (
	"sync"
)

// Log levels accepted in config.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

var (
	globalLogger *Logger
	once         sync.Once
)

// Get returns the singleton logger, initializing it with the provided level
// on the first call. Later calls ignore the level and return the existing
// instance, so the level read from config in main wins.
func Get(level string) *Logger {
	once.Do(func() {
		globalLogger = newZapLogger(level)
	})
	return globalLogger
}
