package engine

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the engine's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger installs a logger for engine diagnostics. Call before any
// engine is created; later calls are ignored.
func SetLogger(l *zap.Logger) {
	if l == nil {
		return
	}
	logger = l
	loggerOnce.Do(func() {})
}
