package logger

import (
	"go.uber.org/zap"
)

// New builds the process-wide zap logger. Development mode uses the
// human-readable console encoder; anything else logs JSON.
func New(env string) (*zap.Logger, error) {
	if env == "development" || env == "test" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// NewNop returns a no-op logger for tests that do not assert on log output.
func NewNop() *zap.Logger {
	return zap.NewNop()
}
