package observ

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger. env selects the zap preset; level
// overrides its threshold when it parses.
//
// When level is empty or garbage, development falls back to debug so the
// window merge and fallback-timer diagnostics (all logged at Debug) show up
// without extra configuration, while production stays at info.
func NewLogger(env, level string) (*zap.Logger, error) {
	var config zap.Config
	fallback := zapcore.DebugLevel

	if env == "production" {
		config = zap.NewProductionConfig()
		fallback = zapcore.InfoLevel
	} else {
		config = zap.NewDevelopmentConfig()
	}

	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		zapLevel = fallback
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)

	return config.Build()
}
