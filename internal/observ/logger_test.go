package observ

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerLevelFallback(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		level   string
		debugOn bool
	}{
		{"development unset level defaults to debug", "development", "", true},
		{"development garbage level defaults to debug", "development", "loud", true},
		{"production unset level defaults to info", "production", "", false},
		{"production garbage level defaults to info", "production", "loud", false},
		{"explicit level wins in production", "production", "debug", true},
		{"explicit level wins in development", "development", "error", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.env, tt.level)
			require.NoError(t, err)
			defer logger.Sync()

			assert.Equal(t, tt.debugOn, logger.Core().Enabled(zapcore.DebugLevel))
		})
	}
}
