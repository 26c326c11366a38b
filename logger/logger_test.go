package logger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/warp/attendance-engine/config"
	"github.com/warp/attendance-engine/logger"
)

func TestNew_Levels(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		l, err := logger.New(config.Log{Level: "warn", Format: format})
		require.NoError(t, err, format)

		assert.False(t, l.Core().Enabled(zapcore.InfoLevel), format)
		assert.True(t, l.Core().Enabled(zapcore.WarnLevel), format)
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := logger.New(config.Log{Level: "loud", Format: "json"})
	assert.Error(t, err)
}
