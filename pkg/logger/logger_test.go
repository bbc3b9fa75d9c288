package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInit_ParsesLevel(t *testing.T) {
	require.NoError(t, Init("WARN"))

	assert.False(t, Logger().Core().Enabled(zapcore.InfoLevel))
	assert.True(t, Logger().Core().Enabled(zapcore.WarnLevel))
}

func TestInit_InvalidLevelFallsBackToInfo(t *testing.T) {
	require.NoError(t, Init("verbose"))

	assert.True(t, Logger().Core().Enabled(zapcore.InfoLevel))
	assert.False(t, Logger().Core().Enabled(zapcore.DebugLevel))
}
