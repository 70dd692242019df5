package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Run("production defaults to info", func(t *testing.T) {
		log, err := New("production", "")
		require.NoError(t, err)
		defer log.Sync()

		assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
		assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("explicit level", func(t *testing.T) {
		log, err := New("development", "debug")
		require.NoError(t, err)
		defer log.Sync()

		assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("warn silences info", func(t *testing.T) {
		log, err := New("production", "warn")
		require.NoError(t, err)
		defer log.Sync()

		assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, log.Core().Enabled(zapcore.WarnLevel))
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := New("production", "chatty")
		assert.Error(t, err)
	})
}
