package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		enabled zapcore.Level
		muted   zapcore.Level
	}{
		{"development", Options{Development: true}, zapcore.DebugLevel, zapcore.DebugLevel - 1},
		{"production", Options{}, zapcore.InfoLevel, zapcore.DebugLevel},
		{"explicit level", Options{Level: "WARN"}, zapcore.WarnLevel, zapcore.InfoLevel},
		{"json in development", Options{Development: true, Format: "json", Level: "error"}, zapcore.ErrorLevel, zapcore.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.opts)
			require.NoError(t, err)
			require.NotNil(t, log)

			assert.True(t, log.Core().Enabled(tt.enabled))
			assert.False(t, log.Core().Enabled(tt.muted))
		})
	}
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)

	_, err = New(Options{Format: "xml"})
	assert.Error(t, err)
}

func TestMust(t *testing.T) {
	assert.NotNil(t, Must(Options{Development: true}))
	assert.Panics(t, func() { Must(Options{Level: "loud"}) })
}
