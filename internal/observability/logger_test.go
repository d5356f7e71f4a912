package observability

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"trace", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"bogus", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), "level %q", tt.in)
	}
}

func TestNewServerLoggerQuiet(t *testing.T) {
	logger := NewServerLogger(Options{Quiet: true})
	require.NotNil(t, logger)
	assert.False(t, logger.Core().Enabled(zapcore.FatalLevel))
}

func TestNewServerLoggerLevelGate(t *testing.T) {
	logger := NewServerLogger(Options{Level: "warn"})
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestNewServerLoggerFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	logger := NewServerLogger(Options{Level: "info", File: path, MaxSizeMB: 1})

	logger.Info("request served", zap.Int("status", 200))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "request served")
}

func TestNewCLILogger(t *testing.T) {
	assert.False(t, NewCLILogger(false).Core().Enabled(zapcore.DebugLevel))
	assert.True(t, NewCLILogger(true).Core().Enabled(zapcore.DebugLevel))
}
