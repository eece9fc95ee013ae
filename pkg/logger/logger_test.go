package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInit(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		logFile string
		want    zapcore.Level
	}{
		{name: "debug level, no file", level: "debug", want: zapcore.DebugLevel},
		{name: "info level, no file", level: "info", want: zapcore.InfoLevel},
		{name: "warn level, no file", level: "warn", want: zapcore.WarnLevel},
		{name: "error level, no file", level: "error", want: zapcore.ErrorLevel},
		{name: "unknown level falls back to info", level: "loud", want: zapcore.InfoLevel},
		{name: "with log file", level: "info", logFile: filepath.Join(t.TempDir(), "digest.log"), want: zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Log = nil

			require.NoError(t, Init(tt.level, tt.logFile))
			require.NotNil(t, Log)

			assert.True(t, Log.Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, Log.Core().Enabled(tt.want-1))
			}

			if tt.logFile != "" {
				Log.Info("file sink check")
				_ = Sync()
				_, err := os.Stat(tt.logFile)
				assert.NoError(t, err)
			}
		})
	}
}

func TestL_WithoutInit(t *testing.T) {
	Log = nil

	l := L()
	require.NotNil(t, l)
	l.Info("dropped")
}

func TestSync_NilLogger(t *testing.T) {
	Log = nil
	assert.NoError(t, Sync())
}
