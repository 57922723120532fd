package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"unknown", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.level))
		})
	}
}

func TestNew_SetsGlobalLevel(t *testing.T) {
	log := New(&config.Config{Env: "test", LogLevel: "warn", LogFormat: "json"})
	assert.NotNil(t, log)
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	New(&config.Config{Env: "test", LogLevel: "info", LogFormat: "json"})
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestWithFields(t *testing.T) {
	log := New(&config.Config{Env: "test", LogLevel: "info", LogFormat: "json"})

	child := log.WithFields(map[string]interface{}{
		"symbol": "^GSPC",
		"bars":   500,
	})
	assert.NotNil(t, child)
	assert.NotSame(t, log, child)
}
