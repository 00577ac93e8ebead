package app

import (
	"testing"

	"github.com/rs/zerolog"
)

// TestDetermineLogLevel tests the log level precedence logic.
func TestDetermineLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		expected string
	}{
		{
			name:     "default level when no flags set",
			config:   &Config{},
			expected: "info",
		},
		{
			name:     "verbose flag sets debug",
			config:   &Config{Verbose: true},
			expected: "debug",
		},
		{
			name:     "quiet flag sets warn",
			config:   &Config{Quiet: true},
			expected: "warn",
		},
		{
			name:     "quiet wins over verbose",
			config:   &Config{Verbose: true, Quiet: true},
			expected: "warn",
		},
		{
			name:     "explicit log-level overrides verbose",
			config:   &Config{LogLevel: "error", Verbose: true},
			expected: "error",
		},
		{
			name:     "explicit log-level overrides quiet",
			config:   &Config{LogLevel: "trace", Quiet: true},
			expected: "trace",
		},
		{
			name:     "invalid log-level falls back to info",
			config:   &Config{LogLevel: "loud"},
			expected: "info",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := determineLogLevel(tt.config); got != tt.expected {
				t.Errorf("determineLogLevel() = %s, want %s", got, tt.expected)
			}
		})
	}
}

// TestNewLogger verifies the logger honours the resolved level.
func TestNewLogger(t *testing.T) {
	logger := NewLogger(&Config{Verbose: true, LogFormat: "json", LogOutput: "stderr"})
	if logger.GetLevel() != zerolog.DebugLevel {
		t.Errorf("level = %v, want debug", logger.GetLevel())
	}

	logger = NewLogger(&Config{LogLevel: "error", LogFormat: "json", LogOutput: "stderr"})
	if logger.GetLevel() != zerolog.ErrorLevel {
		t.Errorf("level = %v, want error", logger.GetLevel())
	}
}
