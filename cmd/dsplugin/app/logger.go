package app

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/agentstation/dsplugin/pkg/logging"
)

// NewLogger creates a configured logger based on the application configuration.
// Log level precedence (highest to lowest):
//  1. --log-level flag or LOG_LEVEL (explicit always wins)
//  2. -q/--quiet flag (shortcut for warn, wins over verbose)
//  3. -v/--verbose flag (shortcut for debug)
//  4. Default (info)
func NewLogger(config *Config) zerolog.Logger {
	level := determineLogLevel(config)

	// LOG_TIME_FORMAT, LOG_FIELDS and NO_COLOR come from the defaults.
	logConfig := logging.DefaultConfig()
	logConfig.Level = level
	if config.LogFormat != "" {
		logConfig.Format = config.LogFormat
	}
	if config.LogOutput != "" {
		logConfig.Output = config.LogOutput
	}
	logConfig.NoColor = logConfig.NoColor || config.NoColor
	logConfig.AddCaller = logConfig.AddCaller || level == "debug" || level == "trace"

	logger := logging.NewLoggerFromConfig(logConfig)
	logging.SetDefault(logger)
	return logger
}

// determineLogLevel determines the log level using clear precedence rules.
func determineLogLevel(config *Config) string {
	if config.LogLevel != "" {
		validated := validateLogLevel(config.LogLevel)
		if validated != config.LogLevel {
			fmt.Fprintf(os.Stderr, "Warning: invalid log level %q, using %q\n", config.LogLevel, validated)
		}
		return validated
	}

	if config.Verbose && config.Quiet {
		fmt.Fprintf(os.Stderr, "Warning: both --verbose and --quiet specified, using --quiet\n")
		return "warn"
	}
	if config.Verbose {
		return "debug"
	}
	if config.Quiet {
		return "warn"
	}
	return "info"
}

// validateLogLevel returns level if it is valid and "info" otherwise.
func validateLogLevel(level string) string {
	switch level {
	case "trace", "debug", "info", "warn", "error":
		return level
	default:
		return "info"
	}
}
