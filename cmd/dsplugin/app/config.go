package app

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/dsplugin/internal/plugin"
	"github.com/agentstation/dsplugin/pkg/constants"
	"github.com/agentstation/dsplugin/pkg/errors"
)

// EnvPrefix prefixes every environment variable read into the config,
// e.g. DSPLUGIN_STREAM_INTERVAL.
const EnvPrefix = "DSPLUGIN"

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Plugin configuration
	Plugin         string
	StreamInterval time.Duration
	ChunkInterval  time.Duration
	CacheTTL       time.Duration

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (~/.dsplugin.yaml or ./.dsplugin.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	return LoadConfigFile("")
}

// LoadConfigFile is LoadConfig with an explicit config file. Unlike the
// default search locations, an explicit file must exist.
func LoadConfigFile(path string) (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", "reading "+path, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".dsplugin")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !stderrors.As(err, &notFound) {
				return nil, errors.NewConfigError("config", "reading config file", err)
			}
		}
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no-color"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		Plugin:         v.GetString("plugin"),
		StreamInterval: v.GetDuration("stream_interval"),
		ChunkInterval:  v.GetDuration("chunk_interval"),
		CacheTTL:       v.GetDuration("cache_ttl"),

		// LOG_* variables are unprefixed.
		LogLevel:  os.Getenv("LOG_LEVEL"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", v.GetString("log_format")),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", v.GetString("log_output")),
	}
	if config.LogLevel == "" {
		config.LogLevel = v.GetString("log_level")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("plugin", plugin.KindFull)
	v.SetDefault("stream_interval", constants.DefaultStreamInterval)
	v.SetDefault("chunk_interval", constants.DefaultResourceChunkInterval)
	v.SetDefault("cache_ttl", constants.QueryCacheTTL)
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")
}

// Validate checks the plugin settings.
func (c *Config) Validate() error {
	switch c.Plugin {
	case plugin.KindFull, plugin.KindSingle:
	default:
		return errors.NewConfigError("plugin", fmt.Sprintf("unknown plugin %q (want %s or %s)", c.Plugin, plugin.KindFull, plugin.KindSingle), nil)
	}
	for name, d := range map[string]time.Duration{
		"stream_interval": c.StreamInterval,
		"chunk_interval":  c.ChunkInterval,
		"cache_ttl":       c.CacheTTL,
	} {
		if d < 0 {
			return errors.NewConfigError("plugin", name+" must not be negative", nil)
		}
	}
	return nil
}

// PluginOptions returns the plugin options the configuration describes.
func (c *Config) PluginOptions() []plugin.Option {
	return []plugin.Option{
		plugin.WithStreamInterval(c.StreamInterval),
		plugin.WithChunkInterval(c.ChunkInterval),
		plugin.WithCacheTTL(c.CacheTTL),
	}
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel, pluginKind string) {
	c.Verbose = c.Verbose || verbose
	c.Quiet = c.Quiet || quiet
	c.NoColor = c.NoColor || noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	if pluginKind != "" {
		c.Plugin = pluginKind
	}
}

// loadEnvFiles loads environment variables from .env files.
func loadEnvFiles() {
	// .env.local does not override variables set by .env or the environment.
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
