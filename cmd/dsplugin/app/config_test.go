package app

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agentstation/dsplugin/internal/plugin"
	"github.com/agentstation/dsplugin/pkg/constants"
	"github.com/agentstation/dsplugin/pkg/errors"
)

// TestLoadConfig verifies basic config loading.
func TestLoadConfig(t *testing.T) {
	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if config.Plugin != plugin.KindFull {
		t.Errorf("Plugin = %q, want %q", config.Plugin, plugin.KindFull)
	}
	if config.StreamInterval != constants.DefaultStreamInterval {
		t.Errorf("StreamInterval = %v, want %v", config.StreamInterval, constants.DefaultStreamInterval)
	}
	if config.CacheTTL != constants.QueryCacheTTL {
		t.Errorf("CacheTTL = %v, want %v", config.CacheTTL, constants.QueryCacheTTL)
	}
	// LogLevel stays empty so -v and -q can take effect
	if config.LogFormat == "" {
		t.Error("LogFormat not set to default")
	}
}

// TestConfig_EnvironmentVariables verifies environment variable loading.
func TestConfig_EnvironmentVariables(t *testing.T) {
	t.Setenv("DSPLUGIN_PLUGIN", "single")
	t.Setenv("DSPLUGIN_STREAM_INTERVAL", "250ms")
	t.Setenv("DSPLUGIN_CHUNK_INTERVAL", "0s")
	t.Setenv("DSPLUGIN_VERBOSE", "true")
	t.Setenv("DSPLUGIN_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "error")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if config.Plugin != plugin.KindSingle {
		t.Errorf("Plugin = %q, want single", config.Plugin)
	}
	if config.StreamInterval != 250*time.Millisecond {
		t.Errorf("StreamInterval = %v, want 250ms", config.StreamInterval)
	}
	if config.ChunkInterval != 0 {
		t.Errorf("ChunkInterval = %v, want 0", config.ChunkInterval)
	}
	if !config.Verbose {
		t.Error("DSPLUGIN_VERBOSE not loaded")
	}
	if config.Format != "json" {
		t.Errorf("Format = %q, want json", config.Format)
	}
	if config.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want error", config.LogLevel)
	}
}

// TestConfig_InvalidEnvironment verifies validation of loaded values.
func TestConfig_InvalidEnvironment(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown plugin", "DSPLUGIN_PLUGIN", "multi"},
		{"negative interval", "DSPLUGIN_STREAM_INTERVAL", "-1s"},
		{"negative ttl", "DSPLUGIN_CACHE_TTL", "-5m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadConfig()
			var cfgErr *errors.ConfigError
			if !stderrors.As(err, &cfgErr) {
				t.Fatalf("LoadConfig() error = %v, want ConfigError", err)
			}
		})
	}
}

// TestLoadConfigFile verifies explicit config files.
func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dsplugin.yaml")
	content := "plugin: single\nstream_interval: 2s\nlog_format: json\n"
	if err := os.WriteFile(path, []byte(content), constants.FilePermissions); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile() failed: %v", err)
	}
	if config.Plugin != plugin.KindSingle {
		t.Errorf("Plugin = %q, want single", config.Plugin)
	}
	if config.StreamInterval != 2*time.Second {
		t.Errorf("StreamInterval = %v, want 2s", config.StreamInterval)
	}
	if config.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want json", config.LogFormat)
	}
	if config.ConfigFile != path {
		t.Errorf("ConfigFile = %q, want %q", config.ConfigFile, path)
	}

	if _, err := LoadConfigFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("LoadConfigFile() with missing file should fail")
	}
}

// TestConfig_UpdateFromFlags verifies flag precedence.
func TestConfig_UpdateFromFlags(t *testing.T) {
	config := &Config{Plugin: plugin.KindFull, Format: "table", LogLevel: "info"}

	config.UpdateFromFlags(true, false, true, "", "", "")
	if !config.Verbose || !config.NoColor {
		t.Error("boolean flags not applied")
	}
	if config.Format != "table" || config.LogLevel != "info" || config.Plugin != plugin.KindFull {
		t.Error("empty flags must not override config values")
	}

	config.UpdateFromFlags(false, false, false, "json", "debug", plugin.KindSingle)
	if !config.Verbose {
		t.Error("unset boolean flag must not clear config value")
	}
	if config.Format != "json" || config.LogLevel != "debug" || config.Plugin != plugin.KindSingle {
		t.Errorf("flags not applied: %+v", config)
	}
}

// TestConfig_PluginOptions verifies that options build a plugin.
func TestConfig_PluginOptions(t *testing.T) {
	config := &Config{Plugin: plugin.KindFull, StreamInterval: time.Millisecond}
	if _, err := plugin.New(config.PluginOptions()...); err != nil {
		t.Fatalf("plugin.New() failed: %v", err)
	}
}
