package logging_test

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/dsplugin/pkg/logging"
)

func TestConfigFunctions(t *testing.T) {
	originalLogger := *logging.Default()
	originalLevel := zerolog.GlobalLevel()
	defer func() {
		logging.SetDefault(originalLogger)
		zerolog.SetGlobalLevel(originalLevel)
	}()

	t.Run("DefaultConfig returns sensible defaults", func(t *testing.T) {
		cfg := logging.DefaultConfig()
		assert.Equal(t, "info", cfg.Level)
		assert.Equal(t, "auto", cfg.Format)
		assert.Equal(t, "stderr", cfg.Output)
		assert.False(t, cfg.AddCaller)
	})

	t.Run("DefaultConfig reads LOG_FIELDS and LOG_TIME_FORMAT", func(t *testing.T) {
		t.Setenv("LOG_FIELDS", "service=dsplugin, env = test,broken")
		t.Setenv("LOG_TIME_FORMAT", "rfc3339")
		cfg := logging.DefaultConfig()
		assert.Equal(t, map[string]any{"service": "dsplugin", "env": "test"}, cfg.Fields)
		assert.Equal(t, "rfc3339", cfg.TimeFormat)
	})

	t.Run("NewLoggerFromConfig writes json to file", func(t *testing.T) {
		path := t.TempDir() + "/plugin.log"
		logger := logging.NewLoggerFromConfig(&logging.Config{
			Level:  "debug",
			Format: "json",
			Output: path,
			Fields: map[string]any{"plugin": "dsplugin"},
		})
		logger.Info().Msg("test message")

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "test message")
		assert.Contains(t, string(content), `"plugin":"dsplugin"`)
	})

	t.Run("SetDefault filters below level", func(t *testing.T) {
		prev := *logging.Default()
		t.Cleanup(func() { logging.SetDefault(prev) })
		path := t.TempDir() + "/plugin.log"
		logging.SetDefault(logging.NewLoggerFromConfig(&logging.Config{Level: "warn", Format: "json", Output: path}))

		logging.Debug().Msg("debug message")
		logging.Info().Msg("info message")
		logging.Warn().Msg("warn message")
		logging.Error().Msg("error message")

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		output := string(content)
		assert.NotContains(t, output, "debug message")
		assert.NotContains(t, output, "info message")
		assert.Contains(t, output, "warn message")
		assert.Contains(t, output, "error message")
	})

	t.Run("auto format on a file is json", func(t *testing.T) {
		path := t.TempDir() + "/plugin.log"
		logger := logging.NewLoggerFromConfig(&logging.Config{Level: "info", Format: "auto", Output: path})
		logger.Info().Msg("auto test")

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), `"message":"auto test"`)
	})

	t.Run("console format", func(t *testing.T) {
		path := t.TempDir() + "/plugin.log"
		logger := logging.NewLoggerFromConfig(&logging.Config{Level: "info", Format: "console", Output: path, NoColor: true})
		logger.Info().Str("key", "value").Msg("console test")

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "console test")
		assert.Contains(t, string(content), "INF")
	})
}

func TestContextFunctions(t *testing.T) {
	t.Run("FromContext falls back to default", func(t *testing.T) {
		assert.Equal(t, logging.Default(), logging.FromContext(context.Background()))
	})

	t.Run("fields are attached to the context logger", func(t *testing.T) {
		var buf bytes.Buffer
		base := zerolog.New(&buf)
		ctx := logging.WithLogger(context.Background(), &base)
		ctx = logging.WithDatasource(ctx, "YlAe8PmVk")
		ctx = logging.WithStreamPath(ctx, "stream")
		ctx = logging.WithRefID(ctx, "A")

		logging.FromContext(ctx).Info().Msg("hello")

		output := buf.String()
		assert.Contains(t, output, `"datasource_uid":"YlAe8PmVk"`)
		assert.Contains(t, output, `"path":"stream"`)
		assert.Contains(t, output, `"ref_id":"A"`)
	})

	t.Run("empty datasource is skipped", func(t *testing.T) {
		ctx := context.Background()
		assert.Equal(t, ctx, logging.WithDatasource(ctx, ""))
	})

	t.Run("request id round trip", func(t *testing.T) {
		var buf bytes.Buffer
		base := zerolog.New(&buf)
		ctx := logging.WithLogger(context.Background(), &base)
		ctx = logging.WithRequestID(ctx, "req-1")

		assert.Equal(t, "req-1", logging.RequestID(ctx))
		logging.FromContext(ctx).Info().Msg("x")
		assert.Contains(t, buf.String(), `"request_id":"req-1"`)
	})
}

func TestTestLogger(t *testing.T) {
	tl := logging.NewTestLogger(t)
	tl.Info().Msg("client disconnected")
	tl.Info().Msg("client disconnected")
	tl.Debug().Msg("other")

	assert.Equal(t, 3, tl.Count())
	assert.Equal(t, 2, tl.CountContaining("client disconnected"))
	tl.AssertContains(t, "other")

	tl.Clear()
	assert.Equal(t, 0, tl.Count())
}
