package serve

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/dsplugin/cmd/application"
	"github.com/agentstation/dsplugin/internal/plugin"
	"github.com/agentstation/dsplugin/internal/server"
	"github.com/agentstation/dsplugin/pkg/backend"
	pkgerrors "github.com/agentstation/dsplugin/pkg/errors"
	"github.com/agentstation/dsplugin/pkg/logging"
)

func TestParsePort(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr string
	}{
		{in: "8080", want: 8080},
		{in: "1", want: 1},
		{in: "65535", want: 65535},
		{in: "0", wantErr: "port out of range: 0"},
		{in: "70000", wantErr: "port out of range: 70000"},
		{in: "http", wantErr: "invalid port number: http"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parsePort(tt.in)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseConfigDefaults(t *testing.T) {
	t.Setenv("HTTP_PORT", "")
	t.Setenv("HTTP_HOST", "")

	cmd := NewCommand(&application.Mock{})
	cfg, err := parseConfig(cmd)
	require.NoError(t, err)

	defaults := server.DefaultConfig()
	assert.Equal(t, defaults.Host, cfg.Host)
	assert.Equal(t, defaults.Port, cfg.Port)
	assert.Equal(t, "/api/v1", cfg.PathPrefix)
	assert.Equal(t, "X-API-Key", cfg.AuthHeader)
	assert.Equal(t, 100, cfg.RateLimit)
	assert.Zero(t, cfg.WriteTimeout)
}

func TestParseConfigFlagsAndEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "9191")
	t.Setenv("HTTP_HOST", "0.0.0.0")
	t.Setenv("DSPLUGIN_API_KEY", "secret")

	cmd := NewCommand(&application.Mock{})
	require.NoError(t, cmd.Flags().Parse([]string{
		"--port", "3000",
		"--prefix", "/plugin/",
		"--auth",
		"--cors-origins", "https://a.example,https://b.example",
		"--rate-limit", "0",
	}))

	cfg, err := parseConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Port, "HTTP_PORT overrides --port")
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, "/plugin", cfg.PathPrefix)
	assert.True(t, cfg.AuthEnabled)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Zero(t, cfg.RateLimit)
}

func TestParseConfigInvalid(t *testing.T) {
	t.Run("bad env port", func(t *testing.T) {
		t.Setenv("HTTP_PORT", "nope")
		_, err := parseConfig(NewCommand(&application.Mock{}))
		assert.EqualError(t, err, "invalid port number: nope")
	})

	t.Run("bad prefix", func(t *testing.T) {
		t.Setenv("HTTP_PORT", "")
		cmd := NewCommand(&application.Mock{})
		require.NoError(t, cmd.Flags().Parse([]string{"--prefix", "/api/{v}"}))
		_, err := parseConfig(cmd)
		var cfgErr *pkgerrors.ConfigError
		assert.ErrorAs(t, err, &cfgErr)
	})
}

func startServe(t *testing.T, app *application.Mock) (string, context.CancelFunc, <-chan error, *bytes.Buffer) {
	t.Helper()
	srv, err := server.New(app, server.DefaultConfig())
	require.NoError(t, err)
	srv.Start()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	httpServer := &http.Server{Handler: srv.Handler(), BaseContext: srv.BaseContext}

	cmd := NewCommand(app)
	var out bytes.Buffer
	cmd.SetOut(&out)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	done := make(chan error, 1)
	go func() {
		done <- startWithGracefulShutdown(ctx, cmd, httpServer, ln, srv, app.Logger())
	}()
	return "http://" + ln.Addr().String(), cancel, done, &out
}

func waitShutdown(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestStartWithGracefulShutdown(t *testing.T) {
	_, cancel, done, out := startServe(t, &application.Mock{})

	time.Sleep(50 * time.Millisecond)
	cancel()

	waitShutdown(t, done)
	assert.Contains(t, out.String(), "Plugin host listening on 127.0.0.1:")
	assert.Contains(t, out.String(), "Plugin host stopped gracefully")
}

func TestStartWithGracefulShutdownEndsOpenStreams(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{name: "live stream", path: "/api/v1/streams/stream?datasource=abc"},
		{name: "events stream", path: "/api/v1/events/stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := logging.NewTestLogger(t)
			app := &application.Mock{
				LoggerFunc: func() *zerolog.Logger { return tl.Logger },
				PluginFunc: func(opts ...plugin.Option) (*backend.Registry, error) {
					svc, err := plugin.New(append([]plugin.Option{plugin.WithStreamInterval(5 * time.Millisecond)}, opts...)...)
					if err != nil {
						return nil, err
					}
					return backend.NewRegistry(svc), nil
				},
			}
			baseURL, cancel, done, _ := startServe(t, app)

			resp, err := http.Get(baseURL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, http.StatusOK, resp.StatusCode)

			// Read the first event so the stream is live.
			line, err := bufio.NewReader(resp.Body).ReadString('\n')
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(line, "event: "), line)

			start := time.Now()
			cancel()
			waitShutdown(t, done)
			assert.Less(t, time.Since(start), 3*time.Second)

			if tt.path == "/api/v1/events/stream" {
				assert.False(t, tl.Contains("client disconnected for"))
				return
			}
			assert.Eventually(t, func() bool {
				return tl.Contains("client disconnected for datasource abc, path stream")
			}, time.Second, 5*time.Millisecond)
			time.Sleep(20 * time.Millisecond)
			assert.Equal(t, 1, tl.CountContaining("client disconnected for"))
		})
	}
}
