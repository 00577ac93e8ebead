package stream

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/dsplugin/cmd/application"
	"github.com/agentstation/dsplugin/internal/plugin"
	"github.com/agentstation/dsplugin/pkg/backend"
	"github.com/agentstation/dsplugin/pkg/errors"
	"github.com/agentstation/dsplugin/pkg/logging"
)

func execute(t *testing.T, app application.Application, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func newApp(t *testing.T, format string) (*application.Mock, *logging.TestLogger) {
	tl := logging.NewTestLogger(t)
	app := &application.Mock{
		LoggerFunc:       func() *zerolog.Logger { return tl.Logger },
		OutputFormatFunc: func() string { return format },
	}
	app.PluginFunc = func(opts ...plugin.Option) (*backend.Registry, error) {
		svc, err := plugin.New(append([]plugin.Option{plugin.WithLogger(tl.Logger)}, opts...)...)
		if err != nil {
			return nil, err
		}
		return backend.NewRegistry(svc), nil
	}
	return app, tl
}

func TestStreamJSON(t *testing.T) {
	app, tl := newApp(t, "json")

	out, err := execute(t, app, "--count", "2", "--interval", "5ms", "-d", "abc")
	require.NoError(t, err)

	var packets []backend.StreamPacket
	require.NoError(t, json.Unmarshal([]byte(out), &packets))
	require.Len(t, packets, 2)

	for i, want := range [][]uint32{{0, 1, 2}, {3, 4, 5}} {
		frame, err := packets[i].Frame()
		require.NoError(t, err)
		require.Len(t, frame.Fields, 1)
		assert.Equal(t, "x", frame.Fields[0].Name)
		got := make([]uint32, frame.Fields[0].Len())
		for j := range got {
			got[j] = frame.Fields[0].At(j).(uint32)
		}
		assert.Equal(t, want, got)
	}

	assert.Eventually(t, func() bool {
		return tl.CountContaining("client disconnected for datasource abc, path stream") == 1
	}, time.Second, 5*time.Millisecond)
}

func TestStreamTable(t *testing.T) {
	app, _ := newApp(t, "table")

	out, err := execute(t, app, "-n", "1", "--interval", "5ms")
	require.NoError(t, err)
	assert.Contains(t, out, "0, 1, 2")
}

func TestStreamUnknownPath(t *testing.T) {
	app, tl := newApp(t, "json")

	_, err := execute(t, app, "--path", "random")
	assert.True(t, errors.IsNotFound(err))
	assert.False(t, tl.Contains("client disconnected"))
}

func TestStreamInvalidCount(t *testing.T) {
	app, _ := newApp(t, "json")

	_, err := execute(t, app, "--count", "0")
	assert.True(t, errors.IsValidationError(err))
}

func TestStreamNotImplemented(t *testing.T) {
	app := &application.Mock{
		PluginFunc: func(...plugin.Option) (*backend.Registry, error) {
			return backend.NewRegistry(plugin.SingleFrame{}), nil
		},
	}
	_, err := execute(t, app)
	assert.True(t, errors.IsNotImplemented(err))
}
