package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/dsplugin/internal/plugin"
	"github.com/agentstation/dsplugin/pkg/logging"
	"github.com/agentstation/dsplugin/pkg/backend"
)

// Mock provides a mock implementation of Application for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default value.
type Mock struct {
	PluginFunc       func(opts ...plugin.Option) (*backend.Registry, error)
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	VersionFunc      func() string
	CommitFunc       func() string
	DateFunc         func() string
	BuiltByFunc      func() string
}

// Plugin returns a registry using the mock function, or a registry over a
// new full plugin built from opts.
func (m *Mock) Plugin(opts ...plugin.Option) (*backend.Registry, error) {
	if m.PluginFunc != nil {
		return m.PluginFunc(opts...)
	}
	svc, err := plugin.New(opts...)
	if err != nil {
		return nil, err
	}
	return backend.NewRegistry(svc), nil
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	return logging.NewNopLogger()
}

// OutputFormat returns output format using the mock function or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns commit using the mock function or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns date using the mock function or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns builtBy using the mock function or "test".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "test"
}

// Ensure Mock implements Application at compile time.
var _ Application = (*Mock)(nil)
