// Package app provides the application context and dependency management
// for the dsplugin CLI. It centralizes configuration, logging and the
// plugin instance, and hands them to commands through the
// application.Application interface.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/dsplugin/cmd/application"
	"github.com/agentstation/dsplugin/internal/plugin"
	"github.com/agentstation/dsplugin/pkg/backend"
	"github.com/agentstation/dsplugin/pkg/errors"
)

// App represents the dsplugin application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Plugin registry (lazy-initialized, singleton)
	mu       sync.RWMutex
	registry *backend.Registry
}

var _ application.Application = (*App)(nil)

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Plugin returns the registry of the configured plugin. Without options the
// instance is created once and cached. With options a new instance is built
// from the configured options followed by opts.
func (a *App) Plugin(opts ...plugin.Option) (*backend.Registry, error) {
	if len(opts) > 0 {
		return a.newRegistry(opts...)
	}

	a.mu.RLock()
	if a.registry != nil {
		r := a.registry
		a.mu.RUnlock()
		return r, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if a.registry != nil {
		return a.registry, nil
	}
	r, err := a.newRegistry()
	if err != nil {
		return nil, err
	}
	a.registry = r
	return r, nil
}

func (a *App) newRegistry(opts ...plugin.Option) (*backend.Registry, error) {
	all := append(a.config.PluginOptions(), plugin.WithLogger(a.logger))
	all = append(all, opts...)
	p, err := plugin.NewPlugin(a.config.Plugin, all...)
	if err != nil {
		return nil, errors.NewConfigError("plugin", "creating "+a.config.Plugin+" plugin", err)
	}
	return backend.NewRegistry(p), nil
}

// Shutdown releases the cached plugin. Streams handed out earlier stay
// owned by their callers.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.registry != nil {
		a.logger.Debug().Msg("Releasing plugin")
		a.registry = nil
	}
	return nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		if err := config.Validate(); err != nil {
			return err
		}
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithRegistry sets a custom plugin registry (useful for testing).
func WithRegistry(r *backend.Registry) Option {
	return func(a *App) error {
		a.registry = r
		return nil
	}
}
