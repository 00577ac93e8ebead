// Package application provides the application interface for dsplugin commands.
//
// The Application interface defines the contract between the application layer
// and command implementations, enabling dependency injection and testability.
//
// Usage in Commands:
//
//	func NewCommand(app application.Application) *cobra.Command {
//	    return &cobra.Command{
//	        RunE: func(cmd *cobra.Command, args []string) error {
//	            registry, err := app.Plugin()
//	            if err != nil {
//	                return err
//	            }
//	            resp, err := registry.QueryData(cmd.Context(), req)
//	            // ...
//	        },
//	    }
//	}
//
// Testing with Mocks:
//
//	mock := &application.Mock{
//	    PluginFunc: func(...plugin.Option) (*backend.Registry, error) {
//	        svc, _ := plugin.New(plugin.WithStreamInterval(0))
//	        return backend.NewRegistry(svc), nil
//	    },
//	}
//	cmd := NewCommand(mock)
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/dsplugin/internal/plugin"
	"github.com/agentstation/dsplugin/pkg/backend"
)

// Application provides the application interface that commands need.
// The App struct from cmd/dsplugin/app implements it.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Plugin returns the registry of the configured plugin.
	// When called without options, returns the default cached instance.
	// When called with options, creates a new instance from the configured
	// options followed by opts (no caching).
	//
	// Examples:
	//   reg, err := app.Plugin()                              // default instance (cached)
	//   reg, err := app.Plugin(plugin.WithEvents(broker))     // custom instance (new)
	Plugin(opts ...plugin.Option) (*backend.Registry, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table, wide).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
