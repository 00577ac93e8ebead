// Package serve provides the HTTP host command for the dsplugin CLI.
package serve

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agentstation/dsplugin/cmd/application"
	"github.com/agentstation/dsplugin/internal/plugin"
	"github.com/agentstation/dsplugin/internal/server"
	"github.com/agentstation/dsplugin/pkg/constants"
)

// NewCommand creates the serve command using app context.
func NewCommand(app application.Application) *cobra.Command {
	defaults := server.DefaultConfig()

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		Short:   "Host the plugin over HTTP with WebSocket and SSE streams",
		Long: `Start an HTTP host for the data-source plugin.

Features:
  - Data queries (POST /api/v1/query)
  - Live streams over SSE (/api/v1/streams/{path}) and WebSocket (/api/v1/streams/{path}/ws)
  - Resource calls with streamed bodies (/api/v1/resources/...)
  - Health and readiness checks
  - Host events over WebSocket and SSE (/api/v1/events/ws, /api/v1/events/stream)
  - Rate limiting, API key authentication and CORS
  - Graceful shutdown with connection draining

A stream subscriber that disconnects ends its stream; the plugin logs the
disconnect and stops producing packets for it.`,
		Example: `  # Start on default port 8080
  dsplugin serve

  # Start on custom port with authentication
  dsplugin serve --port 3000 --auth

  # Faster stream packets
  dsplugin serve --stream-interval 250ms

  # Host the query-only plugin
  dsplugin --plugin single serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd, args, app)
		},
	}

	// Server configuration flags
	cmd.Flags().Int("port", defaults.Port, "Server port")
	cmd.Flags().String("host", defaults.Host, "Bind address")
	cmd.Flags().String("prefix", defaults.PathPrefix, "API path prefix")

	// CORS flags
	cmd.Flags().Bool("cors", false, "Enable CORS for all origins")
	cmd.Flags().StringSlice("cors-origins", []string{}, "Allowed CORS origins (comma-separated)")

	// Authentication flags
	cmd.Flags().Bool("auth", false, "Enable API key authentication (key from DSPLUGIN_API_KEY)")
	cmd.Flags().String("auth-header", defaults.AuthHeader, "Authentication header name")

	// Performance flags
	cmd.Flags().Int("rate-limit", defaults.RateLimit, "Requests per minute per IP (0 to disable)")

	// Timeout flags
	cmd.Flags().Duration("read-timeout", defaults.ReadTimeout, "HTTP read timeout")
	cmd.Flags().Duration("write-timeout", defaults.WriteTimeout, "HTTP write timeout (0 keeps long-lived streams open)")
	cmd.Flags().Duration("idle-timeout", defaults.IdleTimeout, "HTTP idle timeout")

	// Plugin flags
	cmd.Flags().Duration("stream-interval", 0, "Override the pacing of stream packets")

	return cmd
}

// runServer starts the plugin host.
func runServer(cmd *cobra.Command, _ []string, app application.Application) error {
	cfg, err := parseConfig(cmd)
	if err != nil {
		return err
	}
	logger := app.Logger()

	var opts []plugin.Option
	if interval := mustGetDuration(cmd, "stream-interval"); interval > 0 {
		opts = append(opts, plugin.WithStreamInterval(interval))
	}

	logger.Info().
		Int("port", cfg.Port).
		Str("host", cfg.Host).
		Str("prefix", cfg.PathPrefix).
		Bool("cors", cfg.CORSEnabled).
		Bool("auth", cfg.AuthEnabled).
		Int("rate_limit", cfg.RateLimit).
		Msg("Starting plugin host")

	srv, err := server.New(app, cfg, opts...)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	// Start background services (event broker, WebSocket hub, SSE broadcaster)
	srv.Start()

	logger.Debug().
		Str("addr", cfg.Addr()).
		Dur("read_timeout", cfg.ReadTimeout).
		Dur("write_timeout", cfg.WriteTimeout).
		Dur("idle_timeout", cfg.IdleTimeout).
		Strs("capabilities", capabilityNames(srv)).
		Msg("Creating HTTP server")

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		BaseContext:  srv.BaseContext,
	}

	ln, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		_ = srv.Shutdown(context.Background())
		return fmt.Errorf("listening on %s: %w", httpServer.Addr, err)
	}

	// cmd.Context() carries signal handling from main.go
	return startWithGracefulShutdown(cmd.Context(), cmd, httpServer, ln, srv, logger)
}

func capabilityNames(srv *server.Server) []string {
	caps := srv.Registry().Capabilities()
	names := make([]string, len(caps))
	for i, c := range caps {
		names[i] = string(c)
	}
	return names
}

// parseConfig parses command flags into server configuration.
func parseConfig(cmd *cobra.Command) (server.Config, error) {
	// These flags are defined in this package, so lookups cannot fail
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	// Override with environment variables
	if envPort := os.Getenv("HTTP_PORT"); envPort != "" {
		p, err := parsePort(envPort)
		if err != nil {
			return server.Config{}, err
		}
		port = p
	}
	if envHost := os.Getenv("HTTP_HOST"); envHost != "" {
		host = envHost
	}

	cfg := server.Config{
		Host:         host,
		Port:         port,
		PathPrefix:   mustGetString(cmd, "prefix"),
		CORSEnabled:  mustGetBool(cmd, "cors"),
		CORSOrigins:  mustGetStringSlice(cmd, "cors-origins"),
		AuthEnabled:  mustGetBool(cmd, "auth"),
		AuthHeader:   mustGetString(cmd, "auth-header"),
		APIKey:       os.Getenv("DSPLUGIN_API_KEY"),
		RateLimit:    mustGetInt(cmd, "rate-limit"),
		ReadTimeout:  mustGetDuration(cmd, "read-timeout"),
		WriteTimeout: mustGetDuration(cmd, "write-timeout"),
		IdleTimeout:  mustGetDuration(cmd, "idle-timeout"),
	}
	if err := cfg.Validate(); err != nil {
		return server.Config{}, err
	}
	return cfg, nil
}

// parsePort safely parses a port string to integer.
func parsePort(portStr string) (int, error) {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("invalid port number: %s", portStr)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port out of range: %d", port)
	}
	return port, nil
}

// startWithGracefulShutdown serves on ln and shuts down when ctx is
// cancelled. The host is stopped before the HTTP server so that request
// contexts of live streams end and their teardowns run.
func startWithGracefulShutdown(ctx context.Context, cmd *cobra.Command, httpServer *http.Server, ln net.Listener, srv *server.Server, logger *zerolog.Logger) error {
	serverErr := make(chan error, 1)
	addr := ln.Addr().String()

	go func() {
		logger.Info().
			Str("addr", addr).
			Msg("HTTP server listening")

		cmd.Printf("Plugin host listening on %s\n", addr)
		cmd.Println("   Press Ctrl+C to stop")

		if err := httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("server failed: %w", err)
		}
	}()

	select {
	case err := <-serverErr:
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return err
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received via context")
		cmd.Println("\nShutting down plugin host...")

		// The parent context is already cancelled
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("Background services shutdown had issues")
		}

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("Server stopped gracefully")
		cmd.Println("Plugin host stopped gracefully")
		return nil
	}
}

// mustGetInt retrieves an integer flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetInt(cmd *cobra.Command, name string) int {
	val, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetStringSlice retrieves a string slice flag value or panics if the flag doesn't exist.
func mustGetStringSlice(cmd *cobra.Command, name string) []string {
	val, err := cmd.Flags().GetStringSlice(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetDuration retrieves a duration flag value or panics if the flag doesn't exist.
func mustGetDuration(cmd *cobra.Command, name string) time.Duration {
	val, err := cmd.Flags().GetDuration(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
