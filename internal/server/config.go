package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentstation/dsplugin/pkg/errors"
)

// Config holds server configuration.
type Config struct {
	// Server settings
	Host string
	Port int

	// API settings
	PathPrefix string

	// CORS settings
	CORSEnabled bool
	CORSOrigins []string

	// Authentication settings
	AuthEnabled bool
	AuthHeader  string
	APIKey      string

	// Performance settings
	RateLimit int // Requests per minute per IP (0 to disable)

	// HTTP timeouts. Live streams are long lived, so WriteTimeout defaults
	// to zero (no timeout).
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:        "localhost",
		Port:        8080,
		PathPrefix:  "/api/v1",
		CORSOrigins: []string{},
		AuthHeader:  "X-API-Key",
		RateLimit:   100,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate checks the configuration and normalizes the path prefix.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return errors.NewConfigError("server", fmt.Sprintf("port %d out of range (1-65535)", c.Port), nil)
	}
	if c.RateLimit < 0 {
		return errors.NewConfigError("server", "rate limit must not be negative", nil)
	}
	prefix := strings.TrimRight(c.PathPrefix, "/")
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if strings.ContainsAny(prefix, "{} ") {
		return errors.NewConfigError("server", fmt.Sprintf("invalid path prefix %q", c.PathPrefix), nil)
	}
	c.PathPrefix = prefix
	if c.AuthHeader == "" {
		c.AuthHeader = "X-API-Key"
	}
	return nil
}
