// Package constants provides shared constants used throughout the dsplugin codebase.
// This includes timeouts, intervals, buffer sizes and file permissions that
// should be consistent across the plugin services, the host server and the CLI.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultTimeout is the standard timeout for general operations
	DefaultTimeout = 10 * time.Second

	// ShutdownTimeout bounds graceful shutdown of the HTTP host
	ShutdownTimeout = 30 * time.Second

	// QueryCacheTTL is how long a computed query response is reused
	QueryCacheTTL = 5 * time.Minute
)

// Stream constants define the pacing of the example streams
const (
	// DefaultStreamInterval is the pacing of the run-stream generator (one packet per interval)
	DefaultStreamInterval = 1 * time.Second

	// StreamBatchSize is the number of values carried by each stream packet
	StreamBatchSize = 3

	// DefaultResourceChunkInterval paces the /count resource body stream
	DefaultResourceChunkInterval = 1 * time.Second
)

// Plugin identity
const (
	// PluginID is the identifier the host uses for this plugin
	PluginID = "agentstation-dsplugin-datasource"

	// StreamPath is the only stream path the example plugin serves
	StreamPath = "stream"
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Buffer sizes for the real-time transports
const (
	// ClientBufferSize is the per-client buffer of the SSE broadcaster and WebSocket hub
	ClientBufferSize = 256

	// EventBufferSize is the buffer of the event broker
	EventBufferSize = 256
)
