package plugin

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/dsplugin/pkg/constants"
	"github.com/agentstation/dsplugin/pkg/errors"
	"github.com/agentstation/dsplugin/pkg/events"
	"github.com/agentstation/dsplugin/pkg/logging"
)

// Option configures a Service.
type Option func(*options) error

type options struct {
	streamInterval time.Duration
	chunkInterval  time.Duration
	cacheTTL       time.Duration
	events         events.Publisher
	logger         *zerolog.Logger
}

func defaultOptions() *options {
	return &options{
		streamInterval: constants.DefaultStreamInterval,
		chunkInterval:  constants.DefaultResourceChunkInterval,
		cacheTTL:       constants.QueryCacheTTL,
		events:         events.Discard,
		logger:         logging.Default(),
	}
}

// WithStreamInterval sets the pacing of RunStream packets. Zero disables
// pacing.
func WithStreamInterval(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return errors.NewValidationError("stream_interval", d, "must not be negative")
		}
		o.streamInterval = d
		return nil
	}
}

// WithChunkInterval sets the pacing of streamed resource chunks. Zero
// disables pacing.
func WithChunkInterval(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return errors.NewValidationError("chunk_interval", d, "must not be negative")
		}
		o.chunkInterval = d
		return nil
	}
}

// WithCacheTTL sets how long query results are reused. Zero disables the
// query cache.
func WithCacheTTL(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return errors.NewValidationError("cache_ttl", d, "must not be negative")
		}
		o.cacheTTL = d
		return nil
	}
}

// WithEvents sets where lifecycle events are published.
func WithEvents(p events.Publisher) Option {
	return func(o *options) error {
		if p == nil {
			p = events.Discard
		}
		o.events = p
		return nil
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		if logger != nil {
			o.logger = logger
		}
		return nil
	}
}
