// Package server hosts a data-source plugin over HTTP. It exposes the
// plugin's data, stream, resource and health capabilities as REST, SSE and
// WebSocket endpoints, and relays plugin lifecycle events to connected
// clients.
package server

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/dsplugin/cmd/application"
	"github.com/agentstation/dsplugin/internal/plugin"
	"github.com/agentstation/dsplugin/internal/server/adapters"
	"github.com/agentstation/dsplugin/internal/server/handlers"
	"github.com/agentstation/dsplugin/internal/server/sse"
	ws "github.com/agentstation/dsplugin/internal/server/websocket"
	"github.com/agentstation/dsplugin/pkg/backend"
	"github.com/agentstation/dsplugin/pkg/events"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	registry       *backend.Registry
	broker         *events.Broker
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	handlers       *handlers.Handlers
	handler        http.Handler
	logger         *zerolog.Logger
	config         Config
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	startOnce      sync.Once
	startTime      time.Time
}

// New creates a new server instance with the given configuration. The
// plugin is built by app with the server's event broker and logger,
// followed by opts.
func New(app application.Application, cfg Config, opts ...plugin.Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := app.Logger()

	logger.Debug().Msg("Creating new server instance")

	broker := events.NewBroker(logger)
	wsHub := ws.NewHub(logger)
	sseBroadcaster := sse.NewBroadcaster(logger)

	// Channels are buffered, so subscribing before Run does not block.
	broker.Subscribe(adapters.NewWebSocketSubscriber(wsHub))
	broker.Subscribe(adapters.NewSSESubscriber(sseBroadcaster))
	logger.Debug().Msg("Transports subscribed to event broker")

	pluginOpts := append([]plugin.Option{plugin.WithEvents(broker), plugin.WithLogger(logger)}, opts...)
	registry, err := app.Plugin(pluginOpts...)
	if err != nil {
		return nil, err
	}
	logger.Debug().
		Interface("capabilities", registry.Capabilities()).
		Msg("Plugin registered")

	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		registry:       registry,
		broker:         broker,
		wsHub:          wsHub,
		sseBroadcaster: sseBroadcaster,
		logger:         logger,
		config:         cfg,
		ctx:            ctx,
		cancel:         cancel,
		startTime:      time.Now(),
	}
	s.handlers = handlers.New(
		registry,
		broker,
		wsHub,
		sseBroadcaster,
		websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true // Allow all origins for WebSocket
			},
		},
		logger,
	)
	s.handler = s.setupRouter()

	logger.Debug().Msg("Server instance created successfully")
	return s, nil
}

// Start starts background services (broker, WebSocket hub, SSE broadcaster).
// Calling it more than once has no effect.
func (s *Server) Start() {
	s.startOnce.Do(func() {
		s.logger.Debug().Msg("Starting background services")
		s.goRun(s.broker.Run)
		s.goRun(s.wsHub.Run)
		s.goRun(s.sseBroadcaster.Run)
		s.logger.Debug().Msg("All background services started")
	})
}

func (s *Server) goRun(run func(context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		run(s.ctx)
	}()
}

// Handler returns the configured http.Handler with middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// BaseContext is the base context of every request served by the host.
// Assign it to http.Server.BaseContext so Shutdown cancels live streams
// before the HTTP server drains.
func (s *Server) BaseContext(net.Listener) context.Context {
	return s.ctx
}

// Shutdown cancels every request context, stops background services and
// waits for them to exit or for ctx to end.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down server background services")
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("Background services shut down successfully")
		return nil
	case <-ctx.Done():
		s.logger.Warn().Msg("Background services shutdown timed out")
		return ctx.Err()
	}
}

// Registry returns the plugin registry.
func (s *Server) Registry() *backend.Registry {
	return s.registry
}

// Broker returns the event broker for publishing events.
func (s *Server) Broker() *events.Broker {
	return s.broker
}

// WSHub returns the WebSocket hub.
func (s *Server) WSHub() *ws.Hub {
	return s.wsHub
}

// SSEBroadcaster returns the SSE broadcaster.
func (s *Server) SSEBroadcaster() *sse.Broadcaster {
	return s.sseBroadcaster
}

// ActiveStreams returns the number of live streams being served.
func (s *Server) ActiveStreams() int64 {
	return s.handlers.ActiveStreams()
}

// StartTime returns the server start time for uptime calculations.
func (s *Server) StartTime() time.Time {
	return s.startTime
}
