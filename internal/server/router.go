package server

import (
	"net/http"

	"github.com/agentstation/dsplugin/internal/server/middleware"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return s.applyMiddleware(mux)
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	prefix := s.config.PathPrefix
	h := s.handlers

	// Favicon handler (return 204 No Content to avoid 404 logs)
	mux.HandleFunc("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Public health endpoints (no auth required)
	mux.HandleFunc("GET /health", h.HandleHealth)
	if prefix != "" {
		mux.HandleFunc("GET "+prefix+"/health", h.HandleHealth)
	}
	mux.HandleFunc("GET "+prefix+"/ready", h.HandleReady)

	// Data
	mux.HandleFunc("POST "+prefix+"/query", h.HandleQuery)

	// Streams
	mux.HandleFunc("POST "+prefix+"/streams/{path}/subscribe", h.HandleSubscribe)
	mux.HandleFunc("POST "+prefix+"/streams/{path}/publish", h.HandlePublish)
	mux.HandleFunc("GET "+prefix+"/streams/{path}", h.HandleStreamSSE)
	mux.HandleFunc("GET "+prefix+"/streams/{path}/ws", h.HandleStreamWebSocket)

	// Resources (any method)
	mux.HandleFunc(prefix+"/resources/{path...}", h.HandleResource)

	// Plugin lifecycle events
	mux.HandleFunc("GET "+prefix+"/events/ws", h.HandleEventsWebSocket)
	mux.HandleFunc("GET "+prefix+"/events/stream", h.HandleEventsSSE)
}

// applyMiddleware wraps handler with middleware chain.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	cfg := s.config

	// Rate limiting (if enabled)
	if cfg.RateLimit > 0 {
		rateLimiter := middleware.NewRateLimiter(s.ctx, cfg.RateLimit, s.logger)
		handler = middleware.RateLimit(rateLimiter)(handler)
	}

	// Authentication (if enabled)
	if cfg.AuthEnabled {
		authConfig := middleware.DefaultAuthConfig()
		authConfig.Enabled = true
		authConfig.HeaderName = cfg.AuthHeader
		if cfg.APIKey != "" {
			authConfig.APIKey = cfg.APIKey
		}
		authConfig.PublicPaths = []string{"/health", cfg.PathPrefix + "/health", cfg.PathPrefix + "/ready"}
		handler = middleware.Auth(authConfig, s.logger)(handler)
	}

	// CORS (if enabled)
	if cfg.CORSEnabled {
		corsConfig := middleware.DefaultCORSConfig()
		if len(cfg.CORSOrigins) > 0 {
			corsConfig.AllowedOrigins = cfg.CORSOrigins
			corsConfig.AllowAll = false
		} else {
			corsConfig.AllowAll = true
		}
		handler = middleware.CORS(corsConfig)(handler)
	}

	// Request ID, logging and recovery (always enabled)
	return middleware.Chain(
		middleware.RequestID,
		middleware.Recovery(s.logger),
		middleware.Logger(s.logger),
	)(handler)
}
