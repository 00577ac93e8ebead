// Package plugin implements the example data-source plugin: a full Service
// providing data, stream, resource and health capabilities, and SingleFrame,
// a data-only plugin.
package plugin

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"

	"github.com/agentstation/dsplugin/internal/cache"
	"github.com/agentstation/dsplugin/pkg/backend"
	"github.com/agentstation/dsplugin/pkg/data"
	"github.com/agentstation/dsplugin/pkg/errors"
)

// Service is the full example plugin.
type Service struct {
	opts    *options
	queries *cache.Cache[*data.Frame]
	router  chi.Router

	// counter backs the /count resource. It is shared by all callers and
	// lives as long as the Service.
	counter atomic.Uint64

	// buildFrame produces the frame of one query; tests replace it.
	buildFrame func(uid string, q Query) *data.Frame
}

var (
	_ backend.QueryDataHandler    = (*Service)(nil)
	_ backend.StreamHandler       = (*Service)(nil)
	_ backend.CallResourceHandler = (*Service)(nil)
	_ backend.CheckHealthHandler  = (*Service)(nil)
)

// New creates a Service.
func New(opts ...Option) (*Service, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	s := &Service{
		opts:       o,
		buildFrame: exampleFrame,
	}
	if o.cacheTTL > 0 {
		s.queries = cache.New[*data.Frame](o.cacheTTL, 2*o.cacheTTL)
	}
	s.router = s.resourceRouter()
	return s, nil
}

// CheckHealth always reports the plugin healthy.
func (s *Service) CheckHealth(context.Context, *backend.CheckHealthRequest) (*backend.CheckHealthResult, error) {
	return &backend.CheckHealthResult{
		Status:  backend.HealthStatusOK,
		Message: "plugin is running",
	}, nil
}

// CacheStats reports the query cache. It reports false when caching is
// disabled.
func (s *Service) CacheStats() (cache.Stats, bool) {
	if s.queries == nil {
		return cache.Stats{}, false
	}
	return s.queries.GetStats(), true
}

// Handler exposes the resource router, mainly for tests.
func (s *Service) Handler() http.Handler {
	return s.router
}

// Plugin kinds selectable from configuration.
const (
	KindFull   = "full"
	KindSingle = "single"
)

// NewPlugin creates the plugin named by kind.
func NewPlugin(kind string, opts ...Option) (any, error) {
	switch kind {
	case KindFull, "":
		svc, err := New(opts...)
		if err != nil {
			return nil, err
		}
		return svc, nil
	case KindSingle:
		return SingleFrame{}, nil
	default:
		return nil, errors.NewValidationError("plugin", kind, "expected full or single")
	}
}
