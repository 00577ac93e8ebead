package backend

import (
	"context"

	"github.com/agentstation/dsplugin/pkg/errors"
	"github.com/agentstation/dsplugin/pkg/stream"
)

// Capability names a set of operations a plugin may provide.
type Capability string

// Capabilities in registration order.
const (
	CapabilityData     Capability = "data"
	CapabilityStream   Capability = "stream"
	CapabilityResource Capability = "resource"
	CapabilityHealth   Capability = "health"
)

// Registry dispatches host calls to whichever capabilities a plugin
// implements. Calls to a missing capability fail with a
// *errors.CapabilityError.
type Registry struct {
	plugin   any
	data     QueryDataHandler
	streams  StreamHandler
	resource CallResourceHandler
	health   CheckHealthHandler
}

// NewRegistry detects the capabilities of plugin.
func NewRegistry(plugin any) *Registry {
	r := &Registry{plugin: plugin}
	r.data, _ = plugin.(QueryDataHandler)
	r.streams, _ = plugin.(StreamHandler)
	r.resource, _ = plugin.(CallResourceHandler)
	r.health, _ = plugin.(CheckHealthHandler)
	return r
}

// Plugin returns the registered plugin.
func (r *Registry) Plugin() any {
	return r.plugin
}

// Capabilities lists the capabilities the plugin implements.
func (r *Registry) Capabilities() []Capability {
	var caps []Capability
	for _, c := range []Capability{CapabilityData, CapabilityStream, CapabilityResource, CapabilityHealth} {
		if r.Has(c) {
			caps = append(caps, c)
		}
	}
	return caps
}

// Has reports whether the plugin implements c.
func (r *Registry) Has(c Capability) bool {
	switch c {
	case CapabilityData:
		return r.data != nil
	case CapabilityStream:
		return r.streams != nil
	case CapabilityResource:
		return r.resource != nil
	case CapabilityHealth:
		return r.health != nil
	default:
		return false
	}
}

// QueryData dispatches to the data capability.
func (r *Registry) QueryData(ctx context.Context, req *QueryDataRequest) (*QueryDataResponse, error) {
	if r.data == nil {
		return nil, errors.NewCapabilityError(string(CapabilityData))
	}
	return r.data.QueryData(ctx, req)
}

// SubscribeStream dispatches to the stream capability.
func (r *Registry) SubscribeStream(ctx context.Context, req *SubscribeStreamRequest) (*SubscribeStreamResponse, error) {
	if r.streams == nil {
		return nil, errors.NewCapabilityError(string(CapabilityStream))
	}
	return r.streams.SubscribeStream(ctx, req)
}

// RunStream dispatches to the stream capability. The caller owns the
// returned handle and must close it.
func (r *Registry) RunStream(ctx context.Context, req *RunStreamRequest) (*stream.Handle[StreamPacket], error) {
	if r.streams == nil {
		return nil, errors.NewCapabilityError(string(CapabilityStream))
	}
	return r.streams.RunStream(ctx, req)
}

// PublishStream dispatches to the stream capability.
func (r *Registry) PublishStream(ctx context.Context, req *PublishStreamRequest) (*PublishStreamResponse, error) {
	if r.streams == nil {
		return nil, errors.NewCapabilityError(string(CapabilityStream))
	}
	return r.streams.PublishStream(ctx, req)
}

// CallResource dispatches to the resource capability.
func (r *Registry) CallResource(ctx context.Context, req *CallResourceRequest) (*CallResourceResponse, stream.Stream[[]byte], error) {
	if r.resource == nil {
		return nil, nil, errors.NewCapabilityError(string(CapabilityResource))
	}
	return r.resource.CallResource(ctx, req)
}

// CheckHealth dispatches to the health capability. Plugins without one are
// reported healthy.
func (r *Registry) CheckHealth(ctx context.Context, req *CheckHealthRequest) (*CheckHealthResult, error) {
	if r.health == nil {
		return &CheckHealthResult{Status: HealthStatusOK, Message: "plugin does not implement health checks"}, nil
	}
	return r.health.CheckHealth(ctx, req)
}
