package backend

import (
	"context"
	"net/http"

	"github.com/agentstation/dsplugin/pkg/stream"
)

// CallResourceHandler handles resource calls.
//
// CallResource returns the initial response and a stream of further body
// chunks. Single-response handlers return an empty stream. A failure before
// the initial response is reported as an error; *errors.ResourceError carries
// the HTTP status.
type CallResourceHandler interface {
	CallResource(ctx context.Context, req *CallResourceRequest) (*CallResourceResponse, stream.Stream[[]byte], error)
}

// CallResourceRequest is an HTTP-like request routed to the plugin.
type CallResourceRequest struct {
	PluginContext PluginContext       `json:"pluginContext"`
	Path          string              `json:"path"`
	Method        string              `json:"method"`
	URL           string              `json:"url"`
	Headers       map[string][]string `json:"headers,omitempty"`
	Body          []byte              `json:"body,omitempty"`
}

// CallResourceResponse is the initial response of a resource call.
type CallResourceResponse struct {
	Status  int                 `json:"status"`
	Headers map[string][]string `json:"headers,omitempty"`
	Body    []byte              `json:"body,omitempty"`
}

// StatusCode returns the response status, defaulting to 200.
func (r *CallResourceResponse) StatusCode() int {
	if r.Status == 0 {
		return http.StatusOK
	}
	return r.Status
}
