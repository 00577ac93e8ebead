package backend

import "context"

// CheckHealthHandler reports plugin health.
type CheckHealthHandler interface {
	CheckHealth(ctx context.Context, req *CheckHealthRequest) (*CheckHealthResult, error)
}

// CheckHealthRequest asks the plugin for its health.
type CheckHealthRequest struct {
	PluginContext PluginContext `json:"pluginContext"`
}

// HealthStatus is the health of a plugin.
type HealthStatus string

// Health statuses.
const (
	HealthStatusUnknown HealthStatus = "UNKNOWN"
	HealthStatusOK      HealthStatus = "OK"
	HealthStatusError   HealthStatus = "ERROR"
)

// CheckHealthResult is the answer to a CheckHealthRequest.
type CheckHealthResult struct {
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}
