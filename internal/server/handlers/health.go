package handlers

import (
	"net/http"
	"time"

	"github.com/agentstation/dsplugin/internal/cache"
	"github.com/agentstation/dsplugin/internal/server/response"
	"github.com/agentstation/dsplugin/pkg/backend"
)

// HandleHealth handles GET /api/v1/health.
// @Summary Health check
// @Description Runs the plugin health check (liveness check)
// @Tags health
// @Produce json
// @Success 200 {object} response.Response{data=object}
// @Failure 503 {object} response.Response{error=response.Error}
// @Router /api/v1/health [get].
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	result, err := h.registry.CheckHealth(r.Context(), &backend.CheckHealthRequest{
		PluginContext: pluginContext(r),
	})
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	data := map[string]any{
		"status":  result.Status,
		"message": result.Message,
		"service": "dsplugin",
	}
	if result.Status == backend.HealthStatusError {
		response.JSON(w, http.StatusServiceUnavailable, response.Response{
			Data:  data,
			Error: &response.Error{Code: "UNHEALTHY", Message: result.Message},
		})
		return
	}
	response.OK(w, data)
}

// HandleReady handles GET /api/v1/ready.
// @Summary Readiness check
// @Description Readiness check with plugin capabilities, live client counts and query cache stats
// @Tags health
// @Produce json
// @Success 200 {object} response.Response{data=object}
// @Router /api/v1/ready [get].
func (h *Handlers) HandleReady(w http.ResponseWriter, _ *http.Request) {
	data := map[string]any{
		"status":            "ready",
		"capabilities":      h.registry.Capabilities(),
		"active_streams":    h.activeStreams.Load(),
		"websocket_clients": h.wsHub.ClientCount(),
		"sse_clients":       h.sseBroadcaster.ClientCount(),
		"event_subscribers": h.broker.SubscriberCount(),
		"uptime_seconds":    int64(time.Since(h.startTime).Seconds()),
	}
	if c, ok := h.registry.Plugin().(queryCache); ok {
		if stats, enabled := c.CacheStats(); enabled {
			data["query_cache"] = stats
		}
	}
	response.OK(w, data)
}

// queryCache is implemented by plugins that memoize query results.
type queryCache interface {
	CacheStats() (cache.Stats, bool)
}
