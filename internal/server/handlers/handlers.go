package handlers

import (
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/dsplugin/internal/server/sse"
	ws "github.com/agentstation/dsplugin/internal/server/websocket"
	"github.com/agentstation/dsplugin/pkg/backend"
	"github.com/agentstation/dsplugin/pkg/constants"
	"github.com/agentstation/dsplugin/pkg/events"
)

// DatasourceHeader names the request header carrying the data source UID.
const DatasourceHeader = "X-Datasource-Uid"

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	registry       *backend.Registry
	broker         *events.Broker
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	upgrader       websocket.Upgrader
	logger         *zerolog.Logger
	startTime      time.Time

	// activeStreams counts live streams served over SSE or WebSocket.
	activeStreams atomic.Int64
}

// New creates a new Handlers instance.
func New(
	registry *backend.Registry,
	broker *events.Broker,
	wsHub *ws.Hub,
	sseBroadcaster *sse.Broadcaster,
	upgrader websocket.Upgrader,
	logger *zerolog.Logger,
) *Handlers {
	return &Handlers{
		registry:       registry,
		broker:         broker,
		wsHub:          wsHub,
		sseBroadcaster: sseBroadcaster,
		upgrader:       upgrader,
		logger:         logger,
		startTime:      time.Now(),
	}
}

// ActiveStreams returns the number of live streams being served.
func (h *Handlers) ActiveStreams() int64 {
	return h.activeStreams.Load()
}

// pluginContext builds the plugin context of r. The data source UID comes
// from the "datasource" query parameter or the X-Datasource-Uid header.
func pluginContext(r *http.Request) backend.PluginContext {
	pc := backend.PluginContext{PluginID: constants.PluginID}
	uid := r.URL.Query().Get("datasource")
	if uid == "" {
		uid = r.Header.Get(DatasourceHeader)
	}
	if uid = strings.TrimSpace(uid); uid != "" {
		pc.DataSourceInstanceSettings = &backend.DataSourceInstanceSettings{UID: uid}
	}
	return pc
}
