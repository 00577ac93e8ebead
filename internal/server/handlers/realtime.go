package handlers

import (
	"net/http"

	"github.com/google/uuid"

	ws "github.com/agentstation/dsplugin/internal/server/websocket"
	"github.com/agentstation/dsplugin/pkg/events"
)

// HandleEventsWebSocket handles WebSocket connections at /api/v1/events/ws.
// @Summary WebSocket plugin events
// @Description WebSocket connection for plugin lifecycle events
// @Tags events
// @Success 101 "Switching Protocols"
// @Router /api/v1/events/ws [get].
func (h *Handlers) HandleEventsWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(uuid.NewString(), h.wsHub, conn)
	h.wsHub.Register(client)

	h.broker.Publish(events.ClientConnected, map[string]any{
		"client_id": client.ID(),
		"transport": "websocket",
	})

	go client.WritePump()
	go client.ReadPump()
}

// HandleEventsSSE handles Server-Sent Events at /api/v1/events/stream.
// @Summary SSE plugin events
// @Description Server-Sent Events stream of plugin lifecycle events
// @Tags events
// @Produce text/event-stream
// @Success 200 "Event stream"
// @Router /api/v1/events/stream [get].
func (h *Handlers) HandleEventsSSE(w http.ResponseWriter, r *http.Request) {
	h.sseBroadcaster.ServeHTTP(w, r)
}
