// Package adapters connects the event broker to the SSE and WebSocket
// transports.
package adapters

import (
	ws "github.com/agentstation/dsplugin/internal/server/websocket"
	"github.com/agentstation/dsplugin/pkg/events"
)

// WebSocketSubscriber forwards broker events to a WebSocket hub.
type WebSocketSubscriber struct {
	hub *ws.Hub
}

// NewWebSocketSubscriber creates a WebSocket subscriber.
func NewWebSocketSubscriber(hub *ws.Hub) *WebSocketSubscriber {
	return &WebSocketSubscriber{hub: hub}
}

// Send broadcasts event to all WebSocket clients.
func (w *WebSocketSubscriber) Send(event events.Event) error {
	w.hub.Broadcast(ws.Message{
		Type:      string(event.Type),
		Timestamp: event.Timestamp,
		Data:      event.Data,
	})
	return nil
}

// Close is a no-op; the hub owns its lifecycle.
func (w *WebSocketSubscriber) Close() error {
	return nil
}
