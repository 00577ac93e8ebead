// Package events carries plugin lifecycle events from the plugin services to
// every connected transport. Producers publish to a Broker; transports
// register as Subscribers and receive each event.
package events

import "time"

// EventType names a plugin lifecycle event.
type EventType string

// Plugin lifecycle events.
const (
	QueryExecuted EventType = "query.executed"

	StreamSubscribed EventType = "stream.subscribed"
	StreamStarted    EventType = "stream.started"
	StreamClosed     EventType = "stream.closed"

	ResourceCalled EventType = "resource.called"

	// Transport events.
	ClientConnected EventType = "client.connected"
)

// Event is a single published event.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Publisher accepts events for distribution.
type Publisher interface {
	Publish(eventType EventType, data any)
}

// Discard is a Publisher that drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(EventType, any) {}
