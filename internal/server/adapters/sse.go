package adapters

import (
	"strconv"
	"sync/atomic"

	"github.com/agentstation/dsplugin/internal/server/sse"
	"github.com/agentstation/dsplugin/pkg/events"
)

// SSESubscriber forwards broker events to an SSE broadcaster. Event IDs
// are a per-subscriber sequence so clients can detect gaps.
type SSESubscriber struct {
	broadcaster *sse.Broadcaster
	seq         atomic.Uint64
}

// NewSSESubscriber creates an SSE subscriber.
func NewSSESubscriber(broadcaster *sse.Broadcaster) *SSESubscriber {
	return &SSESubscriber{broadcaster: broadcaster}
}

// Send broadcasts event to all SSE clients.
func (s *SSESubscriber) Send(event events.Event) error {
	s.broadcaster.Broadcast(sse.Event{
		Event: string(event.Type),
		ID:    strconv.FormatUint(s.seq.Add(1), 10),
		Data: map[string]any{
			"timestamp": event.Timestamp,
			"data":      event.Data,
		},
	})
	return nil
}

// Close is a no-op; the broadcaster owns its lifecycle.
func (s *SSESubscriber) Close() error {
	return nil
}
