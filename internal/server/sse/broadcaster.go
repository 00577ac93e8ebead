// Package sse provides Server-Sent Events: a Writer for a single streaming
// response and a Broadcaster that fans events out to many clients.
package sse

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/dsplugin/pkg/constants"
)

// Broadcaster manages SSE client connections.
type Broadcaster struct {
	clients    map[chan Event]bool
	newClients chan chan Event
	closed     chan chan Event
	events     chan Event
	done       chan struct{}
	mu         sync.RWMutex
	logger     *zerolog.Logger
}

// NewBroadcaster creates a broadcaster. Call Run to start it.
func NewBroadcaster(logger *zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		clients:    make(map[chan Event]bool),
		newClients: make(chan chan Event, 10),
		closed:     make(chan chan Event, 10),
		events:     make(chan Event, constants.EventBufferSize),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves clients until ctx is done, then closes every client channel.
func (b *Broadcaster) Run(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case <-ctx.Done():
			b.mu.Lock()
			for client := range b.clients {
				close(client)
			}
			b.clients = make(map[chan Event]bool)
			b.mu.Unlock()
			b.logger.Info().Msg("SSE broadcaster shut down")
			return

		case client := <-b.newClients:
			b.mu.Lock()
			b.clients[client] = true
			total := len(b.clients)
			b.mu.Unlock()
			b.logger.Debug().Int("total_clients", total).Msg("SSE client connected")

		case client := <-b.closed:
			b.mu.Lock()
			if b.clients[client] {
				delete(b.clients, client)
				close(client)
			}
			total := len(b.clients)
			b.mu.Unlock()
			b.logger.Debug().Int("total_clients", total).Msg("SSE client disconnected")

		case event := <-b.events:
			b.mu.RLock()
			for client := range b.clients {
				select {
				case client <- event:
				default:
					b.logger.Warn().Msg("SSE client buffer full, event skipped")
				}
			}
			b.mu.RUnlock()
		}
	}
}

// Broadcast queues event for all clients.
func (b *Broadcaster) Broadcast(event Event) {
	select {
	case b.events <- event:
	default:
		b.logger.Warn().Msg("SSE broadcast channel full, event dropped")
	}
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// ServeHTTP streams broadcast events to the client until it disconnects or
// the broadcaster stops.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sw, err := NewWriter(w)
	if err != nil {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	client := make(chan Event, constants.ClientBufferSize)
	select {
	case b.newClients <- client:
	case <-b.done:
		return
	}
	defer func() {
		select {
		case b.closed <- client:
		case <-b.done:
		}
	}()

	_ = sw.Write(Event{
		Event: "connected",
		Data: map[string]any{
			"message":   "Connected to plugin events stream",
			"timestamp": time.Now(),
		},
	})

	for {
		select {
		case event, ok := <-client:
			if !ok {
				return
			}
			if err := sw.Write(event); err != nil {
				b.logger.Debug().Err(err).Msg("SSE write failed")
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}
