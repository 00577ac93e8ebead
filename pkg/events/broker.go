package events

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/dsplugin/pkg/constants"
)

var _ Publisher = (*Broker)(nil)

// Broker fans published events out to its subscribers.
type Broker struct {
	subscribers []Subscriber
	events      chan Event
	register    chan Subscriber
	unregister  chan Subscriber
	done        chan struct{}
	mu          sync.RWMutex
	logger      *zerolog.Logger
	now         func() time.Time
}

// NewBroker creates a broker. Call Run to start delivering events.
func NewBroker(logger *zerolog.Logger) *Broker {
	return &Broker{
		events:     make(chan Event, constants.EventBufferSize),
		register:   make(chan Subscriber, 16),
		unregister: make(chan Subscriber, 16),
		done:       make(chan struct{}),
		logger:     logger,
		now:        time.Now,
	}
}

// Run delivers events until ctx is done, then closes every subscriber.
func (b *Broker) Run(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case <-ctx.Done():
			b.mu.Lock()
			for _, sub := range b.subscribers {
				_ = sub.Close()
			}
			b.subscribers = nil
			b.mu.Unlock()
			b.logger.Info().Msg("Event broker shut down")
			return

		case sub := <-b.register:
			b.mu.Lock()
			b.subscribers = append(b.subscribers, sub)
			total := len(b.subscribers)
			b.mu.Unlock()
			b.logger.Debug().Int("total_subscribers", total).Msg("Subscriber registered")

		case sub := <-b.unregister:
			b.mu.Lock()
			for i, s := range b.subscribers {
				if s == sub {
					b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
					_ = s.Close()
					break
				}
			}
			total := len(b.subscribers)
			b.mu.Unlock()
			b.logger.Debug().Int("total_subscribers", total).Msg("Subscriber unregistered")

		case event := <-b.events:
			b.dispatch(event)
		}
	}
}

func (b *Broker) dispatch(event Event) {
	b.mu.RLock()
	subs := make([]Subscriber, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.RUnlock()

	for _, sub := range subs {
		if err := sub.Send(event); err != nil {
			b.logger.Warn().
				Err(err).
				Str("event_type", string(event.Type)).
				Msg("Failed to send event to subscriber")
		}
	}

	b.logger.Debug().
		Str("event_type", string(event.Type)).
		Int("subscribers", len(subs)).
		Msg("Event broadcasted")
}

// Publish queues an event. Events are dropped when the queue is full.
func (b *Broker) Publish(eventType EventType, data any) {
	event := Event{Type: eventType, Timestamp: b.now(), Data: data}
	select {
	case b.events <- event:
	default:
		b.logger.Warn().
			Str("event_type", string(eventType)).
			Msg("Event channel full, event dropped")
	}
}

// Subscribe registers sub. It does not block before Run starts and is a
// no-op once the broker has stopped.
func (b *Broker) Subscribe(sub Subscriber) {
	select {
	case b.register <- sub:
	case <-b.done:
	}
}

// Unsubscribe removes and closes sub.
func (b *Broker) Unsubscribe(sub Subscriber) {
	select {
	case b.unregister <- sub:
	case <-b.done:
	}
}

// SubscriberCount returns the number of registered subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
