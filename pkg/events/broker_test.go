package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSubscriber struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

func (r *recordingSubscriber) Send(event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSubscriber) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *recordingSubscriber) Types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]EventType, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type
	}
	return types
}

func (r *recordingSubscriber) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func startBroker(t *testing.T) (*Broker, context.CancelFunc) {
	t.Helper()
	logger := zerolog.Nop()
	b := NewBroker(&logger)
	ctx, cancel := context.WithCancel(context.Background())
	go b.Run(ctx)
	t.Cleanup(cancel)
	return b, cancel
}

func TestBroker_PublishInOrder(t *testing.T) {
	b, _ := startBroker(t)
	sub := &recordingSubscriber{}
	b.Subscribe(sub)
	require.Eventually(t, func() bool { return b.SubscriberCount() == 1 }, time.Second, 5*time.Millisecond)

	b.Publish(StreamStarted, map[string]any{"path": "stream"})
	b.Publish(StreamClosed, map[string]any{"path": "stream"})

	require.Eventually(t, func() bool { return len(sub.Types()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []EventType{StreamStarted, StreamClosed}, sub.Types())
}

func TestBroker_Unsubscribe(t *testing.T) {
	b, _ := startBroker(t)
	sub := &recordingSubscriber{}
	b.Subscribe(sub)
	b.Unsubscribe(sub)

	require.Eventually(t, sub.Closed, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, b.SubscriberCount())
}

func TestBroker_Shutdown(t *testing.T) {
	b, cancel := startBroker(t)
	first, second := &recordingSubscriber{}, &recordingSubscriber{}
	b.Subscribe(first)
	b.Subscribe(second)
	require.Eventually(t, func() bool { return b.SubscriberCount() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	require.Eventually(t, func() bool { return first.Closed() && second.Closed() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, b.SubscriberCount())

	// Subscribing to a stopped broker returns immediately.
	done := make(chan struct{})
	go func() {
		b.Subscribe(&recordingSubscriber{})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Subscribe blocked after shutdown")
	}
}

func TestBroker_SubscribeBeforeRun(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroker(&logger)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			b.Subscribe(&recordingSubscriber{})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Subscribe blocked before Run")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)
	assert.Eventually(t, func() bool { return b.SubscriberCount() == 5 }, time.Second, 5*time.Millisecond)
}

func TestBroker_PublishDropsWhenFull(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroker(&logger)
	for i := 0; i < cap(b.events)+10; i++ {
		b.Publish(QueryExecuted, i)
	}
	assert.Len(t, b.events, cap(b.events))
}

func TestBrokerAsPublisher(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroker(&logger)
	sub := &recordingSubscriber{}
	b.Subscribe(sub)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	var p Publisher = b
	p.Publish(QueryExecuted, map[string]any{"queries": 1})
	assert.Eventually(t, func() bool {
		types := sub.Types()
		return len(types) == 1 && types[0] == QueryExecuted
	}, time.Second, 5*time.Millisecond)
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() { Discard.Publish(ResourceCalled, nil) })
}
