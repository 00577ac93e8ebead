package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	logger := zerolog.Nop()
	hub := NewHub(&logger)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub, cancel
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met")
}

// TestHub_BasicOperation tests registration and broadcast.
func TestHub_BasicOperation(t *testing.T) {
	hub, _ := startHub(t)

	client := NewClient("test-1", hub, nil)
	hub.Register(client)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Broadcast(Message{Type: "stream.started", Timestamp: time.Now(), Data: map[string]any{"path": "stream"}})

	select {
	case received := <-client.send:
		if received.Type != "stream.started" {
			t.Errorf("expected type stream.started, got %s", received.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("client did not receive message")
	}
	if client.ID() != "test-1" {
		t.Errorf("unexpected id %s", client.ID())
	}
}

// TestHub_Shutdown tests graceful shutdown.
func TestHub_Shutdown(t *testing.T) {
	hub, cancel := startHub(t)

	client1 := NewClient("test-1", hub, nil)
	client2 := NewClient("test-2", hub, nil)
	hub.Register(client1)
	hub.Register(client2)
	waitFor(t, func() bool { return hub.ClientCount() == 2 })

	cancel()
	waitFor(t, func() bool { return hub.ClientCount() == 0 })

	if _, ok := <-client1.send; ok {
		t.Error("expected client send channel to be closed")
	}
}

// TestHub_Unregister tests removing a client.
func TestHub_Unregister(t *testing.T) {
	hub, _ := startHub(t)
	client := NewClient("gone", hub, nil)
	hub.Register(client)
	hub.Unregister(client)
	waitFor(t, func() bool { return hub.ClientCount() == 0 })

	// Unregistering an unknown client is a no-op.
	hub.Unregister(NewClient("unknown", hub, nil))
}

// TestHub_MessageOrdering tests that messages keep their order per client.
func TestHub_MessageOrdering(t *testing.T) {
	hub, _ := startHub(t)
	client := NewClient("test", hub, nil)
	hub.Register(client)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	const numMessages = 20
	for i := 0; i < numMessages; i++ {
		hub.Broadcast(Message{Type: "ordered", Data: i})
	}

	for i := 0; i < numMessages; i++ {
		select {
		case msg := <-client.send:
			if msg.Data.(int) != i {
				t.Fatalf("expected seq=%d, got %v", i, msg.Data)
			}
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for message %d", i)
		}
	}
}

// TestHub_SlowClientDropped tests that a client with a full buffer is removed.
func TestHub_SlowClientDropped(t *testing.T) {
	hub, _ := startHub(t)
	slow := &Client{id: "slow", hub: hub, send: make(chan Message, 1)}
	hub.Register(slow)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Broadcast(Message{Type: "a"})
	hub.Broadcast(Message{Type: "b"})
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
}

// TestHub_Pumps tests a real connection through the read and write pumps.
func TestHub_Pumps(t *testing.T) {
	hub, _ := startHub(t)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient("pump", hub, conn)
		hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Broadcast(Message{Type: "resource.called", Data: "echo"})
	var msg Message
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if msg.Type != "resource.called" {
		t.Errorf("unexpected type %s", msg.Type)
	}

	_ = conn.Close()
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
}

// TestHub_RegisterAfterStop tests that Register and Unregister return once
// the hub has stopped, even past the queue capacity.
func TestHub_RegisterAfterStop(t *testing.T) {
	logger := zerolog.Nop()
	hub := NewHub(&logger)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	done := make(chan struct{})
	clients := make([]*Client, 25)
	go func() {
		defer close(done)
		for i := range clients {
			clients[i] = NewClient("late", hub, nil)
			hub.Register(clients[i])
			hub.Unregister(clients[i])
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Register blocked after the hub stopped")
	}
	for _, c := range clients {
		if _, ok := <-c.send; ok {
			t.Fatal("expected late client send channel to be closed")
		}
	}
	if hub.ClientCount() != 0 {
		t.Errorf("expected no clients, got %d", hub.ClientCount())
	}
}
