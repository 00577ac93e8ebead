package sse

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// TestBroadcaster_BasicOperation tests registering a client and broadcasting.
func TestBroadcaster_BasicOperation(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroadcaster(&logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go b.Run(ctx)

	client := make(chan Event, 16)
	b.newClients <- client
	waitFor(t, func() bool { return b.ClientCount() == 1 })

	b.Broadcast(Event{Event: "stream.closed", Data: map[string]any{"path": "stream"}})

	select {
	case received := <-client:
		if received.Event != "stream.closed" {
			t.Errorf("expected event stream.closed, got %s", received.Event)
		}
	case <-time.After(time.Second):
		t.Fatal("client did not receive event")
	}
}

// TestBroadcaster_Shutdown tests that shutdown closes client channels.
func TestBroadcaster_Shutdown(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroadcaster(&logger)

	ctx, cancel := context.WithCancel(context.Background())
	go b.Run(ctx)

	client := make(chan Event, 1)
	b.newClients <- client
	waitFor(t, func() bool { return b.ClientCount() == 1 })

	cancel()
	select {
	case _, ok := <-client:
		if ok {
			t.Error("expected closed client channel")
		}
	case <-time.After(time.Second):
		t.Fatal("client channel not closed on shutdown")
	}
	if count := b.ClientCount(); count != 0 {
		t.Errorf("expected 0 clients, got %d", count)
	}
}

// TestBroadcaster_ServeHTTP tests the full SSE round trip.
func TestBroadcaster_ServeHTTP(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroadcaster(&logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	srv := httptest.NewServer(b)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected text/event-stream, got %s", ct)
	}

	reader := bufio.NewReader(resp.Body)
	if line := readLine(t, reader); line != "event: connected" {
		t.Fatalf("expected connected event, got %q", line)
	}
	readLine(t, reader) // data
	readLine(t, reader) // blank

	waitFor(t, func() bool { return b.ClientCount() == 1 })
	b.Broadcast(Event{Event: "query.executed", ID: "7", Data: map[string]int{"queries": 2}})

	if line := readLine(t, reader); line != "event: query.executed" {
		t.Fatalf("unexpected line %q", line)
	}
	if line := readLine(t, reader); line != "id: 7" {
		t.Fatalf("unexpected line %q", line)
	}
	data := strings.TrimPrefix(readLine(t, reader), "data: ")
	var payload map[string]int
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		t.Fatalf("bad data %q: %v", data, err)
	}
	if payload["queries"] != 2 {
		t.Errorf("unexpected payload %v", payload)
	}
}

// TestBroadcaster_ServeHTTPAfterStop tests that clients arriving after the
// broadcaster stopped are turned away instead of blocking.
func TestBroadcaster_ServeHTTPAfterStop(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroadcaster(&logger)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 25; i++ {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			b.ServeHTTP(httptest.NewRecorder(), req)
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ServeHTTP blocked after the broadcaster stopped")
	}
	if count := b.ClientCount(); count != 0 {
		t.Errorf("expected 0 clients, got %d", count)
	}
}

// TestNewWriter_RequiresFlusher tests that non-flushable writers are rejected.
func TestNewWriter_RequiresFlusher(t *testing.T) {
	if _, err := NewWriter(plainWriter{httptest.NewRecorder()}); err == nil {
		t.Fatal("expected error for non-flushable writer")
	}
}

// TestWriter_RawJSON tests that raw JSON data is written verbatim.
func TestWriter_RawJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	sw, err := NewWriter(rec)
	if err != nil {
		t.Fatal(err)
	}
	if err := sw.Write(Event{Event: "packet", Data: json.RawMessage(`{"x":[1,2,3]}`)}); err != nil {
		t.Fatal(err)
	}
	want := "event: packet\ndata: {\"x\":[1,2,3]}\n\n"
	if rec.Body.String() != want {
		t.Errorf("expected %q, got %q", want, rec.Body.String())
	}
	if !rec.Flushed {
		t.Error("expected flush")
	}
}

type plainWriter struct{ w http.ResponseWriter }

func (p plainWriter) Header() http.Header         { return p.w.Header() }
func (p plainWriter) Write(b []byte) (int, error) { return p.w.Write(b) }
func (p plainWriter) WriteHeader(code int)        { p.w.WriteHeader(code) }

func readLine(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return strings.TrimRight(line, "\n")
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
