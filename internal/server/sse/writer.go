package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Event is one Server-Sent Event.
type Event struct {
	Event string `json:"event,omitempty"`
	ID    string `json:"id,omitempty"`
	Data  any    `json:"data"`
}

// Writer writes events to a single streaming response.
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewWriter sets the event-stream headers and returns a Writer. It fails if
// the response cannot be flushed.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported by %T", w)
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &Writer{w: w, flusher: flusher}, nil
}

// Write sends event and flushes it. json.RawMessage data is written as is.
func (sw *Writer) Write(event Event) error {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return err
	}
	if event.Event != "" {
		if _, err := fmt.Fprintf(sw.w, "event: %s\n", event.Event); err != nil {
			return err
		}
	}
	if event.ID != "" {
		if _, err := fmt.Fprintf(sw.w, "id: %s\n", event.ID); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(sw.w, "data: %s\n\n", data); err != nil {
		return err
	}
	sw.flusher.Flush()
	return nil
}
