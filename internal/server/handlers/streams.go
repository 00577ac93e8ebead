package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/agentstation/dsplugin/internal/server/response"
	"github.com/agentstation/dsplugin/internal/server/sse"
	ws "github.com/agentstation/dsplugin/internal/server/websocket"
	"github.com/agentstation/dsplugin/pkg/backend"
	"github.com/agentstation/dsplugin/pkg/logging"
	"github.com/agentstation/dsplugin/pkg/stream"
)

// SSE event names of a live stream.
const (
	EventPacket = "packet"
	EventError  = "error"
	EventEnd    = "end"
)

// StreamMessage is a WebSocket message of a live stream.
type StreamMessage struct {
	Type      string          `json:"type"`
	Seq       int             `json:"seq,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// HandleSubscribe handles POST /api/v1/streams/{path}/subscribe.
// @Summary Subscribe to a stream
// @Description Asks the plugin whether the stream path can be subscribed to
// @Tags streams
// @Produce json
// @Param path path string true "Stream path"
// @Param datasource query string false "Data source UID"
// @Success 200 {object} response.Response{data=backend.SubscribeStreamResponse}
// @Failure 403 {object} response.Response{error=response.Error}
// @Failure 404 {object} response.Response{error=response.Error}
// @Security ApiKeyAuth
// @Router /api/v1/streams/{path}/subscribe [post].
func (h *Handlers) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")
	resp, err := h.registry.SubscribeStream(r.Context(), &backend.SubscribeStreamRequest{
		PluginContext: pluginContext(r),
		Path:          path,
	})
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	if !writeStreamStatus(w, resp.Status, path) {
		return
	}
	response.OK(w, resp)
}

// HandlePublish handles POST /api/v1/streams/{path}/publish.
// @Summary Publish to a stream
// @Description Publishes the request body to the stream path
// @Tags streams
// @Accept json
// @Produce json
// @Param path path string true "Stream path"
// @Success 200 {object} response.Response{data=backend.PublishStreamResponse}
// @Failure 403 {object} response.Response{error=response.Error}
// @Failure 404 {object} response.Response{error=response.Error}
// @Security ApiKeyAuth
// @Router /api/v1/streams/{path}/publish [post].
func (h *Handlers) HandlePublish(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		response.BadRequest(w, "Invalid request body", err.Error())
		return
	}
	resp, err := h.registry.PublishStream(r.Context(), &backend.PublishStreamRequest{
		PluginContext: pluginContext(r),
		Path:          path,
		Data:          body,
	})
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	if !writeStreamStatus(w, resp.Status, path) {
		return
	}
	response.OK(w, resp)
}

// HandleStreamSSE handles GET /api/v1/streams/{path}.
// @Summary Live stream (SSE)
// @Description Runs the stream and sends each packet as a "packet" event until the client disconnects or the stream ends
// @Tags streams
// @Produce text/event-stream
// @Param path path string true "Stream path"
// @Param datasource query string false "Data source UID"
// @Success 200 "Event stream"
// @Failure 404 {object} response.Response{error=response.Error}
// @Router /api/v1/streams/{path} [get].
func (h *Handlers) HandleStreamSSE(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	handle, ok := h.runStream(w, r)
	if !ok {
		return
	}
	defer handle.Close()

	h.activeStreams.Add(1)
	defer h.activeStreams.Add(-1)

	sw, err := sse.NewWriter(w)
	if err != nil {
		response.InternalError(w, err)
		return
	}

	logger := logging.FromContext(ctx)
	seq := 0
	for {
		packet, err := handle.Next(ctx)
		switch {
		case stderrors.Is(err, io.EOF):
			_ = sw.Write(sse.Event{Event: EventEnd, Data: map[string]any{"packets": seq}})
			return
		case ctx.Err() != nil:
			return
		case err != nil:
			logger.Warn().Err(err).Msg("Stream item failed")
			if sw.Write(sse.Event{Event: EventError, Data: map[string]any{"error": err.Error()}}) != nil {
				return
			}
			continue
		}
		seq++
		if err := sw.Write(sse.Event{Event: EventPacket, ID: strconv.Itoa(seq), Data: packet.Data}); err != nil {
			logger.Debug().Err(err).Msg("SSE write failed")
			return
		}
	}
}

// HandleStreamWebSocket handles GET /api/v1/streams/{path}/ws.
// @Summary Live stream (WebSocket)
// @Description Runs the stream and sends each packet as a JSON message until the peer disconnects or the stream ends
// @Tags streams
// @Param path path string true "Stream path"
// @Param datasource query string false "Data source UID"
// @Success 101 "Switching Protocols"
// @Failure 404 {object} response.Response{error=response.Error}
// @Router /api/v1/streams/{path}/ws [get].
func (h *Handlers) HandleStreamWebSocket(w http.ResponseWriter, r *http.Request) {
	handle, ok := h.runStream(w, r)
	if !ok {
		return
	}
	defer handle.Close()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	session := ws.NewSession(r.Context(), conn)
	closeCode, reason := websocket.CloseGoingAway, "server closing stream"
	defer func() { _ = session.Close(closeCode, reason) }()

	h.activeStreams.Add(1)
	defer h.activeStreams.Add(-1)

	ctx := session.Context()
	logger := logging.FromContext(r.Context())
	seq := 0
	for {
		packet, err := handle.Next(ctx)
		switch {
		case stderrors.Is(err, io.EOF):
			closeCode, reason = websocket.CloseNormalClosure, "stream ended"
			return
		case ctx.Err() != nil:
			return
		case err != nil:
			logger.Warn().Err(err).Msg("Stream item failed")
			if session.WriteJSON(StreamMessage{Type: EventError, Timestamp: time.Now(), Error: err.Error()}) != nil {
				return
			}
			continue
		}
		seq++
		msg := StreamMessage{Type: EventPacket, Seq: seq, Timestamp: time.Now(), Data: packet.Data}
		if err := session.WriteJSON(msg); err != nil {
			logger.Debug().Err(err).Msg("WebSocket write failed")
			return
		}
	}
}

// runStream subscribes to and runs the stream named by the path value of r.
// On failure it writes the error response and returns false.
func (h *Handlers) runStream(w http.ResponseWriter, r *http.Request) (*stream.Handle[backend.StreamPacket], bool) {
	path := r.PathValue("path")
	pc := pluginContext(r)
	ctx := logging.WithOperation(logging.WithStreamPath(logging.WithDatasource(r.Context(), pc.DatasourceUID()), path), "run_stream")

	sub, err := h.registry.SubscribeStream(ctx, &backend.SubscribeStreamRequest{PluginContext: pc, Path: path})
	if err != nil {
		response.ErrorFromType(w, err)
		return nil, false
	}
	if sub.Status != backend.SubscribeStreamStatusOK {
		writeStreamStatus(w, sub.Status, path)
		return nil, false
	}

	handle, err := h.registry.RunStream(ctx, &backend.RunStreamRequest{PluginContext: pc, Path: path})
	if err != nil {
		response.ErrorFromType(w, err)
		return nil, false
	}
	return handle, true
}

// writeStreamStatus writes the error response for a non-OK status and
// reports whether the status was OK.
func writeStreamStatus(w http.ResponseWriter, status backend.SubscribeStreamStatus, path string) bool {
	switch status {
	case backend.SubscribeStreamStatusOK:
		return true
	case backend.SubscribeStreamStatusNotFound:
		response.NotFound(w, "Stream not found", path)
	case backend.SubscribeStreamStatusPermissionDenied:
		response.Forbidden(w, "Permission denied", path)
	default:
		response.InternalError(w, nil)
	}
	return false
}
