package backend

import (
	"context"
	"encoding/json"

	"github.com/agentstation/dsplugin/pkg/data"
	"github.com/agentstation/dsplugin/pkg/stream"
)

// StreamHandler handles live streams.
//
// RunStream returns a handle the caller owns. The caller must Close it when
// the subscriber goes away; closing it runs the plugin's teardown.
type StreamHandler interface {
	SubscribeStream(ctx context.Context, req *SubscribeStreamRequest) (*SubscribeStreamResponse, error)
	RunStream(ctx context.Context, req *RunStreamRequest) (*stream.Handle[StreamPacket], error)
	PublishStream(ctx context.Context, req *PublishStreamRequest) (*PublishStreamResponse, error)
}

// SubscribeStreamStatus is the outcome of a subscription request.
type SubscribeStreamStatus int

const (
	SubscribeStreamStatusOK SubscribeStreamStatus = iota
	SubscribeStreamStatusNotFound
	SubscribeStreamStatusPermissionDenied
)

// String returns the status name.
func (s SubscribeStreamStatus) String() string {
	switch s {
	case SubscribeStreamStatusOK:
		return "ok"
	case SubscribeStreamStatusNotFound:
		return "not_found"
	case SubscribeStreamStatusPermissionDenied:
		return "permission_denied"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the status by name.
func (s SubscribeStreamStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// PublishStreamStatus is the outcome of a publish request.
type PublishStreamStatus = SubscribeStreamStatus

// Publish statuses.
const (
	PublishStreamStatusOK               = SubscribeStreamStatusOK
	PublishStreamStatusNotFound         = SubscribeStreamStatusNotFound
	PublishStreamStatusPermissionDenied = SubscribeStreamStatusPermissionDenied
)

// SubscribeStreamRequest asks whether a subscriber may join a stream path.
type SubscribeStreamRequest struct {
	PluginContext PluginContext `json:"pluginContext"`
	Path          string        `json:"path"`
}

// SubscribeStreamResponse answers a SubscribeStreamRequest.
type SubscribeStreamResponse struct {
	Status      SubscribeStreamStatus `json:"status"`
	InitialData *data.Frame           `json:"initialData,omitempty"`
}

// RunStreamRequest starts producing packets for a stream path.
type RunStreamRequest struct {
	PluginContext PluginContext `json:"pluginContext"`
	Path          string        `json:"path"`
}

// PublishStreamRequest publishes data to a stream path.
type PublishStreamRequest struct {
	PluginContext PluginContext   `json:"pluginContext"`
	Path          string          `json:"path"`
	Data          json.RawMessage `json:"data,omitempty"`
}

// PublishStreamResponse answers a PublishStreamRequest.
type PublishStreamResponse struct {
	Status PublishStreamStatus `json:"status"`
	Data   json.RawMessage     `json:"data,omitempty"`
}

// StreamPacket is one unit of stream output: a JSON encoded frame.
type StreamPacket struct {
	Data json.RawMessage `json:"data"`
}

// PacketFromFrame encodes a frame as a stream packet.
func PacketFromFrame(frame *data.Frame) (StreamPacket, error) {
	b, err := json.Marshal(frame)
	if err != nil {
		return StreamPacket{}, err
	}
	return StreamPacket{Data: b}, nil
}

// Frame decodes the frame carried by the packet.
func (p StreamPacket) Frame() (*data.Frame, error) {
	var frame data.Frame
	if err := json.Unmarshal(p.Data, &frame); err != nil {
		return nil, err
	}
	return &frame, nil
}
