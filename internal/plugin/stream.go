package plugin

import (
	"context"
	"fmt"

	"github.com/agentstation/dsplugin/pkg/backend"
	"github.com/agentstation/dsplugin/pkg/constants"
	"github.com/agentstation/dsplugin/pkg/data"
	"github.com/agentstation/dsplugin/pkg/errors"
	"github.com/agentstation/dsplugin/pkg/events"
	"github.com/agentstation/dsplugin/pkg/stream"
)

// SubscribeStream accepts subscriptions to the stream path only.
func (s *Service) SubscribeStream(_ context.Context, req *backend.SubscribeStreamRequest) (*backend.SubscribeStreamResponse, error) {
	s.opts.logger.Info().Str("path", req.Path).Msg("Subscribing to stream")
	if req.Path != constants.StreamPath {
		return &backend.SubscribeStreamResponse{Status: backend.SubscribeStreamStatusNotFound}, nil
	}
	s.opts.events.Publish(events.StreamSubscribed, streamEventData(req.PluginContext, req.Path))
	return &backend.SubscribeStreamResponse{Status: backend.SubscribeStreamStatusOK}, nil
}

// RunStream starts an infinite stream of frames for the stream path. Each
// packet carries a field x with the next three counter values. Packets are
// paced by the stream interval. Closing the returned handle logs the
// disconnect and publishes a stream.closed event.
func (s *Service) RunStream(_ context.Context, req *backend.RunStreamRequest) (*stream.Handle[backend.StreamPacket], error) {
	path := req.Path
	if path != constants.StreamPath {
		return nil, errors.NewNotFoundError("stream", path)
	}
	s.opts.logger.Info().Str("path", path).Msg("Running stream")

	packets := stream.Throttle(s.counterFrames(path), s.opts.streamInterval)

	uid := req.PluginContext.DatasourceUID()
	eventData := streamEventData(req.PluginContext, path)
	teardown := func() {
		s.opts.logger.Info().Msg(disconnectMessage(uid, path))
		s.opts.events.Publish(events.StreamClosed, eventData)
	}

	s.opts.events.Publish(events.StreamStarted, eventData)
	return stream.WithDisconnect(packets, teardown), nil
}

// PublishStream is not supported.
func (s *Service) PublishStream(_ context.Context, req *backend.PublishStreamRequest) (*backend.PublishStreamResponse, error) {
	s.opts.logger.Info().Str("path", req.Path).Msg("Publishing to stream")
	return &backend.PublishStreamResponse{Status: backend.PublishStreamStatusPermissionDenied}, nil
}

func (s *Service) counterFrames(path string) stream.Stream[backend.StreamPacket] {
	const n = constants.StreamBatchSize
	var x uint32
	frame := data.NewFrame("foo", data.NewField("x", []uint32{}))

	return stream.Generate(func(context.Context) (backend.StreamPacket, error) {
		values := make([]uint32, n)
		for i := range values {
			values[i] = x + uint32(i)
		}
		if err := frame.Fields[0].SetValues(values); err != nil {
			return backend.StreamPacket{}, errors.WrapStream(path, "error converting frame", err)
		}
		checked, err := frame.Check()
		if err != nil {
			return backend.StreamPacket{}, errors.WrapStream(path, "invalid frame returned", err)
		}
		packet, err := backend.PacketFromFrame(checked)
		if err != nil {
			return backend.StreamPacket{}, errors.WrapStream(path, "error converting frame", err)
		}
		s.opts.logger.Debug().Msgf("Yielding frame from %d to %d", x, x+n)
		x += n
		return packet, nil
	})
}

func disconnectMessage(uid, path string) string {
	if uid == "" {
		return fmt.Sprintf("client disconnected for path %s", path)
	}
	return fmt.Sprintf("client disconnected for datasource %s, path %s", uid, path)
}

func streamEventData(pc backend.PluginContext, path string) map[string]any {
	return map[string]any{
		"datasource": pc.DatasourceUID(),
		"path":       path,
	}
}
