package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/dsplugin/pkg/data"
	pkgerrors "github.com/agentstation/dsplugin/pkg/errors"
	"github.com/agentstation/dsplugin/pkg/stream"
)

type dataOnly struct{}

func (dataOnly) QueryData(_ context.Context, req *QueryDataRequest) (*QueryDataResponse, error) {
	resp := NewQueryDataResponse()
	for _, q := range req.Queries {
		resp.Responses[q.RefID] = DataResponse{Frames: []*data.Frame{data.NewFrame(q.RefID)}}
	}
	return resp, nil
}

type streamOnly struct{ closed chan struct{} }

func (s *streamOnly) SubscribeStream(context.Context, *SubscribeStreamRequest) (*SubscribeStreamResponse, error) {
	return &SubscribeStreamResponse{Status: SubscribeStreamStatusOK}, nil
}

func (s *streamOnly) RunStream(context.Context, *RunStreamRequest) (*stream.Handle[StreamPacket], error) {
	return stream.WithDisconnect(stream.Empty[StreamPacket](), func() { close(s.closed) }), nil
}

func (s *streamOnly) PublishStream(context.Context, *PublishStreamRequest) (*PublishStreamResponse, error) {
	return &PublishStreamResponse{Status: PublishStreamStatusPermissionDenied}, nil
}

func TestRegistry_Capabilities(t *testing.T) {
	t.Run("data only", func(t *testing.T) {
		r := NewRegistry(dataOnly{})
		assert.Equal(t, []Capability{CapabilityData}, r.Capabilities())
		assert.True(t, r.Has(CapabilityData))
		assert.False(t, r.Has(CapabilityStream))
		assert.False(t, r.Has(Capability("bogus")))
	})

	t.Run("stream only", func(t *testing.T) {
		r := NewRegistry(&streamOnly{})
		assert.Equal(t, []Capability{CapabilityStream}, r.Capabilities())
	})

	t.Run("nothing", func(t *testing.T) {
		r := NewRegistry(struct{}{})
		assert.Empty(t, r.Capabilities())
	})
}

func TestRegistry_MissingCapability(t *testing.T) {
	r := NewRegistry(dataOnly{})
	ctx := context.Background()

	_, err := r.RunStream(ctx, &RunStreamRequest{Path: "stream"})
	assert.True(t, pkgerrors.IsNotImplemented(err))

	_, _, err = r.CallResource(ctx, &CallResourceRequest{Path: "echo"})
	var capErr *pkgerrors.CapabilityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, "resource", capErr.Capability)

	health, err := r.CheckHealth(ctx, &CheckHealthRequest{})
	require.NoError(t, err)
	assert.Equal(t, HealthStatusOK, health.Status)

	_, err = NewRegistry(&streamOnly{}).QueryData(ctx, &QueryDataRequest{})
	assert.True(t, pkgerrors.IsNotImplemented(err))
}

func TestRegistry_Dispatch(t *testing.T) {
	ctx := context.Background()

	resp, err := NewRegistry(dataOnly{}).QueryData(ctx, &QueryDataRequest{Queries: []DataQuery{{RefID: "A"}, {RefID: "B"}}})
	require.NoError(t, err)
	assert.Len(t, resp.Responses, 2)
	assert.Equal(t, "B", resp.Responses["B"].Frames[0].Name)

	plugin := &streamOnly{closed: make(chan struct{})}
	r := NewRegistry(plugin)
	h, err := r.RunStream(ctx, &RunStreamRequest{Path: "stream"})
	require.NoError(t, err)
	require.NoError(t, h.Close())
	<-plugin.closed

	pub, err := r.PublishStream(ctx, &PublishStreamRequest{Path: "stream"})
	require.NoError(t, err)
	assert.Equal(t, PublishStreamStatusPermissionDenied, pub.Status)
}

func TestDataResponse_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(ErrDataResponse(0, errors.New("boom")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"boom","status":500}`, string(b))

	b, err = json.Marshal(DataResponse{Frames: []*data.Frame{data.NewFrame("foo")}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"frames":[{"name":"foo","fields":null}]}`, string(b))
}

func TestStreamPacket_Frame(t *testing.T) {
	frame := data.NewFrame("foo", data.NewField("x", []uint32{1, 2, 3}))
	packet, err := PacketFromFrame(frame)
	require.NoError(t, err)

	decoded, err := packet.Frame()
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2, 3}, decoded.Fields[0].Values)
}

func TestSubscribeStreamStatus_JSON(t *testing.T) {
	b, err := json.Marshal(SubscribeStreamResponse{Status: SubscribeStreamStatusNotFound})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"not_found"}`, string(b))
}

func TestCallResourceResponse_StatusCode(t *testing.T) {
	assert.Equal(t, http.StatusOK, (&CallResourceResponse{}).StatusCode())
	assert.Equal(t, http.StatusTeapot, (&CallResourceResponse{Status: http.StatusTeapot}).StatusCode())
}

func TestPluginContext_DatasourceUID(t *testing.T) {
	assert.Equal(t, "", PluginContext{}.DatasourceUID())
	pc := PluginContext{DataSourceInstanceSettings: &DataSourceInstanceSettings{UID: "abc"}}
	assert.Equal(t, "abc", pc.DatasourceUID())
}
