package plugin

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/agentstation/dsplugin/internal/cache"
	"github.com/agentstation/dsplugin/pkg/backend"
	"github.com/agentstation/dsplugin/pkg/constants"
	"github.com/agentstation/dsplugin/pkg/data"
	"github.com/agentstation/dsplugin/pkg/errors"
	"github.com/agentstation/dsplugin/pkg/events"
)

// Query is the query model sent by the front end.
type Query struct {
	Path          *string `json:"path,omitempty"`
	Constant      float64 `json:"constant"`
	WithStreaming bool    `json:"withStreaming"`
}

// ParseQuery decodes the JSON of a data query. An empty payload is the zero
// query.
func ParseQuery(raw json.RawMessage) (Query, error) {
	var q Query
	if len(raw) == 0 {
		return q, nil
	}
	if err := json.Unmarshal(raw, &q); err != nil {
		return q, errors.WrapValidation("query", err)
	}
	return q, nil
}

// PathIs reports whether the query targets path.
func (q Query) PathIs(path string) bool {
	return q.Path != nil && *q.Path == path
}

// QueryData answers every query with the same three-row frame. A query
// whose JSON does not decode or whose frame fails validation gets an error
// response for its refID; the other queries are unaffected.
func (s *Service) QueryData(ctx context.Context, req *backend.QueryDataRequest) (*backend.QueryDataResponse, error) {
	uid := req.PluginContext.DatasourceUID()
	s.opts.logger.Info().Int("rows", 3).Int("queries", len(req.Queries)).Msg("Querying data")

	resp := backend.NewQueryDataResponse()
	for _, q := range req.Queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp.Responses[q.RefID] = s.query(uid, q)
	}

	s.opts.events.Publish(events.QueryExecuted, map[string]any{
		"datasource": uid,
		"queries":    len(req.Queries),
	})
	return resp, nil
}

func (s *Service) query(uid string, dq backend.DataQuery) backend.DataResponse {
	key := cache.Key(uid, dq.RefID, string(dq.JSON))
	if s.queries != nil {
		if frame, ok := s.queries.Get(key); ok {
			return backend.DataResponse{Frames: []*data.Frame{frame}}
		}
	}

	q, err := ParseQuery(dq.JSON)
	if err != nil {
		return backend.ErrDataResponse(http.StatusBadRequest, errors.WrapQuery(dq.RefID, err))
	}

	frame, err := s.buildFrame(uid, q).Check()
	if err != nil {
		s.opts.logger.Warn().Err(err).Str("ref_id", dq.RefID).Msg("Invalid frame")
		return backend.ErrDataResponse(http.StatusInternalServerError, errors.WrapQuery(dq.RefID, err))
	}

	if s.queries != nil {
		s.queries.Set(key, frame)
	}
	return backend.DataResponse{Frames: []*data.Frame{frame}}
}

// exampleFrame is the frame returned for every query. When the query asks
// for the stream path and a datasource is known, the frame is bound to the
// datasource's live channel.
func exampleFrame(uid string, q Query) *data.Frame {
	frame := data.NewFrame("foo",
		data.NewField("time", []time.Time{
			time.Date(2021, 1, 1, 12, 0, 0, 0, time.UTC),
			time.Date(2021, 1, 1, 12, 0, 1, 0, time.UTC),
			time.Date(2021, 1, 1, 12, 0, 2, 0, time.UTC),
		}),
		data.NewField("x", []uint32{1, 2, 3}),
		data.NewField("y", []string{"a", "b", "c"}),
	)
	if uid != "" && q.PathIs(constants.StreamPath) {
		frame.SetChannel(data.DatasourceChannel(uid, constants.StreamPath))
	}
	return frame
}
