package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/agentstation/dsplugin/pkg/data"
)

// QueryDataHandler handles data queries.
type QueryDataHandler interface {
	QueryData(ctx context.Context, req *QueryDataRequest) (*QueryDataResponse, error)
}

// DataQuery is a single query of a QueryDataRequest. JSON holds the
// plugin-specific query model.
type DataQuery struct {
	RefID         string          `json:"refId"`
	QueryType     string          `json:"queryType,omitempty"`
	MaxDataPoints int64           `json:"maxDataPoints,omitempty"`
	Interval      time.Duration   `json:"interval,omitempty"`
	TimeRange     TimeRange       `json:"timeRange"`
	JSON          json.RawMessage `json:"json,omitempty"`
}

// QueryDataRequest is a batch of queries.
type QueryDataRequest struct {
	PluginContext PluginContext     `json:"pluginContext"`
	Headers       map[string]string `json:"headers,omitempty"`
	Queries       []DataQuery       `json:"queries"`
}

// DataResponse is the result of a single query. A failed query carries Error
// and no frames.
type DataResponse struct {
	Frames []*data.Frame `json:"frames,omitempty"`
	Error  error         `json:"-"`
	Status int           `json:"status,omitempty"`
}

// ErrDataResponse returns a failed response with the given status.
func ErrDataResponse(status int, err error) DataResponse {
	return DataResponse{Error: err, Status: status}
}

// MarshalJSON encodes the error as a string.
func (r DataResponse) MarshalJSON() ([]byte, error) {
	type alias DataResponse
	out := struct {
		alias
		Error string `json:"error,omitempty"`
	}{alias: alias(r)}
	if r.Error != nil {
		out.Error = r.Error.Error()
		if out.Status == 0 {
			out.Status = http.StatusInternalServerError
		}
	}
	return json.Marshal(out)
}

// Responses maps refID to the response for that query.
type Responses map[string]DataResponse

// QueryDataResponse holds the responses of a QueryDataRequest keyed by refID.
type QueryDataResponse struct {
	Responses Responses `json:"results"`
}

// NewQueryDataResponse returns an empty response.
func NewQueryDataResponse() *QueryDataResponse {
	return &QueryDataResponse{Responses: make(Responses)}
}
