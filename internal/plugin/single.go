package plugin

import (
	"context"

	"github.com/agentstation/dsplugin/pkg/backend"
	"github.com/agentstation/dsplugin/pkg/data"
)

// SingleFrameRefID is the refID of the only response SingleFrame produces.
const SingleFrameRefID = "A"

// SingleFrame is a data-only plugin. It ignores the request and answers
// with one frame under refID A.
type SingleFrame struct{}

var _ backend.QueryDataHandler = SingleFrame{}

// QueryData returns the example frame for refID A.
func (SingleFrame) QueryData(context.Context, *backend.QueryDataRequest) (*backend.QueryDataResponse, error) {
	frame, err := exampleFrame("", Query{}).Check()
	if err != nil {
		return nil, err
	}
	resp := backend.NewQueryDataResponse()
	resp.Responses[SingleFrameRefID] = backend.DataResponse{Frames: []*data.Frame{frame}}
	return resp, nil
}
