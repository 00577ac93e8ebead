package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/agentstation/dsplugin/internal/server/response"
	"github.com/agentstation/dsplugin/pkg/backend"
	"github.com/agentstation/dsplugin/pkg/logging"
)

// maxRequestBody bounds query and resource request bodies.
const maxRequestBody = 1 << 20

// HandleQuery handles POST /api/v1/query.
// @Summary Query data
// @Description Runs a batch of data queries. Each query answers under its refId; a failed query does not fail the batch.
// @Tags data
// @Accept json
// @Produce json
// @Param datasource query string false "Data source UID"
// @Param request body backend.QueryDataRequest true "Queries"
// @Success 200 {object} response.Response{data=backend.QueryDataResponse}
// @Failure 400 {object} response.Response{error=response.Error}
// @Failure 501 {object} response.Response{error=response.Error}
// @Security ApiKeyAuth
// @Router /api/v1/query [post].
func (h *Handlers) HandleQuery(w http.ResponseWriter, r *http.Request) {
	var req backend.QueryDataRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid query request", err.Error())
		return
	}
	if len(req.Queries) == 0 {
		response.BadRequest(w, "No queries", "request must contain at least one query")
		return
	}

	pc := pluginContext(r)
	if req.PluginContext.DataSourceInstanceSettings == nil {
		req.PluginContext.DataSourceInstanceSettings = pc.DataSourceInstanceSettings
	}
	req.PluginContext.PluginID = pc.PluginID

	ctx := logging.WithOperation(logging.WithDatasource(r.Context(), req.PluginContext.DatasourceUID()), "query_data")
	resp, err := h.registry.QueryData(ctx, &req)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	for refID, dr := range resp.Responses {
		if dr.Error != nil {
			logging.FromContext(logging.WithRefID(ctx, refID)).Warn().Err(dr.Error).Msg("Query failed")
		}
	}
	response.OK(w, resp)
}
