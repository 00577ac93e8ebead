package handlers

import (
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	"github.com/agentstation/dsplugin/internal/server/response"
	"github.com/agentstation/dsplugin/pkg/backend"
	"github.com/agentstation/dsplugin/pkg/logging"
	"github.com/agentstation/dsplugin/pkg/stream"
)

// chunkSeparator precedes every streamed resource chunk.
var chunkSeparator = []byte("\n")

// HandleResource handles /api/v1/resources/{path...} for any method.
// @Summary Call a plugin resource
// @Description Forwards the request to the plugin. The initial response is written first, then further body chunks are flushed as the plugin produces them, each on its own line.
// @Tags resources
// @Param path path string true "Resource path"
// @Param datasource query string false "Data source UID"
// @Param chunks query integer false "Stop after this many streamed chunks (0 means no limit)"
// @Success 200 "Resource response"
// @Failure 404 {object} response.Response{error=response.Error}
// @Failure 501 {object} response.Response{error=response.Error}
// @Security ApiKeyAuth
// @Router /api/v1/resources/{path} [get].
func (h *Handlers) HandleResource(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("chunks"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			response.BadRequest(w, "Invalid chunks parameter", "chunks must be a non-negative integer")
			return
		}
		limit = n
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		response.BadRequest(w, "Invalid request body", err.Error())
		return
	}

	path := r.PathValue("path")
	ctx := logging.WithOperation(r.Context(), "call_resource")
	logger := logging.FromContext(ctx)

	resp, chunks, err := h.registry.CallResource(ctx, &backend.CallResourceRequest{
		PluginContext: pluginContext(r),
		Path:          path,
		Method:        r.Method,
		URL:           r.URL.String(),
		Headers:       r.Header.Clone(),
		Body:          body,
	})
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	if chunks == nil {
		chunks = stream.Empty[[]byte]()
	}
	handle := stream.WithDisconnect(chunks, func() {
		logger.Debug().Str("path", path).Msg("Resource stream closed")
	})
	defer handle.Close()

	for k, vs := range resp.Headers {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode())
	if _, err := w.Write(resp.Body); err != nil {
		return
	}
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	for sent := 0; limit == 0 || sent < limit; sent++ {
		chunk, err := handle.Next(ctx)
		if stderrors.Is(err, io.EOF) || ctx.Err() != nil {
			return
		}
		if err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("Resource chunk failed")
			return
		}
		if _, err := w.Write(chunkSeparator); err != nil {
			return
		}
		if _, err := w.Write(chunk); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}
