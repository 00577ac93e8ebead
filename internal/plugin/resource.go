package plugin

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/agentstation/dsplugin/pkg/backend"
	"github.com/agentstation/dsplugin/pkg/errors"
	"github.com/agentstation/dsplugin/pkg/events"
	"github.com/agentstation/dsplugin/pkg/stream"
)

type resourceResult struct {
	resp   *backend.CallResourceResponse
	chunks stream.Stream[[]byte]
}

type resultKey struct{}

// CallResource routes the request through the resource router. /echo
// returns the request body. /count returns the next counter value and then
// streams further values until the caller stops reading. Anything else is a
// 404 ResourceError.
func (s *Service) CallResource(ctx context.Context, req *backend.CallResourceRequest) (*backend.CallResourceResponse, stream.Stream[[]byte], error) {
	path := "/" + strings.Trim(req.Path, "/")
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	result := &resourceResult{}
	httpReq, err := http.NewRequestWithContext(context.WithValue(ctx, resultKey{}, result), method, path, bytes.NewReader(req.Body))
	if err != nil {
		return nil, nil, errors.NewResourceError(path, http.StatusBadRequest, err)
	}
	for k, vs := range req.Headers {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	rec := &statusRecorder{header: make(http.Header), code: http.StatusOK}
	s.router.ServeHTTP(rec, httpReq)

	s.opts.events.Publish(events.ResourceCalled, map[string]any{
		"datasource": req.PluginContext.DatasourceUID(),
		"path":       path,
		"status":     rec.code,
	})

	if result.resp == nil {
		status := rec.code
		if status < http.StatusBadRequest {
			status = http.StatusInternalServerError
		}
		return nil, nil, errors.NewResourceError(path, status, nil)
	}
	return result.resp, result.chunks, nil
}

func (s *Service) resourceRouter() chi.Router {
	r := chi.NewRouter()
	r.HandleFunc("/echo", s.echo)
	r.HandleFunc("/count", s.count)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
	return r
}

func (s *Service) echo(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	setResult(r, &backend.CallResourceResponse{Status: http.StatusOK, Body: body}, stream.Empty[[]byte]())
}

func (s *Service) count(_ http.ResponseWriter, r *http.Request) {
	initial := s.nextCount()
	chunks := stream.Throttle(stream.Generate(func(context.Context) ([]byte, error) {
		return s.nextCount(), nil
	}), s.opts.chunkInterval)
	setResult(r, &backend.CallResourceResponse{Status: http.StatusOK, Body: initial}, chunks)
}

// nextCount returns the current counter value and advances it.
func (s *Service) nextCount() []byte {
	v := s.counter.Add(1) - 1
	return []byte(strconv.FormatUint(v, 10))
}

func setResult(r *http.Request, resp *backend.CallResourceResponse, chunks stream.Stream[[]byte]) {
	if result, ok := r.Context().Value(resultKey{}).(*resourceResult); ok {
		result.resp = resp
		result.chunks = chunks
	}
}

// statusRecorder captures the status the router wrote. Resource handlers
// hand their response back through the request context instead.
type statusRecorder struct {
	header http.Header
	code   int
}

func (r *statusRecorder) Header() http.Header         { return r.header }
func (r *statusRecorder) Write(b []byte) (int, error) { return len(b), nil }
func (r *statusRecorder) WriteHeader(code int)        { r.code = code }
