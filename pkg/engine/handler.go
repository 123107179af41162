package engine

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/getmockd/mockapi/pkg/endpoint"
	"github.com/getmockd/mockapi/pkg/httputil"
	"github.com/getmockd/mockapi/pkg/logging"
	"github.com/getmockd/mockapi/pkg/query"
)

// MaxRequestBodySize is the default limit for mock request bodies (10MB).
const MaxRequestBodySize = 10 << 20

// Handler serves mock traffic: /{project}/{route}[/...].
type Handler struct {
	pipeline    *Pipeline
	log         *slog.Logger
	maxBodySize int64
}

// NewHandler creates a Handler running requests through p.
func NewHandler(p *Pipeline, log *slog.Logger, maxBodySize int64) *Handler {
	if maxBodySize <= 0 {
		maxBodySize = MaxRequestBodySize
	}
	return &Handler{pipeline: p, log: logging.OrNop(log), maxBodySize: maxBodySize}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	received := h.pipeline.now()
	req, err := h.buildRequest(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	req.Received = received

	resp, err := h.pipeline.Serve(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	for k, v := range resp.Header {
		w.Header()[k] = v
	}
	w.WriteHeader(resp.Status)
	if len(resp.Body) > 0 && r.Method != http.MethodHead {
		_, _ = w.Write(resp.Body)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var bad *endpoint.BadRequestError
	if errors.As(err, &bad) && bad.URI == "" && bad.Field == "" {
		bad.URI = r.URL.RequestURI()
	}
	status := httputil.WriteError(w, err)
	if status >= http.StatusInternalServerError {
		h.log.Error("mock request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
}

// buildRequest extracts project, route and parameters from r.
func (h *Handler) buildRequest(w http.ResponseWriter, r *http.Request) (*Request, error) {
	project, route, ok := splitPath(r.URL.Path)
	if !ok {
		return nil, &endpoint.BadRequestError{Message: "expected /{project}/{route}", URI: r.URL.RequestURI()}
	}

	params := r.URL.Query()
	if hasBodyParams(r.Method) {
		body, err := h.bodyParams(w, r)
		if err != nil {
			return nil, err
		}
		for k, v := range body {
			params[k] = v
		}
	}

	return &Request{
		Project: project,
		Route:   route,
		Method:  r.Method,
		Path:    r.URL.Path,
		Params:  params,
	}, nil
}

// splitPath returns the first two non-empty path segments.
func splitPath(p string) (project, route string, ok bool) {
	segments := make([]string, 0, 2)
	for _, s := range strings.Split(p, "/") {
		if s == "" {
			continue
		}
		segments = append(segments, s)
		if len(segments) == 2 {
			return segments[0], segments[1], true
		}
	}
	return "", "", false
}

func hasBodyParams(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// bodyParams reads form or JSON parameters from the request body. Other
// bodies, including JSON that does not decode, carry no parameters.
func (h *Handler) bodyParams(w http.ResponseWriter, r *http.Request) (url.Values, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &endpoint.BadRequestError{Message: "request body too large"}
		}
		return nil, &endpoint.BadRequestError{Message: "failed to read request body: " + err.Error()}
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch {
	case mediaType == "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(data))
		if err != nil {
			return nil, &endpoint.BadRequestError{Message: "invalid form body: " + err.Error()}
		}
		return values, nil
	case mediaType == "application/json" || data[0] == '{':
		values, err := query.ValuesFromJSON(data)
		if err != nil {
			// An undecodable body is payload, not parameters.
			h.log.Debug("ignoring request body", "path", r.URL.Path, "error", err)
			return nil, nil
		}
		return values, nil
	default:
		return nil, nil
	}
}
