package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/getmockd/mockapi/pkg/endpoint"
	"github.com/getmockd/mockapi/pkg/httputil"
	"github.com/getmockd/mockapi/pkg/logging"
	"github.com/getmockd/mockapi/pkg/metrics"
)

// DefaultMaxBodySize caps admin request bodies.
const DefaultMaxBodySize = 10 << 20

// Handler exposes a Service over HTTP.
type Handler struct {
	svc       *Service
	metrics   *metrics.Metrics
	log       *slog.Logger
	publicURL string
	maxBody   int64
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithMetrics records admin request metrics.
func WithMetrics(m *metrics.Metrics) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithHandlerLogger sets the handler logger.
func WithHandlerLogger(log *slog.Logger) HandlerOption {
	return func(h *Handler) {
		h.log = logging.OrNop(log)
	}
}

// WithPublicURL fixes the base of endpoint URLs instead of deriving it from
// each request.
func WithPublicURL(u string) HandlerOption {
	return func(h *Handler) {
		h.publicURL = strings.TrimRight(u, "/")
	}
}

// WithMaxBodySize caps request bodies.
func WithMaxBodySize(n int64) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.maxBody = n
		}
	}
}

// NewHandler creates a Handler.
func NewHandler(svc *Service, opts ...HandlerOption) *Handler {
	h := &Handler{svc: svc, log: logging.Nop(), maxBody: DefaultMaxBodySize}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes registers the admin endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/endpoints", h.handlePublish)
	r.Get("/endpoints", h.handleList)
	r.Delete("/endpoints", h.handleDelete)
	r.Put("/endpoints/status", h.handleSetStatus)
	r.Get("/openapi", h.handleOpenAPI)
}

// baseURL returns the scheme and host mock URLs are built on.
func (h *Handler) baseURL(r *http.Request) string {
	if h.publicURL != "" {
		return h.publicURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &endpoint.BadRequestError{Message: "invalid JSON body: " + err.Error()}
	}
	return nil
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	status := httputil.WriteError(w, err)
	if status >= http.StatusInternalServerError {
		h.log.Error("admin operation failed", "operation", op, "error", err)
	}
	h.metrics.ObserveAdmin(op, status)
}

func (h *Handler) ok(w http.ResponseWriter, op string, status int, body any) {
	httputil.WriteJSON(w, status, body)
	h.metrics.ObserveAdmin(op, status)
}

// handlePublish handles POST /endpoints.
func (h *Handler) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req PublishRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, "publish", err)
		return
	}
	res, err := h.svc.Publish(r.Context(), &req, h.baseURL(r))
	if err != nil {
		h.fail(w, "publish", err)
		return
	}
	h.ok(w, "publish", http.StatusCreated, res)
}

// handleList handles GET /endpoints?project=.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context(), r.URL.Query().Get("project"), h.baseURL(r))
	if err != nil {
		h.fail(w, "list", err)
		return
	}
	h.ok(w, "list", http.StatusOK, map[string]any{"endpoints": list})
}

// handleDelete handles DELETE /endpoints?project=&route=&method=.
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	project, route, method := q.Get("project"), q.Get("route"), q.Get("method")
	if err := h.svc.Delete(r.Context(), project, route, method); err != nil {
		h.fail(w, "delete", err)
		return
	}
	h.ok(w, "delete", http.StatusOK, map[string]any{
		"success": true,
		"message": "endpoint " + strings.ToUpper(method) + " " + route + " deleted",
	})
}

// handleSetStatus handles PUT /endpoints/status.
func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, "status", err)
		return
	}
	res, err := h.svc.SetStatus(r.Context(), &req)
	if err != nil {
		h.fail(w, "status", err)
		return
	}
	h.ok(w, "status", http.StatusOK, res)
}

// handleOpenAPI handles GET /openapi?project=.
func (h *Handler) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	project := r.URL.Query().Get("project")
	defs, err := h.svc.Definitions(r.Context(), project)
	if err != nil {
		h.fail(w, "openapi", err)
		return
	}
	h.ok(w, "openapi", http.StatusOK, BuildOpenAPI(project, h.baseURL(r), defs))
}
