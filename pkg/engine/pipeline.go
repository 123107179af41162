package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/getmockd/mockapi/pkg/cache"
	"github.com/getmockd/mockapi/pkg/endpoint"
	"github.com/getmockd/mockapi/pkg/format"
	"github.com/getmockd/mockapi/pkg/jsonvalue"
	"github.com/getmockd/mockapi/pkg/logging"
	"github.com/getmockd/mockapi/pkg/metrics"
	"github.com/getmockd/mockapi/pkg/query"
	"github.com/getmockd/mockapi/pkg/store"
)

// Response headers set by the pipeline.
const (
	HeaderCache        = "X-API-Cache"
	HeaderResponseTime = "X-API-Response-Time"
	HeaderResultCount  = "X-API-Result-Count"
	HeaderRequestID    = "X-Request-ID"
)

// Values of HeaderCache.
const (
	CacheHit  = "HIT"
	CacheMiss = "MISS"
)

// Request is a mock request after path and parameter extraction.
type Request struct {
	Project string
	Route   string
	Method  string
	// Path is the request path used in the cache fingerprint.
	Path   string
	Params url.Values
	// Received is when the request arrived. Zero means when Serve is called.
	Received time.Time
}

// Response is a fully rendered mock response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

func newResponse(status int, contentType string, body []byte) *Response {
	h := make(http.Header)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return &Response{Status: status, Header: h, Body: body}
}

// Pipeline serves mock requests: resolve, status override, schema branch,
// cache lookup, query, render and cache write.
type Pipeline struct {
	resolver *Resolver
	parser   *query.Parser
	cache    cache.Cache
	metrics  *metrics.Metrics
	log      *slog.Logger
	now      func() time.Time
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithCache enables response caching. A nil cache disables it.
func WithCache(c cache.Cache) PipelineOption {
	return func(p *Pipeline) {
		p.cache = c
	}
}

// WithParser replaces the default parameter parser.
func WithParser(ps *query.Parser) PipelineOption {
	return func(p *Pipeline) {
		if ps != nil {
			p.parser = ps
		}
	}
}

// WithPipelineMetrics records cache and pipeline metrics.
func WithPipelineMetrics(m *metrics.Metrics) PipelineOption {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithPipelineLogger sets the pipeline's logger.
func WithPipelineLogger(log *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.log = logging.OrNop(log)
	}
}

// NewPipeline creates a Pipeline over defs.
func NewPipeline(defs *store.EndpointStore, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		resolver: NewResolver(defs),
		parser:   query.NewParser(nil),
		log:      logging.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Resolver returns the pipeline's resolver.
func (p *Pipeline) Resolver() *Resolver {
	return p.resolver
}

// Serve runs req through the pipeline. Errors are typed endpoint errors.
func (p *Pipeline) Serve(ctx context.Context, req *Request) (*Response, error) {
	start := req.Received
	if start.IsZero() {
		start = p.now()
	}

	def, err := p.resolver.Resolve(ctx, req.Project, req.Route, req.Method)
	if err != nil {
		return nil, err
	}

	if req.Method == http.MethodOptions {
		return newResponse(http.StatusOK, "", nil), nil
	}

	if def.HasErrorOverride() {
		body := jsonvalue.ObjectValue(jsonvalue.Member{Key: "error", Value: *def.ErrorMessage})
		return newResponse(def.StatusCode, format.JSON.ContentType(), body.Compact()), nil
	}

	params, err := p.parser.Parse(req.Params)
	if err != nil {
		return nil, err
	}

	if params.Schema {
		p.metrics.ObserveCache(metrics.CacheBypass)
		doc := query.SchemaDocument(def.Content)
		return newResponse(def.EffectiveStatus(), format.JSON.ContentType(), doc.Compact()), nil
	}

	var key cache.Key
	cacheable := p.cache != nil && (req.Method == http.MethodGet || req.Method == http.MethodPost)
	if cacheable {
		key = cache.Key{
			Project:     def.Project,
			Route:       def.Route,
			Fingerprint: cache.Fingerprint(req.Method, req.Path, params.Raw),
		}
		if resp := p.lookup(ctx, key, start); resp != nil {
			return resp, nil
		}
	} else {
		p.metrics.ObserveCache(metrics.CacheBypass)
	}

	result, err := query.Run(def.Content, params, req.Method)
	if err != nil {
		return nil, err
	}
	f := format.Parse(params.Format)
	body, err := format.Render(result.Value, f)
	if err != nil {
		return nil, &endpoint.InternalError{Op: "render " + string(f), Err: err}
	}

	status := def.EffectiveStatus()
	resp := newResponse(status, f.ContentType(), body)
	took := p.now().Sub(start)
	p.metrics.ObservePipeline(took, result.Count)
	setTiming(resp.Header, took, result.Count)

	if cacheable {
		resp.Header.Set(HeaderCache, CacheMiss)
		entry := &cache.Entry{
			Fingerprint: key.Fingerprint,
			Status:      status,
			ContentType: f.ContentType(),
			ResultCount: result.Count,
			Body:        body,
			CreatedAt:   p.now(),
		}
		if err := p.cache.Put(ctx, key, entry); err != nil {
			p.metrics.CacheWriteFailed()
			p.log.Warn("cache write failed", "key", key.String(), "error", err)
		}
	}
	return resp, nil
}

// lookup returns the cached response for key, or nil on a miss. Backend
// errors are logged and treated as misses.
func (p *Pipeline) lookup(ctx context.Context, key cache.Key, start time.Time) *Response {
	entry, err := p.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			p.log.Warn("cache read failed", "key", key.String(), "error", err)
		}
		p.metrics.ObserveCache(metrics.CacheMiss)
		return nil
	}
	p.metrics.ObserveCache(metrics.CacheHit)

	resp := newResponse(entry.Status, entry.ContentType, entry.Body)
	resp.Header.Set(HeaderCache, CacheHit)
	setTiming(resp.Header, p.now().Sub(start), entry.ResultCount)
	return resp
}

func setTiming(h http.Header, took time.Duration, count int) {
	h.Set(HeaderResponseTime, fmt.Sprintf("%.2fms", float64(took.Microseconds())/1000))
	h.Set(HeaderResultCount, strconv.Itoa(count))
}
