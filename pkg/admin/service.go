package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/getmockd/mockapi/pkg/cache"
	"github.com/getmockd/mockapi/pkg/endpoint"
	"github.com/getmockd/mockapi/pkg/jsonvalue"
	"github.com/getmockd/mockapi/pkg/logging"
	"github.com/getmockd/mockapi/pkg/store"
)

var validate = validator.New()

// PublishRequest is the body of a publish call.
type PublishRequest struct {
	ProjectName string `json:"projectName" validate:"required"`
	Route       string `json:"route" validate:"required"`
	Method      string `json:"method"`
	// Content is the mock payload. A JSON string is parsed as a JSON
	// document; absent content publishes {}.
	Content json.RawMessage `json:"content"`
}

// PublishResult is returned by Publish.
type PublishResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	URL     string `json:"url"`
	Project string `json:"project"`
	Route   string `json:"route"`
	Method  string `json:"method"`
}

// StatusRequest is the body of a set-status call.
type StatusRequest struct {
	ProjectName  string `json:"projectName" validate:"required"`
	Route        string `json:"route" validate:"required"`
	StatusCode   int    `json:"statusCode" validate:"gte=100,lte=599"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	// Method restricts the update to one method's definition.
	Method string `json:"method,omitempty"`
}

// StatusResult is returned by SetStatus.
type StatusResult struct {
	Success    bool     `json:"success"`
	Message    string   `json:"message"`
	StatusCode int      `json:"statusCode"`
	Methods    []string `json:"methods"`
}

// EndpointSummary is one entry of a project listing.
type EndpointSummary struct {
	Route      string `json:"route"`
	Method     string `json:"method"`
	StatusCode int    `json:"status_code"`
	URL        string `json:"url"`
}

// Service implements the administrative operations over the endpoint store.
type Service struct {
	defs  *store.EndpointStore
	cache cache.Cache
	log   *slog.Logger
	now   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithCache makes every write invalidate the affected route's cached
// responses.
func WithCache(c cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		s.log = logging.OrNop(log)
	}
}

// NewService creates a Service over defs.
func NewService(defs *store.EndpointStore, opts ...Option) *Service {
	s := &Service{defs: defs, log: logging.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EndpointURL joins a base URL with a project and route.
func EndpointURL(baseURL, project, route string) string {
	return strings.TrimRight(baseURL, "/") + "/" + project + "/" + route
}

// Publish stores a definition for (project, route, method), replacing any
// existing one. Names are sanitized before use.
func (s *Service) Publish(ctx context.Context, req *PublishRequest, baseURL string) (*PublishResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	project := endpoint.SanitizeProject(req.ProjectName)
	route := endpoint.SanitizeRoute(req.Route)
	method := endpoint.NormalizeMethod(req.Method)
	switch {
	case project == "":
		return nil, &endpoint.BadRequestError{Field: "projectName", Message: "no valid characters after sanitizing"}
	case route == "":
		return nil, &endpoint.BadRequestError{Field: "route", Message: "no valid characters after sanitizing"}
	case !endpoint.IsKnownMethod(method):
		return nil, &endpoint.BadRequestError{Field: "method", Message: fmt.Sprintf("unsupported method %q", req.Method)}
	}

	content, err := parseContent(req.Content)
	if err != nil {
		return nil, err
	}

	def := &endpoint.Definition{
		Project:   project,
		Route:     route,
		Method:    method,
		Content:   endpoint.UnwrapContent(content),
		CreatedAt: endpoint.NewTimestamp(s.now()),
	}
	if err := s.defs.Put(ctx, def); err != nil {
		return nil, &endpoint.InternalError{Op: "publish " + def.Key().String(), Err: err}
	}
	s.invalidate(ctx, project, route)
	s.log.Info("endpoint published", "project", project, "route", route, "method", method)

	return &PublishResult{
		Success: true,
		Message: "endpoint published",
		URL:     EndpointURL(baseURL, project, route),
		Project: project,
		Route:   route,
		Method:  method,
	}, nil
}

// parseContent decodes publish content. A JSON string holding a document is
// unwrapped into that document.
func parseContent(raw json.RawMessage) (jsonvalue.Value, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return jsonvalue.ObjectValue(), nil
	}
	v, err := jsonvalue.Parse(raw)
	if err != nil {
		return jsonvalue.Value{}, &endpoint.BadRequestError{Field: "content", Message: "invalid JSON: " + err.Error()}
	}
	if v.Kind() != jsonvalue.String {
		return v, nil
	}
	if strings.TrimSpace(v.Str()) == "" {
		return jsonvalue.ObjectValue(), nil
	}
	inner, err := jsonvalue.ParseString(v.Str())
	if err != nil {
		return jsonvalue.Value{}, &endpoint.BadRequestError{Field: "content", Message: "invalid JSON: " + err.Error()}
	}
	return inner, nil
}

// Delete removes the definition of (project, route, method). The
// method-specific definition is preferred; a legacy definition is only
// removed when its stored method matches.
func (s *Service) Delete(ctx context.Context, project, route, method string) error {
	if project == "" || route == "" || method == "" {
		return &endpoint.BadRequestError{Message: `"project", "route" and "method" are required`}
	}
	method = endpoint.NormalizeMethod(method)
	key := endpoint.Key{Project: project, Route: route, Method: method}

	err := s.defs.Delete(ctx, key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		err = s.deleteLegacy(ctx, key)
	case errors.Is(err, store.ErrInvalidKey):
		err = &endpoint.BadRequestError{Message: err.Error()}
	case err != nil:
		err = &endpoint.InternalError{Op: "delete " + key.String(), Err: err}
	}
	if err != nil {
		return err
	}
	s.invalidate(ctx, project, route)
	s.log.Info("endpoint deleted", "project", project, "route", route, "method", method)
	return nil
}

func (s *Service) deleteLegacy(ctx context.Context, key endpoint.Key) error {
	notFound := &endpoint.NotFoundError{Project: key.Project, Route: key.Route, Method: key.Method}

	legacy, err := s.defs.Get(ctx, key.Legacy())
	if errors.Is(err, store.ErrNotFound) {
		return notFound
	}
	if err != nil {
		return &endpoint.InternalError{Op: "load " + key.Legacy().String(), Err: err}
	}
	if !strings.EqualFold(legacy.Method, key.Method) {
		return notFound
	}
	if err := s.defs.Delete(ctx, key.Legacy()); err != nil && !errors.Is(err, store.ErrNotFound) {
		return &endpoint.InternalError{Op: "delete " + key.Legacy().String(), Err: err}
	}
	return nil
}

// List summarizes every endpoint of a project. An unknown project yields an
// empty list.
func (s *Service) List(ctx context.Context, project, baseURL string) ([]EndpointSummary, error) {
	if project == "" {
		return nil, &endpoint.BadRequestError{Field: "project", Message: "is required"}
	}
	defs, err := s.defs.List(ctx, project)
	if err != nil {
		return nil, &endpoint.InternalError{Op: "list " + project, Err: err}
	}
	out := make([]EndpointSummary, 0, len(defs))
	for _, def := range defs {
		out = append(out, EndpointSummary{
			Route:      def.Route,
			Method:     def.Method,
			StatusCode: def.EffectiveStatus(),
			URL:        EndpointURL(baseURL, project, def.Route),
		})
	}
	return out, nil
}

// Definitions returns the stored definitions of a project.
func (s *Service) Definitions(ctx context.Context, project string) ([]*endpoint.Definition, error) {
	if project == "" {
		return nil, &endpoint.BadRequestError{Field: "project", Message: "is required"}
	}
	defs, err := s.defs.List(ctx, project)
	if err != nil {
		return nil, &endpoint.InternalError{Op: "list " + project, Err: err}
	}
	return defs, nil
}

// SetStatus overrides the status code of a route's definitions. With a
// method only that method's definition is updated; without one every
// method-specific definition is. The legacy definition is the fallback.
func (s *Service) SetStatus(ctx context.Context, req *StatusRequest) (*StatusResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	project := endpoint.SanitizeProject(req.ProjectName)
	route := endpoint.SanitizeRoute(req.Route)
	method := ""
	if req.Method != "" {
		method = endpoint.NormalizeMethod(req.Method)
	}

	found, err := s.defs.FindRoute(ctx, project, route, method)
	if err != nil {
		return nil, &endpoint.InternalError{Op: "load " + project + "/" + route, Err: err}
	}
	targets := make([]*endpoint.Definition, 0, len(found))
	for _, def := range found {
		if !def.Legacy {
			targets = append(targets, def)
		}
	}
	if len(targets) == 0 && len(found) > 0 {
		legacy := found[len(found)-1]
		if method == "" || strings.EqualFold(legacy.Method, method) {
			targets = append(targets, legacy)
		}
	}
	if len(targets) == 0 {
		return nil, &endpoint.NotFoundError{Project: project, Route: route, Method: method}
	}

	errorMessage := parseErrorMessage(req.ErrorMessage)
	methods := make([]string, 0, len(targets))
	for _, def := range targets {
		applyStatus(def, req.StatusCode, errorMessage)
		if err := s.defs.Put(ctx, def); err != nil {
			return nil, &endpoint.InternalError{Op: "update " + def.Key().String(), Err: err}
		}
		methods = append(methods, def.Method)
	}
	s.invalidate(ctx, project, route)
	s.log.Info("endpoint status updated", "project", project, "route", route, "status", req.StatusCode, "methods", methods)

	return &StatusResult{
		Success:    true,
		Message:    fmt.Sprintf("status code set to %d", req.StatusCode),
		StatusCode: req.StatusCode,
		Methods:    methods,
	}, nil
}

// applyStatus changes only the status code and error message of def.
func applyStatus(def *endpoint.Definition, code int, errorMessage *jsonvalue.Value) {
	def.StatusCode = code
	switch {
	case code < 400:
		def.ErrorMessage = nil
	case errorMessage != nil:
		def.ErrorMessage = errorMessage
	}
}

// parseErrorMessage returns msg as JSON when it parses, otherwise wrapped as
// {"message": msg}. An empty message yields nil.
func parseErrorMessage(msg string) *jsonvalue.Value {
	if strings.TrimSpace(msg) == "" {
		return nil
	}
	v, err := jsonvalue.ParseString(msg)
	if err != nil {
		v = jsonvalue.ObjectValue(jsonvalue.Member{Key: "message", Value: jsonvalue.StringValue(msg)})
	}
	return &v
}

func (s *Service) invalidate(ctx context.Context, project, route string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, project, route); err != nil {
		s.log.Warn("cache invalidation failed", "project", project, "route", route, "error", err)
	}
}

func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		msg := fmt.Sprintf("failed %q validation", fe.Tag())
		switch fe.Tag() {
		case "required":
			msg = "is required"
		case "gte", "lte":
			msg = "must be between 100 and 599"
		}
		return &endpoint.BadRequestError{Field: jsonName(fe.Field()), Message: msg}
	}
	return &endpoint.BadRequestError{Message: err.Error()}
}

func jsonName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}
