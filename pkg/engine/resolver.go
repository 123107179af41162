package engine

import (
	"context"
	"errors"
	"net/http"

	"github.com/getmockd/mockapi/pkg/endpoint"
	"github.com/getmockd/mockapi/pkg/store"
)

// Resolver maps a request's project, route and method to a stored definition.
type Resolver struct {
	defs *store.EndpointStore
}

// NewResolver creates a Resolver reading from defs.
func NewResolver(defs *store.EndpointStore) *Resolver {
	return &Resolver{defs: defs}
}

// Resolve returns the definition serving the request. The method-specific
// definition wins over the legacy one. A definition whose stored method
// differs from method yields a MethodNotAllowedError. OPTIONS matches any
// definition of the route.
func (r *Resolver) Resolve(ctx context.Context, project, route, method string) (*endpoint.Definition, error) {
	lookup := method
	if method == http.MethodOptions {
		lookup = ""
	}

	found, err := r.defs.FindRoute(ctx, project, route, lookup)
	switch {
	case errors.Is(err, store.ErrInvalidKey):
		return nil, &endpoint.BadRequestError{Message: "invalid project or route name"}
	case err != nil:
		return nil, &endpoint.InternalError{Op: "resolve endpoint", Err: err}
	}
	if len(found) == 0 {
		return nil, &endpoint.NotFoundError{Project: project, Route: route, Method: method}
	}

	def := found[0]
	if !def.AcceptsMethod(method) {
		return nil, &endpoint.MethodNotAllowedError{Method: method, Expected: def.Method}
	}
	return def, nil
}

// Exists reports whether any definition is stored for the route.
func (r *Resolver) Exists(ctx context.Context, project, route string) (bool, error) {
	_, err := r.Resolve(ctx, project, route, http.MethodOptions)
	var notFound *endpoint.NotFoundError
	if errors.As(err, &notFound) {
		return false, nil
	}
	return err == nil, err
}
