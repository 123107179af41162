package store

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/getmockd/mockapi/pkg/endpoint"
)

const definitionExt = ".json"

var methodSuffix = regexp.MustCompile(`^(.+?)_(GET|POST|PUT|PATCH|DELETE|HEAD|OPTIONS)$`)

// DefinitionKey returns the document key for an endpoint key:
// "<project>/<route>_<METHOD>.json", or "<project>/<route>.json" for legacy keys.
func DefinitionKey(k endpoint.Key) string {
	if k.IsLegacy() {
		return k.Project + "/" + k.Route + definitionExt
	}
	return k.Project + "/" + k.Route + "_" + k.Method + definitionExt
}

// ParseDefinitionKey is the inverse of DefinitionKey.
func ParseDefinitionKey(key string) (endpoint.Key, bool) {
	dir, file := path.Split(key)
	project := strings.TrimSuffix(dir, "/")
	if project == "" || strings.Contains(project, "/") || !strings.HasSuffix(file, definitionExt) {
		return endpoint.Key{}, false
	}
	name := strings.TrimSuffix(file, definitionExt)
	if name == "" {
		return endpoint.Key{}, false
	}
	if m := methodSuffix.FindStringSubmatch(name); m != nil {
		return endpoint.Key{Project: project, Route: m[1], Method: m[2]}, true
	}
	return endpoint.Key{Project: project, Route: name}, true
}

// EndpointStore maps endpoint keys to definitions on top of a DocumentStore.
type EndpointStore struct {
	docs DocumentStore
}

// NewEndpointStore creates an EndpointStore backed by docs.
func NewEndpointStore(docs DocumentStore) *EndpointStore {
	return &EndpointStore{docs: docs}
}

// Get loads the definition stored under exactly k.
func (s *EndpointStore) Get(ctx context.Context, k endpoint.Key) (*endpoint.Definition, error) {
	key := DefinitionKey(k)
	if err := ValidateKey(key); err != nil {
		return nil, fmt.Errorf("%q: %w", key, err)
	}
	data, err := s.docs.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	def, err := endpoint.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	bindKey(def, k)
	return def, nil
}

// bindKey copies the key-derived fields onto a decoded definition.
func bindKey(def *endpoint.Definition, k endpoint.Key) {
	def.Project, def.Route, def.Legacy = k.Project, k.Route, k.IsLegacy()
	if def.Method == "" && !k.IsLegacy() {
		def.Method = k.Method
	}
}

// Put persists def under its key.
func (s *EndpointStore) Put(ctx context.Context, def *endpoint.Definition) error {
	data, err := def.Encode()
	if err != nil {
		return err
	}
	return s.docs.Put(ctx, DefinitionKey(def.Key()), data)
}

// Delete removes the definition stored under exactly k.
func (s *EndpointStore) Delete(ctx context.Context, k endpoint.Key) error {
	return s.docs.Delete(ctx, DefinitionKey(k))
}

// List returns every definition of a project, ordered by route then method,
// with legacy definitions after method-specific ones of the same route.
// Documents that fail to decode are skipped.
func (s *EndpointStore) List(ctx context.Context, project string) ([]*endpoint.Definition, error) {
	keys, err := s.docs.List(ctx, project+"/")
	if err != nil {
		return nil, err
	}

	defs := make([]*endpoint.Definition, 0, len(keys))
	for _, key := range keys {
		k, ok := ParseDefinitionKey(key)
		if !ok || k.Project != project {
			continue
		}
		data, err := s.docs.Get(ctx, key)
		if errors.Is(err, ErrNotFound) {
			continue // deleted between List and Get
		}
		if err != nil {
			return nil, err
		}
		def, err := endpoint.Decode(data)
		if err != nil {
			continue
		}
		bindKey(def, k)
		defs = append(defs, def)
	}

	sort.SliceStable(defs, func(i, j int) bool {
		if defs[i].Route != defs[j].Route {
			return defs[i].Route < defs[j].Route
		}
		if defs[i].Legacy != defs[j].Legacy {
			return !defs[i].Legacy
		}
		return methodRank(defs[i].Method) < methodRank(defs[j].Method)
	})
	return defs, nil
}

// FindRoute returns the definitions of a route across all methods. Method
// specific definitions come first; the legacy definition, if any, is last.
// When method is non-empty only that method's definition is considered
// before falling back to the legacy one.
func (s *EndpointStore) FindRoute(ctx context.Context, project, route, method string) ([]*endpoint.Definition, error) {
	methods := endpoint.Methods
	if method != "" {
		methods = []string{method}
	}

	var found []*endpoint.Definition
	for _, m := range methods {
		def, err := s.Get(ctx, endpoint.Key{Project: project, Route: route, Method: m})
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		found = append(found, def)
	}

	legacy, err := s.Get(ctx, endpoint.Key{Project: project, Route: route})
	switch {
	case err == nil:
		found = append(found, legacy)
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}
	return found, nil
}

func methodRank(method string) int {
	for i, m := range endpoint.Methods {
		if m == method {
			return i
		}
	}
	return len(endpoint.Methods)
}
