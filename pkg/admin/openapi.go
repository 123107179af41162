package admin

import (
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/getmockd/mockapi/pkg/endpoint"
	"github.com/getmockd/mockapi/pkg/jsonvalue"
	"github.com/getmockd/mockapi/pkg/query"
)

// queryParameters documents the reserved parameters every mock endpoint accepts.
var queryParameters = []struct {
	name, description string
	schema            func() *openapi3.Schema
}{
	{"page", "Page number, used together with limit.", func() *openapi3.Schema { return openapi3.NewIntegerSchema().WithMin(1) }},
	{"limit", "Page size, used together with page.", func() *openapi3.Schema { return openapi3.NewIntegerSchema().WithMin(1) }},
	{"sort", "Field to sort records by.", openapi3.NewStringSchema},
	{"direction", "Sort direction, asc or desc.", func() *openapi3.Schema { return openapi3.NewStringSchema().WithEnum("asc", "desc") }},
	{"fields", "Comma-separated list of fields to keep.", openapi3.NewStringSchema},
	{"search", "Case-insensitive search term.", openapi3.NewStringSchema},
	{"search_fields", "Comma-separated fields the search term applies to.", openapi3.NewStringSchema},
	{"format", "Response format.", func() *openapi3.Schema { return openapi3.NewStringSchema().WithEnum("json", "xml", "csv") }},
	{"_schema", "Return the inferred schema instead of data.", func() *openapi3.Schema { return openapi3.NewStringSchema().WithEnum("true") }},
}

// BuildOpenAPI describes a project's endpoints as an OpenAPI 3 document.
// Response schemas are inferred from each definition's content.
func BuildOpenAPI(project, baseURL string, defs []*endpoint.Definition) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       project,
			Description: fmt.Sprintf("Mock endpoints of project %s", project),
			Version:     "1.0.0",
		},
		Paths: openapi3.NewPaths(),
	}
	if baseURL != "" {
		doc.Servers = openapi3.Servers{{URL: baseURL}}
	}

	for _, def := range defs {
		path := "/" + project + "/" + def.Route
		item := doc.Paths.Value(path)
		if item == nil {
			item = &openapi3.PathItem{}
			doc.Paths.Set(path, item)
		}
		// A legacy definition never shadows a method-specific one.
		if def.Legacy && item.GetOperation(def.Method) != nil {
			continue
		}
		item.SetOperation(def.Method, operationFor(def))
	}
	return doc
}

func operationFor(def *endpoint.Definition) *openapi3.Operation {
	op := openapi3.NewOperation()
	op.OperationID = fmt.Sprintf("%s-%s", def.Route, def.Method)
	op.Summary = fmt.Sprintf("%s %s", def.Method, def.Route)
	if def.Method != http.MethodPost {
		for _, p := range queryParameters {
			op.AddParameter(openapi3.NewQueryParameter(p.name).
				WithDescription(p.description).
				WithSchema(p.schema()))
		}
	}

	status := def.EffectiveStatus()
	desc := http.StatusText(status)
	if desc == "" {
		desc = fmt.Sprintf("%d response", status)
	}
	resp := openapi3.NewResponse().WithDescription(desc)
	if def.HasErrorOverride() {
		errBody := openapi3.NewObjectSchema().WithProperty("error", schemaFor(*def.ErrorMessage))
		resp = resp.WithJSONSchema(errBody)
	} else {
		resp = resp.WithJSONSchema(schemaFor(def.Content))
	}
	op.Responses = openapi3.NewResponses(openapi3.WithStatus(status, &openapi3.ResponseRef{Value: resp}))
	return op
}

// schemaFor infers an OpenAPI schema from a sample value. Arrays are typed
// by their first element.
func schemaFor(v jsonvalue.Value) *openapi3.Schema {
	switch query.TypeName(v) {
	case "null":
		s := openapi3.NewSchema()
		s.Nullable = true
		return s
	case "boolean":
		return openapi3.NewBoolSchema()
	case "integer":
		return openapi3.NewIntegerSchema()
	case "number":
		return openapi3.NewFloat64Schema()
	case "string":
		return openapi3.NewStringSchema()
	case "array":
		arr := openapi3.NewArraySchema()
		if first, ok := v.Index(0); ok {
			arr.WithItems(schemaFor(first))
		}
		return arr
	default:
		obj := openapi3.NewObjectSchema()
		for _, m := range v.Members() {
			obj.WithProperty(m.Key, schemaFor(m.Value))
		}
		return obj
	}
}
