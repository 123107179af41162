package query

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockapi/pkg/endpoint"
)

func parse(t *testing.T, raw string) (*Params, error) {
	t.Helper()
	values, err := url.ParseQuery(raw)
	require.NoError(t, err)
	return NewParser(nil).Parse(values)
}

func TestParser_ReservedParameters(t *testing.T) {
	p, err := parse(t, "_schema=true&page=2&limit=10&sort=name&direction=DESC&fields=id,%20name,,&search=x&search_fields=a,b&format=XML")
	require.NoError(t, err)

	assert.True(t, p.Schema)
	assert.True(t, p.Paginate)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 10, p.Limit)
	assert.Equal(t, "name", p.Sort)
	assert.True(t, p.Desc)
	assert.Equal(t, []string{"id", "name"}, p.Fields)
	assert.Equal(t, "x", p.Search)
	assert.Equal(t, []string{"a", "b"}, p.SearchFields)
	assert.Equal(t, "xml", p.Format)
	assert.Empty(t, p.Filters)
	assert.Empty(t, p.Implicit)
}

func TestParser_SchemaRequiresLiteralTrue(t *testing.T) {
	p, err := parse(t, "_schema=1")
	require.NoError(t, err)
	assert.False(t, p.Schema)
}

func TestParser_PaginationNeedsBoth(t *testing.T) {
	p, err := parse(t, "page=abc")
	require.NoError(t, err, "a lone page parameter is ignored")
	assert.False(t, p.Paginate)
}

func TestParser_InvalidPagination(t *testing.T) {
	tests := []struct {
		query string
		field string
	}{
		{"page=0&limit=10", "page"},
		{"page=1&limit=0", "limit"},
		{"page=1&limit=-3", "limit"},
		{"page=x&limit=1", "page"},
		{"page=1&limit=1.5", "limit"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			_, err := parse(t, tt.query)
			var bad *endpoint.BadRequestError
			require.ErrorAs(t, err, &bad)
			assert.Equal(t, tt.field, bad.Field)
		})
	}
}

func TestParser_Filters(t *testing.T) {
	p, err := parse(t, "filter[price]=10&operator[price]=GTE&filter[user][name]=ann&filter[tag]=x&operator[tag]=bogus&color=red&page=1")
	require.NoError(t, err)

	want := []Predicate{
		{Field: "price", Operator: OpGte, Value: "10"},
		{Field: "tag", Operator: OpEq, Value: "x"},
		{Field: "user.name", Operator: OpEq, Value: "ann"},
	}
	if diff := cmp.Diff(want, p.Filters); diff != "" {
		t.Errorf("Filters mismatch (-want +got):\n%s", diff)
	}

	wantImplicit := []Predicate{{Field: "color", Operator: OpEq, Value: "red"}}
	if diff := cmp.Diff(wantImplicit, p.Implicit); diff != "" {
		t.Errorf("Implicit mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, want, p.Predicates("GET"))
}

func TestParser_CustomReserved(t *testing.T) {
	values := url.Values{"token": {"abc"}, "id": {"1"}}
	p, err := NewParser(append([]string{"token"}, DefaultReserved...)).Parse(values)
	require.NoError(t, err)
	assert.Equal(t, []Predicate{{Field: "id", Operator: OpEq, Value: "1"}}, p.Implicit)
}

func TestParams_PredicatesForPOST(t *testing.T) {
	p, err := parse(t, "id=1")
	require.NoError(t, err)
	assert.Len(t, p.Predicates("GET"), 1)
	assert.Len(t, p.Predicates("PUT"), 1)
	assert.Empty(t, p.Predicates("POST"))
}

func TestBracketPath(t *testing.T) {
	assert.Equal(t, "a", bracketPath("a"))
	assert.Equal(t, "a.b", bracketPath("a.b"))
	assert.Equal(t, "user.address.city", bracketPath("user[address][city]"))
	assert.Equal(t, "user.name", bracketPath("user][name"))
}

func TestValuesFromJSON(t *testing.T) {
	values, err := ValuesFromJSON([]byte(`{"page":1,"limit":"2","filter":{"id":3},"operator":{"id":"gt"},"tags":["a","b"],"user":{"name":"x"},"on":true}`))
	require.NoError(t, err)

	assert.Equal(t, "1", values.Get("page"))
	assert.Equal(t, "2", values.Get("limit"))
	assert.Equal(t, "3", values.Get("filter[id]"))
	assert.Equal(t, "gt", values.Get("operator[id]"))
	assert.Equal(t, []string{"a", "b"}, values["tags"])
	assert.Equal(t, "x", values.Get("user[name]"))
	assert.Equal(t, "true", values.Get("on"))

	p, err := NewParser(nil).Parse(values)
	require.NoError(t, err)
	assert.Equal(t, []Predicate{{Field: "id", Operator: OpGt, Value: "3"}}, p.Filters)
}

func TestValuesFromJSON_NonObject(t *testing.T) {
	values, err := ValuesFromJSON([]byte(`[1,2]`))
	require.NoError(t, err)
	assert.Empty(t, values)

	_, err = ValuesFromJSON([]byte(`{`))
	var bad *endpoint.BadRequestError
	assert.ErrorAs(t, err, &bad)
}
