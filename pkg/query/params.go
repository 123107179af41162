package query

import (
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/gorilla/schema"
	"github.com/samber/lo"

	"github.com/getmockd/mockapi/pkg/endpoint"
	"github.com/getmockd/mockapi/pkg/jsonvalue"
)

// DefaultReserved is the set of parameter names that drive the pipeline and
// are therefore never treated as implicit field filters.
var DefaultReserved = []string{
	"_schema", "page", "limit", "sort", "direction", "fields",
	"search", "search_fields", "format", "filter", "operator",
}

var (
	filterKey   = regexp.MustCompile(`^filter\[(.+)\]$`)
	operatorKey = regexp.MustCompile(`^operator\[(.+)\]$`)
	bracketSeg  = regexp.MustCompile(`\[([^\]]*)\]`)
)

var schemaDecoder = schema.NewDecoder()

func init() {
	schemaDecoder.IgnoreUnknownKeys(true)
}

// reservedParams receives the scalar control parameters.
type reservedParams struct {
	Schema       string `schema:"_schema"`
	Page         string `schema:"page"`
	Limit        string `schema:"limit"`
	Sort         string `schema:"sort"`
	Direction    string `schema:"direction"`
	Fields       string `schema:"fields"`
	Search       string `schema:"search"`
	SearchFields string `schema:"search_fields"`
	Format       string `schema:"format"`
}

// Params is the parsed, explicit form of a mock request's parameters.
type Params struct {
	// Filters are the structured filter[f]/operator[f] predicates.
	Filters []Predicate
	// Implicit are eq predicates built from bare non-reserved keys.
	Implicit []Predicate

	Search       string
	SearchFields []string

	Sort string
	Desc bool

	// Paginate is set when both page and limit were supplied.
	Paginate bool
	Page     int
	Limit    int

	Fields []string
	Format string
	Schema bool

	// Raw holds every parameter as received; it feeds the cache fingerprint.
	Raw url.Values
}

// Predicates returns the predicates the filter stage applies for a request
// with the given method. Structured filters win; implicit ones are only used
// when none are given, and never for POST where the body is the payload.
func (p *Params) Predicates(method string) []Predicate {
	if len(p.Filters) > 0 {
		return p.Filters
	}
	if method == http.MethodPost {
		return nil
	}
	return p.Implicit
}

// Parser turns raw request values into Params.
type Parser struct {
	reserved map[string]struct{}
}

// NewParser creates a Parser with the given reserved names. A nil slice means DefaultReserved.
func NewParser(reserved []string) *Parser {
	if reserved == nil {
		reserved = DefaultReserved
	}
	set := make(map[string]struct{}, len(reserved))
	for _, r := range reserved {
		set[r] = struct{}{}
	}
	return &Parser{reserved: set}
}

// IsReserved reports whether name, or its base before any "[", is reserved.
func (ps *Parser) IsReserved(name string) bool {
	if i := strings.IndexByte(name, '['); i > 0 {
		name = name[:i]
	}
	_, ok := ps.reserved[name]
	return ok
}

// Parse builds Params from values. Malformed pagination yields a BadRequestError.
func (ps *Parser) Parse(values url.Values) (*Params, error) {
	var rp reservedParams
	if err := schemaDecoder.Decode(&rp, values); err != nil {
		return nil, &endpoint.BadRequestError{Message: "invalid parameters: " + err.Error()}
	}

	p := &Params{
		Search:       rp.Search,
		SearchFields: splitList(rp.SearchFields),
		Sort:         strings.TrimSpace(rp.Sort),
		Desc:         strings.EqualFold(strings.TrimSpace(rp.Direction), "desc"),
		Fields:       splitList(rp.Fields),
		Format:       strings.ToLower(strings.TrimSpace(rp.Format)),
		Schema:       rp.Schema == "true",
		Raw:          values,
	}
	if values.Has("page") && values.Has("limit") {
		page, err := positiveInt("page", rp.Page)
		if err != nil {
			return nil, err
		}
		limit, err := positiveInt("limit", rp.Limit)
		if err != nil {
			return nil, err
		}
		p.Paginate, p.Page, p.Limit = true, page, limit
	}

	p.Filters = ps.structuredFilters(values)
	p.Implicit = ps.implicitFilters(values)
	return p, nil
}

func (ps *Parser) structuredFilters(values url.Values) []Predicate {
	operators := make(map[string]string)
	for key, vals := range values {
		if m := operatorKey.FindStringSubmatch(key); m != nil && len(vals) > 0 {
			operators[m[1]] = vals[len(vals)-1]
		}
	}

	var preds []Predicate
	for _, key := range sortedKeys(values) {
		m := filterKey.FindStringSubmatch(key)
		vals := values[key]
		if m == nil || len(vals) == 0 {
			continue
		}
		preds = append(preds, Predicate{
			Field:    bracketPath(m[1]),
			Operator: ParseOperator(operators[m[1]]),
			Value:    vals[len(vals)-1],
		})
	}
	return preds
}

func (ps *Parser) implicitFilters(values url.Values) []Predicate {
	var preds []Predicate
	for _, key := range sortedKeys(values) {
		vals := values[key]
		if ps.IsReserved(key) || len(vals) == 0 || key == "" {
			continue
		}
		preds = append(preds, Predicate{Field: bracketPath(key), Operator: OpEq, Value: vals[len(vals)-1]})
	}
	return preds
}

// bracketPath rewrites form-style nesting such as "user[address][city]" or
// "filter[user][id]" remnants into the dotted form "user.address.city".
func bracketPath(key string) string {
	if !strings.Contains(key, "[") && !strings.Contains(key, "]") {
		return key
	}
	key = strings.ReplaceAll(key, "][", ".")
	return bracketSeg.ReplaceAllString(key, ".$1")
}

func positiveInt(name, raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &endpoint.BadRequestError{Message: name + " must be an integer", Field: name}
	}
	if n < 1 {
		return 0, &endpoint.BadRequestError{Message: name + " must be at least 1", Field: name}
	}
	return n, nil
}

func splitList(s string) []string {
	return lo.Compact(lo.Map(strings.Split(s, ","), func(item string, _ int) string {
		return strings.TrimSpace(item)
	}))
}

func sortedKeys(values url.Values) []string {
	keys := lo.Keys(values)
	sort.Strings(keys)
	return keys
}

// ValuesFromJSON flattens a JSON object body into form-style values so JSON
// and form requests share one parameter model. Nested objects become
// "key[sub]" entries; arrays of scalars repeat the key.
func ValuesFromJSON(body []byte) (url.Values, error) {
	v, err := jsonvalue.Parse(body)
	if err != nil {
		return nil, &endpoint.BadRequestError{Message: "invalid JSON body: " + err.Error()}
	}
	values := url.Values{}
	if v.Kind() != jsonvalue.Object {
		return values, nil
	}
	for _, m := range v.Members() {
		flatten(values, m.Key, m.Value)
	}
	return values, nil
}

func flatten(values url.Values, key string, v jsonvalue.Value) {
	switch v.Kind() {
	case jsonvalue.Object:
		for _, m := range v.Members() {
			flatten(values, key+"["+m.Key+"]", m.Value)
		}
	case jsonvalue.Array:
		for _, item := range v.Items() {
			values.Add(key, item.Text())
		}
	default:
		values.Add(key, v.Text())
	}
}
