// Package query implements the mock content query pipeline: filter, search,
// sort, paginate and project, plus schema inference for introspection.
//
// Every stage takes a jsonvalue.Value and returns a new one; the input is
// never modified, so a definition's stored content can be shared safely
// between concurrent requests.
package query

import (
	"github.com/getmockd/mockapi/pkg/jsonvalue"
)

// Result is the outcome of Run.
type Result struct {
	// Value is the transformed content, an envelope when paginated.
	Value jsonvalue.Value
	// Count is the number of records after filtering, search and sort,
	// before pagination.
	Count int
}

// Run applies the stages in order, skipping each one whose parameters are
// absent. method selects whether implicit filters apply.
func Run(content jsonvalue.Value, p *Params, method string) (*Result, error) {
	v, err := ApplyFilters(content, p.Predicates(method))
	if err != nil {
		return nil, err
	}
	if p.Search != "" && len(p.SearchFields) > 0 {
		v = Search(v, p.Search, p.SearchFields)
	}
	if p.Sort != "" {
		v = SortRecords(v, p.Sort, p.Desc)
	}

	count := TotalItems(v)

	if p.Paginate {
		v = Paginate(v, p.Page, p.Limit)
	}
	if len(p.Fields) > 0 {
		v = Project(v, p.Fields)
	}
	return &Result{Value: v, Count: count}, nil
}
