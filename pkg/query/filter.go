package query

import (
	"sort"
	"strings"

	"github.com/getmockd/mockapi/pkg/jsonvalue"
)

// records returns the records of content: the items of an Array, or the
// content itself when it is a single Object.
func records(content jsonvalue.Value) ([]jsonvalue.Value, bool) {
	switch content.Kind() {
	case jsonvalue.Array:
		return content.Items(), true
	case jsonvalue.Object:
		return []jsonvalue.Value{content}, true
	default:
		return nil, false
	}
}

// ApplyFilters keeps the records that satisfy every predicate. A single
// Object content is treated as one record, so the result is always an Array
// when any predicate is given. Scalars pass through untouched.
func ApplyFilters(content jsonvalue.Value, preds []Predicate) (jsonvalue.Value, error) {
	if len(preds) == 0 {
		return content, nil
	}
	recs, ok := records(content)
	if !ok {
		return content, nil
	}

	matchers := make([]*matcher, 0, len(preds))
	for _, p := range preds {
		m, err := compile(p)
		if err != nil {
			return jsonvalue.Value{}, err
		}
		matchers = append(matchers, m)
	}

	kept := make([]jsonvalue.Value, 0, len(recs))
	for _, rec := range recs {
		matched := true
		for _, m := range matchers {
			if !m.match(rec) {
				matched = false
				break
			}
		}
		if matched {
			kept = append(kept, rec)
		}
	}
	return jsonvalue.ArrayValue(kept...), nil
}

// Search keeps the records of an Array in which any of fields contains term,
// ignoring case. Non-array content is returned unchanged.
func Search(content jsonvalue.Value, term string, fields []string) jsonvalue.Value {
	if content.Kind() != jsonvalue.Array || term == "" || len(fields) == 0 {
		return content
	}
	needle := fold(term)
	kept := make([]jsonvalue.Value, 0, content.Len())
	for _, rec := range content.Items() {
		for _, f := range fields {
			v, ok := rec.Get(f)
			if !ok || v.IsNull() {
				continue
			}
			if strings.Contains(fold(v.Text()), needle) {
				kept = append(kept, rec)
				break
			}
		}
	}
	return jsonvalue.ArrayValue(kept...)
}

// SortRecords stably orders an Array by a direct field. Values compare
// numerically when both are numeric, else as strings; records without the
// field sort before those with it. If no record has the field the content
// is returned unchanged.
func SortRecords(content jsonvalue.Value, field string, desc bool) jsonvalue.Value {
	if content.Kind() != jsonvalue.Array || content.Len() == 0 || field == "" {
		return content
	}
	items := content.Items()

	present := false
	for _, rec := range items {
		if rec.Has(field) {
			present = true
			break
		}
	}
	if !present {
		return content
	}

	sort.SliceStable(items, func(i, j int) bool {
		c := CompareField(items[i], items[j], field)
		if desc {
			return c > 0
		}
		return c < 0
	})
	return jsonvalue.ArrayValue(items...)
}

// CompareField orders two records by field, returning -1, 0 or 1.
func CompareField(a, b jsonvalue.Value, field string) int {
	va, okA := a.Get(field)
	vb, okB := b.Get(field)
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return -1
	case !okB:
		return 1
	}
	return CompareValues(va, vb)
}

// CompareValues orders two values: numerically when both are numeric,
// otherwise by their string form.
func CompareValues(a, b jsonvalue.Value) int {
	if fa, ok := a.Float(); ok {
		if fb, ok := b.Float(); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(a.Text(), b.Text())
}

// Paginate slices an Array and wraps it in the {data, meta} envelope.
// total counts the records before slicing. page and limit must be >= 1.
func Paginate(content jsonvalue.Value, page, limit int) jsonvalue.Value {
	if content.Kind() != jsonvalue.Array || page < 1 || limit < 1 {
		return content
	}
	total := content.Len()

	// Bounds are derived by division so a huge page or limit cannot overflow.
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	start := total
	if page <= pages {
		start = (page - 1) * limit
	}
	end := start + min(limit, total-start)

	return jsonvalue.ObjectValue(
		jsonvalue.Member{Key: "data", Value: jsonvalue.ArrayValue(content.Items()[start:end]...)},
		jsonvalue.Member{Key: "meta", Value: jsonvalue.ObjectValue(
			jsonvalue.Member{Key: "total", Value: jsonvalue.IntValue(int64(total))},
			jsonvalue.Member{Key: "page", Value: jsonvalue.IntValue(int64(page))},
			jsonvalue.Member{Key: "limit", Value: jsonvalue.IntValue(int64(limit))},
			jsonvalue.Member{Key: "pages", Value: jsonvalue.IntValue(int64(pages))},
		)},
	)
}

// Project reduces records to the listed fields, in list order, omitting
// fields a record lacks. It applies to an envelope's data, a bare Array, or
// a single Object. Non-object array items are kept as they are.
func Project(content jsonvalue.Value, fields []string) jsonvalue.Value {
	if len(fields) == 0 {
		return content
	}
	switch content.Kind() {
	case jsonvalue.Array:
		return projectAll(content, fields)
	case jsonvalue.Object:
		if data, ok := content.Get("data"); ok && data.Kind() == jsonvalue.Array {
			return content.With("data", projectAll(data, fields))
		}
		return projectOne(content, fields)
	default:
		return content
	}
}

func projectAll(arr jsonvalue.Value, fields []string) jsonvalue.Value {
	items := arr.Items()
	for i, item := range items {
		if item.Kind() == jsonvalue.Object {
			items[i] = projectOne(item, fields)
		}
	}
	return jsonvalue.ArrayValue(items...)
}

func projectOne(rec jsonvalue.Value, fields []string) jsonvalue.Value {
	members := make([]jsonvalue.Member, 0, len(fields))
	for _, f := range fields {
		if v, ok := rec.Get(f); ok {
			members = append(members, jsonvalue.Member{Key: f, Value: v})
		}
	}
	return jsonvalue.ObjectValue(members...)
}
