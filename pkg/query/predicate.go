package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ohler55/ojg/jp"
	"golang.org/x/text/cases"

	"github.com/getmockd/mockapi/pkg/endpoint"
	"github.com/getmockd/mockapi/pkg/jsonvalue"
)

// Operator is a filter comparison.
type Operator string

// Supported operators.
const (
	OpEq         Operator = "eq"
	OpNeq        Operator = "neq"
	OpGt         Operator = "gt"
	OpGte        Operator = "gte"
	OpLt         Operator = "lt"
	OpLte        Operator = "lte"
	OpContains   Operator = "contains"
	OpStartsWith Operator = "startswith"
	OpEndsWith   Operator = "endswith"
	OpIn         Operator = "in"
)

// Operators lists every supported operator.
var Operators = []Operator{OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte, OpContains, OpStartsWith, OpEndsWith, OpIn}

// ParseOperator maps a request value to an Operator. Unknown names fall back to eq.
func ParseOperator(s string) Operator {
	op := Operator(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Operators {
		if op == known {
			return op
		}
	}
	return OpEq
}

// Predicate is one filter condition.
type Predicate struct {
	Field    string
	Operator Operator
	Value    string
}

func (p Predicate) String() string {
	return fmt.Sprintf("%s %s %q", p.Field, p.Operator, p.Value)
}

// matcher is a Predicate prepared for repeated evaluation.
type matcher struct {
	Predicate
	value    string // Value with surrounding quotes stripped
	num      float64
	numeric  bool
	path     jp.Expr // set when Field is a JSONPath expression
	inValues []string
}

func compile(p Predicate) (*matcher, error) {
	m := &matcher{Predicate: p, value: strings.Trim(p.Value, `"'`)}
	if jsonvalue.IsNumeric(m.value) {
		if f, err := strconv.ParseFloat(m.value, 64); err == nil {
			m.num, m.numeric = f, true
		}
	}
	if strings.HasPrefix(p.Field, "$") {
		x, err := jp.ParseString(p.Field)
		if err != nil {
			return nil, &endpoint.BadRequestError{Message: "invalid JSONPath filter: " + err.Error(), Field: p.Field}
		}
		m.path = x
	}
	if p.Operator == OpIn {
		m.inValues = strings.Split(m.value, ",")
	}
	return m, nil
}

// resolve finds the field value in record. Missing or null fields report false.
func (m *matcher) resolve(record jsonvalue.Value) (jsonvalue.Value, bool) {
	if m.path != nil {
		results := m.path.Get(record.Interface())
		if len(results) == 0 {
			return jsonvalue.Value{}, false
		}
		v, err := jsonvalue.FromInterface(results[0])
		if err != nil || v.IsNull() {
			return jsonvalue.Value{}, false
		}
		return v, true
	}
	v, ok := record.Lookup(m.Field)
	if !ok || v.IsNull() {
		return jsonvalue.Value{}, false
	}
	return v, true
}

func (m *matcher) match(record jsonvalue.Value) bool {
	field, ok := m.resolve(record)
	if !ok {
		return false
	}

	switch m.Operator {
	case OpContains:
		if field.Kind() == jsonvalue.Array {
			for _, item := range field.Items() {
				if m.equals(item) {
					return true
				}
			}
			return false
		}
		return strings.Contains(fold(field.Text()), fold(m.value))
	case OpStartsWith:
		return strings.HasPrefix(fold(field.Text()), fold(m.value))
	case OpEndsWith:
		return strings.HasSuffix(fold(field.Text()), fold(m.value))
	case OpIn:
		for _, candidate := range m.inValues {
			if equalText(field, candidate) {
				return true
			}
		}
		return false
	case OpNeq:
		return !m.equals(field)
	case OpGt, OpGte, OpLt, OpLte:
		c, ok := m.compare(field)
		if !ok {
			return false
		}
		switch m.Operator {
		case OpGt:
			return c > 0
		case OpGte:
			return c >= 0
		case OpLt:
			return c < 0
		default:
			return c <= 0
		}
	default:
		return m.equals(field)
	}
}

func (m *matcher) equals(field jsonvalue.Value) bool {
	if m.numeric {
		if f, ok := field.Float(); ok {
			return f == m.num
		}
	}
	return field.Text() == m.value
}

// compare orders field against the filter value: numerically when both
// sides are numeric, else lexically. Containers never compare.
func (m *matcher) compare(field jsonvalue.Value) (int, bool) {
	if k := field.Kind(); k == jsonvalue.Array || k == jsonvalue.Object {
		return 0, false
	}
	if m.numeric {
		if f, ok := field.Float(); ok {
			switch {
			case f < m.num:
				return -1, true
			case f > m.num:
				return 1, true
			default:
				return 0, true
			}
		}
	}
	return strings.Compare(field.Text(), m.value), true
}

func equalText(field jsonvalue.Value, candidate string) bool {
	candidate = strings.TrimSpace(candidate)
	if f, ok := field.Float(); ok && jsonvalue.IsNumeric(candidate) {
		c, err := strconv.ParseFloat(candidate, 64)
		return err == nil && f == c
	}
	return field.Text() == candidate
}

// fold returns the case-folded form of s. A Caser is stateful, so each call
// gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}
