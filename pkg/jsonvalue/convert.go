package jsonvalue

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Interface converts v to the generic representation used by encoding/json
// and JSONPath libraries: map[string]any, []any, string, bool, nil, and
// int64 or float64 for numbers. Object key order is not preserved.
func (v Value) Interface() any {
	switch v.kind {
	case Bool:
		return v.b
	case Number:
		if v.IsInteger() {
			if n, err := strconv.ParseInt(v.s, 10, 64); err == nil {
				return n
			}
		}
		f, _ := strconv.ParseFloat(v.s, 64)
		return f
	case String:
		return v.s
	case Array:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = item.Interface()
		}
		return out
	case Object:
		out := make(map[string]any, len(v.members))
		for _, m := range v.members {
			out[m.Key] = m.Value.Interface()
		}
		return out
	default:
		return nil
	}
}

// FromInterface converts a generic Go value back into a Value. Map keys are
// emitted in sorted order since Go maps carry none.
func FromInterface(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return NullValue(), nil
	case Value:
		return t, nil
	case bool:
		return BoolValue(t), nil
	case string:
		return StringValue(t), nil
	case json.Number:
		return NumberValue(t.String()), nil
	case int:
		return IntValue(int64(t)), nil
	case int64:
		return IntValue(t), nil
	case float64:
		return FloatValue(t), nil
	case []any:
		items := make([]Value, len(t))
		for i, e := range t {
			item, err := FromInterface(e)
			if err != nil {
				return Value{}, err
			}
			items[i] = item
		}
		return Value{kind: Array, items: items}, nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		members := make([]Member, len(keys))
		for i, k := range keys {
			val, err := FromInterface(t[k])
			if err != nil {
				return Value{}, err
			}
			members[i] = Member{Key: k, Value: val}
		}
		return Value{kind: Object, members: members}, nil
	default:
		return Value{}, fmt.Errorf("jsonvalue: unsupported type %T", x)
	}
}

// Lookup resolves a dotted path such as "user.address.city" against v.
// Each segment must name a member of an Object; a numeric segment may also
// index into an Array. A missing segment reports false.
func (v Value) Lookup(path string) (Value, bool) {
	if path == "" {
		return Value{}, false
	}
	cur := v
	for _, seg := range strings.Split(path, ".") {
		switch cur.kind {
		case Object:
			next, ok := cur.Get(seg)
			if !ok {
				return Value{}, false
			}
			cur = next
		case Array:
			i, err := strconv.Atoi(seg)
			if err != nil {
				return Value{}, false
			}
			next, ok := cur.Index(i)
			if !ok {
				return Value{}, false
			}
			cur = next
		default:
			return Value{}, false
		}
	}
	return cur, true
}
