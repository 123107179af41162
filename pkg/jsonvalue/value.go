// Package jsonvalue provides an explicit, order-preserving JSON value type.
//
// Endpoint content is stored and transformed as a Value rather than as
// map[string]interface{} so that object key order survives round-trips and
// numbers keep their literal text (which makes integer vs. floating point
// classification exact).
//
// Values are immutable: accessors return copies of internal slices and every
// transformation builds a new Value.
package jsonvalue

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind uint8

// Value kinds.
const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "unknown"
	}
}

// Member is a single key/value pair of an Object.
type Member struct {
	Key   string
	Value Value
}

// Value is a JSON value. The zero Value is JSON null.
type Value struct {
	kind    Kind
	b       bool
	s       string // string contents, or the literal text of a number
	items   []Value
	members []Member
}

// NullValue returns JSON null.
func NullValue() Value { return Value{} }

// BoolValue returns a JSON boolean.
func BoolValue(b bool) Value { return Value{kind: Bool, b: b} }

// StringValue returns a JSON string.
func StringValue(s string) Value { return Value{kind: String, s: s} }

// IntValue returns a JSON integer number.
func IntValue(n int64) Value {
	return Value{kind: Number, s: strconv.FormatInt(n, 10)}
}

// FloatValue returns a JSON number formatted with the shortest representation.
func FloatValue(f float64) Value {
	return Value{kind: Number, s: strconv.FormatFloat(f, 'f', -1, 64)}
}

// NumberValue returns a JSON number from its literal text.
// The literal is not validated; use Parse for untrusted input.
func NumberValue(literal string) Value {
	return Value{kind: Number, s: literal}
}

// ArrayValue returns a JSON array holding a copy of items.
func ArrayValue(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: Array, items: cp}
}

// ObjectValue returns a JSON object with the given members.
// When a key repeats, the later value replaces the earlier one in place.
func ObjectValue(members ...Member) Value {
	v := Value{kind: Object, members: make([]Member, 0, len(members))}
	for _, m := range members {
		v.members = setMember(v.members, m.Key, m.Value)
	}
	return v
}

func setMember(members []Member, key string, val Value) []Member {
	for i := range members {
		if members[i].Key == key {
			members[i].Value = val
			return members
		}
	}
	return append(members, Member{Key: key, Value: val})
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is JSON null.
func (v Value) IsNull() bool { return v.kind == Null }

// Bool returns the boolean held by v, or false.
func (v Value) Bool() bool { return v.b }

// Str returns the string held by v, or "".
func (v Value) Str() string {
	if v.kind != String {
		return ""
	}
	return v.s
}

// Literal returns the literal text of a number, or "".
func (v Value) Literal() string {
	if v.kind != Number {
		return ""
	}
	return v.s
}

// IsInteger reports whether v is a number written without fraction or exponent.
func (v Value) IsInteger() bool {
	return v.kind == Number && !strings.ContainsAny(v.s, ".eE")
}

// Len returns the number of items of an Array or members of an Object.
func (v Value) Len() int {
	switch v.kind {
	case Array:
		return len(v.items)
	case Object:
		return len(v.members)
	default:
		return 0
	}
}

// Items returns a copy of the items of an Array.
func (v Value) Items() []Value {
	if v.kind != Array {
		return nil
	}
	cp := make([]Value, len(v.items))
	copy(cp, v.items)
	return cp
}

// Index returns the i-th item of an Array.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != Array || i < 0 || i >= len(v.items) {
		return Value{}, false
	}
	return v.items[i], true
}

// Members returns a copy of the members of an Object, in insertion order.
func (v Value) Members() []Member {
	if v.kind != Object {
		return nil
	}
	cp := make([]Member, len(v.members))
	copy(cp, v.members)
	return cp
}

// Keys returns the keys of an Object in insertion order.
func (v Value) Keys() []string {
	if v.kind != Object {
		return nil
	}
	keys := make([]string, len(v.members))
	for i, m := range v.members {
		keys[i] = m.Key
	}
	return keys
}

// Get returns the member named key of an Object.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != Object {
		return Value{}, false
	}
	for _, m := range v.members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Has reports whether an Object has a member named key.
func (v Value) Has(key string) bool {
	_, ok := v.Get(key)
	return ok
}

// With returns a copy of the Object v with key set to val.
// Calling With on a non-object starts a new Object.
func (v Value) With(key string, val Value) Value {
	members := v.Members()
	return Value{kind: Object, members: setMember(members, key, val)}
}

var numericPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// IsNumeric reports whether s is a plain decimal number such as "42", "-1.5" or "1e3".
func IsNumeric(s string) bool {
	return numericPattern.MatchString(s)
}

// Float returns v as a float64 when v is a number or a numeric string.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case Number:
		f, err := strconv.ParseFloat(v.s, 64)
		return f, err == nil
	case String:
		if !IsNumeric(v.s) {
			return 0, false
		}
		f, err := strconv.ParseFloat(v.s, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Text returns the string form of v used for comparisons and text output:
// strings as-is, numbers as their literal, booleans as "true"/"false",
// null as "", and arrays/objects as compact JSON.
func (v Value) Text() string {
	switch v.kind {
	case Null:
		return ""
	case Bool:
		return strconv.FormatBool(v.b)
	case Number, String:
		return v.s
	default:
		return string(v.Compact())
	}
}

// Equal reports whether a and b are structurally equal. Object member order
// is significant; numbers are compared by value.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Null:
		return true
	case Bool:
		return a.b == b.b
	case String:
		return a.s == b.s
	case Number:
		fa, okA := a.Float()
		fb, okB := b.Float()
		if okA && okB {
			return fa == fb
		}
		return a.s == b.s
	case Array:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	case Object:
		if len(a.members) != len(b.members) {
			return false
		}
		for i := range a.members {
			if a.members[i].Key != b.members[i].Key || !Equal(a.members[i].Value, b.members[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}
