package jsonvalue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrTrailingData is returned by Parse when the input holds more than one JSON value.
var ErrTrailingData = errors.New("jsonvalue: unexpected data after top-level value")

// Parse decodes a single JSON document into a Value, keeping object key order.
// Duplicate keys keep their first position and the last value.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decode(dec)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, ErrTrailingData
	}
	return v, nil
}

// ParseString is Parse for a string input.
func ParseString(s string) (Value, error) {
	return Parse([]byte(s))
}

func decode(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}

	switch t := tok.(type) {
	case nil:
		return NullValue(), nil
	case bool:
		return BoolValue(t), nil
	case json.Number:
		return NumberValue(t.String()), nil
	case string:
		return StringValue(t), nil
	case json.Delim:
		switch t {
		case '[':
			items := make([]Value, 0)
			for dec.More() {
				item, err := decode(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Value{kind: Array, items: items}, nil
		case '{':
			members := make([]Member, 0)
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("jsonvalue: unexpected object key %v", keyTok)
				}
				val, err := decode(dec)
				if err != nil {
					return Value{}, err
				}
				members = setMember(members, key, val)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Value{kind: Object, members: members}, nil
		}
	}
	return Value{}, fmt.Errorf("jsonvalue: unexpected token %v", tok)
}

// Compact returns the compact JSON encoding of v.
func (v Value) Compact() []byte {
	var buf bytes.Buffer
	v.encode(&buf)
	return buf.Bytes()
}

// Indent returns the JSON encoding of v indented with the given string.
func (v Value) Indent(indent string) []byte {
	var out bytes.Buffer
	// Compact output is always valid JSON, so Indent cannot fail.
	_ = json.Indent(&out, v.Compact(), "", indent)
	return out.Bytes()
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return v.Compact(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v Value) encode(buf *bytes.Buffer) {
	switch v.kind {
	case Null:
		buf.WriteString("null")
	case Bool:
		buf.WriteString(strconv.FormatBool(v.b))
	case Number:
		buf.WriteString(v.s)
	case String:
		writeString(buf, v.s)
	case Array:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			item.encode(buf)
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		for i, m := range v.members {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeString(buf, m.Key)
			buf.WriteByte(':')
			m.Value.encode(buf)
		}
		buf.WriteByte('}')
	}
}

func writeString(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail.
	_ = enc.Encode(s)
	buf.Truncate(buf.Len() - 1) // drop the newline Encode appends
}
