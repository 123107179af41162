package query

import (
	"github.com/getmockd/mockapi/pkg/jsonvalue"
)

// TypeName classifies a value for schema output: null, boolean, integer,
// number, string, array or object.
func TypeName(v jsonvalue.Value) string {
	switch v.Kind() {
	case jsonvalue.Null:
		return "null"
	case jsonvalue.Bool:
		return "boolean"
	case jsonvalue.Number:
		if v.IsInteger() {
			return "integer"
		}
		return "number"
	case jsonvalue.String:
		return "string"
	case jsonvalue.Array:
		return "array"
	default:
		return "object"
	}
}

// InferSchema describes the shape of content from its first record, or from
// content itself when it is a single Object. Each key maps to {"type": ...};
// objects add "properties", non-empty arrays add "items" typed by their first
// element. Content with no object record yields an empty schema.
func InferSchema(content jsonvalue.Value) jsonvalue.Value {
	switch content.Kind() {
	case jsonvalue.Array:
		if first, ok := content.Index(0); ok && first.Kind() == jsonvalue.Object {
			return describeObject(first)
		}
	case jsonvalue.Object:
		return describeObject(content)
	}
	return jsonvalue.ObjectValue()
}

func describeObject(obj jsonvalue.Value) jsonvalue.Value {
	members := make([]jsonvalue.Member, 0, obj.Len())
	for _, m := range obj.Members() {
		members = append(members, jsonvalue.Member{Key: m.Key, Value: describe(m.Value)})
	}
	return jsonvalue.ObjectValue(members...)
}

func describe(v jsonvalue.Value) jsonvalue.Value {
	typ := TypeName(v)
	node := []jsonvalue.Member{{Key: "type", Value: jsonvalue.StringValue(typ)}}

	switch v.Kind() {
	case jsonvalue.Object:
		node = append(node, jsonvalue.Member{Key: "properties", Value: describeObject(v)})
	case jsonvalue.Array:
		if first, ok := v.Index(0); ok {
			items := []jsonvalue.Member{{Key: "type", Value: jsonvalue.StringValue(TypeName(first))}}
			if first.Kind() == jsonvalue.Object {
				items = append(items, jsonvalue.Member{Key: "properties", Value: describeObject(first)})
			}
			node = append(node, jsonvalue.Member{Key: "items", Value: jsonvalue.ObjectValue(items...)})
		}
	}
	return jsonvalue.ObjectValue(node...)
}

// TotalItems is the record count reported alongside a schema and in the
// result-count header: the length of an Array, otherwise 1.
func TotalItems(content jsonvalue.Value) int {
	if content.Kind() == jsonvalue.Array {
		return content.Len()
	}
	return 1
}

// SchemaDocument builds the {"schema", "total_items"} response body.
func SchemaDocument(content jsonvalue.Value) jsonvalue.Value {
	return jsonvalue.ObjectValue(
		jsonvalue.Member{Key: "schema", Value: InferSchema(content)},
		jsonvalue.Member{Key: "total_items", Value: jsonvalue.IntValue(int64(TotalItems(content)))},
	)
}
