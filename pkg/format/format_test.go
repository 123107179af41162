package format

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockapi/pkg/jsonvalue"
)

func mustParse(t *testing.T, s string) jsonvalue.Value {
	t.Helper()
	v, err := jsonvalue.ParseString(s)
	require.NoError(t, err)
	return v
}

func TestParse(t *testing.T) {
	tests := map[string]Format{
		"":     JSON,
		"json": JSON,
		"XML":  XML,
		" csv": CSV,
		"yaml": JSON,
	}
	for in, want := range tests {
		assert.Equal(t, want, Parse(in), "Parse(%q)", in)
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", JSON.ContentType())
	assert.Equal(t, "application/xml", XML.ContentType())
	assert.Equal(t, "text/csv", CSV.ContentType())
	assert.Equal(t, "application/json", Format("other").ContentType())
}

func TestRenderJSON(t *testing.T) {
	got, err := Render(mustParse(t, `[{"id":1,"name":"a"}]`), JSON)
	require.NoError(t, err)
	assert.Equal(t, "[\n    {\n        \"id\": 1,\n        \"name\": \"a\"\n    }\n]", string(got))
}

func TestRenderCSV(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"scenario E", `[{"id":1,"name":"a"}]`, "id,name\n1,a\n"},
		{"rows aligned to header", `[{"a":1,"b":2},{"b":3,"c":4}]`, "a,b\n1,2\n,3\n"},
		{"nested values as json", `[{"id":1,"tags":["x","y"]}]`, "id,tags\n1,\"[\"\"x\"\",\"\"y\"\"]\"\n"},
		{"single object", `{"id":1,"ok":true}`, "id,ok\n1,true\n"},
		{"envelope uses data", `{"data":[{"id":2}],"meta":{"total":1,"page":1,"limit":1,"pages":1}}`, "id\n2\n"},
		{"quoting", `[{"s":"a,b"}]`, "s\n\"a,b\"\n"},
		{"empty array", `[]`, ""},
		{"scalars", `[1,2]`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(mustParse(t, tt.content), CSV)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestRenderXML_Envelope(t *testing.T) {
	v := mustParse(t, `{"data":[{"id":1,"name":"a & b"}],"meta":{"total":2,"page":1,"limit":1,"pages":2}}`)
	out, err := Render(v, XML)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), `<?xml version="1.0" encoding="UTF-8"?>`))

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(out))
	root := doc.SelectElement("response")
	require.NotNil(t, root)

	children := root.ChildElements()
	require.Len(t, children, 2)
	assert.Equal(t, "meta", children[0].Tag)
	assert.Equal(t, "data", children[1].Tag)
	assert.Equal(t, "2", children[0].SelectElement("total").Text())

	item := children[1].SelectElement("item")
	require.NotNil(t, item)
	assert.Equal(t, "a & b", item.SelectElement("name").Text())
	assert.Contains(t, string(out), "a &amp; b")
}

func TestRenderXML_KeysSanitized(t *testing.T) {
	out, err := Render(mustParse(t, `{"first name":"x","1st":"y","0":"z","xmlish":"w"}`), XML)
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(out))
	root := doc.SelectElement("response")
	require.NotNil(t, root)

	var tags []string
	for _, el := range root.ChildElements() {
		tags = append(tags, el.Tag)
	}
	assert.Equal(t, []string{"first_name", "_1st", "item", "_xmlish"}, tags)
}

func TestRenderXML_Scalar(t *testing.T) {
	out, err := Render(jsonvalue.StringValue("hi"), XML)
	require.NoError(t, err)
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(out))
	assert.Equal(t, "hi", doc.SelectElement("response").Text())
}

func TestRenderXML_ControlCharactersDropped(t *testing.T) {
	out, err := Render(mustParse(t, `{"note":"a\u0001b\u001fc\td\uFFFEe"}`), XML)
	require.NoError(t, err)

	dec := xml.NewDecoder(bytes.NewReader(out))
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
	}

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(out))
	assert.Equal(t, "abc\tde", doc.SelectElement("response").SelectElement("note").Text())
}
