// Package format renders query results as JSON, XML or CSV.
package format

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"regexp"
	"strings"

	"github.com/beevik/etree"

	"github.com/getmockd/mockapi/pkg/jsonvalue"
)

// Format is an output format name.
type Format string

// Supported formats.
const (
	JSON Format = "json"
	XML  Format = "xml"
	CSV  Format = "csv"
)

// JSONIndent is the indentation used for JSON output.
const JSONIndent = "    "

// Parse maps a request value to a Format. Unknown or empty names mean JSON.
func Parse(s string) Format {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case XML:
		return XML
	case CSV:
		return CSV
	default:
		return JSON
	}
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case XML:
		return "application/xml"
	case CSV:
		return "text/csv"
	default:
		return "application/json"
	}
}

// Render serializes v in format f.
func Render(v jsonvalue.Value, f Format) ([]byte, error) {
	switch f {
	case XML:
		return RenderXML(v)
	case CSV:
		return RenderCSV(v)
	default:
		return RenderJSON(v), nil
	}
}

// RenderJSON pretty-prints v with four-space indentation.
func RenderJSON(v jsonvalue.Value) []byte {
	return v.Indent(JSONIndent)
}

// RenderXML renders v under a <response> root. A pagination envelope becomes
// <meta> followed by <data>; array items become <item> elements.
func RenderXML(v jsonvalue.Value) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("response")

	if meta, data, ok := envelope(v); ok {
		metaEl := root.CreateElement("meta")
		for _, m := range meta.Members() {
			metaEl.CreateElement(xmlName(m.Key)).SetText(m.Value.Text())
		}
		appendXML(root.CreateElement("data"), data)
	} else {
		appendXML(root, v)
	}

	doc.Indent(2)
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("render xml: %w", err)
	}
	return buf.Bytes(), nil
}

func appendXML(el *etree.Element, v jsonvalue.Value) {
	switch v.Kind() {
	case jsonvalue.Object:
		for _, m := range v.Members() {
			appendXML(el.CreateElement(xmlName(m.Key)), m.Value)
		}
	case jsonvalue.Array:
		for _, item := range v.Items() {
			appendXML(el.CreateElement("item"), item)
		}
	default:
		el.SetText(xmlText(v.Text()))
	}
}

// xmlText drops characters outside the XML 1.0 Char production.
func xmlText(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r',
			r >= 0x20 && r <= 0xD7FF,
			r >= 0xE000 && r <= 0xFFFD,
			r >= 0x10000 && r <= 0x10FFFF:
			return r
		}
		return -1
	}, s)
}

var (
	invalidNameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)
	validNameStart   = regexp.MustCompile(`^[A-Za-z_]`)
)

// xmlName turns an object key into a valid element name. Numeric keys
// become "item", matching array elements.
func xmlName(key string) string {
	if key == "" || jsonvalue.IsNumeric(key) {
		return "item"
	}
	name := invalidNameChars.ReplaceAllString(key, "_")
	if !validNameStart.MatchString(name) || strings.HasPrefix(strings.ToLower(name), "xml") {
		name = "_" + name
	}
	return name
}

// RenderCSV renders records as CSV. The header is the first record's keys
// and every row is aligned to it; nested values are written as compact JSON.
// A single Object renders as a header and one row. Content without object
// records renders as an empty body.
func RenderCSV(v jsonvalue.Value) ([]byte, error) {
	if _, data, ok := envelope(v); ok {
		v = data
	} else if data, ok := v.Get("data"); ok && data.Kind() == jsonvalue.Array {
		v = data
	}

	var rows []jsonvalue.Value
	switch v.Kind() {
	case jsonvalue.Array:
		rows = v.Items()
	case jsonvalue.Object:
		rows = []jsonvalue.Value{v}
	}
	if len(rows) == 0 || rows[0].Kind() != jsonvalue.Object {
		return []byte{}, nil
	}

	header := rows[0].Keys()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("render csv: %w", err)
	}
	record := make([]string, len(header))
	for _, row := range rows {
		for i, key := range header {
			cell, _ := row.Get(key)
			record[i] = cell.Text()
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("render csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("render csv: %w", err)
	}
	return buf.Bytes(), nil
}

// envelope reports whether v is a {data: [...], meta: {...}} pagination envelope.
func envelope(v jsonvalue.Value) (meta, data jsonvalue.Value, ok bool) {
	if v.Kind() != jsonvalue.Object {
		return meta, data, false
	}
	data, hasData := v.Get("data")
	meta, hasMeta := v.Get("meta")
	if !hasData || !hasMeta || data.Kind() != jsonvalue.Array || meta.Kind() != jsonvalue.Object {
		return jsonvalue.Value{}, jsonvalue.Value{}, false
	}
	return meta, data, true
}
