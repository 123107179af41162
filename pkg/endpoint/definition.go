// Package endpoint defines mock endpoint definitions and the error taxonomy
// shared by the serving pipeline and the administrative operations.
package endpoint

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/getmockd/mockapi/pkg/jsonvalue"
)

// Methods lists the HTTP methods a definition may be published for, in the
// order used when a route is looked up across methods.
var Methods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodHead,
	http.MethodOptions,
}

// Key identifies a stored definition. An empty Method denotes a legacy
// definition keyed by project and route only.
type Key struct {
	Project string
	Route   string
	Method  string
}

// Legacy returns the generic key for the same project and route.
func (k Key) Legacy() Key {
	return Key{Project: k.Project, Route: k.Route}
}

// IsLegacy reports whether k has no method component.
func (k Key) IsLegacy() bool { return k.Method == "" }

func (k Key) String() string {
	if k.Method == "" {
		return k.Project + "/" + k.Route
	}
	return fmt.Sprintf("%s %s/%s", k.Method, k.Project, k.Route)
}

// Definition is a published mock endpoint.
//
// Project, Route and Legacy are derived from the storage key and are not part
// of the persisted document.
type Definition struct {
	Project string `json:"-"`
	Route   string `json:"-"`
	Legacy  bool   `json:"-"`

	Method       string           `json:"method"`
	Content      jsonvalue.Value  `json:"content"`
	CreatedAt    Timestamp        `json:"created_at"`
	StatusCode   int              `json:"status_code,omitempty"`
	ErrorMessage *jsonvalue.Value `json:"error_message,omitempty"`
}

// Key returns the storage key of d.
func (d *Definition) Key() Key {
	if d.Legacy {
		return Key{Project: d.Project, Route: d.Route}
	}
	return Key{Project: d.Project, Route: d.Route, Method: d.Method}
}

// EffectiveStatus returns the configured status code, or 200 when unset.
func (d *Definition) EffectiveStatus() int {
	if d.StatusCode == 0 {
		return http.StatusOK
	}
	return d.StatusCode
}

// HasErrorOverride reports whether d short-circuits serving with its own
// error body.
func (d *Definition) HasErrorOverride() bool {
	return d.StatusCode >= http.StatusBadRequest && d.ErrorMessage != nil
}

// AcceptsMethod reports whether a request with the given method may be
// served from d. OPTIONS is always accepted.
func (d *Definition) AcceptsMethod(method string) bool {
	return method == http.MethodOptions || strings.EqualFold(d.Method, method)
}

// Encode renders d as the pretty-printed document persisted by stores.
func (d *Definition) Encode() ([]byte, error) {
	return json.MarshalIndent(d, "", "    ")
}

// Decode parses a persisted definition document.
func Decode(data []byte) (*Definition, error) {
	var d Definition
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode definition: %w", err)
	}
	return &d, nil
}

// TimestampLayout is the layout of created_at in persisted definitions.
const TimestampLayout = "2006-01-02 15:04:05"

// Timestamp is a time persisted as "YYYY-MM-DD hh:mm:ss". RFC 3339 input is
// also accepted.
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to whole seconds.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.Truncate(time.Second)}
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.Format(TimestampLayout))
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{TimestampLayout, time.RFC3339} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}
