package endpoint

import (
	"regexp"
	"strings"

	"github.com/getmockd/mockapi/pkg/jsonvalue"
)

var unsafeNameChars = regexp.MustCompile(`[^a-z0-9-]`)

// SanitizeProject lowercases a project name, turns spaces into dashes and
// drops everything outside [a-z0-9-].
func SanitizeProject(name string) string {
	name = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "-"))
	return unsafeNameChars.ReplaceAllString(name, "")
}

// SanitizeRoute lowercases a route name and drops everything outside [a-z0-9-].
func SanitizeRoute(route string) string {
	return unsafeNameChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(route)), "")
}

// NormalizeMethod upper-cases a method name; empty input defaults to GET.
func NormalizeMethod(method string) string {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		return "GET"
	}
	return method
}

// IsKnownMethod reports whether method is one of Methods.
func IsKnownMethod(method string) bool {
	for _, m := range Methods {
		if m == method {
			return true
		}
	}
	return false
}

// UnwrapContent strips accidental {"content": ...} wrappers that older
// publishing clients produced, so stored content is always the payload itself.
func UnwrapContent(v jsonvalue.Value) jsonvalue.Value {
	for v.Kind() == jsonvalue.Object && v.Len() == 1 {
		inner, ok := v.Get("content")
		if !ok {
			break
		}
		if k := inner.Kind(); k != jsonvalue.Object && k != jsonvalue.Array {
			break
		}
		v = inner
	}
	return v
}
