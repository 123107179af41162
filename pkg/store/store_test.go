package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/getmockd/mockapi/pkg/endpoint"
)

// =============================================================================
// Directory & Key Tests
// =============================================================================

func TestDefaultDataDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/custom/data")
	if dir := DefaultDataDir(); dir != "/custom/data/mockapi" {
		t.Errorf("with XDG_DATA_HOME: got %q, want %q", dir, "/custom/data/mockapi")
	}

	t.Setenv("XDG_DATA_HOME", "")
	dir := DefaultDataDir()
	if dir == "" {
		t.Error("DefaultDataDir should not return empty string")
	}
	if filepath.Base(dir) != "mockapi" && filepath.Base(dir) != "data" {
		t.Errorf("unexpected default data dir %q", dir)
	}
}

func TestDefaultCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/custom/cache")
	if dir := DefaultCacheDir(); dir != "/custom/cache/mockapi" {
		t.Errorf("with XDG_CACHE_HOME: got %q, want %q", dir, "/custom/cache/mockapi")
	}

	t.Setenv("XDG_CACHE_HOME", "")
	if DefaultCacheDir() == "" {
		t.Error("DefaultCacheDir should not return empty string")
	}
}

func TestValidateKey(t *testing.T) {
	valid := []string{"a.json", "shop/items_GET.json", "cache/shop/items/abc.json"}
	for _, k := range valid {
		if err := ValidateKey(k); err != nil {
			t.Errorf("ValidateKey(%q) = %v, want nil", k, err)
		}
	}
	invalid := []string{"", "/a", "a/", "a//b", "./a", "a/../b", `a\b`}
	for _, k := range invalid {
		if err := ValidateKey(k); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("ValidateKey(%q) = %v, want ErrInvalidKey", k, err)
		}
	}
}

func TestDefinitionKey(t *testing.T) {
	tests := []struct {
		key  endpoint.Key
		want string
	}{
		{endpoint.Key{Project: "shop", Route: "items", Method: "GET"}, "shop/items_GET.json"},
		{endpoint.Key{Project: "shop", Route: "items"}, "shop/items.json"},
		{endpoint.Key{Project: "shop", Route: "bulk-delete", Method: "DELETE"}, "shop/bulk-delete_DELETE.json"},
	}
	for _, tt := range tests {
		got := DefinitionKey(tt.key)
		if got != tt.want {
			t.Errorf("DefinitionKey(%v) = %q, want %q", tt.key, got, tt.want)
		}
		back, ok := ParseDefinitionKey(got)
		if !ok || back != tt.key {
			t.Errorf("ParseDefinitionKey(%q) = %v, %v; want %v", got, back, ok, tt.key)
		}
	}
}

func TestParseDefinitionKey_Rejects(t *testing.T) {
	for _, k := range []string{"items.json", "shop/items.txt", "shop/.json", "a/b/c.json"} {
		if _, ok := ParseDefinitionKey(k); ok {
			t.Errorf("ParseDefinitionKey(%q) should fail", k)
		}
	}
	// Lowercase method suffixes are part of the route name.
	k, ok := ParseDefinitionKey("shop/items_get.json")
	if !ok || k.Route != "items_get" || !k.IsLegacy() {
		t.Errorf("ParseDefinitionKey(items_get) = %v, %v", k, ok)
	}
}
