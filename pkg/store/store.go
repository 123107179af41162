// Package store provides the keyed document persistence layer for mockapi.
//
// Endpoint definitions and cached responses are both kept in a
// DocumentStore, a flat key/value map of byte documents. Backends:
//   - file:   one file per key under a data directory (atomic rename on write)
//   - memory: process-local map, for tests and ephemeral servers
//   - redis:  one redis string per key
//
// Directory defaults follow the XDG Base Directory Specification:
//   - Data:  ~/.local/share/mockapi/ (endpoint definitions)
//   - Cache: ~/.cache/mockapi/ (rendered responses)
package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Common errors
var (
	ErrNotFound   = errors.New("not found")
	ErrInvalidKey = errors.New("invalid key")
	ErrReadOnly   = errors.New("store is read-only")
)

// Backend represents a storage backend type.
type Backend string

const (
	// BackendFile stores one document per file.
	BackendFile Backend = "file"
	// BackendMemory keeps documents in process memory (no persistence).
	BackendMemory Backend = "memory"
	// BackendRedis stores documents in a redis server.
	BackendRedis Backend = "redis"
)

// DocumentStore is a keyed document store. Keys are slash-separated relative
// paths such as "shop/items_GET.json". Readers never block writers; concurrent
// writes to the same key are last-write-wins.
type DocumentStore interface {
	// Get returns the document stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put creates or replaces the document stored under key.
	Put(ctx context.Context, key string, data []byte) error

	// Delete removes the document stored under key, or returns ErrNotFound.
	Delete(ctx context.Context, key string) error

	// List returns all keys starting with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// ExpiringStore is implemented by backends that can expire documents on
// their own. Caches use it to avoid leaving stale entries behind.
type ExpiringStore interface {
	PutWithTTL(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// ValidateKey rejects keys that are empty, absolute, or escape the store root.
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return ErrInvalidKey
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}

// DefaultDataDir returns the default data directory following XDG spec.
func DefaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "mockapi")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".mockapi", "data")
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support", "mockapi")
	}
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("LOCALAPPDATA"); appData != "" {
			return filepath.Join(appData, "mockapi")
		}
		return filepath.Join(home, "AppData", "Local", "mockapi")
	}
	return filepath.Join(home, ".local", "share", "mockapi")
}

// DefaultCacheDir returns the default cache directory following XDG spec.
func DefaultCacheDir() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "mockapi")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".mockapi", "cache")
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Caches", "mockapi")
	}
	if runtime.GOOS == "windows" {
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "mockapi", "cache")
		}
		return filepath.Join(home, "AppData", "Local", "mockapi", "cache")
	}
	return filepath.Join(home, ".cache", "mockapi")
}
