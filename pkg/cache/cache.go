// Package cache stores rendered mock responses for a short time so bursts of
// identical requests skip the query pipeline.
//
// Entries are keyed by project, route and a request fingerprint. They are
// written once and never updated; a stale entry is simply ignored until a
// sweep or a backend expiry removes it.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"strings"
	"time"
)

// DefaultTTL is how long a cached response stays fresh.
const DefaultTTL = time.Second

// ErrMiss is returned when no fresh entry exists for a key.
var ErrMiss = errors.New("cache miss")

// Entry is one cached response.
type Entry struct {
	Fingerprint string    `json:"fingerprint"`
	Status      int       `json:"status"`
	ContentType string    `json:"content_type"`
	ResultCount int       `json:"result_count"`
	Body        []byte    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
}

// Fresh reports whether the entry is still valid at now.
func (e *Entry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.CreatedAt) < ttl
}

// Key addresses a cache entry.
type Key struct {
	Project     string
	Route       string
	Fingerprint string
}

// String returns the document key "<project>/<route>/<fingerprint>.json".
func (k Key) String() string {
	return RoutePrefix(k.Project, k.Route) + k.Fingerprint + ".json"
}

// RoutePrefix is the key prefix shared by every entry of a route.
func RoutePrefix(project, route string) string {
	return project + "/" + route + "/"
}

// Fingerprint hashes the method, path and parameter set of a request.
// Parameters are normalised by sorting keys; values keep their order.
func Fingerprint(method, path string, params url.Values) string {
	h := sha256.New()
	h.Write([]byte(strings.ToUpper(method)))
	h.Write([]byte{'\n'})
	h.Write([]byte(path))
	h.Write([]byte{'\n'})
	h.Write([]byte(params.Encode()))
	return hex.EncodeToString(h.Sum(nil))
}

// Cache is a response cache backend.
type Cache interface {
	// Get returns the fresh entry for k, or ErrMiss.
	Get(ctx context.Context, k Key) (*Entry, error)
	// Put stores e under k.
	Put(ctx context.Context, k Key, e *Entry) error
	// Invalidate drops every entry of a route.
	Invalidate(ctx context.Context, project, route string) error
	// Sweep removes stale entries and reports how many were removed.
	Sweep(ctx context.Context) (int, error)
}
