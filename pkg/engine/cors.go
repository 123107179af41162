// CORS middleware for the mock engine.

package engine

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/getmockd/mockapi/pkg/config"
)

// CORSMiddleware adds CORS headers from configuration. Preflight requests are
// passed on so that mock routes can answer them from their definitions.
type CORSMiddleware struct {
	handler http.Handler
	config  config.CORSConfig
}

// NewCORSMiddleware wraps handler with CORS handling.
func NewCORSMiddleware(handler http.Handler, cfg config.CORSConfig) *CORSMiddleware {
	return &CORSMiddleware{handler: handler, config: cfg}
}

// CORS returns the middleware in chi's func(http.Handler) http.Handler form.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return NewCORSMiddleware(next, cfg)
	}
}

// ServeHTTP implements the http.Handler interface.
func (m *CORSMiddleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if allowOrigin := m.config.AllowOriginValue(r.Header.Get("Origin")); allowOrigin != "" {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", allowOrigin)
		if allowOrigin != "*" {
			h.Add("Vary", "Origin")
		}
		if len(m.config.AllowMethods) > 0 {
			h.Set("Access-Control-Allow-Methods", strings.Join(m.config.AllowMethods, ", "))
		}
		if len(m.config.AllowHeaders) > 0 {
			h.Set("Access-Control-Allow-Headers", strings.Join(m.config.AllowHeaders, ", "))
		}
		if len(m.config.ExposeHeaders) > 0 {
			h.Set("Access-Control-Expose-Headers", strings.Join(m.config.ExposeHeaders, ", "))
		}
		if m.config.AllowCredentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}
		if m.config.MaxAge > 0 {
			h.Set("Access-Control-Max-Age", strconv.Itoa(m.config.MaxAge))
		}
	}
	m.handler.ServeHTTP(w, r)
}
