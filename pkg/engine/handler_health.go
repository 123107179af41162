// Health probe handler for the mock engine.

package engine

import (
	"net/http"
	"time"

	"github.com/getmockd/mockapi/pkg/httputil"
)

// handleHealth handles the liveness probe endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteOK(w, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    s.Uptime(),
	})
}
