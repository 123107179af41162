package admin

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/getmockd/mockapi/pkg/httputil"
)

// RateLimitWindow is the window admin request limits apply to.
const RateLimitWindow = time.Minute

// RateLimiter limits admin requests per client IP. A non-positive limit
// disables limiting.
func RateLimiter(requests int) func(http.Handler) http.Handler {
	if requests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		requests,
		RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Retry-After", strconv.Itoa(int(RateLimitWindow.Seconds())))
			httputil.WriteTooManyRequests(w, "rate limit exceeded")
		}),
	)
}
