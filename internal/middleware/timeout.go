package middleware

import (
	"net/http"
	"strings"
	"time"
)

// DefaultRequestTimeout bounds ordinary API requests
const DefaultRequestTimeout = 30 * time.Second

const timeoutBody = `{"success":false,"error":"Service Unavailable","message":"Request timed out"}`

// RouteTimeout gives requests under PathPrefix their own deadline. A non-positive
// Timeout falls back to the default.
type RouteTimeout struct {
	PathPrefix string
	Timeout    time.Duration
}

// Timeout cancels the handler's context at the deadline and answers 503 with a JSON
// error. The first matching override wins; other requests get timeout.
func Timeout(timeout time.Duration, overrides ...RouteTimeout) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		fallback := http.TimeoutHandler(next, timeout, timeoutBody)
		routed := make([]http.Handler, len(overrides))
		for i, o := range overrides {
			d := o.Timeout
			if d <= 0 {
				d = timeout
			}
			routed[i] = http.TimeoutHandler(next, d, timeoutBody)
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// TimeoutHandler writes its body without a content type
			w.Header().Set("Content-Type", "application/json")
			for i, o := range overrides {
				if strings.HasPrefix(r.URL.Path, o.PathPrefix) {
					routed[i].ServeHTTP(w, r)
					return
				}
			}
			fallback.ServeHTTP(w, r)
		})
	}
}

// LongestTimeout returns the largest deadline Timeout can apply, for sizing the
// server's write timeout
func LongestTimeout(timeout time.Duration, overrides ...RouteTimeout) time.Duration {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	longest := timeout
	for _, o := range overrides {
		if o.Timeout > longest {
			longest = o.Timeout
		}
	}
	return longest
}
