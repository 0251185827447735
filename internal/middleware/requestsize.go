package middleware

import (
	"fmt"
	"net/http"
)

// DefaultMaxRequestSize caps JSON bodies at 1MB
const DefaultMaxRequestSize int64 = 1 << 20

// MaxRequestSize bounds request bodies on POST, PUT and PATCH. A declared length over
// the limit is refused with 413 before the handler runs; undeclared bodies are cut off
// at the limit and the decoder reports the overflow.
func MaxRequestSize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}
	tooLarge := fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytes)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !carriesBody(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > maxBytes {
				writeError(w, r, http.StatusRequestEntityTooLarge, tooLarge, nil)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

func carriesBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}
