package middleware

import (
	"mime"
	"net/http"
)

// ContentType requires application/json on POST, PATCH and PUT requests that carry a
// body. Bodiless commands such as POST /timer/start pass through.
func ContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !carriesBody(r.Method) || r.ContentLength == 0 {
			next.ServeHTTP(w, r)
			return
		}

		contentType := r.Header.Get("Content-Type")
		if contentType == "" {
			writeError(w, r, http.StatusBadRequest, "Content-Type header is required", nil)
			return
		}
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || mediaType != "application/json" {
			writeError(w, r, http.StatusUnsupportedMediaType, "Content-Type must be application/json", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
