package middleware

import (
	"net/http"

	"github.com/rs/cors"
	"go.uber.org/zap"
)

// CORS returns rs/cors middleware for the given origins. Preflight requests are answered
// by the middleware itself. With no origins, only http://localhost:3000 is allowed.
func CORS(allowedOrigins []string, logger *zap.Logger, debug bool) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	opts := cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowCredentials: true,
		MaxAge:           86400,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "If-Match", "X-Request-ID"},
		ExposedHeaders:   []string{"ETag", "Location", "Content-Disposition", "X-Request-ID", "Retry-After"},
		Debug:            debug,
	}
	if debug && logger != nil {
		opts.Logger = zap.NewStdLog(logger.Named("cors"))
	}
	return cors.New(opts).Handler
}
