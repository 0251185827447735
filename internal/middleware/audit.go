package middleware

import (
	"net/http"

	logpkg "github.com/benvon/study-planner/internal/logger"
	"github.com/benvon/study-planner/internal/request"
	"go.uber.org/zap"
)

// Audit logs requests the service turned away before they reached a handler's logic:
// oversized bodies, wrong content types and rate limit violations
func Audit(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			var event string
			switch wrapped.statusCode {
			case http.StatusTooManyRequests:
				event = "rate_limit_violation"
			case http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
				event = "request_rejected"
			default:
				return
			}

			logger.Warn(event,
				zap.Int("status_code", wrapped.statusCode),
				zap.String("method", r.Method),
				logpkg.Path(r.URL.Path),
				logpkg.ClientIP(request.ClientIP(r)),
				zap.String("request_id", request.RequestIDFromContext(r.Context())),
			)
		})
	}
}
