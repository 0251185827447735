package middleware

import (
	"errors"
	"fmt"
	"net/http"

	logpkg "github.com/benvon/study-planner/internal/logger"
	"github.com/benvon/study-planner/internal/request"
	"github.com/benvon/study-planner/internal/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ErrorHandler turns handler panics into a 500 envelope. The panic value and stack are
// logged and attached to the request span; the client only sees a generic message.
func ErrorHandler(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				requestID := request.RequestIDFromContext(r.Context())
				logger.Error("panic_recovered",
					zap.Any("error", rec),
					logpkg.Path(r.URL.Path),
					zap.String("method", r.Method),
					zap.String("request_id", requestID),
					zap.Stack("stack"),
				)
				telemetry.Fail(trace.SpanFromContext(r.Context()), panicError(rec))
				writeError(w, r, http.StatusInternalServerError, "An unexpected error occurred", logger)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func panicError(rec any) error {
	if err, ok := rec.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return errors.New(fmt.Sprint("panic: ", rec))
}

// writeError sends the standard error envelope with the status text as the error type
func writeError(w http.ResponseWriter, r *http.Request, status int, message string, logger *zap.Logger) {
	if err := request.WriteError(w, r, status, http.StatusText(status), message); err != nil && logger != nil {
		logger.Error("failed_to_encode_error_response",
			zap.Error(err),
			zap.Int("status_code", status),
			logpkg.Path(r.URL.Path),
		)
	}
}
