package middleware

import (
	"context"
	"net/http"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader is the header carrying the correlation ID
const RequestIDHeader = "X-Request-ID"

// RequestID attaches a correlation ID to every request, honoring an
// inbound header when present, and stores a request-scoped logger.
func RequestID(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				id, err := uuid.NewV4()
				if err != nil {
					// Extremely unlikely; fall back to a fixed marker so
					// the request still proceeds.
					requestID = "unknown"
				} else {
					requestID = id.String()
				}
			}

			w.Header().Set(RequestIDHeader, requestID)

			requestLogger := logger.With(zap.String("request_id", requestID))
			ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
			ctx = context.WithValue(ctx, LoggerKey, requestLogger)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
