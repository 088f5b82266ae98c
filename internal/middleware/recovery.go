package middleware

import (
	"net/http"
	"runtime/debug"

	"agrilink/internal/response"
	"agrilink/internal/services"

	"go.uber.org/zap"
)

// Recovery converts panics anywhere below it in the chain into a 500
// error envelope. Handlers wrapped by the response builder already
// recover their own panics; this is the outer net for middleware.
func Recovery(builder *response.Builder, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("Panic recovered",
						zap.Any("panic", rec),
						zap.String("path", r.URL.Path),
						zap.String("method", r.Method),
						zap.String("request_id", GetRequestID(r.Context())),
						zap.ByteString("stack", debug.Stack()),
					)
					builder.WriteError(w, services.NewInternalError("unexpected server error"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
