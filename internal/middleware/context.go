package middleware

import (
	"context"

	"go.uber.org/zap"
)

// contextKey is unexported to avoid collisions with other packages
type contextKey string

const (
	// RequestIDKey holds the request correlation ID
	RequestIDKey contextKey = "request_id"
	// AuthContextKey holds the authenticated caller's context
	AuthContextKey contextKey = "auth_context"
	// LoggerKey holds the request-scoped logger
	LoggerKey contextKey = "request_logger"
)

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// GetAuthContext extracts the auth context, or nil when unauthenticated
func GetAuthContext(ctx context.Context) *AuthContext {
	if authCtx, ok := ctx.Value(AuthContextKey).(*AuthContext); ok {
		return authCtx
	}
	return nil
}

// GetRequestLogger extracts the request-scoped logger, falling back to a
// no-op logger so callers never need a nil check.
func GetRequestLogger(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}
