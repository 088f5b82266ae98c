package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"agrilink/internal/auth"
	"agrilink/internal/response"
	"agrilink/internal/services"

	"go.uber.org/zap"
)

// AuthContext holds the authenticated caller's identity for a request
type AuthContext struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuthMiddleware authenticates requests from bearer JWTs
type AuthMiddleware struct {
	tokens  *auth.TokenManager
	builder *response.Builder
	logger  *zap.Logger
}

// NewAuthMiddleware creates JWT authentication middleware
func NewAuthMiddleware(tokens *auth.TokenManager, builder *response.Builder, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, builder: builder, logger: logger}
}

// Authenticate verifies the bearer token when present. With required set,
// missing or invalid credentials terminate the request with a 401.
func (am *AuthMiddleware) Authenticate(required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				if required {
					am.builder.WriteError(w, services.NewUnauthorizedError("Authentication required"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			claims, err := am.tokens.Verify(token)
			if err == nil && claims.TokenType != "access" {
				// Refresh tokens are only accepted by the refresh endpoint.
				err = errors.New("token is not an access token")
			}
			if err != nil {
				am.logger.Warn("Token verification failed",
					zap.Error(err),
					zap.String("path", r.URL.Path),
					zap.String("request_id", GetRequestID(r.Context())),
				)
				if required {
					am.builder.WriteError(w, services.NewUnauthorizedError("Invalid or expired token"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			authCtx := &AuthContext{
				UserID:    claims.UserID,
				Email:     claims.Email,
				Role:      claims.Role,
				ExpiresAt: claims.ExpiresAt.Time,
			}
			ctx := context.WithValue(r.Context(), AuthContextKey, authCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth requires a valid token for the endpoint
func (am *AuthMiddleware) RequireAuth() func(http.Handler) http.Handler {
	return am.Authenticate(true)
}

// OptionalAuth attaches an auth context when a valid token is present
func (am *AuthMiddleware) OptionalAuth() func(http.Handler) http.Handler {
	return am.Authenticate(false)
}

// RequireRole requires the caller to hold one of the given roles.
// Must be stacked after RequireAuth.
func (am *AuthMiddleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := GetAuthContext(r.Context())
			if authCtx == nil {
				am.builder.WriteError(w, services.NewUnauthorizedError("Authentication required"))
				return
			}
			if !allowed[authCtx.Role] {
				am.logger.Warn("Role check failed",
					zap.Int64("user_id", authCtx.UserID),
					zap.String("role", authCtx.Role),
					zap.Strings("required", roles),
				)
				am.builder.WriteError(w, services.NewForbiddenError("Insufficient permissions"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		// Browser websocket clients cannot set headers on the upgrade
		// request, so the token is accepted as a query parameter too.
		return r.URL.Query().Get("token")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
