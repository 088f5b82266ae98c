package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agrilink/internal/auth"
	"agrilink/internal/cache"
	"agrilink/internal/config"
	"agrilink/internal/response"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testTokenManager() *auth.TokenManager {
	return auth.NewTokenManager(&config.AuthConfig{
		JWTSecret:     "test-middleware-secret",
		JWTExpiry:     time.Hour,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "agrilink-test",
	})
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// ===============================
// AUTH MIDDLEWARE
// ===============================

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	am := NewAuthMiddleware(testTokenManager(), response.NewBuilder(nil, zap.NewNop()), zap.NewNop())
	handler := am.RequireAuth()(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthRejectsGarbageToken(t *testing.T) {
	am := NewAuthMiddleware(testTokenManager(), response.NewBuilder(nil, zap.NewNop()), zap.NewNop())
	handler := am.RequireAuth()(okHandler())

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthAcceptsValidToken(t *testing.T) {
	tm := testTokenManager()
	am := NewAuthMiddleware(tm, response.NewBuilder(nil, zap.NewNop()), zap.NewNop())

	var got *AuthContext
	handler := am.RequireAuth()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetAuthContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	token, _, err := tm.IssueAccessToken(42, "farmer@example.com", "farmer")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, int64(42), got.UserID)
	assert.Equal(t, "farmer", got.Role)
}

func TestRequireAuthAcceptsQueryStringToken(t *testing.T) {
	tm := testTokenManager()
	am := NewAuthMiddleware(tm, response.NewBuilder(nil, zap.NewNop()), zap.NewNop())

	var got *AuthContext
	handler := am.RequireAuth()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetAuthContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	token, _, err := tm.IssueAccessToken(7, "ws@example.com", "farmer")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/ws?token="+token, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, int64(7), got.UserID)
}

func TestRequireRole(t *testing.T) {
	tm := testTokenManager()
	am := NewAuthMiddleware(tm, response.NewBuilder(nil, zap.NewNop()), zap.NewNop())

	handler := am.RequireAuth()(am.RequireRole("officer", "admin")(okHandler()))

	makeReq := func(role string) *httptest.ResponseRecorder {
		token, _, err := tm.IssueAccessToken(1, "u@example.com", role)
		require.NoError(t, err)
		req := httptest.NewRequest("GET", "/restricted", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusForbidden, makeReq("farmer").Code)
	assert.Equal(t, http.StatusOK, makeReq("officer").Code)
	assert.Equal(t, http.StatusOK, makeReq("admin").Code)
}

func TestRefreshTokenRejectedOnAPIRoutes(t *testing.T) {
	tm := testTokenManager()
	am := NewAuthMiddleware(tm, response.NewBuilder(nil, zap.NewNop()), zap.NewNop())
	handler := am.RequireAuth()(okHandler())

	token, _, err := tm.IssueRefreshToken(42, "farmer@example.com", "farmer")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// ===============================
// RATE LIMITER
// ===============================

func TestRateLimiterEnforcesCeiling(t *testing.T) {
	c, err := cache.New(&config.CacheConfig{Provider: "memory", CleanupInterval: time.Minute}, zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	rl := NewRateLimiter(c, &RateLimiterConfig{Requests: 3, Window: time.Minute},
		response.NewBuilder(nil, zap.NewNop()), zap.NewNop())
	handler := rl.Limit()(okHandler())

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = "203.0.113.9:1234"
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "203.0.113.9:1234"
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimiterIsPerClient(t *testing.T) {
	c, err := cache.New(&config.CacheConfig{Provider: "memory", CleanupInterval: time.Minute}, zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	rl := NewRateLimiter(c, &RateLimiterConfig{Requests: 1, Window: time.Minute},
		response.NewBuilder(nil, zap.NewNop()), zap.NewNop())
	handler := rl.Limit()(okHandler())

	first := httptest.NewRequest("GET", "/", nil)
	first.RemoteAddr = "203.0.113.1:1000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	assert.Equal(t, http.StatusOK, rec.Code)

	// A different client gets its own budget
	second := httptest.NewRequest("GET", "/", nil)
	second.RemoteAddr = "203.0.113.2:1000"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, second)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// ===============================
// REQUEST LOGGING
// ===============================

func TestRequestLoggingPreservesHijacker(t *testing.T) {
	var isHijacker bool
	handler := RequestLogging(DefaultLoggingConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Websocket upgrades assert this directly on the writer they
		// are handed.
		_, isHijacker = w.(http.Hijacker)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/chat/ws", nil))

	assert.True(t, isHijacker)
}

// ===============================
// REQUEST ID
// ===============================

func TestRequestIDGeneratedAndPropagated(t *testing.T) {
	var got string
	handler := RequestID(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	assert.NotEmpty(t, got)
	assert.Equal(t, got, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDHonorsInbound(t *testing.T) {
	var got string
	handler := RequestID(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "upstream-id-123")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "upstream-id-123", got)
}
