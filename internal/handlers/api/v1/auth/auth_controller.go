// ===============================
// FILE: internal/handlers/api/v1/auth/auth_controller.go
// ===============================

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"agrilink/internal/middleware"
	"agrilink/internal/response"
	"agrilink/internal/services"

	"go.uber.org/zap"
)

// Controller handles authentication API endpoints
type Controller struct {
	services *services.ServiceCollection
	logger   *zap.Logger
	builder  *response.Builder
}

// NewController creates a new authentication controller
func NewController(sc *services.ServiceCollection, logger *zap.Logger, builder *response.Builder) *Controller {
	return &Controller{services: sc, logger: logger, builder: builder}
}

// ===============================
// AUTHENTICATION ENDPOINTS
// ===============================

// Register handles user registration - POST /api/v1/auth/register
func (c *Controller) Register(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var req services.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return services.NewValidationError("invalid request body")
	}

	authResp, err := c.services.AuthService.Register(ctx, &req)
	if err != nil {
		return err
	}

	c.logger.Info("User registered",
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.Int64("user_id", authResp.User.ID),
	)

	c.builder.WriteCreated(w, authResp, "Account created successfully")
	return nil
}

// Login handles user authentication - POST /api/v1/auth/login
func (c *Controller) Login(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var req services.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return services.NewValidationError("invalid request body")
	}

	authResp, err := c.services.AuthService.Login(ctx, &req)
	if err != nil {
		return err
	}

	c.builder.WriteSuccess(w, authResp, "Signed in successfully", http.StatusOK)
	return nil
}

// Refresh exchanges a refresh token - POST /api/v1/auth/refresh
func (c *Controller) Refresh(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var req services.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return services.NewValidationError("invalid request body")
	}

	authResp, err := c.services.AuthService.Refresh(ctx, &req)
	if err != nil {
		return err
	}

	c.builder.WriteSuccess(w, authResp, "Session refreshed", http.StatusOK)
	return nil
}

// Me returns the authenticated user's profile - GET /api/v1/auth/me
func (c *Controller) Me(w http.ResponseWriter, r *http.Request) error {
	authCtx := middleware.GetAuthContext(r.Context())
	if authCtx == nil {
		return services.NewUnauthorizedError("authentication required")
	}

	user, err := c.services.AuthService.GetProfile(r.Context(), authCtx.UserID)
	if err != nil {
		return err
	}

	c.builder.WriteSuccess(w, user, "", http.StatusOK)
	return nil
}
