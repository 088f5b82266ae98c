// file: internal/services/auth_service.go
package services

import (
	"context"
	"time"

	"agrilink/internal/auth"
	"agrilink/internal/config"
	"agrilink/internal/models"
	"agrilink/internal/repositories"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// authService implements AuthService backed by bcrypt and JWT
type authService struct {
	userRepo repositories.UserRepository
	tokens   *auth.TokenManager
	cfg      *config.AuthConfig
	logger   *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repositories.UserRepository,
	tokens *auth.TokenManager,
	cfg *config.AuthConfig,
	logger *zap.Logger,
) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		cfg:      cfg,
		logger:   logger,
	}
}

// Register creates a farmer account and issues its first token pair
func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	if existing, err := s.userRepo.GetByEmail(ctx, req.Email); err != nil {
		s.logger.Error("Failed to check existing user", zap.Error(err))
		return nil, NewInternalError("failed to create account")
	} else if existing != nil {
		return nil, NewConflictError("an account with this email already exists", "EMAIL_TAKEN")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BCryptCost)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return nil, NewInternalError("failed to process password")
	}

	user := &models.User{
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hashed),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         "farmer",
		District:     req.District,
		FarmSize:     req.FarmSize,
		IsActive:     true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		s.logger.Error("Failed to create user", zap.Error(err), zap.String("email", req.Email))
		return nil, NewInternalError("failed to create account")
	}

	s.logger.Info("User registered",
		zap.Int64("user_id", user.ID),
		zap.String("email", user.Email),
	)

	return s.issueTokens(user)
}

// Login verifies credentials and issues a token pair
func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		s.logger.Error("Failed to look up user", zap.Error(err))
		return nil, NewInternalError("failed to sign in")
	}
	// Run the hash comparison even when the account does not exist so
	// response timing does not reveal which emails are registered.
	if user == nil {
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$invalidinvalidinvalidinvalidinvalidinvalid"), []byte(req.Password))
		return nil, NewUnauthorizedError("invalid email or password")
	}
	if !user.IsActive {
		return nil, NewForbiddenError("account is deactivated")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, NewUnauthorizedError("invalid email or password")
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("Failed to record last login", zap.Error(err), zap.Int64("user_id", user.ID))
	}

	return s.issueTokens(user)
}

// Refresh exchanges a valid refresh token for a new token pair
func (s *authService) Refresh(ctx context.Context, req *RefreshRequest) (*AuthResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	claims, err := s.tokens.VerifyRefresh(req.RefreshToken)
	if err != nil {
		return nil, NewUnauthorizedError("invalid or expired refresh token")
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		s.logger.Error("Failed to look up user for refresh", zap.Error(err))
		return nil, NewInternalError("failed to refresh session")
	}
	if user == nil || !user.IsActive {
		return nil, NewUnauthorizedError("account no longer available")
	}

	return s.issueTokens(user)
}

// GetProfile returns the authenticated user's profile
func (s *authService) GetProfile(ctx context.Context, userID int64) (*models.User, error) {
	if userID <= 0 {
		return nil, NewValidationError("invalid user ID")
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load profile", zap.Error(err), zap.Int64("user_id", userID))
		return nil, NewInternalError("failed to load profile")
	}
	if user == nil {
		return nil, EntityNotFoundError("user", userID)
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *authService) issueTokens(user *models.User) (*AuthResponse, error) {
	access, expiresAt, err := s.tokens.IssueAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		s.logger.Error("Failed to issue access token", zap.Error(err), zap.Int64("user_id", user.ID))
		return nil, NewInternalError("failed to issue session tokens")
	}
	refresh, _, err := s.tokens.IssueRefreshToken(user.ID, user.Email, user.Role)
	if err != nil {
		s.logger.Error("Failed to issue refresh token", zap.Error(err), zap.Int64("user_id", user.ID))
		return nil, NewInternalError("failed to issue session tokens")
	}

	user.PasswordHash = ""
	return &AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(time.Until(expiresAt).Seconds()),
		User:         user,
	}, nil
}
