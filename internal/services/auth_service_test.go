// file: internal/services/auth_service_test.go
package services

import (
	"context"
	"testing"
	"time"

	"agrilink/internal/auth"
	"agrilink/internal/config"
	"agrilink/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// fakeUserRepo is an in-memory UserRepository
type fakeUserRepo struct {
	users  map[int64]*models.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*models.User), nextID: 1}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *models.User) error {
	u.ID = f.nextID
	f.nextID++
	copied := *u
	f.users[u.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, id int64) error {
	if u, ok := f.users[id]; ok {
		now := time.Now()
		u.LastLogin = &now
	}
	return nil
}

func (f *fakeUserRepo) List(ctx context.Context, offset, limit int) ([]*models.User, int64, error) {
	var out []*models.User
	for _, u := range f.users {
		copied := *u
		out = append(out, &copied)
	}
	return out, int64(len(f.users)), nil
}

func testAuthConfig() *config.AuthConfig {
	return &config.AuthConfig{
		JWTSecret:     "test-jwt-secret",
		JWTExpiry:     15 * time.Minute,
		RefreshExpiry: 24 * time.Hour,
		BCryptCost:    bcrypt.MinCost,
		Issuer:        "agrilink-test",
	}
}

func newAuthFixture(t *testing.T) (AuthService, *fakeUserRepo) {
	t.Helper()
	cfg := testAuthConfig()
	repo := newFakeUserRepo()
	return NewAuthService(repo, auth.NewTokenManager(cfg), cfg, zap.NewNop()), repo
}

func registerReq() *RegisterRequest {
	return &RegisterRequest{
		Email:     "wanjiku@example.com",
		Phone:     "+254700123456",
		Password:  "a-long-password",
		FirstName: "Wanjiku",
		LastName:  "Kamau",
	}
}

func TestRegisterIssuesTokens(t *testing.T) {
	svc, _ := newAuthFixture(t)

	resp, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Greater(t, resp.ExpiresIn, int64(0))
	assert.Equal(t, "farmer", resp.User.Role)
	assert.Empty(t, resp.User.PasswordHash)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), registerReq())
	assert.True(t, IsConflictError(err))
}

func TestRegisterValidatesInput(t *testing.T) {
	svc, _ := newAuthFixture(t)

	req := registerReq()
	req.Email = "not-an-email"
	_, err := svc.Register(context.Background(), req)
	assert.True(t, IsValidationError(err))

	req = registerReq()
	req.Password = "short"
	_, err = svc.Register(context.Background(), req)
	assert.True(t, IsValidationError(err))
}

func TestLoginRoundTrip(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "wanjiku@example.com",
		Password: "a-long-password",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), &LoginRequest{
		Email:    "wanjiku@example.com",
		Password: "wrong-password",
	})
	assert.True(t, IsErrorType(err, "UNAUTHORIZED"))
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever-password",
	})
	assert.True(t, IsErrorType(err, "UNAUTHORIZED"))
}

func TestRefreshIssuesNewPair(t *testing.T) {
	svc, _ := newAuthFixture(t)

	first, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	resp, err := svc.Refresh(context.Background(), &RefreshRequest{RefreshToken: first.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, first.User.ID, resp.User.ID)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc, _ := newAuthFixture(t)

	first, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	// An access token is not a refresh token
	_, err = svc.Refresh(context.Background(), &RefreshRequest{RefreshToken: first.AccessToken})
	assert.True(t, IsErrorType(err, "UNAUTHORIZED"))
}

func TestGetProfileStripsPasswordHash(t *testing.T) {
	svc, _ := newAuthFixture(t)

	first, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	user, err := svc.GetProfile(context.Background(), first.User.ID)
	require.NoError(t, err)
	assert.Empty(t, user.PasswordHash)
	assert.Equal(t, "Wanjiku Kamau", user.FullName())
}
