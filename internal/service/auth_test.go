package service

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskboxapp/taskbox-server/internal/auth"
	"github.com/taskboxapp/taskbox-server/internal/config"
	domainerrors "github.com/taskboxapp/taskbox-server/internal/errors"
	"github.com/taskboxapp/taskbox-server/internal/store"
)

// testServices bundles everything auth flow tests need.
type testServices struct {
	store    *store.Store
	auth     *AuthService
	session  *SessionService
	instance *InstanceService
	user     *UserService
	lists    *ListService
	tasks    *TaskService
	subtasks *SubtaskService
}

// setupServices creates the full service graph on a temporary store.
func setupServices(t *testing.T) *testServices {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "taskbox-service-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")

	s, err := store.New(dbPath, nil)
	require.NoError(t, err)

	cfg := &config.Config{
		Server: config.ServerConfig{
			Name: "Test Server",
		},
		Auth: config.AuthConfig{
			AccessTokenDuration:  24 * time.Hour,
			RefreshTokenDuration: 30 * 24 * time.Hour,
		},
	}

	authKey, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)
	cfg.Auth.AccessTokenKey = authKey

	tokenService, err := auth.NewTokenService(
		hex.EncodeToString(authKey),
		cfg.Auth.AccessTokenDuration,
		cfg.Auth.RefreshTokenDuration,
	)
	require.NoError(t, err)

	sessionService := NewSessionService(s, tokenService, nil)
	instanceService := NewInstanceService(s, nil, cfg)
	authService := NewAuthService(s, tokenService, sessionService, instanceService, nil)

	t.Cleanup(func() {
		_ = s.Close()
		_ = os.RemoveAll(tmpDir)
	})

	return &testServices{
		store:    s,
		auth:     authService,
		session:  sessionService,
		instance: instanceService,
		user:     NewUserService(s, nil),
		lists:    NewListService(s, nil),
		tasks:    NewTaskService(s, nil),
		subtasks: NewSubtaskService(s, nil),
	}
}

// registerTestUser registers a user and returns the auth response.
func registerTestUser(t *testing.T, svc *testServices, email string) *AuthResponse {
	t.Helper()

	resp, err := svc.auth.Register(context.Background(), RegisterRequest{
		Name:            "Test User",
		Email:           email,
		Password:        "password123",
		ConfirmPassword: "password123",
	}, auth.DeviceInfo{DeviceType: "web", Platform: "Linux"}, "")
	require.NoError(t, err)
	return resp
}

func TestAuthService_Setup_Success(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	_, err := svc.instance.InitializeInstance(ctx)
	require.NoError(t, err)

	resp, err := svc.auth.Setup(ctx, SetupRequest{
		Name:            "Admin User",
		Email:           "admin@example.com",
		Password:        "SecurePassword123!",
		ConfirmPassword: "SecurePassword123!",
	})
	require.NoError(t, err)

	assert.NotNil(t, resp.User)
	assert.Equal(t, "admin@example.com", resp.User.Email)
	assert.True(t, resp.User.IsRoot)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.NotEmpty(t, resp.SessionID)
	assert.Greater(t, resp.ExpiresIn, 0)

	setupRequired, err := svc.instance.IsSetupRequired(ctx)
	require.NoError(t, err)
	assert.False(t, setupRequired)
}

func TestAuthService_Setup_AlreadyConfigured(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	_, err := svc.instance.InitializeInstance(ctx)
	require.NoError(t, err)

	req := SetupRequest{
		Name:            "Admin",
		Email:           "admin@example.com",
		Password:        "SecurePassword123!",
		ConfirmPassword: "SecurePassword123!",
	}
	_, err = svc.auth.Setup(ctx, req)
	require.NoError(t, err)

	req.Email = "second@example.com"
	_, err = svc.auth.Setup(ctx, req)
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyConfigured)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	svc := setupServices(t)

	registerTestUser(t, svc, "dup@example.com")

	_, err := svc.auth.Register(context.Background(), RegisterRequest{
		Name:            "Other",
		Email:           "dup@example.com",
		Password:        "password123",
		ConfirmPassword: "password123",
	}, auth.DeviceInfo{DeviceType: "web", Platform: "Linux"}, "")
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)
}

func TestAuthService_Register_PasswordMismatch(t *testing.T) {
	svc := setupServices(t)

	_, err := svc.auth.Register(context.Background(), RegisterRequest{
		Name:            "Test",
		Email:           "mismatch@example.com",
		Password:        "password123",
		ConfirmPassword: "different456",
	}, auth.DeviceInfo{DeviceType: "web", Platform: "Linux"}, "")

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)

	details, ok := domainErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, "confirm_password")
}

func TestAuthService_Login_Success(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	registerTestUser(t, svc, "login@example.com")

	resp, err := svc.auth.Login(ctx, LoginRequest{
		Email:      "login@example.com",
		Password:   "password123",
		DeviceInfo: auth.DeviceInfo{DeviceType: "web", Platform: "Linux"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "login@example.com", resp.User.Email)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc := setupServices(t)

	registerTestUser(t, svc, "wrong@example.com")

	_, err := svc.auth.Login(context.Background(), LoginRequest{
		Email:      "wrong@example.com",
		Password:   "not-the-password",
		DeviceInfo: auth.DeviceInfo{DeviceType: "web", Platform: "Linux"},
	})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestAuthService_Login_UnknownEmailSameError(t *testing.T) {
	svc := setupServices(t)

	// Unknown email and wrong password are indistinguishable.
	_, err := svc.auth.Login(context.Background(), LoginRequest{
		Email:      "ghost@example.com",
		Password:   "whatever123",
		DeviceInfo: auth.DeviceInfo{DeviceType: "web", Platform: "Linux"},
	})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestAuthService_RefreshRotation(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	reg := registerTestUser(t, svc, "refresh@example.com")

	refreshed, err := svc.auth.RefreshTokens(ctx, RefreshRequest{
		RefreshToken: reg.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEqual(t, reg.RefreshToken, refreshed.RefreshToken)
	assert.Equal(t, reg.SessionID, refreshed.SessionID, "rotation keeps the session")

	// The rotated-out token no longer works.
	_, err = svc.auth.RefreshTokens(ctx, RefreshRequest{
		RefreshToken: reg.RefreshToken,
	})
	assert.ErrorIs(t, err, domainerrors.ErrTokenExpired)
}

func TestAuthService_Logout_InvalidatesRefresh(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	reg := registerTestUser(t, svc, "logout@example.com")

	require.NoError(t, svc.auth.Logout(ctx, reg.SessionID))

	_, err := svc.auth.RefreshTokens(ctx, RefreshRequest{
		RefreshToken: reg.RefreshToken,
	})
	assert.Error(t, err)

	// Logout is idempotent.
	assert.NoError(t, svc.auth.Logout(ctx, reg.SessionID))
}

func TestAuthService_VerifyAccessToken(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	reg := registerTestUser(t, svc, "verify@example.com")

	user, claims, err := svc.auth.VerifyAccessToken(ctx, reg.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, user.ID)
	assert.Equal(t, reg.User.ID, claims.UserID)
	assert.Equal(t, "verify@example.com", claims.Email)

	_, _, err = svc.auth.VerifyAccessToken(ctx, "v4.local.garbage")
	assert.Error(t, err)
}
