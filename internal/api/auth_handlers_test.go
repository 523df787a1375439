package api

import (
	"context"
	"encoding/hex"
	"encoding/json/v2"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskboxapp/taskbox-server/internal/auth"
	"github.com/taskboxapp/taskbox-server/internal/config"
	"github.com/taskboxapp/taskbox-server/internal/search"
	"github.com/taskboxapp/taskbox-server/internal/service"
	"github.com/taskboxapp/taskbox-server/internal/store"
)

// testEnvelope mirrors the wire envelope for decoding in tests.
type testEnvelope[T any] struct {
	Version int               `json:"v"`
	Success bool              `json:"success"`
	Data    T                 `json:"data"`
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details"`
}

// testServer wraps the API server with a humatest client.
type testServer struct {
	*Server
	api          humatest.TestAPI
	tokenService *auth.TokenService
}

// setupTestServer creates a fully wired server on a temporary store,
// search index included.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	st, err := store.New(dbPath, logger)
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

	searchIndex, err := search.NewSearchIndex(search.Options{
		DataPath: tmpDir,
		Logger:   logger,
	})
	require.NoError(t, err)

	sessionService := service.NewSessionService(st, tokenService, logger)
	instanceService := service.NewInstanceService(st, logger, cfg)
	authService := service.NewAuthService(st, tokenService, sessionService, instanceService, logger)
	searchService := service.NewSearchService(searchIndex, st, logger)
	st.SetSearchIndexer(searchService)

	services := &Services{
		Instance: instanceService,
		Auth:     authService,
		User:     service.NewUserService(st, logger),
		List:     service.NewListService(st, logger),
		Task:     service.NewTaskService(st, logger),
		Subtask:  service.NewSubtaskService(st, logger),
		Search:   searchService,
	}

	s := NewServer(st, services, logger)

	_, err = services.Instance.InitializeInstance(context.Background())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = searchIndex.Close()
		_ = st.Close()
	})

	return &testServer{
		Server:       s,
		api:          humatest.Wrap(t, s.api),
		tokenService: tokenService,
	}
}

// registerUser creates an account via the API and returns the auth response.
func (ts *testServer) registerUser(t *testing.T, email string) AuthResponse {
	t.Helper()

	resp := ts.api.Post("/users/create", map[string]any{
		"name":             "Test User",
		"email":            email,
		"password":         "password123",
		"confirm_password": "password123",
		"device_info":      map[string]any{"device_type": "web", "platform": "Linux"},
	})
	require.Equal(t, http.StatusCreated, resp.Code, "Register failed: %s", resp.Body.String())

	var envelope testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	return envelope.Data
}

func bearer(token string) string {
	return "Authorization: Bearer " + token
}

// === Tests ===

func TestSetup_Success(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/auth/setup", map[string]any{
		"name":             "Admin User",
		"email":            "admin@test.com",
		"password":         "SecurePassword123!",
		"confirm_password": "SecurePassword123!",
	})
	require.Equal(t, http.StatusOK, resp.Code, "Setup failed: %s", resp.Body.String())

	var envelope testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	assert.True(t, envelope.Success)
	assert.Equal(t, EnvelopeVersion, envelope.Version)
	assert.True(t, envelope.Data.User.IsRoot)
	assert.NotEmpty(t, envelope.Data.AccessToken)
	assert.NotEmpty(t, envelope.Data.RefreshToken)
	assert.Equal(t, "Bearer", envelope.Data.TokenType)

	// The access token is also set as an httpOnly cookie.
	setCookie := resp.Header().Get("Set-Cookie")
	assert.Contains(t, setCookie, "token=")
	assert.Contains(t, setCookie, "HttpOnly")
}

func TestSetup_SecondCallConflict(t *testing.T) {
	ts := setupTestServer(t)

	body := map[string]any{
		"name":             "Admin",
		"email":            "admin@test.com",
		"password":         "SecurePassword123!",
		"confirm_password": "SecurePassword123!",
	}

	resp := ts.api.Post("/auth/setup", body)
	require.Equal(t, http.StatusOK, resp.Code)

	body["email"] = "second@test.com"
	resp = ts.api.Post("/auth/setup", body)
	assert.Equal(t, http.StatusConflict, resp.Code)

	var envelope testEnvelope[struct{}]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "ALREADY_CONFIGURED", envelope.Code)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ts := setupTestServer(t)

	ts.registerUser(t, "dup@test.com")

	resp := ts.api.Post("/users/create", map[string]any{
		"name":             "Other",
		"email":            "dup@test.com",
		"password":         "password123",
		"confirm_password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code, "duplicate email reads as a bad request")

	var envelope testEnvelope[struct{}]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "ALREADY_EXISTS", envelope.Code)
}

func TestRegister_ValidationDetails(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/users/create", map[string]any{
		"name":             "Test",
		"email":            "mismatch@test.com",
		"password":         "password123",
		"confirm_password": "different456",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	var envelope testEnvelope[struct{}]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "VALIDATION", envelope.Code)
	assert.Contains(t, envelope.Details, "confirm_password")
}

func TestLogin_WrongCredentialsIndistinguishable(t *testing.T) {
	ts := setupTestServer(t)

	ts.registerUser(t, "login@test.com")

	// Wrong password.
	resp := ts.api.Post("/auth/login", map[string]any{
		"email":    "login@test.com",
		"password": "not-the-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	var wrongPassword testEnvelope[struct{}]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &wrongPassword))

	// Unknown email gets the exact same error code.
	resp = ts.api.Post("/auth/login", map[string]any{
		"email":    "ghost@test.com",
		"password": "whatever123",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	var unknownEmail testEnvelope[struct{}]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &unknownEmail))

	assert.Equal(t, "INVALID_CREDENTIALS", wrongPassword.Code)
	assert.Equal(t, wrongPassword.Code, unknownEmail.Code)
}

func TestRefresh_RotationInvalidatesOldToken(t *testing.T) {
	ts := setupTestServer(t)

	reg := ts.registerUser(t, "refresh@test.com")

	resp := ts.api.Post("/auth/refresh", map[string]any{
		"refresh_token": reg.RefreshToken,
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.NotEqual(t, reg.RefreshToken, envelope.Data.RefreshToken)
	assert.Equal(t, reg.SessionID, envelope.Data.SessionID)

	// The rotated-out token no longer works.
	resp = ts.api.Post("/auth/refresh", map[string]any{
		"refresh_token": reg.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestLogout_RevokesSession(t *testing.T) {
	ts := setupTestServer(t)

	reg := ts.registerUser(t, "logout@test.com")

	resp := ts.api.Post("/auth/logout", map[string]any{
		"session_id": reg.SessionID,
	})
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/auth/refresh", map[string]any{
		"refresh_token": reg.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestCurrentUser_CookieAuth(t *testing.T) {
	ts := setupTestServer(t)

	reg := ts.registerUser(t, "cookie@test.com")

	// No Authorization header, cookie only.
	resp := ts.api.Get("/users/me", "Cookie: token="+reg.AccessToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[UserResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "cookie@test.com", envelope.Data.Email)
}

func TestProtectedRoutes_RequireAuth(t *testing.T) {
	ts := setupTestServer(t)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/users/me"},
		{http.MethodPatch, "/users/update"},
		{http.MethodPatch, "/users/update-password"},
		{http.MethodDelete, "/users/delete"},
		{http.MethodGet, "/lists"},
		{http.MethodGet, "/lists/list-x"},
		{http.MethodPost, "/lists/create"},
		{http.MethodPatch, "/lists/update/list-x"},
		{http.MethodDelete, "/lists/delete/list-x"},
		{http.MethodGet, "/tasks"},
		{http.MethodGet, "/tasks/task-x"},
		{http.MethodGet, "/lists/list-x/tasks"},
		{http.MethodPost, "/tasks/create"},
		{http.MethodPatch, "/tasks/update/task-x"},
		{http.MethodPatch, "/tasks/complete/task-x"},
		{http.MethodDelete, "/tasks/delete/task-x"},
		{http.MethodGet, "/tasks/task-x/subtasks"},
		{http.MethodPost, "/subtasks/create/task-x"},
		{http.MethodPatch, "/subtasks/update/subtask-x"},
		{http.MethodPatch, "/subtasks/complete/subtask-x"},
		{http.MethodDelete, "/subtasks/delete/subtask-x"},
		{http.MethodGet, "/search"},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			var resp *httptest.ResponseRecorder
			switch route.method {
			case http.MethodGet:
				resp = ts.api.Get(route.path)
			case http.MethodPatch:
				resp = ts.api.Patch(route.path, map[string]any{})
			case http.MethodDelete:
				resp = ts.api.Delete(route.path, map[string]any{})
			default:
				resp = ts.api.Post(route.path, map[string]any{})
			}
			assert.Equal(t, http.StatusUnauthorized, resp.Code, "expected 401 for %s %s", route.method, route.path)
		})
	}
}

func TestCurrentUser_InvalidToken(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/users/me", bearer("v4.local.garbage"))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Get("/users/me", "Authorization: NotBearer abc")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestUpdatePassword_RevokesOtherSessions(t *testing.T) {
	ts := setupTestServer(t)

	reg := ts.registerUser(t, "pw@test.com")

	resp := ts.api.Patch("/users/update-password",
		bearer(reg.AccessToken),
		map[string]any{
			"current_password": "password123",
			"new_password":     "newpassword456",
		})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	// Old refresh token died with the password change.
	resp = ts.api.Post("/auth/refresh", map[string]any{
		"refresh_token": reg.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	// The new password logs in, the old one doesn't.
	resp = ts.api.Post("/auth/login", map[string]any{
		"email":    "pw@test.com",
		"password": "newpassword456",
	})
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/auth/login", map[string]any{
		"email":    "pw@test.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestUpdateProfile_ChangesNameAndEmail(t *testing.T) {
	ts := setupTestServer(t)

	reg := ts.registerUser(t, "old@test.com")

	resp := ts.api.Patch("/users/update",
		bearer(reg.AccessToken),
		map[string]any{
			"name":  "Renamed User",
			"email": "new@test.com",
		})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[UserResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "Renamed User", envelope.Data.Name)
	assert.Equal(t, "new@test.com", envelope.Data.Email)

	// The new email logs in, the old one is gone.
	resp = ts.api.Post("/auth/login", map[string]any{
		"email":    "new@test.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/auth/login", map[string]any{
		"email":    "old@test.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestUpdateProfile_TakenEmailRejected(t *testing.T) {
	ts := setupTestServer(t)

	ts.registerUser(t, "taken@test.com")
	reg := ts.registerUser(t, "mover@test.com")

	resp := ts.api.Patch("/users/update",
		bearer(reg.AccessToken),
		map[string]any{"email": "taken@test.com"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	var envelope testEnvelope[struct{}]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "ALREADY_EXISTS", envelope.Code)

	// The caller keeps their original address.
	resp = ts.api.Get("/users/me", bearer(reg.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	var me testEnvelope[UserResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &me))
	assert.Equal(t, "mover@test.com", me.Data.Email)
}

func TestDeleteAccount_RequiresPassword(t *testing.T) {
	ts := setupTestServer(t)

	reg := ts.registerUser(t, "gone@test.com")

	resp := ts.api.Delete("/users/delete",
		bearer(reg.AccessToken),
		map[string]any{"password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Delete("/users/delete",
		bearer(reg.AccessToken),
		map[string]any{"password": "password123"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	// The account is gone, so its token no longer resolves.
	resp = ts.api.Get("/users/me", bearer(reg.AccessToken))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
