package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymkeeper/internal/common"
	"gymkeeper/internal/logging"
	"gymkeeper/internal/server/models"
	"gymkeeper/internal/server/services"
)

type fakeSessions struct {
	registerOut *models.User
	registerErr error

	loginOut *services.TokenPair
	loginErr error

	refreshOut *services.TokenPair
	refreshErr error
	refreshGot string

	logoutGot string

	currentOut *models.User
	currentErr error
}

func (f *fakeSessions) Register(ctx context.Context, email, password, fullName string, role models.Role) (*models.User, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return f.registerOut, nil
}
func (f *fakeSessions) Login(ctx context.Context, email, password string, client services.ClientInfo) (*services.TokenPair, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginOut, nil
}
func (f *fakeSessions) Refresh(ctx context.Context, rawToken string, client services.ClientInfo) (*services.TokenPair, error) {
	f.refreshGot = rawToken
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.refreshOut, nil
}
func (f *fakeSessions) Logout(ctx context.Context, accessToken string) {
	f.logoutGot = accessToken
}
func (f *fakeSessions) CurrentUser(ctx context.Context, accessToken string) (*models.User, error) {
	if f.currentErr != nil {
		return nil, f.currentErr
	}
	return f.currentOut, nil
}

func newTestRouter(t *testing.T, sessions *fakeSessions) http.Handler {
	t.Helper()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewRouter(RouterOptions{
		Handler:  NewHandler(sessions, logger),
		Gatherer: prometheus.NewRegistry(),
	})
}

func doJSON(t *testing.T, router http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error.Code
}

func testUser() *models.User {
	return &models.User{
		ID:        "u1",
		Email:     "alice@example.com",
		FullName:  "Alice",
		Role:      models.RoleUser,
		IsActive:  true,
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func testPair() *services.TokenPair {
	return &services.TokenPair{
		AccessToken:  "access-abc",
		RefreshToken: "refresh-xyz",
		TokenType:    "Bearer",
		ExpiresIn:    3600,
	}
}

func TestHandleRegister(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		router := newTestRouter(t, &fakeSessions{registerOut: testUser()})
		rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/register",
			`{"email":"alice@example.com","password":"longenough","fullName":"Alice","role":"user"}`, nil)

		require.Equal(t, http.StatusCreated, rec.Code)

		var resp userResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "u1", resp.ID)
		assert.Equal(t, "USER", resp.Role)
	})

	t.Run("duplicate email", func(t *testing.T) {
		router := newTestRouter(t, &fakeSessions{registerErr: common.ErrorAlreadyExists})
		rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/register",
			`{"email":"alice@example.com","password":"longenough"}`, nil)

		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "conflict", errorCode(t, rec))
	})

	t.Run("validation error", func(t *testing.T) {
		router := newTestRouter(t, &fakeSessions{registerErr: common.ErrorValidation})
		rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/register",
			`{"email":"bad","password":"x"}`, nil)

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		router := newTestRouter(t, &fakeSessions{})
		rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", `{not json`, nil)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_json", errorCode(t, rec))
	})
}

func TestHandleToken(t *testing.T) {
	t.Run("issues pair", func(t *testing.T) {
		router := newTestRouter(t, &fakeSessions{loginOut: testPair()})
		rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/token",
			`{"email":"alice@example.com","password":"pw"}`, nil)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp tokenPairResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "access-abc", resp.AccessToken)
		assert.Equal(t, "refresh-xyz", resp.RefreshToken)
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.Equal(t, int64(3600), resp.ExpiresIn)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		router := newTestRouter(t, &fakeSessions{loginErr: common.ErrInvalidCredentials})
		rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/token",
			`{"email":"alice@example.com","password":"wrong"}`, nil)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "invalid_credentials", errorCode(t, rec))
	})

	t.Run("disabled account", func(t *testing.T) {
		router := newTestRouter(t, &fakeSessions{loginErr: common.ErrAccountDisabled})
		rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/token",
			`{"email":"alice@example.com","password":"pw"}`, nil)

		require.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "account_disabled", errorCode(t, rec))
	})

	t.Run("missing fields", func(t *testing.T) {
		router := newTestRouter(t, &fakeSessions{})
		rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/token", `{"email":"a@b.c"}`, nil)

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("internal failure", func(t *testing.T) {
		router := newTestRouter(t, &fakeSessions{loginErr: common.ErrorInternal})
		rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/token",
			`{"email":"alice@example.com","password":"pw"}`, nil)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestHandleRefresh(t *testing.T) {
	t.Run("rotates", func(t *testing.T) {
		fake := &fakeSessions{refreshOut: testPair()}
		router := newTestRouter(t, fake)
		rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh",
			`{"refreshToken":"refresh-old"}`, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "refresh-old", fake.refreshGot)
	})

	t.Run("reuse detected", func(t *testing.T) {
		router := newTestRouter(t, &fakeSessions{refreshErr: common.ErrTokenReuseDetected})
		rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh",
			`{"refreshToken":"refresh-old"}`, nil)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "token_reuse_detected", errorCode(t, rec))
	})

	t.Run("expired", func(t *testing.T) {
		router := newTestRouter(t, &fakeSessions{refreshErr: common.ErrTokenExpired})
		rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh",
			`{"refreshToken":"refresh-old"}`, nil)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "token_expired", errorCode(t, rec))
	})

	t.Run("not recognized", func(t *testing.T) {
		router := newTestRouter(t, &fakeSessions{refreshErr: common.ErrTokenNotRecognized})
		rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh",
			`{"refreshToken":"refresh-old"}`, nil)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "unauthorized", errorCode(t, rec))
	})

	t.Run("missing token", func(t *testing.T) {
		router := newTestRouter(t, &fakeSessions{})
		rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh", `{}`, nil)

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleLogout(t *testing.T) {
	t.Run("revokes presented token", func(t *testing.T) {
		fake := &fakeSessions{}
		router := newTestRouter(t, fake)
		rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/logout", "",
			map[string]string{"Authorization": "Bearer access-abc"})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "access-abc", fake.logoutGot)
	})

	t.Run("succeeds without a token", func(t *testing.T) {
		fake := &fakeSessions{}
		router := newTestRouter(t, fake)
		rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/logout", "", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, fake.logoutGot)
	})
}

func TestHandleMe(t *testing.T) {
	t.Run("returns current user", func(t *testing.T) {
		router := newTestRouter(t, &fakeSessions{currentOut: testUser()})
		rec := doJSON(t, router, http.MethodGet, "/api/v1/auth/me", "",
			map[string]string{"Authorization": "Bearer access-abc"})

		require.Equal(t, http.StatusOK, rec.Code)

		var resp userResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "alice@example.com", resp.Email)
	})

	t.Run("missing bearer token", func(t *testing.T) {
		router := newTestRouter(t, &fakeSessions{})
		rec := doJSON(t, router, http.MethodGet, "/api/v1/auth/me", "", nil)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("revoked token", func(t *testing.T) {
		router := newTestRouter(t, &fakeSessions{currentErr: common.ErrTokenRevoked})
		rec := doJSON(t, router, http.MethodGet, "/api/v1/auth/me", "",
			map[string]string{"Authorization": "Bearer access-abc"})

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "token_revoked", errorCode(t, rec))
	})
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"well formed", "Bearer abc", "abc"},
		{"case insensitive scheme", "bearer abc", "abc"},
		{"missing header", "", ""},
		{"wrong scheme", "Basic abc", ""},
		{"no token", "Bearer", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, bearerToken(req))
		})
	}
}

func TestRouterInfra(t *testing.T) {
	t.Run("healthz ok", func(t *testing.T) {
		router := NewRouter(RouterOptions{
			Handler:  NewHandler(&fakeSessions{}, logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))),
			Gatherer: prometheus.NewRegistry(),
			Ping:     func(ctx context.Context) error { return nil },
		})
		rec := doJSON(t, router, http.MethodGet, "/healthz", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("healthz degraded", func(t *testing.T) {
		router := NewRouter(RouterOptions{
			Handler:  NewHandler(&fakeSessions{}, logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))),
			Gatherer: prometheus.NewRegistry(),
			Ping:     func(ctx context.Context) error { return errors.New("down") },
		})
		rec := doJSON(t, router, http.MethodGet, "/healthz", "", nil)
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("metrics exposed", func(t *testing.T) {
		router := newTestRouter(t, &fakeSessions{})
		rec := doJSON(t, router, http.MethodGet, "/metrics", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})
}
