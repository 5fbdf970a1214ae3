package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KevinKickass/OpenSequenceCore/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestService(t *testing.T, enabled bool) *AuthService {
	t.Helper()
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)

	cfg := config.AuthConfig{
		Enabled:        enabled,
		AccessTokenTTL: time.Minute,
		Users: []config.UserConfig{
			{Username: "ada", PasswordHash: hash, Role: "editor"},
			{Username: "bob", PasswordHash: "garbage", Role: "admin"},
		},
	}
	return NewAuthService(cfg, zaptest.NewLogger(t))
}

func TestPasswordHasher(t *testing.T) {
	ph := NewPasswordHasher()
	hash, err := ph.HashPassword("hunter2")
	require.NoError(t, err)

	ok, err := ph.VerifyPassword("hunter2", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ph.VerifyPassword("hunter3", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = ph.VerifyPassword("x", "not-a-hash")
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestJWTRoundTrip(t *testing.T) {
	h := NewJWTHandler("0123456789abcdef0123456789abcdef", time.Minute)
	token, expires, err := h.GenerateAccessToken("ada", "viewer")
	require.NoError(t, err)
	assert.True(t, expires.After(time.Now()))

	claims, err := h.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ada", claims.Username)
	assert.Equal(t, "ada", claims.Subject)
	assert.Equal(t, "viewer", claims.Role)

	other := NewJWTHandler("another-secret-another-secret-xx", time.Minute)
	_, err = other.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTExpired(t *testing.T) {
	h := NewJWTHandler("0123456789abcdef0123456789abcdef", -time.Minute)
	token, _, err := h.GenerateAccessToken("ada", "viewer")
	require.NoError(t, err)

	_, err = h.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLoginUser(t *testing.T) {
	svc := newTestService(t, true)

	token, _, err := svc.LoginUser("ada", "s3cret")
	require.NoError(t, err)

	claims, perms, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "editor", claims.Role)
	assert.ElementsMatch(t, []Permission{PermView, PermEdit}, perms)

	_, _, err = svc.LoginUser("ada", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.LoginUser("nobody", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.LoginUser("bob", "anything")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRoleToPermissions(t *testing.T) {
	assert.Equal(t, AllPermissions(), roleToPermissions("admin"))
	assert.Equal(t, []Permission{PermView}, roleToPermissions("viewer"))
	assert.Empty(t, roleToPermissions("intern"))
}

func serve(svc *AuthService, perm Permission, header string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", svc.AuthMiddleware(), RequirePermission(perm), func(c *gin.Context) {
		c.String(http.StatusOK, Username(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMiddleware(t *testing.T) {
	t.Run("disabled grants everything", func(t *testing.T) {
		w := serve(newTestService(t, false), PermAdmin, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "anonymous", w.Body.String())
	})

	t.Run("missing header", func(t *testing.T) {
		w := serve(newTestService(t, true), PermView, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		w := serve(newTestService(t, true), PermView, "Token abc")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		svc := newTestService(t, true)
		token, _, err := svc.LoginUser("ada", "s3cret")
		require.NoError(t, err)

		w := serve(svc, PermEdit, "Bearer "+token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ada", w.Body.String())

		w = serve(svc, PermAdmin, "Bearer "+token)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
