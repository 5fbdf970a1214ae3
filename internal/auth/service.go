package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/KevinKickass/OpenSequenceCore/internal/config"
	"go.uber.org/zap"
)

type Permission string

const (
	PermView  Permission = "view"
	PermEdit  Permission = "edit"
	PermAdmin Permission = "admin"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService authenticates the static users from the config. When auth
// is disabled every request is granted every permission.
type AuthService struct {
	enabled        bool
	users          map[string]config.UserConfig
	jwtHandler     *JWTHandler
	passwordHasher *PasswordHasher
	logger         *zap.Logger
}

func NewAuthService(cfg config.AuthConfig, logger *zap.Logger) *AuthService {
	users := make(map[string]config.UserConfig, len(cfg.Users))
	for _, u := range cfg.Users {
		users[u.Username] = u
	}

	if cfg.Enabled && !cfg.IsProductionReady() {
		logger.Warn("JWT secret is not production ready",
			zap.String("env", cfg.JWTSecretEnv))
	}

	return &AuthService{
		enabled:        cfg.Enabled,
		users:          users,
		jwtHandler:     NewJWTHandler(cfg.GetJWTSecret(), cfg.AccessTokenTTL),
		passwordHasher: NewPasswordHasher(),
		logger:         logger,
	}
}

func (a *AuthService) Enabled() bool {
	return a.enabled
}

// LoginUser checks the credentials and returns a signed access token.
func (a *AuthService) LoginUser(username, password string) (string, time.Time, error) {
	user, ok := a.users[username]
	if !ok {
		a.logger.Info("Login failed", zap.String("username", username), zap.String("reason", "unknown user"))
		return "", time.Time{}, ErrInvalidCredentials
	}

	valid, err := a.passwordHasher.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		a.logger.Error("Stored password hash is unusable", zap.String("username", username), zap.Error(err))
		return "", time.Time{}, ErrInvalidCredentials
	}
	if !valid {
		a.logger.Info("Login failed", zap.String("username", username), zap.String("reason", "wrong password"))
		return "", time.Time{}, ErrInvalidCredentials
	}

	token, expires, err := a.jwtHandler.GenerateAccessToken(user.Username, user.Role)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate access token: %w", err)
	}

	a.logger.Info("User logged in", zap.String("username", username), zap.String("role", user.Role))
	return token, expires, nil
}

// ValidateToken returns the claims and permissions carried by token.
func (a *AuthService) ValidateToken(token string) (*JWTClaims, []Permission, error) {
	claims, err := a.jwtHandler.ValidateAccessToken(token)
	if err != nil {
		return nil, nil, err
	}
	return claims, roleToPermissions(claims.Role), nil
}

// AllPermissions is what every caller gets when auth is disabled.
func AllPermissions() []Permission {
	return []Permission{PermView, PermEdit, PermAdmin}
}

func roleToPermissions(role string) []Permission {
	switch role {
	case "admin":
		return AllPermissions()
	case "editor":
		return []Permission{PermView, PermEdit}
	case "viewer":
		return []Permission{PermView}
	default:
		return []Permission{}
	}
}

// HashPassword produces a hash for a config user entry.
func HashPassword(password string) (string, error) {
	return NewPasswordHasher().HashPassword(password)
}
