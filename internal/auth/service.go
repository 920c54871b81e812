package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kaffeewerk/brewcore/internal/config"
)

type Permission string

const (
	PermOperator   Permission = "operator"
	PermTechnician Permission = "technician"
	PermAdmin      Permission = "admin"
)

// User is an API account provisioned from the configuration.
type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	Role         string
}

type refreshEntry struct {
	userID    uuid.UUID
	username  string
	role      string
	expiresAt time.Time
}

// machineToken is a provisioned device credential, stored only as its hash.
type machineToken struct {
	name string
	role string
}

// AuthService authenticates users and machine tokens. Accounts are
// provisioned from the config file; refresh tokens live in memory and do not
// survive a restart.
type AuthService struct {
	logger     *zap.Logger
	jwtHandler *JWTHandler
	hasher     *PasswordHasher
	tokenGen   *MachineTokenGenerator

	mu            sync.RWMutex
	users         map[string]*User
	machineTokens map[string]machineToken // keyed by token hash
	refreshTokens map[string]refreshEntry
}

func NewAuthService(cfg config.AuthConfig, logger *zap.Logger) *AuthService {
	s := &AuthService{
		logger:        logger,
		jwtHandler:    NewJWTHandler(cfg.GetJWTSecret(), cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		hasher:        NewPasswordHasher(),
		tokenGen:      NewMachineTokenGenerator(),
		users:         make(map[string]*User),
		machineTokens: make(map[string]machineToken),
		refreshTokens: make(map[string]refreshEntry),
	}

	for _, cred := range cfg.Users {
		s.users[cred.Username] = &User{
			ID:           uuid.New(),
			Username:     cred.Username,
			PasswordHash: cred.PasswordHash,
			Role:         cred.Role,
		}
	}
	for _, cred := range cfg.MachineTokens {
		s.machineTokens[cred.TokenHash] = machineToken{name: cred.Name, role: cred.Role}
	}

	if !cfg.IsProductionReady() {
		logger.Warn("Auth service running with development JWT secret")
	}

	return s
}

// LoginUser verifies credentials and issues an access/refresh token pair.
func (a *AuthService) LoginUser(ctx context.Context, username, password, ipAddress, userAgent string) (string, string, error) {
	a.mu.RLock()
	user, exists := a.users[username]
	a.mu.RUnlock()

	if !exists {
		// Burn comparable time so missing users are indistinguishable.
		_, _ = a.hasher.VerifyPassword(password, "$argon2id$v=19$m=65536,t=3,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
		a.logger.Warn("Login failed: unknown user",
			zap.String("username", username),
			zap.String("ip", ipAddress))
		return "", "", fmt.Errorf("invalid credentials")
	}

	ok, err := a.hasher.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		a.logger.Warn("Login failed: bad password",
			zap.String("username", username),
			zap.String("ip", ipAddress),
			zap.String("user_agent", userAgent))
		return "", "", fmt.Errorf("invalid credentials")
	}

	accessToken, err := a.jwtHandler.GenerateAccessToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := a.jwtHandler.GenerateRefreshToken()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate refresh token: %w", err)
	}

	a.mu.Lock()
	a.refreshTokens[refreshToken] = refreshEntry{
		userID:    user.ID,
		username:  user.Username,
		role:      user.Role,
		expiresAt: time.Now().Add(a.jwtHandler.RefreshTokenTTL()),
	}
	a.mu.Unlock()

	a.logger.Info("User logged in", zap.String("username", username))
	return accessToken, refreshToken, nil
}

// RefreshAccessToken rotates the refresh token and issues a new access token.
func (a *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (string, string, error) {
	a.mu.Lock()
	entry, exists := a.refreshTokens[refreshToken]
	if exists {
		delete(a.refreshTokens, refreshToken)
	}
	a.mu.Unlock()

	if !exists || time.Now().After(entry.expiresAt) {
		return "", "", fmt.Errorf("invalid or expired refresh token")
	}

	accessToken, err := a.jwtHandler.GenerateAccessToken(entry.userID, entry.username, entry.role)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate access token: %w", err)
	}

	newRefreshToken, err := a.jwtHandler.GenerateRefreshToken()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate refresh token: %w", err)
	}

	a.mu.Lock()
	a.refreshTokens[newRefreshToken] = refreshEntry{
		userID:    entry.userID,
		username:  entry.username,
		role:      entry.role,
		expiresAt: time.Now().Add(a.jwtHandler.RefreshTokenTTL()),
	}
	a.mu.Unlock()

	return accessToken, newRefreshToken, nil
}

// Logout revokes a refresh token.
func (a *AuthService) Logout(ctx context.Context, refreshToken string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.refreshTokens[refreshToken]; !exists {
		return fmt.Errorf("unknown refresh token")
	}
	delete(a.refreshTokens, refreshToken)
	return nil
}

// ValidateToken accepts either a JWT access token or a machine token and
// returns the resulting permission set.
func (a *AuthService) ValidateToken(ctx context.Context, token, ipAddress, userAgent string) ([]Permission, error) {
	if claims, err := a.jwtHandler.ValidateAccessToken(token); err == nil {
		return a.roleToPermissions(claims.Role), nil
	}

	return a.ValidateMachineToken(ctx, token, ipAddress, userAgent)
}

// ValidateMachineToken checks a device token against the provisioned hashes.
func (a *AuthService) ValidateMachineToken(ctx context.Context, token, ipAddress, userAgent string) ([]Permission, error) {
	if !a.tokenGen.ValidateTokenFormat(token) {
		return nil, fmt.Errorf("invalid token format")
	}

	hash := a.tokenGen.HashToken(token)

	a.mu.RLock()
	defer a.mu.RUnlock()

	for storedHash, mt := range a.machineTokens {
		if subtle.ConstantTimeCompare([]byte(hash), []byte(storedHash)) == 1 {
			a.logger.Debug("Machine token accepted",
				zap.String("name", mt.name),
				zap.String("ip", ipAddress))
			return a.roleToPermissions(mt.role), nil
		}
	}

	return nil, fmt.Errorf("unknown machine token")
}

// ValidateAccessToken exposes JWT validation for handlers that need claims.
func (a *AuthService) ValidateAccessToken(token string) (*JWTClaims, error) {
	return a.jwtHandler.ValidateAccessToken(token)
}

// AccessTokenTTL exposes the access token lifetime for login responses.
func (a *AuthService) AccessTokenTTL() time.Duration {
	return a.jwtHandler.AccessTokenTTL()
}

// Roles are hierarchical: admin covers technician, technician covers operator.
func (a *AuthService) roleToPermissions(role string) []Permission {
	switch role {
	case "admin":
		return []Permission{PermAdmin, PermTechnician, PermOperator}
	case "technician":
		return []Permission{PermTechnician, PermOperator}
	case "operator":
		return []Permission{PermOperator}
	default:
		return nil
	}
}
