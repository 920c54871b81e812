package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kaffeewerk/brewcore/internal/config"
)

func newTestAuthService(t *testing.T) (*AuthService, string) {
	t.Helper()
	t.Setenv("JWT_SECRET", testSecret)

	hash, err := NewPasswordHasher().HashPassword("correct-horse")
	require.NoError(t, err)

	gen := NewMachineTokenGenerator()
	machineTok, tokenHash, err := gen.GenerateMachineToken()
	require.NoError(t, err)

	cfg := config.AuthConfig{
		JWTSecretEnv:    "JWT_SECRET",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
		Users: []config.UserCredential{
			{Username: "barista", PasswordHash: hash, Role: "operator"},
			{Username: "chief", PasswordHash: hash, Role: "admin"},
		},
		MachineTokens: []config.MachineTokenCredential{
			{Name: "panel-hmi", TokenHash: tokenHash, Role: "operator"},
		},
	}

	return NewAuthService(cfg, zap.NewNop()), machineTok
}

func TestLoginSuccess(t *testing.T) {
	svc, _ := newTestAuthService(t)

	access, refresh, err := svc.LoginUser(context.Background(), "barista", "correct-horse", "127.0.0.1", "test")
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)

	claims, err := svc.ValidateAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, "barista", claims.Username)
	assert.Equal(t, "operator", claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, _, err := svc.LoginUser(context.Background(), "barista", "wrong", "127.0.0.1", "test")
	assert.Error(t, err)
}

func TestLoginUnknownUser(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, _, err := svc.LoginUser(context.Background(), "nobody", "correct-horse", "127.0.0.1", "test")
	assert.Error(t, err)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, refresh, err := svc.LoginUser(context.Background(), "barista", "correct-horse", "127.0.0.1", "test")
	require.NoError(t, err)

	access, newRefresh, err := svc.RefreshAccessToken(context.Background(), refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.NotEqual(t, refresh, newRefresh)

	// The old refresh token is spent.
	_, _, err = svc.RefreshAccessToken(context.Background(), refresh)
	assert.Error(t, err)

	// The rotated one still works.
	_, _, err = svc.RefreshAccessToken(context.Background(), newRefresh)
	assert.NoError(t, err)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, refresh, err := svc.LoginUser(context.Background(), "barista", "correct-horse", "127.0.0.1", "test")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), refresh))
	_, _, err = svc.RefreshAccessToken(context.Background(), refresh)
	assert.Error(t, err)

	assert.Error(t, svc.Logout(context.Background(), refresh))
}

func TestValidateMachineToken(t *testing.T) {
	svc, machineTok := newTestAuthService(t)

	perms, err := svc.ValidateMachineToken(context.Background(), machineTok, "10.0.0.5", "")
	require.NoError(t, err)
	assert.Equal(t, []Permission{PermOperator}, perms)
}

func TestValidateMachineTokenUnknown(t *testing.T) {
	svc, _ := newTestAuthService(t)

	unknown, _, err := NewMachineTokenGenerator().GenerateMachineToken()
	require.NoError(t, err)

	_, err = svc.ValidateMachineToken(context.Background(), unknown, "10.0.0.5", "")
	assert.Error(t, err)

	_, err = svc.ValidateMachineToken(context.Background(), "not-a-token", "10.0.0.5", "")
	assert.Error(t, err)
}

func TestValidateTokenAcceptsBothKinds(t *testing.T) {
	svc, machineTok := newTestAuthService(t)

	access, _, err := svc.LoginUser(context.Background(), "chief", "correct-horse", "127.0.0.1", "test")
	require.NoError(t, err)

	perms, err := svc.ValidateToken(context.Background(), access, "127.0.0.1", "test")
	require.NoError(t, err)
	assert.ElementsMatch(t, []Permission{PermAdmin, PermTechnician, PermOperator}, perms)

	perms, err = svc.ValidateToken(context.Background(), machineTok, "127.0.0.1", "")
	require.NoError(t, err)
	assert.Equal(t, []Permission{PermOperator}, perms)
}

func TestRolePermissionHierarchy(t *testing.T) {
	svc, _ := newTestAuthService(t)

	assert.Equal(t, []Permission{PermOperator}, svc.roleToPermissions("operator"))
	assert.Equal(t, []Permission{PermTechnician, PermOperator}, svc.roleToPermissions("technician"))
	assert.Equal(t, []Permission{PermAdmin, PermTechnician, PermOperator}, svc.roleToPermissions("admin"))
	assert.Nil(t, svc.roleToPermissions("intern"))
}
