package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelkeep/reelkeep/internal/models"
)

func newTestAuth(t *testing.T) *Auth {
	t.Helper()
	a, err := NewAuth("test-secret", time.Hour)
	require.NoError(t, err)
	return a
}

func TestNewAuthRejectsEmptySecret(t *testing.T) {
	_, err := NewAuth("", time.Hour)
	assert.Error(t, err)
}

func TestPasswordHashAndVerify(t *testing.T) {
	a := newTestAuth(t)

	hash, err := a.HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", hash)

	assert.NoError(t, a.VerifyPassword(hash, "correct horse battery"))
	assert.ErrorIs(t, a.VerifyPassword(hash, "wrong password"), ErrInvalidCredentials)
}

func TestHashPasswordRejectsShort(t *testing.T) {
	a := newTestAuth(t)
	_, err := a.HashPassword("short")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestTokenRoundTrip(t *testing.T) {
	a := newTestAuth(t)
	user := &models.User{ID: uuid.New(), Role: models.RoleAdmin}

	token, err := a.GenerateToken(user)
	require.NoError(t, err)

	claims, err := a.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestValidateTokenRejectsTampered(t *testing.T) {
	a := newTestAuth(t)
	other, err := NewAuth("other-secret", time.Hour)
	require.NoError(t, err)

	token, err := other.GenerateToken(&models.User{ID: uuid.New(), Role: models.RoleUser})
	require.NoError(t, err)

	_, err = a.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	a, err := NewAuth("test-secret", -time.Minute)
	require.NoError(t, err)
	// Negative lifetimes fall back to the default, so build an expired token
	// by hand via a short-lived instance instead.
	a.expiresIn = -time.Minute

	token, err := a.GenerateToken(&models.User{ID: uuid.New(), Role: models.RoleUser})
	require.NoError(t, err)

	_, err = a.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCheckPermission(t *testing.T) {
	a := newTestAuth(t)
	assert.True(t, a.CheckPermission(models.RoleAdmin, models.RoleAdmin))
	assert.True(t, a.CheckPermission(models.RoleAdmin, models.RoleUser))
	assert.True(t, a.CheckPermission(models.RoleUser, models.RoleUser))
	assert.False(t, a.CheckPermission(models.RoleUser, models.RoleAdmin))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", NormalizeEmail("  User@Example.COM "))
}
