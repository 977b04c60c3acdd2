package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grimoireapp/grimoire-server/internal/domain"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	ok, err := VerifyPassword(hash, "correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword(hash, "wrong password")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	ok, err := VerifyPassword("not-a-hash", "password")
	require.NoError(t, err)
	assert.False(t, ok)
}

func newTestTokenService(t *testing.T, duration time.Duration) *TokenService {
	t.Helper()

	keyHex, err := GenerateKeyHex()
	require.NoError(t, err)

	svc, err := NewTokenService(keyHex, duration)
	require.NoError(t, err)
	return svc
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)

	user := &domain.User{Email: "reader@example.com"}
	user.ID = "user-123"

	token, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)

	claims, err := svc.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "reader@example.com", claims.Email)
	assert.Equal(t, "user-123", claims.Subject)
}

func TestVerifyAccessToken_Expired(t *testing.T) {
	svc := newTestTokenService(t, -time.Minute)

	user := &domain.User{Email: "reader@example.com"}
	user.ID = "user-123"

	token, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestVerifyAccessToken_WrongKey(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)
	other := newTestTokenService(t, time.Hour)

	user := &domain.User{Email: "reader@example.com"}
	user.ID = "user-123"

	token, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)

	_, err = other.VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestNewTokenService_BadKey(t *testing.T) {
	_, err := NewTokenService("deadbeef", time.Hour)
	assert.Error(t, err)
}
