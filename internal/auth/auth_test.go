package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	s := NewService("secret", time.Hour)

	hash, err := s.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.NoError(t, s.VerifyPassword(hash, "correct horse battery staple"))
	assert.ErrorIs(t, s.VerifyPassword(hash, "wrong"), ErrInvalidCredentials)
}

func TestTokenRoundTrip(t *testing.T) {
	s := NewService("secret", time.Hour)

	token, err := s.GenerateToken(42, "admin")
	require.NoError(t, err)

	claims, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "admin", claims.Username)
}

func TestTokenRejected(t *testing.T) {
	s := NewService("secret", time.Hour)

	_, err := s.ValidateToken("not-a-token")
	assert.Error(t, err)

	// токен, подписанный другим секретом
	other := NewService("other-secret", time.Hour)
	token, err := other.GenerateToken(1, "admin")
	require.NoError(t, err)

	_, err = s.ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenExpired(t *testing.T) {
	s := NewService("secret", -time.Minute)

	token, err := s.GenerateToken(1, "admin")
	require.NoError(t, err)

	_, err = s.ValidateToken(token)
	assert.Error(t, err)
}
