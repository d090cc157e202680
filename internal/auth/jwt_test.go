package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signTestToken(t *testing.T, secret, typ string, userID uuid.UUID, ttl time.Duration) string {
	t.Helper()
	claims := &Claims{
		UserID:    userID.String(),
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestVerifyAccess(t *testing.T) {
	m := NewManager(testSecret, 15*time.Minute, 7*24*time.Hour, nil)
	userID := uuid.New()

	t.Run("valid token", func(t *testing.T) {
		token := signTestToken(t, testSecret, "access", userID, time.Minute)
		got, err := m.VerifyAccess(token)
		require.NoError(t, err)
		assert.Equal(t, userID, got)
	})

	t.Run("expired token", func(t *testing.T) {
		token := signTestToken(t, testSecret, "access", userID, -time.Minute)
		_, err := m.VerifyAccess(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := signTestToken(t, "other-secret", "access", userID, time.Minute)
		_, err := m.VerifyAccess(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("refresh token rejected as access", func(t *testing.T) {
		token := signTestToken(t, testSecret, "refresh", userID, time.Minute)
		_, err := m.VerifyAccess(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage rejected", func(t *testing.T) {
		_, err := m.VerifyAccess("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
