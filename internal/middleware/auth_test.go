package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindnotes/mindnotes-backend/internal/auth"
)

const testSecret = "test-secret"

func accessToken(t *testing.T, userID uuid.UUID, ttl time.Duration) string {
	t.Helper()
	claims := &auth.Claims{
		UserID:    userID.String(),
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func TestRequireAuth(t *testing.T) {
	tokens := auth.NewManager(testSecret, 15*time.Minute, 7*24*time.Hour, nil)
	userID := uuid.New()

	var gotUser uuid.UUID
	var gotOK bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotOK = UserID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireAuth(tokens)(next)

	t.Run("valid bearer token passes", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/v1/auth/me", nil)
		r.Header.Set("Authorization", "Bearer "+accessToken(t, userID, time.Minute))
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, gotOK)
		assert.Equal(t, userID, gotUser)
	})

	t.Run("missing header is 401", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/v1/auth/me", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), `"status":false`)
	})

	t.Run("expired token is 401", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/v1/auth/me", nil)
		r.Header.Set("Authorization", "Bearer "+accessToken(t, userID, -time.Minute))
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed scheme is 401", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/v1/auth/me", nil)
		r.Header.Set("Authorization", "Token abc")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
