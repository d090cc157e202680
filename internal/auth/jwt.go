package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token revoked")
)

const refreshKeyPrefix = "refresh:"

// Claims are the JWT claims carried by access and refresh tokens.
type Claims struct {
	UserID    string `json:"uid"`
	TokenType string `json:"typ"` // "access" or "refresh"
	jwt.RegisteredClaims
}

// Manager issues and verifies HS256 tokens. Refresh tokens are additionally
// allowlisted in Redis so logout and password changes revoke them.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	redis      *redis.Client
}

func NewManager(secret string, accessTTL, refreshTTL time.Duration, rdb *redis.Client) *Manager {
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		redis:      rdb,
	}
}

// IssuePair returns a fresh access/refresh token pair and records the refresh
// token id in the allowlist.
func (m *Manager) IssuePair(ctx context.Context, userID uuid.UUID) (access, refresh string, err error) {
	now := time.Now()

	access, err = m.sign(userID, "access", now, m.accessTTL, "")
	if err != nil {
		return "", "", err
	}

	jti := uuid.NewString()
	refresh, err = m.sign(userID, "refresh", now, m.refreshTTL, jti)
	if err != nil {
		return "", "", err
	}

	key := refreshKeyPrefix + userID.String() + ":" + jti
	if err := m.redis.Set(ctx, key, "1", m.refreshTTL).Err(); err != nil {
		return "", "", fmt.Errorf("store refresh token: %w", err)
	}
	return access, refresh, nil
}

func (m *Manager) sign(userID uuid.UUID, typ string, now time.Time, ttl time.Duration, jti string) (string, error) {
	claims := &Claims{
		UserID:    userID.String(),
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// VerifyAccess validates an access token and returns the user id.
func (m *Manager) VerifyAccess(tokenStr string) (uuid.UUID, error) {
	claims, err := m.parse(tokenStr)
	if err != nil {
		return uuid.Nil, err
	}
	if claims.TokenType != "access" {
		return uuid.Nil, ErrInvalidToken
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return userID, nil
}

// Rotate validates a refresh token against the allowlist, revokes it, and
// issues a new pair.
func (m *Manager) Rotate(ctx context.Context, refreshStr string) (access, refresh string, err error) {
	claims, err := m.parse(refreshStr)
	if err != nil {
		return "", "", err
	}
	if claims.TokenType != "refresh" || claims.ID == "" {
		return "", "", ErrInvalidToken
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return "", "", ErrInvalidToken
	}

	key := refreshKeyPrefix + claims.UserID + ":" + claims.ID
	deleted, err := m.redis.Del(ctx, key).Result()
	if err != nil {
		return "", "", fmt.Errorf("check refresh token: %w", err)
	}
	if deleted == 0 {
		return "", "", ErrTokenRevoked
	}

	return m.IssuePair(ctx, userID)
}

// RevokeAll drops every refresh token for the user (logout, password change).
func (m *Manager) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	var cursor uint64
	pattern := refreshKeyPrefix + userID.String() + ":*"
	for {
		keys, next, err := m.redis.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := m.redis.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (m *Manager) parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
