package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/harentsoaR/complaint-api/internal/models"
)

// ErrInvalidToken is returned for any token that fails signature, algorithm
// or expiry checks.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims carry only the subject id and role.
type Claims struct {
	UserID string      `json:"_id"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs access tokens and refresh tokens with separate secrets.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// TokenPair is what login, registration and refresh hand back to clients.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// GenerateAccessToken creates a short-lived token for the given identity.
func (m *TokenManager) GenerateAccessToken(userID string, role models.Role) (string, error) {
	token, _, err := m.sign(userID, role, m.accessSecret, m.accessTTL)
	return token, err
}

// GenerateRefreshToken creates a long-lived token and returns its expiry.
func (m *TokenManager) GenerateRefreshToken(userID string, role models.Role) (string, time.Time, error) {
	return m.sign(userID, role, m.refreshSecret, m.refreshTTL)
}

// GeneratePair issues both tokens for one identity.
func (m *TokenManager) GeneratePair(userID string, role models.Role) (TokenPair, error) {
	access, err := m.GenerateAccessToken(userID, role)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, exp, err := m.GenerateRefreshToken(userID, role)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, RefreshExpiresAt: exp}, nil
}

func (m *TokenManager) ValidateAccessToken(tokenStr string) (*Claims, error) {
	return m.parse(tokenStr, m.accessSecret)
}

func (m *TokenManager) ValidateRefreshToken(tokenStr string) (*Claims, error) {
	return m.parse(tokenStr, m.refreshSecret)
}

func (m *TokenManager) sign(userID string, role models.Role, secret []byte, ttl time.Duration) (string, time.Time, error) {
	if len(secret) == 0 {
		return "", time.Time{}, errors.New("jwt secret is not configured")
	}
	now := m.now().UTC()
	exp := now.Add(ttl)
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

func (m *TokenManager) parse(tokenStr string, secret []byte) (*Claims, error) {
	if len(secret) == 0 || tokenStr == "" {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
