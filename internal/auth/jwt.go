// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

// Package auth issues and validates the bearer tokens that scope API and
// stream access to one theater, and provides the HTTP middleware that
// enforces them.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yqpay/theaterpos/internal/models"
)

// ErrTokenInvalid is returned for any token that fails validation:
// expired, tampered, malformed or signed with the wrong algorithm.
var ErrTokenInvalid = errors.New("invalid token")

// Claims are the JWT claims carried by every issued token. TheaterID is
// the tenant scope; admin tokens leave it empty and may address any
// theater.
type Claims struct {
	Username  string `json:"username"`
	Role      string `json:"role"`
	TheaterID string `json:"theaterId,omitempty"`
	jwt.RegisteredClaims
}

// CoversTheater reports whether the token may touch theaterID's
// resources.
func (c *Claims) CoversTheater(theaterID string) bool {
	if c.Role == models.RoleAdmin {
		return true
	}
	return c.TheaterID != "" && c.TheaterID == theaterID
}

// JWTManager signs and validates HS256 tokens.
type JWTManager struct {
	secret  []byte
	timeout time.Duration
}

// NewJWTManager creates a token manager. The secret must be at least 32
// bytes; tokens expire after timeout.
func NewJWTManager(secret string, timeout time.Duration) (*JWTManager, error) {
	if len(secret) < 32 {
		return nil, errors.New("jwt secret must be at least 32 characters")
	}
	if timeout <= 0 {
		timeout = 24 * time.Hour
	}
	return &JWTManager{secret: []byte(secret), timeout: timeout}, nil
}

// GenerateToken issues a signed token for an authenticated user.
func (m *JWTManager) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		Username:  user.Username,
		Role:      user.Role,
		TheaterID: user.TheaterID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.timeout)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies a token string and returns its claims. The
// signing method check rejects algorithm-confusion tokens.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
