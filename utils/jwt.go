package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/openscribe/scribe/config"
)

// Token lifetimes. Access tokens age out naturally; refresh tokens can
// additionally be revoked through the blacklist.
const (
	AccessTokenTTL  = time.Hour
	RefreshTokenTTL = 7 * 24 * time.Hour

	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// ErrNotRefreshToken is returned when an access token is presented where
// a refresh token is required, or vice versa.
var ErrNotRefreshToken = errors.New("token is not a refresh token")

// Claims defines the JWT claims used by both token kinds. Username and
// Email are only populated on access tokens.
type Claims struct {
	UserID    uint   `json:"user_id"`
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair bundles the two tokens issued at login.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// GenerateAccessToken issues a short-lived access token embedding the
// user's identity claims.
func GenerateAccessToken(userID uint, username, email string) (string, error) {
	claims := Claims{
		UserID:    userID,
		Username:  username,
		Email:     email,
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.Get().JWTSecret))
}

// GenerateRefreshToken issues a long-lived refresh token with a unique
// jti so individual tokens can be blacklisted on logout.
func GenerateRefreshToken(userID uint) (string, error) {
	claims := Claims{
		UserID:    userID,
		TokenType: TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(RefreshTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.Get().JWTSecret))
}

// GenerateTokenPair issues the access/refresh pair returned at login.
func GenerateTokenPair(userID uint, username, email string) (*TokenPair, error) {
	access, err := GenerateAccessToken(userID, username, email)
	if err != nil {
		return nil, err
	}
	refresh, err := GenerateRefreshToken(userID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// ParseToken validates a JWT of either kind and returns its claims.
func ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(config.Get().JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// ParseRefreshToken validates a refresh token, rejecting access tokens
// and blacklisted tokens.
func ParseRefreshToken(tokenStr string) (*Claims, error) {
	claims, err := ParseToken(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeRefresh {
		return nil, ErrNotRefreshToken
	}
	if IsTokenBlacklisted(tokenStr) {
		return nil, errors.New("token revoked")
	}
	return claims, nil
}
