package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/IhSAaaa/TaskFlow-sub000/pkg/config"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// UserClaims represents the JWT claims carried by both token types
type UserClaims struct {
	UserID    uint   `json:"user_id"`
	Email     string `json:"email"`
	TenantID  uint   `json:"tenant_id"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair is the access/refresh pair issued on login, register and refresh
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// JWTUtil signs and validates HS256 tokens
type JWTUtil struct {
	config *config.JWTConfig
}

// NewJWTUtil creates a new JWT utility with the given configuration
func NewJWTUtil(config *config.JWTConfig) *JWTUtil {
	return &JWTUtil{config: config}
}

// GeneratePair issues an access token and a refresh token for the user.
// Both carry the same identity claims; only the type and lifetime differ.
func (j *JWTUtil) GeneratePair(userID uint, email string, tenantID uint, role string) (*TokenPair, error) {
	access, err := j.generate(userID, email, tenantID, role, TokenTypeAccess, j.config.AccessTTL)
	if err != nil {
		return nil, err
	}

	refresh, err := j.generate(userID, email, tenantID, role, TokenTypeRefresh, j.config.RefreshTTL)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (j *JWTUtil) generate(userID uint, email string, tenantID uint, role, tokenType string, ttl time.Duration) (string, error) {
	if j.config == nil {
		return "", errors.New("JWT configuration not provided")
	}

	claims := UserClaims{
		UserID:    userID,
		Email:     email,
		TenantID:  tenantID,
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.config.SigningKey))
}

// ValidateAccess validates an access token and returns its claims
func (j *JWTUtil) ValidateAccess(tokenString string) (*UserClaims, error) {
	return j.validate(tokenString, TokenTypeAccess)
}

// ValidateRefresh validates a refresh token and returns its claims
func (j *JWTUtil) ValidateRefresh(tokenString string) (*UserClaims, error) {
	return j.validate(tokenString, TokenTypeRefresh)
}

func (j *JWTUtil) validate(tokenString, wantType string) (*UserClaims, error) {
	if j.config == nil {
		return nil, errors.New("JWT configuration not provided")
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&UserClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(j.config.SigningKey), nil
		},
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid || claims.TokenType != wantType {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
