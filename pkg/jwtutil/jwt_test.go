package jwtutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IhSAaaa/TaskFlow-sub000/pkg/config"
)

func newUtil(accessTTL, refreshTTL time.Duration) *JWTUtil {
	return NewJWTUtil(&config.JWTConfig{
		SigningKey: "test-signing-key",
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
	})
}

func TestGeneratePairRoundTrip(t *testing.T) {
	j := newUtil(time.Hour, 7*24*time.Hour)

	pair, err := j.GeneratePair(42, "dev@acme.example.com", 7, "member")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := j.ValidateAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "dev@acme.example.com", claims.Email)
	assert.Equal(t, uint(7), claims.TenantID)
	assert.Equal(t, "member", claims.Role)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)

	refreshClaims, err := j.ValidateRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refreshClaims.TokenType)
}

func TestValidateRejectsWrongTokenType(t *testing.T) {
	j := newUtil(time.Hour, 7*24*time.Hour)

	pair, err := j.GeneratePair(1, "dev@acme.example.com", 1, "member")
	require.NoError(t, err)

	// a refresh token is not an access token and vice versa
	_, err = j.ValidateAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = j.ValidateRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	j := newUtil(-time.Minute, -time.Minute)

	pair, err := j.GeneratePair(1, "dev@acme.example.com", 1, "member")
	require.NoError(t, err)

	_, err = j.ValidateAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsForeignSignature(t *testing.T) {
	issuer := newUtil(time.Hour, time.Hour)
	verifier := NewJWTUtil(&config.JWTConfig{SigningKey: "other-key", AccessTTL: time.Hour, RefreshTTL: time.Hour})

	pair, err := issuer.GeneratePair(1, "dev@acme.example.com", 1, "member")
	require.NoError(t, err)

	_, err = verifier.ValidateAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsGarbage(t *testing.T) {
	j := newUtil(time.Hour, time.Hour)

	_, err := j.ValidateAccess("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
